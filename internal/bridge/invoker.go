package bridge

import (
	"context"
	"net/url"
	"sort"
	"strings"
)

// BaseURL is the fixed scheme and host of every outbound Bear action.
const BaseURL = "bear://x-callback-url"

// Opener hands a URI to whatever opens it (the OS URL handler in production).
// It must return promptly; the result of the action arrives via callback.
type Opener interface {
	Open(ctx context.Context, uri string) error
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, uri string) error

// Open calls f(ctx, uri).
func (f OpenerFunc) Open(ctx context.Context, uri string) error {
	return f(ctx, uri)
}

// Params are the outbound query parameters of one action. Only keys that are
// present are sent. The String, Flag and List helpers treat an empty string,
// false or an empty slice as absent, so an explicit "" never reaches Bear;
// use Set to send a value as is.
type Params map[string]string

// Set stores value unconditionally.
func (p Params) Set(key, value string) {
	p[key] = value
}

// String stores value if it is non-empty.
func (p Params) String(key, value string) {
	if value != "" {
		p[key] = value
	}
}

// Flag stores "yes" when value is true and leaves the key absent otherwise.
func (p Params) Flag(key string, value bool) {
	if value {
		p[key] = "yes"
	}
}

// List stores the comma-joined values when there is at least one.
func (p Params) List(key string, values []string) {
	if len(values) > 0 {
		p[key] = strings.Join(values, ",")
	}
}

// Invoker translates a call into a Bear URI and fires it. It holds no state
// besides its collaborators.
type Invoker struct {
	baseURL string
	opener  Opener
}

// NewInvoker creates an Invoker that fires URIs through opener.
func NewInvoker(opener Opener) *Invoker {
	return &Invoker{baseURL: BaseURL, opener: opener}
}

// Build returns the outbound URI for family. x-success and x-error point at
// callbackBase (for example "http://127.0.0.1:11599") and are always set.
// Keys are sorted so the output is deterministic.
func (inv *Invoker) Build(family string, params Params, callbackBase string) string {
	all := make(Params, len(params)+2)
	for k, v := range params {
		all[k] = v
	}
	success, failure := CallbackURLs(callbackBase, family)
	all.Set("x-success", success)
	all.Set("x-error", failure)
	return inv.baseURL + "/" + family + "?" + encodeQuery(all)
}

// Fire hands uri to the opener. It does not wait for the action to complete.
func (inv *Invoker) Fire(ctx context.Context, uri string) error {
	return inv.opener.Open(ctx, uri)
}

// CallbackURLs returns the x-success and x-error targets for family.
func CallbackURLs(callbackBase, family string) (success, failure string) {
	base := strings.TrimRight(callbackBase, "/") + "/" + family
	return base + "/success", base + "/error"
}

// encodeQuery percent-encodes params with spaces as %20, which Bear expects,
// rather than the "+" that url.Values.Encode produces.
func encodeQuery(params Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(params[k]))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
