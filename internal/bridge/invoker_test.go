package bridge

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoker_Build(t *testing.T) {
	inv := NewInvoker(nil)
	params := Params{}
	params.String("title", "T")
	params.String("text", "B")
	params.List("tags", []string{"x", "y"})

	uri := inv.Build("create", params, "http://127.0.0.1:11599")

	require.True(t, strings.HasPrefix(uri, "bear://x-callback-url/create?"), uri)
	u, err := url.Parse(uri)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, url.Values{
		"title":     {"T"},
		"text":      {"B"},
		"tags":      {"x,y"},
		"x-success": {"http://127.0.0.1:11599/create/success"},
		"x-error":   {"http://127.0.0.1:11599/create/error"},
	}, q)
}

func TestInvoker_BuildIsDeterministicAndEncodesSpaces(t *testing.T) {
	inv := NewInvoker(nil)
	params := Params{"text": "hello world & more", "id": "a/b"}

	first := inv.Build("add-text", params, "http://127.0.0.1:1")
	second := inv.Build("add-text", params, "http://127.0.0.1:1")
	assert.Equal(t, first, second)
	assert.Contains(t, first, "text=hello%20world%20%26%20more")
	assert.NotContains(t, first, "+")

	// Keys are sorted.
	query := first[strings.Index(first, "?")+1:]
	assert.True(t, strings.HasPrefix(query, "id=a%2Fb&text="), query)
}

func TestParams_OmitsAbsentValues(t *testing.T) {
	p := Params{}
	p.String("title", "")
	p.Flag("timestamp", false)
	p.List("tags", nil)
	p.List("tags", []string{})
	assert.Empty(t, p)

	p.Flag("timestamp", true)
	p.Set("show_window", "no")
	assert.Equal(t, Params{"timestamp": "yes", "show_window": "no"}, p)
}

func TestInvoker_FirePropagatesOpenerError(t *testing.T) {
	want := errors.New("open: exit status 1")
	var got string
	inv := NewInvoker(OpenerFunc(func(_ context.Context, uri string) error {
		got = uri
		return want
	}))

	err := inv.Fire(context.Background(), "bear://x-callback-url/tags")
	assert.ErrorIs(t, err, want)
	assert.Equal(t, "bear://x-callback-url/tags", got)
}

func TestCallbackBase(t *testing.T) {
	bound := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 11600}
	tests := []struct {
		host string
		want string
	}{
		{"127.0.0.1", "http://127.0.0.1:11600"},
		{"localhost", "http://localhost:11600"},
		{"", "http://127.0.0.1:11600"},
		{"0.0.0.0", "http://127.0.0.1:11600"},
		{"::1", "http://[::1]:11600"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, callbackBase(tt.host, bound))
		})
	}
}
