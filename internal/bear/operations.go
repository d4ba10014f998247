// Package bear defines the Bear x-callback-url actions exposed as tools and
// decodes their callback payloads.
package bear

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/mj1618/bear-mcp/internal/bridge"
)

// Operation families. Each one has its own callback routes and pending queue.
const (
	FamilyOpenNote = "open-note"
	FamilyCreate   = "create"
	FamilyTags     = "tags"
	FamilyOpenTag  = "open-tag"
	FamilyTodo     = "todo"
	FamilyToday    = "today"
	FamilySearch   = "search"
	FamilyGrabURL  = "grab-url"
	FamilyAddText  = "add-text"
)

// Families lists every family the bridge must serve.
var Families = []string{
	FamilyOpenNote,
	FamilyCreate,
	FamilyTags,
	FamilyOpenTag,
	FamilyTodo,
	FamilyToday,
	FamilySearch,
	FamilyGrabURL,
	FamilyAddText,
}

// AddText modes accepted by Bear.
var AddTextModes = []string{"prepend", "append", "replace_all", "replace"}

// ErrMissingParam is returned when a required parameter is absent.
var ErrMissingParam = errors.New("missing required parameter")

// Caller is the part of the bridge the operations need.
type Caller interface {
	Call(ctx context.Context, req bridge.Request) (url.Values, error)
}

// Client runs typed Bear actions over a Caller.
type Client struct {
	caller Caller
	token  string
	logger *slog.Logger
}

// NewClient creates a Client. token is sent with read actions that require it.
func NewClient(caller Caller, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{caller: caller, token: token, logger: logger}
}

// hidden suppresses Bear's window for actions that would otherwise show it.
func hidden(p bridge.Params, keys ...string) {
	for _, k := range keys {
		p.Set(k, "no")
	}
}

// OpenNoteParams selects a note by id or title.
type OpenNoteParams struct {
	ID    string
	Title string
}

// OpenNote returns the content of a note.
func (c *Client) OpenNote(ctx context.Context, in OpenNoteParams) (string, error) {
	p := bridge.Params{}
	hidden(p, "new_window", "float", "show_window", "open_note", "selected", "pin", "edit")
	p.String("id", in.ID)
	p.String("title", in.Title)

	res, err := c.caller.Call(ctx, bridge.Request{Family: FamilyOpenNote, Params: p})
	if err != nil {
		return "", err
	}
	return unescapeField(res, "note"), nil
}

// CreateParams describes a new note.
type CreateParams struct {
	Title     string
	Text      string
	Tags      []string
	Timestamp bool
}

// Create creates a note and returns its identifier.
func (c *Client) Create(ctx context.Context, in CreateParams) (string, error) {
	p := bridge.Params{}
	hidden(p, "open_note", "new_window", "float", "show_window")
	p.String("title", in.Title)
	p.String("text", in.Text)
	p.List("tags", in.Tags)
	p.Flag("timestamp", in.Timestamp)

	res, err := c.caller.Call(ctx, bridge.Request{Family: FamilyCreate, Params: p})
	if err != nil {
		return "", err
	}
	return res.Get("identifier"), nil
}

// Tags returns the tags shown in Bear's sidebar.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	p := bridge.Params{}
	p.Set("token", c.token)

	res, err := c.caller.Call(ctx, bridge.Request{Family: FamilyTags, Params: p})
	if err != nil {
		return nil, err
	}
	return decodeTagNames(c.logger, res.Get("tags")), nil
}

// OpenTag lists the notes carrying a tag, or any of a comma-separated list of tags.
func (c *Client) OpenTag(ctx context.Context, name string) ([]string, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingParam)
	}
	p := bridge.Params{}
	p.Set("name", name)
	p.Set("token", c.token)

	return c.notes(ctx, FamilyOpenTag, p)
}

// Todo lists notes in the Todo section, optionally filtered by search.
func (c *Client) Todo(ctx context.Context, search string) ([]string, error) {
	return c.notes(ctx, FamilyTodo, c.sidebarParams(search))
}

// Today lists notes in the Today section, optionally filtered by search.
func (c *Client) Today(ctx context.Context, search string) ([]string, error) {
	return c.notes(ctx, FamilyToday, c.sidebarParams(search))
}

func (c *Client) sidebarParams(search string) bridge.Params {
	p := bridge.Params{}
	hidden(p, "show_window")
	p.Set("token", c.token)
	p.String("search", search)
	return p
}

// SearchParams filters a search by term and tag.
type SearchParams struct {
	Term string
	Tag  string
}

// Search lists notes matching term, optionally within tag.
func (c *Client) Search(ctx context.Context, in SearchParams) ([]string, error) {
	p := bridge.Params{}
	hidden(p, "show_window")
	p.Set("token", c.token)
	p.String("term", in.Term)
	p.String("tag", in.Tag)

	return c.notes(ctx, FamilySearch, p)
}

func (c *Client) notes(ctx context.Context, family string, p bridge.Params) ([]string, error) {
	res, err := c.caller.Call(ctx, bridge.Request{Family: family, Params: p})
	if err != nil {
		return nil, err
	}
	return decodeNotes(c.logger, res.Get("notes")), nil
}

// GrabURLParams describes a web page to capture.
type GrabURLParams struct {
	URL string
	// Tags are ignored by Bear when web content tags are set in its preferences.
	Tags []string
}

// GrabURL creates a note from a web page and returns its identifier.
func (c *Client) GrabURL(ctx context.Context, in GrabURLParams) (string, error) {
	if in.URL == "" {
		return "", fmt.Errorf("%w: url", ErrMissingParam)
	}
	p := bridge.Params{}
	p.Set("url", in.URL)
	p.List("tags", in.Tags)

	res, err := c.caller.Call(ctx, bridge.Request{Family: FamilyGrabURL, Params: p})
	if err != nil {
		return "", err
	}
	return res.Get("identifier"), nil
}

// AddTextParams describes text to add to an existing note.
type AddTextParams struct {
	Text   string
	ID     string
	Title  string
	Header string
	Mode   string
	// NewLine only applies when Mode is "append".
	NewLine   bool
	Tags      []string
	Timestamp bool
}

// AddTextResult is the note after the edit.
type AddTextResult struct {
	Note  string
	Title string
}

// AddText appends, prepends or replaces text in a note. Encrypted notes cannot be edited.
func (c *Client) AddText(ctx context.Context, in AddTextParams) (AddTextResult, error) {
	if in.Mode != "" && !validMode(in.Mode) {
		return AddTextResult{}, fmt.Errorf("invalid mode %q (use prepend, append, replace_all or replace)", in.Mode)
	}
	p := bridge.Params{}
	p.String("id", in.ID)
	p.String("title", in.Title)
	p.String("text", in.Text)
	p.String("header", in.Header)
	p.String("mode", in.Mode)
	p.Flag("new_line", in.NewLine && in.Mode == "append")
	p.List("tags", in.Tags)
	p.Flag("timestamp", in.Timestamp)

	res, err := c.caller.Call(ctx, bridge.Request{Family: FamilyAddText, Params: p})
	if err != nil {
		return AddTextResult{}, err
	}
	return AddTextResult{
		Note:  unescapeField(res, "note"),
		Title: unescapeField(res, "title"),
	}, nil
}

func validMode(mode string) bool {
	for _, m := range AddTextModes {
		if m == mode {
			return true
		}
	}
	return false
}
