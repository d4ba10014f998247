package server

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mj1618/bear-mcp/internal/bear"
	"github.com/mj1618/bear-mcp/internal/bridge"
)

// textResult returns one text content per item.
func textResult(items ...string) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(items))
	for _, item := range items {
		content = append(content, mcp.NewTextContent(item))
	}
	return &mcp.CallToolResult{Content: content}
}

// toolError converts a failed call into an error result the model can read.
func toolError(err error) *mcp.CallToolResult {
	var timeout *bridge.TimeoutError
	var dispatch *bridge.DispatchError
	switch {
	case errors.As(err, &timeout):
		return mcp.NewToolResultError(err.Error() + " (is Bear running and allowed to call back?)")
	case errors.As(err, &dispatch):
		return mcp.NewToolResultError(err.Error() + " (is Bear installed?)")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

// readListHandler serves a list-returning read tool through the cache.
func (s *Server) readListHandler(request mcp.CallToolRequest, fetch func() ([]string, error)) (*mcp.CallToolResult, error) {
	items, err := s.cache.Lookup(request.Params.Name, request.GetArguments(), fetch)
	if err != nil {
		return toolError(err), nil
	}
	return textResult(items...), nil
}

// writeActionHandler runs a tool that changes notes and invalidates the cache.
func (s *Server) writeActionHandler(fn func() ([]string, error)) (*mcp.CallToolResult, error) {
	items, err := fn()
	if err != nil {
		return toolError(err), nil
	}
	s.cache.InvalidateAll()
	return textResult(items...), nil
}

func (s *Server) handleOpenNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	note, err := s.bear.OpenNote(ctx, bear.OpenNoteParams{
		ID:    stringParam(params, "id", ""),
		Title: stringParam(params, "title", ""),
	})
	if err != nil {
		return toolError(err), nil
	}
	return textResult(note), nil
}

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeActionHandler(func() ([]string, error) {
		id, err := s.bear.Create(ctx, bear.CreateParams{
			Title:     stringParam(params, "title", ""),
			Text:      stringParam(params, "text", ""),
			Tags:      stringSliceParam(params, "tags"),
			Timestamp: boolParam(params, "timestamp", false),
		})
		return []string{id}, err
	})
}

func (s *Server) handleTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.readListHandler(request, func() ([]string, error) {
		return s.bear.Tags(ctx)
	})
}

func (s *Server) handleOpenTag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	return s.readListHandler(request, func() ([]string, error) {
		return s.bear.OpenTag(ctx, name)
	})
}

func (s *Server) handleTodo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	search := stringParam(request.GetArguments(), "search", "")
	return s.readListHandler(request, func() ([]string, error) {
		return s.bear.Todo(ctx, search)
	})
}

func (s *Server) handleToday(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	search := stringParam(request.GetArguments(), "search", "")
	return s.readListHandler(request, func() ([]string, error) {
		return s.bear.Today(ctx, search)
	})
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	in := bear.SearchParams{
		Term: stringParam(params, "term", ""),
		Tag:  stringParam(params, "tag", ""),
	}
	return s.readListHandler(request, func() ([]string, error) {
		return s.bear.Search(ctx, in)
	})
}

func (s *Server) handleGrabURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	url := stringParam(params, "url", "")
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	return s.writeActionHandler(func() ([]string, error) {
		id, err := s.bear.GrabURL(ctx, bear.GrabURLParams{
			URL:  url,
			Tags: stringSliceParam(params, "tags"),
		})
		return []string{id}, err
	})
}

func (s *Server) handleAddText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeActionHandler(func() ([]string, error) {
		res, err := s.bear.AddText(ctx, bear.AddTextParams{
			Text:      stringParam(params, "text", ""),
			ID:        stringParam(params, "id", ""),
			Title:     stringParam(params, "title", ""),
			Header:    stringParam(params, "header", ""),
			Mode:      stringParam(params, "mode", ""),
			NewLine:   boolParam(params, "new_line", false),
			Tags:      stringSliceParam(params, "tags"),
			Timestamp: boolParam(params, "timestamp", false),
		})
		return []string{res.Note, res.Title}, err
	})
}
