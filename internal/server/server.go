// Package server exposes Bear actions as MCP tools.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mj1618/bear-mcp/internal/bear"
	"github.com/mj1618/bear-mcp/internal/config"
)

// Bear is the set of Bear actions served as tools. *bear.Client implements it.
type Bear interface {
	OpenNote(ctx context.Context, in bear.OpenNoteParams) (string, error)
	Create(ctx context.Context, in bear.CreateParams) (string, error)
	Tags(ctx context.Context) ([]string, error)
	OpenTag(ctx context.Context, name string) ([]string, error)
	Todo(ctx context.Context, search string) ([]string, error)
	Today(ctx context.Context, search string) ([]string, error)
	Search(ctx context.Context, in bear.SearchParams) ([]string, error)
	GrabURL(ctx context.Context, in bear.GrabURLParams) (string, error)
	AddText(ctx context.Context, in bear.AddTextParams) (bear.AddTextResult, error)
}

// Config holds MCP server configuration. Transport is one of the
// config.Transport* values; empty means stdio.
type Config struct {
	Name      string
	Version   string
	Transport string
	Port      int
	CacheTTL  time.Duration
}

// Server wraps the MCP server with the Bear client and the result cache.
type Server struct {
	cfg    Config
	bear   Bear
	cache  *ResultCache
	logger *slog.Logger
	mcp    *mcpserver.MCPServer
}

// New creates an MCP server with every Bear tool registered.
func New(b Bear, cfg Config, logger *slog.Logger) *Server {
	if cfg.Name == "" {
		cfg.Name = "bear"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Transport == "" {
		cfg.Transport = config.TransportStdio
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		bear:   b,
		cache:  NewResultCache(cfg.CacheTTL),
		logger: logger,
	}
	s.mcp = mcpserver.NewMCPServer(
		cfg.Name,
		cfg.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	s.registerTools()
	return s
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

func (s *Server) registerTools() {
	for _, d := range toolDefs {
		d := d
		s.mcp.AddTool(d.tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			s.logger.Debug("tool call", "tool", d.tool.Name, "family", d.family)
			return d.handle(s, ctx, request)
		})
	}
}

// Serve runs the configured transport until ctx is done or the client goes away.
func (s *Server) Serve(ctx context.Context) error {
	switch s.cfg.Transport {
	case config.TransportStdio:
		s.logger.Info("serving MCP", "transport", s.cfg.Transport)
		stdio := mcpserver.NewStdioServer(s.mcp)
		stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
		err := stdio.Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && ctx.Err() != nil {
			return nil
		}
		return err
	case config.TransportStreamableHTTP:
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.logger.Info("serving MCP", "transport", s.cfg.Transport, "addr", addr)
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.Start(addr) }()
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", s.cfg.Transport)
	}
}
