// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes clipboard history tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/clipman/internal/apperr"
	"github.com/starford/clipman/internal/clipservice"
	"github.com/starford/clipman/internal/models"
)

// PinnedURI is the resource listing pinned entries.
const PinnedURI = "clipman://pinned"

// Server wraps the MCP server with clipboard history tools.
type Server struct {
	mcp *server.MCPServer
	svc *clipservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *clipservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"clipman",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_history",
		mcp.WithDescription("Search clipboard history by word prefix and full text. Results are newest first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchHistory)

	s.mcp.AddTool(mcp.NewTool("recent_history",
		mcp.WithDescription("List recent clipboard entries. Pinned entries come first."),
		mcp.WithNumber("limit", mcp.Description("Maximum entries to return (default 50, max 1000)")),
	), s.recentHistory)

	s.mcp.AddTool(mcp.NewTool("get_entry",
		mcp.WithDescription("Read the full content of a clipboard entry."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Entry id")),
	), s.getEntry)

	s.mcp.AddTool(mcp.NewTool("pin_entry",
		mcp.WithDescription("Pin a clipboard entry after the currently pinned ones."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Entry id")),
	), s.pinEntry)

	s.mcp.AddTool(mcp.NewTool("unpin_entry",
		mcp.WithDescription("Unpin a clipboard entry."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Entry id")),
	), s.unpinEntry)

	s.mcp.AddResource(
		mcp.NewResource(PinnedURI, "Pinned clipboard entries",
			mcp.WithResourceDescription("Pinned entries in pin order."),
			mcp.WithMIMEType("application/json"),
		),
		s.readPinnedResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// errorResult turns a service error into a tool error the model can read.
func errorResult(id int64, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("entry not found: %d", id))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) searchHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) recentHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.Recent(ctx, req.GetInt("limit", clipservice.DefaultRecentLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entries)
}

func (s *Server) getEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.Get(ctx, int64(id))
	if err != nil {
		return errorResult(int64(id), err), nil
	}
	return mcp.NewToolResultText(e.Content), nil
}

func (s *Server) pinEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.Pin(ctx, int64(id))
	if err != nil {
		return errorResult(int64(id), err), nil
	}
	return mcp.NewToolResultText(pinMessage(e)), nil
}

// pinMessage describes a pin result. Another process sharing the database
// may unpin the entry before it is read back, leaving no order.
func pinMessage(e *models.Entry) string {
	if !e.IsPinned || e.PinOrder == nil {
		return fmt.Sprintf("pinned: %d (since unpinned)", e.ID)
	}
	return fmt.Sprintf("pinned: %d (order %d)", e.ID, *e.PinOrder)
}

func (s *Server) unpinEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.Unpin(ctx, int64(id)); err != nil {
		return errorResult(int64(id), err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("unpinned: %d", id)), nil
}

func (s *Server) readPinnedResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries, err := s.svc.Pinned(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      PinnedURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
