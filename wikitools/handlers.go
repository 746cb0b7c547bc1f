package wikitools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"

	"github.com/wiki-mcp/wiki-mcp-go/mwapi"
)

// toolError converts any error into the uniform tool-result error payload.
// Errors never escape the tool-call boundary as protocol errors.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("Error: " + err.Error())
}

// toolJSON renders a reshaped result as one pretty-printed text block.
func toolJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ensureLogin runs the idempotent login handshake before any tool that is
// not a plain search/read. With no credentials configured it is a no-op and
// the call proceeds anonymously.
func (s *Server) ensureLogin(ctx context.Context) error {
	ok, err := s.wiki.Login(ctx)
	if err != nil {
		return err
	}
	if !ok {
		log.Debug().Msg("no credentials configured, proceeding anonymously")
	}
	return nil
}

func (s *Server) handleSearchPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return toolError(err), nil
	}
	limit := req.GetInt("limit", mwapi.DefaultLimit)

	result, err := s.wiki.Search(ctx, query, limit)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result)
}

func (s *Server) handleReadPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return toolError(err), nil
	}

	page, missing, err := s.wiki.ReadPage(ctx, title)
	if err != nil {
		return toolError(err), nil
	}
	if missing != nil {
		return toolJSON(missing)
	}
	return toolJSON(page)
}

func (s *Server) handleCreatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return toolError(err), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return toolError(err), nil
	}
	summary := req.GetString("summary", "")

	if err := s.ensureLogin(ctx); err != nil {
		return toolError(err), nil
	}
	result, err := s.wiki.CreatePage(ctx, title, content, summary)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result)
}

func (s *Server) handleUpdatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return toolError(err), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return toolError(err), nil
	}
	summary := req.GetString("summary", "")

	if err := s.ensureLogin(ctx); err != nil {
		return toolError(err), nil
	}
	result, err := s.wiki.UpdatePage(ctx, title, content, summary)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result)
}

func (s *Server) handlePageHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return toolError(err), nil
	}
	limit := req.GetInt("limit", mwapi.DefaultLimit)

	if err := s.ensureLogin(ctx); err != nil {
		return toolError(err), nil
	}
	hist, missing, err := s.wiki.History(ctx, title, limit)
	if err != nil {
		return toolError(err), nil
	}
	if missing != nil {
		return toolJSON(missing)
	}
	return toolJSON(hist)
}

func (s *Server) handlePageCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return toolError(err), nil
	}

	if err := s.ensureLogin(ctx); err != nil {
		return toolError(err), nil
	}
	cats, missing, err := s.wiki.Categories(ctx, title)
	if err != nil {
		return toolError(err), nil
	}
	if missing != nil {
		return toolJSON(missing)
	}
	return toolJSON(cats)
}
