// Package wikitools exposes the MediaWiki page operations as MCP tools.
package wikitools

import (
	"context"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/wiki-mcp/wiki-mcp-go/mwapi"
)

const (
	ServerName    = "wiki-mcp"
	ServerVersion = "0.1.0"
)

// Server wraps the MCP server together with the shared wiki session.
type Server struct {
	wiki *mwapi.Client
	mcp  *server.MCPServer
}

// New builds the MCP server and registers the six wiki tools on it.
func New(wiki *mwapi.Client) *Server {
	s := &Server{
		wiki: wiki,
		mcp: server.NewMCPServer(
			ServerName,
			ServerVersion,
			server.WithToolCapabilities(true),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio runs the MCP server on stdin/stdout until the client hangs up.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// StreamableHTTPHandler returns an http.Handler speaking the MCP
// streamable-HTTP transport, for the optional local listener.
func (s *Server) StreamableHTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

func (s *Server) registerTools() {
	s.addTool(searchPagesTool(), s.handleSearchPages)
	s.addTool(readPageTool(), s.handleReadPage)
	s.addTool(createPageTool(), s.handleCreatePage)
	s.addTool(updatePageTool(), s.handleUpdatePage)
	s.addTool(pageHistoryTool(), s.handlePageHistory)
	s.addTool(pageCategoriesTool(), s.handlePageCategories)
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Debug().Str("tool", req.Params.Name).Msg("tool call")
		return handler(ctx, req)
	})
}
