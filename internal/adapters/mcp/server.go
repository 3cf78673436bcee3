package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tashrique/cl-rag/internal/core/ports"
)

// Server exposes retrieval as an MCP tool over stdio, so agent hosts can
// search the corpus without going through the HTTP API.
type Server struct {
	searcher    ports.SemanticSearcher
	defaultTopK int
}

func NewServer(searcher ports.SemanticSearcher, defaultTopK int) *Server {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &Server{
		searcher:    searcher,
		defaultTopK: defaultTopK,
	}
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.build())
}

func (s *Server) build() *server.MCPServer {
	srv := server.NewMCPServer(
		"cl-rag",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	tool := mcp.NewTool("semantic_search",
		mcp.WithDescription("Search the document corpus by meaning and return the most relevant passages. Chunked documents are merged back together before ranking."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language search query."),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Maximum number of results to return."),
		),
	)
	srv.AddTool(tool, s.handleSemanticSearch)
	return srv
}

func (s *Server) handleSemanticSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topK := req.GetInt("top_k", s.defaultTopK)

	results := s.searcher.SemanticSearch(ctx, query, topK)

	payload, err := json.Marshal(map[string]any{"results": results})
	if err != nil {
		return nil, fmt.Errorf("encode search results: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
