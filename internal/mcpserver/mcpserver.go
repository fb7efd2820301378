// Package mcpserver exposes code comparison as MCP tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/codesim/internal/service/comparison"
)

// Server wraps the MCP server and registers the comparison tools.
type Server struct {
	server *mcp.Server
	svc    *comparison.Service
}

// NewServer creates an MCP server backed by svc.
func NewServer(version string, svc *comparison.Service) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "codesim",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, svc: svc}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compare_code",
		Description: describeCompareCode(),
	}, s.handleCompareCode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compare_files",
		Description: describeCompareFiles(),
	}, s.handleCompareFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compare_matrix",
		Description: describeCompareMatrix(),
	}, s.handleCompareMatrix)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_languages",
		Description: describeListLanguages(),
	}, s.handleListLanguages)
}
