// Package mcp exposes the browser session over the Model Context Protocol.
// It is a pure dispatch layer: each tool decodes its input, calls the
// session controller, and encodes the result. All behavior lives in
// internal/browser.
package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/Lumeva-AI/playwright-consolelogs-mcp/internal/browser"
)

// SessionController is the session surface the tools dispatch to,
// implemented by *browser.Manager.
type SessionController interface {
	OpenURL(ctx context.Context, url string) error
	GetConsoleLogs(lastN int) ([]browser.ConsoleLogGroup, error)
	GetNetworkRequests(lastN int) ([]browser.NetworkExchange, error)
	Close(ctx context.Context) error
}

// Deps contains the dependencies the tool handlers need.
type Deps struct {
	Sessions SessionController
	Logger   *zap.Logger
}

// Server wraps the MCP server with the browser-monitor tools registered.
type Server struct {
	mcpServer *sdkmcp.Server
}

// NewServer creates an MCP server exposing the four session tools.
func NewServer(deps *Deps, version string) *Server {
	s := sdkmcp.NewServer(
		&sdkmcp.Implementation{
			Name:    "browser-monitor",
			Version: version,
		},
		nil,
	)
	registerTools(s, deps)
	return &Server{mcpServer: s}
}

// Run serves MCP over stdio until the context is canceled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// MCPServer returns the underlying SDK server for testing.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
