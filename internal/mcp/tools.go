package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/Lumeva-AI/playwright-consolelogs-mcp/internal/browser"
)

// OpenBrowserInput is the input for open_browser.
type OpenBrowserInput struct {
	URL string `json:"url" jsonschema:"The URL to open in the browser"`
}

// OpenBrowserOutput is the output for open_browser.
type OpenBrowserOutput struct {
	Message string `json:"message"`
}

// GetConsoleLogsInput is the input for get_console_logs.
type GetConsoleLogsInput struct {
	LastN int `json:"last_n" jsonschema:"Number of log entries to return, most recent first. Use a large number to get all logs."`
}

// GetConsoleLogsOutput is the output for get_console_logs.
type GetConsoleLogsOutput struct {
	Logs []browser.ConsoleLogGroup `json:"logs"`
}

// GetNetworkRequestsInput is the input for get_network_requests.
type GetNetworkRequestsInput struct {
	LastN int `json:"last_n" jsonschema:"Number of network request entries to return, most recent first. Use a large number to get all requests."`
}

// GetNetworkRequestsOutput is the output for get_network_requests.
type GetNetworkRequestsOutput struct {
	Requests []browser.NetworkExchange `json:"requests"`
}

// CloseBrowserInput is the input for close_browser.
type CloseBrowserInput struct{}

// CloseBrowserOutput is the output for close_browser.
type CloseBrowserOutput struct {
	Message string `json:"message"`
}

// registerTools registers the four session tools with the MCP server.
func registerTools(srv *sdkmcp.Server, d *Deps) {
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "open_browser",
		Description: "Open a browser at the specified URL and start monitoring console logs and network requests. The window stays open for interaction.",
	}, ToolOpenBrowser(d))

	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "get_console_logs",
		Description: "Get console logs from the currently open page, oldest first. Consecutive repeats of the same message are collapsed into one entry with a count.",
	}, ToolGetConsoleLogs(d))

	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "get_network_requests",
		Description: "Get network requests from the currently open page, oldest first, each with its response when one has arrived.",
	}, ToolGetNetworkRequests(d))

	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "close_browser",
		Description: "Close the browser and clean up resources.",
	}, ToolCloseBrowser(d))
}

// ToolOpenBrowser opens a URL in the managed browser session.
func ToolOpenBrowser(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input OpenBrowserInput) (*sdkmcp.CallToolResult, OpenBrowserOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input OpenBrowserInput) (*sdkmcp.CallToolResult, OpenBrowserOutput, error) {
		if err := d.Sessions.OpenURL(ctx, input.URL); err != nil {
			d.Logger.Warn("open_browser failed", zap.String("url", input.URL), zap.Error(err))
			return nil, OpenBrowserOutput{}, err
		}
		return nil, OpenBrowserOutput{
			Message: fmt.Sprintf("Opened %s successfully. The browser window will remain open for you to interact with.", input.URL),
		}, nil
	}
}

// ToolGetConsoleLogs returns the deduplicated console log window.
func ToolGetConsoleLogs(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetConsoleLogsInput) (*sdkmcp.CallToolResult, GetConsoleLogsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetConsoleLogsInput) (*sdkmcp.CallToolResult, GetConsoleLogsOutput, error) {
		logs, err := d.Sessions.GetConsoleLogs(input.LastN)
		if err != nil {
			return nil, GetConsoleLogsOutput{}, err
		}
		if logs == nil {
			logs = []browser.ConsoleLogGroup{}
		}
		return nil, GetConsoleLogsOutput{Logs: logs}, nil
	}
}

// ToolGetNetworkRequests returns the network exchange window.
func ToolGetNetworkRequests(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetNetworkRequestsInput) (*sdkmcp.CallToolResult, GetNetworkRequestsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetNetworkRequestsInput) (*sdkmcp.CallToolResult, GetNetworkRequestsOutput, error) {
		requests, err := d.Sessions.GetNetworkRequests(input.LastN)
		if err != nil {
			return nil, GetNetworkRequestsOutput{}, err
		}
		if requests == nil {
			requests = []browser.NetworkExchange{}
		}
		return nil, GetNetworkRequestsOutput{Requests: requests}, nil
	}
}

// ToolCloseBrowser tears the session down.
func ToolCloseBrowser(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CloseBrowserInput) (*sdkmcp.CallToolResult, CloseBrowserOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CloseBrowserInput) (*sdkmcp.CallToolResult, CloseBrowserOutput, error) {
		if err := d.Sessions.Close(ctx); err != nil {
			return nil, CloseBrowserOutput{}, err
		}
		return nil, CloseBrowserOutput{Message: "Browser closed successfully"}, nil
	}
}
