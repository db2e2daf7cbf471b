// File: cmd/browser-monitor/main.go
// Process entry point for the browser-monitor MCP server.
package main

import (
	"github.com/Lumeva-AI/playwright-consolelogs-mcp/cmd"
)

func main() {
	cmd.Execute()
}
