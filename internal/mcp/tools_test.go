package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lumeva-AI/playwright-consolelogs-mcp/internal/browser"
)

// fakeSessions is a scriptable SessionController for handler tests.
type fakeSessions struct {
	openedURL string
	openErr   error

	logs    []browser.ConsoleLogGroup
	logsErr error

	requests    []browser.NetworkExchange
	requestsErr error

	closed   bool
	closeErr error

	lastNSeen int
}

func (f *fakeSessions) OpenURL(_ context.Context, url string) error {
	f.openedURL = url
	return f.openErr
}

func (f *fakeSessions) GetConsoleLogs(lastN int) ([]browser.ConsoleLogGroup, error) {
	f.lastNSeen = lastN
	return f.logs, f.logsErr
}

func (f *fakeSessions) GetNetworkRequests(lastN int) ([]browser.NetworkExchange, error) {
	f.lastNSeen = lastN
	return f.requests, f.requestsErr
}

func (f *fakeSessions) Close(context.Context) error {
	f.closed = true
	return f.closeErr
}

func newTestDeps(sessions *fakeSessions) *Deps {
	return &Deps{Sessions: sessions, Logger: zap.NewNop()}
}

func TestToolOpenBrowser(t *testing.T) {
	sessions := &fakeSessions{}
	handler := ToolOpenBrowser(newTestDeps(sessions))

	_, out, err := handler(context.Background(), nil, OpenBrowserInput{URL: "https://example.com"})
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", sessions.openedURL)
	assert.Equal(t, "Opened https://example.com successfully. The browser window will remain open for you to interact with.", out.Message)
}

func TestToolOpenBrowser_PropagatesError(t *testing.T) {
	sessions := &fakeSessions{openErr: browser.ErrNavigation}
	handler := ToolOpenBrowser(newTestDeps(sessions))

	_, _, err := handler(context.Background(), nil, OpenBrowserInput{URL: "https://unreachable.invalid"})
	assert.ErrorIs(t, err, browser.ErrNavigation)
}

func TestToolGetConsoleLogs(t *testing.T) {
	sessions := &fakeSessions{
		logs: []browser.ConsoleLogGroup{
			{Kind: "error", Text: "boom (repeated 3 times)", Count: 3},
		},
	}
	handler := ToolGetConsoleLogs(newTestDeps(sessions))

	_, out, err := handler(context.Background(), nil, GetConsoleLogsInput{LastN: 25})
	require.NoError(t, err)

	assert.Equal(t, 25, sessions.lastNSeen)
	require.Len(t, out.Logs, 1)
	assert.Equal(t, "boom (repeated 3 times)", out.Logs[0].Text)
}

func TestToolGetConsoleLogs_NilBecomesEmptySlice(t *testing.T) {
	// A nil slice serializes as JSON null; clients expect an array.
	handler := ToolGetConsoleLogs(newTestDeps(&fakeSessions{logs: nil}))

	_, out, err := handler(context.Background(), nil, GetConsoleLogsInput{LastN: 10})
	require.NoError(t, err)
	require.NotNil(t, out.Logs)
	assert.Empty(t, out.Logs)
}

func TestToolGetConsoleLogs_PropagatesError(t *testing.T) {
	sessions := &fakeSessions{logsErr: browser.ErrInvalidArgument}
	handler := ToolGetConsoleLogs(newTestDeps(sessions))

	_, _, err := handler(context.Background(), nil, GetConsoleLogsInput{LastN: 0})
	assert.ErrorIs(t, err, browser.ErrInvalidArgument)
}

func TestToolGetNetworkRequests(t *testing.T) {
	sessions := &fakeSessions{
		requests: []browser.NetworkExchange{
			{Seq: 1, URL: "https://example.com/api", Method: "POST", Response: &browser.NetworkResponse{Status: 201}},
		},
	}
	handler := ToolGetNetworkRequests(newTestDeps(sessions))

	_, out, err := handler(context.Background(), nil, GetNetworkRequestsInput{LastN: 50})
	require.NoError(t, err)

	assert.Equal(t, 50, sessions.lastNSeen)
	require.Len(t, out.Requests, 1)
	assert.Equal(t, "https://example.com/api", out.Requests[0].URL)
	require.NotNil(t, out.Requests[0].Response)
	assert.Equal(t, 201, out.Requests[0].Response.Status)
}

func TestToolGetNetworkRequests_NilBecomesEmptySlice(t *testing.T) {
	handler := ToolGetNetworkRequests(newTestDeps(&fakeSessions{requests: nil}))

	_, out, err := handler(context.Background(), nil, GetNetworkRequestsInput{LastN: 10})
	require.NoError(t, err)
	require.NotNil(t, out.Requests)
	assert.Empty(t, out.Requests)
}

func TestToolCloseBrowser(t *testing.T) {
	sessions := &fakeSessions{}
	handler := ToolCloseBrowser(newTestDeps(sessions))

	_, out, err := handler(context.Background(), nil, CloseBrowserInput{})
	require.NoError(t, err)

	assert.True(t, sessions.closed)
	assert.Equal(t, "Browser closed successfully", out.Message)
}

func TestToolCloseBrowser_PropagatesError(t *testing.T) {
	closeErr := errors.New("teardown stalled")
	handler := ToolCloseBrowser(newTestDeps(&fakeSessions{closeErr: closeErr}))

	_, _, err := handler(context.Background(), nil, CloseBrowserInput{})
	assert.ErrorIs(t, err, closeErr)
}

func TestNewServerRegistersTools(t *testing.T) {
	srv := NewServer(newTestDeps(&fakeSessions{}), "test")
	require.NotNil(t, srv.MCPServer())
}
