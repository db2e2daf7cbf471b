// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lumeva-AI/playwright-consolelogs-mcp/internal/config"
)

const launchTimeout = 30 * time.Second

// Manager owns the single browser session: the browser process, the one
// active page, and the Recorder wired to that page's event stream. It is
// constructed explicitly with its owning config and logger rather than kept
// as ambient global state, so tests can build and tear one down cleanly.
//
// Lifecycle transitions (Initialize, OpenURL, Close) are serialized by
// lifecycleMu; telemetry queries only take snapshots and may run while a
// navigation is still settling.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger

	lifecycleMu sync.Mutex

	// stateMu guards the pointer fields below. The Recorder owns its own
	// locking for buffer access.
	stateMu       sync.RWMutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	pageCtx       context.Context
	pageCancel    context.CancelFunc
	recorder      *Recorder
	currentURL    string
}

// NewManager creates a session manager. Browser launch is deferred until the
// first OpenURL (or an explicit Initialize).
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger.Named("browser_manager"),
	}
}

// Initialize launches the browser process if it is not already running.
// Idempotent; a launch failure leaves the manager uninitialized and is
// reported as ErrBrowserLaunch.
func (m *Manager) Initialize(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	return m.initializeLocked(ctx)
}

func (m *Manager) initializeLocked(ctx context.Context) error {
	m.stateMu.RLock()
	running := m.browserCtx != nil
	m.stateMu.RUnlock()
	if running {
		return nil
	}

	m.logger.Info("Launching browser...", zap.Bool("headless", m.cfg.Browser.Headless))

	// The browser process must outlive the call that launched it, so the
	// allocator hangs off the background context, not the caller's.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), buildAllocatorOptions(m.cfg.Browser)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run a trivial task to confirm the engine actually started.
	launchCtx, cancel := context.WithTimeout(browserCtx, launchTimeout)
	defer cancel()
	if err := chromedp.Run(launchCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	m.stateMu.Lock()
	m.allocCancel = allocCancel
	m.browserCtx = browserCtx
	m.browserCancel = browserCancel
	m.stateMu.Unlock()

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// OpenURL navigates a fresh page to url and starts recording its console
// and network streams. Any previously open page is closed first and all
// captured telemetry is discarded, so successive opens never contaminate
// each other. The call returns once the network has been quiet for the
// configured period; a navigation failure is reported as ErrNavigation but
// leaves the page open for interaction with whatever did load.
func (m *Manager) OpenURL(ctx context.Context, url string) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if err := m.initializeLocked(ctx); err != nil {
		return err
	}

	sessionID := uuid.New().String()
	log := m.logger.With(zap.String("session_id", sessionID), zap.String("url", url))

	m.stateMu.RLock()
	browserCtx := m.browserCtx
	m.stateMu.RUnlock()

	// Fresh buffers before any of the new navigation's events arrive, and
	// an explicit re-subscription of the recorder to the new page.
	rec := NewRecorder(log)
	pageCtx, pageCancel := chromedp.NewContext(browserCtx)
	subscribeRecorder(pageCtx, rec)
	m.installSession(rec, pageCtx, pageCancel, url)

	log.Info("Navigating")

	navCtx, cancel := context.WithTimeout(pageCtx, m.cfg.Network.NavigationTimeout)
	defer cancel()

	if err := chromedp.Run(navCtx, append(enableEvents(), chromedp.Navigate(url))...); err != nil {
		return fmt.Errorf("%w: open %q: %v", ErrNavigation, url, err)
	}

	if err := rec.WaitNetworkIdle(navCtx, m.cfg.Network.QuietPeriod); err != nil {
		return fmt.Errorf("%w: waiting for network idle on %q: %v", ErrNavigation, url, err)
	}

	log.Info("Page opened and recording.")
	return nil
}

// GetConsoleLogs returns the lastN most recent console groups, consecutive
// identical messages collapsed, ordered oldest first. lastN beyond the
// buffer returns the whole deduplicated buffer.
func (m *Manager) GetConsoleLogs(lastN int) ([]ConsoleLogGroup, error) {
	if lastN <= 0 {
		return nil, fmt.Errorf("%w: last_n must be a positive integer, got %d", ErrInvalidArgument, lastN)
	}

	rec := m.currentRecorder()
	if rec == nil {
		return []ConsoleLogGroup{}, nil
	}
	return tailGroups(CollapseConsoleRuns(rec.ConsoleSnapshot()), lastN), nil
}

// GetNetworkRequests returns the lastN most recent exchanges, matched or
// not, ordered oldest first.
func (m *Manager) GetNetworkRequests(lastN int) ([]NetworkExchange, error) {
	if lastN <= 0 {
		return nil, fmt.Errorf("%w: last_n must be a positive integer, got %d", ErrInvalidArgument, lastN)
	}

	rec := m.currentRecorder()
	if rec == nil {
		return []NetworkExchange{}, nil
	}
	return tailExchanges(rec.NetworkSnapshot(), lastN), nil
}

// CurrentURL reports the most recently opened URL, empty when no page is
// open.
func (m *Manager) CurrentURL() string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.currentURL
}

// Close releases the page, the browser, and the engine handle, in that
// order, tolerating any of them already being gone. Both telemetry buffers
// are cleared. Safe to call repeatedly and at any time, including while a
// navigation is still settling.
func (m *Manager) Close(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	m.stateMu.Lock()
	pageCancel := m.pageCancel
	browserCancel := m.browserCancel
	allocCancel := m.allocCancel
	m.pageCtx, m.pageCancel = nil, nil
	m.browserCtx, m.browserCancel = nil, nil
	m.allocCancel = nil
	m.recorder = nil
	m.currentURL = ""
	m.stateMu.Unlock()

	if pageCancel == nil && browserCancel == nil && allocCancel == nil {
		return nil
	}

	m.logger.Info("Closing browser session.")
	if pageCancel != nil {
		pageCancel()
	}
	if browserCancel != nil {
		browserCancel()
	}
	if allocCancel != nil {
		// The allocator's cancel blocks until the browser process has
		// actually exited, so no further wait is needed.
		allocCancel()
	}
	return nil
}

// installSession swaps in a new page's recorder and contexts, closing any
// previously open page. The swap replaces both telemetry buffers, so
// successive opens never see each other's captures. Page-level close only;
// the browser process stays up.
func (m *Manager) installSession(rec *Recorder, pageCtx context.Context, pageCancel context.CancelFunc, url string) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	if m.pageCancel != nil {
		m.pageCancel()
	}
	m.recorder = rec
	m.pageCtx = pageCtx
	m.pageCancel = pageCancel
	m.currentURL = url
}

func (m *Manager) currentRecorder() *Recorder {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.recorder
}

// buildAllocatorOptions assembles the launch flags for the browser process.
func buildAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", cfg.IgnoreTLSErrors),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", cfg.Headless),
	)

	// Custom arguments from the config file, "--name=value" or "--name".
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(name, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	// Flags required when running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}
