package browser

import "errors"

// Error taxonomy for the session controller. Callers match with errors.Is;
// the dispatch layer maps these onto tool-call failures verbatim.
var (
	// ErrBrowserLaunch indicates the underlying browser engine could not be
	// started (missing binary, dead allocator). Fatal to the call; the
	// session stays uninitialized and nothing is retried automatically.
	ErrBrowserLaunch = errors.New("browser launch failed")

	// ErrNavigation indicates the target URL was unreachable or the
	// navigation timed out. The page stays open in whatever state it
	// reached so the user can still interact with it.
	ErrNavigation = errors.New("navigation failed")

	// ErrInvalidArgument indicates a malformed query parameter. It is
	// returned before any buffer is touched.
	ErrInvalidArgument = errors.New("invalid argument")
)
