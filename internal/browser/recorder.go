// internal/browser/recorder.go
package browser

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const idleCheckFrequency = 250 * time.Millisecond

// ConsoleLogEntry is one console message as delivered by the page. Entries
// are appended in observation order and never mutated afterwards; the
// grouped view returned by queries is derived on demand.
type ConsoleLogEntry struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
	// Location is opaque source-position metadata (url, line, column)
	// passed through exactly as the browser reported it.
	Location   map[string]any `json:"location,omitempty"`
	ObservedAt float64        `json:"observedAt"`
}

// NetworkExchange is one request and its (possibly absent) matched response.
type NetworkExchange struct {
	// Seq uniquely identifies the exchange. It is a monotonically
	// increasing sequence number assigned at capture time, so correlation
	// never depends on a transient engine handle.
	Seq            int64          `json:"seq"`
	URL            string         `json:"url"`
	Method         string         `json:"method"`
	RequestHeaders map[string]any `json:"requestHeaders,omitempty"`
	ResourceType   string         `json:"resourceType,omitempty"`
	RequestedAt    float64        `json:"requestedAt"`

	Response *NetworkResponse `json:"response,omitempty"`
}

// NetworkResponse holds the response half of an exchange. At most one is
// ever attached to a given exchange.
type NetworkResponse struct {
	Status          int            `json:"status"`
	StatusText      string         `json:"statusText"`
	ResponseHeaders map[string]any `json:"responseHeaders,omitempty"`
	RespondedAt     float64        `json:"respondedAt"`
}

// Recorder turns raw page events into two ordered telemetry logs. It has no
// knowledge of how the logs are later queried: it only appends, correlates
// responses to requests, and tracks in-flight request counts for the
// network-idle wait.
//
// The page's event stream is the sole producer; query snapshots may be taken
// concurrently from tool-call goroutines, hence the mutex.
type Recorder struct {
	logger *zap.Logger
	now    func() float64

	mu      sync.RWMutex
	console []ConsoleLogEntry
	network []NetworkExchange
	nextSeq int64
	active  int64
}

// NewRecorder creates a recorder whose timestamps count monotonic seconds
// from the moment of construction, i.e. from the start of the session it
// records.
func NewRecorder(logger *zap.Logger) *Recorder {
	start := time.Now()
	return &Recorder{
		logger:  logger.Named("recorder"),
		now:     func() float64 { return time.Since(start).Seconds() },
		console: make([]ConsoleLogEntry, 0),
		network: make([]NetworkExchange, 0),
	}
}

// OnConsoleMessage appends a console entry unconditionally.
func (r *Recorder) OnConsoleMessage(kind, text string, location map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.console = append(r.console, ConsoleLogEntry{
		Kind:       kind,
		Text:       text,
		Location:   location,
		ObservedAt: r.now(),
	})
}

// OnRequestStarted appends a new exchange with no response and marks one
// more request in flight.
func (r *Recorder) OnRequestStarted(url, method string, headers map[string]any, resourceType string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	r.active++
	r.network = append(r.network, NetworkExchange{
		Seq:            r.nextSeq,
		URL:            url,
		Method:         method,
		RequestHeaders: headers,
		ResourceType:   resourceType,
		RequestedAt:    r.now(),
	})
}

// OnResponseReceived attaches the response to the oldest exchange with the
// same URL that has none yet. The browser fires response events in request
// order, so first-in-first-matched preserves the pairing it reports. A
// response with no open exchange (a request issued before recording began,
// or a resource outside the tracked page) is dropped without error.
//
// The scan is O(n) in the buffer size, which is bounded by a single
// interactive session rather than sustained throughput.
func (r *Recorder) OnResponseReceived(url string, status int, statusText string, headers map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.network {
		if r.network[i].URL == url && r.network[i].Response == nil {
			r.network[i].Response = &NetworkResponse{
				Status:          status,
				StatusText:      statusText,
				ResponseHeaders: headers,
				RespondedAt:     r.now(),
			}
			return
		}
	}
	r.logger.Debug("Dropping response with no matching open exchange.", zap.String("url", url))
}

// OnRequestSettled marks one in-flight request as finished or failed. It
// only feeds the idle counter; the exchange buffer is untouched.
func (r *Recorder) OnRequestSettled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active > 0 {
		r.active--
	}
}

// ActiveRequests reports how many requests are currently in flight.
func (r *Recorder) ActiveRequests() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// ConsoleSnapshot returns a copy of the console log in observation order.
func (r *Recorder) ConsoleSnapshot() []ConsoleLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConsoleLogEntry, len(r.console))
	copy(out, r.console)
	return out
}

// NetworkSnapshot returns a copy of the network log in observation order.
// Attached responses are immutable after the attach, so sharing the pointers
// is safe.
func (r *Recorder) NetworkSnapshot() []NetworkExchange {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]NetworkExchange, len(r.network))
	copy(out, r.network)
	return out
}
