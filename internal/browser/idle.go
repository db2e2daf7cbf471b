// internal/browser/idle.go
package browser

import (
	"context"
	"time"
)

// WaitNetworkIdle blocks until no requests have been in flight for
// quietPeriod, the navigation-completion heuristic used after opening a URL.
// The timer only runs while the network is idle; any new request stops it
// until the counter drains again.
func (r *Recorder) WaitNetworkIdle(ctx context.Context, quietPeriod time.Duration) error {
	r.logger.Debug("Waiting for network to become idle.")

	timer := time.NewTimer(quietPeriod)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	isIdle := false

	ticker := time.NewTicker(idleCheckFrequency)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if r.ActiveRequests() > 0 {
				if isIdle {
					if !timer.Stop() {
						// Drain if it fired while we were handling the tick.
						select {
						case <-timer.C:
						default:
						}
					}
					isIdle = false
				}
			} else if !isIdle {
				timer.Reset(quietPeriod)
				isIdle = true
			}
		case <-timer.C:
			r.logger.Debug("Network is idle.")
			return nil
		}
	}
}
