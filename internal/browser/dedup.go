// internal/browser/dedup.go
package browser

import (
	"fmt"
	"sort"
)

// ConsoleLogGroup is one collapsed run of consecutive console entries that
// share kind and text. Location and ObservedAt come from the run's first
// member; Count is the run length.
type ConsoleLogGroup struct {
	Kind       string         `json:"kind"`
	Text       string         `json:"text"`
	Location   map[string]any `json:"location,omitempty"`
	ObservedAt float64        `json:"observedAt"`
	Count      int            `json:"count"`
}

// CollapseConsoleRuns folds runs of consecutive identical (kind, text)
// entries into single records, ordered by observation time ascending.
//
// Interactive pages tend to emit bursts of the same warning (a polling error
// firing every second, say). Collapsing only consecutive repeats keeps the
// output readable while still showing that a message stopped and later
// recurred as a separate event. Text is rewritten with a repetition suffix
// when a run is longer than one.
func CollapseConsoleRuns(entries []ConsoleLogEntry) []ConsoleLogGroup {
	groups := make([]ConsoleLogGroup, 0, len(entries))
	if len(entries) == 0 {
		return groups
	}

	// Entries arrive in observation order by construction, but concurrent
	// frames could in principle deliver out of order, so sort rather than
	// trust the storage order. The sort is stable to keep equal-timestamp
	// entries in arrival order.
	sorted := make([]ConsoleLogEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ObservedAt < sorted[j].ObservedAt
	})

	for _, e := range sorted {
		if n := len(groups); n > 0 && groups[n-1].Kind == e.Kind && groups[n-1].textMatches(e.Text) {
			groups[n-1].Count++
			continue
		}
		groups = append(groups, ConsoleLogGroup{
			Kind:       e.Kind,
			Text:       e.Text,
			Location:   e.Location,
			ObservedAt: e.ObservedAt,
			Count:      1,
		})
	}

	for i := range groups {
		if groups[i].Count > 1 {
			groups[i].Text = fmt.Sprintf("%s (repeated %d times)", groups[i].Text, groups[i].Count)
		}
	}
	return groups
}

// textMatches compares a group against a raw entry text. Groups keep the
// original text until all runs are closed, so this is plain equality.
func (g *ConsoleLogGroup) textMatches(text string) bool {
	return g.Text == text
}

// tailGroups returns the lastN most recent groups, still ordered ascending.
// lastN selects groups, not raw entries; a value beyond the buffer returns
// everything.
func tailGroups(groups []ConsoleLogGroup, lastN int) []ConsoleLogGroup {
	if lastN >= len(groups) {
		return groups
	}
	return groups[len(groups)-lastN:]
}

// tailExchanges returns the lastN most recent exchanges ordered ascending by
// capture time.
func tailExchanges(exchanges []NetworkExchange, lastN int) []NetworkExchange {
	sorted := make([]NetworkExchange, len(exchanges))
	copy(sorted, exchanges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RequestedAt < sorted[j].RequestedAt
	})
	if lastN >= len(sorted) {
		return sorted
	}
	return sorted[len(sorted)-lastN:]
}
