// internal/browser/events.go
package browser

import (
	"context"
	"encoding/json"
	"strings"

	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/network"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// enableEvents returns the CDP domain enables required before the page
// starts emitting the events the recorder listens for.
func enableEvents() []chromedp.Action {
	return []chromedp.Action{
		network.Enable(),
		cdpruntime.Enable(),
		cdplog.Enable(),
	}
}

// subscribeRecorder wires the recorder to a page context's event stream.
// The recorder reference is handed over explicitly here, once per opened
// page; handlers only append and never block.
func subscribeRecorder(ctx context.Context, rec *Recorder) {
	chromedp.ListenTarget(ctx, recorderListener(rec))
}

// recorderListener translates raw CDP events into recorder calls.
func recorderListener(rec *Recorder) func(ev any) {
	return func(ev any) {
		switch ev := ev.(type) {
		case *network.EventRequestWillBeSent:
			if ev.RedirectResponse != nil {
				// A redirect hop reuses the RequestID: this event both
				// carries the prior hop's response and supersedes it in
				// flight. Close the prior hop out here, because
				// LoadingFinished/LoadingFailed will only fire once, for
				// the final hop.
				rec.OnResponseReceived(ev.RedirectResponse.URL, int(ev.RedirectResponse.Status), ev.RedirectResponse.StatusText, headerValues(ev.RedirectResponse.Headers))
				rec.OnRequestSettled()
			}
			rec.OnRequestStarted(ev.Request.URL, ev.Request.Method, headerValues(ev.Request.Headers), string(ev.Type))
		case *network.EventResponseReceived:
			rec.OnResponseReceived(ev.Response.URL, int(ev.Response.Status), ev.Response.StatusText, headerValues(ev.Response.Headers))
		case *network.EventLoadingFinished:
			rec.OnRequestSettled()
		case *network.EventLoadingFailed:
			rec.OnRequestSettled()
		case *cdpruntime.EventConsoleAPICalled:
			rec.OnConsoleMessage(string(ev.Type), consoleText(ev.Args), stackLocation(ev.StackTrace))
		case *cdplog.EventEntryAdded:
			// Browser-level entries (network failures, violations) share
			// the console buffer with page console output.
			rec.OnConsoleMessage(string(ev.Entry.Level), ev.Entry.Text, map[string]any{
				"url":        ev.Entry.URL,
				"lineNumber": ev.Entry.LineNumber,
			})
		}
	}
}

// headerValues copies a CDP header map into a plain map. Values stay opaque;
// the browser does not guarantee a schema beyond string-ish values.
func headerValues(h network.Headers) map[string]any {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]any, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// consoleText renders a console call's arguments as a single message the
// way devtools would display it, space-separated.
func consoleText(args []*cdpruntime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, formatRemoteObject(arg))
	}
	return strings.Join(parts, " ")
}

func formatRemoteObject(o *cdpruntime.RemoteObject) string {
	if o == nil {
		return ""
	}
	if len(o.Value) > 0 {
		// Primitive values arrive as raw JSON; strings unquote cleanly.
		var s string
		if err := json.Unmarshal(o.Value, &s); err == nil {
			return s
		}
		return string(o.Value)
	}
	if o.Description != "" {
		return o.Description
	}
	return string(o.Type)
}

// stackLocation extracts the top call frame as opaque location metadata.
func stackLocation(st *cdpruntime.StackTrace) map[string]any {
	if st == nil || len(st.CallFrames) == 0 {
		return nil
	}
	f := st.CallFrames[0]
	return map[string]any{
		"url":          f.URL,
		"lineNumber":   f.LineNumber,
		"columnNumber": f.ColumnNumber,
	}
}
