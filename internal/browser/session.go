// Package browser exposes the narrow slice of browser control the harvester
// needs. The real implementation drives an already-authenticated Chrome over
// its remote debugging endpoint; tests substitute a fake.
package browser

import "context"

// Session is an injected capability over one live browser tab. Callers bound
// every potentially-blocking call with a context deadline.
type Session interface {
	// Navigate loads the URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// Location returns the tab's current URL.
	Location(ctx context.Context) (string, error)
	// WaitVisible blocks until the selector matches a visible element.
	WaitVisible(ctx context.Context, sel string) error
	// Count returns how many elements match the selector right now.
	Count(ctx context.Context, sel string) (int, error)
	// Exists reports whether at least one element matches.
	Exists(ctx context.Context, sel string) (bool, error)
	// Enabled reports whether the first match exists and lacks a
	// disabled attribute.
	Enabled(ctx context.Context, sel string) (bool, error)
	// ClickNth clicks the n-th (0-based) element matching sel.
	ClickNth(ctx context.Context, sel string, n int) error
	// AttrInNth reads an attribute of the first childSel descendant of
	// the n-th element matching sel. The child lookup is scoped to that
	// element, so a row without a match never borrows a neighbor's.
	AttrInNth(ctx context.Context, sel string, n int, childSel, attr string) (string, bool, error)
	// OuterHTML returns the first match's outer HTML.
	OuterHTML(ctx context.Context, sel string) (string, error)
	// Text returns the first match's rendered inner text.
	Text(ctx context.Context, sel string) (string, error)
	// ScrollToBottom scrolls the matched container to its end and
	// returns the container's scrollHeight, or -1 when absent.
	ScrollToBottom(ctx context.Context, sel string) (int, error)
	// Close releases the tab and its connection.
	Close() error
}
