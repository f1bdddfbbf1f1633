package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// RemediationHint is surfaced when no debuggable browser is reachable; the
// run cannot proceed without an operator restarting Chrome.
const RemediationHint = "start Chrome with --remote-debugging-port=9222 and log in to the site first"

// ChromeSession drives an existing Chrome instance over the DevTools
// protocol. The browser keeps its own profile and cookies, so the session
// arrives already authenticated.
type ChromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

var _ Session = (*ChromeSession)(nil)

// Connect attaches to the debugging endpoint (http://host:port is resolved
// to the websocket URL by chromedp) and opens a fresh tab. A failed probe is
// fatal and operator-actionable.
func Connect(ctx context.Context, debugURL string) (*ChromeSession, error) {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, debugURL)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// probe the connection so a dead endpoint fails here, not mid-run
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("no debuggable browser at %s (%s): %w", debugURL, RemediationHint, err)
	}

	return &ChromeSession{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}, nil
}

func (s *ChromeSession) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}

// run executes actions on the tab, honoring the caller's deadline.
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := s.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(s.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

func (s *ChromeSession) Location(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (s *ChromeSession) WaitVisible(ctx context.Context, sel string) error {
	return s.run(ctx, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

func (s *ChromeSession) Count(ctx context.Context, sel string) (int, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	return len(nodes), err
}

func (s *ChromeSession) Exists(ctx context.Context, sel string) (bool, error) {
	n, err := s.Count(ctx, sel)
	return n > 0, err
}

func (s *ChromeSession) Enabled(ctx context.Context, sel string) (bool, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return false, err
	}
	if len(nodes) == 0 {
		return false, nil
	}
	_, disabled := nodeAttr(nodes[0], "disabled")
	return !disabled, nil
}

// nodeAttr scans the flat name/value attribute list of a CDP node.
func nodeAttr(n *cdp.Node, name string) (string, bool) {
	for i := 0; i+1 < len(n.Attributes); i += 2 {
		if strings.EqualFold(n.Attributes[i], name) {
			return n.Attributes[i+1], true
		}
	}
	return "", false
}

func (s *ChromeSession) ClickNth(ctx context.Context, sel string, n int) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelectorAll(%s)[%d];
		if (!el) return false;
		el.scrollIntoView({block: "center"});
		el.click();
		return true;
	})()`, strconv.Quote(sel), n)
	var clicked bool
	if err := s.run(ctx, chromedp.Evaluate(expr, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("no element %d for selector %q", n, sel)
	}
	return nil
}

// AttrInNth resolves the child inside the n-th match, not against the
// page-wide match list: rows missing the child must not shift attribution
// onto their neighbors.
func (s *ChromeSession) AttrInNth(ctx context.Context, sel string, n int, childSel, attr string) (string, bool, error) {
	expr := fmt.Sprintf(`(() => {
		const row = document.querySelectorAll(%s)[%d];
		const el = row ? row.querySelector(%s) : null;
		if (!el || !el.hasAttribute(%s)) return {ok: false, val: ""};
		return {ok: true, val: el.getAttribute(%s)};
	})()`, strconv.Quote(sel), n, strconv.Quote(childSel), strconv.Quote(attr), strconv.Quote(attr))
	var res struct {
		Val string `json:"val"`
		Ok  bool   `json:"ok"`
	}
	if err := s.run(ctx, chromedp.Evaluate(expr, &res)); err != nil {
		return "", false, err
	}
	return res.Val, res.Ok, nil
}

func (s *ChromeSession) OuterHTML(ctx context.Context, sel string) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML(sel, &html, chromedp.ByQuery))
	return html, err
}

func (s *ChromeSession) Text(ctx context.Context, sel string) (string, error) {
	var text string
	err := s.run(ctx, chromedp.Text(sel, &text, chromedp.ByQuery))
	return text, err
}

func (s *ChromeSession) ScrollToBottom(ctx context.Context, sel string) (int, error) {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return -1;
		el.scrollTop = el.scrollHeight;
		return el.scrollHeight;
	})()`, strconv.Quote(sel))
	var height int
	err := s.run(ctx, chromedp.Evaluate(expr, &height))
	return height, err
}
