// Package harvest walks a paginated, authenticated job listing one page at a
// time, extracts each posting once, and persists it immediately so partial
// crawls survive interruption.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobscreen/internal/browser"
	"jobscreen/internal/monitoring"
	"jobscreen/internal/store"
)

// ErrAuthWall means the session is no longer authenticated. Fatal and
// operator-actionable, never retried in-process.
var ErrAuthWall = errors.New("authentication wall detected")

// ErrPageLoad means the listing container failed to (re)materialize after
// navigation or pagination. Fatal to the run; everything harvested so far is
// already durable.
var ErrPageLoad = errors.New("listing container did not load")

// authWallMarkers are URL fragments indicating a login or checkpoint wall.
var authWallMarkers = []string{"/login", "/checkpoint", "/authwall", "/uas/"}

// Config carries the tunables of one traversal.
type Config struct {
	ListingURL  string
	ItemTimeout time.Duration // wait bound for the details panel
	PageTimeout time.Duration // wait bound for the list container
	DelayMin    time.Duration // politeness window between items
	DelayMax    time.Duration
	MaxPages    int // 0 = unbounded
}

// Stats summarizes one traversal.
type Stats struct {
	Saved   int
	Skipped int
	Errors  int
	Pages   int
}

// Harvester drives the browser session. Single-threaded by design: the
// session is the only shared resource and it tolerates one driver.
type Harvester struct {
	session   browser.Session
	records   store.RecordStore
	seenCache *store.SeenCache // optional fast dedup path, may be nil
	metrics   *monitoring.Metrics
	selectors Selectors
	cfg       Config
	logger    *zap.Logger
	rnd       *rand.Rand
}

func New(session browser.Session, records store.RecordStore, seenCache *store.SeenCache,
	metrics *monitoring.Metrics, selectors Selectors, cfg Config, logger *zap.Logger) *Harvester {
	return &Harvester{
		session:   session,
		records:   records,
		seenCache: seenCache,
		metrics:   metrics,
		selectors: selectors,
		cfg:       cfg,
		logger:    logger,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// cursor is the transient traversal state; durability of progress lives in
// the record store, never here.
type cursor struct {
	page int
	seen map[string]struct{}
	more bool
}

// Run performs one full traversal. Per-item failures are logged and counted;
// auth walls and page-load failures abort the run.
func (h *Harvester) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	if err := h.navigate(ctx); err != nil {
		return stats, err
	}

	cur := cursor{page: 1, seen: make(map[string]struct{}), more: true}
	for cur.more {
		if err := h.waitForList(ctx); err != nil {
			return stats, err
		}
		if err := h.checkAuthWall(ctx); err != nil {
			return stats, err
		}

		n, err := h.loadAllItems(ctx)
		if err != nil {
			return stats, fmt.Errorf("page %d: %w", cur.page, err)
		}
		h.logger.Info("listing page loaded", zap.Int("page", cur.page), zap.Int("items", n))

		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			h.processItem(ctx, i, &cur, &stats)
			if err := h.politenessDelay(ctx); err != nil {
				return stats, err
			}
		}

		stats.Pages++
		h.metrics.IncPages()

		cur.more, err = h.advancePage(ctx)
		if err != nil {
			return stats, err
		}
		if cur.more {
			cur.page++
			if h.cfg.MaxPages > 0 && cur.page > h.cfg.MaxPages {
				h.logger.Info("page limit reached", zap.Int("max_pages", h.cfg.MaxPages))
				cur.more = false
			}
		}
	}

	h.logger.Info("traversal done",
		zap.Int("pages", stats.Pages),
		zap.Int("saved", stats.Saved),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors))
	return stats, nil
}

func (h *Harvester) navigate(ctx context.Context) error {
	navCtx, cancel := context.WithTimeout(ctx, h.cfg.PageTimeout)
	defer cancel()
	if err := h.session.Navigate(navCtx, h.cfg.ListingURL); err != nil {
		return fmt.Errorf("navigate to listing: %w", err)
	}
	return h.checkAuthWall(ctx)
}

// checkAuthWall fails fast when the session shows a login or checkpoint
// interstitial instead of the listing.
func (h *Harvester) checkAuthWall(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, h.cfg.ItemTimeout)
	defer cancel()

	loc, err := h.session.Location(opCtx)
	if err != nil {
		return fmt.Errorf("read location: %w", err)
	}
	for _, marker := range authWallMarkers {
		if strings.Contains(loc, marker) {
			return fmt.Errorf("%w: redirected to %s (%s)", ErrAuthWall, loc, browser.RemediationHint)
		}
	}
	if present, err := h.session.Exists(opCtx, h.selectors.LoginForm); err == nil && present {
		return fmt.Errorf("%w: login form on page (%s)", ErrAuthWall, browser.RemediationHint)
	}
	return nil
}

func (h *Harvester) waitForList(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, h.cfg.PageTimeout)
	defer cancel()
	if err := h.session.WaitVisible(waitCtx, h.selectors.List); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return nil
}

// loadAllItems scrolls the results container until its scrollable extent
// stops growing, so lazily-rendered rows are all present, then counts them.
func (h *Harvester) loadAllItems(ctx context.Context) (int, error) {
	prev := -1
	for range 25 {
		opCtx, cancel := context.WithTimeout(ctx, h.cfg.ItemTimeout)
		height, err := h.session.ScrollToBottom(opCtx, h.selectors.List)
		cancel()
		if err != nil {
			return 0, fmt.Errorf("scroll results: %w", err)
		}
		if height == prev {
			break
		}
		prev = height
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, h.cfg.ItemTimeout)
	defer cancel()
	return h.session.Count(opCtx, h.selectors.Item)
}

// processItem handles one listing row. Failures here never escape: they
// become a log line and a counter.
func (h *Harvester) processItem(ctx context.Context, i int, cur *cursor, stats *Stats) {
	opCtx, cancel := context.WithTimeout(ctx, h.cfg.ItemTimeout)
	defer cancel()

	if err := h.session.ClickNth(opCtx, h.selectors.Item, i); err != nil {
		h.logger.Warn("item activation failed", zap.Int("index", i), zap.Error(err))
		h.metrics.IncItemError("activate_failed")
		stats.Errors++
		return
	}
	if err := h.session.WaitVisible(opCtx, h.selectors.Panel); err != nil {
		h.logger.Warn("details panel timed out", zap.Int("index", i), zap.Error(err))
		h.metrics.IncItemError("panel_timeout")
		stats.Errors++
		return
	}

	href, _, err := h.session.AttrInNth(opCtx, h.selectors.Item, i, h.selectors.ItemLink, "href")
	if err != nil {
		h.logger.Warn("item link read failed", zap.Int("index", i), zap.Error(err))
		h.metrics.IncItemError("link_failed")
		stats.Errors++
		return
	}
	id := ParseItemID(href)
	if id == "" {
		// Synthesized IDs are never stable across runs, so such items
		// can be re-harvested later. Known limitation of the source
		// markup, kept as-is.
		id = h.synthesizeID()
		h.logger.Warn("no canonical link, synthesized id",
			zap.Int("index", i), zap.String("id", id))
	}

	if _, dup := cur.seen[id]; dup {
		stats.Skipped++
		h.metrics.IncSkipped()
		return
	}
	cur.seen[id] = struct{}{}

	known, err := h.isKnown(opCtx, id)
	if err != nil {
		h.logger.Warn("dedup lookup failed", zap.String("id", id), zap.Error(err))
		h.metrics.IncItemError("dedup_failed")
		stats.Errors++
		return
	}
	if known {
		stats.Skipped++
		h.metrics.IncSkipped()
		return
	}

	rec, err := h.extractRecord(opCtx, id)
	if err != nil {
		h.logger.Warn("extraction failed", zap.String("id", id), zap.Error(err))
		h.metrics.IncItemError("extract_failed")
		stats.Errors++
		return
	}

	// persist one record at a time: partial-crawl progress is never lost
	if err := h.records.Save(opCtx, rec); err != nil {
		h.logger.Warn("record save failed", zap.String("id", id), zap.Error(err))
		h.metrics.IncItemError("save_failed")
		stats.Errors++
		return
	}
	h.markKnown(opCtx, id)

	stats.Saved++
	h.metrics.IncHarvested()
	h.logger.Info("posting saved",
		zap.String("id", id),
		zap.String("title", rec.Title),
		zap.String("org", rec.Organization))
}

// isKnown consults the Redis cache first when configured; the record store
// stays authoritative.
func (h *Harvester) isKnown(ctx context.Context, id string) (bool, error) {
	if h.seenCache != nil {
		if seen, err := h.seenCache.IsSeen(ctx, id); err == nil && seen {
			return true, nil
		}
	}
	return h.records.Contains(ctx, id)
}

func (h *Harvester) markKnown(ctx context.Context, id string) {
	if h.seenCache == nil {
		return
	}
	if err := h.seenCache.MarkSeen(ctx, id); err != nil {
		h.logger.Debug("seen cache write failed", zap.String("id", id), zap.Error(err))
	}
}

// advancePage clicks the next-page control when present and enabled, then
// waits for the new list to materialize. A missing or disabled control is
// the clean terminal state; a failed reload is fatal to the run.
func (h *Harvester) advancePage(ctx context.Context) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, h.cfg.ItemTimeout)
	enabled, err := h.session.Enabled(opCtx, h.selectors.Next)
	cancel()
	if err != nil {
		return false, fmt.Errorf("probe next control: %w", err)
	}
	if !enabled {
		return false, nil
	}

	opCtx, cancel = context.WithTimeout(ctx, h.cfg.ItemTimeout)
	err = h.session.ClickNth(opCtx, h.selectors.Next, 0)
	cancel()
	if err != nil {
		return false, fmt.Errorf("click next control: %w", err)
	}

	if err := h.waitForList(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// politenessDelay sleeps for a uniform duration inside the configured
// window. Not correctness-relevant, but always present.
func (h *Harvester) politenessDelay(ctx context.Context) error {
	window := h.cfg.DelayMax - h.cfg.DelayMin
	delay := h.cfg.DelayMin
	if window > 0 {
		delay += time.Duration(h.rnd.Int63n(int64(window)))
	}
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (h *Harvester) synthesizeID() string {
	return fmt.Sprintf("noid-%d-%04d", time.Now().UnixNano(), h.rnd.Intn(10000))
}
