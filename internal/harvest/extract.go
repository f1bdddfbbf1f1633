package harvest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobscreen/internal/domain"
	"jobscreen/internal/render"
)

var jobIDPattern = regexp.MustCompile(`/jobs/view/(\d+)`)

const jobViewBase = "https://www.linkedin.com/jobs/view/"

// ParseItemID pulls the posting ID out of a canonical detail href. Empty
// result means the caller must synthesize one.
func ParseItemID(href string) string {
	m := jobIDPattern.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

// PostingURL derives the canonical detail URL for a record ID. Deterministic
// so ledger entries can carry it without storing anything extra.
func PostingURL(id string) string {
	return jobViewBase + id + "/"
}

// extractRecord reads the details panel and builds the Record. The body is a
// line-oriented rendering of the description markup, not raw innerText.
func (h *Harvester) extractRecord(ctx context.Context, id string) (domain.Record, error) {
	panelHTML, err := h.session.OuterHTML(ctx, h.selectors.Panel)
	if err != nil {
		return domain.Record{}, fmt.Errorf("read details panel: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(panelHTML))
	if err != nil {
		return domain.Record{}, fmt.Errorf("parse details panel: %w", err)
	}

	rec := domain.Record{
		ID:           id,
		Title:        firstText(doc, h.selectors.PanelTitle, "h1"),
		Organization: firstText(doc, h.selectors.PanelOrg),
		Location:     firstText(doc, h.selectors.PanelLocation),
		SourceURL:    PostingURL(id),
		Body:         renderBody(doc, h.selectors.PanelBody),
	}
	if rec.Body == "" {
		return domain.Record{}, fmt.Errorf("details panel for %s rendered empty", id)
	}
	return rec, nil
}

// firstText returns the trimmed text of the first selector that matches.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if text := strings.TrimSpace(collapseInline(s.Text())); text != "" {
				return text
			}
		}
	}
	return ""
}

// renderBody converts the description container into normalized text,
// falling back to the whole panel, then to plain innerText when the tree
// renders empty.
func renderBody(doc *goquery.Document, bodySel string) string {
	target := doc.Find(bodySel).First()
	if target.Length() == 0 {
		target = doc.Selection
	}
	if len(target.Nodes) > 0 {
		if text := render.Render(render.FromHTMLNode(target.Nodes[0])); text != "" {
			return text
		}
	}
	return strings.TrimSpace(collapseInline(target.Text()))
}

func collapseInline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
