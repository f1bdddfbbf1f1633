package harvest

// Selectors pin the harvester to the listing's markup. They are grouped here
// so a markup change is a one-file fix.
type Selectors struct {
	// List is the scrollable results container.
	List string
	// Item matches one listing row, in DOM order.
	Item string
	// ItemLink is the canonical detail link, resolved inside each row
	// (relative to Item); its href carries the posting ID.
	ItemLink string
	// Panel is the details pane that materializes after clicking a row.
	Panel string
	// PanelTitle, PanelOrg, PanelLocation locate the header fields inside
	// the panel.
	PanelTitle    string
	PanelOrg      string
	PanelLocation string
	// PanelBody is the description container rendered to text.
	PanelBody string
	// Next is the pagination control; absent or disabled means done.
	Next string
	// LoginForm indicates an authentication wall when present.
	LoginForm string
}

// DefaultSelectors matches the job search listing this tool targets.
func DefaultSelectors() Selectors {
	return Selectors{
		List:          ".jobs-search-results-list",
		Item:          "li.jobs-search-results__list-item",
		ItemLink:      "a.job-card-list__title",
		Panel:         ".jobs-search__job-details--container",
		PanelTitle:    ".job-details-jobs-unified-top-card__job-title",
		PanelOrg:      ".job-details-jobs-unified-top-card__company-name",
		PanelLocation: ".job-details-jobs-unified-top-card__primary-description-container",
		PanelBody:     ".jobs-description__content",
		Next:          "button.jobs-search-pagination__button--next",
		LoginForm:     "form.login__form, input[name=session_key]",
	}
}
