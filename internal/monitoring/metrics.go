// Package monitoring tracks run counters, exports them to Prometheus, and
// optionally serves them over HTTP while a run is in flight.
package monitoring

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics plus plain counters for the progress
// endpoint and the end-of-run summary.
type Metrics struct {
	RecordsHarvested prometheus.Counter
	RecordsSkipped   prometheus.Counter
	PagesProcessed   prometheus.Counter
	ItemErrors       *prometheus.CounterVec
	ClassifiedTotal  prometheus.Counter
	ClassifyErrors   *prometheus.CounterVec

	harvested      atomic.Int64
	skipped        atomic.Int64
	pages          atomic.Int64
	itemErrors     atomic.Int64
	classified     atomic.Int64
	classifyErrors atomic.Int64
}

// Progress is a point-in-time view of the run counters.
type Progress struct {
	RecordsHarvested int64 `json:"records_harvested"`
	RecordsSkipped   int64 `json:"records_skipped"`
	PagesProcessed   int64 `json:"pages_processed"`
	ItemErrors       int64 `json:"item_errors"`
	Classified       int64 `json:"classified"`
	ClassifyErrors   int64 `json:"classify_errors"`
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsHarvested: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobscreen_records_harvested_total",
			Help: "Postings saved to the record store",
		}),
		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobscreen_records_skipped_total",
			Help: "Listing items skipped because the ID was already stored",
		}),
		PagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobscreen_pages_processed_total",
			Help: "Listing pages walked to completion",
		}),
		ItemErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscreen_item_errors_total",
			Help: "Per-item harvest failures",
		}, []string{"type"}), // e.g. 'panel_timeout', 'extract_failed'
		ClassifiedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobscreen_classified_total",
			Help: "Postings screened and committed to the ledger",
		}),
		ClassifyErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscreen_classify_errors_total",
			Help: "Per-item screening failures",
		}, []string{"type"}), // 'backend', 'validation'
	}
}

func (m *Metrics) IncHarvested() {
	m.RecordsHarvested.Inc()
	m.harvested.Add(1)
}

func (m *Metrics) IncSkipped() {
	m.RecordsSkipped.Inc()
	m.skipped.Add(1)
}

func (m *Metrics) IncPages() {
	m.PagesProcessed.Inc()
	m.pages.Add(1)
}

func (m *Metrics) IncItemError(errType string) {
	m.ItemErrors.WithLabelValues(errType).Inc()
	m.itemErrors.Add(1)
}

func (m *Metrics) IncClassified() {
	m.ClassifiedTotal.Inc()
	m.classified.Add(1)
}

func (m *Metrics) IncClassifyError(errType string) {
	m.ClassifyErrors.WithLabelValues(errType).Inc()
	m.classifyErrors.Add(1)
}

// Progress reads the plain counters; safe to call from the HTTP listener
// while the run is making progress.
func (m *Metrics) Progress() Progress {
	return Progress{
		RecordsHarvested: m.harvested.Load(),
		RecordsSkipped:   m.skipped.Load(),
		PagesProcessed:   m.pages.Load(),
		ItemErrors:       m.itemErrors.Load(),
		Classified:       m.classified.Load(),
		ClassifyErrors:   m.classifyErrors.Load(),
	}
}
