// Package pipeline orchestrates one end-to-end run: harvest, diff against
// the ledger, screen the work set one posting at a time, and keep the
// reports current after every commit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobscreen/internal/classify"
	"jobscreen/internal/domain"
	"jobscreen/internal/harvest"
	"jobscreen/internal/ledger"
	"jobscreen/internal/monitoring"
	"jobscreen/internal/report"
	"jobscreen/internal/store"
)

// Harvester is the traversal phase; faked in tests.
type Harvester interface {
	Run(ctx context.Context) (harvest.Stats, error)
}

// Classifier screens one record; faked in tests.
type Classifier interface {
	Classify(ctx context.Context, rec domain.Record) (domain.Result, error)
}

// Summary is the end-of-run accounting, with successes, skips and errors as
// distinct counts.
type Summary struct {
	Harvest        harvest.Stats
	WorkSet        int
	Classified     int
	ClassifyErrors int
	LedgerSize     int
}

// Controller owns the run. It is the only ledger writer.
type Controller struct {
	records     store.RecordStore
	ledger      *ledger.Ledger
	harvester   Harvester
	classifier  Classifier
	reports     *report.Writer
	metrics     *monitoring.Metrics
	logger      *zap.Logger
	skipHarvest bool
	now         func() time.Time
}

type Deps struct {
	Records     store.RecordStore
	Ledger      *ledger.Ledger
	Harvester   Harvester
	Classifier  Classifier
	Reports     *report.Writer
	Metrics     *monitoring.Metrics
	Logger      *zap.Logger
	SkipHarvest bool
}

func New(deps Deps) *Controller {
	return &Controller{
		records:     deps.Records,
		ledger:      deps.Ledger,
		harvester:   deps.Harvester,
		classifier:  deps.Classifier,
		reports:     deps.Reports,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		skipHarvest: deps.SkipHarvest,
		now:         time.Now,
	}
}

// Run executes the sequential phases. Every unit of work is individually
// durable, so an interrupt loses at most the in-flight item.
func (c *Controller) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if c.skipHarvest {
		c.logger.Info("harvest phase skipped by configuration")
	} else {
		stats, err := c.harvester.Run(ctx)
		summary.Harvest = stats
		if err != nil {
			return summary, fmt.Errorf("harvest: %w", err)
		}
	}

	records, err := c.records.List(ctx)
	if err != nil {
		return summary, fmt.Errorf("load record store: %w", err)
	}
	byID := make(map[string]domain.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	// work set: stored records with no ledger outcome yet
	var workSet []domain.Record
	for _, rec := range records {
		if !c.ledger.Contains(rec.ID) {
			workSet = append(workSet, rec)
		}
	}
	summary.WorkSet = len(workSet)
	c.logger.Info("work set computed",
		zap.Int("records", len(records)),
		zap.Int("pending", len(workSet)))

	for _, rec := range workSet {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := c.classifier.Classify(ctx, rec)
		if err != nil {
			// per-item: the ID stays out of the ledger, so the next
			// run picks it up again
			summary.ClassifyErrors++
			var verr *classify.ValidationError
			if errors.As(err, &verr) {
				c.metrics.IncClassifyError("validation")
			} else {
				c.metrics.IncClassifyError("backend")
			}
			c.logger.Warn("screening failed", zap.String("id", rec.ID), zap.Error(err))
			continue
		}

		entry := domain.Entry{
			RecordID:     rec.ID,
			URL:          harvest.PostingURL(rec.ID),
			ClassifiedAt: c.now().UTC(),
			Result:       result,
		}
		if err := c.ledger.Upsert(entry); err != nil {
			return summary, fmt.Errorf("commit outcome for %s: %w", rec.ID, err)
		}
		summary.Classified++
		c.metrics.IncClassified()
		c.logger.Info("posting screened",
			zap.String("id", rec.ID),
			zap.String("status", string(result.Status)),
			zap.Float64("score", result.Score))

		// keep the derived views current after every commit
		if err := c.reports.Generate(c.ledger.Snapshot(), byID); err != nil {
			return summary, fmt.Errorf("regenerate reports: %w", err)
		}
	}

	// always regenerate at the end, even with an empty work set: reports
	// are a pure function of the current ledger
	if err := c.reports.Generate(c.ledger.Snapshot(), byID); err != nil {
		return summary, fmt.Errorf("regenerate reports: %w", err)
	}

	summary.LedgerSize = c.ledger.Len()
	c.logger.Info("run complete",
		zap.Int("harvested", summary.Harvest.Saved),
		zap.Int("harvest_skipped", summary.Harvest.Skipped),
		zap.Int("harvest_errors", summary.Harvest.Errors),
		zap.Int("work_set", summary.WorkSet),
		zap.Int("classified", summary.Classified),
		zap.Int("classify_errors", summary.ClassifyErrors),
		zap.Int("ledger_size", summary.LedgerSize))
	return summary, nil
}
