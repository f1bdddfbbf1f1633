package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobscreen/internal/classify"
	"jobscreen/internal/domain"
	"jobscreen/internal/harvest"
	"jobscreen/internal/ledger"
	"jobscreen/internal/monitoring"
	"jobscreen/internal/report"
	"jobscreen/internal/store"
)

type fakeHarvester struct {
	stats harvest.Stats
	err   error
}

func (f *fakeHarvester) Run(context.Context) (harvest.Stats, error) { return f.stats, f.err }

// fakeClassifier returns scripted results per record ID and records call order.
type fakeClassifier struct {
	results map[string]domain.Result
	errs    map[string]error
	calls   []string
}

func (f *fakeClassifier) Classify(_ context.Context, rec domain.Record) (domain.Result, error) {
	f.calls = append(f.calls, rec.ID)
	if err, ok := f.errs[rec.ID]; ok {
		return domain.Result{}, err
	}
	return f.results[rec.ID], nil
}

type fixture struct {
	records    *store.FileStore
	ledger     *ledger.Ledger
	classifier *fakeClassifier
	reportDir  string
	ledgerPath string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	records, err := store.NewFileStore(filepath.Join(dir, "postings"))
	require.NoError(t, err)
	ledgerPath := filepath.Join(dir, "ledger.json")
	l, err := ledger.Open(ledgerPath)
	require.NoError(t, err)

	return &fixture{
		records:    records,
		ledger:     l,
		classifier: &fakeClassifier{results: map[string]domain.Result{}, errs: map[string]error{}},
		reportDir:  filepath.Join(dir, "reports"),
		ledgerPath: ledgerPath,
	}
}

func (f *fixture) controller(t *testing.T) *Controller {
	t.Helper()
	reports, err := report.NewWriter(f.reportDir)
	require.NoError(t, err)
	return New(Deps{
		Records:     f.records,
		Ledger:      f.ledger,
		Harvester:   &fakeHarvester{},
		Classifier:  f.classifier,
		Reports:     reports,
		Metrics:     monitoring.NewMetrics(prometheus.NewRegistry()),
		Logger:      zap.NewNop(),
		SkipHarvest: true,
	})
}

func (f *fixture) addRecord(t *testing.T, id, title string) {
	t.Helper()
	require.NoError(t, f.records.Save(context.Background(), domain.Record{
		ID: id, Title: title, Organization: "Acme", Location: "Remote", Body: "body",
	}))
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addRecord(t, "A", "Match")
	f.addRecord(t, "B", "Mismatch")
	f.classifier.results["A"] = domain.Result{Status: domain.StatusSuitable, Score: 9}
	f.classifier.results["B"] = domain.Result{Status: domain.StatusNotSuitable, Score: 2}

	summary, err := f.controller(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.WorkSet)
	assert.Equal(t, 2, summary.Classified)
	assert.Equal(t, 0, summary.ClassifyErrors)

	snap := f.ledger.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "A", snap[0].RecordID)
	assert.Equal(t, 9.0, snap[0].Result.Score)
	assert.Equal(t, "B", snap[1].RecordID)

	detail, err := os.ReadFile(filepath.Join(f.reportDir, report.DetailFile))
	require.NoError(t, err)
	text := string(detail)
	suitable := text[strings.Index(text, "## Suitable"):strings.Index(text, "## Maybe suitable")]
	assert.Contains(t, suitable, "Match")
	assert.NotContains(t, suitable, "Mismatch")
}

func TestRunIdempotentClassification(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addRecord(t, "A", "Once")
	f.classifier.results["A"] = domain.Result{Status: domain.StatusSuitable, Score: 7}

	_, err := f.controller(t).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, f.classifier.calls)

	// second run: A is in the ledger, so it must not be resubmitted
	summary, err := f.controller(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.WorkSet)
	assert.Equal(t, []string{"A"}, f.classifier.calls, "no second call for a ledgered ID")
}

func TestRunResumesAfterInterrupt(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		f.addRecord(t, id, "Job "+id)
	}
	// first run dies on item c: backend error there, then pretend the
	// process never reached d by cancelling
	f.classifier.results["a"] = domain.Result{Status: domain.StatusSuitable, Score: 8}
	f.classifier.results["b"] = domain.Result{Status: domain.StatusMaybeSuitable, Score: 5}
	f.classifier.errs["c"] = errors.New("backend unreachable")
	f.classifier.errs["d"] = errors.New("backend unreachable")

	_, err := f.controller(t).Run(context.Background())
	require.NoError(t, err)

	// fresh run over the same stores: the work set is exactly the remainder
	reopened, err := ledger.Open(f.ledgerPath)
	require.NoError(t, err)
	f.ledger = reopened
	f.classifier.calls = nil
	f.classifier.errs = map[string]error{}
	f.classifier.results["c"] = domain.Result{Status: domain.StatusNotSuitable, Score: 1}
	f.classifier.results["d"] = domain.Result{Status: domain.StatusNotSuitable, Score: 2}

	summary, err := f.controller(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.WorkSet)
	assert.Equal(t, []string{"c", "d"}, f.classifier.calls)
	assert.Equal(t, 4, summary.LedgerSize)
}

func TestRunCountsValidationErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addRecord(t, "A", "Bad response")
	f.classifier.errs["A"] = &classify.ValidationError{Reason: "score 11 outside [0,10]"}

	summary, err := f.controller(t).Run(context.Background())
	require.NoError(t, err, "validation failures are per-item")
	assert.Equal(t, 1, summary.ClassifyErrors)
	assert.Equal(t, 0, summary.Classified)
	assert.False(t, f.ledger.Contains("A"), "rejected responses never reach the ledger")
}

func TestRunEmptyWorkSetStillRegeneratesReports(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	summary, err := f.controller(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.WorkSet)

	_, err = os.Stat(filepath.Join(f.reportDir, report.DetailFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(f.reportDir, report.RankingFile))
	assert.NoError(t, err)
}

func TestRunHarvestFatalPropagates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	reports, err := report.NewWriter(f.reportDir)
	require.NoError(t, err)
	c := New(Deps{
		Records:    f.records,
		Ledger:     f.ledger,
		Harvester:  &fakeHarvester{err: harvest.ErrAuthWall},
		Classifier: f.classifier,
		Reports:    reports,
		Metrics:    monitoring.NewMetrics(prometheus.NewRegistry()),
		Logger:     zap.NewNop(),
	})

	_, err = c.Run(context.Background())
	require.ErrorIs(t, err, harvest.ErrAuthWall)
}
