package harvest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/khrees2412/jobharvest/internal/logger"
	"github.com/khrees2412/jobharvest/internal/scraper"
	"github.com/khrees2412/jobharvest/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func firstOf(min, _ time.Duration) time.Duration { return min }

func newTestOrchestrator(t *testing.T, nav *fakeNav, opts Options, extra ...Option) (*Orchestrator, *store.Store) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "jobs.json"), logger.NewNop())
	options := append([]Option{WithJitter(firstOf)}, extra...)
	return New(nav, st, opts, logger.NewNop(), options...), st
}

func TestRun_NoQueries(t *testing.T) {
	o, _ := newTestOrchestrator(t, newFakeNav(), Options{})
	_, err := o.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoQueries)
}

func TestRun_InvalidCityStateFailsBeforeBrowsing(t *testing.T) {
	nav := newFakeNav()
	o, _ := newTestOrchestrator(t, nav, Options{CityState: "Nowhere"})

	_, err := o.Run(context.Background(), []string{"golang"})
	assert.ErrorIs(t, err, ErrInvalidCityState)
	assert.Empty(t, nav.navigated)
}

func TestRun_MultipleQueriesShareDedup(t *testing.T) {
	nav := newFakeNav()
	nav.present[`textarea[name="q"]`] = true
	nav.addPage("golang", []int{2, 2},
		panelHTML("Go Engineer", "https://example.com/a"),
		panelHTML("Platform Engineer", "https://example.com/b"))
	nav.addPage("rust", []int{2, 2},
		panelHTML("Rust Engineer", "https://example.com/c"),
		panelHTML("Platform Engineer", "https://example.com/b"))

	rec := &fakeRecorder{}
	o, st := newTestOrchestrator(t, nav, Options{QuerySpec: "(golang OR rust)", IsToday: true}, WithRecorder(rec))

	summary, err := o.Run(context.Background(), []string{"golang", "rust"})
	require.NoError(t, err)

	require.Len(t, nav.navigated, 1)
	assert.Contains(t, nav.navigated[0], "q=golang")
	assert.True(t, strings.HasSuffix(nav.navigated[0], todayChip))
	assert.Equal(t, []string{"rust"}, nav.filled)

	require.Len(t, summary.Results, 2)
	assert.Equal(t, scraper.Done, summary.Results[0].State)
	assert.Equal(t, scraper.Done, summary.Results[1].State)
	assert.Equal(t, 3, summary.Accepted)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, 3, summary.Store.TotalJobs)
	assert.Equal(t, 0, summary.Store.NewJobsAdded, "records were already stored as they were accepted")
	assert.Equal(t, 3, summary.Store.ExistingJobs)
	assert.NoError(t, summary.StoreErr)

	assert.Len(t, st.Load(), 3)

	assert.Equal(t, "(golang OR rust)", rec.spec)
	assert.Equal(t, 2, rec.queries)
	assert.Len(t, rec.recorded, 3)
	require.NotNil(t, rec.finished)
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 3, rec.finished.Accepted)
	assert.Equal(t, 1, rec.finished.Duplicates)
	assert.Equal(t, 3, rec.finished.NewJobs)
	assert.Equal(t, 3, rec.finished.TotalJobs)
}

func TestRun_FallsBackToURLWithoutSearchBox(t *testing.T) {
	nav := newFakeNav()
	nav.addPage("go developer", []int{1, 1}, panelHTML("Go Dev", "https://example.com/1"))
	nav.addPage("rust developer", []int{1, 1}, panelHTML("Rust Dev", "https://example.com/2"))

	o, _ := newTestOrchestrator(t, nav, Options{CityState: "New York,NY"})
	summary, err := o.Run(context.Background(), []string{"go developer", "rust developer"})
	require.NoError(t, err)

	require.Len(t, nav.navigated, 2)
	assert.Contains(t, nav.navigated[1], "q=rust+developer")
	assert.True(t, strings.HasSuffix(nav.navigated[1], "&htichips=city;New+York_comma_%20NY"))
	assert.Empty(t, nav.filled)
	assert.Equal(t, 2, summary.Accepted)
}

func TestRun_DismissesConsentOnce(t *testing.T) {
	nav := newFakeNav()
	nav.present["button#L2AGLb"] = true
	nav.addPage("a", []int{1, 1}, panelHTML("A", "https://example.com/a"))
	nav.addPage("b", []int{1, 1}, panelHTML("B", "https://example.com/b"))

	o, _ := newTestOrchestrator(t, nav, Options{})
	_, err := o.Run(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"button#L2AGLb"}, nav.clicked)
	assert.Contains(t, nav.pauses, 2*time.Second)
}

func TestRun_MissingContainerDoesNotStopLaterQueries(t *testing.T) {
	nav := newFakeNav()
	nav.addPage("broken", nil).noContainer = true
	nav.addPage("works", []int{1, 1}, panelHTML("Works", "https://example.com/w"))

	o, _ := newTestOrchestrator(t, nav, Options{})
	summary, err := o.Run(context.Background(), []string{"broken", "works"})
	require.NoError(t, err)

	require.Len(t, summary.Results, 2)
	assert.Equal(t, scraper.FailedContainer, summary.Results[0].State)
	assert.Empty(t, summary.Results[0].Records)
	assert.Equal(t, scraper.Done, summary.Results[1].State)
	assert.Equal(t, 1, summary.Accepted)
}

func TestRun_ResultsWaitIsBounded(t *testing.T) {
	nav := newFakeNav()
	nav.resultsTimeouts = 10
	nav.addPage("golang", []int{1, 1}, panelHTML("Go", "https://example.com/go"))

	o, _ := newTestOrchestrator(t, nav, Options{ResultsAttempts: 3})
	summary, err := o.Run(context.Background(), []string{"golang"})
	require.NoError(t, err)

	assert.Equal(t, 3, nav.resultWaits)
	assert.Equal(t, 1, summary.Accepted, "extraction still runs once the container shows")
}

func TestRun_LogsWhenResultsNeverShow(t *testing.T) {
	nav := newFakeNav()
	nav.resultsTimeouts = 10
	nav.addPage("golang", []int{1, 1}, panelHTML("Go", "https://example.com/go"))

	core, logs := observer.New(zapcore.WarnLevel)
	st := store.New(filepath.Join(t.TempDir(), "jobs.json"), logger.NewNop())
	o := New(nav, st, Options{ResultsAttempts: 2}, logger.FromZap(zap.New(core)), WithJitter(firstOf))

	_, err := o.Run(context.Background(), []string{"golang"})
	require.NoError(t, err)

	assert.Equal(t, 2, logs.FilterMessage("Results not visible yet").Len())
	gaveUp := logs.FilterMessage("Results never became visible, looking for the listing anyway")
	require.Equal(t, 1, gaveUp.Len())
	assert.EqualValues(t, 2, gaveUp.All()[0].ContextMap()["attempts"])
}

func TestRun_NoGiveUpWarningWhenResultsShow(t *testing.T) {
	nav := newFakeNav()
	nav.resultsTimeouts = 1
	nav.addPage("golang", []int{1, 1}, panelHTML("Go", "https://example.com/go"))

	core, logs := observer.New(zapcore.WarnLevel)
	st := store.New(filepath.Join(t.TempDir(), "jobs.json"), logger.NewNop())
	o := New(nav, st, Options{ResultsAttempts: 3}, logger.FromZap(zap.New(core)), WithJitter(firstOf))

	_, err := o.Run(context.Background(), []string{"golang"})
	require.NoError(t, err)

	assert.Equal(t, 2, nav.resultWaits)
	assert.Zero(t, logs.FilterMessage("Results never became visible, looking for the listing anyway").Len())
}

func TestRun_PausesBetweenSearches(t *testing.T) {
	nav := newFakeNav()
	nav.addPage("a", []int{0, 0, 0})
	nav.addPage("b", []int{0, 0, 0})

	timing := scraper.Timing{MaxScrolls: 2}
	o, _ := newTestOrchestrator(t, nav, Options{SearchDelayMin: 5 * time.Second, SearchDelayMax: 9 * time.Second, Timing: timing})
	_, err := o.Run(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	var delays []int
	for i, call := range nav.calls {
		if call == "pause:5s" {
			delays = append(delays, i)
		}
	}
	require.Len(t, delays, 1)
	assert.Equal(t, "navigate", nav.calls[delays[0]+1], "the delay comes right before the second search")
}

func TestRun_LimitAppliesPerQuery(t *testing.T) {
	nav := newFakeNav()
	nav.addPage("a", []int{3, 3},
		panelHTML("A1", "https://example.com/a1"),
		panelHTML("A2", "https://example.com/a2"),
		panelHTML("A3", "https://example.com/a3"))
	nav.addPage("b", []int{3, 3},
		panelHTML("B1", "https://example.com/b1"),
		panelHTML("B2", "https://example.com/b2"),
		panelHTML("B3", "https://example.com/b3"))

	o, _ := newTestOrchestrator(t, nav, Options{Limit: 2})
	summary, err := o.Run(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	for _, res := range summary.Results {
		assert.Len(t, res.Records, 2)
		assert.True(t, res.Capped)
	}
	assert.Equal(t, 4, summary.Accepted)
}

func TestRun_StoreFailureIsReportedNotFatal(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	nav := newFakeNav()
	nav.addPage("golang", []int{1, 1}, panelHTML("Go", "https://example.com/go"))

	st := store.New(filepath.Join(blocker, "jobs.json"), logger.NewNop())
	o := New(nav, st, Options{}, logger.NewNop(), WithJitter(firstOf))

	summary, err := o.Run(context.Background(), []string{"golang"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Accepted)
	assert.Len(t, summary.Records, 1)
	assert.Error(t, summary.StoreErr)
}

func TestRun_RecorderFailureIsNotFatal(t *testing.T) {
	nav := newFakeNav()
	nav.addPage("golang", []int{1, 1}, panelHTML("Go", "https://example.com/go"))

	rec := &fakeRecorder{startErr: errors.New("database is locked")}
	o, _ := newTestOrchestrator(t, nav, Options{}, WithRecorder(rec))

	summary, err := o.Run(context.Background(), []string{"golang"})
	require.NoError(t, err)
	assert.Empty(t, summary.RunID)
	assert.Nil(t, rec.finished)
	assert.Equal(t, 1, summary.Accepted)
}

func TestRun_CancelledContextStillReconciles(t *testing.T) {
	nav := newFakeNav()
	nav.addPage("golang", []int{1, 1}, panelHTML("Go", "https://example.com/go"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, st := newTestOrchestrator(t, nav, Options{})
	summary, err := o.Run(ctx, []string{"golang"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Empty(t, nav.navigated)
	assert.FileExists(t, st.Path())
}
