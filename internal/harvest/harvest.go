// Package harvest runs a sequence of search queries through one shared
// browser tab and persists what the listing sessions extract.
package harvest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/khrees2412/jobharvest/internal/logger"
	"github.com/khrees2412/jobharvest/internal/scraper"
	"github.com/khrees2412/jobharvest/internal/store"
	"github.com/khrees2412/jobharvest/pkg/models"
)

// ErrNoQueries is returned when there is nothing to search for.
var ErrNoQueries = errors.New("no queries to run")

// Store is the persistence the orchestrator writes through.
type Store interface {
	scraper.Sink
	Reconcile(batch []models.JobRecord) (store.Summary, error)
}

// Recorder keeps a history of runs; *database.Repository satisfies it.
type Recorder interface {
	StartRun(querySpec string, queries int) (*models.Run, error)
	RecordJobs(runID string, records []models.JobRecord) (int, error)
	FinishRun(run *models.Run) error
}

// Options configures a harvest.
type Options struct {
	// QuerySpec is the unexpanded input, kept for the run history.
	QuerySpec string
	// Limit caps the records accepted per query; 0 means no cap.
	Limit     int
	IsToday   bool
	CityState string

	SearchDelayMin  time.Duration
	SearchDelayMax  time.Duration
	ResultsTimeout  time.Duration
	ResultsAttempts int
	// ConsentPause is how long to let the page settle after accepting cookies.
	ConsentPause time.Duration

	Selectors scraper.Selectors
	Timing    scraper.Timing
}

// Summary is the outcome of one harvest.
type Summary struct {
	RunID      string
	Results    []scraper.Result
	Records    []models.JobRecord
	Accepted   int
	Duplicates int
	Failures   int
	Store      store.Summary
	// StoreErr is set when the final write failed; records were still harvested.
	StoreErr error
}

// Orchestrator drives the queries of a harvest in order.
type Orchestrator struct {
	nav      scraper.Navigator
	store    Store
	recorder Recorder
	opts     Options
	log      logger.Logger
	now      func() time.Time
	jitter   func(min, max time.Duration) time.Duration
}

type Option func(*Orchestrator)

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithJitter(j func(min, max time.Duration) time.Duration) Option {
	return func(o *Orchestrator) { o.jitter = j }
}

func New(nav scraper.Navigator, st Store, opts Options, log logger.Logger, options ...Option) *Orchestrator {
	opts.Selectors = opts.Selectors.Merge(scraper.DefaultSelectors())
	if opts.ResultsAttempts <= 0 {
		opts.ResultsAttempts = 3
	}
	if opts.ResultsTimeout <= 0 {
		opts.ResultsTimeout = 10 * time.Second
	}
	if opts.ConsentPause <= 0 {
		opts.ConsentPause = 2 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	o := &Orchestrator{
		nav:    nav,
		store:  st,
		opts:   opts,
		log:    log,
		now:    time.Now,
		jitter: scraper.RandomDuration,
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Run processes queries strictly one after another, then reconciles every
// accepted record with the store. Per-query failures are logged and skipped;
// only an empty query list, a bad location or cancellation return an error.
func (o *Orchestrator) Run(ctx context.Context, queries []string) (*Summary, error) {
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}
	if o.opts.CityState != "" {
		if _, err := CityChip(o.opts.CityState); err != nil {
			return nil, err
		}
	}

	summary := &Summary{Records: []models.JobRecord{}}
	run := o.startRun(queries)
	if run != nil {
		summary.RunID = run.ID
	}

	tracker := scraper.NewIdentitySet()
	for i, q := range queries {
		if ctx.Err() != nil {
			break
		}
		log := o.log.With(logger.Int("query_index", i+1), logger.String("query", q))

		if i > 0 {
			delay := o.jitter(o.opts.SearchDelayMin, o.opts.SearchDelayMax)
			log.Info("Pausing before next search", logger.Duration("delay", delay))
			if err := o.nav.Pause(ctx, delay); err != nil {
				break
			}
		}

		if err := o.search(ctx, i, q, log); err != nil {
			log.Error("Search failed, skipping query", logger.Error(err))
			continue
		}
		if i == 0 {
			o.dismissConsent(ctx, log)
		}
		if !o.awaitResults(ctx, log) && ctx.Err() == nil {
			log.Warn("Results never became visible, looking for the listing anyway",
				logger.Int("attempts", o.opts.ResultsAttempts))
		}

		session := scraper.NewSession(o.nav, scraper.SessionConfig{
			Selectors: o.opts.Selectors,
			Timing:    o.opts.Timing,
			Cap:       o.opts.Limit,
			Tracker:   tracker,
			Sink:      o.store,
			Logger:    o.log,
			Now:       o.now,
			Jitter:    o.jitter,
		})
		res := session.Run(ctx, q)
		log.Info("Query finished", logger.String("state", res.State.String()),
			logger.Int("records", len(res.Records)), logger.Int("duplicates", res.Duplicates),
			logger.Int("failures", res.Failures))

		summary.Results = append(summary.Results, res)
		summary.Records = append(summary.Records, res.Records...)
		summary.Accepted += len(res.Records)
		summary.Duplicates += res.Duplicates
		summary.Failures += res.Failures
	}

	storeSummary, err := o.store.Reconcile(summary.Records)
	if err != nil {
		o.log.Error("Failed to save jobs", logger.Error(err))
		summary.StoreErr = err
	} else {
		summary.Store = storeSummary
		o.log.Info("Saved jobs", logger.Int("new", storeSummary.NewJobsAdded),
			logger.Int("existing", storeSummary.ExistingJobs), logger.Int("total", storeSummary.TotalJobs))
	}

	o.finishRun(run, summary)
	return summary, ctx.Err()
}

// search loads the results for query. The first query, and any query whose
// page has no usable search box, navigates by URL.
func (o *Orchestrator) search(ctx context.Context, index int, query string, log logger.Logger) error {
	if index > 0 {
		for _, sel := range o.opts.Selectors.SearchBox {
			found, err := o.nav.Fill(ctx, sel, query)
			if err != nil {
				log.Warn("Search box rejected input", logger.String("selector", sel), logger.Error(err))
				continue
			}
			if found {
				log.Info("Searching from the search box", logger.String("selector", sel))
				return nil
			}
		}
		log.Info("No search box found, navigating by URL")
	}

	u, err := SearchURL(query, o.opts.IsToday, o.opts.CityState)
	if err != nil {
		return err
	}
	log.Info("Navigating to results", logger.String("url", u))
	return o.nav.Navigate(ctx, u)
}

// dismissConsent clicks the first cookie-consent button present. Its absence
// is normal.
func (o *Orchestrator) dismissConsent(ctx context.Context, log logger.Logger) {
	for _, sel := range o.opts.Selectors.ConsentButtons {
		clicked, err := o.nav.Click(ctx, sel)
		if err != nil {
			log.Info("Could not click consent button", logger.String("selector", sel), logger.Error(err))
			continue
		}
		if clicked {
			log.Info("Accepted cookie consent", logger.String("selector", sel))
			// a cancelled pause is picked up by the session's own context checks
			_ = o.nav.Pause(ctx, o.opts.ConsentPause)
			return
		}
	}
}

// awaitResults gives the results list a bounded number of chances to show.
// Giving up is not fatal; the session reports the missing container.
func (o *Orchestrator) awaitResults(ctx context.Context, log logger.Logger) bool {
	for attempt := 1; attempt <= o.opts.ResultsAttempts; attempt++ {
		err := o.nav.WaitVisible(ctx, o.opts.Selectors.Results, o.opts.ResultsTimeout)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		log.Warn("Results not visible yet", logger.Int("attempt", attempt),
			logger.Int("attempts", o.opts.ResultsAttempts), logger.Error(err))
	}
	return false
}

func (o *Orchestrator) startRun(queries []string) *models.Run {
	if o.recorder == nil {
		return nil
	}
	spec := o.opts.QuerySpec
	if spec == "" {
		spec = strings.Join(queries, " OR ")
	}
	run, err := o.recorder.StartRun(spec, len(queries))
	if err != nil {
		o.log.Warn("Run history unavailable", logger.Error(err))
		return nil
	}
	return run
}

func (o *Orchestrator) finishRun(run *models.Run, summary *Summary) {
	if run == nil {
		return
	}
	run.Accepted = summary.Accepted
	run.Duplicates = summary.Duplicates
	run.Failures = summary.Failures
	run.TotalJobs = summary.Store.TotalJobs

	// new_jobs counts identities no earlier run has mirrored
	inserted, err := o.recorder.RecordJobs(run.ID, summary.Records)
	if err != nil {
		o.log.Warn("Failed to mirror jobs into run history", logger.Error(err))
	}
	run.NewJobs = inserted
	if err := o.recorder.FinishRun(run); err != nil {
		o.log.Warn("Failed to close run in history", logger.Error(err))
	}
}
