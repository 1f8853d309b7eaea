package scraper

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/khrees2412/jobharvest/internal/classifier"
	"github.com/khrees2412/jobharvest/internal/logger"
	"github.com/khrees2412/jobharvest/internal/store"
	"github.com/khrees2412/jobharvest/pkg/models"
)

// State is the position of a Session in its extraction lifecycle.
type State int

const (
	AwaitingContainer State = iota
	Scrolling
	Extracting
	// Done means the list stopped growing or the cap was reached.
	Done
	// FailedContainer means the results list never appeared.
	FailedContainer
	// Ceiling means the scroll budget ran out before the list stabilised.
	Ceiling
	// Interrupted means the context was cancelled mid-run.
	Interrupted
)

func (s State) String() string {
	switch s {
	case AwaitingContainer:
		return "awaiting_container"
	case Scrolling:
		return "scrolling"
	case Extracting:
		return "extracting"
	case Done:
		return "done"
	case FailedContainer:
		return "failed_container"
	case Ceiling:
		return "ceiling"
	case Interrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Timing holds the pauses and bounds of the scroll/extract loop.
type Timing struct {
	ClickDelay       time.Duration `mapstructure:"click_delay"`
	ScrollDelayMin   time.Duration `mapstructure:"scroll_delay_min"`
	ScrollDelayMax   time.Duration `mapstructure:"scroll_delay_max"`
	ErrorRetryDelay  time.Duration `mapstructure:"error_retry_delay"`
	ContainerTimeout time.Duration `mapstructure:"container_timeout"`
	DetailTimeout    time.Duration `mapstructure:"detail_timeout"`
	MaxScrolls       int           `mapstructure:"max_scrolls"`
}

// DefaultTiming mirrors the pacing the harvester has always used.
func DefaultTiming() Timing {
	return Timing{
		ClickDelay:       1 * time.Second,
		ScrollDelayMin:   2 * time.Second,
		ScrollDelayMax:   4 * time.Second,
		ErrorRetryDelay:  2 * time.Second,
		ContainerTimeout: 20 * time.Second,
		DetailTimeout:    10 * time.Second,
		MaxScrolls:       50,
	}
}

// Tracker is the identity set shared by every session of a harvest.
type Tracker interface {
	Seen(id string) bool
	Mark(id string)
}

// Sink persists accepted records; *store.Store satisfies it.
type Sink interface {
	Accept(rec models.JobRecord) (store.Outcome, error)
}

// IdentitySet is an in-memory Tracker.
type IdentitySet map[string]struct{}

func NewIdentitySet() IdentitySet { return IdentitySet{} }

func (s IdentitySet) Seen(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IdentitySet) Mark(id string) { s[id] = struct{}{} }

// SessionConfig wires a Session. Zero values fall back to defaults.
type SessionConfig struct {
	Selectors Selectors
	Timing    Timing
	// Cap stops the session once this many records are accepted; 0 means no cap.
	Cap     int
	Tracker Tracker
	Sink    Sink
	Logger  logger.Logger
	Now     func() time.Time
	// Jitter picks a pause in [min, max].
	Jitter func(min, max time.Duration) time.Duration
}

// Result is what one query produced.
type Result struct {
	Query      string
	State      State
	Records    []models.JobRecord
	Polls      int
	Duplicates int
	Failures   int
	Capped     bool
}

// Session extracts the listings of one results page.
type Session struct {
	nav Navigator
	cfg SessionConfig
}

func NewSession(nav Navigator, cfg SessionConfig) *Session {
	cfg.Selectors = cfg.Selectors.Merge(DefaultSelectors())
	if cfg.Timing.MaxScrolls <= 0 {
		cfg.Timing.MaxScrolls = DefaultTiming().MaxScrolls
	}
	if cfg.Tracker == nil {
		cfg.Tracker = NewIdentitySet()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Jitter == nil {
		cfg.Jitter = RandomDuration
	}
	return &Session{nav: nav, cfg: cfg}
}

// RandomDuration returns a uniformly random duration in [min, max].
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}

// Run scrolls the results list until it stops growing, extracting each newly
// rendered card. A card that fails is skipped; only a missing container ends
// the query early.
func (s *Session) Run(ctx context.Context, query string) Result {
	sel, timing := s.cfg.Selectors, s.cfg.Timing
	log := s.cfg.Logger.With(logger.String("query", query))
	res := Result{Query: query, State: AwaitingContainer, Records: []models.JobRecord{}}

	if err := s.nav.WaitVisible(ctx, sel.Container, timing.ContainerTimeout); err != nil {
		if ctx.Err() != nil {
			res.State = Interrupted
			return res
		}
		log.Warn("Results container not available, skipping query", logger.Error(err))
		res.State = FailedContainer
		return res
	}

	previous := 0
	for {
		if ctx.Err() != nil {
			res.State = Interrupted
			return res
		}
		if res.Polls >= timing.MaxScrolls {
			log.Warn("Scroll ceiling reached before the list settled, keeping partial results",
				logger.Int("polls", res.Polls), logger.Int("records", len(res.Records)))
			res.State = Ceiling
			return res
		}

		res.State = Scrolling
		if err := s.nav.ScrollToEnd(ctx, sel.Container); err != nil {
			log.Warn("Scroll failed", logger.Error(err))
		}
		if err := s.nav.Pause(ctx, s.cfg.Jitter(timing.ScrollDelayMin, timing.ScrollDelayMax)); err != nil {
			res.State = Interrupted
			return res
		}

		current, err := s.nav.Count(ctx, sel.Container, sel.Card)
		res.Polls++
		if err != nil {
			log.Warn("Counting cards failed", logger.Error(err))
			continue
		}
		if current == previous && current > 0 {
			log.Info("No new jobs loaded after scrolling", logger.Int("cards", current))
			res.State = Done
			return res
		}

		res.State = Extracting
		for i := previous; i < current; i++ {
			if ctx.Err() != nil {
				res.State = Interrupted
				return res
			}
			if s.process(ctx, query, i, &res, log) {
				log.Info("Reached record cap", logger.Int("cap", s.cfg.Cap))
				res.State = Done
				res.Capped = true
				return res
			}
		}
		previous = current
	}
}

// process extracts card i and hands it to dedup and persistence. It reports
// whether the cap has been reached.
func (s *Session) process(ctx context.Context, query string, i int, res *Result, log logger.Logger) bool {
	rec, err := s.extract(ctx, query, i)
	if err != nil {
		res.Failures++
		log.Warn("Skipping job card", logger.Int("index", i), logger.Error(err))
		return false
	}

	id := rec.Identity()
	if s.cfg.Tracker.Seen(id) {
		res.Duplicates++
		log.Info("Skipping duplicate job", logger.String("title", rec.JobTitle))
		return false
	}
	s.cfg.Tracker.Mark(id)

	if s.cfg.Sink != nil {
		outcome, err := s.cfg.Sink.Accept(rec)
		switch {
		case err != nil:
			log.Error("Failed to persist job, keeping it for the final write",
				logger.String("title", rec.JobTitle), logger.Error(err))
		case outcome == store.Duplicate:
			res.Duplicates++
			log.Info("Job already stored by an earlier run", logger.String("title", rec.JobTitle))
			return false
		}
	}

	res.Records = append(res.Records, rec)
	log.Info("Scraped job", logger.Int("n", len(res.Records)), logger.String("title", rec.JobTitle))
	return s.cfg.Cap > 0 && len(res.Records) >= s.cfg.Cap
}

func (s *Session) extract(ctx context.Context, query string, i int) (models.JobRecord, error) {
	sel, timing := s.cfg.Selectors, s.cfg.Timing

	if err := s.nav.Activate(ctx, sel.Container, sel.Card, i); err != nil {
		return models.JobRecord{}, fmt.Errorf("open card: %w", err)
	}
	if err := s.nav.Pause(ctx, timing.ClickDelay); err != nil {
		return models.JobRecord{}, err
	}

	if err := s.nav.WaitVisible(ctx, sel.DetailPanel, timing.DetailTimeout); err != nil {
		if !errors.Is(err, ErrTimeout) {
			return models.JobRecord{}, fmt.Errorf("wait for detail panel: %w", err)
		}
		s.cfg.Logger.Warn("Detail panel not visible yet, retrying", logger.Int("index", i))
		if err := s.nav.Pause(ctx, timing.ErrorRetryDelay); err != nil {
			return models.JobRecord{}, err
		}
		if err := s.nav.WaitVisible(ctx, sel.DetailPanel, timing.DetailTimeout); err != nil {
			return models.JobRecord{}, fmt.Errorf("detail panel never became visible: %w", err)
		}
	}

	html, found, err := s.nav.OuterHTML(ctx, sel.DetailPanel)
	if err != nil {
		return models.JobRecord{}, fmt.Errorf("read detail panel: %w", err)
	}
	if !found {
		return models.JobRecord{}, fmt.Errorf("detail panel: %w", ErrNotFound)
	}

	frags, err := ParsePanel(html, sel)
	if err != nil {
		return models.JobRecord{}, err
	}
	return classifier.Classify(frags, query, s.cfg.Now()), nil
}
