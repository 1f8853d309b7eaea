package harvest

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/khrees2412/jobharvest/internal/scraper"
	"github.com/khrees2412/jobharvest/pkg/models"
)

// page is one scripted results list.
type page struct {
	counts      []int
	panels      map[int]string
	noContainer bool
	polls       int
}

// fakeNav serves a scripted results page per query. The active page is the
// one last navigated to or typed into the search box.
type fakeNav struct {
	pages map[string]*page
	// present lists selectors that Click and Fill can find
	present         map[string]bool
	resultsTimeouts int

	active      string
	card        int
	navigated   []string
	filled      []string
	clicked     []string
	resultWaits int
	pauses      []time.Duration
	calls       []string
}

func newFakeNav() *fakeNav {
	return &fakeNav{pages: map[string]*page{}, present: map[string]bool{}}
}

func (f *fakeNav) addPage(query string, counts []int, panels ...string) *page {
	p := &page{counts: counts, panels: map[int]string{}}
	for i, html := range panels {
		p.panels[i] = html
	}
	f.pages[query] = p
	return p
}

func (f *fakeNav) Navigate(_ context.Context, raw string) error {
	f.navigated = append(f.navigated, raw)
	f.calls = append(f.calls, "navigate")
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	f.active = u.Query().Get("q")
	return nil
}

func (f *fakeNav) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sel := scraper.DefaultSelectors()
	p := f.pages[f.active]
	switch selector {
	case sel.Results:
		f.resultWaits++
		if f.resultWaits <= f.resultsTimeouts {
			return fmt.Errorf("%w: %s", scraper.ErrTimeout, selector)
		}
	case sel.Container:
		if p == nil || p.noContainer {
			return fmt.Errorf("%w: %s", scraper.ErrTimeout, selector)
		}
	case sel.DetailPanel:
		if p == nil || p.panels[f.card] == "" {
			return fmt.Errorf("%w: %s", scraper.ErrTimeout, selector)
		}
	}
	return nil
}

func (f *fakeNav) Count(context.Context, string, string) (int, error) {
	p := f.pages[f.active]
	if p == nil || len(p.counts) == 0 {
		return 0, nil
	}
	i := min(p.polls, len(p.counts)-1)
	p.polls++
	return p.counts[i], nil
}

func (f *fakeNav) ScrollToEnd(context.Context, string) error { return nil }

func (f *fakeNav) Activate(_ context.Context, _, _ string, index int) error {
	f.card = index
	return nil
}

func (f *fakeNav) Click(_ context.Context, selector string) (bool, error) {
	if !f.present[selector] {
		return false, nil
	}
	f.clicked = append(f.clicked, selector)
	return true, nil
}

func (f *fakeNav) Fill(_ context.Context, selector, text string) (bool, error) {
	if !f.present[selector] {
		return false, nil
	}
	f.filled = append(f.filled, text)
	f.calls = append(f.calls, "fill")
	f.active = text
	return true, nil
}

func (f *fakeNav) OuterHTML(context.Context, string) (string, bool, error) {
	p := f.pages[f.active]
	if p == nil {
		return "", false, nil
	}
	html, ok := p.panels[f.card]
	return html, ok, nil
}

func (f *fakeNav) Pause(ctx context.Context, d time.Duration) error {
	f.pauses = append(f.pauses, d)
	f.calls = append(f.calls, fmt.Sprintf("pause:%s", d))
	return ctx.Err()
}

// panelHTML renders a detail panel in the default layout.
func panelHTML(title, link string) string {
	apply := ""
	if link != "" {
		apply = `<span class="fQYLde"><a href="` + link + `">Apply on LinkedIn</a></span>`
	}
	return `<div jsname="H9tDt">` +
		`<h1 class="LZAQDf">` + title + `</h1>` +
		`<div class="waQ7qe">Acme • Remote</div>` +
		`<div class="mLdNec"><div class="nYym1e"><span class="RcZtZb">Full-time</span></div></div>` +
		`<span jsname="QAWWu">Build things.</span>` +
		apply +
		`</div>`
}

// fakeRecorder captures the run history writes.
type fakeRecorder struct {
	startErr error
	spec     string
	queries  int
	recorded []models.JobRecord
	finished *models.Run
}

func (r *fakeRecorder) StartRun(spec string, queries int) (*models.Run, error) {
	if r.startErr != nil {
		return nil, r.startErr
	}
	r.spec, r.queries = spec, queries
	return &models.Run{ID: "run-1", QuerySpec: spec, Queries: queries}, nil
}

func (r *fakeRecorder) RecordJobs(_ string, records []models.JobRecord) (int, error) {
	r.recorded = append(r.recorded, records...)
	return len(records), nil
}

func (r *fakeRecorder) FinishRun(run *models.Run) error {
	r.finished = run
	return nil
}
