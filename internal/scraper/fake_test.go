package scraper

import (
	"context"
	"fmt"
	"time"
)

// fakeNav simulates a virtualised results list. counts is the sequence of
// card counts returned by successive polls; the last value repeats.
type fakeNav struct {
	counts       []int
	panels       map[int]string
	containerErr error
	// detailTimeouts is how many detail waits time out before the panel shows, per card
	detailTimeouts map[int]int

	polls       int
	current     int
	activated   []int
	detailWaits map[int]int
	pauses      []time.Duration
	scrolls     int
	navigated   []string
	filled      map[string]string
	clicked     []string
	present     map[string]bool
}

func newFakeNav(counts []int) *fakeNav {
	return &fakeNav{
		counts:         counts,
		panels:         map[int]string{},
		detailTimeouts: map[int]int{},
		detailWaits:    map[int]int{},
		filled:         map[string]string{},
		present:        map[string]bool{},
		current:        -1,
	}
}

func (f *fakeNav) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakeNav) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sel := DefaultSelectors()
	switch selector {
	case sel.Container:
		return f.containerErr
	case sel.DetailPanel:
		f.detailWaits[f.current]++
		if f.detailWaits[f.current] <= f.detailTimeouts[f.current] {
			return fmt.Errorf("%w: %s", ErrTimeout, selector)
		}
		if _, ok := f.panels[f.current]; !ok {
			return fmt.Errorf("%w: %s", ErrTimeout, selector)
		}
	}
	return nil
}

func (f *fakeNav) Count(context.Context, string, string) (int, error) {
	i := f.polls
	if i >= len(f.counts) {
		i = len(f.counts) - 1
	}
	f.polls++
	return f.counts[i], nil
}

func (f *fakeNav) ScrollToEnd(context.Context, string) error {
	f.scrolls++
	return nil
}

func (f *fakeNav) Activate(_ context.Context, _, _ string, index int) error {
	f.activated = append(f.activated, index)
	f.current = index
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
	f.filled[selector] = text
	return true, nil
}

func (f *fakeNav) OuterHTML(_ context.Context, selector string) (string, bool, error) {
	html, ok := f.panels[f.current]
	return html, ok, nil
}

func (f *fakeNav) Pause(ctx context.Context, d time.Duration) error {
	f.pauses = append(f.pauses, d)
	return ctx.Err()
}

// panelHTML renders a detail panel in the default layout.
func panelHTML(title, publisher, link string, chips ...string) string {
	details := ""
	for _, c := range chips {
		details += `<div class="nYym1e"><span class="RcZtZb">` + c + `</span></div>`
	}
	apply := ""
	if link != "" {
		apply = `<span class="fQYLde"><a href="` + link + `">Apply on LinkedIn</a></span>`
	}
	return `<div jsname="H9tDt">` +
		`<h1 class="LZAQDf">` + title + `</h1>` +
		`<div class="waQ7qe">` + publisher + `</div>` +
		`<div class="mLdNec">` + details + `</div>` +
		`<span jsname="QAWWu">About the role.</span>` +
		apply +
		`</div>`
}

func (f *fakeNav) addPanels(n int) {
	for i := 0; i < n; i++ {
		f.panels[i] = panelHTML(fmt.Sprintf("Job %d", i), "Acme", fmt.Sprintf("https://example.com/%d", i))
	}
}
