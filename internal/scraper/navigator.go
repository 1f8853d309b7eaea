package scraper

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned by Navigator.WaitVisible when the bound elapses.
	ErrTimeout = errors.New("timed out waiting for element")
	// ErrNotFound is returned when an element an operation needs is absent.
	ErrNotFound = errors.New("element not found")
)

// Navigator is the browser surface the harvester drives. Lookups that may
// legitimately find nothing report it through a found flag rather than an
// error; errors are reserved for the browser itself failing.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector is visible, returning ErrTimeout once
	// timeout has elapsed.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Count returns how many elements match item inside the first match of scope.
	Count(ctx context.Context, scope, item string) (int, error)
	// ScrollToEnd scrolls the first match of selector to its content end.
	ScrollToEnd(ctx context.Context, selector string) error
	// Activate scrolls the index-th item inside scope into view and clicks it.
	Activate(ctx context.Context, scope, item string, index int) error
	// Click clicks the first match of selector.
	Click(ctx context.Context, selector string) (found bool, err error)
	// Fill replaces the value of the first match of selector and presses Enter.
	Fill(ctx context.Context, selector, text string) (found bool, err error)
	// OuterHTML returns the markup of the first match of selector.
	OuterHTML(ctx context.Context, selector string) (html string, found bool, err error)
	Pause(ctx context.Context, d time.Duration) error
}
