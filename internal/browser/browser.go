// Package browser drives a Chrome instance through chromedp and implements
// scraper.Navigator on top of it.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/khrees2412/jobharvest/internal/logger"
	"github.com/khrees2412/jobharvest/internal/scraper"
)

const (
	pageLoadTimeout      = 30 * time.Second
	defaultActionTimeout = 20 * time.Second
	defaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
)

// Options configures the browser process.
type Options struct {
	Headless  bool
	UserAgent string
	// ExecPath overrides Chrome discovery.
	ExecPath string
	// ActionTimeout bounds every single browser action.
	ActionTimeout time.Duration
}

// Chrome is one browser tab shared by every query of a harvest.
type Chrome struct {
	ctx           context.Context
	cancel        context.CancelFunc
	actionTimeout time.Duration
	log           logger.Logger
}

var _ scraper.Navigator = (*Chrome)(nil)

// noisyMessages are chromedp protocol warnings that carry no signal.
var noisyMessages = []string{
	"could not unmarshal event",
	"unknown PrivateNetworkRequestPolicy",
	"unknown ClientNavigationReason",
}

// New starts Chrome and opens a blank tab. Failure here is fatal to a
// harvest, so the error is returned rather than logged.
func New(parent context.Context, opts Options, log logger.Logger) (*Chrome, error) {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		msg := fmt.Sprintf(format, v...)
		for _, noisy := range noisyMessages {
			if strings.Contains(msg, noisy) {
				return
			}
		}
		log.Debug("chromedp", logger.String("msg", msg))
	}), chromedp.WithErrorf(func(format string, v ...interface{}) {
		log.Warn("chromedp", logger.String("msg", fmt.Sprintf(format, v...)))
	}))

	c := &Chrome{
		ctx: ctx,
		cancel: func() {
			cancelCtx()
			cancelAlloc()
		},
		actionTimeout: opts.ActionTimeout,
		log:           log,
	}
	if c.actionTimeout <= 0 {
		c.actionTimeout = defaultActionTimeout
	}

	// the first Run launches the browser process
	if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
		c.cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return c, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() {
	c.cancel()
}

// run executes actions on the tab, bounded by timeout and by ctx.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx, pageLoadTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	err := c.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s after %s", scraper.ErrTimeout, selector, timeout)
	}
	return fmt.Errorf("wait for %s: %w", selector, err)
}

func (c *Chrome) Count(ctx context.Context, scope, item string) (int, error) {
	script := fmt.Sprintf(`(() => {
		const scope = document.querySelector(%q);
		return scope ? scope.querySelectorAll(%q).length : 0;
	})()`, scope, item)

	var n int
	if err := c.run(ctx, c.actionTimeout, chromedp.Evaluate(script, &n)); err != nil {
		return 0, fmt.Errorf("count %s: %w", item, err)
	}
	return n, nil
}

func (c *Chrome) ScrollToEnd(ctx context.Context, selector string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.scrollTop = el.scrollHeight;
		return true;
	})()`, selector)

	var ok bool
	if err := c.run(ctx, c.actionTimeout, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("scroll %s: %w", selector, err)
	}
	if !ok {
		return fmt.Errorf("scroll %s: %w", selector, scraper.ErrNotFound)
	}
	return nil
}

// first returns the first node matching selector, or nil without waiting.
func (c *Chrome) first(ctx context.Context, selector string, opts ...chromedp.QueryOption) (*cdp.Node, error) {
	var nodes []*cdp.Node
	opts = append([]chromedp.QueryOption{chromedp.ByQuery, chromedp.AtLeast(0)}, opts...)
	if err := c.run(ctx, c.actionTimeout, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}

func (c *Chrome) Activate(ctx context.Context, scope, item string, index int) error {
	parent, err := c.first(ctx, scope)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("%s: %w", scope, scraper.ErrNotFound)
	}

	var items []*cdp.Node
	err = c.run(ctx, c.actionTimeout, chromedp.Nodes(item, &items,
		chromedp.ByQueryAll, chromedp.FromNode(parent), chromedp.AtLeast(0)))
	if err != nil {
		return fmt.Errorf("query %s: %w", item, err)
	}
	if index >= len(items) {
		return fmt.Errorf("%s[%d] of %d: %w", item, index, len(items), scraper.ErrNotFound)
	}

	node := items[index]
	return c.run(ctx, c.actionTimeout,
		chromedp.ScrollIntoView([]cdp.NodeID{node.NodeID}, chromedp.ByNodeID),
		chromedp.MouseClickNode(node),
	)
}

func (c *Chrome) Click(ctx context.Context, selector string) (bool, error) {
	node, err := c.first(ctx, selector)
	if err != nil || node == nil {
		return false, err
	}
	if err := c.run(ctx, c.actionTimeout, chromedp.MouseClickNode(node)); err != nil {
		return true, fmt.Errorf("click %s: %w", selector, err)
	}
	return true, nil
}

func (c *Chrome) Fill(ctx context.Context, selector, text string) (bool, error) {
	node, err := c.first(ctx, selector)
	if err != nil || node == nil {
		return false, err
	}
	ids := []cdp.NodeID{node.NodeID}
	err = c.run(ctx, c.actionTimeout,
		chromedp.Focus(ids, chromedp.ByNodeID),
		chromedp.SetValue(ids, "", chromedp.ByNodeID),
		chromedp.SendKeys(ids, text+kb.Enter, chromedp.ByNodeID),
	)
	if err != nil {
		return true, fmt.Errorf("fill %s: %w", selector, err)
	}
	return true, nil
}

func (c *Chrome) OuterHTML(ctx context.Context, selector string) (string, bool, error) {
	node, err := c.first(ctx, selector)
	if err != nil || node == nil {
		return "", false, err
	}
	var html string
	if err := c.run(ctx, c.actionTimeout,
		chromedp.OuterHTML([]cdp.NodeID{node.NodeID}, &html, chromedp.ByNodeID)); err != nil {
		return "", true, fmt.Errorf("read %s: %w", selector, err)
	}
	return html, true, nil
}

func (c *Chrome) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	err := c.run(ctx, d+time.Second, chromedp.Sleep(d))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
