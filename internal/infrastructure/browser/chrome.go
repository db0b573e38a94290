package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"CommunityScanner/internal/ports"
)

// Options configures the Chrome process.
type Options struct {
	ExecPath     string
	ShowWindow   bool
	UserAgent    string
	ClickTimeout time.Duration
}

// Chrome drives one tab of a locally started Chrome through the DevTools protocol.
type Chrome struct {
	ctx          context.Context
	cancel       context.CancelFunc
	clickTimeout time.Duration
}

var _ ports.Browser = (*Chrome)(nil)

// Factory returns a BrowserFactory that starts a fresh Chrome per call.
func Factory(opts Options) ports.BrowserFactory {
	return func(ctx context.Context) (ports.Browser, error) {
		c, err := Open(ctx, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Open starts Chrome and its first tab. The process lives until Close or until ctx ends.
func Open(ctx context.Context, opts Options) (*Chrome, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("ignore-certificate-errors", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.ShowWindow {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	// The first Run launches the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	timeout := opts.ClickTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Chrome{ctx: tabCtx, cancel: cancel, clickTimeout: timeout}, nil
}

// Navigate loads url and waits for the load event.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, 0, chromedp.Navigate(url))
}

// ScrollIntoView scrolls the first element matching loc into the viewport.
func (c *Chrome) ScrollIntoView(ctx context.Context, loc ports.Locator) error {
	expr, err := c.locate(ctx, loc)
	if err != nil {
		return err
	}
	if err := c.run(ctx, c.clickTimeout, chromedp.ScrollIntoView(expr, chromedp.BySearch)); err != nil {
		return fmt.Errorf("%w: scroll to %s: %v", ports.ErrNotInteractable, expr, err)
	}
	return nil
}

// Click clicks the first visible element matching loc.
func (c *Chrome) Click(ctx context.Context, loc ports.Locator) error {
	expr, err := c.locate(ctx, loc)
	if err != nil {
		return err
	}
	if err := c.run(ctx, c.clickTimeout, chromedp.Click(expr, chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("%w: click %s: %v", ports.ErrNotInteractable, expr, err)
	}
	return nil
}

// Wait blocks for d so client-side rendering can settle.
func (c *Chrome) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HTML returns the current DOM serialized as markup.
func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("outer html: %w", err)
	}
	return html, nil
}

// Close shuts the tab and the browser process down.
func (c *Chrome) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// locate builds the XPath for loc and checks that it matches something, so callers
// can tell a missing control from one that failed to react.
func (c *Chrome) locate(ctx context.Context, loc ports.Locator) (string, error) {
	expr := XPath(loc)
	literal, err := json.Marshal(expr)
	if err != nil {
		return "", fmt.Errorf("encode xpath: %w", err)
	}

	var found bool
	script := fmt.Sprintf(
		`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue !== null`,
		literal,
	)
	if err := c.run(ctx, c.clickTimeout, chromedp.Evaluate(script, &found)); err != nil {
		return "", fmt.Errorf("evaluate %s: %w", expr, err)
	}
	if !found {
		return "", fmt.Errorf("%w: %s", ports.ErrElementNotFound, expr)
	}
	return expr, nil
}

// run executes actions on the tab, bounded by timeout (when positive) and by ctx.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(c.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(c.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// XPath matches elements of loc.Tag whose text contains loc.Text.
func XPath(loc ports.Locator) string {
	tag := strings.TrimSpace(loc.Tag)
	if tag == "" {
		tag = "*"
	}
	if loc.Text == "" {
		return "//" + tag
	}
	return fmt.Sprintf("//%s[contains(., %s)]", tag, xpathLiteral(loc.Text))
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = "'" + p + "'"
	}
	return "concat(" + strings.Join(quoted, `, "'", `) + ")"
}
