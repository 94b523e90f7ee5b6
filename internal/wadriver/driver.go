// Package wadriver drives WhatsApp Web through a real Chrome instance.
// It is the production implementation of domain.GroupActor; the
// coordinator never sees any of this.
package wadriver

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/DylanUno/whatsapp-group-form-automation/internal/domain"
)

const (
	DefaultStartURL = "https://web.whatsapp.com"

	// The member-search box inside the group's "add participant" view.
	DefaultSearchBoxSelector = `div[contenteditable="true"][data-tab="3"]`

	DefaultActionTimeout = 30 * time.Second

	// Pause between keystroke phases so the web app keeps up; WhatsApp
	// drops input typed faster than its own rendering.
	keystrokeSettle = time.Second
)

// PromptFunc blocks until the operator confirms a manual setup step
// (QR scan, group navigation). Wired to the console gate.
type PromptFunc func(ctx context.Context, message string) error

// Options configures the browser session.
type Options struct {
	StartURL          string
	SearchBoxSelector string
	ActionTimeout     time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.StartURL == "" {
		out.StartURL = DefaultStartURL
	}
	if out.SearchBoxSelector == "" {
		out.SearchBoxSelector = DefaultSearchBoxSelector
	}
	if out.ActionTimeout <= 0 {
		out.ActionTimeout = DefaultActionTimeout
	}
	return out
}

// Driver owns one Chrome session for the duration of a run.
type Driver struct {
	opts   Options
	prompt PromptFunc
	logger *zap.Logger

	browser context.Context
	cancels []context.CancelFunc
}

func New(opts Options, prompt PromptFunc, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{opts: opts.withDefaults(), prompt: prompt, logger: logger}
}

// BeginSession launches Chrome, opens WhatsApp Web, and walks the
// operator through QR authentication and group selection. The QR scan
// has no timeout; it finishes when the operator says so.
func (d *Driver) BeginSession(ctx context.Context) error {
	if d.prompt == nil {
		return fmt.Errorf("wadriver: operator prompt is required")
	}

	// The QR code lives on screen; headless is not an option.
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browser, browserCancel := chromedp.NewContext(allocCtx)
	d.browser = browser
	d.cancels = []context.CancelFunc{browserCancel, allocCancel}

	d.logger.Info("opening WhatsApp Web", zap.String("url", d.opts.StartURL))
	if err := chromedp.Run(browser, chromedp.Navigate(d.opts.StartURL)); err != nil {
		return fmt.Errorf("open WhatsApp Web: %w", err)
	}

	if err := d.prompt(ctx, "Scan the QR code with your phone, then proceed."); err != nil {
		return err
	}
	if err := d.prompt(ctx, "Open the target group's add-participant view, then proceed."); err != nil {
		return err
	}

	wait, cancel := context.WithTimeout(browser, d.opts.ActionTimeout)
	defer cancel()
	if err := chromedp.Run(wait, chromedp.WaitVisible(d.opts.SearchBoxSelector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("locate member search box: %w", err)
	}
	d.logger.Info("session ready")
	return nil
}

// AddContact types the number into the member search box, selects the
// top match with Enter, and clears the box for the next number.
func (d *Driver) AddContact(ctx context.Context, number domain.CanonicalNumber) error {
	if d.browser == nil {
		return domain.ErrSessionLost
	}

	run, cancel := context.WithTimeout(d.browser, d.opts.ActionTimeout)
	defer cancel()

	sel := d.opts.SearchBoxSelector
	err := chromedp.Run(run,
		chromedp.Click(sel, chromedp.ByQuery),
		chromedp.Sleep(keystrokeSettle),
		chromedp.SendKeys(sel, string(number), chromedp.ByQuery),
		chromedp.Sleep(keystrokeSettle),
		chromedp.SendKeys(sel, kb.Enter, chromedp.ByQuery),
		chromedp.Sleep(keystrokeSettle),
		chromedp.Evaluate(fmt.Sprintf(`document.querySelector(%q).textContent = ""`, sel), nil),
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("add %s: %w", number, ctx.Err())
		}
		if d.browser.Err() != nil {
			return fmt.Errorf("%w: %v", domain.ErrSessionLost, err)
		}
		return fmt.Errorf("add %s: %w", number, err)
	}
	return nil
}

// SessionAlive probes the page with a trivial script.
func (d *Driver) SessionAlive(ctx context.Context) bool {
	if d.browser == nil || d.browser.Err() != nil || ctx.Err() != nil {
		return false
	}
	probe, cancel := context.WithTimeout(d.browser, 5*time.Second)
	defer cancel()

	var state string
	if err := chromedp.Run(probe, chromedp.Evaluate(`document.readyState`, &state)); err != nil {
		d.logger.Warn("session probe failed", zap.Error(err))
		return false
	}
	return true
}

// Close tears the browser down. Safe to call more than once.
func (d *Driver) Close() {
	for _, cancel := range d.cancels {
		cancel()
	}
	d.cancels = nil
	d.browser = nil
}
