package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/neboloop/chromectl/internal/fingerprint"
)

// cdpDriver speaks the DevTools protocol directly through chromedp.
// Tabs are attached lazily; closing the connection only detaches and
// leaves the browser process to the launcher.
type cdpDriver struct {
	logger *slog.Logger

	mu          sync.Mutex
	allocCancel context.CancelFunc
}

func newCDPDriver(logger *slog.Logger) *cdpDriver {
	return &cdpDriver{logger: logger}
}

func (d *cdpDriver) Name() string { return DriverCDP }

func (d *cdpDriver) Connect(ctx context.Context, cdpURL string, timeout time.Duration) (Conn, error) {
	vctx, cancel := context.WithTimeout(ctx, timeout)
	wsURL, err := GetChromeWebSocketURL(vctx, cdpURL)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve websocket url: %w", err)
	}

	// The allocator and browser contexts must outlive this call, so they
	// hang off Background and are released by Close/Stop.
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), wsURL, chromedp.NoModifyURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(d.logf(slog.LevelDebug)),
		chromedp.WithDebugf(d.logf(slog.LevelDebug-4)),
		chromedp.WithErrorf(d.logf(slog.LevelDebug)),
	)

	var targets []*target.Info
	err = runBounded(ctx, timeout, func() error {
		var err error
		targets, err = chromedp.Targets(browserCtx)
		return err
	})
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to connect to CDP at %s: %w", cdpURL, err)
	}

	d.mu.Lock()
	d.allocCancel = allocCancel
	d.mu.Unlock()

	conn := &cdpConn{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		timeout:       timeout,
	}
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		tabCtx, tabCancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(t.TargetID))
		conn.pages = append(conn.pages, &cdpPage{
			conn:     conn,
			targetID: t.TargetID,
			ctx:      tabCtx,
			cancel:   tabCancel,
			url:      t.URL,
		})
	}
	return conn, nil
}

func (d *cdpDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.allocCancel != nil {
		d.allocCancel()
		d.allocCancel = nil
	}
	return nil
}

func (d *cdpDriver) logf(level slog.Level) func(string, ...any) {
	return func(format string, args ...any) {
		d.logger.Log(context.Background(), level, fmt.Sprintf(format, args...), "driver", DriverCDP)
	}
}

type cdpConn struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	timeout       time.Duration

	mu    sync.Mutex
	pages []*cdpPage
}

func (c *cdpConn) Pages() []PageHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	handles := make([]PageHandle, len(c.pages))
	for i, p := range c.pages {
		handles[i] = p
	}
	return handles
}

func (c *cdpConn) NewPage(ctx context.Context) (PageHandle, error) {
	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	p := &cdpPage{conn: c, ctx: tabCtx, cancel: tabCancel}
	if err := p.attach(ctx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if t := chromedp.FromContext(tabCtx).Target; t != nil {
		p.targetID = t.TargetID
	}

	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()
	return p, nil
}

func (c *cdpConn) Close() error {
	tctx, cancel := context.WithTimeout(c.browserCtx, 5*time.Second)
	defer cancel()
	err := chromedp.Cancel(tctx)
	c.browserCancel()
	if err == context.Canceled {
		return nil
	}
	return err
}

type cdpPage struct {
	conn     *cdpConn
	targetID target.ID
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	attached bool
	url      string
}

// attach binds the chromedp context to its target. The first Run on a tab
// context owns the target's event loop, so it must not carry a deadline.
func (p *cdpPage) attach(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.attached {
		return nil
	}
	if err := runBounded(ctx, p.conn.timeout, func() error {
		return chromedp.Run(p.ctx)
	}); err != nil {
		return err
	}
	p.attached = true
	return nil
}

func (p *cdpPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := p.attach(ctx); err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(tctx, actions...)
}

func (p *cdpPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := p.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return err
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

func (p *cdpPage) URL(ctx context.Context) (string, error) {
	var url string
	if err := p.run(ctx, p.conn.timeout, chromedp.Location(&url)); err != nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.url, err
	}
	return url, nil
}

func (p *cdpPage) Title(ctx context.Context) (string, error) {
	var title string
	err := p.run(ctx, p.conn.timeout, chromedp.Title(&title))
	return title, err
}

func (p *cdpPage) Cookies(ctx context.Context) ([]Cookie, error) {
	var raw []*network.Cookie
	err := p.run(ctx, p.conn.timeout, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}

	cookies := make([]Cookie, len(raw))
	for i, c := range raw {
		cookies[i] = Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		}
	}
	return cookies, nil
}

func (p *cdpPage) ApplyFingerprint(ctx context.Context, fp fingerprint.Fingerprint) error {
	return p.run(ctx, p.conn.timeout, chromedp.ActionFunc(func(ctx context.Context) error {
		if fp.Timezone != "" {
			if err := emulation.SetTimezoneOverride(fp.Timezone).Do(ctx); err != nil {
				return fmt.Errorf("timezone override failed: %w", err)
			}
		}
		if fp.Locale != "" {
			if err := emulation.SetLocaleOverride().WithLocale(fp.Locale).Do(ctx); err != nil {
				return fmt.Errorf("locale override failed: %w", err)
			}
		}
		return nil
	}))
}

// Close detaches from and closes the tab. A tab that was never attached
// is closed through the browser-level session.
func (p *cdpPage) Close() error {
	p.mu.Lock()
	attached := p.attached
	p.mu.Unlock()

	if attached {
		err := chromedp.Cancel(p.ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	}

	defer p.cancel()
	c := chromedp.FromContext(p.conn.browserCtx)
	if c == nil || c.Browser == nil || p.targetID == "" {
		return nil
	}
	tctx, cancel := context.WithTimeout(p.conn.browserCtx, p.conn.timeout)
	defer cancel()
	return target.CloseTarget(p.targetID).Do(cdp.WithExecutor(tctx, c.Browser))
}

// runBounded waits for fn up to timeout without handing fn a deadline.
// On timeout fn keeps running until its own contexts are cancelled.
func runBounded(ctx context.Context, timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Chromedp returns the chromedp tab context when the session was opened
// with the cdp driver.
func (p *Page) Chromedp() (context.Context, bool) {
	if h, ok := p.handle.(*cdpPage); ok {
		return h.ctx, true
	}
	return nil, false
}
