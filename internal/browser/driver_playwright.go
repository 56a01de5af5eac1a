package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/neboloop/chromectl/internal/fingerprint"
)

var (
	// The driver bundle is installed once per process. Browsers are never
	// downloaded since sessions attach to a locally launched executable.
	pwInstallOnce sync.Once
	pwInstallErr  error
)

func installPlaywright() error {
	pwInstallOnce.Do(func() {
		err := playwright.Install(&playwright.RunOptions{
			SkipInstallBrowsers: true,
			Stdout:              io.Discard,
			Stderr:              io.Discard,
		})
		if err != nil {
			pwInstallErr = fmt.Errorf("failed to install playwright driver: %w", err)
		}
	})
	return pwInstallErr
}

type playwrightDriver struct {
	logger *slog.Logger

	mu sync.Mutex
	pw *playwright.Playwright
}

func newPlaywrightDriver(logger *slog.Logger) *playwrightDriver {
	return &playwrightDriver{logger: logger}
}

func (d *playwrightDriver) Name() string { return DriverPlaywright }

func (d *playwrightDriver) Connect(ctx context.Context, cdpURL string, timeout time.Duration) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := installPlaywright(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.pw == nil {
		pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
		if err != nil {
			d.mu.Unlock()
			return nil, fmt.Errorf("failed to start playwright: %w", err)
		}
		d.pw = pw
	}
	pw := d.pw
	d.mu.Unlock()

	browser, err := pw.Chromium.ConnectOverCDP(cdpURL, playwright.BrowserTypeConnectOverCDPOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CDP at %s: %w", cdpURL, err)
	}

	return &playwrightConn{browser: browser, logger: d.logger}, nil
}

func (d *playwrightDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pw == nil {
		return nil
	}
	err := d.pw.Stop()
	d.pw = nil
	return err
}

type playwrightConn struct {
	browser playwright.Browser
	logger  *slog.Logger
}

func (c *playwrightConn) Pages() []PageHandle {
	contexts := c.browser.Contexts()
	if len(contexts) == 0 {
		return nil
	}
	var pages []PageHandle
	for _, page := range contexts[0].Pages() {
		pages = append(pages, &playwrightPage{page: page})
	}
	return pages
}

func (c *playwrightConn) NewPage(ctx context.Context) (PageHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The first context is the persistent profile; a fresh context would
	// not share its cookies or storage.
	var browserCtx playwright.BrowserContext
	if contexts := c.browser.Contexts(); len(contexts) > 0 {
		browserCtx = contexts[0]
	} else {
		var err error
		browserCtx, err = c.browser.NewContext()
		if err != nil {
			return nil, fmt.Errorf("failed to create browser context: %w", err)
		}
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &playwrightPage{page: page}, nil
}

func (c *playwrightConn) Close() error {
	return c.browser.Close()
}

type playwrightPage struct {
	page playwright.Page

	mu      sync.Mutex
	session playwright.CDPSession
}

func (p *playwrightPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms := playwright.Float(float64(timeout.Milliseconds()))
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   ms,
	}); err != nil {
		return err
	}
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateLoad,
		Timeout: ms,
	})
}

func (p *playwrightPage) URL(_ context.Context) (string, error) {
	return p.page.URL(), nil
}

func (p *playwrightPage) Title(_ context.Context) (string, error) {
	return p.page.Title()
}

func (p *playwrightPage) Cookies(_ context.Context) ([]Cookie, error) {
	pwCookies, err := p.page.Context().Cookies()
	if err != nil {
		return nil, err
	}

	cookies := make([]Cookie, len(pwCookies))
	for i, c := range pwCookies {
		cookies[i] = Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookies[i].SameSite = string(*c.SameSite)
		}
	}
	return cookies, nil
}

// ApplyFingerprint overrides timezone and locale through a CDP session
// that stays attached for the page's lifetime.
func (p *playwrightPage) ApplyFingerprint(_ context.Context, fp fingerprint.Fingerprint) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		session, err := p.page.Context().NewCDPSession(p.page)
		if err != nil {
			return fmt.Errorf("failed to open CDP session: %w", err)
		}
		p.session = session
	}
	if fp.Timezone != "" {
		if _, err := p.session.Send("Emulation.setTimezoneOverride", map[string]interface{}{
			"timezoneId": fp.Timezone,
		}); err != nil {
			return fmt.Errorf("timezone override failed: %w", err)
		}
	}
	if fp.Locale != "" {
		if _, err := p.session.Send("Emulation.setLocaleOverride", map[string]interface{}{
			"locale": fp.Locale,
		}); err != nil {
			return fmt.Errorf("locale override failed: %w", err)
		}
	}
	return nil
}

func (p *playwrightPage) Close() error {
	p.mu.Lock()
	if p.session != nil {
		_ = p.session.Detach()
		p.session = nil
	}
	p.mu.Unlock()
	return p.page.Close()
}

// Playwright returns the underlying Playwright page when the session was
// opened with the playwright driver.
func (p *Page) Playwright() (playwright.Page, bool) {
	if h, ok := p.handle.(*playwrightPage); ok {
		return h.page, true
	}
	return nil, false
}
