package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neboloop/chromectl/internal/fingerprint"
)

// callLog records driver calls in order across all fakes of a session.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeDriver struct {
	log *callLog

	existingPages int
	connectErr    error
	navigateErr   error
	navigateDelay time.Duration
	closeErr      error

	// onStop runs inside Stop, before the process is killed.
	onStop func()

	mu          sync.Mutex
	fingerprint *fingerprint.Fingerprint
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{log: &callLog{}, existingPages: 1}
}

func (d *fakeDriver) factory() DriverFactory {
	return func(*slog.Logger) Driver { return d }
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Connect(ctx context.Context, cdpURL string, timeout time.Duration) (Conn, error) {
	d.log.add("connect")
	if d.connectErr != nil {
		return nil, d.connectErr
	}
	if !IsChromeReachable(cdpURL, timeout) {
		return nil, fmt.Errorf("nothing listening at %s", cdpURL)
	}
	conn := &fakeConn{driver: d}
	for i := 0; i < d.existingPages; i++ {
		conn.pages = append(conn.pages, &fakePage{driver: d, url: "about:blank"})
	}
	return conn, nil
}

func (d *fakeDriver) Stop() error {
	d.log.add("stop client")
	if d.onStop != nil {
		d.onStop()
	}
	return nil
}

type fakeConn struct {
	driver *fakeDriver
	pages  []*fakePage
}

func (c *fakeConn) Pages() []PageHandle {
	handles := make([]PageHandle, len(c.pages))
	for i, p := range c.pages {
		handles[i] = p
	}
	return handles
}

func (c *fakeConn) NewPage(ctx context.Context) (PageHandle, error) {
	c.driver.log.add("new page")
	p := &fakePage{driver: c.driver, url: "about:blank"}
	c.pages = append(c.pages, p)
	return p, nil
}

func (c *fakeConn) Close() error {
	c.driver.log.add("close browser")
	return c.driver.closeErr
}

type fakePage struct {
	driver *fakeDriver

	mu  sync.Mutex
	url string
}

func (p *fakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.driver.log.add("navigate %s", url)
	if d := p.driver.navigateDelay; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if p.driver.navigateErr != nil {
		return p.driver.navigateErr
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

func (p *fakePage) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) Title(ctx context.Context) (string, error) {
	return "Fake Page", nil
}

func (p *fakePage) Cookies(ctx context.Context) ([]Cookie, error) {
	return []Cookie{{Name: "sid", Value: "1", Domain: "example.com", Path: "/"}}, nil
}

func (p *fakePage) Close() error {
	p.driver.log.add("close page")
	return nil
}

func (p *fakePage) ApplyFingerprint(ctx context.Context, fp fingerprint.Fingerprint) error {
	p.driver.mu.Lock()
	defer p.driver.mu.Unlock()
	p.driver.fingerprint = &fp
	return nil
}

var errFakeNavigation = errors.New("navigation timeout")
