package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neboloop/chromectl/internal/fingerprint"
)

// Driver is the automation client that attaches to a running browser over
// its debug endpoint. One Driver instance serves one session.
type Driver interface {
	// Name identifies the driver in logs.
	Name() string

	// Connect attaches to the browser behind cdpURL (http://127.0.0.1:<port>).
	Connect(ctx context.Context, cdpURL string, timeout time.Duration) (Conn, error)

	// Stop shuts down the client instance itself.
	Stop() error
}

// Conn is the client's handle on one connected browser.
type Conn interface {
	// Pages returns the pages of the first existing browser context.
	Pages() []PageHandle

	// NewPage opens a blank tab in the first browser context.
	NewPage(ctx context.Context) (PageHandle, error)

	// Close releases the browser handle.
	Close() error
}

// PageHandle is a driver-specific tab.
type PageHandle interface {
	// Navigate loads url and waits for the load event, bounded by timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Cookies(ctx context.Context) ([]Cookie, error)
	Close() error
}

// fingerprintApplier is implemented by handles that can emulate a
// timezone and locale per page.
type fingerprintApplier interface {
	ApplyFingerprint(ctx context.Context, fp fingerprint.Fingerprint) error
}

// DriverFactory builds a fresh Driver for a session.
type DriverFactory func(logger *slog.Logger) Driver

// NewDriverFactory returns the factory for a named driver.
func NewDriverFactory(name string) (DriverFactory, error) {
	switch name {
	case "", DriverPlaywright:
		return func(logger *slog.Logger) Driver { return newPlaywrightDriver(logger) }, nil
	case DriverCDP:
		return func(logger *slog.Logger) Driver { return newCDPDriver(logger) }, nil
	default:
		return nil, fmt.Errorf("unknown driver: %s", name)
	}
}
