package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Page wraps a driver page with state tracking.
type Page struct {
	mu sync.RWMutex

	id     string
	handle PageHandle
	state  PageState
	closed bool
}

// PageState is the last known URL and title of a page.
type PageState struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ActionResult is the result of a page action.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
}

// NavigateOptions configures navigation.
type NavigateOptions struct {
	URL     string
	Timeout time.Duration
}

// Cookie represents a browser cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"` // "Strict", "Lax", "None"
}

func newPage(handle PageHandle) *Page {
	return &Page{
		id:     fmt.Sprintf("page-%s", uuid.New().String()[:8]),
		handle: handle,
	}
}

// ID returns the page's stable identifier.
func (p *Page) ID() string {
	return p.id
}

// Handle returns the driver page.
func (p *Page) Handle() PageHandle {
	return p.handle
}

// Navigate navigates to a URL and waits for the load-complete signal.
// A timeout is returned to the caller as a navigation failure.
func (p *Page) Navigate(ctx context.Context, opts NavigateOptions) (*ActionResult, error) {
	if p.isClosed() {
		return nil, ErrSessionClosed
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultNavigateTimeout
	}

	if err := p.handle.Navigate(ctx, opts.URL, timeout); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	_ = p.UpdateState(ctx)
	state := p.State()

	return &ActionResult{
		Success: true,
		Message: fmt.Sprintf("Navigated to %s", opts.URL),
		URL:     state.URL,
		Title:   state.Title,
	}, nil
}

// Title returns the current document title.
func (p *Page) Title(ctx context.Context) (string, error) {
	if p.isClosed() {
		return "", ErrSessionClosed
	}
	return p.handle.Title(ctx)
}

// Cookies returns the cookies visible to the page's browser context.
func (p *Page) Cookies(ctx context.Context) ([]Cookie, error) {
	if p.isClosed() {
		return nil, ErrSessionClosed
	}
	cookies, err := p.handle.Cookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("get cookies failed: %w", err)
	}
	return cookies, nil
}

// State returns the last recorded page state.
func (p *Page) State() PageState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// UpdateState refreshes URL and title from the live page.
func (p *Page) UpdateState(ctx context.Context) error {
	if p.isClosed() {
		return ErrSessionClosed
	}
	url, err := p.handle.URL(ctx)
	if err != nil {
		return err
	}
	title, _ := p.handle.Title(ctx)

	p.mu.Lock()
	p.state = PageState{URL: url, Title: title}
	p.mu.Unlock()
	return nil
}

// Close closes the tab. Closing twice is a no-op.
func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	return p.handle.Close()
}

// Closed reports whether Close has been called.
func (p *Page) Closed() bool {
	return p.isClosed()
}

func (p *Page) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}
