package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle stage of a Manager.
type State int

const (
	StateUninitialized State = iota
	StateLaunched
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLaunched:
		return "launched"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SessionOptions selects what one session launches and opens.
type SessionOptions struct {
	Profile  string
	URL      string
	Headless bool

	// Port overrides Options.Port for this session.
	Port int

	// Timeout bounds attach and navigation. Zero uses Options.NavigateTimeout.
	Timeout time.Duration
}

// SetupOptions configures an interactive profile setup run.
type SetupOptions struct {
	URL         string
	Headless    bool
	WaitMessage string
}

// Manager owns one browser process and one automation connection.
// A Manager runs a single session: once closed it cannot launch again.
type Manager struct {
	mu sync.Mutex

	id     string
	opts   Options
	exe    *BrowserExecutable
	store  *ProfileStore
	logger *slog.Logger

	state   State
	profile string
	port    int
	lock    *os.File
	process *Process
	driver  Driver
	conn    Conn
	page    *Page
	pages   []*Page
}

// NewManager resolves the browser executable once and prepares the profile
// base directory.
func NewManager(opts Options) (*Manager, error) {
	resolved, err := ResolveOptions(opts)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	logger := resolved.Logger.With("component", "browser", "session", id[:8])

	exe := resolved.Executable
	if exe == nil {
		exe, err = NewLocator(resolved.Prompter, logger).Find(resolved.BrowserPath)
		if err != nil {
			return nil, err
		}
	}

	store, err := NewProfileStore(resolved.BaseDir)
	if err != nil {
		return nil, err
	}

	return &Manager{
		id:     id,
		opts:   resolved,
		exe:    exe,
		store:  store,
		logger: logger,
		port:   resolved.Port,
	}, nil
}

// ID returns the session id.
func (m *Manager) ID() string { return m.id }

// Executable returns the browser resolved at construction.
func (m *Manager) Executable() *BrowserExecutable { return m.exe }

// Profiles returns the manager's profile store.
func (m *Manager) Profiles() *ProfileStore { return m.store }

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Port returns the debug port of the session.
func (m *Manager) Port() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port
}

// PID returns the browser process id, or 0 if none was launched.
func (m *Manager) PID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.process == nil {
		return 0
	}
	return m.process.PID
}

// Process returns the launched browser process, if any.
func (m *Manager) Process() *Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.process
}

// Connect launches the named profile and attaches to it. The profile
// directory must already exist.
func (m *Manager) Connect(ctx context.Context, opts SessionOptions) (*Page, error) {
	if _, err := m.store.Require(opts.Profile); err != nil {
		return nil, err
	}
	if _, err := m.Launch(ctx, SessionOptions{
		Profile:  opts.Profile,
		Headless: opts.Headless,
		Port:     opts.Port,
	}); err != nil {
		return nil, err
	}
	return m.Attach(ctx, opts.URL, opts.Timeout)
}

// Launch starts the browser on the profile directory, creating it on first
// use. A busy port yields *PortInUseError and leaves the manager
// uninitialized so another port can be tried.
func (m *Manager) Launch(ctx context.Context, opts SessionOptions) (*Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.launchLocked(ctx, opts)
}

func (m *Manager) launchLocked(ctx context.Context, opts SessionOptions) (*Process, error) {
	if m.state != StateUninitialized {
		return nil, fmt.Errorf("%w: launch in state %s", ErrInvalidState, m.state)
	}

	dir, err := m.store.Path(opts.Profile)
	if err != nil {
		return nil, err
	}
	port := m.opts.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	lock, err := acquireProfileLock(m.store.lockPath(opts.Profile))
	if err != nil {
		return nil, err
	}
	if err := EnsureCleanExit(dir); err != nil {
		m.logger.Warn("could not reset exit state", "profile", opts.Profile, "error", err)
	}

	lo := m.opts.launchOptions(dir, port, opts.URL, opts.Headless)
	process, err := Launch(ctx, m.exe, lo, m.logger)
	if err != nil {
		_ = releaseProfileLock(lock)
		return nil, err
	}

	m.lock = lock
	m.process = process
	m.profile = opts.Profile
	m.port = port
	m.state = StateLaunched
	m.logger.Info("session launched", "profile", opts.Profile, "port", port, "pid", process.PID)
	return process, nil
}

// Attach connects the automation client to the launched browser. The first
// existing page is reused, otherwise a blank one is opened. When url is set
// the page navigates to it and waits for load. Any failure tears the whole
// session down and is returned as *ConnectError.
func (m *Manager) Attach(ctx context.Context, url string, timeout time.Duration) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateLaunched {
		return nil, fmt.Errorf("%w: attach in state %s", ErrInvalidState, m.state)
	}
	if timeout == 0 {
		timeout = m.opts.NavigateTimeout
	}

	page, err := m.attachLocked(ctx, url, timeout)
	if err != nil {
		m.logger.Error("attach failed, tearing down", "port", m.port, "error", err, "stderr", m.process.StderrTail())
		m.teardownLocked()
		return nil, &ConnectError{Port: m.port, Err: err}
	}

	m.state = StateConnected
	m.logger.Info("session connected", "profile", m.profile, "port", m.port, "pid", m.process.PID, "driver", m.driver.Name())
	return page, nil
}

func (m *Manager) attachLocked(ctx context.Context, url string, timeout time.Duration) (*Page, error) {
	m.driver = m.opts.DriverFactory(m.logger)

	conn, err := m.driver.Connect(ctx, DebugURL(m.port), timeout)
	if err != nil {
		return nil, err
	}
	m.conn = conn

	var handle PageHandle
	if existing := conn.Pages(); len(existing) > 0 {
		handle = existing[0]
	} else {
		handle, err = conn.NewPage(ctx)
		if err != nil {
			return nil, err
		}
	}

	page := m.trackPage(ctx, handle)
	m.page = page

	if url != "" {
		if _, err := page.Navigate(ctx, NavigateOptions{URL: url, Timeout: timeout}); err != nil {
			return nil, err
		}
	}
	return page, nil
}

func (m *Manager) trackPage(ctx context.Context, handle PageHandle) *Page {
	page := newPage(handle)
	if fp := m.opts.Fingerprint; fp != nil {
		if applier, ok := handle.(fingerprintApplier); ok {
			if err := applier.ApplyFingerprint(ctx, *fp); err != nil {
				m.logger.Warn("fingerprint emulation failed", "page", page.ID(), "error", err)
			}
		}
	}
	m.pages = append(m.pages, page)
	return page
}

// Page returns the session's primary page.
func (m *Manager) Page() *Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page
}

// NewPage opens another tab on the session's connection.
func (m *Manager) NewPage(ctx context.Context) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnected {
		return nil, fmt.Errorf("%w: new page in state %s", ErrInvalidState, m.state)
	}
	handle, err := m.conn.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	return m.trackPage(ctx, handle), nil
}

// Pages returns the open pages tracked by the session.
func (m *Manager) Pages() []*Page {
	m.mu.Lock()
	defer m.mu.Unlock()

	pages := make([]*Page, 0, len(m.pages))
	for _, p := range m.pages {
		if !p.Closed() {
			pages = append(pages, p)
		}
	}
	return pages
}

// SetupProfile launches the browser on a fresh or existing profile so a
// person can log in or configure it, waits until the browser exits or ctx
// is done, then tears the session down.
func (m *Manager) SetupProfile(ctx context.Context, name string, opts SetupOptions) error {
	m.mu.Lock()
	process, err := m.launchLocked(ctx, SessionOptions{
		Profile:  name,
		URL:      opts.URL,
		Headless: opts.Headless,
	})
	m.mu.Unlock()
	if err != nil {
		return err
	}
	defer m.Close()

	msg := opts.WaitMessage
	if msg == "" {
		msg = DefaultSetupMessage
	}
	if m.opts.Prompter != nil {
		m.opts.Prompter.Say(msg)
	} else {
		m.logger.Info(msg, "profile", name)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go func() {
		if err := m.store.WaitInitialized(watchCtx, name); err == nil {
			m.logger.Info("profile initialized", "profile", name)
		}
	}()

	if err := process.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	m.logger.Info("profile setup finished", "profile", name)
	return nil
}

// Close tears the session down: pages, browser handle, client, process
// tree, pipes. Each step runs even if an earlier one failed; failures are
// logged. Close may be called any number of times and from any state.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

func (m *Manager) teardownLocked() {
	for i := len(m.pages) - 1; i >= 0; i-- {
		p := m.pages[i]
		m.step("close page", func() error { return p.Close() })
	}
	m.pages = nil
	m.page = nil

	if conn := m.conn; conn != nil {
		m.step("close browser handle", conn.Close)
		m.conn = nil
	}
	if driver := m.driver; driver != nil {
		m.step("stop client", driver.Stop)
		m.driver = nil
	}
	if process := m.process; process != nil {
		m.step("kill process tree", process.Kill)
		m.step("close pipes", process.ClosePipes)
	}
	if lock := m.lock; lock != nil {
		m.step("release profile lock", func() error { return releaseProfileLock(lock) })
		m.lock = nil
	}

	if m.state != StateClosed {
		m.logger.Info("session closed", "profile", m.profile, "port", m.port)
	}
	m.state = StateClosed
}

func (m *Manager) step(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("teardown step panicked", "step", name, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		m.logger.Warn("teardown step failed", "step", name, "error", err)
	}
}
