package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/neboloop/chromectl/internal/fingerprint"
)

// LaunchOptions configures one browser process.
type LaunchOptions struct {
	UserDataDir string
	Port        int
	Headless    bool
	URL         string   // optional initial URL argument
	ExtraArgs   []string // appended after the built-in flags
	Env         []string // appended to the inherited environment

	// ProxyServer becomes --proxy-server. Credentials are not injected.
	ProxyServer string

	// Fingerprint, when set, adds --lang and --window-size and exports TZ.
	Fingerprint *fingerprint.Fingerprint

	// Delay is slept after start so the debug listener can come up.
	Delay time.Duration

	// ReadyTimeout > 0 additionally polls the debug endpoint until it
	// accepts a websocket handshake.
	ReadyTimeout time.Duration
}

// Process is a running browser launched by this package.
type Process struct {
	PID         int
	Executable  *BrowserExecutable
	UserDataDir string
	CDPPort     int
	StartedAt   time.Time

	// WebSocketURL is set when readiness polling ran.
	WebSocketURL string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer
	done   chan struct{}

	mu      sync.Mutex
	waitErr error
}

// Launch starts exe with the profile directory and debug flags. The port is
// probed first; a busy port yields *PortInUseError and nothing is started.
func Launch(ctx context.Context, exe *BrowserExecutable, opts LaunchOptions, logger *slog.Logger) (*Process, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !IsPortOpen(opts.Port) {
		return nil, &PortInUseError{Port: opts.Port}
	}

	args := buildChromeArgs(exe, opts)
	cmd := exec.Command(exe.Path, args...)
	cmd.Env = append(os.Environ(), opts.Env...)
	if fp := opts.Fingerprint; fp != nil && fp.Timezone != "" {
		cmd.Env = append(cmd.Env, "TZ="+fp.Timezone)
	}
	setChromeProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open browser stdin: %w", err)
	}
	stderr := newTailBuffer(4096)
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	cmd.WaitDelay = processWaitDelay

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	p := &Process{
		PID:         cmd.Process.Pid,
		Executable:  exe,
		UserDataDir: opts.UserDataDir,
		CDPPort:     opts.Port,
		StartedAt:   time.Now(),
		cmd:         cmd,
		stdin:       stdin,
		stderr:      stderr,
		done:        make(chan struct{}),
	}
	go p.reap()

	logger.Info("browser started", "pid", p.PID, "port", opts.Port, "profile_dir", opts.UserDataDir, "kind", exe.Kind)

	if opts.Delay > 0 {
		select {
		case <-time.After(opts.Delay):
		case <-ctx.Done():
			p.Kill()
			p.ClosePipes()
			return nil, ctx.Err()
		}
	}

	if opts.ReadyTimeout > 0 {
		readyCtx, cancel := context.WithTimeout(ctx, opts.ReadyTimeout)
		wsURL, err := WaitDebuggerReady(readyCtx, opts.Port)
		cancel()
		if err != nil {
			p.Kill()
			p.ClosePipes()
			return nil, err
		}
		p.WebSocketURL = wsURL
	}

	return p, nil
}

func buildChromeArgs(exe *BrowserExecutable, opts LaunchOptions) []string {
	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", opts.Port),
		fmt.Sprintf("--user-data-dir=%s", opts.UserDataDir),
		"--no-first-run",
		"--no-default-browser-check",
	}

	if exe != nil && exe.Kind == BrowserBrave {
		args = append(args, "--disable-features=BraveShields", "--brave-ads-service-enabled=0")
	}

	if opts.ProxyServer != "" {
		args = append(args, "--proxy-server="+opts.ProxyServer)
	}

	if fp := opts.Fingerprint; fp != nil {
		if fp.Locale != "" {
			args = append(args, "--lang="+fp.Locale)
		}
		if fp.Screen.Width > 0 && fp.Screen.Height > 0 {
			args = append(args, fmt.Sprintf("--window-size=%d,%d", fp.Screen.Width, fp.Screen.Height))
		}
	}

	args = append(args, opts.ExtraArgs...)

	if opts.Headless {
		args = append(args, "--headless=new")
	}

	if opts.URL != "" {
		args = append(args, opts.URL)
	}
	return args
}

func (p *Process) reap() {
	err := p.cmd.Wait()
	p.mu.Lock()
	p.waitErr = err
	p.mu.Unlock()
	close(p.done)
}

// Done is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits or ctx is done.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.waitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exited reports whether the process has been reaped.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// killTree is swapped in tests to observe signalling.
var killTree = killProcessTree

// Kill force-terminates the process and all of its descendants, then waits
// briefly for the leader to be reaped. Safe to call more than once. Once
// the leader has been reaped nothing is signalled, since its pid and
// group id may already belong to another process.
func (p *Process) Kill() error {
	if p.Exited() {
		return nil
	}
	err := killTree(p.cmd)

	select {
	case <-p.done:
	case <-time.After(processWaitDelay + time.Second):
		return fmt.Errorf("browser process %d did not exit after kill", p.PID)
	}
	return err
}

// ClosePipes closes the stdin pipe. Stdout and stderr copies are closed
// by the reaper once the process is gone.
func (p *Process) ClosePipes() error {
	if p.stdin == nil {
		return nil
	}
	err := p.stdin.Close()
	if err != nil && strings.Contains(err.Error(), "file already closed") {
		return nil
	}
	return err
}

// StderrTail returns the last bytes the browser wrote to stderr.
func (p *Process) StderrTail() string {
	return p.stderr.String()
}

// ProcessAlive reports whether pid names a live, non-zombie process.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return processAlive(pid)
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, b...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(b), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
