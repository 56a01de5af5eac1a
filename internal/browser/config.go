package browser

import (
	"log/slog"
	"time"

	"github.com/neboloop/chromectl/internal/fingerprint"
)

// Options configures a Manager. Variation between sessions (ports, extra
// flags, drivers) lives here rather than in separate manager types.
type Options struct {
	// BaseDir holds one directory per profile. Created if missing.
	BaseDir string

	// BrowserPath overrides executable discovery.
	BrowserPath string

	// Executable skips discovery entirely when set.
	Executable *BrowserExecutable

	// Port is the remote debugging port (default 9222).
	Port int

	// Driver names the automation client: "playwright" or "cdp".
	Driver string

	// DriverFactory overrides Driver.
	DriverFactory DriverFactory

	// LaunchDelay is slept after starting the browser (default 3s, negative
	// disables it).
	LaunchDelay time.Duration

	// WaitReady polls the debug endpoint after the delay, up to ReadyTimeout.
	WaitReady    bool
	ReadyTimeout time.Duration

	// NavigateTimeout bounds attach and initial navigation (default 60s).
	NavigateTimeout time.Duration

	ExtraArgs []string
	Env       []string

	ProxyServer string
	Fingerprint *fingerprint.Fingerprint

	// Prompter is used when no executable is found. Nil disables prompting.
	Prompter Prompter

	Logger *slog.Logger
}

// ResolveOptions returns opts with defaults applied.
func ResolveOptions(opts Options) (Options, error) {
	resolved := opts

	if resolved.Port == 0 {
		resolved.Port = DefaultCDPPort
	}
	if resolved.LaunchDelay == 0 {
		resolved.LaunchDelay = DefaultLaunchDelay
	}
	if resolved.ReadyTimeout == 0 {
		resolved.ReadyTimeout = DefaultReadyTimeout
	}
	if resolved.NavigateTimeout == 0 {
		resolved.NavigateTimeout = DefaultNavigateTimeout
	}
	if resolved.Logger == nil {
		resolved.Logger = slog.Default()
	}
	if resolved.DriverFactory == nil {
		factory, err := NewDriverFactory(resolved.Driver)
		if err != nil {
			return Options{}, err
		}
		resolved.DriverFactory = factory
	}
	if resolved.Driver == "" {
		resolved.Driver = DriverPlaywright
	}

	return resolved, nil
}

func (o Options) launchOptions(dir string, port int, url string, headless bool) LaunchOptions {
	lo := LaunchOptions{
		UserDataDir: dir,
		Port:        port,
		Headless:    headless,
		URL:         url,
		ExtraArgs:   o.ExtraArgs,
		Env:         o.Env,
		ProxyServer: o.ProxyServer,
		Fingerprint: o.Fingerprint,
		Delay:       o.LaunchDelay,
	}
	if o.WaitReady {
		lo.ReadyTimeout = o.ReadyTimeout
	}
	return lo
}
