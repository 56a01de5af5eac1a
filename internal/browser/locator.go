package browser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// BrowserKind identifies the type of Chromium-based browser.
type BrowserKind string

const (
	BrowserBrave    BrowserKind = "brave"
	BrowserComet    BrowserKind = "comet"
	BrowserEdge     BrowserKind = "edge"
	BrowserChrome   BrowserKind = "chrome"
	BrowserChromium BrowserKind = "chromium"
	BrowserCustom   BrowserKind = "custom"
)

// BrowserExecutable represents a found browser binary.
type BrowserExecutable struct {
	Kind BrowserKind
	Path string
}

// Candidate is one entry of the per-OS install path list.
type Candidate struct {
	Kind BrowserKind
	Path string
}

// knownBrowserNames are matched against the file name of a user supplied path.
var knownBrowserNames = []string{"brave", "comet", "msedge", "chrome", "chromium"}

// Locator resolves the browser executable. Candidates are scanned in
// priority order Brave > Comet > Edge > Chrome > Chromium; when none exist
// the Prompter, if any, is asked for a path.
type Locator struct {
	GOOS     string
	Home     string
	Exists   func(path string) bool
	Prompter Prompter
	Logger   *slog.Logger
}

// NewLocator returns a Locator for the running platform.
func NewLocator(prompter Prompter, logger *slog.Logger) *Locator {
	home, _ := os.UserHomeDir()
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{
		GOOS:     runtime.GOOS,
		Home:     home,
		Exists:   fileExists,
		Prompter: prompter,
		Logger:   logger.With("component", "locator"),
	}
}

// Find returns explicitPath when set, otherwise the first existing
// candidate, otherwise whatever the user enters at the prompt.
func (l *Locator) Find(explicitPath string) (*BrowserExecutable, error) {
	if explicitPath != "" {
		if !l.Exists(explicitPath) {
			return nil, fmt.Errorf("%w: %s", ErrExecutableNotFound, explicitPath)
		}
		return &BrowserExecutable{Kind: KindFromPath(explicitPath), Path: explicitPath}, nil
	}

	for _, c := range l.Candidates() {
		if l.Exists(c.Path) {
			l.Logger.Info("browser selected", "kind", c.Kind, "path", c.Path)
			return &BrowserExecutable{Kind: c.Kind, Path: c.Path}, nil
		}
		l.Logger.Debug("browser candidate not found", "path", c.Path)
	}

	if l.Prompter == nil {
		return nil, fmt.Errorf("%w: no supported browser in standard locations", ErrExecutableNotFound)
	}
	return l.prompt()
}

// Candidates returns the install locations for l.GOOS in priority order.
func (l *Locator) Candidates() []Candidate {
	return candidatePaths(l.GOOS, l.Home)
}

func candidatePaths(goos, home string) []Candidate {
	switch goos {
	case "darwin":
		app := func(kind BrowserKind, bundle string) []Candidate {
			exe := bundle + ".app/Contents/MacOS/" + bundle
			return []Candidate{
				{kind, "/Applications/" + exe},
				{kind, home + "/Applications/" + exe},
			}
		}
		var out []Candidate
		out = append(out, app(BrowserBrave, "Brave Browser")...)
		out = append(out, app(BrowserComet, "Comet Browser")...)
		out = append(out, app(BrowserEdge, "Microsoft Edge")...)
		out = append(out, app(BrowserChrome, "Google Chrome")...)
		out = append(out, app(BrowserChromium, "Chromium")...)
		return out

	case "windows":
		win := func(parts ...string) string { return strings.Join(parts, `\`) }
		pf, pf86 := `C:\Program Files`, `C:\Program Files (x86)`
		local := win(home, "AppData", "Local")
		return []Candidate{
			{BrowserBrave, win(pf, "BraveSoftware", "Brave-Browser", "Application", "brave.exe")},
			{BrowserBrave, win(pf86, "BraveSoftware", "Brave-Browser", "Application", "brave.exe")},
			{BrowserBrave, win(local, "BraveSoftware", "Brave-Browser", "Application", "brave.exe")},
			{BrowserComet, win(pf, "CometBrowser", "Application", "comet.exe")},
			{BrowserComet, win(pf86, "CometBrowser", "Application", "comet.exe")},
			{BrowserComet, win(local, "CometBrowser", "Application", "comet.exe")},
			{BrowserEdge, win(pf, "Microsoft", "Edge", "Application", "msedge.exe")},
			{BrowserEdge, win(pf86, "Microsoft", "Edge", "Application", "msedge.exe")},
			{BrowserEdge, win(local, "Microsoft", "Edge", "Application", "msedge.exe")},
			{BrowserChrome, win(pf, "Google", "Chrome", "Application", "chrome.exe")},
			{BrowserChrome, win(pf86, "Google", "Chrome", "Application", "chrome.exe")},
			{BrowserChrome, win(local, "Google", "Chrome", "Application", "chrome.exe")},
			{BrowserChrome, win(pf, "Google", "Chrome Beta", "Application", "chrome.exe")},
			{BrowserChrome, win(pf, "Google", "Chrome Canary", "Application", "chrome.exe")},
			{BrowserChromium, win(pf, "Chromium", "Application", "chromium.exe")},
			{BrowserChromium, win(pf86, "Chromium", "Application", "chromium.exe")},
			{BrowserChromium, win(local, "Chromium", "Application", "chromium.exe")},
		}

	case "linux":
		return []Candidate{
			{BrowserBrave, "/usr/bin/brave-browser"},
			{BrowserBrave, "/usr/bin/brave"},
			{BrowserBrave, "/usr/local/bin/brave-browser"},
			{BrowserBrave, "/usr/local/bin/brave"},
			{BrowserBrave, home + "/.local/bin/brave-browser"},
			{BrowserComet, "/usr/bin/comet-browser"},
			{BrowserComet, "/usr/bin/comet"},
			{BrowserComet, "/usr/local/bin/comet-browser"},
			{BrowserComet, "/usr/local/bin/comet"},
			{BrowserComet, home + "/.local/bin/comet-browser"},
			{BrowserEdge, "/usr/bin/microsoft-edge"},
			{BrowserEdge, "/usr/bin/microsoft-edge-stable"},
			{BrowserEdge, "/usr/local/bin/microsoft-edge"},
			{BrowserChrome, "/usr/bin/google-chrome"},
			{BrowserChrome, "/usr/bin/google-chrome-stable"},
			{BrowserChrome, "/usr/local/bin/google-chrome"},
			{BrowserChromium, "/usr/bin/chromium"},
			{BrowserChromium, "/usr/bin/chromium-browser"},
			{BrowserChromium, "/usr/local/bin/chromium"},
			{BrowserChromium, home + "/.local/bin/chromium"},
		}
	}
	return nil
}

// KindFromPath guesses the browser kind from an executable's file name.
func KindFromPath(path string) BrowserKind {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(name, "brave"):
		return BrowserBrave
	case strings.Contains(name, "comet"):
		return BrowserComet
	case strings.Contains(name, "msedge"), strings.Contains(name, "microsoft edge"), strings.Contains(name, "microsoft-edge"):
		return BrowserEdge
	case strings.Contains(name, "chromium"):
		return BrowserChromium
	case strings.Contains(name, "chrome"):
		return BrowserChrome
	}
	return BrowserCustom
}

// looksLikeBrowser reports whether the file name matches a known browser.
func looksLikeBrowser(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, known := range knownBrowserNames {
		if strings.Contains(name, known) {
			return true
		}
	}
	return false
}

func (l *Locator) examplePath() string {
	switch l.GOOS {
	case "darwin":
		return "/Applications/Brave Browser.app/Contents/MacOS/Brave Browser"
	case "windows":
		return `C:\Program Files\BraveSoftware\Brave-Browser\Application\brave.exe`
	default:
		return "/usr/bin/brave-browser"
	}
}

func (l *Locator) prompt() (*BrowserExecutable, error) {
	p := l.Prompter
	p.Say("No supported browser found in standard locations.")
	p.Say("Please paste the full path to the executable, for example: " + l.examplePath())

	for {
		answer, err := p.Ask("BROWSER PATH: ")
		if err != nil {
			p.Say("Cancelled by user.")
			return nil, fmt.Errorf("%w: prompt cancelled", ErrExecutableNotFound)
		}

		userPath := strings.Trim(strings.TrimSpace(answer), `"'`)
		if userPath == "" {
			p.Say("Empty input, try again.")
			continue
		}

		if l.Exists(userPath) {
			if looksLikeBrowser(userPath) {
				l.Logger.Info("browser path accepted", "path", userPath)
				return &BrowserExecutable{Kind: KindFromPath(userPath), Path: userPath}, nil
			}
			p.Say("File name does not look like a supported browser.")
		} else {
			p.Say("File not found: " + userPath)
		}

		if !Confirm(p, "Try another path? (y/n): ") {
			p.Say("No path provided.")
			return nil, fmt.Errorf("%w: no path provided", ErrExecutableNotFound)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
