package browser

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLocator(goos string, existing ...string) *Locator {
	set := make(map[string]bool)
	for _, p := range existing {
		set[p] = true
	}
	return &Locator{
		GOOS:   goos,
		Home:   "/home/u",
		Exists: func(p string) bool { return set[p] },
		Logger: discardLogger(),
	}
}

func TestFindPriority(t *testing.T) {
	for _, goos := range []string{"linux", "darwin", "windows"} {
		t.Run(goos, func(t *testing.T) {
			candidates := candidatePaths(goos, "/home/u")
			require.NotEmpty(t, candidates)

			// Every suffix of the list: the first entry must win over all
			// lower priority ones.
			for i := range candidates {
				var paths []string
				for _, c := range candidates[i:] {
					paths = append(paths, c.Path)
				}
				exe, err := testLocator(goos, paths...).Find("")
				require.NoError(t, err)
				assert.Equal(t, candidates[i].Path, exe.Path)
				assert.Equal(t, candidates[i].Kind, exe.Kind)
			}
		})
	}
}

func TestCandidateKindOrder(t *testing.T) {
	rank := map[BrowserKind]int{
		BrowserBrave: 0, BrowserComet: 1, BrowserEdge: 2, BrowserChrome: 3, BrowserChromium: 4,
	}
	for _, goos := range []string{"linux", "darwin", "windows"} {
		last := 0
		for _, c := range candidatePaths(goos, "/home/u") {
			r, ok := rank[c.Kind]
			require.True(t, ok)
			assert.GreaterOrEqual(t, r, last, "%s: %s out of order", goos, c.Path)
			last = r
		}
		assert.Equal(t, 4, last, "%s has no chromium fallback", goos)
	}
}

func TestFindLowerPriorityOnlyWhenAlone(t *testing.T) {
	l := testLocator("linux", "/usr/bin/chromium", "/usr/bin/google-chrome")
	exe, err := l.Find("")
	require.NoError(t, err)
	assert.Equal(t, BrowserChrome, exe.Kind)
}

func TestFindExplicitPath(t *testing.T) {
	l := testLocator("linux", "/opt/brave/brave", "/usr/bin/google-chrome")

	exe, err := l.Find("/opt/brave/brave")
	require.NoError(t, err)
	assert.Equal(t, BrowserExecutable{Kind: BrowserBrave, Path: "/opt/brave/brave"}, *exe)

	_, err = l.Find("/missing/chrome")
	assert.ErrorIs(t, err, ErrExecutableNotFound)
}

func TestFindNoPrompter(t *testing.T) {
	_, err := testLocator("linux").Find("")
	assert.ErrorIs(t, err, ErrExecutableNotFound)
}

type scriptedPrompter struct {
	answers []string
	said    []string
	asked   []string
}

func (p *scriptedPrompter) Ask(question string) (string, error) {
	p.asked = append(p.asked, question)
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedPrompter) Say(msg string) { p.said = append(p.said, msg) }

func TestPromptAcceptsKnownBrowser(t *testing.T) {
	l := testLocator("linux", "/opt/thorium/chromium-bin")
	p := &scriptedPrompter{answers: []string{"", `"/opt/thorium/chromium-bin"`}}
	l.Prompter = p

	exe, err := l.Find("")
	require.NoError(t, err)
	assert.Equal(t, "/opt/thorium/chromium-bin", exe.Path)
	assert.Equal(t, BrowserChromium, exe.Kind)
	assert.Contains(t, p.said, "Empty input, try again.")
}

func TestPromptRetriesOnMismatch(t *testing.T) {
	l := testLocator("linux", "/usr/bin/firefox", "/opt/edge/msedge")
	p := &scriptedPrompter{answers: []string{"/usr/bin/firefox", "y", "/nope", "yes", "/opt/edge/msedge"}}
	l.Prompter = p

	exe, err := l.Find("")
	require.NoError(t, err)
	assert.Equal(t, BrowserEdge, exe.Kind)
	assert.Contains(t, p.said, "File name does not look like a supported browser.")
	assert.Contains(t, p.said, "File not found: /nope")
}

func TestPromptDeclineRetry(t *testing.T) {
	l := testLocator("linux")
	l.Prompter = &scriptedPrompter{answers: []string{"/nope", "n"}}

	_, err := l.Find("")
	assert.ErrorIs(t, err, ErrExecutableNotFound)
}

func TestPromptCancelled(t *testing.T) {
	l := testLocator("linux")
	l.Prompter = &scriptedPrompter{}

	_, err := l.Find("")
	assert.True(t, errors.Is(err, ErrExecutableNotFound))
}

func TestTerminalPrompter(t *testing.T) {
	var out strings.Builder
	p := NewTerminalPrompter(strings.NewReader("/usr/bin/brave\r\nY\n"), &out)

	answer, err := p.Ask("BROWSER PATH: ")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/brave", answer)
	assert.True(t, Confirm(p, "Try another path? (y/n): "))
	assert.False(t, Confirm(p, "again? "), "EOF is a no")
	assert.Contains(t, out.String(), "BROWSER PATH: ")
}

func TestKindFromPath(t *testing.T) {
	tests := map[string]BrowserKind{
		"/usr/bin/brave-browser": BrowserBrave,
		`C:\Program Files\CometBrowser\Application\comet.exe`: BrowserComet,
		"/usr/bin/microsoft-edge":                              BrowserEdge,
		"/usr/bin/google-chrome":                               BrowserChrome,
		"/usr/bin/chromium-browser":                            BrowserChromium,
		"/tmp/browser.test":                                    BrowserCustom,
	}
	for path, want := range tests {
		assert.Equal(t, want, KindFromPath(path), path)
	}
}
