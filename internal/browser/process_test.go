package browser

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/chromectl/internal/fingerprint"
)

func TestBuildChromeArgs(t *testing.T) {
	exe := &BrowserExecutable{Kind: BrowserChrome, Path: "/usr/bin/google-chrome"}

	args := buildChromeArgs(exe, LaunchOptions{UserDataDir: "/p/test1", Port: 9333})
	assert.Equal(t, []string{
		"--remote-debugging-port=9333",
		"--user-data-dir=/p/test1",
		"--no-first-run",
		"--no-default-browser-check",
	}, args)

	fp := fingerprint.ForCountry("FR")
	args = buildChromeArgs(exe, LaunchOptions{
		UserDataDir: "/p/test1",
		Port:        9333,
		Headless:    true,
		URL:         "https://example.com",
		ExtraArgs:   []string{"--mute-audio"},
		ProxyServer: "http://gw.dataimpulse.com:823",
		Fingerprint: &fp,
	})
	assert.Equal(t, []string{
		"--remote-debugging-port=9333",
		"--user-data-dir=/p/test1",
		"--no-first-run",
		"--no-default-browser-check",
		"--proxy-server=http://gw.dataimpulse.com:823",
		"--lang=fr-FR",
		"--window-size=1920,1080",
		"--mute-audio",
		"--headless=new",
		"https://example.com",
	}, args)
}

func TestBuildChromeArgsBrave(t *testing.T) {
	args := buildChromeArgs(&BrowserExecutable{Kind: BrowserBrave}, LaunchOptions{Port: 1, UserDataDir: "d"})
	assert.Contains(t, args, "--disable-features=BraveShields")
	assert.Contains(t, args, "--brave-ads-service-enabled=0")
}

func TestLaunchPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	_, err = Launch(context.Background(), testExecutable(), fakeLaunchOptions(t, t.TempDir(), port), testLogger(t))

	var portErr *PortInUseError
	require.True(t, errors.As(err, &portErr))
	assert.Equal(t, port, portErr.Port)
	assert.ErrorIs(t, err, ErrPortInUse)
}

func TestLaunchAndKillTree(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process group semantics differ on windows")
	}
	port := freePort(t)
	dir := filepath.Join(t.TempDir(), "test1")

	p, err := Launch(context.Background(), testExecutable(), fakeLaunchOptions(t, dir, port), testLogger(t))
	require.NoError(t, err)
	assert.NotEmpty(t, p.WebSocketURL)
	assert.False(t, IsPortOpen(port))
	assert.True(t, ProcessAlive(p.PID))

	child := readChildPID(t, dir)
	assert.True(t, ProcessAlive(child))

	require.NoError(t, p.Kill())
	require.NoError(t, p.ClosePipes())
	require.NoError(t, p.ClosePipes(), "closing pipes twice is fine")

	assert.True(t, p.Exited())
	assert.True(t, waitDead(p.PID, 5*time.Second))
	assert.True(t, waitDead(child, 5*time.Second), "helper survived the tree kill")
	assert.True(t, IsPortOpen(port))

	assert.NoError(t, p.Kill(), "killing twice is fine")
}

func TestKillAfterExitSignalsNothing(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process group semantics differ on windows")
	}
	opts := fakeLaunchOptions(t, t.TempDir(), freePort(t))
	opts.Env = append(opts.Env, fakeBrowserExitEnv+"=200ms")

	p, err := Launch(context.Background(), testExecutable(), opts, testLogger(t))
	require.NoError(t, err)

	select {
	case <-p.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("fake browser did not exit on its own")
	}

	kills := countKills(t)
	require.NoError(t, p.Kill())
	require.NoError(t, p.Kill())
	assert.Zero(t, kills.Load(), "reaped pid may belong to another process")
	require.NoError(t, p.ClosePipes())
}

func TestLaunchCancelledDuringDelay(t *testing.T) {
	opts := fakeLaunchOptions(t, t.TempDir(), freePort(t))
	opts.Delay = time.Minute
	opts.ReadyTimeout = 0

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := Launch(ctx, testExecutable(), opts, testLogger(t))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProcessAliveInvalid(t *testing.T) {
	assert.False(t, ProcessAlive(0))
	assert.False(t, ProcessAlive(-1))
}

func TestTailBuffer(t *testing.T) {
	b := newTailBuffer(4)
	_, _ = b.Write([]byte("abc"))
	_, _ = b.Write([]byte("def"))
	assert.Equal(t, "cdef", b.String())
}
