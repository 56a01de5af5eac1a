package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zkr "github.com/zalando/go-keyring"

	"github.com/neboloop/chromectl/internal/browser"
	"github.com/neboloop/chromectl/internal/config"
	"github.com/neboloop/chromectl/internal/defaults"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := config.DefaultConfig()
	c.DataDir = t.TempDir()
	c.ProfileDir = filepath.Join(t.TempDir(), "profiles")
	c.Fingerprint.LookupURL = "off"
	c.Log.Level = "error"
	return c
}

func execute(t *testing.T, c *config.Config, args ...string) (string, error) {
	t.Helper()
	root := SetupRootCmd(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestProbe(t *testing.T) {
	c := testConfig(t)

	port := freePort(t)
	out, err := execute(t, c, "probe", strconv.Itoa(port))
	require.NoError(t, err)
	assert.Contains(t, out, "is free")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	busy := ln.Addr().(*net.TCPAddr).Port

	out, err = execute(t, c, "probe", strconv.Itoa(busy))
	assert.ErrorIs(t, err, browser.ErrPortInUse)
	assert.Contains(t, out, "is in use")

	_, err = execute(t, c, "probe", "notaport")
	assert.Error(t, err)
}

func TestProfilesCommands(t *testing.T) {
	c := testConfig(t)

	out, err := execute(t, c, "profiles", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No profiles")

	out, err = execute(t, c, "profiles", "create", "work")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(c.ProfileDir, "work"))

	out, err = execute(t, c, "profiles", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "work (new)")

	out, err = execute(t, c, "profiles", "path", "work")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.ProfileDir, "work")+"\n", out)

	_, err = execute(t, c, "profiles", "path", "../x")
	assert.ErrorIs(t, err, browser.ErrInvalidProfileName)
}

func TestGlobalFlagsOverrideConfig(t *testing.T) {
	c := testConfig(t)
	dir := filepath.Join(t.TempDir(), "other")

	_, err := execute(t, c, "--profile-dir", dir, "--port", "9333", "--driver", "cdp", "profiles", "list")
	require.NoError(t, err)
	assert.Equal(t, dir, AppConfig.ProfileDir)
	assert.Equal(t, 9333, AppConfig.DebugPort)
	assert.Equal(t, "cdp", AppConfig.Driver)

	_, err = execute(t, testConfig(t), "--driver", "selenium", "profiles", "list")
	assert.Error(t, err)
}

func TestFingerprintCommand(t *testing.T) {
	c := testConfig(t)

	out, err := execute(t, c, "fingerprint", "user__cr.de")
	require.NoError(t, err)
	assert.Contains(t, out, "country:  DE (username)")
	assert.Contains(t, out, "Europe/Berlin")

	out, err = execute(t, c, "fingerprint", "plainuser")
	require.NoError(t, err)
	assert.Contains(t, out, "country:  US (default)")

	out, err = execute(t, c, "fingerprint", "--json", "http://user__cr.jp:pw@10.0.0.1:8080")
	require.NoError(t, err)
	assert.Contains(t, out, `"country": "JP"`)

	out, err = execute(t, c, "fingerprint", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "BR  America/Sao_Paulo")
}

func TestManagerOptions(t *testing.T) {
	c := testConfig(t)
	c.DebugPort = 9444
	c.Driver = "cdp"
	c.ExtraArgs = []string{"--mute-audio"}
	c.Proxy.Server = "gw.example.com:823"
	c.Proxy.Username = "acct__cr.fr"

	opts, err := managerOptions(context.Background(), c, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, c.ProfileDir, opts.BaseDir)
	assert.Equal(t, 9444, opts.Port)
	assert.Equal(t, "cdp", opts.Driver)
	assert.Equal(t, "http://gw.example.com:823", opts.ProxyServer)
	assert.Equal(t, []string{"--mute-audio"}, opts.ExtraArgs)
	assert.Nil(t, opts.Fingerprint)
	assert.Nil(t, opts.Prompter)

	c.Fingerprint.Enabled = true
	opts, err = managerOptions(context.Background(), c, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, opts.Fingerprint)
	assert.Equal(t, "FR", opts.Fingerprint.Country)
	assert.NotNil(t, opts.Prompter)

	c.Fingerprint.Country = "jp"
	opts, err = managerOptions(context.Background(), c, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", opts.Fingerprint.Timezone)

	c.Fingerprint.Country = "ZZ"
	_, err = managerOptions(context.Background(), c, nil, nil)
	assert.Error(t, err)
}

func TestFingerprintWithoutProxyDefaultsToUS(t *testing.T) {
	c := testConfig(t)
	c.Fingerprint.Enabled = true

	fp, err := resolveFingerprint(context.Background(), c, nil)
	require.NoError(t, err)
	assert.Equal(t, "US", fp.Country)
}

func TestProxyPasswordFromKeyring(t *testing.T) {
	zkr.MockInit()
	require.NoError(t, zkr.Set("chromectl-proxy", "alice", "s3cret"))

	c := testConfig(t)
	c.Proxy.Server = "http://proxy.example.com:8080"
	c.Proxy.Username = "alice"
	c.Proxy.PasswordKeyring = true

	proxy, err := proxyConfig(c)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", proxy.Password)

	c.Proxy.Username = "bob"
	proxy, err = proxyConfig(c)
	require.NoError(t, err)
	assert.Empty(t, proxy.Password)

	c.Proxy.Server = ""
	proxy, err = proxyConfig(c)
	require.NoError(t, err)
	assert.Nil(t, proxy)
}

func TestProxyPasswordCommands(t *testing.T) {
	zkr.MockInit()
	t.Setenv("CHROMECTL_KEYRING_DISABLED", "")
	c := testConfig(t)

	root := SetupRootCmd(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("hunter2\n"))
	root.SetArgs([]string{"proxy", "set-password", "alice"})
	require.NoError(t, root.Execute())

	stored, err := zkr.Get("chromectl-proxy", "alice")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", stored)

	got, err := execute(t, c, "proxy", "delete-password", "alice")
	require.NoError(t, err)
	assert.Contains(t, got, "Password removed")

	got, err = execute(t, c, "proxy", "delete-password", "alice")
	require.NoError(t, err)
	assert.Contains(t, got, "No password stored")
}

func TestCheckProxy(t *testing.T) {
	var gotAuth, gotURL string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Proxy-Authorization")
		gotURL = r.URL.String()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","query":"203.0.113.7","countryCode":"NL"}`))
	}))
	defer proxy.Close()

	proxyURL, err := url.Parse(proxy.URL)
	require.NoError(t, err)
	proxyURL.User = url.UserPassword("alice", "pw")

	ip, country, err := checkProxy(context.Background(), proxyURL, "http://lookup.invalid/json/")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", ip)
	assert.Equal(t, "NL", country)
	assert.Equal(t, "http://lookup.invalid/json/", gotURL)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("alice:pw")), gotAuth)
}

func TestWaitEnterSharesPromptBuffer(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("/opt/brave/brave\n\n"))
	prompter := browser.NewTerminalPrompter(in, io.Discard)

	answer, err := prompter.Ask("BROWSER PATH: ")
	require.NoError(t, err)
	assert.Equal(t, "/opt/brave/brave", answer)

	select {
	case <-waitEnter(in):
	case <-time.After(5 * time.Second):
		t.Fatal("Enter after the prompt answer was lost")
	}
}

func TestWaitEnterIgnoresEOF(t *testing.T) {
	done := waitEnter(bufio.NewReader(strings.NewReader("")))
	select {
	case <-done:
		t.Fatal("EOF must not count as Enter")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestConfigCommands(t *testing.T) {
	c := testConfig(t)
	c.Proxy.Password = "hunter2"

	out, err := execute(t, c, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "debug_port: 9222")
	assert.Contains(t, out, "launch_delay: 3s")
	assert.NotContains(t, out, "hunter2")

	out, err = execute(t, c, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.DataDir, config.FileName)+"\n", out)

	out, err = execute(t, c, "config", "defaults")
	require.NoError(t, err)
	assert.Contains(t, out, config.FileName)

	path := filepath.Join(c.DataDir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("debug_port: 1\n"), 0600))

	out, err = execute(t, c, "config", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored default configuration")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := defaults.GetDefault(config.FileName)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}
