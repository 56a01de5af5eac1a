package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/neboloop/chromectl/internal/browser"
	"github.com/neboloop/chromectl/internal/config"
	"github.com/neboloop/chromectl/internal/fingerprint"
	"github.com/neboloop/chromectl/internal/keyring"
)

// managerOptions turns the loaded config into browser.Options. Prompts for
// a browser path go to in/out.
func managerOptions(ctx context.Context, c *config.Config, in io.Reader, out io.Writer) (browser.Options, error) {
	opts := browser.Options{
		BaseDir:         c.ProfileDir,
		BrowserPath:     c.BrowserPath,
		Port:            c.DebugPort,
		Driver:          c.Driver,
		LaunchDelay:     c.LaunchDelay.Std(),
		WaitReady:       c.WaitReady,
		ReadyTimeout:    c.ReadyTimeout.Std(),
		NavigateTimeout: c.NavigateTimeout.Std(),
		ExtraArgs:       c.ExtraArgs,
		Logger:          slog.Default(),
	}
	if in != nil && out != nil {
		opts.Prompter = browser.NewTerminalPrompter(in, out)
	}

	proxy, err := proxyConfig(c)
	if err != nil {
		return browser.Options{}, err
	}
	if proxy != nil {
		opts.ProxyServer = proxy.Server
	}

	fp, err := resolveFingerprint(ctx, c, proxy)
	if err != nil {
		return browser.Options{}, err
	}
	opts.Fingerprint = fp

	return opts, nil
}

// proxyConfig returns the configured proxy, or nil when none is set. The
// password is read from the keychain when password_keyring is on.
func proxyConfig(c *config.Config) (*fingerprint.ProxyConfig, error) {
	if c.Proxy.Server == "" {
		return nil, nil
	}
	proxy, err := fingerprint.ParseProxy(c.Proxy.Server)
	if err != nil {
		return nil, err
	}
	if c.Proxy.Username != "" {
		proxy.Username = c.Proxy.Username
	}
	if c.Proxy.Password != "" {
		proxy.Password = c.Proxy.Password
	}
	if c.Proxy.PasswordKeyring && proxy.Username != "" && proxy.Password == "" {
		password, err := keyring.Get(proxy.Username)
		switch {
		case errors.Is(err, keyring.ErrNotFound):
			slog.Warn("no proxy password in keychain", "username", proxy.Username)
		case err != nil:
			return nil, err
		default:
			proxy.Password = password
		}
	}
	return &proxy, nil
}

// resolveFingerprint returns nil when fingerprinting is off. A fixed
// country wins; otherwise the proxy is resolved, falling back to US.
func resolveFingerprint(ctx context.Context, c *config.Config, proxy *fingerprint.ProxyConfig) (*fingerprint.Fingerprint, error) {
	if !c.Fingerprint.Enabled {
		return nil, nil
	}
	if c.Fingerprint.Country != "" {
		fp, ok := fingerprint.Lookup(c.Fingerprint.Country)
		if !ok {
			return nil, fmt.Errorf("unknown fingerprint country %q", c.Fingerprint.Country)
		}
		return &fp, nil
	}
	if proxy == nil {
		fp := fingerprint.Default()
		return &fp, nil
	}

	resolver, err := newResolver(c)
	if err != nil {
		return nil, err
	}
	defer resolver.Close()

	res := resolver.ResolveProxy(ctx, *proxy)
	slog.Info("fingerprint resolved", "country", res.Country, "resolved", res.Resolved, "source", res.Source)
	return &res.Fingerprint, nil
}

func newResolver(c *config.Config) (*fingerprint.Resolver, error) {
	return fingerprint.NewResolver(fingerprint.ResolverOptions{
		GeoIPDB:   c.Fingerprint.GeoIPDB,
		LookupURL: c.Fingerprint.LookupURL,
		Logger:    slog.Default(),
	})
}

// newManager builds a Manager from AppConfig, prompting on the command's
// streams if no browser is found.
func newManager(ctx context.Context, in io.Reader, out io.Writer) (*browser.Manager, error) {
	opts, err := managerOptions(ctx, AppConfig, in, out)
	if err != nil {
		return nil, err
	}
	return browser.NewManager(opts)
}

// stdinReader returns the command's input as one buffered reader. Pass it
// to both the prompter and any later line reads so nothing read ahead by
// one is lost to the other.
func stdinReader(cmd *cobra.Command) *bufio.Reader {
	return bufio.NewReader(cmd.InOrStdin())
}
