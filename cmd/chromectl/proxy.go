package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/neboloop/chromectl/internal/keyring"
)

// proxyCheckURL answers with the caller's public IP and country.
const proxyCheckURL = "http://ip-api.com/json/?fields=status,query,countryCode"

// ProxyCmd manages proxy credentials
func ProxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Manage the upstream proxy",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set-password <username>",
		Short: "Store a proxy password in the OS keychain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !keyring.Available() {
				return fmt.Errorf("OS keychain is not available")
			}
			password, err := readPassword(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if password == "" {
				return fmt.Errorf("empty password")
			}
			if err := keyring.Set(args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password stored for %s. Set proxy.password_keyring: true to use it.\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete-password <username>",
		Short: "Remove a proxy password from the OS keychain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := keyring.Delete(args[0])
			if errors.Is(err, keyring.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "No password stored for %s.\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password removed for %s.\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Send a request through the configured proxy and show its exit IP",
		RunE: func(cmd *cobra.Command, args []string) error {
			proxy, err := proxyConfig(AppConfig)
			if err != nil {
				return err
			}
			if proxy == nil {
				return fmt.Errorf("no proxy configured")
			}
			proxyURL, err := url.Parse(proxy.Server)
			if err != nil {
				return err
			}
			if proxy.HasCredentials() {
				proxyURL.User = url.UserPassword(proxy.Username, proxy.Password)
			}

			ip, country, err := checkProxy(cmd.Context(), proxyURL, proxyCheckURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exit ip: %s\ncountry: %s\n", ip, country)
			return nil
		},
	})

	return cmd
}

// readPassword reads without echo on a terminal, or one line otherwise.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Proxy password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		return string(b), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func checkProxy(ctx context.Context, proxyURL *url.URL, checkURL string) (ip, country string, err error) {
	client := &http.Client{
		Timeout:   15 * time.Second,
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("proxy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("proxy check returned %s", resp.Status)
	}
	var body struct {
		Status      string `json:"status"`
		Query       string `json:"query"`
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", fmt.Errorf("decode proxy check: %w", err)
	}
	return body.Query, body.CountryCode, nil
}
