// Package keyring stores proxy passwords in the OS keychain.
package keyring

import (
	"errors"
	"fmt"
	"os"

	zkr "github.com/zalando/go-keyring"
)

const serviceName = "chromectl-proxy"

// ErrNotFound is returned when no password is stored for a username.
var ErrNotFound = errors.New("proxy password not found in keychain")

// Get retrieves the proxy password for username from the OS keychain.
func Get(username string) (string, error) {
	password, err := zkr.Get(serviceName, username)
	if errors.Is(err, zkr.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keychain get: %w", err)
	}
	return password, nil
}

// Set stores the proxy password for username in the OS keychain.
func Set(username, password string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	return zkr.Set(serviceName, username, password)
}

// Delete removes the stored password for username.
func Delete(username string) error {
	err := zkr.Delete(serviceName, username)
	if errors.Is(err, zkr.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Available returns true if the OS keychain is functional.
// Returns false if CHROMECTL_KEYRING_DISABLED=1 is set (opt-in for headless/CI/Docker).
// Otherwise probes the keychain with a test write/read/delete cycle.
func Available() bool {
	if os.Getenv("CHROMECTL_KEYRING_DISABLED") == "1" {
		return false
	}
	testService := "chromectl-keyring-probe"
	testAccount := "probe"
	if err := zkr.Set(testService, testAccount, "ok"); err != nil {
		return false
	}
	_ = zkr.Delete(testService, testAccount)
	return true
}
