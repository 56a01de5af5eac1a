package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const probeTimeout = 500 * time.Millisecond

// IsPortOpen reports whether nothing is listening on 127.0.0.1:port.
// A refused connection means the port is free.
func IsPortOpen(port int) bool {
	conn, err := net.DialTimeout("tcp", debugHost(port), probeTimeout)
	if err != nil {
		return true
	}
	_ = conn.Close()
	return false
}

// DebugURL returns the HTTP debug endpoint for a port.
func DebugURL(port int) string {
	return "http://" + debugHost(port)
}

func debugHost(port int) string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
}

// IsChromeReachable checks if Chrome CDP is responding.
func IsChromeReachable(cdpURL string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, err := fetchVersion(ctx, cdpURL)
	return err == nil
}

// GetChromeWebSocketURL gets the CDP WebSocket URL from a running Chrome.
func GetChromeWebSocketURL(ctx context.Context, cdpURL string) (string, error) {
	version, err := fetchVersion(ctx, cdpURL)
	if err != nil {
		return "", err
	}
	if version.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("no webSocketDebuggerUrl in response")
	}
	return version.WebSocketDebuggerURL, nil
}

// VersionInfo is the body of /json/version.
type VersionInfo struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	UserAgent            string `json:"User-Agent"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

func fetchVersion(ctx context.Context, cdpURL string) (*VersionInfo, error) {
	versionURL := strings.TrimSuffix(cdpURL, "/") + "/json/version"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, versionURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", versionURL, resp.Status)
	}

	var version VersionInfo
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return nil, fmt.Errorf("decode %s: %w", versionURL, err)
	}
	return &version, nil
}

// WaitDebuggerReady polls /json/version until it answers and the advertised
// websocket accepts a handshake, or ctx expires.
func WaitDebuggerReady(ctx context.Context, port int) (string, error) {
	cdpURL := DebugURL(port)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var lastErr error
	for {
		attemptCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		wsURL, err := GetChromeWebSocketURL(attemptCtx, cdpURL)
		if err == nil {
			err = dialWebSocket(attemptCtx, wsURL)
		}
		cancel()
		if err == nil {
			return wsURL, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("debugger on port %d not ready: %w (last error: %v)", port, ctx.Err(), lastErr)
		case <-ticker.C:
		}
	}
}

func dialWebSocket(ctx context.Context, wsURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket %s: %w", wsURL, err)
	}
	return conn.Close()
}
