package browser

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPortOpen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port

	assert.False(t, IsPortOpen(port), "listener present")

	require.NoError(t, ln.Close())
	assert.True(t, IsPortOpen(port), "listener closed")
}

func TestIsPortOpenIsFast(t *testing.T) {
	start := time.Now()
	IsPortOpen(freePort(t))
	assert.Less(t, time.Since(start), time.Second)
}

func TestDebugURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:9222", DebugURL(9222))
}

func TestWaitDebuggerReadyTimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := WaitDebuggerReady(ctx, freePort(t))
	assert.Error(t, err)
}
