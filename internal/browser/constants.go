// Package browser launches a locally installed Chromium-family browser with a
// persistent profile, attaches an automation client over the remote-debugging
// port and tears the whole stack down deterministically.
package browser

import "time"

const (
	// DefaultCDPPort is the default Chrome DevTools Protocol port.
	DefaultCDPPort = 9222

	// DefaultLaunchDelay is how long Launch sleeps after starting the
	// browser so its debug listener can come up.
	DefaultLaunchDelay = 3 * time.Second

	// DefaultReadyTimeout bounds readiness polling when WaitReady is set.
	DefaultReadyTimeout = 15 * time.Second

	// DefaultNavigateTimeout bounds navigation plus the load-complete wait.
	DefaultNavigateTimeout = 60 * time.Second

	// DefaultTabPoolSize is the number of tabs a TabPool opens.
	DefaultTabPoolSize = 5

	// DefaultSetupMessage is printed while a profile is being set up.
	DefaultSetupMessage = "Perform manual actions, then close the browser to save."

	// processWaitDelay bounds how long teardown waits for stdio copies
	// after the process tree is gone.
	processWaitDelay = 2 * time.Second
)

// Automation client drivers
const (
	// DriverPlaywright attaches with playwright-go's ConnectOverCDP.
	DriverPlaywright = "playwright"

	// DriverCDP attaches with chromedp over the raw DevTools websocket.
	DriverCDP = "cdp"
)
