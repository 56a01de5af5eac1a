package cli

import (
	"bufio"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neboloop/chromectl/internal/browser"
)

// ConnectCmd opens a profile under automation and holds it until Enter
func ConnectCmd() *cobra.Command {
	var (
		url      string
		headless bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "connect <profile>",
		Short: "Launch a profile with remote debugging and attach to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			if !cmd.Flags().Changed("headless") {
				headless = AppConfig.Headless
			}

			in := stdinReader(cmd)
			m, err := newManager(ctx, in, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer m.Close()

			page, err := m.Connect(ctx, browser.SessionOptions{
				Profile:  args[0],
				URL:      url,
				Headless: headless,
				Timeout:  timeout,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			title, _ := page.Title(ctx)
			fmt.Fprintf(out, "Connected to %s (%s)\n", args[0], m.Executable().Kind)
			fmt.Fprintf(out, "  pid:   %d\n", m.PID())
			fmt.Fprintf(out, "  debug: %s\n", browser.DebugURL(m.Port()))
			fmt.Fprintf(out, "  page:  %s %q\n", page.State().URL, title)
			fmt.Fprintln(out, "Press Enter to close the browser.")

			select {
			case <-waitEnter(in):
			case <-m.Process().Done():
				fmt.Fprintln(out, "Browser exited.")
			case <-ctx.Done():
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "page to navigate to after attaching")
	cmd.Flags().BoolVar(&headless, "headless", false, "run without a window (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "attach and navigation timeout (default from config, 60s)")
	return cmd
}

// waitEnter closes the returned channel after one line on in. On EOF the
// channel stays open so a detached stdin waits for a signal instead.
func waitEnter(in *bufio.Reader) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		if _, err := in.ReadString('\n'); err == nil {
			close(done)
		}
	}()
	return done
}
