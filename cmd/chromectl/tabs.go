package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/neboloop/chromectl/internal/browser"
)

// TabsCmd loads URLs across a pool of tabs on one profile
func TabsCmd() *cobra.Command {
	var (
		size     int
		headless bool
	)

	cmd := &cobra.Command{
		Use:   "tabs <profile> <url>...",
		Short: "Open URLs in a pool of tabs and print their titles",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			if !cmd.Flags().Changed("size") {
				size = AppConfig.TabPoolSize
			}
			if !cmd.Flags().Changed("headless") {
				headless = AppConfig.Headless
			}
			urls := args[1:]
			if size > len(urls) {
				size = len(urls)
			}

			m, err := newManager(ctx, stdinReader(cmd), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer m.Close()

			if _, err := m.Connect(ctx, browser.SessionOptions{Profile: args[0], Headless: headless}); err != nil {
				return err
			}

			pool, err := browser.NewTabPool(ctx, m, size)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			return pool.Run(ctx, urls, func(ctx context.Context, page *browser.Page, url string) error {
				if _, err := page.Navigate(ctx, browser.NavigateOptions{URL: url}); err != nil {
					return fmt.Errorf("%s: %w", url, err)
				}
				title, err := page.Title(ctx)
				if err != nil {
					return fmt.Errorf("%s: %w", url, err)
				}
				mu.Lock()
				fmt.Fprintf(out, "%s\t%s\n", url, title)
				mu.Unlock()
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&size, "size", 0, "number of tabs (default from config, 5)")
	cmd.Flags().BoolVar(&headless, "headless", false, "run without a window (default from config)")
	return cmd
}
