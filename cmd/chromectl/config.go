package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/neboloop/chromectl/internal/config"
	"github.com/neboloop/chromectl/internal/defaults"
)

// ConfigCmd shows or resets the configuration
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, AppConfig)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Run: func(cmd *cobra.Command, args []string) {
			path := cfgFile
			if path == "" {
				path = filepath.Join(AppConfig.DataDir, config.FileName)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "defaults",
		Short: "List the files written to the data directory on first run",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := defaults.ListDefaults()
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Overwrite the data directory's config files with the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := defaults.Reset(AppConfig.DataDir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored default configuration in %s\n", AppConfig.DataDir)
			return nil
		},
	})

	return cmd
}

// showConfig prints the effective configuration with secrets masked
func showConfig(cmd *cobra.Command, c *config.Config) error {
	shown := *c
	if shown.Proxy.Password != "" {
		shown.Proxy.Password = "********"
	}
	data, err := yaml.Marshal(&shown)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# data dir: %s\n", c.DataDir)
	_, err = out.Write(data)
	return err
}
