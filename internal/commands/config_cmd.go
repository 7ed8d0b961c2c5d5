package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taskdash/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(stdout(), "✅ Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if baseURLFlag != "" {
			cfg.BaseURL = baseURLFlag
		}

		out := stdout()
		fmt.Fprintf(out, "config file:       %s\n", configPath())
		fmt.Fprintf(out, "base_url:          %s\n", cfg.BaseURL)
		fmt.Fprintf(out, "data_dir:          %s\n", cfg.DataDir)
		fmt.Fprintf(out, "request_timeout:   %s\n", cfg.RequestTimeout)
		fmt.Fprintf(out, "log.level:         %s\n", cfg.Log.Level)
		fmt.Fprintf(out, "log.file:          %s\n", cfg.Log.File)
		fmt.Fprintf(out, "ui.notify_all_errors: %t\n", cfg.UI.NotifyAllErrors)
		fmt.Fprintf(out, "ui.guard_in_flight:   %t\n", cfg.UI.GuardInFlight)
		fmt.Fprintf(out, "dev_server.addr:   %s\n", cfg.DevServer.Addr)
		return nil
	},
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
