package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/netlens/netlens/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a netlens.yaml configuration file interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		}

		cfg := config.Default()
		proxyAddr := cfg.Proxy.Addr
		apiAddr := cfg.API.Addr
		maxEvents := strconv.Itoa(cfg.MaxEvents)
		logLevel := cfg.Logging.Level

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Proxy listen address").
					Description("Point your application's HTTP proxy here").
					Value(&proxyAddr).
					Validate(func(s string) error {
						if s == "" {
							return errors.New("address is required")
						}
						return nil
					}),
				huh.NewInput().
					Title("Live view API address").
					Value(&apiAddr).
					Validate(func(s string) error {
						if s == "" {
							return errors.New("address is required")
						}
						return nil
					}),
				huh.NewInput().
					Title("Event history capacity").
					Description("Oldest events are evicted beyond this").
					Value(&maxEvents).
					Validate(func(s string) error {
						n, err := strconv.Atoi(s)
						if err != nil || n <= 0 {
							return errors.New("must be a positive number")
						}
						return nil
					}),
				huh.NewSelect[string]().
					Title("Log level").
					Options(
						huh.NewOption("debug", "debug"),
						huh.NewOption("info", "info"),
						huh.NewOption("warn", "warn"),
						huh.NewOption("error", "error"),
					).
					Value(&logLevel),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}

		cfg.Proxy.Addr = proxyAddr
		cfg.API.Addr = apiAddr
		cfg.MaxEvents, _ = strconv.Atoi(maxEvents)
		cfg.Logging.Level = logLevel

		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing configuration file")
}
