package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/ecomm/internal/config"
	"github.com/yanizio/ecomm/internal/middleware"
)

func newCheckCmd(baseDir *string) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate settings and print deploy warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			cfg, err := loadConfig(*baseDir)
			if err != nil {
				return err
			}
			log := zap.NewNop().Sugar()

			if err := validateChain(cfg, log); err != nil {
				return err
			}
			comps, err := buildComponents(cfg, log)
			if err != nil {
				return err
			}
			defer comps.Close()

			fmt.Fprintf(out, "base:       %s\n", cfg.Paths.Base)
			fmt.Fprintf(out, "database:   %s\n", cfg.Database.Engine())
			fmt.Fprintf(out, "debug:      %t\n", cfg.Security.Debug)
			fmt.Fprintf(out, "hosts:      %v\n", cfg.Hosts.List())
			fmt.Fprintf(out, "middleware: %d stages\n", cfg.Middleware.Len())

			warnings := cfg.Security.Warnings()
			for _, w := range warnings {
				fmt.Fprintf(out, "WARNING: %s\n", w)
			}
			if strict && len(warnings) > 0 {
				return errors.New("deploy warnings present")
			}
			fmt.Fprintln(out, "OK")
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "deploy", false, "treat warnings as errors")
	return cmd
}

// validateChain builds the middleware pipeline once and discards it.
func validateChain(cfg *config.Config, log *zap.SugaredLogger) error {
	if _, err := middleware.Build(middleware.NewDeps(cfg, log)); err != nil {
		return fmt.Errorf("middleware: %w", err)
	}
	return nil
}
