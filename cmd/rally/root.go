package main

import (
	"fmt"

	"github.com/okian/rally/pkg/logger"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rally",
		Short: "Court rotation and team allocation engine",
		Long: heredoc.Doc(`
			rally rotates a pool of players across a fixed set of courts,
			one game at a time. Every game it picks balanced teams, keeps
			the number of games played by each player within a small
			spread and avoids sending the same team back onto a court.

			Configuration is read from the YAML file named by RALLY_CONFIG
			and from RALLY_ prefixed environment variables.`),
		Args: cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			return nil
		},
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newSimulateCmd())
	return root
}
