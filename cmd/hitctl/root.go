package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var driverFlag string
	var databaseFlag string

	ctx := newCommandContext(&driverFlag, &databaseFlag)

	rootCmd := &cobra.Command{
		Use:           "hitctl",
		Short:         "Hit song predictor operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Database driver (sqlite or postgres)")
	rootCmd.PersistentFlags().StringVar(&databaseFlag, "database", "", "Database URL or SQLite path")

	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newClearCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newModelCommand(ctx))
	rootCmd.AddCommand(newTokenCommand(ctx))

	return rootCmd
}
