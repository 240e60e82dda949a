package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/auth"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/classifier"
	"github.com/spf13/cobra"
)

func newModelCommand(ctx *commandContext) *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "model",
		Short: "Show the classifier artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if modelPath == "" {
				modelPath = cfg.ModelPath
			}

			info, err := classifier.New(modelPath, ctx.logger()).Info()
			if err != nil {
				return err
			}
			probabilistic := "no"
			if info.Probabilistic {
				probabilistic = "yes"
			}
			rows := [][]string{
				{"Path", modelPath},
				{"Name", info.Name},
				{"Version", info.Version},
				{"Kind", info.Kind},
				{"Probabilities", probabilistic},
				{"Columns", strings.Join(info.FeatureColumns, ", ")},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "path", "", "Model artifact (default from configuration)")
	return cmd
}

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with the configured JWT secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			token, err := auth.New(cfg.JWTSecret, ctx.logger()).Sign(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "hitctl", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
