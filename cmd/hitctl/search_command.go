package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/database"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"github.com/spf13/cobra"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the reference dataset by title or artist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return ctx.withStore(cmd.Context(), func(store *database.Store) error {
				refs, err := store.SearchReferences(cmd.Context(), query, limit)
				if err != nil {
					return err
				}
				if len(refs) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No reference tracks match %q\n", query)
					return nil
				}

				rows := make([][]string, 0, len(refs))
				for _, ref := range refs {
					rows = append(rows, []string{
						ref.TrackID,
						ref.Title,
						ref.Artist,
						ref.Genre,
						strconv.Itoa(ref.Popularity),
						hitsong.Label(ref.IsHit).String(),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Artist", "Genre", "Popularity", "Label"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show row counts per table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *database.Store) error {
				counts, err := store.Counts(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"reference_tracks", strconv.Itoa(counts.References)},
					{"songs", strconv.Itoa(counts.Songs)},
					{"predictions", strconv.Itoa(counts.Predictions)},
					{"prediction_audits", strconv.Itoa(counts.Audits)},
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Driver: %s\n", store.Driver())
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Table", "Rows"}, rows,
					[]columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}
