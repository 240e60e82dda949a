package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/database"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/dataset"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

const defaultBatchSize = 1000

func newImportCommand(ctx *commandContext) *cobra.Command {
	var csvPath string
	var batchSize int
	var noClear bool
	var lockPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the reference dataset from a CSV export",
		RunE: func(cmd *cobra.Command, args []string) error {
			if csvPath == "" {
				return errors.New("--csv is required")
			}
			if batchSize <= 0 {
				return fmt.Errorf("--batch-size must be positive, got %d", batchSize)
			}
			if lockPath == "" {
				lockPath = filepath.Join(os.TempDir(), "hitctl-import.lock")
			}

			lock := flock.New(lockPath)
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire import lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another import is running (lock %s)", lockPath)
			}
			defer lock.Unlock()

			f, err := os.Open(csvPath)
			if err != nil {
				return err
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reading %s\n", csvPath)
			refs, skipped, err := dataset.ReadAll(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", csvPath, err)
			}
			for _, rowErr := range skipped {
				ctx.logger().Warnw("Skipped dataset row", "line", rowErr.Line, "error", rowErr.Err)
			}

			return ctx.withStore(cmd.Context(), func(store *database.Store) error {
				start := time.Now()
				total := int64(len(refs))
				report := func(done int) {
					fmt.Fprintf(out, "Imported %s / %s\n", humanize.Comma(int64(done)), humanize.Comma(total))
				}

				var n int
				if noClear {
					imported, err := store.ImportReferences(cmd.Context(), refs, batchSize, report)
					if err != nil {
						return err
					}
					n = imported
				} else {
					removed, err := store.ReplaceReferences(cmd.Context(), refs, batchSize, report)
					if err != nil {
						return err
					}
					n = len(refs)
					fmt.Fprintf(out, "Replaced %s existing reference tracks\n", humanize.Comma(removed))
				}

				fmt.Fprintf(out, "Imported %s reference tracks, skipped %s rows (%s)\n",
					humanize.Comma(int64(n)), humanize.Comma(int64(len(skipped))),
					time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the dataset CSV")
	cmd.Flags().IntVar(&batchSize, "batch-size", defaultBatchSize, "Rows per import batch")
	cmd.Flags().BoolVar(&noClear, "no-clear", false, "Keep existing reference tracks")
	cmd.Flags().StringVar(&lockPath, "lock", "", "Import lock file (default in the temp dir)")
	return cmd
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all reference tracks, songs, predictions and audit records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to clear without --confirm")
			}
			return ctx.withStore(cmd.Context(), func(store *database.Store) error {
				before, err := store.Counts(cmd.Context())
				if err != nil {
					return err
				}
				if err := store.ClearAll(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s reference tracks, %s songs, %s predictions, %s audit records\n",
					humanize.Comma(int64(before.References)), humanize.Comma(int64(before.Songs)),
					humanize.Comma(int64(before.Predictions)), humanize.Comma(int64(before.Audits)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm deletion")
	return cmd
}
