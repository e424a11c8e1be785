package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cardledger/internal/inventory"
	"cardledger/internal/notifications"
	"cardledger/internal/resolve"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var dryRun bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Resolve images for every item missing one",
		Long: `Sweep the inventory for items without a background image, group them into
search units, and resolve each unit against the product catalog. Only one
sweep runs at a time; concurrent invocations fail fast.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			searcher, err := ctx.newSearcher(cfg)
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire sweep lock: %w", err)
			}
			if !ok {
				return errors.New("another sweep is already running")
			}
			defer func() { _ = lock.Unlock() }()

			return ctx.withStore(func(store *inventory.Store) error {
				notifier := notifications.NewService(cfg)
				runner := resolve.NewRunner(cfg, store, searcher, logger, notifier,
					resolve.WithDryRun(dryRun),
					resolve.WithBatchLimit(limit),
				)

				job, err := runner.Run(cmd.Context())
				if err != nil {
					return err
				}
				summary, err := job.Wait(cmd.Context())
				if err != nil {
					job.Cancel()
					return err
				}

				if asJSON {
					return writeJSON(cmd, summary)
				}
				printSweepSummary(cmd, summary, dryRun)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum items per sweep (0 uses the configured batch limit)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Match items without writing image URLs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the run summary as JSON")
	return cmd
}

func printSweepSummary(cmd *cobra.Command, summary resolve.Summary, dryRun bool) {
	out := cmd.OutOrStdout()
	if summary.TotalItems == 0 {
		fmt.Fprintln(out, "No items are missing images")
		return
	}

	rows := [][]string{
		{"Items", fmt.Sprintf("%d", summary.TotalItems)},
		{"Search units", fmt.Sprintf("%d", summary.TotalUnits)},
		{"Resolved", fmt.Sprintf("%d", summary.Found)},
		{"Perfect matches", fmt.Sprintf("%d", summary.Perfect)},
		{"Fuzzy matches", fmt.Sprintf("%d", summary.Fuzzy)},
		{"Unmatched", fmt.Sprintf("%d", summary.Skipped)},
		{"Search failures", fmt.Sprintf("%d", summary.SearchFailed)},
		{"Write failures", fmt.Sprintf("%d", summary.WriteFailed)},
		{"Elapsed", summary.Elapsed.Round(time.Millisecond).String()},
	}
	tableText := renderTable([]string{"Sweep", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
	fmt.Fprintln(out, tableText)
	if dryRun {
		fmt.Fprintln(out, "Dry run; no image URLs were written.")
	}
}
