package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardledger/internal/config"
	"cardledger/internal/importer"
	"cardledger/internal/inventory"
	"cardledger/internal/logging"
	"cardledger/internal/notifications"
	"cardledger/internal/resolve"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var skipResolve bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import inventory items from a CSV file",
		Long: `Import items from a CSV export. The first row must be a header; columns are
matched by name and may appear in any order. Rows that cannot be parsed are
skipped and logged, never aborting the rest of the file. Imported items are
resolved against the catalog immediately unless --skip-resolve is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *inventory.Store) error {
				report, err := importer.New(store, logger).ImportFile(cmd.Context(), path)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %d items (%d rows skipped)\n", report.Imported, report.Skipped)

				notifier := notifications.NewService(cfg)
				if err := notifier.NotifyImportCompleted(cmd.Context(), report.Imported, report.Skipped); err != nil {
					logger.Warn("import notification failed", logging.Error(err))
				}

				if skipResolve || report.Imported == 0 {
					return nil
				}

				items := make([]*inventory.Item, 0, len(report.ItemIDs))
				for _, id := range report.ItemIDs {
					item, err := store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					items = append(items, item)
				}

				searcher, err := ctx.newSearcher(cfg)
				if err != nil {
					return err
				}
				runner := resolve.NewRunner(cfg, store, searcher, logger, notifier,
					resolve.WithDryRun(dryRun))
				job, err := runner.RunItems(cmd.Context(), items)
				if err != nil {
					return err
				}
				summary, err := job.Wait(cmd.Context())
				if err != nil {
					job.Cancel()
					return err
				}
				printSweepSummary(cmd, summary, dryRun)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipResolve, "skip-resolve", false, "Import without resolving images")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve imported items without writing image URLs")
	return cmd
}
