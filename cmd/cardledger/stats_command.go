package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cardledger/internal/inventory"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show inventory statistics and database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *inventory.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				health, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, struct {
						Stats  inventory.ItemStats      `json:"stats"`
						Health inventory.DatabaseHealth `json:"health"`
					}{Stats: stats, Health: health})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				rows := [][]string{
					{"Items", fmt.Sprintf("%d", stats.Total)},
					{"Total copies", fmt.Sprintf("%d", stats.Quantity)},
					{"Purchase value", formatPrice(stats.ValueCents)},
					{"With image", fmt.Sprintf("%d", stats.WithImage)},
					{"Missing image", fmt.Sprintf("%d", stats.MissingImage)},
				}
				fmt.Fprintln(out, renderTable([]string{"Inventory", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

				if categoryRows := buildCategoryRows(stats.ByCategory); len(categoryRows) > 0 {
					fmt.Fprintln(out, renderTable([]string{"Category", "Items"}, categoryRows, []columnAlignment{alignLeft, alignRight}))
				}

				for _, line := range renderSectionHeader("Database", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, line := range buildHealthLines(health, colorize) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of tables")
	return cmd
}

func buildHealthLines(health inventory.DatabaseHealth, colorize bool) []string {
	var lines []string

	fileKind, fileMessage := statusOK, health.DBPath
	switch {
	case !health.DatabaseExists:
		fileKind, fileMessage = statusError, fmt.Sprintf("%s does not exist", health.DBPath)
	case !health.DatabaseReadable:
		fileKind, fileMessage = statusError, fmt.Sprintf("%s is not readable", health.DBPath)
	}
	lines = append(lines, renderStatusLine("Database file", fileKind, fileMessage, colorize))

	schemaKind, schemaMessage := statusOK, ""
	switch {
	case !health.TableExists:
		schemaKind, schemaMessage = statusError, "items table missing"
	case len(health.MissingColumns) > 0:
		schemaKind = statusWarn
		schemaMessage = "missing columns: " + strings.Join(health.MissingColumns, ", ")
	}
	lines = append(lines, renderStatusLine("Schema", schemaKind, schemaMessage, colorize))

	integrityKind, integrityMessage := statusOK, ""
	if !health.IntegrityCheck {
		integrityKind, integrityMessage = statusError, "integrity check failed"
	}
	lines = append(lines, renderStatusLine("Integrity", integrityKind, integrityMessage, colorize))

	lines = append(lines, renderStatusLine("Items", statusInfo, fmt.Sprintf("%d", health.TotalItems), colorize))

	if message := strings.TrimSpace(health.Error); message != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, message, colorize))
	}
	return lines
}
