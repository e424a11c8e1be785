package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cardledger/internal/inventory"
	"cardledger/internal/resolve"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve the background image for one item and show matching details",
		Long: `Resolve a single inventory item against the product catalog and print the
query variations, candidate scoring, and match classification. This command is
useful for troubleshooting items the sweep could not match. With --dry-run the
match is shown but no image URL is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
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
			searcher, err := ctx.newSearcher(cfg)
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *inventory.Store) error {
				item, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if item.HasImage() {
					fmt.Fprintf(out, "Item %d already has an image: %s\n", item.ID, item.ImageURL)
					return nil
				}

				fmt.Fprintf(out, "Resolving item %d: %s\n", item.ID, describeItem(item))
				queries := resolve.QueryVariations(item)
				if len(queries) == 0 {
					fmt.Fprintln(out, "No usable queries could be built from this item")
					return nil
				}
				fmt.Fprintln(out, "Query variations:")
				for i, query := range queries {
					fmt.Fprintf(out, "  %d. %s\n", i+1, query)
				}
				fmt.Fprintln(out)

				var writer resolve.ImageWriter
				if !dryRun {
					writer = store
				}
				resolver := resolve.NewResolver(cfg, searcher, writer, logger)

				var resolution resolve.Resolution
				if dryRun {
					resolution, err = resolver.Lookup(cmd.Context(), item)
				} else {
					resolution, err = resolver.ResolveItem(cmd.Context(), item)
				}
				if err != nil {
					return err
				}

				printResolution(out, resolution, dryRun)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Look up the match without writing the image URL")
	return cmd
}

func printResolution(out io.Writer, resolution resolve.Resolution, dryRun bool) {
	fmt.Fprintf(out, "Match results:\n")
	fmt.Fprintf(out, "  Queries tried:  %d\n", resolution.QueriesTried)
	fmt.Fprintf(out, "  Queries failed: %d\n", resolution.QueriesFailed)

	if resolution.Query != "" {
		best := resolution.Best
		fmt.Fprintf(out, "  Deciding query: %s\n", resolution.Query)
		fmt.Fprintf(out, "  Best candidate: %s\n", describeProduct(best))
		fmt.Fprintf(out, "  Score:          %d (name %d, set %d, number %d)\n",
			best.TotalScore, best.NameScore, best.SetScore, best.NumberScore)
		fmt.Fprintf(out, "  Match type:     %s\n", best.MatchType)
	}

	switch {
	case resolution.Found && dryRun:
		fmt.Fprintf(out, "\nMatch accepted: %s\n", resolution.ImageURL)
		fmt.Fprintln(out, "Dry run; no image URL was written.")
	case resolution.Found:
		fmt.Fprintf(out, "\nImage URL written: %s\n", resolution.ImageURL)
	case resolution.SearchExhausted():
		fmt.Fprintln(out, "\nEvery catalog query failed. Check connectivity and the API key, then retry.")
	case resolution.Query != "":
		fmt.Fprintln(out, "\nBest candidate scored below the acceptance threshold; no image was written.")
	default:
		fmt.Fprintln(out, "\nNo catalog candidate had a usable image; no image was written.")
	}
}

func describeItem(item *inventory.Item) string {
	parts := []string{item.Name}
	if set := strings.TrimSpace(item.SetName); set != "" {
		parts = append(parts, set)
	}
	if number := strings.TrimSpace(item.CardNumber); number != "" {
		parts = append(parts, "#"+number)
	}
	return strings.Join(parts, ", ")
}

func describeProduct(candidate resolve.ScoredCandidate) string {
	product := candidate.Product
	parts := []string{product.Name}
	if set := strings.TrimSpace(product.SetName); set != "" {
		parts = append(parts, set)
	}
	if number := strings.TrimSpace(product.CardNumber); number != "" {
		parts = append(parts, "#"+number)
	}
	return strings.Join(parts, ", ")
}
