package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cardledger/internal/inventory"
)

func newItemsCommand(ctx *commandContext) *cobra.Command {
	itemsCmd := &cobra.Command{
		Use:   "items",
		Short: "Inspect and manage the card inventory",
	}

	itemsCmd.AddCommand(newItemsAddCommand(ctx))
	itemsCmd.AddCommand(newItemsListCommand(ctx))
	itemsCmd.AddCommand(newItemsShowCommand(ctx))
	itemsCmd.AddCommand(newItemsRemoveCommand(ctx))

	return itemsCmd
}

func newItemsAddCommand(ctx *commandContext) *cobra.Command {
	var setName string
	var cardNumber string
	var categoryFlag string
	var condition string
	var quantity int
	var priceFlag string
	var notes string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an item to the inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("item name is required")
			}

			category, ok := inventory.ParseCategory(categoryFlag)
			if !ok {
				return fmt.Errorf("unknown category %q (valid: %s)", categoryFlag, categoryChoices())
			}

			priceCents, err := parsePriceFlag(priceFlag)
			if err != nil {
				return err
			}
			if quantity < 1 {
				return fmt.Errorf("quantity must be at least 1, got %d", quantity)
			}

			return ctx.withStore(func(store *inventory.Store) error {
				item := &inventory.Item{
					Name:               name,
					SetName:            setName,
					CardNumber:         cardNumber,
					Category:           category,
					Condition:          condition,
					Quantity:           quantity,
					PurchasePriceCents: priceCents,
					Notes:              notes,
				}
				created, err := store.Add(cmd.Context(), item)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added item %d: %s\n", created.ID, created.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&setName, "set", "", "Set name (e.g. \"Base Set\")")
	cmd.Flags().StringVar(&cardNumber, "number", "", "Card number within the set (e.g. \"4/102\")")
	cmd.Flags().StringVar(&categoryFlag, "category", string(inventory.CategoryRawCard), "Item category")
	cmd.Flags().StringVar(&condition, "condition", "", "Condition grade (e.g. \"NM\", \"PSA 9\")")
	cmd.Flags().IntVar(&quantity, "quantity", 1, "Number of copies")
	cmd.Flags().StringVar(&priceFlag, "price", "", "Purchase price per copy in dollars (e.g. \"12.99\")")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	return cmd
}

func newItemsListCommand(ctx *commandContext) *cobra.Command {
	var categoryFlag string
	var missingOnly bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inventory items",
		RunE: func(cmd *cobra.Command, args []string) error {
			var categories []inventory.Category
			if categoryFlag != "" {
				category, ok := inventory.ParseCategory(categoryFlag)
				if !ok {
					return fmt.Errorf("unknown category %q (valid: %s)", categoryFlag, categoryChoices())
				}
				categories = append(categories, category)
			}

			return ctx.withStore(func(store *inventory.Store) error {
				items, err := store.List(cmd.Context(), categories...)
				if err != nil {
					return err
				}
				if missingOnly {
					filtered := items[:0]
					for _, item := range items {
						if !item.HasImage() {
							filtered = append(filtered, item)
						}
					}
					items = filtered
				}

				if asJSON {
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Inventory is empty")
					return nil
				}
				tableText := renderTable(
					[]string{"ID", "Name", "Set", "Number", "Category", "Qty", "Price", "Image"},
					buildItemListRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), tableText)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryFlag, "category", "", "Filter by category")
	cmd.Flags().BoolVar(&missingOnly, "missing-image", false, "Show only items without a background image")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newItemsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one inventory item in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *inventory.Store) error {
				item, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, item)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Item #%d\n", item.ID)
				fmt.Fprintf(out, "  Name:      %s\n", item.Name)
				fmt.Fprintf(out, "  Set:       %s\n", dashIfEmpty(item.SetName))
				fmt.Fprintf(out, "  Number:    %s\n", dashIfEmpty(item.CardNumber))
				fmt.Fprintf(out, "  Category:  %s\n", displayCategory(item.Category))
				fmt.Fprintf(out, "  Condition: %s\n", dashIfEmpty(item.Condition))
				fmt.Fprintf(out, "  Quantity:  %d\n", item.Quantity)
				fmt.Fprintf(out, "  Price:     %s\n", formatPrice(item.PurchasePriceCents))
				fmt.Fprintf(out, "  Image:     %s\n", dashIfEmpty(item.ImageURL))
				if notes := strings.TrimSpace(item.Notes); notes != "" {
					fmt.Fprintf(out, "  Notes:     %s\n", notes)
				}
				fmt.Fprintf(out, "  Added:     %s\n", formatDisplayTime(item.CreatedAt))
				fmt.Fprintf(out, "  Updated:   %s\n", formatDisplayTime(item.UpdatedAt))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func newItemsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an inventory item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *inventory.Store) error {
				removed, err := store.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %d not found\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed item %d\n", id)
				return nil
			})
		},
	}
}

func parseItemID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid item id %q", arg)
	}
	return id, nil
}

func categoryChoices() string {
	categories := inventory.AllCategories()
	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, string(category))
	}
	return strings.Join(names, ", ")
}

// parsePriceFlag converts a dollar amount like "12.99" to cents. Only digits
// are accepted: negative and fractional-cent prices are rejected.
func parsePriceFlag(raw string) (int64, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if raw == "" {
		return 0, nil
	}
	if strings.HasPrefix(raw, "-") {
		return 0, fmt.Errorf("price must not be negative: %q", raw)
	}

	dollarPart := raw
	centPart := "0"
	if idx := strings.IndexByte(raw, '.'); idx >= 0 {
		dollarPart = raw[:idx]
		centPart = raw[idx+1:]
		if len(centPart) != 2 {
			return 0, fmt.Errorf("price must use two decimal places: %q", raw)
		}
	}
	if dollarPart == "" {
		dollarPart = "0"
	}

	dollars, err := strconv.ParseInt(dollarPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	cents, err := strconv.ParseInt(centPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	return dollars*100 + cents, nil
}
