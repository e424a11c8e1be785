package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"cardledger/internal/inventory"
	"cardledger/internal/logging"
)

// Store is the inventory surface the importer writes through.
type Store interface {
	Add(ctx context.Context, item *inventory.Item) (*inventory.Item, error)
}

// Report summarizes an import: rows inserted, rows skipped, and the IDs of
// the inserted items in file order.
type Report struct {
	Imported int
	Skipped  int
	ItemIDs  []int64
}

// Importer loads inventory items from CSV files. Rows that cannot be parsed
// are skipped with a log line; they never abort the import.
type Importer struct {
	store  Store
	logger *slog.Logger
}

// New builds an importer writing through store.
func New(store Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Importer{
		store:  store,
		logger: logging.NewComponentLogger(logger, "importer"),
	}
}

// ImportFile imports items from the CSV file at path.
func (i *Importer) ImportFile(ctx context.Context, path string) (Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open import file: %w", err)
	}
	defer file.Close()
	return i.ImportCSV(ctx, file)
}

// ImportCSV imports items from CSV data. The first row is a header; columns
// are matched by name (name, set, number, category, condition, quantity,
// price, notes) and may appear in any order. Unrecognized columns are
// ignored.
func (i *Importer) ImportCSV(ctx context.Context, r io.Reader) (Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Report{}, errors.New("import file is empty")
		}
		return Report{}, fmt.Errorf("read csv header: %w", err)
	}

	columns := mapColumns(header)
	if _, ok := columns[columnName]; !ok {
		return Report{}, errors.New("import file has no name column")
	}

	report := Report{}
	for row := 2; ; row++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.Skipped++
				i.logger.Warn("skipping malformed csv row",
					logging.Int("row", row),
					logging.Error(err))
				continue
			}
			return report, fmt.Errorf("read csv row %d: %w", row, err)
		}

		item, reason := buildItem(columns, record)
		if item == nil {
			report.Skipped++
			i.logger.Warn("skipping csv row",
				logging.Int("row", row),
				logging.String("reason", reason))
			continue
		}

		created, err := i.store.Add(ctx, item)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Skipped++
			i.logger.Warn("skipping csv row, insert failed",
				logging.Int("row", row),
				logging.Error(err))
			continue
		}

		report.Imported++
		report.ItemIDs = append(report.ItemIDs, created.ID)
	}

	i.logger.Info("import finished",
		logging.Int("imported", report.Imported),
		logging.Int("skipped", report.Skipped))
	return report, nil
}

type column int

const (
	columnName column = iota
	columnSet
	columnNumber
	columnCategory
	columnCondition
	columnQuantity
	columnPrice
	columnNotes
)

// mapColumns matches header cells to known columns. Matching ignores case,
// spaces, and underscores, so "Card Number" and "card_number" both work. The
// first occurrence of a column wins.
func mapColumns(header []string) map[column]int {
	columns := make(map[column]int, len(header))
	assign := func(col column, idx int) {
		if _, ok := columns[col]; !ok {
			columns[col] = idx
		}
	}
	for idx, cell := range header {
		switch normalizeHeader(cell) {
		case "name", "cardname", "item", "itemname":
			assign(columnName, idx)
		case "set", "setname":
			assign(columnSet, idx)
		case "number", "cardnumber", "no":
			assign(columnNumber, idx)
		case "category", "type":
			assign(columnCategory, idx)
		case "condition", "grade":
			assign(columnCondition, idx)
		case "quantity", "qty", "count":
			assign(columnQuantity, idx)
		case "price", "purchaseprice", "cost":
			assign(columnPrice, idx)
		case "notes", "comments":
			assign(columnNotes, idx)
		}
	}
	return columns
}

func normalizeHeader(cell string) string {
	cell = strings.ToLower(strings.TrimSpace(cell))
	cell = strings.ReplaceAll(cell, " ", "")
	cell = strings.ReplaceAll(cell, "_", "")
	cell = strings.ReplaceAll(cell, "-", "")
	return cell
}

// buildItem converts a CSV record into an item. A nil item means the row is
// unusable; the second return value names the reason.
func buildItem(columns map[column]int, record []string) (*inventory.Item, string) {
	cell := func(col column) string {
		idx, ok := columns[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	name := cell(columnName)
	if name == "" {
		return nil, "missing name"
	}

	item := &inventory.Item{
		Name:       name,
		SetName:    cell(columnSet),
		CardNumber: cell(columnNumber),
		Condition:  cell(columnCondition),
		Notes:      cell(columnNotes),
	}

	if raw := cell(columnCategory); raw != "" {
		category, ok := inventory.ParseCategory(raw)
		if !ok {
			return nil, fmt.Sprintf("unknown category %q", raw)
		}
		item.Category = category
	}

	if raw := cell(columnQuantity); raw != "" {
		quantity, err := strconv.Atoi(raw)
		if err != nil || quantity < 1 {
			return nil, fmt.Sprintf("invalid quantity %q", raw)
		}
		item.Quantity = quantity
	}

	if raw := cell(columnPrice); raw != "" {
		cents, err := parsePriceCents(raw)
		if err != nil {
			return nil, fmt.Sprintf("invalid price %q", raw)
		}
		item.PurchasePriceCents = cents
	}

	return item, ""
}

// parsePriceCents parses a decimal dollar amount ("12.99", "$1,299.50", "5")
// into cents without going through floating point.
func parsePriceCents(raw string) (int64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, errors.New("empty price")
	}
	if strings.HasPrefix(cleaned, "-") {
		return 0, errors.New("negative price")
	}

	dollarPart := cleaned
	centPart := "0"
	if idx := strings.Index(cleaned, "."); idx >= 0 {
		dollarPart = cleaned[:idx]
		centPart = cleaned[idx+1:]
	}
	if dollarPart == "" {
		dollarPart = "0"
	}
	switch len(centPart) {
	case 0:
		centPart = "0"
	case 1:
		centPart += "0"
	case 2:
	default:
		centPart = centPart[:2]
	}

	dollars, err := strconv.ParseInt(dollarPart, 10, 64)
	if err != nil {
		return 0, err
	}
	cents, err := strconv.ParseInt(centPart, 10, 64)
	if err != nil {
		return 0, err
	}
	if dollars < 0 || cents < 0 {
		return 0, errors.New("negative price")
	}
	return dollars*100 + cents, nil
}
