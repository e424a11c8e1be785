package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cardledger/internal/config"
)

// Store manages inventory persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the inventory database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add inserts a new inventory item and returns the stored record.
func (s *Store) Add(ctx context.Context, item *Item) (*Item, error) {
	if item == nil {
		return nil, errors.New("item is nil")
	}
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return nil, errors.New("item name is required")
	}
	category := item.Category
	if category == "" {
		category = CategoryRawCard
	}
	if _, ok := categorySet[category]; !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	quantity := item.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO items (
            name, set_name, card_number, category, condition, quantity,
            purchase_price_cents, notes, image_url, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		name,
		nullableString(strings.TrimSpace(item.SetName)),
		nullableString(strings.TrimSpace(item.CardNumber)),
		string(category),
		nullableString(strings.TrimSpace(item.Condition)),
		quantity,
		item.PurchasePriceCents,
		nullableString(strings.TrimSpace(item.Notes)),
		nullableString(strings.TrimSpace(item.ImageURL)),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches an inventory item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// List returns inventory items filtered by category set (or all items when no
// category is provided), ordered by identifier.
func (s *Store) List(ctx context.Context, categories ...Category) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM items`
	orderClause := ` ORDER BY id`

	if len(categories) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(categories))
		args := make([]any, len(categories))
		for i, category := range categories {
			args[i] = string(category)
		}
		query := baseQuery + ` WHERE category IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ItemsMissingImage returns items without a background image, ordered by
// identifier. A positive limit caps the result set.
func (s *Store) ItemsMissingImage(ctx context.Context, limit int) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE image_url IS NULL OR image_url = '' ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items missing image: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateImageURL assigns a background image URL to the given items and returns
// the number of rows updated. Items that already carry an image are left
// untouched, so repeated writes are harmless and an existing URL is never
// overwritten.
func (s *Store) UpdateImageURL(ctx context.Context, ids []int64, imageURL string) (int64, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return 0, errors.New("image url is required")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, imageURL, time.Now().UTC().Format(time.RFC3339Nano))
	for _, id := range ids {
		args = append(args, id)
	}

	query := `UPDATE items SET image_url = ?, updated_at = ?
        WHERE id IN (` + placeholders + `) AND (image_url IS NULL OR image_url = '')`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update image url: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns inventory counts grouped by category and image coverage.
func (s *Store) Stats(ctx context.Context) (ItemStats, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT category, COUNT(1),
            SUM(CASE WHEN image_url IS NULL OR image_url = '' THEN 1 ELSE 0 END),
            SUM(quantity),
            SUM(quantity * purchase_price_cents)
         FROM items GROUP BY category`,
	)
	if err != nil {
		return ItemStats{}, fmt.Errorf("inventory stats: %w", err)
	}
	defer rows.Close()

	stats := ItemStats{ByCategory: make(map[Category]int)}
	for rows.Next() {
		var category string
		var count int
		var missing, quantity, value sql.NullInt64
		if err := rows.Scan(&category, &count, &missing, &quantity, &value); err != nil {
			return ItemStats{}, err
		}
		stats.ByCategory[Category(category)] = count
		stats.Total += count
		stats.MissingImage += int(missing.Int64)
		stats.Quantity += int(quantity.Int64)
		stats.ValueCents += value.Int64
	}
	stats.WithImage = stats.Total - stats.MissingImage
	return stats, rows.Err()
}

// CheckHealth returns diagnostic information about the inventory database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("inventory database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat inventory database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("inventory database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("inventory database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping inventory database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'items'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
		} else {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		colsRows, err := s.db.QueryContext(connCtx, "PRAGMA table_info(items)")
		if err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("table info: %w", err)
		}
		defer colsRows.Close()

		var columns []string
		for colsRows.Next() {
			var (
				cid     int
				name    string
				typeStr string
				notNull int
				dflt    any
				pk      int
			)
			if err := colsRows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
				health.Error = err.Error()
				return health, fmt.Errorf("scan table info: %w", err)
			}
			columns = append(columns, name)
		}
		if err := colsRows.Err(); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("iterate table info: %w", err)
		}

		expected := []string{"id", "name", "set_name", "card_number", "category", "condition", "quantity", "purchase_price_cents", "notes", "image_url", "created_at", "updated_at"}
		missingMap := make(map[string]struct{}, len(expected))
		for _, col := range expected {
			missingMap[col] = struct{}{}
		}
		for _, col := range columns {
			delete(missingMap, col)
		}
		for col := range missingMap {
			health.MissingColumns = append(health.MissingColumns, col)
		}

		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM items")
		if err := row.Scan(&health.TotalItems); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count items: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

const itemColumns = "id, name, set_name, card_number, category, condition, quantity, purchase_price_cents, notes, image_url, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id          int64
		name        string
		setName     sql.NullString
		cardNumber  sql.NullString
		categoryStr string
		condition   sql.NullString
		quantity    sql.NullInt64
		price       sql.NullInt64
		notes       sql.NullString
		imageURL    sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&name,
		&setName,
		&cardNumber,
		&categoryStr,
		&condition,
		&quantity,
		&price,
		&notes,
		&imageURL,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:                 id,
		Name:               name,
		SetName:            setName.String,
		CardNumber:         cardNumber.String,
		Category:           Category(categoryStr),
		Condition:          condition.String,
		Quantity:           int(quantity.Int64),
		PurchasePriceCents: price.Int64,
		Notes:              notes.String,
		ImageURL:           imageURL.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
