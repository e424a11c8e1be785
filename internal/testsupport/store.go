package testsupport

import (
	"context"
	"testing"

	"cardledger/internal/config"
	"cardledger/internal/inventory"
)

// MustOpenStore opens an inventory.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *inventory.Store {
	t.Helper()

	store, err := inventory.Open(cfg)
	if err != nil {
		t.Fatalf("inventory.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewItem creates a raw card item for tests using the provided store.
func NewItem(t testing.TB, store *inventory.Store, name, setName, cardNumber string) *inventory.Item {
	t.Helper()

	item, err := store.Add(context.Background(), &inventory.Item{
		Name:       name,
		SetName:    setName,
		CardNumber: cardNumber,
		Category:   inventory.CategoryRawCard,
	})
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return item
}
