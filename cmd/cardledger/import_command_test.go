package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cardledger/internal/catalog"
	"cardledger/internal/testsupport"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestImportSkipResolve(t *testing.T) {
	env := setupCLITestEnv(t)
	csvPath := writeCSV(t, "name,set,number,quantity,price\n"+
		"Charizard,Base Set,4/102,1,12.99\n"+
		",Jungle,60/64,1,\n"+
		"Pikachu,Jungle,60/64,2,1.50\n")

	out, _, err := runCLI(t, []string{"import", csvPath, "--skip-resolve"}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Imported 2 items (1 rows skipped)")

	items, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "Charizard" || items[0].PurchasePriceCents != 1299 {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].Name != "Pikachu" || items[1].Quantity != 2 || items[1].PurchasePriceCents != 150 {
		t.Fatalf("unexpected second item: %+v", items[1])
	}
}

func TestImportResolvesImportedItems(t *testing.T) {
	server := newCatalogServer(t, map[string][]catalog.Product{
		"charizard 4": {charizardProduct()},
	})
	env := setupCLITestEnv(t, testsupport.WithCatalogEndpoint("test-key", server.URL))
	csvPath := writeCSV(t, "name,set,number\nCharizard,Base Set,4/102\n")

	out, _, err := runCLI(t, []string{"import", csvPath}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Imported 1 items (0 rows skipped)")
	requireContains(t, out, "Resolved")

	item, err := env.store.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.ImageURL != "https://img.example/charizard.png" {
		t.Fatalf("imported item not resolved, image = %q", item.ImageURL)
	}
}

func TestImportMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"import", filepath.Join(t.TempDir(), "missing.csv")}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "open import file") {
		t.Fatalf("expected open error, got %v", err)
	}
}
