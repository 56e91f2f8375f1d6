package rows

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const inputCSV = `product code,description,store_links
P001,Milk 2L,"{'tesco': {'store_link': 'https://www.tesco.com/groceries/product/1'}, 'asda': {'store_link': 'https://groceries.asda.com/product/2'}}"
P002,Bread,"{'morrisons': {'store_link': 'https://groceries.morrisons.com/products/3'}}"
,Missing code,"{'tesco': {'store_link': 'https://www.tesco.com/groceries/product/4'}}"
P004,No links,"{}"
P005,Cheese,"{'waitrose': {'store_link': 'https://www.waitrose.com/ecom/products/5'}}"
`

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReaderRead(t *testing.T) {
	t.Run("reads all usable rows", func(t *testing.T) {
		r := NewReader(writeInput(t, inputCSV), testLogger)
		rows, err := r.Read(0)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 3 {
			t.Fatalf("got %d rows, want 3 (empty code and empty links skipped)", len(rows))
		}
		if rows[0].ProductCode != "P001" || len(rows[0].StoreLinks) != 2 {
			t.Errorf("first row = %+v", rows[0])
		}
		if rows[0].StoreLinks["tesco"] != "https://www.tesco.com/groceries/product/1" {
			t.Errorf("tesco link = %q", rows[0].StoreLinks["tesco"])
		}
	})

	t.Run("limit caps rows", func(t *testing.T) {
		r := NewReader(writeInput(t, inputCSV), testLogger)
		rows, err := r.Read(1)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 || rows[0].ProductCode != "P001" {
			t.Errorf("got %+v, want just P001", rows)
		}
	})

	t.Run("alternative header names", func(t *testing.T) {
		csv := "sku,stores\nP1,\"{'lidl': {'store_link': 'https://www.lidl.co.uk/p/1'}}\"\n"
		rows, err := NewReader(writeInput(t, csv), testLogger).Read(0)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 {
			t.Fatalf("got %d rows, want 1", len(rows))
		}
	})

	t.Run("missing columns is an error", func(t *testing.T) {
		if _, err := NewReader(writeInput(t, "a,b\n1,2\n"), testLogger).Read(0); err == nil {
			t.Error("expected an error for unrecognized headers")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := NewReader("/nonexistent/input.csv", testLogger).Read(0); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}
