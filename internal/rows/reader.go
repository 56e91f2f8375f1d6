package rows

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aislescout/aislescout/internal/types"
)

// Reader loads product rows from the input CSV. The export the pipeline
// consumes has at minimum a product-code column and a store-links column;
// header names vary between exports so matching is fuzzy.
type Reader struct {
	path   string
	logger *slog.Logger
}

func NewReader(path string, logger *slog.Logger) *Reader {
	return &Reader{path: path, logger: logger.With("component", "rows")}
}

var codeHeaders = []string{"product code", "product_code", "productcode", "code", "sku"}
var linksHeaders = []string{"store_links", "store links", "storelinks", "stores", "links"}

// Read returns up to limit product rows (limit <= 0 means all). Rows with an
// empty product code or an unrecoverable store-links cell are skipped with a
// warning, never an error; a malformed row must not sink the run.
func (r *Reader) Read(limit int) ([]types.ProductRow, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading input header: %w", err)
	}
	codeIdx := findColumn(header, codeHeaders)
	linksIdx := findColumn(header, linksHeaders)
	if codeIdx < 0 || linksIdx < 0 {
		return nil, fmt.Errorf("input %s: missing product-code or store-links column", r.path)
	}

	var out []types.ProductRow
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			r.logger.Warn("skipping unreadable row", "line", line, "error", err)
			continue
		}
		if codeIdx >= len(record) || linksIdx >= len(record) {
			continue
		}
		code := strings.TrimSpace(record[codeIdx])
		if code == "" {
			continue
		}
		links := ParseStoreLinks(record[linksIdx])
		if len(links) == 0 {
			r.logger.Warn("no store links recovered", "line", line, "product", code)
			continue
		}
		out = append(out, types.ProductRow{ProductCode: code, StoreLinks: links})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	r.logger.Info("input loaded", "rows", len(out), "path", r.path)
	return out, nil
}

func findColumn(header []string, candidates []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, c := range candidates {
			if h == c {
				return i
			}
		}
	}
	return -1
}
