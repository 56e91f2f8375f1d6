// Package aisleid matches extracted breadcrumb trails against a reference
// aisle taxonomy so downstream consumers get a stable aisle ID instead of a
// free-text trail.
package aisleid

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// MinConfidence is the similarity floor below which no match is reported.
const MinConfidence = 0.5

// Entry is one taxonomy row.
type Entry struct {
	ID   string
	Path []string
}

// Matcher resolves breadcrumb trails to taxonomy aisle IDs. Lookup is
// exact-path first, then leaf-name, then token-overlap similarity.
type Matcher struct {
	entries []Entry
	byPath  map[string]int
	byLeaf  map[string][]int
	keyword map[string][]int
	logger  *slog.Logger
}

// Load reads the taxonomy CSV. Expected columns: aisle_id, aisle (a
// " > "-joined path). Extra columns are ignored.
func Load(path string, logger *slog.Logger) (*Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening aisle taxonomy: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy header: %w", err)
	}
	idIdx, pathIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "aisle_id", "aisle id", "id":
			idIdx = i
		case "aisle", "path", "aisle_path":
			pathIdx = i
		}
	}
	if idIdx < 0 || pathIdx < 0 {
		return nil, fmt.Errorf("taxonomy %s: missing aisle_id or aisle column", path)
	}

	m := &Matcher{
		byPath:  make(map[string]int),
		byLeaf:  make(map[string][]int),
		keyword: make(map[string][]int),
		logger:  logger.With("component", "aisleid"),
	}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil || idIdx >= len(record) || pathIdx >= len(record) {
			continue
		}
		id := strings.TrimSpace(record[idIdx])
		segments := splitPath(record[pathIdx])
		if id == "" || len(segments) == 0 {
			continue
		}
		m.add(Entry{ID: id, Path: segments})
	}
	m.logger.Info("aisle taxonomy loaded", "entries", len(m.entries), "path", path)
	return m, nil
}

func (m *Matcher) add(e Entry) {
	idx := len(m.entries)
	m.entries = append(m.entries, e)

	m.byPath[joinKey(e.Path)] = idx
	leaf := strings.ToLower(e.Path[len(e.Path)-1])
	m.byLeaf[leaf] = append(m.byLeaf[leaf], idx)
	for _, tok := range pathTokens(e.Path) {
		m.keyword[tok] = append(m.keyword[tok], idx)
	}
}

// Len reports the number of taxonomy entries.
func (m *Matcher) Len() int { return len(m.entries) }

// Match resolves a breadcrumb trail to an aisle ID with a confidence in
// [0,1]. ok is false when nothing clears MinConfidence.
func (m *Matcher) Match(breadcrumbs []string) (id string, confidence float64, ok bool) {
	if m == nil || len(breadcrumbs) == 0 || len(m.entries) == 0 {
		return "", 0, false
	}

	if idx, hit := m.byPath[joinKey(breadcrumbs)]; hit {
		return m.entries[idx].ID, 1.0, true
	}

	leaf := strings.ToLower(strings.TrimSpace(breadcrumbs[len(breadcrumbs)-1]))
	if candidates := m.byLeaf[leaf]; len(candidates) > 0 {
		idx := m.bestOverlap(breadcrumbs, candidates)
		return m.entries[idx].ID, 0.9, true
	}

	// Gather candidates sharing any token, then rank by overlap.
	seen := make(map[int]struct{})
	var candidates []int
	for _, tok := range pathTokens(breadcrumbs) {
		for _, idx := range m.keyword[tok] {
			if _, dup := seen[idx]; !dup {
				seen[idx] = struct{}{}
				candidates = append(candidates, idx)
			}
		}
	}
	if len(candidates) == 0 {
		return "", 0, false
	}
	idx := m.bestOverlap(breadcrumbs, candidates)
	score := overlap(pathTokens(breadcrumbs), pathTokens(m.entries[idx].Path))
	if score < MinConfidence {
		return "", score, false
	}
	return m.entries[idx].ID, score, true
}

func (m *Matcher) bestOverlap(breadcrumbs []string, candidates []int) int {
	trail := pathTokens(breadcrumbs)
	best, bestScore := candidates[0], -1.0
	for _, idx := range candidates {
		if s := overlap(trail, pathTokens(m.entries[idx].Path)); s > bestScore {
			best, bestScore = idx, s
		}
	}
	return best
}

// overlap is Jaccard similarity over token sets.
func overlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	shared := 0
	union := len(set)
	for _, t := range b {
		if _, ok := set[t]; ok {
			shared++
		} else {
			union++
		}
	}
	return float64(shared) / float64(union)
}

func splitPath(s string) []string {
	var parts []string
	switch {
	case strings.Contains(s, ">"):
		parts = strings.Split(s, ">")
	case strings.Contains(s, "/"):
		parts = strings.Split(s, "/")
	default:
		parts = []string{s}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinKey(path []string) string {
	lower := make([]string, len(path))
	for i, p := range path {
		lower[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(lower, " > ")
}

func pathTokens(path []string) []string {
	var out []string
	for _, seg := range path {
		for _, tok := range strings.Fields(strings.ToLower(seg)) {
			tok = strings.Trim(tok, "&,.-")
			if len(tok) > 2 {
				out = append(out, tok)
			}
		}
	}
	return out
}
