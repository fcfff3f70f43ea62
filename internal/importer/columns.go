package importer

import (
	"fmt"
	"strings"
)

// Column describes one logical column located by a header fragment.
type Column struct {
	Key      string
	Match    string
	Required bool
}

// MissingColumnsError lists the required columns a header row lacks.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// Columns maps column keys to their index in the header row.
type Columns map[string]int

// ResolveColumns finds every column of want in header by case-insensitive
// substring match. Columns are resolved in the order given and a header cell
// is claimed by at most one column.
func ResolveColumns(header []string, want []Column) (Columns, error) {
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}

	cols := Columns{}
	used := make([]bool, len(header))
	var missing []string
	for _, c := range want {
		frag := strings.ToLower(c.Match)
		found := -1
		for i, h := range lower {
			if !used[i] && h != "" && strings.Contains(h, frag) {
				found = i
				break
			}
		}
		if found < 0 {
			if c.Required {
				missing = append(missing, c.Match)
			}
			continue
		}
		used[found] = true
		cols[c.Key] = found
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	return cols, nil
}

// Row is one data row with its spreadsheet row number.
type Row struct {
	Number int
	cells  []string
	cols   Columns
}

// Get returns the trimmed cell for key, or "" when the column is absent or
// the row is short.
func (r Row) Get(key string) string {
	i, ok := r.cols[key]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}
