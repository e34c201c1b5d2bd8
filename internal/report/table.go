// Package report ranks scored listings and persists the result table.
package report

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"

	"github.com/spigell/jobsage/internal/scoring"
)

// Table is the ranked result of one run: scored listings ordered by match
// score descending, ties keeping their fetch order. Thresholds are applied at
// read time only; the full table is what gets persisted.
type Table struct {
	rows []scoring.Scored
}

// Aggregate builds a table from the scored listings. The input is copied and
// stably sorted, so aggregating an already-aggregated table reproduces it.
func Aggregate(scored []scoring.Scored) *Table {
	rows := make([]scoring.Scored, len(scored))
	copy(rows, scored)

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score > rows[j].Score
	})

	return &Table{rows: rows}
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Rows() []scoring.Scored {
	return t.rows
}

// Filtered returns the rows at or above the threshold, in table order.
func (t *Table) Filtered(threshold int) []scoring.Scored {
	out := make([]scoring.Scored, 0, len(t.rows))
	for _, row := range t.rows {
		if row.Score >= threshold {
			out = append(out, row)
		}
	}
	return out
}

// ByCompany groups the table rows by company for reporting.
func (t *Table) ByCompany() map[string][]map[string]string {
	grouped := make(map[string][]map[string]string)
	for _, row := range t.rows {
		listing := row.Listing
		grouped[listing.Company] = append(grouped[listing.Company], map[string]string{
			"title":    listing.Title,
			"location": listing.Location,
			"link":     listing.Link,
			"source":   listing.Source,
			"match":    strconv.Itoa(row.Score),
		})
	}
	return grouped
}

// DumpToTmpFile writes the table rows to a temporary JSON file and returns its name.
func (t *Table) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "listings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.rows); err != nil {
		return "", err
	}
	return file.Name(), nil
}
