package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Columns is the fixed header of the persisted table.
var Columns = []string{"Title", "Company", "Location", "Link", "Description", "Source", "Match%"}

// CSVStore persists result tables to a single CSV file, overwriting the
// previous run's table wholesale.
type CSVStore struct {
	Path string
}

func (s *CSVStore) Save(table *Table) error {
	return table.SaveCSV(s.Path)
}

// SaveCSV writes the full table to path. The write goes through a temp file
// and a rename, so a failed run never leaves a partial table behind.
func (t *Table) SaveCSV(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jobs_scored_*.csv")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := t.writeCSV(tmp); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func (t *Table) writeCSV(file *os.File) error {
	w := csv.NewWriter(file)

	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range t.rows {
		listing := row.Listing
		record := []string{
			listing.Title,
			listing.Company,
			listing.Location,
			listing.Link,
			listing.Description,
			listing.Source,
			strconv.Itoa(row.Score),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
