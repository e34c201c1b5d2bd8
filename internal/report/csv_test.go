package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/jobsage/internal/jsearch"
	"github.com/spigell/jobsage/internal/scoring"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening table: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("reading table: %v", err)
	}
	return records
}

func TestSaveCSVWritesRankedTable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jobs_scored.csv")

	table := Aggregate([]scoring.Scored{
		{
			Listing: jsearch.Listing{
				Title:       "Data Analyst",
				Company:     "Acme",
				Location:    "Austin",
				Link:        "https://acme.example/apply",
				Description: "SQL, with \"quotes\" and, commas",
				Source:      "LinkedIn",
			},
			Score: 80,
		},
		{
			Listing: jsearch.Listing{Title: "BI Analyst", Company: "Globex", Location: "Remote"},
			Score:   95,
		},
	})

	if err := table.SaveCSV(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("expected header and 2 rows, got %d records", len(records))
	}

	for i, column := range Columns {
		if records[0][i] != column {
			t.Fatalf("unexpected header: %v", records[0])
		}
	}

	// Sorted order: 95 first.
	if records[1][0] != "BI Analyst" || records[1][6] != "95" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[2][0] != "Data Analyst" || records[2][4] != "SQL, with \"quotes\" and, commas" {
		t.Fatalf("unexpected second row: %v", records[2])
	}
}

func TestSaveCSVOverwritesPreviousRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jobs_scored.csv")

	big := Aggregate([]scoring.Scored{
		{Listing: jsearch.Listing{Title: "Old A"}, Score: 10},
		{Listing: jsearch.Listing{Title: "Old B"}, Score: 20},
	})
	if err := big.SaveCSV(path); err != nil {
		t.Fatalf("first save: %v", err)
	}

	small := Aggregate([]scoring.Scored{
		{Listing: jsearch.Listing{Title: "New"}, Score: 99},
	})
	if err := small.SaveCSV(path); err != nil {
		t.Fatalf("second save: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("expected header and 1 row after overwrite, got %d records", len(records))
	}
	if records[1][0] != "New" {
		t.Fatalf("expected overwritten table, got %v", records[1])
	}
}

func TestSaveCSVEmptyTable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jobs_scored.csv")

	if err := Aggregate(nil).SaveCSV(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d records", len(records))
	}
}
