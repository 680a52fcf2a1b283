// Package export writes application records as CSV for spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jobtrail/jobtrail/internal/store"
)

var csvHeader = []string{
	"ID",
	"Company",
	"Role",
	"Job Type",
	"Country",
	"Source",
	"Date Applied",
	"Resume Version",
	"Status",
	"Status Date",
	"Notes",
}

// WriteCSV streams the applications to w as a CSV document.
func WriteCSV(w io.Writer, apps []store.Application) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, app := range apps {
		record := []string{
			strconv.FormatInt(app.ID, 10),
			app.Company,
			app.Role,
			app.JobType,
			app.Country,
			app.Source,
			app.DateApplied,
			app.ResumeVersion,
			string(app.Status),
			app.StatusDate,
			app.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}

// WriteFile exports the applications to a CSV file at path.
func WriteFile(path string, apps []store.Application) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, apps); err != nil {
		return err
	}
	return f.Close()
}
