package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/persistorai/tracker/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// importRow is one data row of an import file. Number is 1-based and does
// not count the header.
type importRow struct {
	Number      int
	Title       string
	Description string
	Status      string
	Reporter    string
	Assignee    string
}

// readImportFile reads all of r, consumes the header and returns a sequence
// of rows. Nothing is yielded unless the whole file was read, so a truncated
// or oversized upload fails before any row is imported. A malformed row is
// yielded with a *csv.ParseError and reading continues.
func readImportFile(r io.Reader) (iter.Seq2[importRow, error], error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, models.NewValidationError("file", "csv file is empty")
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, models.NewValidationError("file", "csv header could not be parsed: "+err.Error())
		}

		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}

	var missing []string

	for _, required := range models.RequiredImportColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return nil, models.NewValidationError("file", "missing required columns: "+strings.Join(missing, ", "))
	}

	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}

		return strings.TrimSpace(record[idx])
	}

	return func(yield func(importRow, error) bool) {
		for n := 1; ; n++ {
			record, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				if !yield(importRow{Number: n}, err) {
					return
				}

				continue
			}

			row := importRow{
				Number:      n,
				Title:       field(record, models.ColumnTitle),
				Description: field(record, models.ColumnDescription),
				Status:      field(record, models.ColumnStatus),
				Reporter:    field(record, models.ColumnReporterUsername),
				Assignee:    field(record, models.ColumnAssigneeUsername),
			}

			if !yield(row, nil) {
				return
			}
		}
	}, nil
}
