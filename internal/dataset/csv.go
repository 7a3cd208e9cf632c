package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wonny/demandprep/internal/contracts"
)

// ReadCSV decodes a header + rows CSV into a dataset
// Unknown columns are carried in Record.Extra.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, contracts.ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	ds := New(header...)
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		rec := &Record{}
		for i, col := range header {
			if i < len(row) {
				rec.Set(col, row[i])
			} else {
				rec.Set(col, "")
			}
		}
		ds.Records = append(ds.Records, rec)
	}

	if ds.Len() == 0 {
		return nil, contracts.ErrEmptyDataset
	}
	return ds, nil
}

// WriteCSV encodes the dataset using its column order as the header
func WriteCSV(w io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(ds.Columns))
	for _, rec := range ds.Records {
		for i, col := range ds.Columns {
			row[i] = rec.Cell(col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
