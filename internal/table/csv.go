package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadDelimited reads a delimited text table with a header row.
func ReadDelimited(r io.Reader, comma rune) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty table")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	f := &Frame{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(f.Rows)+1, err)
		}
		if isBlank(rec) {
			continue
		}
		f.Rows = append(f.Rows, rec)
	}
	return f, nil
}

// ReadCSV reads a comma separated table.
func ReadCSV(r io.Reader) (*Frame, error) {
	return ReadDelimited(r, ',')
}

// ReadTSV reads a tab separated table.
func ReadTSV(r io.Reader) (*Frame, error) {
	return ReadDelimited(r, '\t')
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
