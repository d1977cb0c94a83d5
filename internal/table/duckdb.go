package table

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// DuckDBReader loads delimited files through DuckDB's CSV sniffer, which
// detects delimiters, quoting and headers more leniently than encoding/csv.
type DuckDBReader struct {
	db *sql.DB
}

// OpenDuckDB opens an in-memory DuckDB connection for reading uploads.
func OpenDuckDB(ctx context.Context) (*DuckDBReader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	return &DuckDBReader{db: db}, nil
}

// NewDuckDBReader wraps an existing connection.
func NewDuckDBReader(db *sql.DB) *DuckDBReader {
	return &DuckDBReader{db: db}
}

// Close closes the DuckDB connection.
func (d *DuckDBReader) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// ReadFile reads a delimited file with every column as text.
func (d *DuckDBReader) ReadFile(ctx context.Context, path string) (*Frame, error) {
	if d.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query := fmt.Sprintf("SELECT * FROM read_csv_auto(%s, header = true, all_varchar = true)", quoteLiteral(path))
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	f := &Frame{Header: cols}
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = v.String
		}
		f.Rows = append(f.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// Read spools r to a temporary file so DuckDB can sniff it.
func (d *DuckDBReader) Read(ctx context.Context, name string, r io.Reader) (*Frame, error) {
	tmp, err := os.CreateTemp("", "dysregnet-*"+filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to spool upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	return d.ReadFile(ctx, tmp.Name())
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
