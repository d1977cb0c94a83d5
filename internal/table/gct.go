package table

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// GCT column names carrying gene identifiers.
const (
	GCTNameColumn        = "Name"
	GCTDescriptionColumn = "Description"
)

// ReadGCT reads a GCT 1.2 file ("#1.2", a dimensions line, then a tab
// separated table headed Name, Description, samples...). Gzip input is
// detected from its magic bytes.
func ReadGCT(r io.Reader) (*Frame, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer func() { _ = zr.Close() }()
		br = bufio.NewReader(zr)
	}

	version, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read gct version: %w", err)
	}
	if !strings.HasPrefix(version, "#1.") {
		return nil, fmt.Errorf("not a gct file: unexpected version line %q", version)
	}

	dims, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read gct dimensions: %w", err)
	}
	nRows, nCols, err := parseDims(dims)
	if err != nil {
		return nil, err
	}

	f, err := ReadTSV(br)
	if err != nil {
		return nil, err
	}
	if len(f.Header) < 2 || f.Header[0] != GCTNameColumn || f.Header[1] != GCTDescriptionColumn {
		return nil, fmt.Errorf("gct header must start with %s and %s", GCTNameColumn, GCTDescriptionColumn)
	}
	if len(f.Rows) != nRows || len(f.Header)-2 != nCols {
		return nil, fmt.Errorf("gct declares %dx%d but contains %dx%d", nRows, nCols, len(f.Rows), len(f.Header)-2)
	}
	return f, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseDims(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("invalid gct dimensions line %q", line)
	}
	rows, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid gct row count %q", fields[0])
	}
	cols, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid gct column count %q", fields[1])
	}
	return rows, cols, nil
}
