package analysis

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"sync"
)

// ProgressParser turns a model's textual progress stream into counts. Lines
// look like "<n>it [00:01, 12.3it/s]"; anything else repeats the last count.
type ProgressParser struct {
	mu      sync.Mutex
	current int
	total   int
}

// NewProgressParser creates a parser whose counts report total as the maximum.
func NewProgressParser(total int) *ProgressParser {
	return &ProgressParser{total: total}
}

// Parse reads one progress line and returns the current count and total.
func (p *ProgressParser) Parse(line string) (current, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	head, _, found := strings.Cut(line, "it")
	if found {
		if n, err := strconv.Atoi(strings.TrimSpace(head)); err == nil {
			p.current = n
		}
	}
	return p.current, p.total
}

// Consume parses every line of r and forwards each count to fn until r ends.
// Carriage returns count as line breaks.
func (p *ProgressParser) Consume(r io.Reader, fn ProgressFunc, onLine func(string)) error {
	sc := bufio.NewScanner(r)
	sc.Split(scanProgressLines)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if onLine != nil {
			onLine(line)
		}
		cur, tot := p.Parse(line)
		if fn != nil {
			fn(cur, tot)
		}
	}
	return sc.Err()
}

func scanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
