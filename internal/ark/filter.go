package ark

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// RetainFilter is the set of identifiers a Reader keeps. A nil filter keeps
// every record; a non-nil empty filter keeps none.
type RetainFilter map[string]struct{}

// NewRetainFilter builds a filter from the given identifiers.
func NewRetainFilter(ids ...string) RetainFilter {
	f := make(RetainFilter, len(ids))
	for _, id := range ids {
		f[id] = struct{}{}
	}
	return f
}

// Retains reports whether records named id pass the filter.
func (f RetainFilter) Retains(id string) bool {
	if f == nil {
		return true
	}
	_, ok := f[id]
	return ok
}

// ReadRetainFilter reads one identifier per line. Surrounding whitespace is
// trimmed and blank lines are skipped.
func ReadRetainFilter(r io.Reader) (RetainFilter, error) {
	f := RetainFilter{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		f[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read retain filter: %w", err)
	}
	return f, nil
}
