package ark

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
)

// Archive is an ordered mapping from identifier to matrix. Iteration follows
// first insertion order.
type Archive struct {
	keys  []string
	items map[string]*Matrix
}

// NewArchive returns an empty archive.
func NewArchive() *Archive {
	return &Archive{items: make(map[string]*Matrix)}
}

// Set stores m under id. A new id is appended to the iteration order; an
// existing id keeps its position.
func (a *Archive) Set(id string, m *Matrix) error {
	if err := ValidateIdentifier(id); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("ark: nil matrix for %q", id)
	}
	if a.items == nil {
		a.items = make(map[string]*Matrix)
	}
	if _, ok := a.items[id]; !ok {
		a.keys = append(a.keys, id)
	}
	a.items[id] = m
	return nil
}

// Get returns the matrix stored under id.
func (a *Archive) Get(id string) (*Matrix, bool) {
	m, ok := a.items[id]
	return m, ok
}

// Has reports whether id is present.
func (a *Archive) Has(id string) bool {
	_, ok := a.items[id]
	return ok
}

// Delete removes id, reporting whether it was present.
func (a *Archive) Delete(id string) bool {
	if _, ok := a.items[id]; !ok {
		return false
	}
	delete(a.items, id)
	for i, k := range a.keys {
		if k == id {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of entries.
func (a *Archive) Len() int { return len(a.keys) }

// Keys returns a copy of the identifiers in iteration order.
func (a *Archive) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// All iterates over the entries in insertion order.
func (a *Archive) All() iter.Seq2[string, *Matrix] {
	return func(yield func(string, *Matrix) bool) {
		for _, id := range a.keys {
			if !yield(id, a.items[id]) {
				return
			}
		}
	}
}

// Equal reports whether both archives hold the same identifiers mapped to
// equal matrices. Order is not compared. Two nil archives are equal.
func (a *Archive) Equal(other *Archive) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.Len() != other.Len() {
		return false
	}
	for id, m := range a.All() {
		o, ok := other.Get(id)
		if !ok || !m.Equal(o) {
			return false
		}
	}
	return true
}

// ValidateIdentifier checks that id is a non-empty whitespace-free token.
func ValidateIdentifier(id string) error {
	if id == "" {
		return ErrInvalidIdentifier
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidIdentifier, id)
	}
	return nil
}
