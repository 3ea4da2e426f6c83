package iodirective

import (
	"fmt"
	"os"

	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

// entry is one resolved IOindex: where Load reads from, where Store
// writes to, and whichever of the two applies (a directive can name
// either or both — spec.md §6 doesn't require load/store pairing).
type entry struct {
	relation string
	path     string // "" means stdin (Load) / stdout (Store)
}

// DirectiveSet resolves IOindex values against a fixed list of parsed
// directive descriptions, and implements eval.Directives against
// plain files (or stdin/stdout) in TSV format.
type DirectiveSet struct {
	symbols *symbol.Table
	entries []entry
}

// New parses descriptions in IOindex order. A malformed description
// is a configuration error, reported immediately rather than deferred
// to the first Load/Store that reaches it.
func New(symbols *symbol.Table, descriptions []string) (*DirectiveSet, error) {
	entries := make([]entry, len(descriptions))
	for i, desc := range descriptions {
		d, err := Parse(desc)
		if err != nil {
			return nil, fmt.Errorf("iodirective: directive %d (%q): %w", i, desc, err)
		}
		e := entry{relation: d.Relation}
		if p, ok := d.Param("file"); ok {
			e.path = p.Arg0()
		}
		entries[i] = e
	}
	return &DirectiveSet{symbols: symbols, entries: entries}, nil
}

func (d *DirectiveSet) entry(ioIndex int) (entry, error) {
	if ioIndex < 0 || ioIndex >= len(d.entries) {
		return entry{}, fmt.Errorf("iodirective: IOindex %d out of range (have %d directives)", ioIndex, len(d.entries))
	}
	return d.entries[ioIndex], nil
}

// Load implements eval.Directives.
func (d *DirectiveSet) Load(ioIndex int, relation symbol.ID, arity int) ([]ram.Tuple, error) {
	e, err := d.entry(ioIndex)
	if err != nil {
		return nil, err
	}

	if e.path == "" {
		return decodeAll(os.Stdin, arity, d.symbols)
	}

	f, err := os.Open(e.path)
	if err != nil {
		return nil, fmt.Errorf("iodirective: load %s: %w", e.relation, err)
	}
	defer f.Close()
	return decodeAll(f, arity, d.symbols)
}

// Store implements eval.Directives.
func (d *DirectiveSet) Store(ioIndex int, relation symbol.ID, tuples []ram.Tuple) error {
	e, err := d.entry(ioIndex)
	if err != nil {
		return err
	}

	if e.path == "" {
		return encodeAll(os.Stdout, tuples, d.symbols)
	}

	f, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("iodirective: store %s: %w", e.relation, err)
	}
	defer f.Close()
	return encodeAll(f, tuples, d.symbols)
}
