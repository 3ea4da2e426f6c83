// Package record implements the record pool (spec.md §3 "Record
// Pool"): an append-only integer -> tuple mapping for the fixed-width
// field sequences produced by LVM_PackRecord and consumed by
// LVM_UnpackRecord. Records with identical field sequences share one
// id (hash-consed), mirroring the way internal/symbol interns strings.
package record

import (
	"strconv"
	"strings"
	"sync"

	"ramlvm/internal/ram"
)

// ID identifies one packed record. Ids are stable for the process
// lifetime and assigned in insertion order starting at 0.
type ID int32

// Pool is an append-only, hash-consed record -> id mapping. Readers
// are concurrent; writers (Pack of a not-yet-seen field sequence) are
// serialized, matching the symbol table's policy (spec.md §5 "Shared
// resource policy").
type Pool struct {
	mu     sync.RWMutex
	byID   []ram.Tuple
	lookup map[string]ID
}

// New creates an empty record pool.
func New() *Pool {
	return &Pool{lookup: make(map[string]ID)}
}

// Pack returns the id for fields, allocating one if this exact field
// sequence has not been packed before. fields is copied; the caller's
// slice may be reused afterward.
func (p *Pool) Pack(fields ram.Tuple) ID {
	key := encodeKey(fields)

	p.mu.RLock()
	if id, ok := p.lookup[key]; ok {
		p.mu.RUnlock()
		return id
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.lookup[key]; ok {
		return id
	}
	id := ID(len(p.byID))
	p.byID = append(p.byID, fields.Clone())
	p.lookup[key] = id
	return id
}

// Unpack returns the field sequence for id. Panics if id was never
// packed by this pool; the evaluator's recover reports such a panic as
// an evaluation fault.
func (p *Pool) Unpack(id ID) ram.Tuple {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(p.byID) {
		panic("record: unpack of unknown id")
	}
	return p.byID[id]
}

// Len returns the number of distinct records packed so far.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byID)
}

// encodeKey builds a lookup key that distinguishes records differing
// only in a field's Kind (a signed 0 and an unsigned 0 are different
// records) as well as in Bits.
func encodeKey(fields ram.Tuple) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteByte(byte(f.Kind))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(f.Bits, 16))
		b.WriteByte(',')
	}
	return b.String()
}
