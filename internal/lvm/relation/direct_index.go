package relation

import (
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/go-memdb"

	"ramlvm/internal/ram"
)

// directRow is the object go-memdb stores: the raw tuple plus a
// stable string key memdb's primary index requires.
type directRow struct {
	Key    string
	Fields ram.Tuple
}

// attrIndexer indexes directRow by one attribute position, letting
// the `direct` storage kind register "one schema index per registered
// query pattern" (spec.md DOMAIN STACK) instead of hand-rolling a
// position-keyed map.
type attrIndexer struct{ position int }

func (ix *attrIndexer) FromObject(raw interface{}) (bool, []byte, error) {
	row, ok := raw.(*directRow)
	if !ok {
		return false, nil, fmt.Errorf("relation: unexpected object type %T", raw)
	}
	if ix.position >= len(row.Fields) {
		return false, nil, nil
	}
	return true, encodeAttrKey(row.Fields[ix.position]), nil
}

func (ix *attrIndexer) FromArgs(args ...interface{}) ([]byte, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("relation: attrIndexer requires exactly one argument")
	}
	v, ok := args[0].(ram.Value)
	if !ok {
		return nil, fmt.Errorf("relation: unexpected argument type %T", args[0])
	}
	return encodeAttrKey(v), nil
}

func encodeAttrKey(v ram.Value) []byte {
	key := make([]byte, 9)
	key[0] = byte(v.Kind)
	binary.BigEndian.PutUint64(key[1:], v.Bits)
	return key
}

// directRelation is the `direct` storage kind: a multi-index table
// via hashicorp/go-memdb, with one non-unique index per attribute
// position so an IndexScan bound on any single position goes straight
// to memdb's own index instead of a linear scan (spec.md DOMAIN STACK
// "every tuple reachable through every index", matched directly to
// the library's index model).
type directRelation struct {
	arity int
	db    *memdb.MemDB
}

func newDirectRelation(arity int) *directRelation {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"tuples": directTableSchema(arity),
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		// The schema above is built programmatically from arity and
		// can't fail validation; a failure here is a library/schema
		// mismatch bug, not a runtime condition callers can recover
		// from.
		panic(fmt.Sprintf("relation: invalid direct schema: %v", err))
	}
	return &directRelation{arity: arity, db: db}
}

func directTableSchema(arity int) *memdb.TableSchema {
	indexes := map[string]*memdb.IndexSchema{
		"id": {
			Name:    "id",
			Unique:  true,
			Indexer: &memdb.StringFieldIndex{Field: "Key"},
		},
	}
	for i := 0; i < arity; i++ {
		indexes[attrIndexName(i)] = &memdb.IndexSchema{
			Name:    attrIndexName(i),
			Unique:  false,
			Indexer: &attrIndexer{position: i},
		}
	}
	return &memdb.TableSchema{Name: "tuples", Indexes: indexes}
}

func attrIndexName(position int) string { return fmt.Sprintf("attr%d", position) }

func (r *directRelation) Storage() ram.StorageKind { return ram.StorageDirect }
func (r *directRelation) Arity() int                { return r.arity }

func (r *directRelation) Len() int {
	txn := r.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get("tuples", "id")
	if err != nil {
		return 0
	}
	n := 0
	for raw := it.Next(); raw != nil; raw = it.Next() {
		n++
	}
	return n
}

func (r *directRelation) Clear() {
	schema := &memdb.DBSchema{Tables: map[string]*memdb.TableSchema{"tuples": directTableSchema(r.arity)}}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		panic(fmt.Sprintf("relation: invalid direct schema: %v", err))
	}
	r.db = db
}

func (r *directRelation) Insert(t ram.Tuple) bool {
	key := string(encodeTupleKey(t))
	txn := r.db.Txn(true)
	if existing, err := txn.First("tuples", "id", key); err == nil && existing != nil {
		txn.Abort()
		return false
	}
	if err := txn.Insert("tuples", &directRow{Key: key, Fields: t.Clone()}); err != nil {
		txn.Abort()
		panic(fmt.Sprintf("relation: direct insert failed: %v", err))
	}
	txn.Commit()
	return true
}

func (r *directRelation) Contains(pattern Pattern) bool {
	it := r.indexScanRows(pattern)
	return len(it) > 0
}

func (r *directRelation) Scan() Iterator {
	return newSliceIterator(r.All())
}

func (r *directRelation) IndexScan(pattern Pattern) Iterator {
	return newSliceIterator(r.indexScanRows(pattern))
}

// indexScanRows narrows on the first bound position via memdb's own
// index when pattern binds one, then post-filters for any remaining
// bound positions — memdb indexes single fields, not arbitrary
// combinations, so a pattern bound on more than one position still
// needs the filter pass.
func (r *directRelation) indexScanRows(pattern Pattern) []ram.Tuple {
	txn := r.db.Txn(false)
	defer txn.Abort()

	firstBound := -1
	for i, v := range pattern {
		if v != nil {
			firstBound = i
			break
		}
	}

	var rows memdb.ResultIterator
	var err error
	if firstBound >= 0 {
		rows, err = txn.Get("tuples", attrIndexName(firstBound), *pattern[firstBound])
	} else {
		rows, err = txn.Get("tuples", "id")
	}
	if err != nil {
		return nil
	}

	var out []ram.Tuple
	for raw := rows.Next(); raw != nil; raw = rows.Next() {
		row := raw.(*directRow)
		if pattern.matches(row.Fields) {
			out = append(out, row.Fields)
		}
	}
	return out
}

func (r *directRelation) All() []ram.Tuple {
	txn := r.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get("tuples", "id")
	if err != nil {
		return nil
	}
	var out []ram.Tuple
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*directRow).Fields)
	}
	return out
}
