package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramlvm/internal/ram"
)

func allKinds() []ram.StorageKind {
	return []ram.StorageKind{ram.StorageBTree, ram.StorageBrie, ram.StorageDirect}
}

func drain(it Iterator) []ram.Tuple {
	var out []ram.Tuple
	for it.NotAtEnd() {
		out = append(out, it.Select())
		it.Inc()
	}
	return out
}

func TestInsertIsIdempotentAcrossStorageKinds(t *testing.T) {
	for _, kind := range allKinds() {
		rel := New(2, kind)
		assert.True(t, rel.Insert(ram.Tuple{ram.Int(1), ram.Int(2)}))
		assert.False(t, rel.Insert(ram.Tuple{ram.Int(1), ram.Int(2)}))
		assert.Equal(t, 1, rel.Len())
	}
}

func TestEveryTupleReachableThroughScan(t *testing.T) {
	for _, kind := range allKinds() {
		rel := New(2, kind)
		rel.Insert(ram.Tuple{ram.Int(1), ram.Int(2)})
		rel.Insert(ram.Tuple{ram.Int(3), ram.Int(4)})
		got := drain(rel.Scan())
		require.Len(t, got, 2)
	}
}

func TestIndexScanNarrowsOnBoundPrefix(t *testing.T) {
	for _, kind := range allKinds() {
		rel := New(2, kind)
		rel.Insert(ram.Tuple{ram.Int(1), ram.Int(2)})
		rel.Insert(ram.Tuple{ram.Int(1), ram.Int(3)})
		rel.Insert(ram.Tuple{ram.Int(2), ram.Int(9)})

		v := ram.Int(1)
		pattern := Pattern{&v, nil}
		got := drain(rel.IndexScan(pattern))
		require.Len(t, got, 2)
		for _, tup := range got {
			assert.Equal(t, int64(1), tup[0].Int64())
		}
	}
}

func TestContainsReflectsPattern(t *testing.T) {
	for _, kind := range allKinds() {
		rel := New(2, kind)
		rel.Insert(ram.Tuple{ram.Int(5), ram.Int(6)})

		hit := ram.Int(5)
		miss := ram.Int(7)
		assert.True(t, rel.Contains(Pattern{&hit, nil}))
		assert.False(t, rel.Contains(Pattern{&miss, nil}))
	}
}

func TestClearEmptiesButKeepsRelationUsable(t *testing.T) {
	for _, kind := range allKinds() {
		rel := New(2, kind)
		rel.Insert(ram.Tuple{ram.Int(1), ram.Int(2)})
		rel.Clear()
		assert.Equal(t, 0, rel.Len())
		assert.True(t, rel.Insert(ram.Tuple{ram.Int(1), ram.Int(2)}))
		assert.Equal(t, 1, rel.Len())
	}
}

func TestEqrelStoresBinaryPairs(t *testing.T) {
	rel := New(2, ram.StorageEqrel)
	assert.True(t, rel.Insert(ram.Tuple{ram.Int(1), ram.Int(2)}))
	assert.False(t, rel.Insert(ram.Tuple{ram.Int(1), ram.Int(2)}))
	assert.Equal(t, 1, rel.Len())
	assert.Equal(t, ram.StorageEqrel, rel.Storage())
}

func TestManagerCreateRejectsDuplicateName(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Create(1, 2, ram.StorageBTree))
	assert.Error(t, m.Create(1, 2, ram.StorageBTree))
}

func TestManagerMergeCopiesAllTuples(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Create(1, 1, ram.StorageBTree))
	require.NoError(t, m.Create(2, 1, ram.StorageBTree))
	m.Get(1).Insert(ram.Tuple{ram.Int(1)})
	m.Get(1).Insert(ram.Tuple{ram.Int(2)})
	m.Merge(2, 1)
	assert.Equal(t, 2, m.Get(2).Len())
}

func TestManagerSwapExchangesBindings(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Create(1, 1, ram.StorageBTree))
	require.NoError(t, m.Create(2, 1, ram.StorageBTree))
	m.Get(1).Insert(ram.Tuple{ram.Int(42)})
	m.Swap(1, 2)
	assert.Equal(t, 1, m.Get(2).Len())
	assert.Equal(t, 0, m.Get(1).Len())
}

func TestManagerDropRemovesRelation(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Create(1, 1, ram.StorageBTree))
	m.Drop(1)
	assert.Panics(t, func() { m.Get(1) })
}
