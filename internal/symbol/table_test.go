package symbol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternStable(t *testing.T) {
	tbl := NewTable()
	a := tbl.Intern("edge")
	b := tbl.Intern("tc")
	c := tbl.Intern("edge")

	assert.Equal(t, a, c, "re-interning the same string returns the same id")
	assert.NotEqual(t, a, b)
	assert.Equal(t, "edge", tbl.Resolve(a))
	assert.Equal(t, "tc", tbl.Resolve(b))
}

func TestLookupMissing(t *testing.T) {
	tbl := NewTable()
	_, ok := tbl.Lookup("nope")
	assert.False(t, ok)
}

func TestResolveUnknownPanics(t *testing.T) {
	tbl := NewTable()
	assert.Panics(t, func() {
		tbl.Resolve(ID(42))
	})
}

func TestConcurrentIntern(t *testing.T) {
	tbl := NewTable()
	var wg sync.WaitGroup
	ids := make([]ID, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = tbl.Intern("shared")
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, tbl.Len())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}
