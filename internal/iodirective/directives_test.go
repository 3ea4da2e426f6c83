package iodirective

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

func TestLoadDecodesTSVFacts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edge.facts")
	require.NoError(t, os.WriteFile(path, []byte("1\t2\n3\t4\n"), 0o644))

	symbols := symbol.NewTable()
	rel := symbols.Intern("edge")
	set, err := New(symbols, []string{`edge : file("` + path + `")`})
	require.NoError(t, err)

	tuples, err := set.Load(0, rel, 2)
	require.NoError(t, err)
	require.Len(t, tuples, 2)
	assert.Equal(t, ram.Int(1), tuples[0][0])
	assert.Equal(t, ram.Int(2), tuples[0][1])
	assert.Equal(t, ram.Int(3), tuples[1][0])
}

func TestStoreThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.facts")

	symbols := symbol.NewTable()
	rel := symbols.Intern("r")
	set, err := New(symbols, []string{`r : file("` + path + `")`})
	require.NoError(t, err)

	foo := symbols.Intern("foo")
	tuples := []ram.Tuple{{ram.Int(5), ram.Sym(foo)}}
	require.NoError(t, set.Store(0, rel, tuples))

	got, err := set.Load(0, rel, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ram.Int(5), got[0][0])
	assert.Equal(t, foo, got[0][1].SymbolID()) // "foo" re-interned to the same id
}

func TestLoadRejectsUnknownIOIndex(t *testing.T) {
	symbols := symbol.NewTable()
	set, err := New(symbols, nil)
	require.NoError(t, err)

	_, err = set.Load(0, symbols.Intern("r"), 1)
	assert.Error(t, err)
}
