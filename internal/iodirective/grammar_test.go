package iodirective

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileDirective(t *testing.T) {
	d, err := Parse(`edge : file("edge.facts"), format(tsv)`)
	require.NoError(t, err)
	assert.Equal(t, "edge", d.Relation)

	file, ok := d.Param("file")
	require.True(t, ok)
	assert.Equal(t, "edge.facts", file.Arg0())

	format, ok := d.Param("format")
	require.True(t, ok)
	assert.Equal(t, "tsv", format.Arg0())
}

func TestParseStdinDirectiveHasNoFileParam(t *testing.T) {
	d, err := Parse(`tc : stdin, format(tsv)`)
	require.NoError(t, err)
	assert.Equal(t, "tc", d.Relation)
	_, ok := d.Param("file")
	assert.False(t, ok)
	_, ok = d.Param("stdin")
	assert.True(t, ok)
}

func TestParseRejectsMalformed(t *testing.T) {
	_, err := Parse(`edge file("x")`)
	assert.Error(t, err)
}
