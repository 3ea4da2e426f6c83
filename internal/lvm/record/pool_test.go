package record

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ramlvm/internal/ram"
)

func TestPackHashConsesIdenticalFields(t *testing.T) {
	p := New()
	a := p.Pack(ram.Tuple{ram.Int(1), ram.Int(2)})
	b := p.Pack(ram.Tuple{ram.Int(1), ram.Int(2)})
	assert.Equal(t, a, b)
	assert.Equal(t, 1, p.Len())
}

func TestPackDistinguishesDifferentFields(t *testing.T) {
	p := New()
	a := p.Pack(ram.Tuple{ram.Int(1), ram.Int(2)})
	b := p.Pack(ram.Tuple{ram.Int(1), ram.Int(3)})
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, p.Len())
}

func TestPackDistinguishesKindFromBits(t *testing.T) {
	p := New()
	signed := p.Pack(ram.Tuple{ram.Int(0)})
	unsigned := p.Pack(ram.Tuple{ram.Uint(0)})
	assert.NotEqual(t, signed, unsigned)
}

func TestUnpackReturnsPackedFields(t *testing.T) {
	p := New()
	id := p.Pack(ram.Tuple{ram.Int(7), ram.Int(8), ram.Int(9)})
	got := p.Unpack(id)
	assert.True(t, got.Equal(ram.Tuple{ram.Int(7), ram.Int(8), ram.Int(9)}))
}

func TestUnpackUnknownIDPanics(t *testing.T) {
	p := New()
	assert.Panics(t, func() { p.Unpack(ID(42)) })
}

func TestUnpackedSliceIsIndependentOfCallerInput(t *testing.T) {
	p := New()
	fields := ram.Tuple{ram.Int(1)}
	id := p.Pack(fields)
	fields[0] = ram.Int(99)
	got := p.Unpack(id)
	assert.True(t, got.Equal(ram.Tuple{ram.Int(1)}))
}
