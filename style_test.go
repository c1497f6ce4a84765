package gridflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStylePoolDeduplicatesByStructure(t *testing.T) {
	pool := NewStylePool()
	bold := DefaultStyle
	bold.Font.Bold = true

	id1 := pool.GetOrInsert(bold)
	id2 := pool.GetOrInsert(bold)
	assert.Equal(t, id1, id2, "identical styles must share one pool slot")

	italic := DefaultStyle
	italic.Font.Italic = true
	id3 := pool.GetOrInsert(italic)
	assert.NotEqual(t, id1, id3)
}

func TestStylePoolDefaultStyleIsZero(t *testing.T) {
	pool := NewStylePool()
	id := pool.GetOrInsert(DefaultStyle)
	assert.Equal(t, uint32(0), id)
}

func TestStringPoolInternsByValue(t *testing.T) {
	pool := NewStringPool()
	a := pool.Intern("hello")
	b := pool.Intern("hello")
	assert.Same(t, a, b, "identical strings must share one pool entry")

	c := pool.Intern("world")
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, pool.Len())
}

func TestStyleCloneIsIndependent(t *testing.T) {
	s := DefaultStyle
	s.Font.Bold = true
	clone := s.Clone()
	clone.Font.Bold = false
	assert.True(t, s.Font.Bold)
	assert.False(t, clone.Font.Bold)
}
