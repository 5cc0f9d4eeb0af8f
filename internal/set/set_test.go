package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_Union(t *testing.T) {
	s1 := New(1, 2, 3)
	s2 := New(3, 4, 5)

	assert.Equal(t, New(1, 2, 3, 4, 5), s1.Union(s2))
	assert.Equal(t, New(1, 2, 3), s1)
	assert.Equal(t, New(3, 4, 5), s2)
}

func TestSet_Intersect(t *testing.T) {
	s1 := New(1, 2, 3, 4)
	s2 := New(3, 4, 5, 6)

	assert.Equal(t, New(3, 4), s1.Intersect(s2))
	assert.Equal(t, New[int](), s1.Intersect(New(7)))
}

func TestSet_Difference(t *testing.T) {
	s1 := New(1, 2, 3, 4)
	s2 := New(3, 4, 5, 6)

	assert.Equal(t, New(1, 2), s1.Difference(s2))
	assert.Equal(t, New(5, 6), s2.Difference(s1))
}

func TestEquals(t *testing.T) {
	assert.True(t, New(1, 2, 3).Equals(New(1, 2, 3)))
	assert.True(t, New(1, 2, 3).Equals(New(3, 2, 1)))
	assert.True(t, New(1, 1, 1).Equals(New(1, 1, 1)))
	assert.True(t, New[int]().Equals(New[int]()))
	assert.False(t, New(1, 2, 3).Equals(New(1, 2)))
	assert.False(t, New(1, 2).Equals(New(1, 2, 3)))
	assert.False(t, New(1).Equals(New(2)))
}
