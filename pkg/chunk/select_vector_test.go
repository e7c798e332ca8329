package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectVectorIdentity(t *testing.T) {
	sel := IncrSelectVectorInPhyFormatFlat()
	require.True(t, sel.Invalid())
	for i := 0; i < 10; i++ {
		assert.Equal(t, i, sel.GetIndex(i))
	}
}

func TestSelectVectorAppendAscending(t *testing.T) {
	sel := NewSelectVector(8)
	require.False(t, sel.Invalid())
	sel.Append(1)
	sel.Append(4)
	sel.Append(7)
	assert.Equal(t, 3, sel.Count)
	assert.Equal(t, []int{1, 4, 7}, sel.Values())

	assert.Panics(t, func() {
		sel.Append(7)
	})
	assert.Panics(t, func() {
		sel.Append(2)
	})
}

func TestSelectVectorReset(t *testing.T) {
	sel := NewSelectVector(4)
	sel.Append(0)
	sel.Append(3)
	sel.Reset()
	assert.Equal(t, 0, sel.Count)
	sel.Append(2)
	assert.Equal(t, []int{2}, sel.Values())
}

func TestSelectVectorSetCount(t *testing.T) {
	sel := NewSelectVector(4)
	sel.SetIndex(0, 5)
	sel.SetIndex(1, 9)
	sel.SetCount(2)
	assert.Equal(t, []int{5, 9}, sel.Values())
	assert.Panics(t, func() {
		sel.SetCount(5)
	})
}
