package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartLineOperations(t *testing.T) {
	c := New("user-1")

	c.AddLine(Line{ProductID: "p1", ProductName: "Apples", DiscountedPrice: 40, Quantity: 1})
	c.AddLine(Line{ProductID: "p2", ProductName: "Bananas", DiscountedPrice: 25, Quantity: 2})

	assert.Equal(t, 3, c.TotalItems())
	assert.InDelta(t, 90, c.TotalAmount(), 1e-9)

	require.NoError(t, c.SetQuantity("p1", 3))
	assert.Equal(t, 3, c.Lines[c.FindLine("p1")].Quantity)

	require.NoError(t, c.RemoveLine("p1"))
	assert.Equal(t, -1, c.FindLine("p1"))
	assert.Len(t, c.Lines, 1)

	assert.ErrorIs(t, c.RemoveLine("p1"), ErrLineNotFound)
	assert.ErrorIs(t, c.SetQuantity("missing", 1), ErrLineNotFound)
}

func TestCartAddLineReplacesExisting(t *testing.T) {
	c := New("user-1")
	c.AddLine(Line{ProductID: "p1", Quantity: 1})
	c.AddLine(Line{ProductID: "p1", Quantity: 4})

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 4, c.Lines[0].Quantity)
}

func TestCartCloneIsIndependent(t *testing.T) {
	c := New("user-1")
	c.AddLine(Line{ProductID: "p1", Quantity: 2})

	clone := c.Clone()
	clone.Lines[0].Quantity = 9

	assert.Equal(t, 2, c.Lines[0].Quantity)
}
