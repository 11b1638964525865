package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	itemA = Item{ID: "item-a", Name: "Anvil", PriceCents: 5000, Stock: 10}
	itemB = Item{ID: "item-b", Name: "Bucket", PriceCents: 300, Stock: 2}
	itemC = Item{ID: "item-c", Name: "Crate", PriceCents: 1200, Stock: 7}
)

func TestAddLineAccumulatesQuantity(t *testing.T) {
	cart := NewDraftCart("cust-1", "")

	require.NoError(t, cart.AddLine(itemA, 2))
	require.NoError(t, cart.AddLine(itemA, 3))

	require.Len(t, cart.Lines, 1)
	line := cart.Lines[itemA.ID]
	assert.Equal(t, 5, line.Qty)
	assert.Equal(t, 25000, line.SubtotalCents())
}

func TestAddLineRejectsNonPositiveQuantity(t *testing.T) {
	cart := NewDraftCart("cust-1", "")

	assert.ErrorIs(t, cart.AddLine(itemA, 0), ErrValidation)
	assert.ErrorIs(t, cart.AddLine(itemA, -1), ErrValidation)
	assert.Empty(t, cart.Lines)
}

func TestUpdateLineReplacesQuantity(t *testing.T) {
	cart := NewDraftCart("cust-1", "")
	require.NoError(t, cart.AddLine(itemA, 2))

	require.NoError(t, cart.UpdateLine(itemA.ID, 7))
	assert.Equal(t, 7, cart.Lines[itemA.ID].Qty)
	assert.Equal(t, 35000, cart.TotalCents())
}

func TestUpdateLineZeroRemoves(t *testing.T) {
	cart := NewDraftCart("cust-1", "")
	require.NoError(t, cart.AddLine(itemA, 2))

	require.NoError(t, cart.UpdateLine(itemA.ID, 0))
	assert.Empty(t, cart.Lines)
}

func TestUpdateLineMissingIsNoOp(t *testing.T) {
	cart := NewDraftCart("cust-1", "")

	require.NoError(t, cart.UpdateLine("nope", 3))
	assert.Empty(t, cart.Lines)
}

func TestUpdateLineRejectsNegativeQuantity(t *testing.T) {
	cart := NewDraftCart("cust-1", "")
	require.NoError(t, cart.AddLine(itemA, 2))

	assert.ErrorIs(t, cart.UpdateLine(itemA.ID, -1), ErrValidation)
	assert.Equal(t, 2, cart.Lines[itemA.ID].Qty)
}

func TestRemoveLineMissingIsNoOp(t *testing.T) {
	cart := NewDraftCart("cust-1", "")
	cart.RemoveLine("nope")
	assert.Empty(t, cart.Lines)
}

func TestTotalCentsIsIdempotentAndMatchesLines(t *testing.T) {
	cart := NewDraftCart("cust-1", "")
	require.NoError(t, cart.AddLine(itemA, 3))
	require.NoError(t, cart.AddLine(itemB, 2))

	want := 3*5000 + 2*300
	assert.Equal(t, want, cart.TotalCents())
	assert.Equal(t, want, cart.TotalCents())

	sum := 0
	for _, l := range cart.SortedLines() {
		sum += l.SubtotalCents()
	}
	assert.Equal(t, want, sum)
}

func TestSortedLinesOrderedByItemName(t *testing.T) {
	cart := NewDraftCart("cust-1", "")
	require.NoError(t, cart.AddLine(itemC, 1))
	require.NoError(t, cart.AddLine(itemA, 1))
	require.NoError(t, cart.AddLine(itemB, 1))

	lines := cart.SortedLines()
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"Anvil", "Bucket", "Crate"},
		[]string{lines[0].ItemName, lines[1].ItemName, lines[2].ItemName})
}

func TestAddLineSnapshotsPrice(t *testing.T) {
	cart := NewDraftCart("cust-1", "")
	require.NoError(t, cart.AddLine(itemA, 1))

	// a later price change on the item must not affect the existing line
	changed := itemA
	changed.PriceCents = 9999
	require.NoError(t, cart.AddLine(changed, 1))

	line := cart.Lines[itemA.ID]
	assert.Equal(t, 5000, line.PriceCents)
	assert.Equal(t, 10000, line.SubtotalCents())
}
