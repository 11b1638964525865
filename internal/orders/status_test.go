package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateOfFlagPrecedence(t *testing.T) {
	assert.Equal(t, StateOpen, StateOf(&Order{}))
	assert.Equal(t, StateClosed, StateOf(&Order{Closed: true}))
	assert.Equal(t, StateArchived, StateOf(&Order{Closed: true, Archived: true}))
	assert.Equal(t, StateDeleted, StateOf(&Order{Closed: true, Deleted: true}))
	assert.Equal(t, StateDeleted, StateOf(&Order{Closed: true, Archived: true, Deleted: true}))
}

func TestCanTransition(t *testing.T) {
	for _, tc := range []struct {
		from, to State
		want     bool
	}{
		{StateOpen, StateClosed, true},
		{StateOpen, StateDeleted, true},
		{StateOpen, StateArchived, false},
		{StateClosed, StateOpen, true},
		{StateClosed, StateArchived, true},
		{StateClosed, StateDeleted, true},
		{StateArchived, StateDeleted, false},
		{StateArchived, StateOpen, false},
		{StateDeleted, StateOpen, false},
		{StateDeleted, StateClosed, false},
	} {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestEditable(t *testing.T) {
	assert.True(t, Editable(StateOpen))
	assert.True(t, Editable(StateClosed))
	assert.False(t, Editable(StateArchived))
	assert.False(t, Editable(StateDeleted))
}
