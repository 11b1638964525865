package orders

type State string

const (
	StateOpen     State = "OPEN"
	StateClosed   State = "CLOSED"
	StateArchived State = "ARCHIVED"
	StateDeleted  State = "DELETED"
)

// StateOf derives the lifecycle state from the order's flags. Deleted wins
// over everything, archived over closed.
func StateOf(o *Order) State {
	switch {
	case o.Deleted:
		return StateDeleted
	case o.Archived:
		return StateArchived
	case o.Closed:
		return StateClosed
	default:
		return StateOpen
	}
}

var validNext = map[State]map[State]bool{
	StateOpen:     {StateClosed: true, StateDeleted: true},
	StateClosed:   {StateOpen: true, StateArchived: true, StateDeleted: true},
	StateArchived: {},
	StateDeleted:  {},
}

func CanTransition(from, to State) bool {
	return validNext[from][to]
}

// Editable reports whether the order's lines may still be changed. Archived
// orders are a durable audit record and deleted orders only exist for audit.
func Editable(s State) bool {
	return s == StateOpen || s == StateClosed
}
