package orders

// Reconcile computes, per item, the signed quantity delta between a draft
// cart and the previously persisted order lines: draft qty minus persisted
// qty. A positive delta consumes stock, a negative delta restores it.
// Items untouched by either side, and items whose quantity is unchanged,
// are absent from the result. A zero-quantity draft line counts as a
// removal (the cart never stores one, but the arithmetic holds regardless).
func Reconcile(persisted []OrderLine, draft *DraftCart) map[string]int {
	deltas := map[string]int{}
	for _, l := range persisted {
		deltas[l.ItemID] -= l.Qty
	}
	if draft != nil {
		for _, l := range draft.Lines {
			deltas[l.ItemID] += l.Qty
		}
	}
	for id, d := range deltas {
		if d == 0 {
			delete(deltas, id)
		}
	}
	return deltas
}
