package calculator

import (
	"cmp"
	"slices"
)

// Settlement is a directed payment: From pays To the given Amount.
type Settlement struct {
	FromUID string
	ToUID   string
	Amount  float64 // Always > 0, rounded to 2 decimals
}

type party struct {
	uid    string
	amount float64
}

// ComputeSettlements produces a short list of transfers that brings every
// balance in net to zero.
//
// Greedy algorithm: match the largest debt with the largest credit, pay the
// smaller of the two, and move on from whichever side is exhausted. This is
// O(n log n) and usually close to minimal, but it is not guaranteed to find
// the fewest possible transfers.
//
// Equal amounts are ordered by UID so the plan is deterministic.
func ComputeSettlements(net NetBalances) []Settlement {
	var debtors, creditors []party
	for uid, amount := range net {
		if amount < 0 {
			debtors = append(debtors, party{uid: uid, amount: -amount}) // Make positive
		} else if amount > 0 {
			creditors = append(creditors, party{uid: uid, amount: amount})
		}
	}
	slices.SortFunc(debtors, byAmountDesc)
	slices.SortFunc(creditors, byAmountDesc)

	transfers := []Settlement{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		pay := min(d.amount, c.amount)
		if rounded := Round2(pay); pay > Epsilon && rounded > 0 {
			transfers = append(transfers, Settlement{
				FromUID: d.uid,
				ToUID:   c.uid,
				Amount:  rounded,
			})
		}

		d.amount -= pay
		c.amount -= pay

		if d.amount <= Epsilon {
			i++
		}
		if c.amount <= Epsilon {
			j++
		}
	}

	return transfers
}

func byAmountDesc(a, b party) int {
	if c := cmp.Compare(b.amount, a.amount); c != 0 {
		return c
	}
	return cmp.Compare(a.uid, b.uid)
}
