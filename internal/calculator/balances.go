package calculator

// Participant is a room member as seen by the balance calculator.
type Participant struct {
	UID  string
	Name string
}

// TransactionForBalance represents a transaction with the minimal information
// needed for balance calculations.
type TransactionForBalance struct {
	Amount       float64
	PayerUID     string
	Participants []string // UIDs sharing the cost equally
}

// NetBalances maps a participant UID to a signed amount.
// Positive = owed by the group, negative = owes the group, zero = settled.
type NetBalances map[string]float64

// ComputeNetBalances folds transactions into a net balance per participant.
//
// Algorithm:
//   - Every listed participant starts at 0, so inactive members still appear
//   - For each transaction: each participant owes amount/len(participants),
//     the payer is credited the full amount
//   - Transactions with a non-positive amount or no participants are skipped
//   - UIDs not in the participant list are initialized on first use
//   - Balances within Epsilon of zero are forced to exactly 0
//
// Shares are not rounded here; rounding happens only when settling.
func ComputeNetBalances(participants []Participant, transactions []TransactionForBalance) NetBalances {
	net := make(NetBalances, len(participants))
	for _, p := range participants {
		net[p.UID] = 0
	}

	for _, tx := range transactions {
		if tx.Amount <= 0 || len(tx.Participants) == 0 {
			continue
		}

		share := tx.Amount / float64(len(tx.Participants))
		for _, uid := range tx.Participants {
			net[uid] -= share
		}
		net[tx.PayerUID] += tx.Amount
	}

	// Normalize floating point noise from repeated division
	for uid, amount := range net {
		if isZero(amount) {
			net[uid] = 0
		}
	}

	return net
}

// Sum returns the total of all balances. It is zero, within Epsilon, for any
// result of ComputeNetBalances.
func (n NetBalances) Sum() float64 {
	var total float64
	for _, amount := range n {
		total += amount
	}
	return total
}
