package service

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitroom/internal/calculator"
	"github.com/mmynk/splitroom/internal/metrics"
	"github.com/mmynk/splitroom/internal/models"
	"github.com/mmynk/splitroom/internal/money"
	"github.com/mmynk/splitroom/internal/storage"
)

// loadSummary reads the room's participants and transactions in parallel and
// recomputes balances from scratch.
func loadSummary(ctx context.Context, store storage.Store, m *metrics.Metrics, roomCode string) (*models.Summary, error) {
	var (
		participants []models.Participant
		transactions []models.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		participants, err = store.ListParticipants(gctx, roomCode)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = store.ListTransactions(gctx, roomCode)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", roomCode, err)
	}

	summary := Summarize(roomCode, participants, transactions)
	m.ObserveSettlement(len(transactions), len(summary.Transfers))
	return summary, nil
}

// Summarize runs the balance calculator and settlement planner over a room
// snapshot.
//
// Balances are listed in join order, followed by any UIDs that appear in
// transactions without having joined (sorted, with an empty name).
func Summarize(roomCode string, participants []models.Participant, transactions []models.Transaction) *models.Summary {
	calcParticipants := make([]calculator.Participant, len(participants))
	for i, p := range participants {
		calcParticipants[i] = calculator.Participant{UID: p.UID, Name: p.Name}
	}

	calcTransactions := make([]calculator.TransactionForBalance, len(transactions))
	for i, t := range transactions {
		calcTransactions[i] = calculator.TransactionForBalance{
			Amount:       money.FromMinor(t.AmountMinor),
			PayerUID:     t.PayerUID,
			Participants: t.Participants,
		}
	}

	net := calculator.ComputeNetBalances(calcParticipants, calcTransactions)
	plan := calculator.ComputeSettlements(net)

	balances := make([]models.MemberBalance, 0, len(net))
	listed := make(map[string]bool, len(participants))
	for _, p := range participants {
		if listed[p.UID] {
			continue
		}
		listed[p.UID] = true
		balances = append(balances, models.MemberBalance{UID: p.UID, Name: p.Name, Net: roundNet(net[p.UID])})
	}

	var unlisted []string
	for uid := range net {
		if !listed[uid] {
			unlisted = append(unlisted, uid)
		}
	}
	slices.Sort(unlisted)
	for _, uid := range unlisted {
		balances = append(balances, models.MemberBalance{UID: uid, Net: roundNet(net[uid])})
	}

	transfers := make([]models.Transfer, len(plan))
	for i, s := range plan {
		transfers[i] = models.Transfer{FromUID: s.FromUID, ToUID: s.ToUID, Amount: s.Amount}
	}

	return &models.Summary{
		RoomCode:     roomCode,
		Participants: participants,
		Transactions: transactions,
		Balances:     balances,
		Transfers:    transfers,
	}
}

// roundNet rounds for display and folds -0 into 0.
func roundNet(n float64) float64 {
	r := calculator.Round2(n)
	if r == 0 {
		return 0
	}
	return r
}
