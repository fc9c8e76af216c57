package service

import (
	"github.com/mmynk/splitroom/internal/models"
	"github.com/mmynk/splitroom/internal/money"
	"github.com/mmynk/splitroom/pkg/api"
)

func toAPIRoom(r *models.Room) *api.Room {
	return &api.Room{
		Code:      r.Code,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}

func toAPIParticipants(participants []models.Participant) []*api.Participant {
	out := make([]*api.Participant, len(participants))
	for i, p := range participants {
		out[i] = &api.Participant{UID: p.UID, Name: p.Name, JoinedAt: p.JoinedAt}
	}
	return out
}

func toAPITransaction(t models.Transaction) *api.Transaction {
	return &api.Transaction{
		ID:              t.ID,
		Amount:          money.FromMinor(t.AmountMinor),
		Description:     t.Description,
		PayerUID:        t.PayerUID,
		ParticipantUIDs: t.Participants,
		Timestamp:       t.Timestamp,
	}
}

func toAPITransactions(transactions []models.Transaction) []*api.Transaction {
	out := make([]*api.Transaction, len(transactions))
	for i, t := range transactions {
		out[i] = toAPITransaction(t)
	}
	return out
}

func toAPIBalances(balances []models.MemberBalance) []*api.Balance {
	out := make([]*api.Balance, len(balances))
	for i, b := range balances {
		out[i] = &api.Balance{
			UID:     b.UID,
			Name:    b.Name,
			Net:     b.Net,
			Display: money.Format(b.Net),
		}
	}
	return out
}

func toAPISettlements(transfers []models.Transfer) []*api.Settlement {
	out := make([]*api.Settlement, len(transfers))
	for i, t := range transfers {
		out[i] = &api.Settlement{
			FromUID: t.FromUID,
			ToUID:   t.ToUID,
			Amount:  t.Amount,
			Display: money.Format(t.Amount),
		}
	}
	return out
}

func toAPISnapshot(s *models.Summary) *api.RoomSnapshot {
	return &api.RoomSnapshot{
		RoomCode:     s.RoomCode,
		Participants: toAPIParticipants(s.Participants),
		Transactions: toAPITransactions(s.Transactions),
		Balances:     toAPIBalances(s.Balances),
		Settlements:  toAPISettlements(s.Transfers),
	}
}
