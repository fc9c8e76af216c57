package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitroom/internal/feed"
	"github.com/mmynk/splitroom/internal/metrics"
	"github.com/mmynk/splitroom/internal/middleware"
	"github.com/mmynk/splitroom/internal/models"
	"github.com/mmynk/splitroom/internal/money"
	"github.com/mmynk/splitroom/internal/roomcode"
	"github.com/mmynk/splitroom/internal/storage"
	"github.com/mmynk/splitroom/pkg/api"
	"github.com/mmynk/splitroom/pkg/api/apiconnect"
)

var (
	ErrRoomCodeRequired = errors.New("room_code required")
	ErrNameRequired     = errors.New("name required")
	ErrInvalidAmount    = errors.New("amount must be a positive number")
	ErrPayerRequired    = errors.New("payer_uid required")
	ErrNoParticipants   = errors.New("at least one participant must be selected")
	ErrShuttingDown     = errors.New("server is shutting down")
)

// createRoomAttempts bounds retries when a generated code is already taken.
const createRoomAttempts = 5

// Ensure RoomService implements apiconnect.RoomServiceHandler
var _ apiconnect.RoomServiceHandler = (*RoomService)(nil)

// RoomService implements the Connect RoomService
type RoomService struct {
	store   storage.Store
	feed    feed.Feed
	metrics *metrics.Metrics
	newCode func() (string, error)

	closing   chan struct{}
	closeOnce sync.Once
}

// NewRoomService creates a new RoomService. m may be nil.
func NewRoomService(store storage.Store, f feed.Feed, m *metrics.Metrics) *RoomService {
	return &RoomService{
		store:   store,
		feed:    f,
		metrics: m,
		newCode: roomcode.New,
		closing: make(chan struct{}),
	}
}

// CloseWatchers ends every open WatchRoom stream with CodeUnavailable so
// clients reconnect elsewhere. Unary calls are unaffected. Safe to call more
// than once.
func (s *RoomService) CloseWatchers() {
	s.closeOnce.Do(func() { close(s.closing) })
}

// toConnectError maps storage errors to RPC codes.
func toConnectError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// requireRoom normalizes code and checks the room exists.
func (s *RoomService) requireRoom(ctx context.Context, code string) (string, error) {
	code = roomcode.Normalize(code)
	if code == "" {
		return "", connect.NewError(connect.CodeInvalidArgument, ErrRoomCodeRequired)
	}
	if !roomcode.Valid(code) {
		return "", connect.NewError(connect.CodeNotFound, fmt.Errorf("room %s: %w", code, storage.ErrNotFound))
	}
	if _, err := s.store.GetRoom(ctx, code); err != nil {
		return "", toConnectError(err)
	}
	return code, nil
}

// publish announces a change. The write already succeeded, so failures are
// logged and not returned to the caller.
func (s *RoomService) publish(ctx context.Context, eventType feed.EventType, roomCode, id string) {
	err := s.feed.Publish(ctx, feed.Event{
		Type:     eventType,
		RoomCode: roomCode,
		ID:       id,
		At:       time.Now().UnixMilli(),
	})
	s.metrics.ObserveFeedEvent(string(eventType), err)
	if err != nil {
		slog.Warn("Failed to publish room event", "room_code", roomCode, "type", eventType, "error", err)
	}
}

// CreateRoom opens a new room with a fresh invite code.
func (s *RoomService) CreateRoom(ctx context.Context, req *connect.Request[api.CreateRoomRequest]) (*connect.Response[api.CreateRoomResponse], error) {
	uid := middleware.GetUID(ctx)
	slog.Info("CreateRoom request received", "uid", uid)

	for attempt := 1; attempt <= createRoomAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			slog.Error("CreateRoom failed - code generation", "error", err)
			return nil, connect.NewError(connect.CodeInternal, err)
		}

		room := &models.Room{Code: code, CreatedBy: uid}
		err = s.store.CreateRoom(ctx, room)
		if errors.Is(err, storage.ErrConflict) {
			slog.Debug("Room code collision, retrying", "code", code, "attempt", attempt)
			continue
		}
		if err != nil {
			slog.Error("CreateRoom failed", "error", err)
			return nil, connect.NewError(connect.CodeInternal, err)
		}

		slog.Info("Room created", "room_code", room.Code)
		return connect.NewResponse(&api.CreateRoomResponse{Room: toAPIRoom(room)}), nil
	}

	return nil, connect.NewError(connect.CodeResourceExhausted,
		fmt.Errorf("no free room code after %d attempts", createRoomAttempts))
}

// JoinRoom adds the caller to a room, or renames them if already a member.
func (s *RoomService) JoinRoom(ctx context.Context, req *connect.Request[api.JoinRoomRequest]) (*connect.Response[api.JoinRoomResponse], error) {
	uid := middleware.GetUID(ctx)
	slog.Info("JoinRoom request received", "room_code", req.Msg.RoomCode, "uid", uid)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrNameRequired)
	}

	code, err := s.requireRoom(ctx, req.Msg.RoomCode)
	if err != nil {
		slog.Warn("JoinRoom failed - room lookup", "room_code", req.Msg.RoomCode, "error", err)
		return nil, err
	}

	p := &models.Participant{RoomCode: code, UID: uid, Name: name}
	if err := s.store.UpsertParticipant(ctx, p); err != nil {
		slog.Error("JoinRoom failed", "room_code", code, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.publish(ctx, feed.EventParticipantJoined, code, uid)
	slog.Info("Participant joined", "room_code", code, "uid", uid)

	return connect.NewResponse(&api.JoinRoomResponse{
		Participant: &api.Participant{UID: p.UID, Name: p.Name, JoinedAt: p.JoinedAt},
	}), nil
}

// ListParticipants returns the room's members in join order.
func (s *RoomService) ListParticipants(ctx context.Context, req *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error) {
	code, err := s.requireRoom(ctx, req.Msg.RoomCode)
	if err != nil {
		return nil, err
	}

	participants, err := s.store.ListParticipants(ctx, code)
	if err != nil {
		slog.Error("ListParticipants failed", "room_code", code, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.ListParticipantsResponse{
		Participants: toAPIParticipants(participants),
	}), nil
}

// validateTransaction checks user input before it reaches the log. The
// balance calculator would silently skip these cases; rejecting them here
// gives the caller feedback instead.
func validateTransaction(msg *api.AddTransactionRequest) (amountMinor int64, participants []string, err error) {
	if math.IsNaN(msg.Amount) || math.IsInf(msg.Amount, 0) || msg.Amount <= 0 {
		return 0, nil, ErrInvalidAmount
	}
	amountMinor, err = money.ToMinor(msg.Amount)
	if err != nil || amountMinor <= 0 {
		return 0, nil, ErrInvalidAmount
	}

	if strings.TrimSpace(msg.PayerUID) == "" {
		return 0, nil, ErrPayerRequired
	}

	// Participants are a set: drop blanks and repeats, keep first-seen order
	seen := make(map[string]bool, len(msg.ParticipantUIDs))
	for _, uid := range msg.ParticipantUIDs {
		uid = strings.TrimSpace(uid)
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		participants = append(participants, uid)
	}
	if len(participants) == 0 {
		return 0, nil, ErrNoParticipants
	}

	return amountMinor, participants, nil
}

// AddTransaction appends an expense to the room's log.
func (s *RoomService) AddTransaction(ctx context.Context, req *connect.Request[api.AddTransactionRequest]) (*connect.Response[api.AddTransactionResponse], error) {
	slog.Info("AddTransaction request received",
		"room_code", req.Msg.RoomCode,
		"amount", req.Msg.Amount,
		"payer_uid", req.Msg.PayerUID,
		"participants_count", len(req.Msg.ParticipantUIDs),
	)

	amountMinor, participants, err := validateTransaction(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	code, err := s.requireRoom(ctx, req.Msg.RoomCode)
	if err != nil {
		return nil, err
	}

	tx := models.Transaction{
		RoomCode:     code,
		AmountMinor:  amountMinor,
		Description:  strings.TrimSpace(req.Msg.Description),
		PayerUID:     strings.TrimSpace(req.Msg.PayerUID),
		Participants: participants,
	}
	if err := s.store.CreateTransaction(ctx, &tx); err != nil {
		slog.Error("AddTransaction failed", "room_code", code, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.publish(ctx, feed.EventTransactionAdded, code, tx.ID)
	slog.Info("Transaction added", "room_code", code, "transaction_id", tx.ID)

	return connect.NewResponse(&api.AddTransactionResponse{
		Transaction: toAPITransaction(tx),
	}), nil
}

// ListTransactions returns the room's transactions, oldest first.
func (s *RoomService) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	code, err := s.requireRoom(ctx, req.Msg.RoomCode)
	if err != nil {
		return nil, err
	}

	transactions, err := s.store.ListTransactions(ctx, code)
	if err != nil {
		slog.Error("ListTransactions failed", "room_code", code, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.ListTransactionsResponse{
		Transactions: toAPITransactions(transactions),
	}), nil
}

// GetBalances computes every participant's net balance and the transfers
// that settle them.
func (s *RoomService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "room_code", req.Msg.RoomCode)

	code, err := s.requireRoom(ctx, req.Msg.RoomCode)
	if err != nil {
		return nil, err
	}

	summary, err := loadSummary(ctx, s.store, s.metrics, code)
	if err != nil {
		slog.Error("GetBalances failed", "room_code", code, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetBalances successful",
		"room_code", code,
		"transactions_count", len(summary.Transactions),
		"members_count", len(summary.Balances),
		"settlements_count", len(summary.Transfers),
	)

	return connect.NewResponse(&api.GetBalancesResponse{
		Balances:    toAPIBalances(summary.Balances),
		Settlements: toAPISettlements(summary.Transfers),
	}), nil
}

// WatchRoom streams a snapshot of the room now and again after every change,
// until the client goes away. Bursts of changes are coalesced: at most one
// recomputation is pending at a time.
func (s *RoomService) WatchRoom(ctx context.Context, req *connect.Request[api.WatchRoomRequest], stream *connect.ServerStream[api.RoomSnapshot]) error {
	code, err := s.requireRoom(ctx, req.Msg.RoomCode)
	if err != nil {
		return err
	}

	// Subscribe before the first read so no change slips in between
	changed := make(chan struct{}, 1)
	unsubscribe := s.feed.Subscribe(code, func(feed.Event) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()
	defer s.metrics.WatcherStarted()()

	slog.Info("WatchRoom started", "room_code", code, "uid", middleware.GetUID(ctx))

	for {
		summary, err := loadSummary(ctx, s.store, s.metrics, code)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("WatchRoom failed", "room_code", code, "error", err)
			return toConnectError(err)
		}
		if err := stream.Send(toAPISnapshot(summary)); err != nil {
			slog.Debug("WatchRoom send failed", "room_code", code, "error", err)
			return nil
		}

		select {
		case <-ctx.Done():
			slog.Info("WatchRoom ended", "room_code", code)
			return nil
		case <-s.closing:
			slog.Info("WatchRoom closed for shutdown", "room_code", code)
			return connect.NewError(connect.CodeUnavailable, ErrShuttingDown)
		case <-changed:
		}
	}
}
