package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitroom/pkg/api"
)

// RoomServiceName is the fully-qualified name of the RoomService service.
const RoomServiceName = "splitroom.v1.RoomService"

const (
	RoomServiceCreateRoomProcedure       = "/splitroom.v1.RoomService/CreateRoom"
	RoomServiceJoinRoomProcedure         = "/splitroom.v1.RoomService/JoinRoom"
	RoomServiceListParticipantsProcedure = "/splitroom.v1.RoomService/ListParticipants"
	RoomServiceAddTransactionProcedure   = "/splitroom.v1.RoomService/AddTransaction"
	RoomServiceListTransactionsProcedure = "/splitroom.v1.RoomService/ListTransactions"
	RoomServiceGetBalancesProcedure      = "/splitroom.v1.RoomService/GetBalances"
	RoomServiceWatchRoomProcedure        = "/splitroom.v1.RoomService/WatchRoom"
)

// RoomServiceHandler is implemented by the server side of RoomService.
type RoomServiceHandler interface {
	CreateRoom(context.Context, *connect.Request[api.CreateRoomRequest]) (*connect.Response[api.CreateRoomResponse], error)
	JoinRoom(context.Context, *connect.Request[api.JoinRoomRequest]) (*connect.Response[api.JoinRoomResponse], error)
	ListParticipants(context.Context, *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error)
	AddTransaction(context.Context, *connect.Request[api.AddTransactionRequest]) (*connect.Response[api.AddTransactionResponse], error)
	ListTransactions(context.Context, *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	WatchRoom(context.Context, *connect.Request[api.WatchRoomRequest], *connect.ServerStream[api.RoomSnapshot]) error
}

// RoomServiceClient calls RoomService.
type RoomServiceClient interface {
	CreateRoom(context.Context, *connect.Request[api.CreateRoomRequest]) (*connect.Response[api.CreateRoomResponse], error)
	JoinRoom(context.Context, *connect.Request[api.JoinRoomRequest]) (*connect.Response[api.JoinRoomResponse], error)
	ListParticipants(context.Context, *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error)
	AddTransaction(context.Context, *connect.Request[api.AddTransactionRequest]) (*connect.Response[api.AddTransactionResponse], error)
	ListTransactions(context.Context, *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	WatchRoom(context.Context, *connect.Request[api.WatchRoomRequest]) (*connect.ServerStreamForClient[api.RoomSnapshot], error)
}

// NewRoomServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewRoomServiceHandler(svc RoomServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	handlers := map[string]http.Handler{
		RoomServiceCreateRoomProcedure:       connect.NewUnaryHandler(RoomServiceCreateRoomProcedure, svc.CreateRoom, opts...),
		RoomServiceJoinRoomProcedure:         connect.NewUnaryHandler(RoomServiceJoinRoomProcedure, svc.JoinRoom, opts...),
		RoomServiceListParticipantsProcedure: connect.NewUnaryHandler(RoomServiceListParticipantsProcedure, svc.ListParticipants, opts...),
		RoomServiceAddTransactionProcedure:   connect.NewUnaryHandler(RoomServiceAddTransactionProcedure, svc.AddTransaction, opts...),
		RoomServiceListTransactionsProcedure: connect.NewUnaryHandler(RoomServiceListTransactionsProcedure, svc.ListTransactions, opts...),
		RoomServiceGetBalancesProcedure:      connect.NewUnaryHandler(RoomServiceGetBalancesProcedure, svc.GetBalances, opts...),
		RoomServiceWatchRoomProcedure:        connect.NewServerStreamHandler(RoomServiceWatchRoomProcedure, svc.WatchRoom, opts...),
	}

	return "/" + RoomServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

type roomServiceClient struct {
	createRoom       *connect.Client[api.CreateRoomRequest, api.CreateRoomResponse]
	joinRoom         *connect.Client[api.JoinRoomRequest, api.JoinRoomResponse]
	listParticipants *connect.Client[api.ListParticipantsRequest, api.ListParticipantsResponse]
	addTransaction   *connect.Client[api.AddTransactionRequest, api.AddTransactionResponse]
	listTransactions *connect.Client[api.ListTransactionsRequest, api.ListTransactionsResponse]
	getBalances      *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
	watchRoom        *connect.Client[api.WatchRoomRequest, api.RoomSnapshot]
}

// NewRoomServiceClient constructs a client for RoomService. baseURL is the
// server root, e.g. http://localhost:8080.
func NewRoomServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) RoomServiceClient {
	opts = withClientCodec(opts)
	baseURL = trimSlash(baseURL)
	return &roomServiceClient{
		createRoom:       connect.NewClient[api.CreateRoomRequest, api.CreateRoomResponse](httpClient, baseURL+RoomServiceCreateRoomProcedure, opts...),
		joinRoom:         connect.NewClient[api.JoinRoomRequest, api.JoinRoomResponse](httpClient, baseURL+RoomServiceJoinRoomProcedure, opts...),
		listParticipants: connect.NewClient[api.ListParticipantsRequest, api.ListParticipantsResponse](httpClient, baseURL+RoomServiceListParticipantsProcedure, opts...),
		addTransaction:   connect.NewClient[api.AddTransactionRequest, api.AddTransactionResponse](httpClient, baseURL+RoomServiceAddTransactionProcedure, opts...),
		listTransactions: connect.NewClient[api.ListTransactionsRequest, api.ListTransactionsResponse](httpClient, baseURL+RoomServiceListTransactionsProcedure, opts...),
		getBalances:      connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](httpClient, baseURL+RoomServiceGetBalancesProcedure, opts...),
		watchRoom:        connect.NewClient[api.WatchRoomRequest, api.RoomSnapshot](httpClient, baseURL+RoomServiceWatchRoomProcedure, opts...),
	}
}

func (c *roomServiceClient) CreateRoom(ctx context.Context, req *connect.Request[api.CreateRoomRequest]) (*connect.Response[api.CreateRoomResponse], error) {
	return c.createRoom.CallUnary(ctx, req)
}

func (c *roomServiceClient) JoinRoom(ctx context.Context, req *connect.Request[api.JoinRoomRequest]) (*connect.Response[api.JoinRoomResponse], error) {
	return c.joinRoom.CallUnary(ctx, req)
}

func (c *roomServiceClient) ListParticipants(ctx context.Context, req *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error) {
	return c.listParticipants.CallUnary(ctx, req)
}

func (c *roomServiceClient) AddTransaction(ctx context.Context, req *connect.Request[api.AddTransactionRequest]) (*connect.Response[api.AddTransactionResponse], error) {
	return c.addTransaction.CallUnary(ctx, req)
}

func (c *roomServiceClient) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}

func (c *roomServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *roomServiceClient) WatchRoom(ctx context.Context, req *connect.Request[api.WatchRoomRequest]) (*connect.ServerStreamForClient[api.RoomSnapshot], error) {
	return c.watchRoom.CallServerStream(ctx, req)
}
