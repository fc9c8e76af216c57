package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitroom/internal/auth"
	"github.com/mmynk/splitroom/internal/metrics"
	"github.com/mmynk/splitroom/pkg/api"
)

const (
	whoamiProcedure = "/test.v1.Echo/Whoami"
	publicProcedure = "/test.v1.Echo/Public"
	watchProcedure  = "/test.v1.Echo/Watch"
	failProcedure   = "/test.v1.Echo/Fail"
)

type testServer struct {
	url     string
	manager *auth.JWTManager
	reg     *prometheus.Registry
}

// setupTestServer mounts echo handlers that report the caller's UID behind
// the full interceptor chain.
func setupTestServer(t *testing.T) testServer {
	t.Helper()

	manager := auth.NewJWTManager("test-secret", time.Hour)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	opts := []connect.HandlerOption{
		connect.WithCodec(api.Codec{}),
		connect.WithInterceptors(
			LoggingInterceptor{},
			NewMetricsInterceptor(m),
			NewAuthInterceptor(manager, publicProcedure),
		),
	}

	whoami := func(ctx context.Context, _ *connect.Request[api.CreateRoomRequest]) (*connect.Response[api.Participant], error) {
		return connect.NewResponse(&api.Participant{UID: GetUID(ctx)}), nil
	}
	watch := func(ctx context.Context, _ *connect.Request[api.WatchRoomRequest], stream *connect.ServerStream[api.Participant]) error {
		return stream.Send(&api.Participant{UID: GetUID(ctx)})
	}
	fail := func(context.Context, *connect.Request[api.CreateRoomRequest]) (*connect.Response[api.Participant], error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("no such room"))
	}

	mux := http.NewServeMux()
	mux.Handle(whoamiProcedure, connect.NewUnaryHandler(whoamiProcedure, whoami, opts...))
	mux.Handle(publicProcedure, connect.NewUnaryHandler(publicProcedure, whoami, opts...))
	mux.Handle(watchProcedure, connect.NewServerStreamHandler(watchProcedure, watch, opts...))
	mux.Handle(failProcedure, connect.NewUnaryHandler(failProcedure, fail, opts...))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return testServer{url: server.URL, manager: manager, reg: reg}
}

func (s testServer) unary(procedure string) *connect.Client[api.CreateRoomRequest, api.Participant] {
	return connect.NewClient[api.CreateRoomRequest, api.Participant](http.DefaultClient, s.url+procedure, connect.WithCodec(api.Codec{}))
}

func withToken[T any](msg *T, header string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if header != "" {
		req.Header().Set("Authorization", header)
	}
	return req
}

func TestAuthInterceptor_Unary(t *testing.T) {
	s := setupTestServer(t)

	token, err := s.manager.Generate("uid-42")
	require.NoError(t, err)

	expired := auth.NewJWTManager("test-secret", -time.Minute)
	expiredToken, err := expired.Generate("uid-42")
	require.NoError(t, err)

	otherKey := auth.NewJWTManager("other-secret", time.Hour)
	forgedToken, err := otherKey.Generate("uid-42")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
		wantUID  string
	}{
		{"valid token", "Bearer " + token, 0, "uid-42"},
		{"missing header", "", connect.CodeUnauthenticated, ""},
		{"wrong scheme", "Basic " + token, connect.CodeUnauthenticated, ""},
		{"no scheme", token, connect.CodeUnauthenticated, ""},
		{"expired token", "Bearer " + expiredToken, connect.CodeUnauthenticated, ""},
		{"wrong key", "Bearer " + forgedToken, connect.CodeUnauthenticated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.unary(whoamiProcedure).CallUnary(context.Background(), withToken(&api.CreateRoomRequest{}, tt.header))
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, connect.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, resp.Msg.UID)
		})
	}
}

func TestAuthInterceptor_PublicProcedure(t *testing.T) {
	s := setupTestServer(t)

	resp, err := s.unary(publicProcedure).CallUnary(context.Background(), connect.NewRequest(&api.CreateRoomRequest{}))
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.UID)
}

func TestAuthInterceptor_Stream(t *testing.T) {
	s := setupTestServer(t)
	client := connect.NewClient[api.WatchRoomRequest, api.Participant](http.DefaultClient, s.url+watchProcedure, connect.WithCodec(api.Codec{}))

	t.Run("valid token", func(t *testing.T) {
		token, err := s.manager.Generate("uid-7")
		require.NoError(t, err)

		stream, err := client.CallServerStream(context.Background(), withToken(&api.WatchRoomRequest{}, "Bearer "+token))
		require.NoError(t, err)
		defer stream.Close()

		require.True(t, stream.Receive(), "stream error: %v", stream.Err())
		assert.Equal(t, "uid-7", stream.Msg().UID)
	})

	t.Run("missing token", func(t *testing.T) {
		stream, err := client.CallServerStream(context.Background(), connect.NewRequest(&api.WatchRoomRequest{}))
		require.NoError(t, err)
		defer stream.Close()

		assert.False(t, stream.Receive())
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(stream.Err()))
	})
}

func TestMetricsInterceptor(t *testing.T) {
	s := setupTestServer(t)

	_, err := s.unary(publicProcedure).CallUnary(context.Background(), connect.NewRequest(&api.CreateRoomRequest{}))
	require.NoError(t, err)

	token, err := s.manager.Generate("uid-1")
	require.NoError(t, err)
	_, err = s.unary(failProcedure).CallUnary(context.Background(), withToken(&api.CreateRoomRequest{}, "Bearer "+token))
	require.Error(t, err)

	_, err = s.unary(whoamiProcedure).CallUnary(context.Background(), connect.NewRequest(&api.CreateRoomRequest{}))
	require.Error(t, err)

	// One series per procedure and code: ok, not_found, unauthenticated
	count, err := testutil.GatherAndCount(s.reg, "splitroom_rpc_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "ok", codeOf(nil))
	assert.Equal(t, "not_found", codeOf(connect.NewError(connect.CodeNotFound, errors.New("x"))))
	assert.Equal(t, "unknown", codeOf(errors.New("plain")))
}

func TestGetUID(t *testing.T) {
	assert.Empty(t, GetUID(context.Background()))
	assert.Equal(t, "uid-1", GetUID(WithUID(context.Background(), "uid-1")))
}

// lockedBuffer is written from server goroutines and read from the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) entries(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func captureLogs(t *testing.T) *lockedBuffer {
	t.Helper()
	buf := &lockedBuffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return buf
}

func TestLoggingInterceptor_ReportsAuthenticatedUID(t *testing.T) {
	logs := captureLogs(t)
	s := setupTestServer(t)

	token, err := s.manager.Generate("uid-42")
	require.NoError(t, err)

	_, err = s.unary(whoamiProcedure).CallUnary(context.Background(), withToken(&api.CreateRoomRequest{}, "Bearer "+token))
	require.NoError(t, err)
	_, err = s.unary(whoamiProcedure).CallUnary(context.Background(), connect.NewRequest(&api.CreateRoomRequest{}))
	require.Error(t, err)

	var ok, rejected map[string]any
	for _, e := range logs.entries(t) {
		if e["procedure"] != whoamiProcedure {
			continue
		}
		switch e["msg"] {
		case "RPC ok":
			ok = e
		case "RPC error":
			rejected = e
		}
	}

	require.NotNil(t, ok, "expected a log entry for the authenticated call")
	assert.Equal(t, "uid-42", ok["uid"])
	require.NotNil(t, rejected, "expected a log entry for the rejected call")
	assert.Equal(t, "", rejected["uid"])
	assert.Equal(t, "unauthenticated", rejected["code"])
}

func TestWithUID_WithoutLoggingInterceptor(t *testing.T) {
	ctx := WithUID(context.Background(), "uid-9")
	assert.Equal(t, "uid-9", GetUID(ctx))
}
