package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor logs every RPC call with its procedure, caller UID,
// duration, and any error code/message. Install it outside the auth
// interceptor so rejected calls are logged too; the UID authenticated
// further in is reported back through the context.
type LoggingInterceptor struct{}

// Ensure LoggingInterceptor implements connect.Interceptor
var _ connect.Interceptor = LoggingInterceptor{}

// WrapUnary implements connect.Interceptor.
func (LoggingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		ctx, info := withCallInfo(ctx)
		resp, err := next(ctx, req)
		logCall(info, req.Spec().Procedure, start, err)
		return resp, err
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (LoggingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (LoggingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		ctx, info := withCallInfo(ctx)
		slog.Info("RPC stream opened", "procedure", conn.Spec().Procedure)
		err := next(ctx, conn)
		logCall(info, conn.Spec().Procedure, start, err)
		return err
	}
}

// callInfo collects what inner interceptors learn about a call.
type callInfo struct {
	uid string
}

type callInfoKey struct{}

func withCallInfo(ctx context.Context) (context.Context, *callInfo) {
	info := &callInfo{}
	return context.WithValue(ctx, callInfoKey{}, info), info
}

func logCall(info *callInfo, procedure string, start time.Time, err error) {
	uid := info.uid // empty for public procedures and rejected calls
	duration := time.Since(start).Milliseconds()

	if err == nil {
		slog.Info("RPC ok",
			"procedure", procedure,
			"uid", uid,
			"duration_ms", duration,
		)
		return
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal && connectErr.Code() != connect.CodeUnknown {
		slog.Warn("RPC error",
			"procedure", procedure,
			"code", connectErr.Code().String(),
			"error", connectErr.Message(),
			"uid", uid,
			"duration_ms", duration,
		)
		return
	}

	slog.Error("RPC error",
		"procedure", procedure,
		"error", err,
		"uid", uid,
		"duration_ms", duration,
	)
}
