package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitroom/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UIDKey is the context key for storing the authenticated participant UID.
const UIDKey contextKey = "uid"

// GetUID extracts the caller's UID from the context.
// Returns empty string if not found.
func GetUID(ctx context.Context) string {
	uid, _ := ctx.Value(UIDKey).(string)
	return uid
}

// WithUID returns a copy of ctx carrying uid. An enclosing
// LoggingInterceptor is told about uid as well.
func WithUID(ctx context.Context, uid string) context.Context {
	if info, ok := ctx.Value(callInfoKey{}).(*callInfo); ok {
		info.uid = uid
	}
	return context.WithValue(ctx, UIDKey, uid)
}

// AuthInterceptor validates bearer tokens on unary and server-streaming
// calls and stores the caller's UID in the context. Procedures listed as
// public are passed through untouched.
type AuthInterceptor struct {
	jwtManager *auth.JWTManager
	public     map[string]bool
}

// Ensure AuthInterceptor implements connect.Interceptor
var _ connect.Interceptor = (*AuthInterceptor)(nil)

// NewAuthInterceptor creates an interceptor that requires a valid token for
// every procedure except those in public.
func NewAuthInterceptor(jwtManager *auth.JWTManager, public ...string) *AuthInterceptor {
	set := make(map[string]bool, len(public))
	for _, p := range public {
		set[p] = true
	}
	return &AuthInterceptor{jwtManager: jwtManager, public: set}
}

// WrapUnary implements connect.Interceptor.
func (i *AuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if i.public[req.Spec().Procedure] {
			return next(ctx, req)
		}
		ctx, err := i.authenticate(ctx, req.Header().Get("Authorization"))
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient implements connect.Interceptor. Clients are not wrapped.
func (i *AuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *AuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		if i.public[conn.Spec().Procedure] {
			return next(ctx, conn)
		}
		ctx, err := i.authenticate(ctx, conn.RequestHeader().Get("Authorization"))
		if err != nil {
			return err
		}
		return next(ctx, conn)
	}
}

func (i *AuthInterceptor) authenticate(ctx context.Context, authHeader string) (context.Context, error) {
	if authHeader == "" {
		return ctx, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	// Parse Bearer token
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ctx, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}

	claims, err := i.jwtManager.Validate(parts[1])
	if err != nil {
		return ctx, connect.NewError(connect.CodeUnauthenticated, err)
	}

	return WithUID(ctx, claims.UID), nil
}
