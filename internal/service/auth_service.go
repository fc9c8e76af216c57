package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitroom/internal/auth"
	"github.com/mmynk/splitroom/pkg/api"
	"github.com/mmynk/splitroom/pkg/api/apiconnect"
)

// Ensure AuthService implements apiconnect.AuthServiceHandler
var _ apiconnect.AuthServiceHandler = (*AuthService)(nil)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	jwtManager *auth.JWTManager
	logger     *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// SignInAnonymously starts a new session with a fresh UID. There are no
// credentials; holding the token is what identifies the participant.
func (s *AuthService) SignInAnonymously(ctx context.Context, req *connect.Request[api.SignInAnonymouslyRequest]) (*connect.Response[api.SignInAnonymouslyResponse], error) {
	uid, token, err := s.jwtManager.NewSession()
	if err != nil {
		s.logger.Error("Failed to start session", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Anonymous session started", "uid", uid)
	return connect.NewResponse(&api.SignInAnonymouslyResponse{
		UID:   uid,
		Token: token,
	}), nil
}
