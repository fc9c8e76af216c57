// Package apiconnect wires the splitroom.v1 services to Connect handlers and
// clients. It plays the role protoc-gen-connect-go output would for protobuf
// services, using the JSON messages from package api.
package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitroom/pkg/api"
)

// AuthServiceName is the fully-qualified name of the AuthService service.
const AuthServiceName = "splitroom.v1.AuthService"

const (
	// AuthServiceSignInAnonymouslyProcedure is the path of AuthService.SignInAnonymously.
	AuthServiceSignInAnonymouslyProcedure = "/splitroom.v1.AuthService/SignInAnonymously"
)

// AuthServiceHandler is implemented by the server side of AuthService.
type AuthServiceHandler interface {
	SignInAnonymously(context.Context, *connect.Request[api.SignInAnonymouslyRequest]) (*connect.Response[api.SignInAnonymouslyResponse], error)
}

// AuthServiceClient calls AuthService.
type AuthServiceClient interface {
	SignInAnonymously(context.Context, *connect.Request[api.SignInAnonymouslyRequest]) (*connect.Response[api.SignInAnonymouslyResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	signIn := connect.NewUnaryHandler(AuthServiceSignInAnonymouslyProcedure, svc.SignInAnonymously, opts...)

	return "/" + AuthServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceSignInAnonymouslyProcedure:
			signIn.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

type authServiceClient struct {
	signIn *connect.Client[api.SignInAnonymouslyRequest, api.SignInAnonymouslyResponse]
}

// NewAuthServiceClient constructs a client for AuthService. baseURL is the
// server root, e.g. http://localhost:8080.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	opts = withClientCodec(opts)
	return &authServiceClient{
		signIn: connect.NewClient[api.SignInAnonymouslyRequest, api.SignInAnonymouslyResponse](httpClient, trimSlash(baseURL)+AuthServiceSignInAnonymouslyProcedure, opts...),
	}
}

func (c *authServiceClient) SignInAnonymously(ctx context.Context, req *connect.Request[api.SignInAnonymouslyRequest]) (*connect.Response[api.SignInAnonymouslyResponse], error) {
	return c.signIn.CallUnary(ctx, req)
}
