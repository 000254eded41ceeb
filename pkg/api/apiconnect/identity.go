// Package apiconnect wires the identity service messages to Connect
// handlers and clients.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/authflow/pkg/api"
)

// IdentityServiceName is the fully-qualified name of the IdentityService.
const IdentityServiceName = "authflow.identity.v1.IdentityService"

// Procedure paths of the IdentityService.
const (
	IdentityServiceSignInProcedure         = "/authflow.identity.v1.IdentityService/SignIn"
	IdentityServiceSignUpProcedure         = "/authflow.identity.v1.IdentityService/SignUp"
	IdentityServiceUpdateProfileProcedure  = "/authflow.identity.v1.IdentityService/UpdateProfile"
	IdentityServiceSignOutProcedure        = "/authflow.identity.v1.IdentityService/SignOut"
	IdentityServiceGetCurrentUserProcedure = "/authflow.identity.v1.IdentityService/GetCurrentUser"
)

// AuthenticatedProcedures require a bearer token.
var AuthenticatedProcedures = []string{
	IdentityServiceUpdateProfileProcedure,
	IdentityServiceSignOutProcedure,
	IdentityServiceGetCurrentUserProcedure,
}

// IdentityServiceClient is a client for the IdentityService.
type IdentityServiceClient interface {
	SignIn(context.Context, *connect.Request[api.SignInRequest]) (*connect.Response[api.SignInResponse], error)
	SignUp(context.Context, *connect.Request[api.SignUpRequest]) (*connect.Response[api.SignUpResponse], error)
	UpdateProfile(context.Context, *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error)
	SignOut(context.Context, *connect.Request[api.SignOutRequest]) (*connect.Response[api.SignOutResponse], error)
	GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error)
}

// NewIdentityServiceClient constructs a client for the IdentityService at
// baseURL. The JSON codec is always used.
func NewIdentityServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) IdentityServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &identityServiceClient{
		signIn: connect.NewClient[api.SignInRequest, api.SignInResponse](
			httpClient, baseURL+IdentityServiceSignInProcedure, opts...,
		),
		signUp: connect.NewClient[api.SignUpRequest, api.SignUpResponse](
			httpClient, baseURL+IdentityServiceSignUpProcedure, opts...,
		),
		updateProfile: connect.NewClient[api.UpdateProfileRequest, api.UpdateProfileResponse](
			httpClient, baseURL+IdentityServiceUpdateProfileProcedure, opts...,
		),
		signOut: connect.NewClient[api.SignOutRequest, api.SignOutResponse](
			httpClient, baseURL+IdentityServiceSignOutProcedure, opts...,
		),
		getCurrentUser: connect.NewClient[api.GetCurrentUserRequest, api.GetCurrentUserResponse](
			httpClient, baseURL+IdentityServiceGetCurrentUserProcedure, opts...,
		),
	}
}

type identityServiceClient struct {
	signIn         *connect.Client[api.SignInRequest, api.SignInResponse]
	signUp         *connect.Client[api.SignUpRequest, api.SignUpResponse]
	updateProfile  *connect.Client[api.UpdateProfileRequest, api.UpdateProfileResponse]
	signOut        *connect.Client[api.SignOutRequest, api.SignOutResponse]
	getCurrentUser *connect.Client[api.GetCurrentUserRequest, api.GetCurrentUserResponse]
}

func (c *identityServiceClient) SignIn(ctx context.Context, req *connect.Request[api.SignInRequest]) (*connect.Response[api.SignInResponse], error) {
	return c.signIn.CallUnary(ctx, req)
}

func (c *identityServiceClient) SignUp(ctx context.Context, req *connect.Request[api.SignUpRequest]) (*connect.Response[api.SignUpResponse], error) {
	return c.signUp.CallUnary(ctx, req)
}

func (c *identityServiceClient) UpdateProfile(ctx context.Context, req *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error) {
	return c.updateProfile.CallUnary(ctx, req)
}

func (c *identityServiceClient) SignOut(ctx context.Context, req *connect.Request[api.SignOutRequest]) (*connect.Response[api.SignOutResponse], error) {
	return c.signOut.CallUnary(ctx, req)
}

func (c *identityServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

// IdentityServiceHandler is implemented by the identity service.
type IdentityServiceHandler interface {
	SignIn(context.Context, *connect.Request[api.SignInRequest]) (*connect.Response[api.SignInResponse], error)
	SignUp(context.Context, *connect.Request[api.SignUpRequest]) (*connect.Response[api.SignUpResponse], error)
	UpdateProfile(context.Context, *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error)
	SignOut(context.Context, *connect.Request[api.SignOutRequest]) (*connect.Response[api.SignOutResponse], error)
	GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error)
}

// NewIdentityServiceHandler builds an HTTP handler for svc and returns the
// path prefix to mount it on.
func NewIdentityServiceHandler(svc IdentityServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
	signIn := connect.NewUnaryHandler(IdentityServiceSignInProcedure, svc.SignIn, opts...)
	signUp := connect.NewUnaryHandler(IdentityServiceSignUpProcedure, svc.SignUp, opts...)
	updateProfile := connect.NewUnaryHandler(IdentityServiceUpdateProfileProcedure, svc.UpdateProfile, opts...)
	signOut := connect.NewUnaryHandler(IdentityServiceSignOutProcedure, svc.SignOut, opts...)
	getCurrentUser := connect.NewUnaryHandler(IdentityServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...)

	return "/" + IdentityServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case IdentityServiceSignInProcedure:
			signIn.ServeHTTP(w, r)
		case IdentityServiceSignUpProcedure:
			signUp.ServeHTTP(w, r)
		case IdentityServiceUpdateProfileProcedure:
			updateProfile.ServeHTTP(w, r)
		case IdentityServiceSignOutProcedure:
			signOut.ServeHTTP(w, r)
		case IdentityServiceGetCurrentUserProcedure:
			getCurrentUser.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
