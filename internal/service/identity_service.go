package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/authflow/internal/auth"
	"github.com/mmynk/authflow/internal/middleware"
	"github.com/mmynk/authflow/internal/models"
	"github.com/mmynk/authflow/internal/storage"
	"github.com/mmynk/authflow/pkg/api"
	"github.com/mmynk/authflow/pkg/api/apiconnect"
)

var _ apiconnect.IdentityServiceHandler = (*IdentityService)(nil)

// IdentityService implements the IdentityService RPC interface.
type IdentityService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.Store
	logger        *slog.Logger
}

// NewIdentityService creates a new identity service.
func NewIdentityService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store storage.Store, logger *slog.Logger) *IdentityService {
	return &IdentityService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
		logger:        logger,
	}
}

// SignUp creates a new user account and signs it in.
func (s *IdentityService) SignUp(ctx context.Context, req *connect.Request[api.SignUpRequest]) (*connect.Response[api.SignUpResponse], error) {
	s.logger.Info("SignUp request", "email", req.Msg.Email)

	// Validate input
	if strings.TrimSpace(req.Msg.Email) == "" {
		return nil, reasonError(connect.CodeInvalidArgument, api.ReasonInvalidArgument, auth.ErrInvalidEmail)
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, reasonError(connect.CodeAlreadyExists, api.ReasonAccountExists, err)
		case errors.Is(err, auth.ErrWeakPassword):
			return nil, reasonError(connect.CodeInvalidArgument, api.ReasonWeakCredential, err)
		case errors.Is(err, auth.ErrInvalidEmail):
			return nil, reasonError(connect.CodeInvalidArgument, api.ReasonInvalidArgument, err)
		}
		s.logger.Error("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&api.SignUpResponse{
		User:  toAPIUser(user),
		Token: token,
	}), nil
}

// SignIn authenticates a user and returns a session token.
func (s *IdentityService) SignIn(ctx context.Context, req *connect.Request[api.SignInRequest]) (*connect.Response[api.SignInResponse], error) {
	s.logger.Info("SignIn request", "email", req.Msg.Email)

	// Validate input
	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, reasonError(connect.CodeInvalidArgument, api.ReasonInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return nil, reasonError(connect.CodeUnauthenticated, api.ReasonInvalidCredentials, err)
	}
	if err != nil {
		s.logger.Error("Authentication failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&api.SignInResponse{
		User:  toAPIUser(user),
		Token: token,
	}), nil
}

// UpdateProfile sets the caller's display name.
func (s *IdentityService) UpdateProfile(ctx context.Context, req *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	user, err := s.store.UpdateDisplayName(ctx, userID, strings.TrimSpace(req.Msg.DisplayName))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	if err != nil {
		s.logger.Error("Failed to update profile", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Profile updated", "user_id", userID, "email", middleware.GetEmail(ctx))
	return connect.NewResponse(&api.UpdateProfileResponse{User: toAPIUser(user)}), nil
}

// SignOut revokes the caller's session token.
func (s *IdentityService) SignOut(ctx context.Context, req *connect.Request[api.SignOutRequest]) (*connect.Response[api.SignOutResponse], error) {
	tokenID, expiry := middleware.GetToken(ctx)
	if tokenID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	if err := s.store.RevokeToken(ctx, tokenID, expiry.Unix()); err != nil {
		s.logger.Error("Failed to revoke token", "user_id", middleware.GetUserID(ctx), "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User signed out", "user_id", middleware.GetUserID(ctx))
	return connect.NewResponse(&api.SignOutResponse{}), nil
}

// GetCurrentUser returns the currently authenticated user's information.
func (s *IdentityService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	// Get user ID from context (set by auth middleware)
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.GetCurrentUserResponse{User: toAPIUser(user)}), nil
}

// reasonError builds a Connect error tagged with a machine-readable reason.
func reasonError(code connect.Code, reason string, err error) *connect.Error {
	connectErr := connect.NewError(code, err)
	connectErr.Meta().Set(api.ReasonHeader, reason)
	return connectErr
}

func toAPIUser(user *models.User) *api.User {
	return &api.User{
		Id:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}
