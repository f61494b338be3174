package grpc

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

func toUserInfo(u *models.User) api.UserInfo {
	return api.UserInfo{
		ID:             u.ID,
		Username:       u.UserName,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmed,
		Roles:          u.RoleNames(),
		CreatedAt:      u.CreatedAt,
	}
}

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {
	user, err := s.auth.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return nil, api.ToStatus(err)
	}

	return &api.RegisterResponse{
		User:    toUserInfo(user),
		Message: "User registered successfully. Please check your email to confirm your account.",
	}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	res, err := s.auth.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		return nil, api.ToStatus(err)
	}

	return &api.LoginResponse{
		Token:          res.Token,
		Type:           res.Type,
		ExpiresAt:      res.ExpiresAt,
		ID:             res.ID,
		Username:       res.UserName,
		Email:          res.Email,
		EmailConfirmed: res.EmailConfirmed,
		Roles:          res.Roles,
	}, nil
}

func (s *GRPCServer) ConfirmEmail(ctx context.Context, req *api.ConfirmEmailRequest) (*api.MessageResponse, error) {
	if err := s.auth.ConfirmEmail(ctx, req.Code); err != nil {
		return nil, api.ToStatus(err)
	}
	return &api.MessageResponse{Message: "Email confirmed successfully"}, nil
}

func (s *GRPCServer) ResendConfirmation(ctx context.Context, req *api.ResendConfirmationRequest) (*api.MessageResponse, error) {
	if err := s.auth.ResendConfirmation(ctx, req.Email); err != nil {
		return nil, api.ToStatus(err)
	}
	return &api.MessageResponse{Message: "Confirmation email sent"}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *api.ChangePasswordRequest) (*api.MessageResponse, error) {
	if err := s.auth.ChangePassword(ctx, claimsFromContext(ctx), req.NewPassword); err != nil {
		return nil, api.ToStatus(err)
	}
	return &api.MessageResponse{Message: "Password changed"}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *api.MeRequest) (*api.MeResponse, error) {
	user, err := s.auth.Me(ctx, claimsFromContext(ctx))
	if err != nil {
		return nil, api.ToStatus(err)
	}
	return &api.MeResponse{User: toUserInfo(user)}, nil
}

func (s *GRPCServer) AssignRole(ctx context.Context, req *api.AssignRoleRequest) (*api.MessageResponse, error) {
	if err := s.auth.AssignRole(ctx, claimsFromContext(ctx), req.UserID, req.Role); err != nil {
		return nil, api.ToStatus(err)
	}
	return &api.MessageResponse{Message: "Role assigned"}, nil
}

func (s *GRPCServer) RequestPasswordReset(ctx context.Context, req *api.RequestPasswordResetRequest) (*api.MessageResponse, error) {
	if err := s.auth.RequestPasswordReset(ctx, req.Email); err != nil {
		return nil, api.ToStatus(err)
	}
	return &api.MessageResponse{Message: "If the email is registered, a reset link has been sent"}, nil
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *api.ResetPasswordRequest) (*api.MessageResponse, error) {
	if err := s.auth.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		return nil, api.ToStatus(err)
	}
	return &api.MessageResponse{Message: "Password has been reset"}, nil
}

func (s *GRPCServer) Ping(context.Context, *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}
