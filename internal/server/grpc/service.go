package grpc

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"google.golang.org/grpc"
)

const serviceName = api.ServiceName

// AuthServer is the server side of authkeeper.v1.AuthService.
type AuthServer interface {
	Register(context.Context, *api.RegisterRequest) (*api.RegisterResponse, error)
	Login(context.Context, *api.LoginRequest) (*api.LoginResponse, error)
	ConfirmEmail(context.Context, *api.ConfirmEmailRequest) (*api.MessageResponse, error)
	ResendConfirmation(context.Context, *api.ResendConfirmationRequest) (*api.MessageResponse, error)
	ChangePassword(context.Context, *api.ChangePasswordRequest) (*api.MessageResponse, error)
	Me(context.Context, *api.MeRequest) (*api.MeResponse, error)
	AssignRole(context.Context, *api.AssignRoleRequest) (*api.MessageResponse, error)
	RequestPasswordReset(context.Context, *api.RequestPasswordResetRequest) (*api.MessageResponse, error)
	ResetPassword(context.Context, *api.ResetPasswordRequest) (*api.MessageResponse, error)
	Ping(context.Context, *api.PingRequest) (*api.PingResponse, error)
}

var _ AuthServer = (*GRPCServer)(nil)

// unary adapts a typed AuthServer method to grpc.MethodHandler.
func unary[Req, Resp any](fullMethod string, call func(AuthServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(api.MethodRegister, AuthServer.Register)},
		{MethodName: "Login", Handler: unary(api.MethodLogin, AuthServer.Login)},
		{MethodName: "ConfirmEmail", Handler: unary(api.MethodConfirmEmail, AuthServer.ConfirmEmail)},
		{MethodName: "ResendConfirmation", Handler: unary(api.MethodResendConfirmation, AuthServer.ResendConfirmation)},
		{MethodName: "ChangePassword", Handler: unary(api.MethodChangePassword, AuthServer.ChangePassword)},
		{MethodName: "Me", Handler: unary(api.MethodMe, AuthServer.Me)},
		{MethodName: "AssignRole", Handler: unary(api.MethodAssignRole, AuthServer.AssignRole)},
		{MethodName: "RequestPasswordReset", Handler: unary(api.MethodRequestPasswordReset, AuthServer.RequestPasswordReset)},
		{MethodName: "ResetPassword", Handler: unary(api.MethodResetPassword, AuthServer.ResetPassword)},
		{MethodName: "Ping", Handler: unary(api.MethodPing, AuthServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authkeeper/v1/auth",
}
