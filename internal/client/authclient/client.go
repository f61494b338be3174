// Package authclient is a gRPC client for the authkeeper AuthService.
package authclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var ErrUnavailable = errors.New("server unavailable")

// Client is the set of AuthService calls used by the CLI.
type Client interface {
	Register(ctx context.Context, userName, email, password string) (*api.RegisterResponse, error)
	Login(ctx context.Context, identifier, password string) (*api.LoginResponse, error)
	ConfirmEmail(ctx context.Context, code string) (string, error)
	ResendConfirmation(ctx context.Context, email string) (string, error)
	ChangePassword(ctx context.Context, newPassword string) (string, error)
	Me(ctx context.Context) (*api.UserInfo, error)
	AssignRole(ctx context.Context, userID int64, role string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	Ping(ctx context.Context) error
	AccessToken() string
	SetAccessToken(token string)
	Close() error
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	mu          sync.RWMutex
	accessToken string
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the current session token. An expired
// token is dropped so the next call goes out anonymous.
func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := c.AccessToken(); token != "" {
		ctx = withAccessToken(ctx, token)
	}

	err := invoker(ctx, method, req, reply, cc, opts...)
	if err != nil {
		st, ok := status.FromError(err)
		if ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error() {
			c.SetAccessToken("")
		}
	}
	return err
}

// New creates a client for endpointURL. Extra dial options are appended
// after the defaults, so tests can swap the dialer.
func New(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(api.CodecName)),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *GRPCClient) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	return c.mapError(c.conn.Invoke(ctx, method, req, resp))
}

func (c *GRPCClient) Register(ctx context.Context, userName, email, password string) (*api.RegisterResponse, error) {
	req := &api.RegisterRequest{Username: userName, Email: email, Password: password}
	resp := &api.RegisterResponse{}
	if err := c.invoke(ctx, api.MethodRegister, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Login authenticates and keeps the returned token for later calls.
func (c *GRPCClient) Login(ctx context.Context, identifier, password string) (*api.LoginResponse, error) {
	req := &api.LoginRequest{Identifier: identifier, Password: password}
	resp := &api.LoginResponse{}
	if err := c.invoke(ctx, api.MethodLogin, req, resp); err != nil {
		return nil, err
	}
	c.SetAccessToken(resp.Token)
	return resp, nil
}

func (c *GRPCClient) message(ctx context.Context, method string, req any) (string, error) {
	resp := &api.MessageResponse{}
	if err := c.invoke(ctx, method, req, resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *GRPCClient) ConfirmEmail(ctx context.Context, code string) (string, error) {
	return c.message(ctx, api.MethodConfirmEmail, &api.ConfirmEmailRequest{Code: code})
}

func (c *GRPCClient) ResendConfirmation(ctx context.Context, email string) (string, error) {
	return c.message(ctx, api.MethodResendConfirmation, &api.ResendConfirmationRequest{Email: email})
}

func (c *GRPCClient) ChangePassword(ctx context.Context, newPassword string) (string, error) {
	return c.message(ctx, api.MethodChangePassword, &api.ChangePasswordRequest{NewPassword: newPassword})
}

func (c *GRPCClient) AssignRole(ctx context.Context, userID int64, role string) (string, error) {
	return c.message(ctx, api.MethodAssignRole, &api.AssignRoleRequest{UserID: userID, Role: role})
}

func (c *GRPCClient) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return c.message(ctx, api.MethodRequestPasswordReset, &api.RequestPasswordResetRequest{Email: email})
}

func (c *GRPCClient) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	return c.message(ctx, api.MethodResetPassword, &api.ResetPasswordRequest{Token: token, NewPassword: newPassword})
}

func (c *GRPCClient) Me(ctx context.Context) (*api.UserInfo, error) {
	resp := &api.MeResponse{}
	if err := c.invoke(ctx, api.MethodMe, &api.MeRequest{}, resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	resp := &api.PingResponse{}
	if err := c.invoke(ctx, api.MethodPing, &api.PingRequest{}, resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

// mapError restores domain sentinels from status errors so callers can
// use errors.Is.
func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	}
	if mapped := api.FromStatus(err); mapped != err {
		return mapped
	}
	return fmt.Errorf("rpc error: %w", err)
}
