// Package api holds the wire contract of the authkeeper gRPC service: the
// service and method names, request and response messages, the JSON codec
// they travel with, and the mapping between domain errors and gRPC status.
package api

import "time"

const ServiceName = "authkeeper.v1.AuthService"

// Full method names as seen by interceptors.
const (
	MethodRegister             = "/" + ServiceName + "/Register"
	MethodLogin                = "/" + ServiceName + "/Login"
	MethodConfirmEmail         = "/" + ServiceName + "/ConfirmEmail"
	MethodResendConfirmation   = "/" + ServiceName + "/ResendConfirmation"
	MethodChangePassword       = "/" + ServiceName + "/ChangePassword"
	MethodMe                   = "/" + ServiceName + "/Me"
	MethodAssignRole           = "/" + ServiceName + "/AssignRole"
	MethodRequestPasswordReset = "/" + ServiceName + "/RequestPasswordReset"
	MethodResetPassword        = "/" + ServiceName + "/ResetPassword"
	MethodPing                 = "/" + ServiceName + "/Ping"
)

// UserInfo is the public view of an identity.
type UserInfo struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	Roles          []string  `json:"roles"`
	CreatedAt      time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User    UserInfo `json:"user"`
	Message string   `json:"message"`
}

// LoginRequest.Identifier is a username or, when it contains '@', an email.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	Token          string    `json:"token"`
	Type           string    `json:"type"`
	ExpiresAt      time.Time `json:"expiresAt"`
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	Roles          []string  `json:"roles"`
}

type ConfirmEmailRequest struct {
	Code string `json:"code"`
}

type ResendConfirmationRequest struct {
	Email string `json:"email"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type MeRequest struct{}

type MeResponse struct {
	User UserInfo `json:"user"`
}

type AssignRoleRequest struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// MessageResponse is returned by operations with nothing but a confirmation to report.
type MessageResponse struct {
	Message string `json:"message"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
