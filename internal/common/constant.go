// Package common contains shared constants and sentinel errors used across
// authkeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// AuthorizationHeaderName is accepted as an alternative carrier in the
// form "Bearer <token>".
const AuthorizationHeaderName = "authorization"

// TokenType is reported to clients next to the issued access token.
const TokenType = "Bearer"
