// Package common contains shared constants and sentinel errors used across
// todokeeper components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only authorization scheme accepted by the server.
const BearerScheme = "Bearer"
