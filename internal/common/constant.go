// Package common contains shared constants and sentinel errors used across
// the round-up client, its transports and the sandbox bank server.
package common

// HTTP header names and values shared by every outbound call.
const (
	AuthorizationHeaderName = "Authorization"
	AcceptHeaderName        = "Accept"
	UserAgentHeaderName     = "User-Agent"

	BearerPrefix    = "Bearer "
	JSONContentType = "application/json"
	FormContentType = "application/x-www-form-urlencoded"
)

// Transaction feed vocabulary of the upstream API.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"

	SourceInternalTransfer = "INTERNAL_TRANSFER"
)
