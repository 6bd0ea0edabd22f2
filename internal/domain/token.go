package domain

import "time"

// TokenKind distinguishes short-lived access tokens from the refresh tokens
// used to renew them. A refresh token never authenticates a resource request.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Token is the decoded form of an issued credential. Validity is fully
// determined by signature and expiry; no server-side record exists.
type Token struct {
	Subject   string
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}
