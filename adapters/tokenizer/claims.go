package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the claims of a session cookie. The JWT ID is the session ID.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid,omitempty"` // Backend user identifier
}
