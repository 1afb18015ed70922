package core

import "time"

// Persisted session field names, the same keys the browser client used.
const (
	FieldToken         = "token"
	FieldUserName      = "uName"
	FieldName          = "name"
	FieldWalletAddress = "walletAddress"
	FieldUserID        = "uuid"
)

// SessionFields lists every persisted field, in a stable order.
var SessionFields = []string{FieldToken, FieldUserName, FieldName, FieldWalletAddress, FieldUserID}

// Session represents an authenticated user session
type Session struct {
	ID            string    // Gateway-side session identifier
	Token         string    // Bearer token issued by the course backend
	UserName      string    // Login name
	Name          string    // Display name
	WalletAddress string    // Wallet address registered at signup
	UserID        string    // Backend user identifier
	IssuedAt      time.Time // When the session was created
	ExpiresAt     time.Time // When the stored session is dropped
}

// Fields returns the five persisted fields of the session.
func (s *Session) Fields() map[string]string {
	return map[string]string{
		FieldToken:         s.Token,
		FieldUserName:      s.UserName,
		FieldName:          s.Name,
		FieldWalletAddress: s.WalletAddress,
		FieldUserID:        s.UserID,
	}
}

// SessionFromFields rebuilds a session from stored fields. A session without
// a token does not exist.
func SessionFromFields(id string, fields map[string]string) (*Session, error) {
	token := fields[FieldToken]
	if token == "" {
		return nil, ErrSessionNotFound
	}
	return &Session{
		ID:            id,
		Token:         token,
		UserName:      fields[FieldUserName],
		Name:          fields[FieldName],
		WalletAddress: fields[FieldWalletAddress],
		UserID:        fields[FieldUserID],
	}, nil
}

// DisplayName prefers the display name and falls back to the login name.
func (s *Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.UserName
}
