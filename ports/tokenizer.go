package ports

import "github.com/layer-3/learnchain/core"

// Tokenizer converts between sessions and the signed cookie value handed to
// the browser.
type Tokenizer interface {
	SessionToToken(session *core.Session) (string, error)
	// TokenToSessionID verifies a cookie value and returns the session it names.
	TokenToSessionID(token string) (string, error)
}
