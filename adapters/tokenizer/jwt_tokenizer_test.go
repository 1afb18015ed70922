package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/learnchain/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestSessionTokenRoundTrip(t *testing.T) {
	tk := NewJWTTokenizer(newKey(t))
	now := time.Now()

	token, err := tk.SessionToToken(&core.Session{
		ID:        "session-1",
		UserName:  "alice",
		UserID:    "u-1",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	id, err := tk.TokenToSessionID(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)
}

func TestSessionTokenWithoutExpiry(t *testing.T) {
	tk := NewJWTTokenizer(newKey(t))

	token, err := tk.SessionToToken(&core.Session{ID: "session-1", IssuedAt: time.Now()})
	require.NoError(t, err)

	id, err := tk.TokenToSessionID(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)
}

func TestSessionTokenRequiresID(t *testing.T) {
	tk := NewJWTTokenizer(newKey(t))

	_, err := tk.SessionToToken(&core.Session{UserName: "alice"})
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestSessionTokenExpired(t *testing.T) {
	tk := NewJWTTokenizer(newKey(t))
	past := time.Now().Add(-2 * time.Hour)

	token, err := tk.SessionToToken(&core.Session{ID: "session-1", IssuedAt: past, ExpiresAt: past.Add(time.Hour)})
	require.NoError(t, err)

	_, err = tk.TokenToSessionID(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestSessionTokenFromOtherKeyRejected(t *testing.T) {
	issuer := NewJWTTokenizer(newKey(t))
	verifier := NewJWTTokenizer(newKey(t))

	token, err := issuer.SessionToToken(&core.Session{ID: "session-1", IssuedAt: time.Now()})
	require.NoError(t, err)

	_, err = verifier.TokenToSessionID(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestSessionTokenWrongAudienceRejected(t *testing.T) {
	key := newKey(t)
	tk := NewJWTTokenizer(key)

	claims := SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID:       "session-1",
		Audience: jwt.ClaimStrings{"someone-else"},
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	require.NoError(t, err)

	_, err = tk.TokenToSessionID(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestSessionTokenGarbageRejected(t *testing.T) {
	tk := NewJWTTokenizer(newKey(t))

	_, err := tk.TokenToSessionID("not-a-jwt")
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestLoadSigningKey(t *testing.T) {
	key := newKey(t)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cookie.key")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), 0600))

	loaded, err := LoadSigningKey(path)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	bad := filepath.Join(t.TempDir(), "bad.key")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0600))
	_, err = LoadSigningKey(bad)
	assert.Error(t, err)
}
