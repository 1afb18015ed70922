package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/layer-3/learnchain/adapters/backend/backendtest"
	"github.com/layer-3/learnchain/adapters/gateway"
	"github.com/layer-3/learnchain/adapters/store"
	"github.com/layer-3/learnchain/adapters/tokenizer"
	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu        sync.Mutex
	logins    []string
	logouts   []string
	purchases []string
	err       error
}

func (p *recordingPublisher) PublishLogin(_ context.Context, _, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, sessionID)
	return p.err
}

func (p *recordingPublisher) PublishLogout(_ context.Context, _, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts = append(p.logouts, sessionID)
	return p.err
}

func (p *recordingPublisher) PublishPurchase(_ context.Context, _, courseUUID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purchases = append(p.purchases, courseUUID)
	return p.err
}

// stubWallet is a scripted wallet that counts its calls.
type stubWallet struct {
	account    string
	connectErr error
	signErr    error
	connects   int
	signs      int
	messages   []string
}

var _ ports.Wallet = (*stubWallet)(nil)

func (w *stubWallet) Connect(context.Context) (string, error) {
	w.connects++
	if w.connectErr != nil {
		return "", w.connectErr
	}
	if w.account == "" {
		return "", core.ErrWalletNotConnected
	}
	return w.account, nil
}

func (w *stubWallet) Sign(_ context.Context, _ string, message string) (string, error) {
	w.signs++
	w.messages = append(w.messages, message)
	if w.signErr != nil {
		return "", w.signErr
	}
	return "0xsig", nil
}

const (
	testAccount  = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"
	otherAccount = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
)

type fixture struct {
	backend     *backendtest.Fake
	store       ports.SessionStore
	events      *recordingPublisher
	sessions    *SessionService
	marketplace *MarketplaceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	resolver, err := gateway.New("")
	require.NoError(t, err)

	f := &fixture{
		backend: &backendtest.Fake{
			Accounts: map[string]backendtest.Account{
				"alice": {
					Password: "secret",
					Session: core.Session{
						Token:         "backend-token",
						UserName:      "alice",
						Name:          "Alice",
						WalletAddress: testAccount,
						UserID:        "user-1",
					},
				},
			},
		},
		store:  store.NewMemoryStore(),
		events: &recordingPublisher{},
	}
	f.sessions = NewSessionService(f.backend, f.store, tokenizer.NewJWTTokenizer(key), f.events, 0)
	f.marketplace = NewMarketplaceService(f.backend, resolver, f.events)
	return f
}

func (f *fixture) login(t *testing.T) (*core.Session, string) {
	t.Helper()
	session, cookie, err := f.sessions.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	return session, cookie
}
