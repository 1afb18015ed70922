package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
	"github.com/rs/zerolog/log"
)

// DefaultSessionTTL bounds how long a stored session survives without a new login.
const DefaultSessionTTL = 24 * time.Hour

// SessionService handles login, signup and logout
type SessionService struct {
	backend   ports.Backend
	store     ports.SessionStore
	tokenizer ports.Tokenizer
	eventPub  ports.EventPublisher

	sessionTTL time.Duration
	now        func() time.Time
}

// NewSessionService creates a new session service. A zero ttl uses DefaultSessionTTL.
func NewSessionService(
	backend ports.Backend,
	store ports.SessionStore,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	sessionTTL time.Duration,
) *SessionService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &SessionService{
		backend:    backend,
		store:      store,
		tokenizer:  tokenizer,
		eventPub:   eventPub,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// SessionTTL is the lifetime given to new sessions and their cookies.
func (s *SessionService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Login authenticates against the backend and opens a gateway session. It
// returns the session together with the signed cookie value naming it.
func (s *SessionService) Login(ctx context.Context, username, password string) (*core.Session, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", fmt.Errorf("username and password are required: %w", core.ErrInvalidRequest)
	}

	session, err := s.backend.Login(ctx, username, password)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	session.ID = uuid.New().String()
	session.IssuedAt = now
	session.ExpiresAt = now.Add(s.sessionTTL)
	if session.UserName == "" {
		session.UserName = username
	}

	cookie, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	if err := s.store.Set(ctx, session.ID, session.Fields(), s.sessionTTL); err != nil {
		return nil, "", fmt.Errorf("failed to store session: %w", err)
	}

	if err := s.eventPub.PublishLogin(ctx, session.UserID, session.ID); err != nil {
		log.Warn().Err(err).Str("session", session.ID).Msg("failed to publish login event")
	}

	return session, cookie, nil
}

// Signup registers a new account. On success the user is sent to the login page.
func (s *SessionService) Signup(ctx context.Context, req core.SignupRequest) (core.Outcome, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	req.WalletAddress = strings.TrimSpace(req.WalletAddress)

	if req.Username == "" || req.Name == "" || req.Password == "" || req.WalletAddress == "" {
		err := fmt.Errorf("every signup field is required: %w", core.ErrInvalidRequest)
		return core.Fail(Describe(err)), err
	}
	if !common.IsHexAddress(req.WalletAddress) {
		err := fmt.Errorf("%q: %w", req.WalletAddress, core.ErrInvalidAddress)
		return core.Fail(Describe(err)), err
	}
	req.WalletAddress = common.HexToAddress(req.WalletAddress).Hex()

	if err := s.backend.Signup(ctx, req); err != nil {
		return core.Fail(Describe(err)), err
	}
	return core.Navigate("/", MsgSignedUp), nil
}

// Resolve maps a cookie value to its stored session
func (s *SessionService) Resolve(ctx context.Context, cookie string) (*core.Session, error) {
	if cookie == "" {
		return nil, core.ErrSessionNotFound
	}

	id, err := s.tokenizer.TokenToSessionID(cookie)
	if err != nil {
		return nil, err
	}

	fields, err := s.store.GetAll(ctx, id)
	if err != nil {
		return nil, err
	}

	return core.SessionFromFields(id, fields)
}

// Logout drops every stored field of the session
func (s *SessionService) Logout(ctx context.Context, session *core.Session) error {
	if err := s.store.Clear(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	// Best effort, the session is already gone.
	if err := s.eventPub.PublishLogout(ctx, session.UserID, session.ID); err != nil {
		log.Warn().Err(err).Str("session", session.ID).Msg("failed to publish logout event")
	}

	return nil
}
