// Package backendtest provides an in-memory course backend for tests.
package backendtest

import (
	"context"
	"io"
	"sync"

	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
)

// Account is a registered user of the fake backend.
type Account struct {
	Password string
	Session  core.Session
}

// Fake is a scriptable ports.Backend. Zero values behave like an empty
// backend; the *Err fields force the matching call to fail.
type Fake struct {
	mu sync.Mutex

	Accounts map[string]Account
	Courses  []core.Course
	// Owned maps a backend token to the course UUIDs its wallet owns.
	Owned map[string][]string

	LoginErr   error
	SignupErr  error
	ListErr    error
	GetErr     error
	CreateErr  error
	BuyErr     error
	TokensErr  error
	CreatedID  string
	calls      map[string]int
	LastProof  *core.PurchaseProof
	LastSig    string
	LastDraft  *core.CourseDraft
	LastSignup *core.SignupRequest
}

var _ ports.Backend = (*Fake)(nil)

// Calls returns how many times the named operation ran.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

func (f *Fake) Login(ctx context.Context, username, password string) (*core.Session, error) {
	f.record("login")
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	acc, ok := f.Accounts[username]
	if !ok || acc.Password != password {
		return nil, core.ErrInvalidCredentials
	}
	s := acc.Session
	return &s, nil
}

func (f *Fake) Signup(ctx context.Context, req core.SignupRequest) error {
	f.record("signup")
	f.mu.Lock()
	f.LastSignup = &req
	f.mu.Unlock()
	return f.SignupErr
}

func (f *Fake) ListCourses(ctx context.Context) ([]core.Course, error) {
	f.record("list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]core.Course(nil), f.Courses...), nil
}

func (f *Fake) GetCourse(ctx context.Context, uuid, token string) (*core.Course, error) {
	f.record("get")
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, c := range f.Courses {
		if c.UUID == uuid {
			c := c
			return &c, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *Fake) CreateCourse(ctx context.Context, draft core.CourseDraft, token string) (string, error) {
	f.record("create")
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	for _, m := range draft.Materials {
		_, _ = io.Copy(io.Discard, m.Body)
	}
	f.mu.Lock()
	f.LastDraft = &draft
	f.mu.Unlock()
	if f.CreatedID == "" {
		return "new-course", nil
	}
	return f.CreatedID, nil
}

func (f *Fake) BuyCourse(ctx context.Context, uuid, token string, proof *core.PurchaseProof) error {
	f.record("buy")
	f.mu.Lock()
	f.LastProof = proof
	f.mu.Unlock()
	return f.BuyErr
}

func (f *Fake) ListOwnedTokens(ctx context.Context, signature, token string) ([]core.OwnershipToken, error) {
	f.record("tokens")
	f.mu.Lock()
	f.LastSig = signature
	f.mu.Unlock()
	if f.TokensErr != nil {
		return nil, f.TokensErr
	}
	var tokens []core.OwnershipToken
	for _, id := range f.Owned[token] {
		tokens = append(tokens, core.OwnershipToken{CourseUUID: id, Signature: signature})
	}
	return tokens, nil
}
