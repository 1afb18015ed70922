package ports

import (
	"context"

	"github.com/layer-3/learnchain/core"
)

// Backend is the remote course API.
type Backend interface {
	Login(ctx context.Context, username, password string) (*core.Session, error)
	Signup(ctx context.Context, req core.SignupRequest) error
	ListCourses(ctx context.Context) ([]core.Course, error)
	GetCourse(ctx context.Context, uuid, token string) (*core.Course, error)
	CreateCourse(ctx context.Context, draft core.CourseDraft, token string) (string, error)
	BuyCourse(ctx context.Context, uuid, token string, proof *core.PurchaseProof) error
	ListOwnedTokens(ctx context.Context, signature, token string) ([]core.OwnershipToken, error)
}
