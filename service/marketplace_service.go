package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultFetchLimit bounds concurrent course lookups of the owned courses page.
const DefaultFetchLimit = 4

// Marketplace is the course listing page.
type Marketplace struct {
	DisplayName string        `json:"displayName"`
	Courses     []core.Course `json:"courses"`
}

// CourseDetail is a course together with its resolved content links.
type CourseDetail struct {
	Course core.Course        `json:"course"`
	Links  []core.ContentLink `json:"links"`
}

// MarketplaceService runs the page flows behind the gated routes
type MarketplaceService struct {
	backend  ports.Backend
	resolver ports.ContentResolver
	eventPub ports.EventPublisher

	fetchLimit int
}

// NewMarketplaceService creates a new marketplace service
func NewMarketplaceService(
	backend ports.Backend,
	resolver ports.ContentResolver,
	eventPub ports.EventPublisher,
) *MarketplaceService {
	return &MarketplaceService{
		backend:    backend,
		resolver:   resolver,
		eventPub:   eventPub,
		fetchLimit: DefaultFetchLimit,
	}
}

// ListCourses returns the public catalog and the name to greet the user with
func (s *MarketplaceService) ListCourses(ctx context.Context, session *core.Session) (*Marketplace, error) {
	courses, err := s.backend.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	if courses == nil {
		courses = []core.Course{}
	}
	return &Marketplace{DisplayName: session.DisplayName(), Courses: courses}, nil
}

// CourseDetail loads one course and resolves its content addresses.
func (s *MarketplaceService) CourseDetail(ctx context.Context, session *core.Session, courseUUID string) (*CourseDetail, error) {
	course, err := s.backend.GetCourse(ctx, courseUUID, session.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	links := make([]core.ContentLink, 0, len(course.ContentIDs))
	for _, id := range course.ContentIDs {
		link, err := s.resolver.Resolve(id)
		if err != nil {
			log.Warn().Err(err).Str("course", course.UUID).Msg("skipping content address")
			continue
		}
		links = append(links, link)
	}

	return &CourseDetail{Course: *course, Links: links}, nil
}

// BuyCourse signs the purchase message with wallet and asks the backend to
// mint the ownership token. The returned outcome is always set; err carries
// the cause for status mapping and logs.
func (s *MarketplaceService) BuyCourse(ctx context.Context, session *core.Session, courseUUID string, wallet ports.Wallet) (core.Outcome, error) {
	courseUUID = strings.TrimSpace(courseUUID)
	if courseUUID == "" {
		err := fmt.Errorf("course uuid is required: %w", core.ErrInvalidRequest)
		return core.Fail(Describe(err)), err
	}

	account, message, signature, err := s.sign(ctx, wallet, session.WalletAddress, PurchaseMessage(courseUUID))
	if err != nil {
		return core.Fail(Describe(err)), err
	}

	proof := &core.PurchaseProof{Signature: signature, Message: message}
	if err := s.backend.BuyCourse(ctx, courseUUID, session.Token, proof); err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			return core.Fail(MsgCourseNotFound), err
		case serverFailure(err):
			return core.Fail(MsgMintFailed), err
		}
		return core.Fail(Describe(err)), err
	}

	if err := s.eventPub.PublishPurchase(ctx, session.UserID, courseUUID, account); err != nil {
		log.Warn().Err(err).Str("course", courseUUID).Msg("failed to publish purchase event")
	}

	return core.Navigate(courseRedirect(courseUUID), MsgTokenMinted), nil
}

// MyCourses proves wallet ownership, lists the wallet's tokens and joins
// each with its course. Courses the backend no longer knows are left out.
func (s *MarketplaceService) MyCourses(ctx context.Context, session *core.Session, wallet ports.Wallet) ([]core.OwnedCourse, error) {
	_, _, signature, err := s.sign(ctx, wallet, session.WalletAddress, OwnershipMessage)
	if err != nil {
		return nil, err
	}

	tokens, err := s.backend.ListOwnedTokens(ctx, signature, session.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned tokens: %w", err)
	}

	courses := make([]*core.Course, len(tokens))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchLimit)
	for i, token := range tokens {
		g.Go(func() error {
			course, err := s.backend.GetCourse(gctx, token.CourseUUID, session.Token)
			if errors.Is(err, core.ErrNotFound) {
				log.Warn().Str("course", token.CourseUUID).Msg("owned course not found")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get course %s: %w", token.CourseUUID, err)
			}
			courses[i] = course
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	owned := make([]core.OwnedCourse, 0, len(tokens))
	for i, course := range courses {
		if course == nil {
			continue
		}
		owned = append(owned, core.OwnedCourse{Token: tokens[i], Course: *course})
	}
	return owned, nil
}

// CreateCourse validates and uploads a new course, then opens its page
func (s *MarketplaceService) CreateCourse(ctx context.Context, session *core.Session, draft core.CourseDraft) (core.Outcome, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	if err := draft.Validate(); err != nil {
		return core.Fail(Describe(err)), err
	}

	id, err := s.backend.CreateCourse(ctx, draft, session.Token)
	if err != nil {
		return core.Fail(Describe(err)), fmt.Errorf("failed to create course: %w", err)
	}
	return core.Navigate(courseRedirect(id), MsgCourseCreated), nil
}

// sign connects the wallet and signs message with the granted account.
// Nothing reaches the backend unless both steps succeed.
func (s *MarketplaceService) sign(ctx context.Context, wallet ports.Wallet, sessionWallet, message string) (account, msg, signature string, err error) {
	account, err = wallet.Connect(ctx)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to connect wallet: %w", err)
	}
	if account == "" {
		return "", "", "", core.ErrWalletNotConnected
	}
	// A session bound to a wallet only accepts signatures from that wallet.
	if sessionWallet != "" && !sameAccount(sessionWallet, account) {
		return "", "", "", fmt.Errorf("connected account %s is not the session wallet %s: %w", account, sessionWallet, core.ErrWalletNotConnected)
	}

	signature, err = wallet.Sign(ctx, account, message)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to sign message: %w", err)
	}
	return account, message, signature, nil
}

func sameAccount(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if common.IsHexAddress(a) && common.IsHexAddress(b) {
		return common.HexToAddress(a) == common.HexToAddress(b)
	}
	return strings.EqualFold(a, b)
}
