package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/learnchain/ports"
)

const (
	TopicLogin     = "learnchain.session.login"
	TopicLogout    = "learnchain.session.logout"
	TopicPurchased = "learnchain.course.purchased"
)

// SessionEvent is published when a session starts or ends
type SessionEvent struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// PurchaseEvent is published after the backend accepted a purchase
type PurchaseEvent struct {
	UserID        string    `json:"user_id"`
	CourseUUID    string    `json:"course_uuid"`
	WalletAddress string    `json:"wallet_address"`
	At            time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, userID, sessionID string) error {
	return p.publish(ctx, TopicLogin, SessionEvent{UserID: userID, SessionID: sessionID, At: time.Now().UTC()})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, userID, sessionID string) error {
	return p.publish(ctx, TopicLogout, SessionEvent{UserID: userID, SessionID: sessionID, At: time.Now().UTC()})
}

// PublishPurchase publishes a course purchase event
func (p *WatermillPublisher) PublishPurchase(ctx context.Context, userID, courseUUID, walletAddress string) error {
	return p.publish(ctx, TopicPurchased, PurchaseEvent{
		UserID:        userID,
		CourseUUID:    courseUUID,
		WalletAddress: walletAddress,
		At:            time.Now().UTC(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishLogin(context.Context, string, string) error            { return nil }
func (NopPublisher) PublishLogout(context.Context, string, string) error           { return nil }
func (NopPublisher) PublishPurchase(context.Context, string, string, string) error { return nil }
