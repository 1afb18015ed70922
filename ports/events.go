package ports

import "context"

// EventPublisher publishes session events to notify other instances
type EventPublisher interface {
	PublishLogin(ctx context.Context, userID, sessionID string) error
	PublishLogout(ctx context.Context, userID, sessionID string) error
	PublishPurchase(ctx context.Context, userID, courseUUID, walletAddress string) error
}
