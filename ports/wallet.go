package ports

import "context"

// Wallet requests account access and produces personal_sign signatures.
type Wallet interface {
	// Connect returns the account the user granted access to.
	Connect(ctx context.Context) (string, error)
	// Sign signs message with the given account and returns the hex signature.
	Sign(ctx context.Context, account, message string) (string, error)
}
