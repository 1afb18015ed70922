package wallet

import (
	"context"
	"fmt"

	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
)

// Presigned replays a signature the browser already produced. It answers a
// single message for a single account and refuses anything else.
type Presigned struct {
	Account   string
	Message   string
	Signature string
}

var _ ports.Wallet = Presigned{}

func (p Presigned) Connect(ctx context.Context) (string, error) {
	if p.Account == "" {
		return "", core.ErrWalletNotConnected
	}
	addr, err := ParseAddress(p.Account)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

func (p Presigned) Sign(ctx context.Context, account, message string) (string, error) {
	if p.Signature == "" {
		return "", core.ErrUserRejected
	}
	if p.Message != "" && p.Message != message {
		return "", fmt.Errorf("signature covers a different message: %w", core.ErrInvalidSignature)
	}
	if err := VerifySignature(account, message, p.Signature); err != nil {
		return "", err
	}
	return p.Signature, nil
}

// Absent stands in when no wallet provider is installed.
type Absent struct{}

var _ ports.Wallet = Absent{}

func (Absent) Connect(context.Context) (string, error) {
	return "", core.ErrProviderAbsent
}

func (Absent) Sign(context.Context, string, string) (string, error) {
	return "", core.ErrProviderAbsent
}
