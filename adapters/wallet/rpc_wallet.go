package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
)

// EIP-1193 provider error codes.
const (
	codeUserRejected = 4001
	codeUnauthorized = 4100
)

// RPCWallet talks to a JSON-RPC wallet endpoint (a browser extension bridge,
// Frame, Clef and similar) using eth_requestAccounts and personal_sign.
type RPCWallet struct {
	client *rpc.Client
}

var _ ports.Wallet = (*RPCWallet)(nil)

// DialRPCWallet connects to the wallet endpoint at url.
func DialRPCWallet(ctx context.Context, url string) (*RPCWallet, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial wallet %s: %w", url, core.ErrProviderAbsent)
	}
	return &RPCWallet{client: client}, nil
}

// Close releases the RPC connection.
func (w *RPCWallet) Close() {
	w.client.Close()
}

func (w *RPCWallet) Connect(ctx context.Context) (string, error) {
	var accs []string
	if err := w.client.CallContext(ctx, &accs, "eth_requestAccounts"); err != nil {
		return "", providerError(ctx, "eth_requestAccounts", err)
	}
	if len(accs) == 0 {
		return "", core.ErrWalletNotConnected
	}
	if _, err := ParseAddress(accs[0]); err != nil {
		return "", err
	}
	return accs[0], nil
}

func (w *RPCWallet) Sign(ctx context.Context, account, message string) (string, error) {
	addr, err := ParseAddress(account)
	if err != nil {
		return "", err
	}

	var sig hexutil.Bytes
	if err := w.client.CallContext(ctx, &sig, "personal_sign", hexutil.Encode([]byte(message)), addr.Hex()); err != nil {
		return "", providerError(ctx, "personal_sign", err)
	}

	signature := hexutil.Encode(sig)
	if err := VerifySignature(addr.Hex(), message, signature); err != nil {
		return "", err
	}
	return signature, nil
}

func providerError(ctx context.Context, method string, err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case codeUserRejected:
			return fmt.Errorf("%s: %w", method, core.ErrUserRejected)
		case codeUnauthorized:
			return fmt.Errorf("%s: %w", method, core.ErrWalletNotConnected)
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", method, ctxErr)
	}
	return fmt.Errorf("%s: %w: %v", method, core.ErrProviderAbsent, err)
}
