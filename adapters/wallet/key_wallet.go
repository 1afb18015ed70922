package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
)

// KeyWallet signs with a raw secp256k1 key held in memory.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ ports.Wallet = (*KeyWallet)(nil)

// NewKeyWallet wraps an existing key.
func NewKeyWallet(key *ecdsa.PrivateKey) *KeyWallet {
	return &KeyWallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

// NewKeyWalletFromHex parses a hex private key, with or without 0x.
func NewKeyWalletFromHex(hexKey string) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid wallet key: %w", err)
	}
	return NewKeyWallet(key), nil
}

// Address returns the account of the key.
func (w *KeyWallet) Address() string {
	return w.address.Hex()
}

func (w *KeyWallet) Connect(ctx context.Context) (string, error) {
	return w.address.Hex(), nil
}

func (w *KeyWallet) Sign(ctx context.Context, account, message string) (string, error) {
	addr, err := ParseAddress(account)
	if err != nil {
		return "", err
	}
	if addr != w.address {
		return "", fmt.Errorf("unknown account %s: %w", addr.Hex(), core.ErrWalletNotConnected)
	}
	return SignText(w.key, message)
}
