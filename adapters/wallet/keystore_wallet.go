package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
	"github.com/rs/zerolog/log"
)

// KeystoreWallet signs with accounts from an encrypted go-ethereum keystore.
// Keys stay encrypted at rest and are unlocked for a single signature only.
type KeystoreWallet struct {
	ks         *keystore.KeyStore
	passphrase string
}

var _ ports.Wallet = (*KeystoreWallet)(nil)

// NewKeystoreWallet opens the keystore directory dir.
func NewKeystoreWallet(dir, passphrase string) *KeystoreWallet {
	return NewKeystoreWalletFrom(keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP), passphrase)
}

// NewKeystoreWalletFrom uses an already opened keystore.
func NewKeystoreWalletFrom(ks *keystore.KeyStore, passphrase string) *KeystoreWallet {
	return &KeystoreWallet{ks: ks, passphrase: passphrase}
}

// Connect returns the first account of the keystore.
func (w *KeystoreWallet) Connect(ctx context.Context) (string, error) {
	accs := w.ks.Accounts()
	if len(accs) == 0 {
		return "", core.ErrWalletNotConnected
	}
	return accs[0].Address.Hex(), nil
}

func (w *KeystoreWallet) Sign(ctx context.Context, account, message string) (string, error) {
	addr, err := ParseAddress(account)
	if err != nil {
		return "", err
	}

	acc, err := w.ks.Find(accounts.Account{Address: addr})
	if err != nil {
		return "", fmt.Errorf("account %s: %w", addr.Hex(), core.ErrWalletNotConnected)
	}

	sig, err := w.ks.SignHashWithPassphrase(acc, w.passphrase, accounts.TextHash([]byte(message)))
	if err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			log.Warn().Str("account", addr.Hex()).Msg("keystore passphrase rejected")
			return "", fmt.Errorf("unlock %s: %w", addr.Hex(), core.ErrUserRejected)
		}
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}
