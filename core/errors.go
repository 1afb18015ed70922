package core

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("remote session rejected")
	ErrNotFound           = errors.New("not found")
	ErrBackend            = errors.New("backend error")
	ErrInvalidRequest     = errors.New("invalid request")

	ErrProviderAbsent     = errors.New("wallet provider absent")
	ErrUserRejected       = errors.New("user rejected request")
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrInvalidAddress     = errors.New("invalid ethereum address")

	ErrInvalidContentID = errors.New("invalid content id")
)
