package service

import (
	"errors"
	"fmt"

	"github.com/layer-3/learnchain/core"
)

// User facing messages.
const (
	MsgGeneric         = "An error occurred. Please try again later."
	MsgCourseNotFound  = "Course not found."
	MsgMintFailed      = "Error while minting token. Please try again later."
	MsgTokenMinted     = "Token minted and deposited. Redirecting to course page..."
	MsgCourseCreated   = "Course created. Redirecting to course page..."
	MsgSignedUp        = "Account created. Please log in."
	MsgBadCredentials  = "Invalid username or password."
	MsgSessionExpired  = "Your session has expired. Please log in again."
	MsgInvalidInput    = "Please check the form and try again."
	MsgWalletMissing   = "No wallet found. Please install a wallet to continue."
	MsgWalletNotLinked = "Wallet not connected. Please connect your wallet and try again."
	MsgWalletRejected  = "The wallet request was rejected."
	MsgWalletBadSig    = "The wallet signature could not be verified."
)

// Signed messages. The backend checks signatures against the exact text.
const (
	OwnershipMessage      = "Please sign this message to verify your ownership"
	purchaseMessagePrefix = "Please sign this message to purchase course "
)

// PurchaseMessage is the text a wallet signs to buy courseUUID.
func PurchaseMessage(courseUUID string) string {
	return purchaseMessagePrefix + courseUUID
}

// Describe collapses err into the message shown to the user.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrNotFound):
		return MsgCourseNotFound
	case errors.Is(err, core.ErrInvalidCredentials):
		return MsgBadCredentials
	case errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrTokenExpired),
		errors.Is(err, core.ErrInvalidToken),
		errors.Is(err, core.ErrUnauthenticated):
		return MsgSessionExpired
	case errors.Is(err, core.ErrProviderAbsent):
		return MsgWalletMissing
	case errors.Is(err, core.ErrWalletNotConnected):
		return MsgWalletNotLinked
	case errors.Is(err, core.ErrUserRejected):
		return MsgWalletRejected
	case errors.Is(err, core.ErrInvalidSignature):
		return MsgWalletBadSig
	case errors.Is(err, core.ErrInvalidRequest), errors.Is(err, core.ErrInvalidAddress):
		return MsgInvalidInput
	}
	return MsgGeneric
}

// statusCoder is implemented by backend errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

func serverFailure(err error) bool {
	var sc statusCoder
	return errors.As(err, &sc) && sc.StatusCode() >= 500
}

func courseRedirect(courseUUID string) string {
	return fmt.Sprintf("/my-courses/%s", courseUUID)
}
