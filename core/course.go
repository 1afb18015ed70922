package core

import (
	"io"

	"github.com/shopspring/decimal"
)

// MaxMaterials is the upper bound on files attached to a new course.
const MaxMaterials = 12

// Course is a read-only copy of a course owned by the remote backend.
type Course struct {
	ID          string          `json:"id"`
	UUID        string          `json:"uuid"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Author      string          `json:"author"`
	Price       decimal.Decimal `json:"price"`
	ContentIDs  []string        `json:"cids,omitempty"`
}

// OwnershipToken proves that a wallet bought a course.
type OwnershipToken struct {
	CourseUUID string `json:"courseUUID"`
	Signature  string `json:"signature,omitempty"`
}

// OwnedCourse joins an ownership token with the course it unlocks.
type OwnedCourse struct {
	Token  OwnershipToken `json:"token"`
	Course Course         `json:"course"`
}

// ContentLink is a downloadable content address resolved through a gateway.
type ContentLink struct {
	CID string `json:"cid"`
	URL string `json:"url"`
}

// Material is one uploaded course file.
type Material struct {
	Name string
	Body io.Reader
}

// CourseDraft is the input of course creation.
type CourseDraft struct {
	Title       string
	Price       decimal.Decimal
	Description string
	Materials   []Material
}

// Validate checks the draft the same way the creation form does.
func (d CourseDraft) Validate() error {
	switch {
	case d.Title == "", d.Description == "":
		return ErrInvalidRequest
	case d.Price.IsNegative():
		return ErrInvalidRequest
	case len(d.Materials) == 0, len(d.Materials) > MaxMaterials:
		return ErrInvalidRequest
	}
	return nil
}

// PurchaseProof is the optional wallet proof attached to a purchase.
type PurchaseProof struct {
	Signature string `json:"signature,omitempty"`
	Message   string `json:"message,omitempty"`
}

// SignupRequest carries the fields of a new account.
type SignupRequest struct {
	Username      string
	Name          string
	Password      string
	WalletAddress string
}
