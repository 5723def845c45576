package models

import (
	"time"

	"github.com/google/uuid"
)

// ClaimStatus is the review state of a claim. New claims start pending;
// later transitions are made by an administrative process outside this
// service, so the ledger only ever creates and reads rows.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
	ClaimExpired  ClaimStatus = "expired"
)

// ValidClaimStatus reports whether status names a known claim status.
func ValidClaimStatus(status string) bool {
	switch ClaimStatus(status) {
	case ClaimPending, ClaimApproved, ClaimRejected, ClaimExpired:
		return true
	}
	return false
}

// Claim links a user to a deal they redeemed. The composite unique index is
// the durable guarantee that a user claims a deal at most once; application
// checks only exist to produce friendlier errors.
type Claim struct {
	Base
	UserID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_claims_user_deal" json:"user_id"`
	DealID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_claims_user_deal" json:"deal_id"`

	Status     ClaimStatus `gorm:"index;default:'pending'" json:"status"`
	ClaimedAt  time.Time   `gorm:"not null" json:"claimed_at"`
	ApprovedAt *time.Time  `json:"approved_at,omitempty"`

	// Redemption code shown to the claimant; unique and immutable once set.
	Code string `gorm:"uniqueIndex" json:"code,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
	Deal *Deal `gorm:"foreignKey:DealID" json:"deal,omitempty"`
}

func (Claim) TableName() string {
	return "claims"
}
