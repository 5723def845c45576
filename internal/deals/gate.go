package deals

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/startup-vault/internal/database/models"
)

// Denial reasons for viewing or claiming a deal. Each failing precondition
// gets its own error so the API can report why a claim was refused.
var (
	ErrDealNotFound    = errors.New("deal not found")
	ErrDealExpired     = errors.New("deal has expired")
	ErrCapacityReached = errors.New("deal has reached its claim limit")
	ErrNotVerified     = errors.New("deal requires a verified email")
	ErrAlreadyClaimed  = errors.New("deal already claimed")
)

// Viewer identifies the requesting user for visibility decisions. A nil
// Viewer is an anonymous caller. Verified must come from a fresh read of the
// user row, never from the session token's embedded flag.
type Viewer struct {
	ID       uuid.UUID
	Verified bool
}

// CanView reports whether the viewer may see the deal at all. Public deals
// are visible to everyone, including anonymous callers; verified-tier deals
// only to verified users.
func CanView(deal *models.Deal, viewer *Viewer) bool {
	if deal.AccessLevel == models.AccessPublic {
		return true
	}
	return viewer != nil && viewer.Verified
}

// Locked reports whether the deal's gated content should be withheld from
// the viewer in detail responses.
func Locked(deal *models.Deal, viewer *Viewer) bool {
	return !CanView(deal, viewer)
}

// CanClaim checks every claim precondition and returns the first failing
// one. It is a pure function over freshly read state; the claim orchestrator
// re-enforces the capacity and uniqueness conditions inside its transaction,
// where races are decided by the storage layer.
//
// An exhausted deal the user already claimed reports ErrAlreadyClaimed, not
// ErrCapacityReached: their claim is the relevant fact.
func CanClaim(deal *models.Deal, user *models.User, hasClaim bool, now time.Time) error {
	if deal == nil {
		return ErrDealNotFound
	}
	if deal.Expired(now) {
		return ErrDealExpired
	}
	if deal.AccessLevel == models.AccessVerified && !user.IsVerified {
		return ErrNotVerified
	}
	if hasClaim {
		return ErrAlreadyClaimed
	}
	if deal.Exhausted() {
		return ErrCapacityReached
	}
	return nil
}
