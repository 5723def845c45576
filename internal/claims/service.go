package claims

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/startup-vault/internal/auth"
	"github.com/hugh/startup-vault/internal/database/models"
	"github.com/hugh/startup-vault/internal/deals"
	"gorm.io/gorm"
)

var (
	ErrClaimNotFound = errors.New("claim not found")
	ErrNotClaimOwner = errors.New("not authorized to view this claim")
)

// Service is the claim orchestrator: it owns the claim transaction and the
// read side of the user's claim ledger.
type Service struct {
	db *gorm.DB

	// newCode builds a redemption code for a deal; swappable in tests.
	newCode func(uuid.UUID) string
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, newCode: generateCode}
}

// Submit claims a deal for a user. Preconditions are checked against freshly
// read deal and user rows, then the counter increment and the claim insert
// commit in one transaction:
//
//   - the increment only applies while current_claims < max_claims, so
//     concurrent submissions at the capacity boundary cannot overshoot;
//   - the (user_id, deal_id) unique index decides duplicate races, and its
//     violation is reported as deals.ErrAlreadyClaimed;
//   - any failure rolls back both writes, so the counter never drifts from
//     the ledger.
func (s *Service) Submit(ctx context.Context, dealID, userID uuid.UUID) (*models.Claim, error) {
	var deal models.Deal
	if err := s.db.WithContext(ctx).First(&deal, "id = ?", dealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, deals.ErrDealNotFound
		}
		return nil, fmt.Errorf("looking up deal: %w", err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	var existing int64
	if err := s.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("user_id = ? AND deal_id = ?", userID, dealID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("checking existing claim: %w", err)
	}

	if err := deals.CanClaim(&deal, &user, existing > 0, time.Now()); err != nil {
		return nil, err
	}

	claim := &models.Claim{
		UserID:    userID,
		DealID:    dealID,
		Status:    models.ClaimPending,
		ClaimedAt: time.Now(),
	}

	// Two unique indexes guard the insert: the (user_id, deal_id) pair and
	// the redemption code. A duplicate-key failure on the pair means a
	// concurrent submission won the race; one on the code just means the
	// generator collided, which a fresh code fixes.
	for attempt := 0; ; attempt++ {
		claim.Code = s.newCode(dealID)

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Deal{}).
				Where("id = ? AND current_claims < max_claims", dealID).
				UpdateColumn("current_claims", gorm.Expr("current_claims + 1"))
			if res.Error != nil {
				return fmt.Errorf("incrementing claim count: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return deals.ErrCapacityReached
			}

			if err := tx.Create(claim).Error; err != nil {
				return fmt.Errorf("creating claim: %w", err)
			}
			return nil
		})
		if err == nil {
			return claim, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}

		var dup int64
		if cerr := s.db.WithContext(ctx).
			Model(&models.Claim{}).
			Where("user_id = ? AND deal_id = ?", userID, dealID).
			Count(&dup).Error; cerr != nil {
			return nil, fmt.Errorf("checking duplicate claim: %w", cerr)
		}
		if dup > 0 {
			return nil, deals.ErrAlreadyClaimed
		}
		if attempt >= 2 {
			return nil, fmt.Errorf("generating redemption code: %w", err)
		}
	}
}

type ListFilters struct {
	Status string
	Limit  int
	Skip   int
}

func (f *ListFilters) Normalize() {
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
}

// ListByUser returns the user's claims, newest first, with their deals
// preloaded for display.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, f ListFilters) ([]models.Claim, int64, error) {
	f.Normalize()

	query := s.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("user_id = ?", userID)

	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting claims: %w", err)
	}

	var rows []models.Claim
	if err := query.
		Preload("Deal").
		Order("created_at DESC").
		Offset(f.Skip).
		Limit(f.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("listing claims: %w", err)
	}

	return rows, total, nil
}

// Get returns a claim by id, restricted to its owner. A claim that exists
// but belongs to someone else reports ErrNotClaimOwner, not not-found.
func (s *Service) Get(ctx context.Context, claimID, userID uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	if err := s.db.WithContext(ctx).
		Preload("Deal").
		First(&claim, "id = ?", claimID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("looking up claim: %w", err)
	}

	if claim.UserID != userID {
		return nil, ErrNotClaimOwner
	}

	return &claim, nil
}

// Stats summarizes a user's claims by review status.
type Stats struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		status models.ClaimStatus
		dest   *int64
	}{
		{models.ClaimPending, &stats.Pending},
		{models.ClaimApproved, &stats.Approved},
		{models.ClaimRejected, &stats.Rejected},
	}

	for _, c := range counts {
		if err := s.db.WithContext(ctx).
			Model(&models.Claim{}).
			Where("user_id = ? AND status = ?", userID, c.status).
			Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("counting %s claims: %w", c.status, err)
		}
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("user_id = ?", userID).
		Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("counting claims: %w", err)
	}

	return stats, nil
}

// generateCode builds a redemption code from the deal identity and a
// nanosecond timestamp, e.g. "4F9A2C-1B2M3N4P5Q". Uniqueness is ultimately
// enforced by the codes' unique index; the format only needs to be readable
// and non-colliding in practice.
func generateCode(dealID uuid.UUID) string {
	raw := strings.ReplaceAll(dealID.String(), "-", "")
	suffix := strconv.FormatInt(time.Now().UnixNano(), 36)
	return strings.ToUpper(raw[len(raw)-6:] + "-" + suffix)
}
