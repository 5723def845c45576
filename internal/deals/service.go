package deals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/startup-vault/internal/database/models"
	"gorm.io/gorm"
)

// Service queries the deal catalog. Every listing and detail read intersects
// the requested filters with the gate's visibility rule for the viewer.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Filters narrows a catalog listing. AccessLevel accepts "public",
// "verified" or "all"; the result never widens past what the viewer may see.
type Filters struct {
	Search      string
	Category    string
	AccessLevel string
	Limit       int
	Skip        int
}

func (f *Filters) Normalize() {
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.AccessLevel == "" {
		f.AccessLevel = "all"
	}
}

// DealView is a catalog row annotated for the requesting viewer.
type DealView struct {
	models.Deal
	IsClaimed bool
	IsLocked  bool
}

type Listing struct {
	Deals []DealView
	Total int64
}

// ClaimSummary is the viewer's own claim state on a deal detail.
type ClaimSummary struct {
	Status models.ClaimStatus
	Code   string
}

// DealDetail is a single deal annotated for the requesting viewer. Locked
// details omit the claim summary.
type DealDetail struct {
	models.Deal
	IsLocked  bool
	UserClaim *ClaimSummary
}

// List returns unexpired deals matching the filters, restricted to the tiers
// visible to the viewer. An unverified or anonymous viewer never receives
// verified-tier deals, whatever the requested access-level filter says.
func (s *Service) List(ctx context.Context, f Filters, viewer *Viewer) (*Listing, error) {
	f.Normalize()

	visible := []models.AccessLevel{models.AccessPublic}
	if viewer != nil && viewer.Verified {
		visible = append(visible, models.AccessVerified)
	}

	query := s.db.WithContext(ctx).
		Model(&models.Deal{}).
		Where("expires_at > ?", time.Now()).
		Where("access_level IN ?", visible)

	switch f.AccessLevel {
	case "public", "verified":
		query = query.Where("access_level = ?", f.AccessLevel)
	}

	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}

	if f.Search != "" {
		// LOWER + LIKE keeps the substring match case-insensitive on both
		// postgres and the sqlite test driver.
		pattern := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(partner_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting deals: %w", err)
	}

	var rows []models.Deal
	if err := query.
		Order("created_at DESC").
		Offset(f.Skip).
		Limit(f.Limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing deals: %w", err)
	}

	claimed, err := s.claimedDealIDs(ctx, viewer)
	if err != nil {
		return nil, err
	}

	views := make([]DealView, len(rows))
	for i := range rows {
		views[i] = DealView{
			Deal:      rows[i],
			IsClaimed: claimed[rows[i].ID],
			IsLocked:  Locked(&rows[i], viewer),
		}
	}

	return &Listing{Deals: views, Total: total}, nil
}

// Get returns a single deal annotated for the viewer. Verified-tier deals
// are returned to unverified viewers with IsLocked set rather than refused
// outright, so the client can prompt for verification.
func (s *Service) Get(ctx context.Context, id uuid.UUID, viewer *Viewer) (*DealDetail, error) {
	var deal models.Deal
	if err := s.db.WithContext(ctx).First(&deal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("looking up deal: %w", err)
	}

	detail := &DealDetail{
		Deal:     deal,
		IsLocked: Locked(&deal, viewer),
	}

	if viewer != nil && !detail.IsLocked {
		var claim models.Claim
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND deal_id = ?", viewer.ID, deal.ID).
			First(&claim).Error
		switch {
		case err == nil:
			detail.UserClaim = &ClaimSummary{Status: claim.Status, Code: claim.Code}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// No claim yet.
		default:
			return nil, fmt.Errorf("looking up claim: %w", err)
		}
	}

	return detail, nil
}

// claimedDealIDs collects the deals the viewer holds a live (pending or
// approved) claim on, for the IsClaimed listing flag.
func (s *Service) claimedDealIDs(ctx context.Context, viewer *Viewer) (map[uuid.UUID]bool, error) {
	if viewer == nil {
		return nil, nil
	}

	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("user_id = ? AND status IN ?", viewer.ID,
			[]models.ClaimStatus{models.ClaimPending, models.ClaimApproved}).
		Pluck("deal_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("listing user claims: %w", err)
	}

	claimed := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		claimed[id] = true
	}
	return claimed, nil
}
