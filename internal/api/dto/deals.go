package dto

import (
	"time"

	"github.com/hugh/startup-vault/internal/database/models"
	"github.com/hugh/startup-vault/internal/deals"
)

type PartnerDTO struct {
	Name        string `json:"name"`
	Logo        string `json:"logo,omitempty"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
}

// DealResponse is a deal annotated for the requesting viewer.
type DealResponse struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	AccessLevel   string        `json:"access_level"`
	Discount      float64       `json:"discount"`
	DiscountType  string        `json:"discount_type"`
	MaxClaims     int           `json:"max_claims"`
	CurrentClaims int           `json:"current_claims"`
	Partner       PartnerDTO    `json:"partner"`
	Terms         string        `json:"terms,omitempty"`
	ExpiresAt     time.Time     `json:"expires_at"`
	IsClaimed     bool          `json:"is_claimed"`
	IsLocked      bool          `json:"is_locked"`
	UserClaim     *UserClaimDTO `json:"user_claim,omitempty"`
}

// UserClaimDTO is the viewer's own claim state on a deal.
type UserClaimDTO struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
}

type DealListResponse struct {
	Deals []DealResponse `json:"deals"`
	Total int64          `json:"total"`
	Limit int            `json:"limit"`
	Skip  int            `json:"skip"`
}

func dealToResponse(deal *models.Deal) DealResponse {
	return DealResponse{
		ID:            deal.ID.String(),
		Title:         deal.Title,
		Description:   deal.Description,
		Category:      string(deal.Category),
		AccessLevel:   string(deal.AccessLevel),
		Discount:      deal.Discount,
		DiscountType:  string(deal.DiscountType),
		MaxClaims:     deal.MaxClaims,
		CurrentClaims: deal.CurrentClaims,
		Partner: PartnerDTO{
			Name:        deal.Partner.Name,
			Logo:        deal.Partner.Logo,
			Description: deal.Partner.Description,
			Website:     deal.Partner.Website,
		},
		Terms:     deal.Terms,
		ExpiresAt: deal.ExpiresAt,
	}
}

func DealViewToResponse(view *deals.DealView) DealResponse {
	resp := dealToResponse(&view.Deal)
	resp.IsClaimed = view.IsClaimed
	resp.IsLocked = view.IsLocked
	return resp
}

// DealDetailToResponse maps a detail read. Locked deals keep their headline
// fields but drop the gated terms.
func DealDetailToResponse(detail *deals.DealDetail) DealResponse {
	resp := dealToResponse(&detail.Deal)
	resp.IsLocked = detail.IsLocked
	if detail.IsLocked {
		resp.Terms = ""
	}
	if detail.UserClaim != nil {
		resp.IsClaimed = detail.UserClaim.Status == models.ClaimPending ||
			detail.UserClaim.Status == models.ClaimApproved
		resp.UserClaim = &UserClaimDTO{
			Status: string(detail.UserClaim.Status),
			Code:   detail.UserClaim.Code,
		}
	}
	return resp
}
