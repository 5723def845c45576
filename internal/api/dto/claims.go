package dto

import (
	"time"

	"github.com/hugh/startup-vault/internal/database/models"
)

// ClaimResponse is a ledger row joined with its deal's display fields.
type ClaimResponse struct {
	ID           string     `json:"id"`
	DealID       string     `json:"deal_id"`
	DealTitle    string     `json:"deal_title,omitempty"`
	DealCategory string     `json:"deal_category,omitempty"`
	Status       string     `json:"status"`
	Code         string     `json:"code,omitempty"`
	ClaimedAt    time.Time  `json:"claimed_at"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
}

type ClaimListResponse struct {
	Claims []ClaimResponse `json:"claims"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Skip   int             `json:"skip"`
}

func ClaimToResponse(claim *models.Claim) ClaimResponse {
	resp := ClaimResponse{
		ID:         claim.ID.String(),
		DealID:     claim.DealID.String(),
		Status:     string(claim.Status),
		Code:       claim.Code,
		ClaimedAt:  claim.ClaimedAt,
		ApprovedAt: claim.ApprovedAt,
	}
	if claim.Deal != nil {
		resp.DealTitle = claim.Deal.Title
		resp.DealCategory = string(claim.Deal.Category)
	}
	return resp
}
