package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/startup-vault/internal/api/dto"
	"github.com/hugh/startup-vault/internal/api/middleware"
	"github.com/hugh/startup-vault/internal/api/validation"
	"github.com/hugh/startup-vault/internal/auth"
	"github.com/hugh/startup-vault/internal/claims"
	"github.com/hugh/startup-vault/internal/database/models"
	"github.com/hugh/startup-vault/internal/deals"
)

type DealHandler struct {
	dealService  *deals.Service
	claimService *claims.Service
	authService  *auth.Service
	logger       *slog.Logger
}

func NewDealHandler(dealService *deals.Service, claimService *claims.Service, authService *auth.Service, logger *slog.Logger) *DealHandler {
	return &DealHandler{
		dealService:  dealService,
		claimService: claimService,
		authService:  authService,
		logger:       logger,
	}
}

// viewer resolves the requesting user's current verification state from the
// identity store. The token only identifies the caller; a verification flag
// baked into a 7-day token would go stale the moment the user verifies.
func (h *DealHandler) viewer(r *http.Request) *deals.Viewer {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		return nil
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		// Token for a user that no longer exists; treat as anonymous.
		return nil
	}

	return &deals.Viewer{ID: user.ID, Verified: user.IsVerified}
}

// List handles GET /api/v1/deals
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	accessLevel := q.Get("access_level")
	switch accessLevel {
	case "", "all", "public", "verified":
	default:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid access level filter"})
		return
	}

	category := q.Get("category")
	if category != "" && !models.ValidDealCategory(category) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid category filter"})
		return
	}

	params := dto.ListParams{}
	params.Limit, _ = strconv.Atoi(q.Get("limit"))
	params.Skip, _ = strconv.Atoi(q.Get("skip"))
	params.Normalize()

	search := validation.TruncateString(validation.SanitizeString(q.Get("search")), 100)

	filters := deals.Filters{
		Search:      search,
		Category:    category,
		AccessLevel: accessLevel,
		Limit:       params.Limit,
		Skip:        params.Skip,
	}

	listing, err := h.dealService.List(r.Context(), filters, h.viewer(r))
	if err != nil {
		h.logger.Error("failed to list deals", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list deals"})
		return
	}

	resp := dto.DealListResponse{
		Deals: make([]dto.DealResponse, len(listing.Deals)),
		Total: listing.Total,
		Limit: params.Limit,
		Skip:  params.Skip,
	}
	for i := range listing.Deals {
		resp.Deals[i] = dto.DealViewToResponse(&listing.Deals[i])
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/deals/:id
func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	if !validation.IsValidUUID(idParam) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid deal ID"})
		return
	}
	dealID := uuid.MustParse(idParam)

	detail, err := h.dealService.Get(r.Context(), dealID, h.viewer(r))
	if err != nil {
		switch {
		case errors.Is(err, deals.ErrDealNotFound):
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Deal not found"})
		default:
			h.logger.Error("failed to get deal", "error", err, "deal_id", dealID)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get deal"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.DealDetailToResponse(detail))
}

// Claim handles POST /api/v1/deals/:id/claim
func (h *DealHandler) Claim(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	idParam := chi.URLParam(r, "id")
	if !validation.IsValidUUID(idParam) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid deal ID"})
		return
	}
	dealID := uuid.MustParse(idParam)

	claim, err := h.claimService.Submit(r.Context(), dealID, userID)
	if err != nil {
		switch {
		case errors.Is(err, deals.ErrDealNotFound):
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Deal not found"})
		case errors.Is(err, auth.ErrUserNotFound):
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		case errors.Is(err, deals.ErrNotVerified):
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "This deal requires verified email"})
		case errors.Is(err, deals.ErrAlreadyClaimed):
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "You have already claimed this deal"})
		case errors.Is(err, deals.ErrDealExpired):
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "This deal has expired"})
		case errors.Is(err, deals.ErrCapacityReached):
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "This deal has reached its claim limit"})
		default:
			h.logger.Error("claim failed", "error", err, "deal_id", dealID, "user_id", userID)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to claim deal"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, dto.ClaimToResponse(claim))
}
