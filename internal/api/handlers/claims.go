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
	"github.com/hugh/startup-vault/internal/claims"
	"github.com/hugh/startup-vault/internal/database/models"
)

type ClaimHandler struct {
	claimService *claims.Service
	logger       *slog.Logger
}

func NewClaimHandler(claimService *claims.Service, logger *slog.Logger) *ClaimHandler {
	return &ClaimHandler{claimService: claimService, logger: logger}
}

// List handles GET /api/v1/claims
func (h *ClaimHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	q := r.URL.Query()

	status := q.Get("status")
	if status != "" && !models.ValidClaimStatus(status) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid status filter"})
		return
	}

	params := dto.ListParams{}
	params.Limit, _ = strconv.Atoi(q.Get("limit"))
	params.Skip, _ = strconv.Atoi(q.Get("skip"))
	params.Normalize()

	filters := claims.ListFilters{
		Status: status,
		Limit:  params.Limit,
		Skip:   params.Skip,
	}

	rows, total, err := h.claimService.ListByUser(r.Context(), userID, filters)
	if err != nil {
		h.logger.Error("failed to list claims", "error", err, "user_id", userID)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list claims"})
		return
	}

	resp := dto.ClaimListResponse{
		Claims: make([]dto.ClaimResponse, len(rows)),
		Total:  total,
		Limit:  params.Limit,
		Skip:   params.Skip,
	}
	for i := range rows {
		resp.Claims[i] = dto.ClaimToResponse(&rows[i])
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/claims/:id
func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	idParam := chi.URLParam(r, "id")
	if !validation.IsValidUUID(idParam) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid claim ID"})
		return
	}
	claimID := uuid.MustParse(idParam)

	claim, err := h.claimService.Get(r.Context(), claimID, userID)
	if err != nil {
		switch {
		case errors.Is(err, claims.ErrClaimNotFound):
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Claim not found"})
		case errors.Is(err, claims.ErrNotClaimOwner):
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not authorized to view this claim"})
		default:
			h.logger.Error("failed to get claim", "error", err, "claim_id", claimID)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get claim"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.ClaimToResponse(claim))
}

// Stats handles GET /api/v1/claims/stats
func (h *ClaimHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.claimService.Stats(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get claim stats", "error", err, "user_id", userID)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get claim stats"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
