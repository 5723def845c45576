package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/startup-vault/internal/api/dto"
	"github.com/hugh/startup-vault/internal/api/handlers"
	"github.com/hugh/startup-vault/internal/api/middleware"
	"github.com/hugh/startup-vault/internal/claims"
	"github.com/hugh/startup-vault/internal/database/models"
	"github.com/hugh/startup-vault/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClaimTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	claimService := claims.NewService(tc.DB)
	handler := handlers.NewClaimHandler(claimService, testLogger())

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Route("/api/v1/claims", func(r chi.Router) {
			r.Get("/", handler.List)
			r.Get("/stats", handler.Stats)
			r.Get("/{id}", handler.Get)
		})
	})

	return r, tc
}

func TestClaimHandler_List(t *testing.T) {
	t.Run("lists the caller's claims newest first", func(t *testing.T) {
		router, tc := setupClaimTestRouter(t)
		defer tc.Cleanup()

		dealA := testutil.CreateTestDeal(t, tc.DB, testutil.WithTitle("First Deal"))
		dealB := testutil.CreateTestDeal(t, tc.DB, testutil.WithTitle("Second Deal"))
		testutil.CreateTestClaim(t, tc.DB, tc.User.ID, dealA.ID, models.ClaimPending)
		testutil.CreateTestClaim(t, tc.DB, tc.User.ID, dealB.ID, models.ClaimApproved)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/claims/", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ClaimListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, int64(2), resp.Total)
		require.Len(t, resp.Claims, 2)
		for _, c := range resp.Claims {
			assert.NotEmpty(t, c.DealTitle)
			assert.NotEmpty(t, c.Code)
		}
	})

	t.Run("does not leak other users' claims", func(t *testing.T) {
		router, tc := setupClaimTestRouter(t)
		defer tc.Cleanup()

		other := testutil.CreateVerifiedUser(t, tc.DB)
		deal := testutil.CreateTestDeal(t, tc.DB)
		testutil.CreateTestClaim(t, tc.DB, other.ID, deal.ID, models.ClaimPending)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/claims/", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var resp dto.ClaimListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Zero(t, resp.Total)
		assert.Empty(t, resp.Claims)
	})

	t.Run("filters by status", func(t *testing.T) {
		router, tc := setupClaimTestRouter(t)
		defer tc.Cleanup()

		dealA := testutil.CreateTestDeal(t, tc.DB)
		dealB := testutil.CreateTestDeal(t, tc.DB)
		testutil.CreateTestClaim(t, tc.DB, tc.User.ID, dealA.ID, models.ClaimPending)
		testutil.CreateTestClaim(t, tc.DB, tc.User.ID, dealB.ID, models.ClaimApproved)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/claims/?status=pending", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var resp dto.ClaimListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Claims, 1)
		assert.Equal(t, "pending", resp.Claims[0].Status)
	})

	t.Run("rejects invalid status filter", func(t *testing.T) {
		router, tc := setupClaimTestRouter(t)
		defer tc.Cleanup()

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/claims/?status=bogus", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		router, tc := setupClaimTestRouter(t)
		defer tc.Cleanup()

		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/claims/", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestClaimHandler_Get(t *testing.T) {
	t.Run("returns own claim with deal fields", func(t *testing.T) {
		router, tc := setupClaimTestRouter(t)
		defer tc.Cleanup()

		deal := testutil.CreateTestDeal(t, tc.DB, testutil.WithTitle("Claimed Deal"))
		claim := testutil.CreateTestClaim(t, tc.DB, tc.User.ID, deal.ID, models.ClaimApproved)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/claims/"+claim.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ClaimResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, claim.ID.String(), resp.ID)
		assert.Equal(t, "Claimed Deal", resp.DealTitle)
		assert.Equal(t, "approved", resp.Status)
	})

	t.Run("someone else's claim returns 403", func(t *testing.T) {
		router, tc := setupClaimTestRouter(t)
		defer tc.Cleanup()

		other := testutil.CreateVerifiedUser(t, tc.DB)
		deal := testutil.CreateTestDeal(t, tc.DB)
		claim := testutil.CreateTestClaim(t, tc.DB, other.ID, deal.ID, models.ClaimPending)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/claims/"+claim.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown claim returns 404", func(t *testing.T) {
		router, tc := setupClaimTestRouter(t)
		defer tc.Cleanup()

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/claims/"+uuid.NewString(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		router, tc := setupClaimTestRouter(t)
		defer tc.Cleanup()

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/claims/not-a-uuid", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestClaimHandler_Stats(t *testing.T) {
	t.Run("summarizes claims by status", func(t *testing.T) {
		router, tc := setupClaimTestRouter(t)
		defer tc.Cleanup()

		for _, status := range []models.ClaimStatus{
			models.ClaimPending, models.ClaimApproved, models.ClaimApproved,
		} {
			deal := testutil.CreateTestDeal(t, tc.DB)
			testutil.CreateTestClaim(t, tc.DB, tc.User.ID, deal.ID, status)
		}

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/claims/stats", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var stats claims.Stats
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
		assert.Equal(t, int64(1), stats.Pending)
		assert.Equal(t, int64(2), stats.Approved)
		assert.Equal(t, int64(3), stats.Total)
	})

	t.Run("requires authentication", func(t *testing.T) {
		router, tc := setupClaimTestRouter(t)
		defer tc.Cleanup()

		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/claims/stats", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
