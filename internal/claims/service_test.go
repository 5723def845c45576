package claims_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/startup-vault/internal/claims"
	"github.com/hugh/startup-vault/internal/database/models"
	"github.com/hugh/startup-vault/internal/deals"
	"github.com/hugh/startup-vault/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Submit(t *testing.T) {
	t.Run("creates pending claim and increments the counter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateVerifiedUser(t, db)
		deal := testutil.CreateTestDeal(t, db, testutil.WithMaxClaims(10))

		claim, err := svc.Submit(ctx, deal.ID, user.ID)
		require.NoError(t, err)

		assert.Equal(t, models.ClaimPending, claim.Status)
		assert.Equal(t, user.ID, claim.UserID)
		assert.Equal(t, deal.ID, claim.DealID)
		assert.NotEmpty(t, claim.Code)
		assert.WithinDuration(t, time.Now(), claim.ClaimedAt, time.Minute)

		var stored models.Deal
		require.NoError(t, db.First(&stored, "id = ?", deal.ID).Error)
		assert.Equal(t, 1, stored.CurrentClaims)
	})

	t.Run("unverified user can claim public deal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateTestUser(t, db)
		deal := testutil.CreateTestDeal(t, db)

		_, err := svc.Submit(ctx, deal.ID, user.ID)
		assert.NoError(t, err)
	})

	t.Run("unverified user cannot claim verified deal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateTestUser(t, db)
		deal := testutil.CreateTestDeal(t, db,
			testutil.WithAccessLevel(models.AccessVerified))

		_, err := svc.Submit(ctx, deal.ID, user.ID)
		assert.Equal(t, deals.ErrNotVerified, err)
	})

	t.Run("verification unlocks claiming without a new session", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateTestUser(t, db)
		deal := testutil.CreateTestDeal(t, db,
			testutil.WithAccessLevel(models.AccessVerified))

		_, err := svc.Submit(ctx, deal.ID, user.ID)
		require.Equal(t, deals.ErrNotVerified, err)

		require.NoError(t, db.Model(user).Update("is_verified", true).Error)

		_, err = svc.Submit(ctx, deal.ID, user.ID)
		assert.NoError(t, err)
	})

	t.Run("rejects duplicate claim", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateVerifiedUser(t, db)
		deal := testutil.CreateTestDeal(t, db)

		_, err := svc.Submit(ctx, deal.ID, user.ID)
		require.NoError(t, err)

		_, err = svc.Submit(ctx, deal.ID, user.ID)
		assert.Equal(t, deals.ErrAlreadyClaimed, err)

		var stored models.Deal
		require.NoError(t, db.First(&stored, "id = ?", deal.ID).Error)
		assert.Equal(t, 1, stored.CurrentClaims)
	})

	t.Run("rejects expired deal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateVerifiedUser(t, db)
		deal := testutil.CreateTestDeal(t, db,
			testutil.WithExpiresAt(time.Now().Add(-time.Hour)))

		_, err := svc.Submit(ctx, deal.ID, user.ID)
		assert.Equal(t, deals.ErrDealExpired, err)
	})

	t.Run("rejects exhausted deal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateVerifiedUser(t, db)
		deal := testutil.CreateTestDeal(t, db,
			testutil.WithMaxClaims(3),
			testutil.WithCurrentClaims(3))

		_, err := svc.Submit(ctx, deal.ID, user.ID)
		assert.Equal(t, deals.ErrCapacityReached, err)
	})

	t.Run("claims never exceed max capacity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		deal := testutil.CreateTestDeal(t, db, testutil.WithMaxClaims(3))

		granted := 0
		for i := 0; i < 5; i++ {
			user := testutil.CreateVerifiedUser(t, db)
			if _, err := svc.Submit(ctx, deal.ID, user.ID); err == nil {
				granted++
			} else {
				assert.Equal(t, deals.ErrCapacityReached, err)
			}
		}
		assert.Equal(t, 3, granted)

		var stored models.Deal
		require.NoError(t, db.First(&stored, "id = ?", deal.ID).Error)
		assert.Equal(t, 3, stored.CurrentClaims)

		var total int64
		require.NoError(t, db.Model(&models.Claim{}).
			Where("deal_id = ?", deal.ID).Count(&total).Error)
		assert.Equal(t, int64(3), total)
	})

	t.Run("single-claim deal admits exactly one claimant", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		deal := testutil.CreateTestDeal(t, db, testutil.WithMaxClaims(1))
		first := testutil.CreateVerifiedUser(t, db)
		second := testutil.CreateVerifiedUser(t, db)

		_, err := svc.Submit(ctx, deal.ID, first.ID)
		require.NoError(t, err)

		_, err = svc.Submit(ctx, deal.ID, second.ID)
		assert.Equal(t, deals.ErrCapacityReached, err)
	})

	t.Run("repeat claimant on exhausted deal gets already claimed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		deal := testutil.CreateTestDeal(t, db, testutil.WithMaxClaims(1))
		user := testutil.CreateVerifiedUser(t, db)

		_, err := svc.Submit(ctx, deal.ID, user.ID)
		require.NoError(t, err)

		_, err = svc.Submit(ctx, deal.ID, user.ID)
		assert.Equal(t, deals.ErrAlreadyClaimed, err)
	})

	t.Run("rejected claim still blocks re-claiming", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateVerifiedUser(t, db)
		deal := testutil.CreateTestDeal(t, db, testutil.WithMaxClaims(10))

		// The (user, deal) pair stays occupied whatever the review outcome.
		testutil.CreateTestClaim(t, db, user.ID, deal.ID, models.ClaimRejected)

		_, err := svc.Submit(ctx, deal.ID, user.ID)
		assert.Equal(t, deals.ErrAlreadyClaimed, err)

		var stored models.Deal
		require.NoError(t, db.First(&stored, "id = ?", deal.ID).Error)
		assert.Equal(t, 0, stored.CurrentClaims)
	})

	t.Run("unknown deal returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)

		user := testutil.CreateVerifiedUser(t, db)
		_, err := svc.Submit(testutil.TestContext(t), uuid.New(), user.ID)
		assert.Equal(t, deals.ErrDealNotFound, err)
	})

	t.Run("generates uppercase codes tied to the deal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateVerifiedUser(t, db)
		deal := testutil.CreateTestDeal(t, db)

		claim, err := svc.Submit(ctx, deal.ID, user.ID)
		require.NoError(t, err)

		assert.Equal(t, strings.ToUpper(claim.Code), claim.Code)

		raw := strings.ToUpper(strings.ReplaceAll(deal.ID.String(), "-", ""))
		assert.True(t, strings.HasPrefix(claim.Code, raw[len(raw)-6:]),
			"code %q should start with deal suffix %q", claim.Code, raw[len(raw)-6:])
		assert.Contains(t, claim.Code, "-")
	})
}

func TestService_ListByUser(t *testing.T) {
	t.Run("returns only the user's claims with deals preloaded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateVerifiedUser(t, db)
		other := testutil.CreateVerifiedUser(t, db)
		dealA := testutil.CreateTestDeal(t, db, testutil.WithTitle("Mine A"))
		dealB := testutil.CreateTestDeal(t, db, testutil.WithTitle("Mine B"))
		dealC := testutil.CreateTestDeal(t, db, testutil.WithTitle("Theirs"))

		testutil.CreateTestClaim(t, db, user.ID, dealA.ID, models.ClaimPending)
		testutil.CreateTestClaim(t, db, user.ID, dealB.ID, models.ClaimApproved)
		testutil.CreateTestClaim(t, db, other.ID, dealC.ID, models.ClaimPending)

		rows, total, err := svc.ListByUser(ctx, user.ID, claims.ListFilters{})
		require.NoError(t, err)

		assert.Equal(t, int64(2), total)
		require.Len(t, rows, 2)
		for _, c := range rows {
			assert.Equal(t, user.ID, c.UserID)
			require.NotNil(t, c.Deal)
			assert.NotEmpty(t, c.Deal.Title)
		}
	})

	t.Run("filters by status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateVerifiedUser(t, db)
		dealA := testutil.CreateTestDeal(t, db)
		dealB := testutil.CreateTestDeal(t, db)

		testutil.CreateTestClaim(t, db, user.ID, dealA.ID, models.ClaimPending)
		testutil.CreateTestClaim(t, db, user.ID, dealB.ID, models.ClaimApproved)

		rows, total, err := svc.ListByUser(ctx, user.ID, claims.ListFilters{Status: "approved"})
		require.NoError(t, err)

		assert.Equal(t, int64(1), total)
		require.Len(t, rows, 1)
		assert.Equal(t, models.ClaimApproved, rows[0].Status)
	})

	t.Run("empty ledger lists nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)

		user := testutil.CreateVerifiedUser(t, db)
		rows, total, err := svc.ListByUser(testutil.TestContext(t), user.ID, claims.ListFilters{})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, rows)
	})
}

func TestService_Get(t *testing.T) {
	t.Run("owner can fetch their claim", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateVerifiedUser(t, db)
		deal := testutil.CreateTestDeal(t, db)
		claim := testutil.CreateTestClaim(t, db, user.ID, deal.ID, models.ClaimPending)

		got, err := svc.Get(ctx, claim.ID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, claim.ID, got.ID)
		require.NotNil(t, got.Deal)
		assert.Equal(t, deal.ID, got.Deal.ID)
	})

	t.Run("non-owner is refused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		owner := testutil.CreateVerifiedUser(t, db)
		other := testutil.CreateVerifiedUser(t, db)
		deal := testutil.CreateTestDeal(t, db)
		claim := testutil.CreateTestClaim(t, db, owner.ID, deal.ID, models.ClaimPending)

		_, err := svc.Get(ctx, claim.ID, other.ID)
		assert.Equal(t, claims.ErrNotClaimOwner, err)
	})

	t.Run("unknown claim returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)

		user := testutil.CreateVerifiedUser(t, db)
		_, err := svc.Get(testutil.TestContext(t), uuid.New(), user.ID)
		assert.Equal(t, claims.ErrClaimNotFound, err)
	})
}

func TestService_Stats(t *testing.T) {
	t.Run("counts claims by status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)
		ctx := testutil.TestContext(t)

		user := testutil.CreateVerifiedUser(t, db)
		for _, status := range []models.ClaimStatus{
			models.ClaimPending, models.ClaimPending,
			models.ClaimApproved, models.ClaimRejected,
		} {
			deal := testutil.CreateTestDeal(t, db)
			testutil.CreateTestClaim(t, db, user.ID, deal.ID, status)
		}

		stats, err := svc.Stats(ctx, user.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(2), stats.Pending)
		assert.Equal(t, int64(1), stats.Approved)
		assert.Equal(t, int64(1), stats.Rejected)
		assert.Equal(t, int64(4), stats.Total)
	})

	t.Run("zero stats for user with no claims", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := claims.NewService(db)

		user := testutil.CreateVerifiedUser(t, db)
		stats, err := svc.Stats(testutil.TestContext(t), user.ID)
		require.NoError(t, err)

		assert.Zero(t, stats.Pending)
		assert.Zero(t, stats.Total)
	})
}
