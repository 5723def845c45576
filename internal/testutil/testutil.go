package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/startup-vault/internal/auth"
	"github.com/hugh/startup-vault/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	err = db.AutoMigrate(
		&models.User{},
		&models.Deal{},
		&models.Claim{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

// CreateTestUser creates an unverified test user
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	expires := time.Now().Add(24 * time.Hour)
	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		Email:               "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash:        hash,
		Name:                "Test User",
		IsVerified:          false,
		VerificationToken:   uuid.New().String(),
		VerificationExpires: &expires,
		Role:                models.RoleFounder,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateVerifiedUser creates a test user whose email is already verified
func CreateVerifiedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := CreateTestUser(t, db)
	updates := map[string]interface{}{
		"is_verified":          true,
		"verification_token":   "",
		"verification_expires": nil,
	}
	if err := db.Model(user).Updates(updates).Error; err != nil {
		t.Fatalf("failed to verify test user: %v", err)
	}
	user.IsVerified = true
	user.VerificationToken = ""
	user.VerificationExpires = nil

	return user
}

// DealOption mutates a deal fixture before it is persisted
type DealOption func(*models.Deal)

func WithAccessLevel(level models.AccessLevel) DealOption {
	return func(d *models.Deal) { d.AccessLevel = level }
}

func WithCategory(category models.DealCategory) DealOption {
	return func(d *models.Deal) { d.Category = category }
}

func WithMaxClaims(max int) DealOption {
	return func(d *models.Deal) { d.MaxClaims = max }
}

func WithCurrentClaims(n int) DealOption {
	return func(d *models.Deal) { d.CurrentClaims = n }
}

func WithExpiresAt(at time.Time) DealOption {
	return func(d *models.Deal) { d.ExpiresAt = at }
}

func WithTitle(title string) DealOption {
	return func(d *models.Deal) { d.Title = title }
}

// CreateTestDeal creates an active public deal, customizable via options
func CreateTestDeal(t *testing.T, db *gorm.DB, opts ...DealOption) *models.Deal {
	t.Helper()

	deal := &models.Deal{
		Base: models.Base{
			ID: uuid.New(),
		},
		Title:        "Test Deal " + uuid.New().String()[:8],
		Description:  "A discount for testing",
		Category:     models.CategoryHosting,
		AccessLevel:  models.AccessPublic,
		Discount:     50,
		DiscountType: models.DiscountPercentage,
		MaxClaims:    100,
		Partner: models.Partner{
			Name:    "Test Partner",
			Website: "https://partner.example.com",
		},
		Terms:     "Test terms apply.",
		ExpiresAt: time.Now().Add(30 * 24 * time.Hour),
	}

	for _, opt := range opts {
		opt(deal)
	}

	if err := db.Create(deal).Error; err != nil {
		t.Fatalf("failed to create test deal: %v", err)
	}

	return deal
}

// CreateTestClaim creates a claim row directly, bypassing the claim service
func CreateTestClaim(t *testing.T, db *gorm.DB, userID, dealID uuid.UUID, status models.ClaimStatus) *models.Claim {
	t.Helper()

	claim := &models.Claim{
		Base: models.Base{
			ID: uuid.New(),
		},
		UserID:    userID,
		DealID:    dealID,
		Status:    status,
		ClaimedAt: time.Now(),
		Code:      "TEST-" + uuid.New().String()[:8],
	}

	if err := db.Create(claim).Error; err != nil {
		t.Fatalf("failed to create test claim: %v", err)
	}

	return claim
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Email, user.IsVerified)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	User       *models.User
	Token      string
}

// NewTestContext creates a complete test setup with DB, verified user, and token
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	user := CreateVerifiedUser(t, db)
	token := GenerateTestToken(t, jwtService, user)

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		User:       user,
		Token:      token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
