package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/startup-vault/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrVerificationToken  = errors.New("invalid or expired verification token")
)

type Service struct {
	db       *gorm.DB
	jwt      *JWTService
	tokenTTL time.Duration
}

func NewService(db *gorm.DB, jwt *JWTService, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{db: db, jwt: jwt, tokenTTL: tokenTTL}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type LoginInput struct {
	Email    string
	Password string
}

// RegisterResult carries the new account and its verification token. The
// token travels to the user out of band (verification email); it is also
// returned to the API layer, which currently echoes it in the response until
// email delivery is fully wired.
type RegisterResult struct {
	User              *models.User
	VerificationToken string
}

type AuthResponse struct {
	Token string
	User  *models.User
}

// NormalizeEmail lowercases and trims an address so lookups and the unique
// index treat Foo@x.com and foo@x.com as the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	email := NormalizeEmail(input.Email)

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	token, err := generateVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("generating verification token: %w", err)
	}
	expires := time.Now().Add(s.tokenTTL)

	user := models.User{
		Email:               email,
		PasswordHash:        hash,
		Name:                strings.TrimSpace(input.Name),
		IsVerified:          false,
		VerificationToken:   token,
		VerificationExpires: &expires,
		Role:                models.RoleFounder,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// Two concurrent registrations can pass the existence check; the
		// unique index decides the winner.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return &RegisterResult{User: &user, VerificationToken: token}, nil
}

// Login authenticates by email and password. Unknown accounts and wrong
// passwords return the same ErrInvalidCredentials so callers cannot probe
// which addresses are registered.
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(input.Email)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.IsVerified)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &AuthResponse{Token: token, User: &user}, nil
}

// VerifyEmail redeems a verification token. The token is single-use: it only
// matches while stored and unexpired, and is cleared in the same update that
// flips the verified flag, so a replay finds nothing.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrVerificationToken
	}

	var user models.User
	if err := s.db.WithContext(ctx).
		Where("verification_token = ? AND verification_expires > ?", token, time.Now()).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationToken
		}
		return nil, fmt.Errorf("looking up verification token: %w", err)
	}

	// The update is guarded by the token as well as the id, so concurrent
	// redemptions of the same token race on the row and only one matches.
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND verification_token = ?", user.ID, token).
		Updates(map[string]interface{}{
			"is_verified":          true,
			"verification_token":   "",
			"verification_expires": nil,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("marking user verified: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrVerificationToken
	}

	user.IsVerified = true
	user.VerificationToken = ""
	user.VerificationExpires = nil
	return &user, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	return &user, nil
}

type UpdateProfileInput struct {
	Name    *string
	Company *string
	Role    *string
}

// UpdateProfile changes the mutable profile fields of the owning user.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Company != nil {
		updates["company"] = strings.TrimSpace(*input.Company)
	}
	if input.Role != nil {
		updates["role"] = models.UserRole(*input.Role)
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

func generateVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
