package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/hugh/startup-vault/internal/database/models"
	"github.com/hugh/startup-vault/internal/mailer"
	"gorm.io/gorm"
)

type Handler struct {
	db          *gorm.DB
	logger      *slog.Logger
	mailer      mailer.Mailer
	frontendURL string
}

func NewHandler(db *gorm.DB, logger *slog.Logger, m mailer.Mailer, frontendURL string) *Handler {
	return &Handler{
		db:          db,
		logger:      logger,
		mailer:      m,
		frontendURL: frontendURL,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeVerificationEmail, h.HandleVerificationEmail)
}

func (h *Handler) HandleVerificationEmail(ctx context.Context, t *asynq.Task) error {
	var payload VerificationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, "id = ?", payload.UserID).Error; err != nil {
		// Account deleted before delivery; nothing to do.
		h.logger.Warn("verification email skipped, user not found", "user_id", payload.UserID)
		return nil
	}

	if user.IsVerified {
		h.logger.Info("verification email skipped, user already verified", "user_id", user.ID)
		return nil
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", h.frontendURL, payload.Token)
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to StartupVault. Confirm your email to unlock verified-only deals:\n\n%s\n\nThe link expires in 24 hours.\n",
		user.Name, link,
	)

	if err := h.mailer.Send(user.Email, "Verify your StartupVault email", body); err != nil {
		h.logger.Error("failed to send verification email", "error", err, "user_id", user.ID)
		return err
	}

	h.logger.Info("verification email sent", "user_id", user.ID)
	return nil
}
