package tasks

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/hugh/startup-vault/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHandleVerificationEmail(t *testing.T) {
	t.Run("sends email with verification link", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)

		user := testutil.CreateTestUser(t, db)
		m := &fakeMailer{}
		handler := NewHandler(db, testLogger(), m, "https://app.example.com")

		task, err := NewVerificationEmailTask(VerificationEmailPayload{
			UserID: user.ID,
			Token:  "tok-123",
		})
		require.NoError(t, err)

		err = handler.HandleVerificationEmail(context.Background(), task)
		require.NoError(t, err)

		require.Len(t, m.sent, 1)
		assert.Equal(t, user.Email, m.sent[0].to)
		assert.Contains(t, m.sent[0].body, "https://app.example.com/verify-email?token=tok-123")
		assert.Contains(t, m.sent[0].body, user.Name)
	})

	t.Run("skips already verified user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)

		user := testutil.CreateVerifiedUser(t, db)
		m := &fakeMailer{}
		handler := NewHandler(db, testLogger(), m, "https://app.example.com")

		task, err := NewVerificationEmailTask(VerificationEmailPayload{
			UserID: user.ID,
			Token:  "tok-123",
		})
		require.NoError(t, err)

		err = handler.HandleVerificationEmail(context.Background(), task)
		require.NoError(t, err)
		assert.Empty(t, m.sent)
	})

	t.Run("skips deleted user without error", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)

		user := testutil.CreateTestUser(t, db)
		require.NoError(t, db.Unscoped().Delete(user).Error)

		m := &fakeMailer{}
		handler := NewHandler(db, testLogger(), m, "https://app.example.com")

		task, err := NewVerificationEmailTask(VerificationEmailPayload{
			UserID: user.ID,
			Token:  "tok-123",
		})
		require.NoError(t, err)

		err = handler.HandleVerificationEmail(context.Background(), task)
		require.NoError(t, err)
		assert.Empty(t, m.sent)
	})

	t.Run("invalid payload returns error", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)

		handler := NewHandler(db, testLogger(), &fakeMailer{}, "https://app.example.com")

		task := asynq.NewTask(TypeVerificationEmail, []byte("invalid json"))

		err := handler.HandleVerificationEmail(context.Background(), task)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal payload")
	})

	t.Run("mailer failure is returned for retry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)

		user := testutil.CreateTestUser(t, db)
		m := &fakeMailer{err: assert.AnError}
		handler := NewHandler(db, testLogger(), m, "https://app.example.com")

		task, err := NewVerificationEmailTask(VerificationEmailPayload{
			UserID: user.ID,
			Token:  "tok-123",
		})
		require.NoError(t, err)

		err = handler.HandleVerificationEmail(context.Background(), task)
		assert.Error(t, err)
	})
}
