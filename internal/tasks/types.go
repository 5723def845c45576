package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeVerificationEmail = "email:verification"
)

// VerificationEmailPayload contains the data for a verification email task.
// The token is carried in the payload rather than re-read from the user row
// so a re-registration between enqueue and delivery cannot leak a newer
// token into an older email.
type VerificationEmailPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Token  string    `json:"token"`
}

func NewVerificationEmailTask(payload VerificationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeVerificationEmail, data), nil
}
