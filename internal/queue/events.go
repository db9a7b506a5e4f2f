package queue

import (
	"context"
	"time"
)

const KeyPasswordResetRequested = "password.reset_requested"

type PasswordResetRequested struct {
	Email       string    `json:"email"`
	ResetURL    string    `json:"reset_url"`
	RequestedAt time.Time `json:"requested_at"`
}

type ctxKey struct{}

// WithRequestID stores the inbound request id so published events carry it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
