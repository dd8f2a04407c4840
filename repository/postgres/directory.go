package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// EmailOf returns the email of a user row. Used by the mail notifier.
func (s *Store) EmailOf(ctx context.Context, userID uuid.UUID) (string, error) {
	var email string
	err := s.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		return "", notFound(err, "user")
	}
	return email, nil
}

// RecordWebhookEvent keeps the raw payload of every accepted webhook for audit.
func (s *Store) RecordWebhookEvent(ctx context.Context, source, eventType string, payload []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO webhook_events (source, event_type, raw_payload) VALUES ($1, $2, $3)`,
		source, eventType, string(payload))
	if err != nil {
		return fmt.Errorf("insert webhook event: %w", err)
	}
	return nil
}
