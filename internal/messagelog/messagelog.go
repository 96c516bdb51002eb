// Package messagelog records outbound messages by provider message ID so that
// delivery status callbacks can be matched back to them.
package messagelog

import (
	"context"
	"errors"
	"time"

	"property_service_backend/internal/whatsapp"
	"property_service_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const errRepoNotConfigured = "message log repository not configured"

// Kind of an outbound message.
type Kind string

const (
	KindText        Kind = "text"
	KindInteractive Kind = "interactive"
)

// Provider status values. StatusSent is the initial status of a logged entry.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
)

// Entry is one logged outbound message.
type Entry struct {
	ProviderMessageID string
	Recipient         string
	Kind              Kind
	Status            string
	SentAt            time.Time
	StatusUpdatedAt   *time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts an entry. A repeated provider ID keeps the first entry.
func (r *Repository) Record(ctx context.Context, e Entry) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	if e.SentAt.IsZero() {
		e.SentAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = StatusSent
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO outbound_messages (provider_message_id, recipient, kind, status, sent_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (provider_message_id) DO NOTHING`,
		e.ProviderMessageID, e.Recipient, string(e.Kind), e.Status, e.SentAt,
	)
	return err
}

// UpdateStatus sets the status of the entry with the given provider ID.
// It reports false when no entry matches.
func (r *Repository) UpdateStatus(ctx context.Context, providerMessageID, status string, at time.Time) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New(errRepoNotConfigured)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE outbound_messages
		 SET status = $2, status_updated_at = $3
		 WHERE provider_message_id = $1`,
		providerMessageID, status, at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Recorder is the write side of the log used by RecordingSender.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Gateway is the outbound transport being decorated.
type Gateway interface {
	SendText(ctx context.Context, to string, body string) (string, error)
	SendInteractive(ctx context.Context, to string, msg whatsapp.Interactive) (string, error)
}

// RecordingSender logs every successful send. A failure to record is logged
// and never turns a delivered message into an error.
type RecordingSender struct {
	next Gateway
	rec  Recorder
	log  *logger.Logger
	now  func() time.Time
}

func NewRecordingSender(next Gateway, rec Recorder, log *logger.Logger) *RecordingSender {
	return &RecordingSender{next: next, rec: rec, log: log, now: time.Now}
}

func (s *RecordingSender) SendText(ctx context.Context, to string, body string) (string, error) {
	id, err := s.next.SendText(ctx, to, body)
	if err != nil {
		return "", err
	}
	s.record(ctx, id, to, KindText)
	return id, nil
}

func (s *RecordingSender) SendInteractive(ctx context.Context, to string, msg whatsapp.Interactive) (string, error) {
	id, err := s.next.SendInteractive(ctx, to, msg)
	if err != nil {
		return "", err
	}
	s.record(ctx, id, to, KindInteractive)
	return id, nil
}

func (s *RecordingSender) record(ctx context.Context, providerID, to string, kind Kind) {
	if providerID == "" || s.rec == nil {
		return
	}
	err := s.rec.Record(ctx, Entry{
		ProviderMessageID: providerID,
		Recipient:         to,
		Kind:              kind,
		Status:            StatusSent,
		SentAt:            s.now().UTC(),
	})
	if err != nil && s.log != nil {
		s.log.WithContext(ctx).Warn("failed to log outbound message", "providerMessageId", providerID, "error", err)
	}
}
