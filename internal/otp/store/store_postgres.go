package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Coritp27/sysga-sub002/internal/otp/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
)

// PostgresStore persists OTP challenges in PostgreSQL. The table is keyed by
// (card_number, channel), so replace-on-issue is a single upsert and invariant
// "at most one challenge per pair" holds by construction. Guarded UPDATEs with
// the challenge id in the WHERE clause give compare-and-set semantics against
// concurrent re-issues.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Replace(ctx context.Context, challenge models.Challenge) error {
	query := `
		INSERT INTO otp_challenges (id, card_number, channel, code_hash, issued_at, expires_at, attempts, max_attempts, used, delivered)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (card_number, channel) DO UPDATE SET
			id = EXCLUDED.id,
			code_hash = EXCLUDED.code_hash,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at,
			attempts = EXCLUDED.attempts,
			max_attempts = EXCLUDED.max_attempts,
			used = EXCLUDED.used,
			delivered = EXCLUDED.delivered
	`
	_, err := s.db.ExecContext(ctx, query,
		challenge.ID,
		challenge.CardNumber.String(),
		challenge.Channel.String(),
		challenge.CodeHash,
		challenge.IssuedAt,
		challenge.ExpiresAt,
		challenge.Attempts,
		challenge.MaxAttempts,
		challenge.Used,
		challenge.Delivered,
	)
	if err != nil {
		return fmt.Errorf("replace challenge: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, number id.CardNumber, channel models.Channel) (*models.Challenge, error) {
	query := `
		SELECT id, card_number, channel, code_hash, issued_at, expires_at, attempts, max_attempts, used, delivered
		FROM otp_challenges
		WHERE card_number = $1 AND channel = $2
	`
	challenge, err := scanChallenge(s.db.QueryRowContext(ctx, query, number.String(), channel.String()))
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find challenge: %w", err)
	}
	return challenge, nil
}

func (s *PostgresStore) IncrementAttempts(ctx context.Context, challengeID uuid.UUID) (int, error) {
	query := `
		UPDATE otp_challenges
		SET attempts = attempts + 1
		WHERE id = $1
		  AND used = FALSE
		  AND attempts < max_attempts
		RETURNING attempts
	`
	var attempts int
	err := s.db.QueryRowContext(ctx, query, challengeID).Scan(&attempts)
	if err == sql.ErrNoRows {
		return 0, sentinel.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	return attempts, nil
}

func (s *PostgresStore) Consume(ctx context.Context, challengeID uuid.UUID, now time.Time) error {
	query := `
		UPDATE otp_challenges
		SET used = TRUE
		WHERE id = $1
		  AND used = FALSE
		  AND attempts < max_attempts
		  AND expires_at > $2
	`
	result, err := s.db.ExecContext(ctx, query, challengeID, now)
	if err != nil {
		return fmt.Errorf("consume challenge: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume challenge rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) MarkDelivered(ctx context.Context, challengeID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `UPDATE otp_challenges SET delivered = TRUE WHERE id = $1`, challengeID)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

func (s *PostgresStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM otp_challenges WHERE used = TRUE OR expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("sweep challenges: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep rows affected: %w", err)
	}
	return int(rows), nil
}

type challengeRow interface {
	Scan(dest ...any) error
}

func scanChallenge(row challengeRow) (*models.Challenge, error) {
	var challenge models.Challenge
	var rawNumber, rawChannel string
	if err := row.Scan(
		&challenge.ID,
		&rawNumber,
		&rawChannel,
		&challenge.CodeHash,
		&challenge.IssuedAt,
		&challenge.ExpiresAt,
		&challenge.Attempts,
		&challenge.MaxAttempts,
		&challenge.Used,
		&challenge.Delivered,
	); err != nil {
		return nil, err
	}
	challenge.CardNumber = id.CardNumber(rawNumber)
	challenge.Channel = models.Channel(rawChannel)
	return &challenge, nil
}
