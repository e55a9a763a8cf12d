package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Coritp27/sysga-sub002/internal/card/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
)

// PostgresStore reads card data from the issuer's PostgreSQL database. The
// role this service connects with is granted SELECT only on these tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByNumber(ctx context.Context, number id.CardNumber) (*models.CardRecord, error) {
	query := `
		SELECT id, card_number, insured_person_ref, policy_ref, status, issued_on, last_modified
		FROM insurance_cards
		WHERE card_number = $1
	`
	var record models.CardRecord
	var rawID uuid.UUID
	var rawNumber, rawStatus string
	err := s.db.QueryRowContext(ctx, query, number.String()).Scan(
		&rawID,
		&rawNumber,
		&record.InsuredPersonRef,
		&record.PolicyRef,
		&rawStatus,
		&record.IssuedOn,
		&record.LastModified,
	)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find card by number: %w", err)
	}
	record.ID = id.CardID(rawID)
	record.Number = id.CardNumber(rawNumber)
	record.Status = models.Status(rawStatus)
	return &record, nil
}

func (s *PostgresStore) FindReference(ctx context.Context, cardID id.CardID) (*models.CardReference, error) {
	query := `
		SELECT card_id, on_chain_id, blockchain_tx_hash, created_at
		FROM card_references
		WHERE card_id = $1
	`
	var ref models.CardReference
	var rawID uuid.UUID
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(cardID)).Scan(
		&rawID,
		&ref.OnChainID,
		&ref.BlockchainTxHash,
		&ref.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find card reference: %w", err)
	}
	ref.CardID = id.CardID(rawID)
	return &ref, nil
}

func (s *PostgresStore) FindReferenceByNumber(ctx context.Context, number id.CardNumber) (*models.CardReference, error) {
	query := `
		SELECT r.card_id, r.on_chain_id, r.blockchain_tx_hash, r.created_at
		FROM card_references r
		JOIN insurance_cards c ON c.id = r.card_id
		WHERE c.card_number = $1
	`
	var ref models.CardReference
	var rawID uuid.UUID
	err := s.db.QueryRowContext(ctx, query, number.String()).Scan(
		&rawID,
		&ref.OnChainID,
		&ref.BlockchainTxHash,
		&ref.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find card reference by number: %w", err)
	}
	ref.CardID = id.CardID(rawID)
	return &ref, nil
}

func (s *PostgresStore) FindContact(ctx context.Context, number id.CardNumber) (*models.Contact, error) {
	query := `
		SELECT card_number, COALESCE(email, ''), COALESCE(phone, '')
		FROM card_contacts
		WHERE card_number = $1
	`
	var contact models.Contact
	var rawNumber string
	err := s.db.QueryRowContext(ctx, query, number.String()).Scan(&rawNumber, &contact.Email, &contact.Phone)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find card contact: %w", err)
	}
	contact.CardNumber = id.CardNumber(rawNumber)
	return &contact, nil
}
