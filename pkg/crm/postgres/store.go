// Package postgres implements crm.Store on top of the tenant PostgreSQL
// database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/driftlabs/cascade/pkg/crm"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store executes company-scoped reads and single-statement mutations; tag
// de-duplication happens inside one UPDATE so concurrent runs cannot produce
// duplicate tags.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger.With("module", "crm_postgres")}
}

func (s *Store) ContactByID(ctx context.Context, companyID, contactID string) (*crm.Contact, error) {
	query := `
		SELECT id, company_id, name, COALESCE(email, ''), COALESCE(phone, ''), tags, created_at
		FROM contacts
		WHERE id = $1 AND company_id = $2
	`

	contact := &crm.Contact{}

	var tags pq.StringArray

	err := s.db.QueryRowContext(ctx, query, contactID, companyID).Scan(
		&contact.ID,
		&contact.CompanyID,
		&contact.Name,
		&contact.Email,
		&contact.Phone,
		&tags,
		&contact.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, crm.ErrContactNotFound
		}

		return nil, fmt.Errorf("failed to query contact: %w", err)
	}

	contact.Tags = tags

	return contact, nil
}

func (s *Store) AddContactTags(ctx context.Context, companyID, contactID string, tags []string) error {
	query := `
		UPDATE contacts
		SET tags = ARRAY(SELECT DISTINCT unnest(tags || $3::text[]))
		WHERE id = $1 AND company_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, contactID, companyID, pq.Array(tags))
	if err != nil {
		return fmt.Errorf("failed to update contact tags: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		return crm.ErrContactNotFound
	}

	return nil
}

func (s *Store) CreateDeal(ctx context.Context, deal *crm.Deal) (string, error) {
	if _, err := s.ContactByID(ctx, deal.CompanyID, deal.ContactID); err != nil {
		return "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate deal ID: %w", err)
	}

	query := `
		INSERT INTO deals (id, company_id, contact_id, title, stage, value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.db.ExecContext(ctx, query,
		id.String(),
		deal.CompanyID,
		deal.ContactID,
		deal.Title,
		deal.Stage,
		deal.Value,
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert deal: %w", err)
	}

	return id.String(), nil
}

func (s *Store) FirstPipelineStage(ctx context.Context, companyID string) (string, error) {
	query := `
		SELECT stage
		FROM pipeline_stages
		WHERE company_id = $1
		ORDER BY position ASC
		LIMIT 1
	`

	var stage string

	err := s.db.QueryRowContext(ctx, query, companyID).Scan(&stage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return crm.DefaultDealStage, nil
		}

		return "", fmt.Errorf("failed to query pipeline stage: %w", err)
	}

	return stage, nil
}
