package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stagelink/stagelink/internal/profile/models"
	id "github.com/stagelink/stagelink/pkg/domain"
	"github.com/stagelink/stagelink/pkg/platform/sentinel"
	txcontext "github.com/stagelink/stagelink/pkg/platform/tx"
)

// PostgresStore persists profiles in the profiles table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) FindByOwner(ctx context.Context, owner id.UserID) (*models.Profile, error) {
	query := `
		SELECT owner_id, role, has_applied, application_id, created_at, updated_at
		FROM profiles
		WHERE owner_id = $1
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(owner))

	var (
		p         models.Profile
		ownerUUID uuid.UUID
		appUUID   *uuid.UUID
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&ownerUUID, &p.Role, &p.HasApplied, &appUUID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	p.OwnerID = id.UserID(ownerUUID)
	if appUUID != nil {
		appID := id.ApplicationID(*appUUID)
		p.ApplicationID = &appID
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return &p, nil
}

// Save upserts a profile keyed by owner.
func (s *PostgresStore) Save(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (owner_id, role, has_applied, application_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id) DO UPDATE SET
			role = EXCLUDED.role,
			has_applied = EXCLUDED.has_applied,
			application_id = EXCLUDED.application_id,
			updated_at = EXCLUDED.updated_at
	`
	var appUUID *uuid.UUID
	if profile.ApplicationID != nil {
		u := uuid.UUID(*profile.ApplicationID)
		appUUID = &u
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(profile.OwnerID), string(profile.Role), profile.HasApplied,
		appUUID, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
