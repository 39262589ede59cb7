package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/stagelink/stagelink/internal/application/models"
	id "github.com/stagelink/stagelink/pkg/domain"
	"github.com/stagelink/stagelink/pkg/platform/sentinel"
	txcontext "github.com/stagelink/stagelink/pkg/platform/tx"
)

// PostgresStore persists applications in the applications table. Field sets,
// history, and the proposed profile are JSONB documents; a partial unique
// index on owner_id for non-draft rows enforces the one-application-per-owner
// invariant at the storage layer.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer returns the context transaction when one is running, so Create and
// Delete can join the submission transaction alongside the profile upsert.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const applicationColumns = `
	id, owner_id, application_type, fields, photo_ref, photo_url,
	status, status_history, admin_approved_profile, modification_requests,
	current_revision, created_at, updated_at, reviewed_at, finalized_at, finalized_by
`

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	fields, history, proposal, requests, err := marshalDocuments(app)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(app.ID), uuid.UUID(app.OwnerID), string(app.Type),
		fields, app.PhotoRef, app.PhotoURL,
		string(app.Status), history, proposal, requests,
		app.CurrentRevision, app.CreatedAt, app.UpdatedAt,
		app.ReviewedAt, app.FinalizedAt, nullableUUID(app.FinalizedBy),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	return scanApplication(s.db.QueryRowContext(ctx, query, uuid.UUID(appID)))
}

func (s *PostgresStore) FindByOwner(ctx context.Context, owner id.UserID) (*models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanApplication(s.db.QueryRowContext(ctx, query, uuid.UUID(owner)))
}

func (s *PostgresStore) ListByStatus(ctx context.Context, statuses []models.Status) ([]*models.Application, error) {
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}

	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE status = ANY($1)
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

// Execute loads the row FOR UPDATE, runs validate and mutate, and writes the
// result back inside one transaction. The row lock plus the revision
// predicate on the final UPDATE makes concurrent history appends impossible
// to lose.
func (s *PostgresStore) Execute(
	ctx context.Context,
	appID id.ApplicationID,
	expectedRevision int,
	validate func(*models.Application) error,
	mutate func(*models.Application),
) (*models.Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 FOR UPDATE`
	app, err := scanApplication(tx.QueryRowContext(ctx, query, uuid.UUID(appID)))
	if err != nil {
		return nil, err
	}
	if expectedRevision != 0 && app.CurrentRevision != expectedRevision {
		return nil, sentinel.ErrRevisionMismatch
	}

	loadedRevision := app.CurrentRevision
	if err := validate(app); err != nil {
		return nil, err
	}
	mutate(app)

	fields, history, proposal, requests, err := marshalDocuments(app)
	if err != nil {
		return nil, err
	}

	update := `
		UPDATE applications SET
			fields = $2, photo_ref = $3, photo_url = $4,
			status = $5, status_history = $6, admin_approved_profile = $7,
			modification_requests = $8, current_revision = $9, updated_at = $10,
			reviewed_at = $11, finalized_at = $12, finalized_by = $13
		WHERE id = $1 AND current_revision = $14
	`
	res, err := tx.ExecContext(ctx, update,
		uuid.UUID(app.ID), fields, app.PhotoRef, app.PhotoURL,
		string(app.Status), history, proposal, requests,
		app.CurrentRevision, app.UpdatedAt,
		app.ReviewedAt, app.FinalizedAt, nullableUUID(app.FinalizedBy),
		loadedRevision,
	)
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, sentinel.ErrRevisionMismatch
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return app, nil
}

// Delete removes an application. Used only to roll back a failed submission.
func (s *PostgresStore) Delete(ctx context.Context, appID id.ApplicationID) error {
	_, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, uuid.UUID(appID))
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app          models.Application
		appUUID      uuid.UUID
		ownerUUID    uuid.UUID
		typ          string
		status       string
		fieldsRaw    []byte
		historyRaw   []byte
		proposalRaw  []byte
		requestsRaw  []byte
		reviewedAt   sql.NullTime
		finalizedAt  sql.NullTime
		finalizedBy  *uuid.UUID
		created, upd time.Time
	)

	err := row.Scan(
		&appUUID, &ownerUUID, &typ, &fieldsRaw, &app.PhotoRef, &app.PhotoURL,
		&status, &historyRaw, &proposalRaw, &requestsRaw,
		&app.CurrentRevision, &created, &upd, &reviewedAt, &finalizedAt, &finalizedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}

	app.ID = id.ApplicationID(appUUID)
	app.OwnerID = id.UserID(ownerUUID)
	app.Type = models.Type(typ)
	app.Status = models.Status(status)
	app.CreatedAt = created
	app.UpdatedAt = upd

	if err := json.Unmarshal(fieldsRaw, &app.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if err := json.Unmarshal(historyRaw, &app.StatusHistory); err != nil {
		return nil, fmt.Errorf("decode status history: %w", err)
	}
	if len(proposalRaw) > 0 {
		if err := json.Unmarshal(proposalRaw, &app.AdminApprovedProfile); err != nil {
			return nil, fmt.Errorf("decode proposed profile: %w", err)
		}
	}
	if len(requestsRaw) > 0 {
		if err := json.Unmarshal(requestsRaw, &app.ModificationRequests); err != nil {
			return nil, fmt.Errorf("decode modification requests: %w", err)
		}
	}
	if reviewedAt.Valid {
		app.ReviewedAt = &reviewedAt.Time
	}
	if finalizedAt.Valid {
		app.FinalizedAt = &finalizedAt.Time
	}
	if finalizedBy != nil {
		u := id.UserID(*finalizedBy)
		app.FinalizedBy = &u
	}
	return &app, nil
}

func marshalDocuments(app *models.Application) (fields, history, proposal, requests []byte, err error) {
	if fields, err = json.Marshal(app.Fields); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode fields: %w", err)
	}
	if history, err = json.Marshal(app.StatusHistory); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode status history: %w", err)
	}
	if app.AdminApprovedProfile != nil {
		if proposal, err = json.Marshal(app.AdminApprovedProfile); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("encode proposed profile: %w", err)
		}
	}
	if app.ModificationRequests != nil {
		if requests, err = json.Marshal(app.ModificationRequests); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("encode modification requests: %w", err)
		}
	}
	return fields, history, proposal, requests, nil
}

func nullableUUID(u *id.UserID) *uuid.UUID {
	if u == nil {
		return nil
	}
	v := uuid.UUID(*u)
	return &v
}
