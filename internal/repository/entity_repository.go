package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-hr-recruitment/internal/platform/database"
	"github.com/pesio-ai/be-hr-recruitment/internal/platform/errors"
	"github.com/pesio-ai/be-hr-recruitment/internal/workflow"
)

// EntityRepository is the postgres EntityStore. The approval chain and role
// sequence are stored as JSONB; the version column provides optimistic
// concurrency for transitions.
type EntityRepository struct {
	db *database.DB
}

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(db *database.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

const entityColumns = `
	id, kind, subject, requested_by, justification,
	department, section, roles, approval_chain, status,
	submitted_at, completed_at, version, created_at, updated_at`

// Create inserts a new entity.
func (r *EntityRepository) Create(ctx context.Context, e *workflow.Entity) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	rolesJSON, chainJSON, err := marshalWorkflow(e)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO recruitment_entities
		    (id, kind, subject, requested_by, justification,
		     department, section, roles, approval_chain, status,
		     submitted_at, completed_at, version)
		VALUES ($1, $2, $3, $4, $5,
		        $6, $7, $8, $9, $10,
		        $11, $12, 1)
		RETURNING version, created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		e.ID,
		e.Kind,
		e.Subject,
		e.RequestedBy,
		e.Justification,
		e.Department,
		e.Section,
		rolesJSON,
		chainJSON,
		e.Status,
		e.SubmittedAt,
		e.CompletedAt,
	).Scan(&e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create entity")
	}
	return nil
}

// GetByID retrieves an entity by primary key.
func (r *EntityRepository) GetByID(ctx context.Context, id string) (*workflow.Entity, error) {
	query := `SELECT ` + entityColumns + `
		FROM recruitment_entities
		WHERE id = $1
	`

	e, err := scanEntity(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("entity", id)
	}
	return e, err
}

// Update writes the workflow state of e if nobody else changed it since
// expectedVersion was read.
func (r *EntityRepository) Update(ctx context.Context, e *workflow.Entity, expectedVersion int64) error {
	rolesJSON, chainJSON, err := marshalWorkflow(e)
	if err != nil {
		return err
	}

	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE recruitment_entities
			SET subject        = $3,
			    justification  = $4,
			    roles          = $5,
			    approval_chain = $6,
			    status         = $7,
			    submitted_at   = $8,
			    completed_at   = $9,
			    version        = version + 1,
			    updated_at     = NOW()
			WHERE id = $1 AND version = $2
			RETURNING version, updated_at
		`

		err := tx.QueryRow(ctx, query,
			e.ID,
			expectedVersion,
			e.Subject,
			e.Justification,
			rolesJSON,
			chainJSON,
			e.Status,
			e.SubmittedAt,
			e.CompletedAt,
		).Scan(&e.Version, &e.UpdatedAt)
		if err != pgx.ErrNoRows {
			return err
		}

		// Distinguish a missing row from a stale version.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM recruitment_entities WHERE id = $1)`, e.ID).Scan(&exists); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to check entity")
		}
		if !exists {
			return errors.NotFound("entity", e.ID)
		}
		return ErrVersionConflict
	})
}

// List returns entities matching filter, newest first, with the total count.
func (r *EntityRepository) List(ctx context.Context, filter EntityFilter) ([]*workflow.Entity, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argN := 1

	if filter.Kind != "" {
		where += fmt.Sprintf(" AND kind = $%d", argN)
		args = append(args, filter.Kind)
		argN++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argN)
		args = append(args, filter.Status)
		argN++
	}
	if filter.PendingRole != "" {
		where += fmt.Sprintf(` AND approval_chain -> -1 ->> 'status' = 'Pending'
		                      AND approval_chain -> -1 ->> 'role' = $%d`, argN)
		args = append(args, filter.PendingRole)
		argN++
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM recruitment_entities`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to count entities")
	}

	query := `SELECT ` + entityColumns + ` FROM recruitment_entities` + where + ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argN)
		args = append(args, filter.Limit)
		argN++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argN)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to list entities")
	}
	defer rows.Close()

	var entities []*workflow.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan entity")
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to iterate entities")
	}
	return entities, total, nil
}

// ── scan helpers ──────────────────────────────────────────────────────────────

type entityScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row entityScanner) (*workflow.Entity, error) {
	e := &workflow.Entity{}
	var (
		rolesJSON   []byte
		chainJSON   []byte
		completedAt *time.Time
	)

	err := row.Scan(
		&e.ID,
		&e.Kind,
		&e.Subject,
		&e.RequestedBy,
		&e.Justification,
		&e.Department,
		&e.Section,
		&rolesJSON,
		&chainJSON,
		&e.Status,
		&e.SubmittedAt,
		&completedAt,
		&e.Version,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.CompletedAt = completedAt

	if err := unmarshalWorkflow(rolesJSON, chainJSON, e); err != nil {
		return nil, err
	}
	return e, nil
}

func marshalWorkflow(e *workflow.Entity) (roles, chain []byte, err error) {
	roles, err = json.Marshal(e.Roles)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal roles")
	}
	if e.Chain == nil {
		chain = []byte("[]")
	} else if chain, err = json.Marshal(e.Chain); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal approval chain")
	}
	return roles, chain, nil
}

func unmarshalWorkflow(roles, chain []byte, e *workflow.Entity) error {
	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &e.Roles); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal roles")
		}
	}
	if len(chain) > 0 {
		if err := json.Unmarshal(chain, &e.Chain); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal approval chain")
		}
	}
	return nil
}
