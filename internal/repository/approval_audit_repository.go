package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-hr-recruitment/internal/platform/database"
	"github.com/pesio-ai/be-hr-recruitment/internal/platform/errors"
)

// ApprovalAuditRepository appends and reads immutable approval audit log entries.
type ApprovalAuditRepository struct {
	db *database.DB
}

// NewApprovalAuditRepository creates a new ApprovalAuditRepository.
func NewApprovalAuditRepository(db *database.DB) *ApprovalAuditRepository {
	return &ApprovalAuditRepository{db: db}
}

// Append inserts one audit entry. The table has a delete-prevention trigger so
// this is the only mutation operation exposed.
func (r *ApprovalAuditRepository) Append(ctx context.Context, entry *AuditEntry) error {
	var metadataJSON []byte
	if entry.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal audit metadata")
		}
	}

	query := `
		INSERT INTO recruitment_approval_audit_log
		    (entity_id, entity_kind, action, role, performed_by,
		     status_before, status_after, remarks, metadata)
		VALUES ($1, $2, $3, $4, $5,
		        $6, $7, $8, $9)
		RETURNING id, performed_at
	`

	return r.db.QueryRow(ctx, query,
		entry.EntityID,
		entry.EntityKind,
		entry.Action,
		entry.Role,
		entry.PerformedBy,
		entry.StatusBefore,
		entry.StatusAfter,
		entry.Remarks,
		metadataJSON,
	).Scan(&entry.ID, &entry.PerformedAt)
}

// GetByEntityID returns the full audit trail for an entity ordered oldest-first.
func (r *ApprovalAuditRepository) GetByEntityID(ctx context.Context, entityID string) ([]*AuditEntry, error) {
	query := `
		SELECT id, entity_id, entity_kind, action, role,
		       performed_by, performed_at,
		       status_before, status_after, remarks,
		       metadata
		FROM recruitment_approval_audit_log
		WHERE entity_id = $1
		ORDER BY performed_at ASC
	`

	rows, err := r.db.Query(ctx, query, entityID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get audit log")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// ── scan helpers ──────────────────────────────────────────────────────────────

func (r *ApprovalAuditRepository) scanRows(rows pgx.Rows) ([]*AuditEntry, error) {
	var entries []*AuditEntry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type auditScanner interface {
	Scan(dest ...any) error
}

func (r *ApprovalAuditRepository) scanEntry(sc auditScanner) (*AuditEntry, error) {
	entry := &AuditEntry{}
	var metadataJSON []byte

	err := sc.Scan(
		&entry.ID,
		&entry.EntityID,
		&entry.EntityKind,
		&entry.Action,
		&entry.Role,
		&entry.PerformedBy,
		&entry.PerformedAt,
		&entry.StatusBefore,
		&entry.StatusAfter,
		&entry.Remarks,
		&metadataJSON,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan audit entry")
	}

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal audit metadata")
		}
	}

	return entry, nil
}
