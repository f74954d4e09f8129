package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditStore struct {
	db DB
}

type AuditEntry struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	FamilyID   *string   `db:"family_id" json:"family_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   string    `db:"entity_id" json:"entity_id"`
	Data       string    `db:"data" json:"data"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

// Log records a money-moving or membership action. The family is the actor's
// family at the time of the action and is not re-tagged later.
func (s *AuditStore) Log(ctx context.Context, tx Execer, actorID string, familyID *string, action, entityType, entityID string, data map[string]string) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, user_id, family_id, action, entity_type, entity_id, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), actorID, familyID, action, entityType, entityID, string(payload))
	return err
}

func (s *AuditStore) List(ctx context.Context, filter Filter, limit, offset int) ([]AuditEntry, error) {
	where, args := filter.clause(1)
	args = append(args, limit, offset)
	var rows []AuditEntry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, family_id, action, entity_type, entity_id, data::text AS data, created_at
		FROM audit_logs
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
