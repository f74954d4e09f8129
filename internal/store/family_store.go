package store

import (
	"context"
	"fmt"

	"household/internal/models"
)

// ownedTables lists every table whose rows follow their creator into and out
// of a family.
var ownedTables = []string{
	"accounts",
	"transactions",
	"goals",
	"budget_limits",
	"investments",
	"debts",
	"notifications",
}

type FamilyStore struct {
	db DB
}

func NewFamilyStore(db DB) *FamilyStore {
	return &FamilyStore{db: db}
}

func (s *FamilyStore) Create(ctx context.Context, tx Execer, family models.Family) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO families (id, name, code)
		VALUES ($1, $2, $3)
	`, family.ID, family.Name, family.Code)
	return err
}

func (s *FamilyStore) GetByID(ctx context.Context, q Getter, familyID string) (models.Family, error) {
	var row models.Family
	err := q.GetContext(ctx, &row, `SELECT id, name, code, created_at FROM families WHERE id = $1`, familyID)
	if err != nil {
		return models.Family{}, err
	}
	return row, nil
}

func (s *FamilyStore) GetByCode(ctx context.Context, q Getter, code string) (models.Family, error) {
	var row models.Family
	err := q.GetContext(ctx, &row, `SELECT id, name, code, created_at FROM families WHERE code = UPPER($1)`, code)
	if err != nil {
		return models.Family{}, err
	}
	return row, nil
}

func (s *FamilyStore) CodeExists(ctx context.Context, q Getter, code string) (bool, error) {
	var exists bool
	err := q.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM families WHERE code = UPPER($1))`, code)
	return exists, err
}

func (s *FamilyStore) Delete(ctx context.Context, tx Execer, familyID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM families WHERE id = $1`, familyID)
	return err
}

// RetagOwned moves every row created by userID into familyID, or out of any
// family when familyID is nil. Callers run it inside the membership
// transaction so the move is all-or-nothing.
func (s *FamilyStore) RetagOwned(ctx context.Context, tx Execer, userID string, familyID *string) error {
	for _, table := range ownedTables {
		query := fmt.Sprintf(`UPDATE %s SET family_id = $1 WHERE user_id = $2`, table)
		if _, err := tx.ExecContext(ctx, query, familyID, userID); err != nil {
			return fmt.Errorf("retag %s: %w", table, err)
		}
	}
	return nil
}
