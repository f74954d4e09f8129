package store

import (
	"context"

	"household/internal/models"
)

type BudgetStore struct {
	db DB
}

func NewBudgetStore(db DB) *BudgetStore {
	return &BudgetStore{db: db}
}

const budgetColumns = `id, user_id, family_id, category, monthly_limit, created_at`

func (s *BudgetStore) Create(ctx context.Context, tx Execer, budget models.BudgetLimit) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO budget_limits (id, user_id, family_id, category, monthly_limit)
		VALUES ($1, $2, $3, $4, $5)
	`, budget.ID, budget.UserID, budget.FamilyID, budget.Category, budget.MonthlyLimit)
	return err
}

func (s *BudgetStore) List(ctx context.Context, filter Filter) ([]models.BudgetLimit, error) {
	where, args := filter.clause(1)
	var rows []models.BudgetLimit
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+budgetColumns+`
		FROM budget_limits
		WHERE `+where+`
		ORDER BY category, created_at
	`, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *BudgetStore) GetByID(ctx context.Context, q Getter, budgetID string) (models.BudgetLimit, error) {
	var row models.BudgetLimit
	err := q.GetContext(ctx, &row, `SELECT `+budgetColumns+` FROM budget_limits WHERE id = $1`, budgetID)
	if err != nil {
		return models.BudgetLimit{}, err
	}
	return row, nil
}

// FindForCategory returns the oldest visible limit for a category.
func (s *BudgetStore) FindForCategory(ctx context.Context, filter Filter, category string) (models.BudgetLimit, error) {
	where, args := filter.clause(2)
	var row models.BudgetLimit
	err := s.db.GetContext(ctx, &row, `
		SELECT `+budgetColumns+`
		FROM budget_limits
		WHERE category = $1 AND `+where+`
		ORDER BY created_at
		LIMIT 1
	`, append([]any{category}, args...)...)
	if err != nil {
		return models.BudgetLimit{}, err
	}
	return row, nil
}

func (s *BudgetStore) Update(ctx context.Context, tx Execer, budget models.BudgetLimit) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE budget_limits
		SET category = $1, monthly_limit = $2
		WHERE id = $3
	`, budget.Category, budget.MonthlyLimit, budget.ID)
	return err
}

func (s *BudgetStore) Delete(ctx context.Context, tx Execer, budgetID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM budget_limits WHERE id = $1`, budgetID)
	return err
}
