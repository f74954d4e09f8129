package store

import (
	"context"

	"household/internal/models"
)

type DebtStore struct {
	db DB
}

func NewDebtStore(db DB) *DebtStore {
	return &DebtStore{db: db}
}

const debtColumns = `id, user_id, family_id, name, creditor, total_value, paid_value, monthly_installment, due_day, created_at`

func (s *DebtStore) Create(ctx context.Context, tx Execer, debt models.Debt) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO debts (id, user_id, family_id, name, creditor, total_value, paid_value, monthly_installment, due_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, debt.ID, debt.UserID, debt.FamilyID, debt.Name, debt.Creditor, debt.TotalValue, debt.PaidValue, debt.MonthlyInstallment, debt.DueDay)
	return err
}

func (s *DebtStore) List(ctx context.Context, filter Filter) ([]models.Debt, error) {
	where, args := filter.clause(1)
	var rows []models.Debt
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+debtColumns+`
		FROM debts
		WHERE `+where+`
		ORDER BY due_day, created_at
	`, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DebtStore) GetForUpdate(ctx context.Context, tx Getter, debtID string) (models.Debt, error) {
	var row models.Debt
	err := tx.GetContext(ctx, &row, `SELECT `+debtColumns+` FROM debts WHERE id = $1 FOR UPDATE`, debtID)
	if err != nil {
		return models.Debt{}, err
	}
	return row, nil
}

func (s *DebtStore) Update(ctx context.Context, tx Execer, debt models.Debt) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE debts
		SET name = $1, creditor = $2, total_value = $3, monthly_installment = $4, due_day = $5
		WHERE id = $6
	`, debt.Name, debt.Creditor, debt.TotalValue, debt.MonthlyInstallment, debt.DueDay, debt.ID)
	return err
}

func (s *DebtStore) SetPaid(ctx context.Context, tx Execer, debtID string, paid int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE debts SET paid_value = $1 WHERE id = $2`, paid, debtID)
	return err
}

func (s *DebtStore) Delete(ctx context.Context, tx Execer, debtID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM debts WHERE id = $1`, debtID)
	return err
}

func (s *DebtStore) ListOutstanding(ctx context.Context) ([]models.Debt, error) {
	var rows []models.Debt
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+debtColumns+`
		FROM debts
		WHERE paid_value < total_value
		ORDER BY due_day
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
