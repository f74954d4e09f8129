package store

import (
	"context"

	"household/internal/models"
)

type InvestmentStore struct {
	db DB
}

func NewInvestmentStore(db DB) *InvestmentStore {
	return &InvestmentStore{db: db}
}

const investmentColumns = `id, user_id, family_id, ticker, kind, quantity::text AS quantity, unit_price, created_at`

func (s *InvestmentStore) Create(ctx context.Context, tx Execer, investment models.Investment) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO investments (id, user_id, family_id, ticker, kind, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, investment.ID, investment.UserID, investment.FamilyID, investment.Ticker, investment.Kind, investment.Quantity, investment.UnitPrice)
	return err
}

func (s *InvestmentStore) List(ctx context.Context, filter Filter) ([]models.Investment, error) {
	where, args := filter.clause(1)
	var rows []models.Investment
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+investmentColumns+`
		FROM investments
		WHERE `+where+`
		ORDER BY ticker, created_at
	`, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *InvestmentStore) GetForUpdate(ctx context.Context, tx Getter, investmentID string) (models.Investment, error) {
	var row models.Investment
	err := tx.GetContext(ctx, &row, `SELECT `+investmentColumns+` FROM investments WHERE id = $1 FOR UPDATE`, investmentID)
	if err != nil {
		return models.Investment{}, err
	}
	return row, nil
}

func (s *InvestmentStore) Update(ctx context.Context, tx Execer, investment models.Investment) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE investments
		SET ticker = $1, kind = $2, unit_price = $3
		WHERE id = $4
	`, investment.Ticker, investment.Kind, investment.UnitPrice, investment.ID)
	return err
}

func (s *InvestmentStore) UpdateQuantity(ctx context.Context, tx Execer, investmentID, quantity string) error {
	_, err := tx.ExecContext(ctx, `UPDATE investments SET quantity = $1 WHERE id = $2`, quantity, investmentID)
	return err
}

func (s *InvestmentStore) Delete(ctx context.Context, tx Execer, investmentID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM investments WHERE id = $1`, investmentID)
	return err
}
