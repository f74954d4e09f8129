package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"household/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionColumns = `id, user_id, family_id, description, type, amount, category, date,
	account_id, account_name, status, transfer_id, created_at`

// TransactionQuery narrows a listing. Zero values mean "any".
type TransactionQuery struct {
	From     time.Time
	To       time.Time
	Category string
	Type     string
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, family_id, description, type, amount, category, date, account_id, account_name, status, transfer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.FamilyID, input.Description, input.Type, input.Amount, input.Category,
		input.Date, input.AccountID, input.AccountName, input.Status, input.TransferID,
	)
	return err
}

func (s *TransactionStore) GetForUpdate(ctx context.Context, tx Getter, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := tx.GetContext(ctx, &row, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) Update(ctx context.Context, tx Execer, input models.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET description = $1, type = $2, amount = $3, category = $4, date = $5,
		    account_id = $6, account_name = $7, status = $8
		WHERE id = $9
	`, input.Description, input.Type, input.Amount, input.Category, input.Date,
		input.AccountID, input.AccountName, input.Status, input.ID)
	return err
}

func (s *TransactionStore) Delete(ctx context.Context, tx Execer, transactionID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, transactionID)
	return err
}

func (s *TransactionStore) List(ctx context.Context, filter Filter, q TransactionQuery) ([]models.Transaction, error) {
	where, args := filter.clause(1)
	conditions := []string{where}
	if !q.From.IsZero() {
		args = append(args, q.From)
		conditions = append(conditions, "date >= $"+itoa(len(args)))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		conditions = append(conditions, "date < $"+itoa(len(args)))
	}
	if q.Category != "" {
		args = append(args, q.Category)
		conditions = append(conditions, "category = $"+itoa(len(args)))
	}
	if q.Type != "" {
		args = append(args, q.Type)
		conditions = append(conditions, "type = $"+itoa(len(args)))
	}
	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE `+strings.Join(conditions, " AND ")+`
		ORDER BY date DESC, created_at DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SumExpenses totals visible expenses in a category for dates in [from, to).
func (s *TransactionStore) SumExpenses(ctx context.Context, filter Filter, category string, from, to time.Time) (int64, error) {
	where, args := filter.clause(4)
	var total int64
	err := s.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE type = 'expense' AND category = $1 AND date >= $2 AND date < $3 AND `+where,
		append([]any{category, from, to}, args...)...)
	return total, err
}

func itoa(value int) string {
	return fmt.Sprintf("%d", value)
}
