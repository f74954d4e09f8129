package store

import (
	"context"

	"household/internal/models"
)

type AccountStore struct {
	db DB
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `id, user_id, family_id, name, type, bank, balance, created_at, updated_at`

func (s *AccountStore) Create(ctx context.Context, tx Execer, account models.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, family_id, name, type, bank, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query, account.ID, account.UserID, account.FamilyID, account.Name, account.Type, account.Bank, account.Balance)
	return err
}

func (s *AccountStore) List(ctx context.Context, filter Filter) ([]models.Account, error) {
	where, args := filter.clause(1)
	var rows []models.Account
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE `+where+`
		ORDER BY created_at, id
	`, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AccountStore) GetByID(ctx context.Context, q Getter, accountID string) (models.Account, error) {
	var row models.Account
	err := q.GetContext(ctx, &row, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, accountID string) (models.Account, error) {
	var row models.Account
	err := tx.GetContext(ctx, &row, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

// FindByName locks the oldest visible account with the given name.
func (s *AccountStore) FindByName(ctx context.Context, tx Getter, filter Filter, name string) (models.Account, error) {
	where, args := filter.clause(2)
	var row models.Account
	err := tx.GetContext(ctx, &row, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE name = $1 AND `+where+`
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE
	`, append([]any{name}, args...)...)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

// FirstByUser locks the oldest account created by userID.
func (s *AccountStore) FirstByUser(ctx context.Context, tx Getter, userID string) (models.Account, error) {
	var row models.Account
	err := tx.GetContext(ctx, &row, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE
	`, userID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) CountByUser(ctx context.Context, q Getter, userID string) (int, error) {
	var count int
	err := q.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID)
	return count, err
}

func (s *AccountStore) UpdateDetails(ctx context.Context, tx Execer, account models.Account) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET name = $1, type = $2, bank = $3, updated_at = NOW()
		WHERE id = $4
	`, account.Name, account.Type, account.Bank, account.ID)
	return err
}

func (s *AccountStore) UpdateBalance(ctx context.Context, tx Execer, accountID string, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, accountID)
	return err
}

func (s *AccountStore) Delete(ctx context.Context, tx Execer, accountID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	return err
}
