package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"household/internal/db"
	"household/internal/models"
	"household/internal/scope"
	"household/internal/store"
)

type DebtChecker interface {
	CheckDebtDue(ctx context.Context, debt models.Debt) (bool, error)
}

type RecordDeps struct {
	TxRunner      db.TxRunner
	Accounts      AccountStore
	Transactions  TransactionStore
	Budgets       BudgetStore
	Goals         GoalStore
	Debts         DebtStore
	Investments   InvestmentStore
	Notifications NotificationStore
	Audit         AuditStore
	DebtAlerts    DebtChecker
	Notifier      Notifier
	Log           logrus.FieldLogger
}

// RecordService is the plain CRUD surface over the owned entities. Every
// write reloads the target row and checks it against the caller's scope.
// Updating a missing record is ErrNotFound; deleting one is a no-op.
type RecordService struct {
	txRunner      db.TxRunner
	accounts      AccountStore
	transactions  TransactionStore
	budgets       BudgetStore
	goals         GoalStore
	debts         DebtStore
	investments   InvestmentStore
	notifications NotificationStore
	audit         AuditStore
	debtAlerts    DebtChecker
	notifier      Notifier
	log           logrus.FieldLogger
	now           func() time.Time
}

func NewRecordService(deps RecordDeps) *RecordService {
	return &RecordService{
		txRunner:      deps.TxRunner,
		accounts:      deps.Accounts,
		transactions:  deps.Transactions,
		budgets:       deps.Budgets,
		goals:         deps.Goals,
		debts:         deps.Debts,
		investments:   deps.Investments,
		notifications: deps.Notifications,
		audit:         deps.Audit,
		debtAlerts:    deps.DebtAlerts,
		notifier:      deps.Notifier,
		log:           deps.Log,
		now:           time.Now,
	}
}

type AccountInput struct {
	Name    string
	Type    string
	Bank    string
	Balance int64
}

func (in *AccountInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	in.Bank = strings.TrimSpace(in.Bank)
	if in.Name == "" {
		return fmt.Errorf("%w: account name is required", ErrInvalidInput)
	}
	return nil
}

func (s *RecordService) ListAccounts(ctx context.Context, id scope.Identity) ([]models.Account, error) {
	if id.UserID == "" {
		return []models.Account{}, nil
	}
	return nonNil(s.accounts.List(ctx, id.Filter()))
}

// CreateAccount enforces the plan's account cap over the caller's own
// accounts, not the family pool.
func (s *RecordService) CreateAccount(ctx context.Context, id scope.Identity, in AccountInput) (models.Account, error) {
	if id.UserID == "" {
		return models.Account{}, ErrUnauthenticated
	}
	if err := in.normalize(); err != nil {
		return models.Account{}, err
	}
	owner := id.Stamp()
	account := models.Account{
		ID:        uuid.NewString(),
		UserID:    owner.UserID,
		FamilyID:  owner.FamilyID,
		Name:      in.Name,
		Type:      in.Type,
		Bank:      in.Bank,
		Balance:   in.Balance,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	limit := models.LimitsFor(id.Plan).MaxAccounts
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if limit > 0 {
			count, err := s.accounts.CountByUser(ctx, tx, id.UserID)
			if err != nil {
				return err
			}
			if count >= limit {
				return ErrAccountLimitReached
			}
		}
		return s.accounts.Create(ctx, tx, account)
	})
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// UpdateAccount changes descriptive fields only. Balances move through the
// ledger.
func (s *RecordService) UpdateAccount(ctx context.Context, id scope.Identity, accountID string, in AccountInput) (models.Account, error) {
	if id.UserID == "" {
		return models.Account{}, ErrUnauthenticated
	}
	if err := in.normalize(); err != nil {
		return models.Account{}, err
	}
	var account models.Account
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		account, err = s.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return notFound(err)
		}
		if !id.CanWrite(account.Owner()) {
			return ErrForbidden
		}
		account.Name, account.Type, account.Bank = in.Name, in.Type, in.Bank
		return s.accounts.UpdateDetails(ctx, tx, account)
	})
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (s *RecordService) DeleteAccount(ctx context.Context, id scope.Identity, accountID string) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if !id.CanWrite(account.Owner()) {
			return ErrForbidden
		}
		return s.accounts.Delete(ctx, tx, accountID)
	})
}

func (s *RecordService) ListTransactions(ctx context.Context, id scope.Identity, q store.TransactionQuery) ([]models.Transaction, error) {
	if id.UserID == "" {
		return []models.Transaction{}, nil
	}
	return nonNil(s.transactions.List(ctx, id.Filter(), q))
}

func (s *RecordService) ListActivity(ctx context.Context, id scope.Identity, limit, offset int) ([]store.AuditEntry, error) {
	if id.UserID == "" {
		return []store.AuditEntry{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return nonNil(s.audit.List(ctx, id.Filter(), limit, offset))
}

func nonNil[T any](rows []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}
