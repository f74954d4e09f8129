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
	"household/internal/metrics"
	"household/internal/models"
	"household/internal/money"
	"household/internal/scope"
	"household/internal/websocket"
)

const (
	categoryTransfer = "Transfer"
	categoryDebts    = "Debts"
)

type LedgerPolicy struct {
	// AllowNegativeBalance lets goal deposits, investment purchases and debt
	// payments overdraw the debited account. Transfers are always strict.
	AllowNegativeBalance bool
}

type BudgetChecker interface {
	CheckBudget(ctx context.Context, id scope.Identity, category string) error
}

type LedgerDeps struct {
	TxRunner     db.TxRunner
	Accounts     AccountStore
	Transactions TransactionStore
	Goals        GoalStore
	Debts        DebtStore
	Investments  InvestmentStore
	Users        UserStore
	Audit        AuditStore
	Notifier     Notifier
	Budgets      BudgetChecker
	Hub          BalanceHub
	Metrics      *metrics.Metrics
	Log          logrus.FieldLogger
}

// LedgerService owns every operation that moves money between accounts.
// Each runs in one serializable transaction and locks the accounts it
// touches before reading their balance.
type LedgerService struct {
	txRunner     db.TxRunner
	accounts     AccountStore
	transactions TransactionStore
	goals        GoalStore
	debts        DebtStore
	investments  InvestmentStore
	users        UserStore
	audit        AuditStore
	notifier     Notifier
	budgets      BudgetChecker
	hub          BalanceHub
	metrics      *metrics.Metrics
	log          logrus.FieldLogger
	policy       LedgerPolicy
	now          func() time.Time
}

func NewLedgerService(deps LedgerDeps, policy LedgerPolicy) *LedgerService {
	return &LedgerService{
		txRunner:     deps.TxRunner,
		accounts:     deps.Accounts,
		transactions: deps.Transactions,
		goals:        deps.Goals,
		debts:        deps.Debts,
		investments:  deps.Investments,
		users:        deps.Users,
		audit:        deps.Audit,
		notifier:     deps.Notifier,
		budgets:      deps.Budgets,
		hub:          deps.Hub,
		metrics:      deps.Metrics,
		log:          deps.Log,
		policy:       policy,
		now:          time.Now,
	}
}

// AccountRef names an account either by id or, for compatibility with
// free-text input, by name within the caller's scope.
type AccountRef struct {
	ID   string
	Name string
}

type TransactionInput struct {
	Description string
	Type        string
	Amount      int64
	Category    string
	Date        time.Time
	Status      string
	Account     AccountRef
}

func (in *TransactionInput) normalize(now time.Time) error {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if !models.ValidTransactionType(in.Type) {
		return fmt.Errorf("%w: type must be income or expense", ErrInvalidInput)
	}
	if in.Amount <= 0 {
		return ErrInvalidAmount
	}
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Account.Name = strings.TrimSpace(in.Account.Name)
	if in.Date.IsZero() {
		in.Date = now
	}
	switch in.Status {
	case "":
		in.Status = models.TransactionCompleted
	case models.TransactionCompleted, models.TransactionPending:
	default:
		return fmt.Errorf("%w: status must be completed or pending", ErrInvalidInput)
	}
	return nil
}

// resolveAccount returns nil when a name matches no visible account; the
// transaction is then recorded without a balance effect. An explicit id that
// does not exist is an error.
func (s *LedgerService) resolveAccount(ctx context.Context, tx *sqlx.Tx, id scope.Identity, ref AccountRef) (*models.Account, error) {
	switch {
	case ref.ID != "":
		account, err := s.accounts.GetForUpdate(ctx, tx, ref.ID)
		if err != nil {
			return nil, notFound(err)
		}
		if !id.CanWrite(account.Owner()) {
			return nil, ErrForbidden
		}
		return &account, nil
	case ref.Name != "":
		account, err := s.accounts.FindByName(ctx, tx, id.Filter(), ref.Name)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &account, nil
	}
	return nil, nil
}

func (s *LedgerService) CreateTransaction(ctx context.Context, id scope.Identity, in TransactionInput) (models.Transaction, error) {
	if id.UserID == "" {
		return models.Transaction{}, ErrUnauthenticated
	}
	if err := in.normalize(s.now()); err != nil {
		return models.Transaction{}, err
	}
	owner := id.Stamp()
	var created models.Transaction
	var changed []models.Account
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		b := newBalances()
		account, err := s.resolveAccount(ctx, tx, id, in.Account)
		if err != nil {
			return err
		}
		created = models.Transaction{
			ID:          uuid.NewString(),
			UserID:      owner.UserID,
			FamilyID:    owner.FamilyID,
			Description: in.Description,
			Type:        in.Type,
			Amount:      in.Amount,
			Category:    in.Category,
			Date:        in.Date,
			AccountName: in.Account.Name,
			Status:      in.Status,
			CreatedAt:   s.now(),
		}
		if account != nil {
			created.AccountID = &account.ID
			created.AccountName = account.Name
			b.track(*account)
			b.add(account.ID, created.SignedAmount())
		}
		if err := s.transactions.Create(ctx, tx, created); err != nil {
			return err
		}
		changed, err = b.flush(ctx, tx, s.accounts)
		return err
	})
	s.metrics.LedgerOperation("transaction_create", err)
	if err != nil {
		return models.Transaction{}, err
	}
	s.broadcast(id, changed)
	if created.Type == models.TransactionExpense && s.budgets != nil {
		if err := s.budgets.CheckBudget(ctx, id, created.Category); err != nil {
			s.log.WithError(err).WithField("category", created.Category).Warn("budget check failed")
		}
	}
	return created, nil
}

// UpdateTransaction reverses the stored effect on the old account and applies
// the new effect to the new one. When both are the same account only the
// difference is written.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id scope.Identity, transactionID string, in TransactionInput) (models.Transaction, error) {
	if id.UserID == "" {
		return models.Transaction{}, ErrUnauthenticated
	}
	if err := in.normalize(s.now()); err != nil {
		return models.Transaction{}, err
	}
	var updated models.Transaction
	var changed []models.Account
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		old, err := s.transactions.GetForUpdate(ctx, tx, transactionID)
		if err != nil {
			return notFound(err)
		}
		if !id.CanWrite(old.Owner()) {
			return ErrForbidden
		}
		b := newBalances()
		account, err := s.resolveAccount(ctx, tx, id, in.Account)
		if err != nil {
			return err
		}
		if account != nil {
			b.track(*account)
		}
		if old.AccountID != nil {
			if err := b.lock(ctx, tx, s.accounts, *old.AccountID); err != nil {
				return err
			}
			b.add(*old.AccountID, -old.SignedAmount())
		}

		updated = old
		updated.Description = in.Description
		updated.Type = in.Type
		updated.Amount = in.Amount
		updated.Category = in.Category
		updated.Date = in.Date
		updated.Status = in.Status
		updated.AccountID = nil
		updated.AccountName = in.Account.Name
		if account != nil {
			updated.AccountID = &account.ID
			updated.AccountName = account.Name
			b.add(account.ID, updated.SignedAmount())
		}
		if err := s.transactions.Update(ctx, tx, updated); err != nil {
			return err
		}
		changed, err = b.flush(ctx, tx, s.accounts)
		return err
	})
	s.metrics.LedgerOperation("transaction_update", err)
	if err != nil {
		return models.Transaction{}, err
	}
	s.broadcast(id, changed)
	return updated, nil
}

// DeleteTransaction reverses the stored effect and removes the row. A missing
// transaction is not an error.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id scope.Identity, transactionID string) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	var changed []models.Account
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		changed = nil
		old, err := s.transactions.GetForUpdate(ctx, tx, transactionID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if !id.CanWrite(old.Owner()) {
			return ErrForbidden
		}
		b := newBalances()
		if old.AccountID != nil {
			if err := b.lock(ctx, tx, s.accounts, *old.AccountID); err != nil {
				return err
			}
			b.add(*old.AccountID, -old.SignedAmount())
		}
		if err := s.transactions.Delete(ctx, tx, transactionID); err != nil {
			return err
		}
		changed, err = b.flush(ctx, tx, s.accounts)
		return err
	})
	s.metrics.LedgerOperation("transaction_delete", err)
	if err != nil {
		return err
	}
	s.broadcast(id, changed)
	return nil
}

type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        int64
	Date          time.Time
	Description   string
}

type TransferResult struct {
	TransferID string             `json:"transfer_id"`
	Debit      models.Transaction `json:"debit"`
	Credit     models.Transaction `json:"credit"`
}

func (s *LedgerService) Transfer(ctx context.Context, id scope.Identity, in TransferInput) (TransferResult, error) {
	if id.UserID == "" {
		return TransferResult{}, ErrUnauthenticated
	}
	if in.Amount <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}
	if in.FromAccountID == in.ToAccountID {
		return TransferResult{}, ErrSameAccountTransfer
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	owner := id.Stamp()
	var result TransferResult
	var changed []models.Account
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		from, to, err := lockTwoAccounts(ctx, tx, s.accounts, in.FromAccountID, in.ToAccountID)
		if err != nil {
			return err
		}
		if !id.CanWrite(from.Owner()) || !id.CanWrite(to.Owner()) {
			return ErrForbidden
		}
		if from.Balance < in.Amount {
			return ErrInsufficientFunds
		}
		from.Balance -= in.Amount
		to.Balance += in.Amount
		if err := s.accounts.UpdateBalance(ctx, tx, from.ID, from.Balance); err != nil {
			return err
		}
		if err := s.accounts.UpdateBalance(ctx, tx, to.ID, to.Balance); err != nil {
			return err
		}

		transferID := uuid.NewString()
		leg := func(txType string, account models.Account, description string) models.Transaction {
			if in.Description != "" {
				description = in.Description
			}
			return models.Transaction{
				ID:          uuid.NewString(),
				UserID:      owner.UserID,
				FamilyID:    owner.FamilyID,
				Description: description,
				Type:        txType,
				Amount:      in.Amount,
				Category:    categoryTransfer,
				Date:        in.Date,
				AccountID:   &account.ID,
				AccountName: account.Name,
				Status:      models.TransactionCompleted,
				TransferID:  &transferID,
				CreatedAt:   s.now(),
			}
		}
		result = TransferResult{
			TransferID: transferID,
			Debit:      leg(models.TransactionExpense, from, "Transfer to "+to.Name),
			Credit:     leg(models.TransactionIncome, to, "Transfer from "+from.Name),
		}
		if err := s.transactions.Create(ctx, tx, result.Debit); err != nil {
			return err
		}
		if err := s.transactions.Create(ctx, tx, result.Credit); err != nil {
			return err
		}
		changed = []models.Account{from, to}
		return s.audit.Log(ctx, tx, id.UserID, id.FamilyID, "transfer", "transfer", transferID, map[string]string{
			"from_account_id": from.ID,
			"to_account_id":   to.ID,
			"amount":          money.FormatMinor(in.Amount),
		})
	})
	s.metrics.LedgerOperation("transfer", err)
	if err != nil {
		return TransferResult{}, err
	}
	s.broadcast(id, changed)
	return result, nil
}

type DebtPaymentInput struct {
	DebtID    string
	AccountID string
	Amount    int64
	Date      time.Time
}

type DebtPaymentResult struct {
	Debt        models.Debt        `json:"debt"`
	Transaction models.Transaction `json:"transaction"`
}

// PayDebt records one installment. When the caller's family admin is someone
// else, the admin's oldest account is debited instead of the chosen one.
func (s *LedgerService) PayDebt(ctx context.Context, id scope.Identity, in DebtPaymentInput) (DebtPaymentResult, error) {
	if id.UserID == "" {
		return DebtPaymentResult{}, ErrUnauthenticated
	}
	if in.Amount <= 0 {
		return DebtPaymentResult{}, ErrInvalidAmount
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	owner := id.Stamp()
	var result DebtPaymentResult
	var changed []models.Account
	var notes []models.Notification
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		notes = nil
		debt, err := s.debts.GetForUpdate(ctx, tx, in.DebtID)
		if err != nil {
			return notFound(err)
		}
		if !id.CanWrite(debt.Owner()) {
			return ErrForbidden
		}
		account, description, err := s.payingAccount(ctx, tx, id, in.AccountID)
		if err != nil {
			return err
		}
		if !s.policy.AllowNegativeBalance && account.Balance < in.Amount {
			return ErrInsufficientFunds
		}
		account.Balance -= in.Amount
		if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance); err != nil {
			return err
		}

		wasPaidOff := debt.IsPaidOff()
		debt.PaidValue += in.Amount
		if err := s.debts.SetPaid(ctx, tx, debt.ID, debt.PaidValue); err != nil {
			return err
		}
		result = DebtPaymentResult{
			Debt: debt,
			Transaction: models.Transaction{
				ID:          uuid.NewString(),
				UserID:      owner.UserID,
				FamilyID:    owner.FamilyID,
				Description: "Debt payment: " + debt.Name + description,
				Type:        models.TransactionExpense,
				Amount:      in.Amount,
				Category:    categoryDebts,
				Date:        in.Date,
				AccountID:   &account.ID,
				AccountName: account.Name,
				Status:      models.TransactionCompleted,
				CreatedAt:   s.now(),
			},
		}
		if err := s.transactions.Create(ctx, tx, result.Transaction); err != nil {
			return err
		}
		changed = []models.Account{account}
		if err := s.audit.Log(ctx, tx, id.UserID, id.FamilyID, "debt_payment", "debt", debt.ID, map[string]string{
			"account_id": account.ID,
			"amount":     money.FormatMinor(in.Amount),
			"paid_by":    id.UserID,
		}); err != nil {
			return err
		}
		if !wasPaidOff && debt.IsPaidOff() {
			note, err := s.notifier.Record(ctx, tx, notificationFor(debt.Owner(), models.Notification{
				Kind:    models.NotificationSuccess,
				Title:   "Debt paid off",
				Message: fmt.Sprintf("The debt %q with %s is fully paid.", debt.Name, debt.Creditor),
			}))
			if err != nil {
				return err
			}
			notes = append(notes, note)
		}
		return nil
	})
	s.metrics.LedgerOperation("debt_payment", err)
	if err != nil {
		return DebtPaymentResult{}, err
	}
	s.broadcast(id, changed)
	s.notifier.Publish(ctx, notes...)
	return result, nil
}

// payingAccount re-reads the family admin on every call so an admin transfer
// takes effect immediately.
func (s *LedgerService) payingAccount(ctx context.Context, tx *sqlx.Tx, id scope.Identity, accountID string) (models.Account, string, error) {
	if id.FamilyID != nil {
		admin, err := s.users.GetFamilyAdmin(ctx, tx, *id.FamilyID)
		switch {
		case err == nil && admin.ID != id.UserID:
			account, err := s.accounts.FirstByUser(ctx, tx, admin.ID)
			if errors.Is(err, sql.ErrNoRows) {
				return models.Account{}, "", ErrAdminAccountMissing
			}
			if err != nil {
				return models.Account{}, "", err
			}
			return account, fmt.Sprintf(" (paid by %s)", id.Name), nil
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return models.Account{}, "", err
		}
	}
	if accountID == "" {
		return models.Account{}, "", fmt.Errorf("%w: account_id is required", ErrInvalidInput)
	}
	account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
	if err != nil {
		return models.Account{}, "", notFound(err)
	}
	if !id.CanWrite(account.Owner()) {
		return models.Account{}, "", ErrForbidden
	}
	return account, "", nil
}

type GoalDepositInput struct {
	GoalID    string
	Amount    int64
	AccountID string
}

// AddGoalFunds only ever increases the goal. Completion is one-way and is
// announced once.
func (s *LedgerService) AddGoalFunds(ctx context.Context, id scope.Identity, in GoalDepositInput) (models.Goal, error) {
	if id.UserID == "" {
		return models.Goal{}, ErrUnauthenticated
	}
	if in.Amount <= 0 {
		return models.Goal{}, ErrInvalidAmount
	}
	var goal models.Goal
	var changed []models.Account
	var notes []models.Notification
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		changed, notes = nil, nil
		var err error
		goal, err = s.goals.GetForUpdate(ctx, tx, in.GoalID)
		if err != nil {
			return notFound(err)
		}
		if !id.CanWrite(goal.Owner()) {
			return ErrForbidden
		}
		if in.AccountID != "" {
			account, err := s.debit(ctx, tx, id, in.AccountID, in.Amount)
			if err != nil {
				return err
			}
			changed = append(changed, account)
		}
		goal.CurrentAmount += in.Amount
		completedNow := goal.Status != models.GoalCompleted && goal.CurrentAmount >= goal.TargetAmount
		if completedNow {
			goal.Status = models.GoalCompleted
		}
		if err := s.goals.UpdateProgress(ctx, tx, goal.ID, goal.CurrentAmount, goal.Status); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, id.UserID, id.FamilyID, "goal_deposit", "goal", goal.ID, map[string]string{
			"account_id": in.AccountID,
			"amount":     money.FormatMinor(in.Amount),
		}); err != nil {
			return err
		}
		if completedNow {
			note, err := s.notifier.Record(ctx, tx, goalReached(goal))
			if err != nil {
				return err
			}
			notes = append(notes, note)
		}
		return nil
	})
	s.metrics.LedgerOperation("goal_deposit", err)
	if err != nil {
		return models.Goal{}, err
	}
	s.broadcast(id, changed)
	s.notifier.Publish(ctx, notes...)
	return goal, nil
}

type InvestmentInput struct {
	Ticker    string
	Kind      string
	Quantity  string
	UnitPrice int64
	AccountID string
}

// CreateInvestment optionally debits quantity × unit price from an account.
func (s *LedgerService) CreateInvestment(ctx context.Context, id scope.Identity, in InvestmentInput) (models.Investment, error) {
	if id.UserID == "" {
		return models.Investment{}, ErrUnauthenticated
	}
	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if ticker == "" {
		return models.Investment{}, fmt.Errorf("%w: ticker is required", ErrInvalidInput)
	}
	quantity, err := money.ParseQuantity(in.Quantity)
	if err != nil {
		return models.Investment{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.UnitPrice <= 0 {
		return models.Investment{}, ErrInvalidAmount
	}
	cost := money.CostMinor(quantity, in.UnitPrice)
	owner := id.Stamp()
	investment := models.Investment{
		ID:        uuid.NewString(),
		UserID:    owner.UserID,
		FamilyID:  owner.FamilyID,
		Ticker:    ticker,
		Kind:      strings.TrimSpace(in.Kind),
		Quantity:  money.FormatQuantity(quantity),
		UnitPrice: in.UnitPrice,
		CreatedAt: s.now(),
	}
	var changed []models.Account
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		changed = nil
		if err := s.investments.Create(ctx, tx, investment); err != nil {
			return err
		}
		if in.AccountID != "" {
			account, err := s.debit(ctx, tx, id, in.AccountID, cost)
			if err != nil {
				return err
			}
			changed = append(changed, account)
		}
		return s.audit.Log(ctx, tx, id.UserID, id.FamilyID, "investment_buy", "investment", investment.ID, map[string]string{
			"account_id": in.AccountID,
			"quantity":   investment.Quantity,
			"cost":       money.FormatMinor(cost),
		})
	})
	s.metrics.LedgerOperation("investment_buy", err)
	if err != nil {
		return models.Investment{}, err
	}
	s.broadcast(id, changed)
	return investment, nil
}

type InvestmentSaleInput struct {
	InvestmentID string
	Quantity     string
	UnitPrice    int64
	AccountID    string
}

type InvestmentSaleResult struct {
	Investment *models.Investment `json:"investment"`
	Proceeds   int64              `json:"proceeds"`
}

// SellInvestment reduces a holding and optionally credits the proceeds. A
// holding sold down to zero is removed.
func (s *LedgerService) SellInvestment(ctx context.Context, id scope.Identity, in InvestmentSaleInput) (InvestmentSaleResult, error) {
	if id.UserID == "" {
		return InvestmentSaleResult{}, ErrUnauthenticated
	}
	quantity, err := money.ParseQuantity(in.Quantity)
	if err != nil {
		return InvestmentSaleResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.UnitPrice < 0 {
		return InvestmentSaleResult{}, ErrInvalidAmount
	}
	var result InvestmentSaleResult
	var changed []models.Account
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		changed = nil
		investment, err := s.investments.GetForUpdate(ctx, tx, in.InvestmentID)
		if err != nil {
			return notFound(err)
		}
		if !id.CanWrite(investment.Owner()) {
			return ErrForbidden
		}
		held, err := money.ParseQuantity(investment.Quantity)
		if err != nil {
			return fmt.Errorf("stored quantity %q: %w", investment.Quantity, err)
		}
		if quantity.GreaterThan(held) {
			return fmt.Errorf("%w: cannot sell more than the %s units held", ErrInvalidInput, investment.Quantity)
		}
		price := in.UnitPrice
		if price == 0 {
			price = investment.UnitPrice
		}
		result = InvestmentSaleResult{Proceeds: money.CostMinor(quantity, price)}

		remaining := held.Sub(quantity)
		if remaining.IsZero() {
			if err := s.investments.Delete(ctx, tx, investment.ID); err != nil {
				return err
			}
		} else {
			investment.Quantity = money.FormatQuantity(remaining)
			if err := s.investments.UpdateQuantity(ctx, tx, investment.ID, investment.Quantity); err != nil {
				return err
			}
			result.Investment = &investment
		}
		if in.AccountID != "" {
			account, err := s.accounts.GetForUpdate(ctx, tx, in.AccountID)
			if err != nil {
				return notFound(err)
			}
			if !id.CanWrite(account.Owner()) {
				return ErrForbidden
			}
			account.Balance += result.Proceeds
			if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance); err != nil {
				return err
			}
			changed = append(changed, account)
		}
		return s.audit.Log(ctx, tx, id.UserID, id.FamilyID, "investment_sell", "investment", in.InvestmentID, map[string]string{
			"account_id": in.AccountID,
			"quantity":   money.FormatQuantity(quantity),
			"proceeds":   money.FormatMinor(result.Proceeds),
		})
	})
	s.metrics.LedgerOperation("investment_sell", err)
	if err != nil {
		return InvestmentSaleResult{}, err
	}
	s.broadcast(id, changed)
	return result, nil
}

// debit locks and charges an account under the negative-balance policy.
func (s *LedgerService) debit(ctx context.Context, tx *sqlx.Tx, id scope.Identity, accountID string, amount int64) (models.Account, error) {
	account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
	if err != nil {
		return models.Account{}, notFound(err)
	}
	if !id.CanWrite(account.Owner()) {
		return models.Account{}, ErrForbidden
	}
	if !s.policy.AllowNegativeBalance && account.Balance < amount {
		return models.Account{}, ErrInsufficientFunds
	}
	account.Balance -= amount
	if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (s *LedgerService) broadcast(id scope.Identity, accounts []models.Account) {
	if s.hub == nil {
		return
	}
	for _, account := range accounts {
		update := websocket.BalanceUpdate{
			AccountID: account.ID,
			Balance:   money.FormatMinor(account.Balance),
		}
		s.hub.BroadcastBalance(account.UserID, update)
		if account.UserID != id.UserID {
			s.hub.BroadcastBalance(id.UserID, update)
		}
	}
}

func goalReached(goal models.Goal) models.Notification {
	return notificationFor(goal.Owner(), models.Notification{
		Kind:    models.NotificationSuccess,
		Title:   "Goal reached",
		Message: fmt.Sprintf("The goal %q reached its target of %s.", goal.Name, money.FormatMinor(goal.TargetAmount)),
	})
}

// notificationFor addresses a notification to the owner of a record.
func notificationFor(owner models.Owner, n models.Notification) models.Notification {
	userID := owner.UserID
	n.UserID = &userID
	n.FamilyID = owner.FamilyID
	return n
}
