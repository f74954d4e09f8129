package handlers

import (
	"context"
	"io"
	"time"

	"household/internal/models"
	"household/internal/scope"
	"household/internal/services"
	"household/internal/store"
)

type LedgerService interface {
	CreateTransaction(ctx context.Context, id scope.Identity, in services.TransactionInput) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, id scope.Identity, transactionID string, in services.TransactionInput) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id scope.Identity, transactionID string) error
	Transfer(ctx context.Context, id scope.Identity, in services.TransferInput) (services.TransferResult, error)
	PayDebt(ctx context.Context, id scope.Identity, in services.DebtPaymentInput) (services.DebtPaymentResult, error)
	AddGoalFunds(ctx context.Context, id scope.Identity, in services.GoalDepositInput) (models.Goal, error)
	CreateInvestment(ctx context.Context, id scope.Identity, in services.InvestmentInput) (models.Investment, error)
	SellInvestment(ctx context.Context, id scope.Identity, in services.InvestmentSaleInput) (services.InvestmentSaleResult, error)
}

type RecordService interface {
	ListAccounts(ctx context.Context, id scope.Identity) ([]models.Account, error)
	CreateAccount(ctx context.Context, id scope.Identity, in services.AccountInput) (models.Account, error)
	UpdateAccount(ctx context.Context, id scope.Identity, accountID string, in services.AccountInput) (models.Account, error)
	DeleteAccount(ctx context.Context, id scope.Identity, accountID string) error

	ListTransactions(ctx context.Context, id scope.Identity, q store.TransactionQuery) ([]models.Transaction, error)
	ListActivity(ctx context.Context, id scope.Identity, limit, offset int) ([]store.AuditEntry, error)

	ListBudgets(ctx context.Context, id scope.Identity) ([]models.BudgetLimit, error)
	CreateBudget(ctx context.Context, id scope.Identity, in services.BudgetInput) (models.BudgetLimit, error)
	UpdateBudget(ctx context.Context, id scope.Identity, budgetID string, in services.BudgetInput) (models.BudgetLimit, error)
	DeleteBudget(ctx context.Context, id scope.Identity, budgetID string) error
	BudgetStatuses(ctx context.Context, id scope.Identity) ([]services.BudgetStatus, error)

	ListGoals(ctx context.Context, id scope.Identity) ([]models.Goal, error)
	CreateGoal(ctx context.Context, id scope.Identity, in services.GoalInput) (models.Goal, error)
	UpdateGoal(ctx context.Context, id scope.Identity, goalID string, in services.GoalInput) (models.Goal, error)
	DeleteGoal(ctx context.Context, id scope.Identity, goalID string) error

	ListDebts(ctx context.Context, id scope.Identity) ([]models.Debt, error)
	CreateDebt(ctx context.Context, id scope.Identity, in services.DebtInput) (models.Debt, error)
	UpdateDebt(ctx context.Context, id scope.Identity, debtID string, in services.DebtInput) (models.Debt, error)
	DeleteDebt(ctx context.Context, id scope.Identity, debtID string) error

	ListInvestments(ctx context.Context, id scope.Identity) ([]models.Investment, error)
	UpdateInvestment(ctx context.Context, id scope.Identity, investmentID string, in services.InvestmentDetails) (models.Investment, error)
	DeleteInvestment(ctx context.Context, id scope.Identity, investmentID string) error

	ListNotifications(ctx context.Context, id scope.Identity, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id scope.Identity, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context, id scope.Identity) (int64, error)
	DeleteNotification(ctx context.Context, id scope.Identity, notificationID string) error
}

type FamilyService interface {
	Create(ctx context.Context, id scope.Identity, name string) (models.Family, error)
	Join(ctx context.Context, id scope.Identity, code string) (models.Family, error)
	Leave(ctx context.Context, id scope.Identity) error
	TransferAdmin(ctx context.Context, id scope.Identity, targetUserID string) error
	SetRole(ctx context.Context, id scope.Identity, targetUserID string, role models.Role) error
	Get(ctx context.Context, id scope.Identity) (services.FamilyView, error)
	Members(ctx context.Context, id scope.Identity) ([]services.FamilyMember, error)
}

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (services.AuthResult, error)
	Login(ctx context.Context, email, password string) (services.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, id scope.Identity) (services.Profile, error)
	UpdateProfile(ctx context.Context, id scope.Identity, name, email string) (services.Profile, error)
	SetAvatar(ctx context.Context, id scope.Identity, r io.Reader, ext string) (string, error)
	UpdateSMTP(ctx context.Context, id scope.Identity, in services.SMTPInput) error
	ScheduleDeletion(ctx context.Context, id scope.Identity) (time.Time, error)
	CancelDeletion(ctx context.Context, id scope.Identity) error
}

// FileServer resolves signed file handles to paths on disk.
type FileServer interface {
	Path(handle string) (string, error)
	Verify(handle, token string) error
}
