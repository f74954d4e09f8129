package services

import (
	"context"
	"time"

	"household/internal/models"
	"household/internal/store"
	"household/internal/websocket"
)

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, account models.Account) error
	List(ctx context.Context, filter store.Filter) ([]models.Account, error)
	GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (models.Account, error)
	FindByName(ctx context.Context, tx store.Getter, filter store.Filter, name string) (models.Account, error)
	FirstByUser(ctx context.Context, tx store.Getter, userID string) (models.Account, error)
	CountByUser(ctx context.Context, q store.Getter, userID string) (int, error)
	UpdateDetails(ctx context.Context, tx store.Execer, account models.Account) error
	UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance int64) error
	Delete(ctx context.Context, tx store.Execer, accountID string) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input models.Transaction) error
	GetForUpdate(ctx context.Context, tx store.Getter, transactionID string) (models.Transaction, error)
	Update(ctx context.Context, tx store.Execer, input models.Transaction) error
	Delete(ctx context.Context, tx store.Execer, transactionID string) error
	List(ctx context.Context, filter store.Filter, q store.TransactionQuery) ([]models.Transaction, error)
	SumExpenses(ctx context.Context, filter store.Filter, category string, from, to time.Time) (int64, error)
}

type BudgetStore interface {
	Create(ctx context.Context, tx store.Execer, budget models.BudgetLimit) error
	List(ctx context.Context, filter store.Filter) ([]models.BudgetLimit, error)
	GetByID(ctx context.Context, q store.Getter, budgetID string) (models.BudgetLimit, error)
	FindForCategory(ctx context.Context, filter store.Filter, category string) (models.BudgetLimit, error)
	Update(ctx context.Context, tx store.Execer, budget models.BudgetLimit) error
	Delete(ctx context.Context, tx store.Execer, budgetID string) error
}

type GoalStore interface {
	Create(ctx context.Context, tx store.Execer, goal models.Goal) error
	List(ctx context.Context, filter store.Filter) ([]models.Goal, error)
	GetForUpdate(ctx context.Context, tx store.Getter, goalID string) (models.Goal, error)
	Update(ctx context.Context, tx store.Execer, goal models.Goal) error
	UpdateProgress(ctx context.Context, tx store.Execer, goalID string, current int64, status string) error
	Delete(ctx context.Context, tx store.Execer, goalID string) error
	ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]models.Goal, error)
}

type DebtStore interface {
	Create(ctx context.Context, tx store.Execer, debt models.Debt) error
	List(ctx context.Context, filter store.Filter) ([]models.Debt, error)
	GetForUpdate(ctx context.Context, tx store.Getter, debtID string) (models.Debt, error)
	Update(ctx context.Context, tx store.Execer, debt models.Debt) error
	SetPaid(ctx context.Context, tx store.Execer, debtID string, paid int64) error
	Delete(ctx context.Context, tx store.Execer, debtID string) error
	ListOutstanding(ctx context.Context) ([]models.Debt, error)
}

type InvestmentStore interface {
	Create(ctx context.Context, tx store.Execer, investment models.Investment) error
	List(ctx context.Context, filter store.Filter) ([]models.Investment, error)
	GetForUpdate(ctx context.Context, tx store.Getter, investmentID string) (models.Investment, error)
	Update(ctx context.Context, tx store.Execer, investment models.Investment) error
	UpdateQuantity(ctx context.Context, tx store.Execer, investmentID, quantity string) error
	Delete(ctx context.Context, tx store.Execer, investmentID string) error
}

type NotificationStore interface {
	List(ctx context.Context, filter store.NotificationFilter, unreadOnly bool) ([]models.Notification, error)
	GetByID(ctx context.Context, q store.Getter, notificationID string) (models.Notification, error)
	MarkRead(ctx context.Context, tx store.Execer, notificationID string) error
	MarkAllRead(ctx context.Context, filter store.NotificationFilter) (int64, error)
	Delete(ctx context.Context, tx store.Execer, notificationID string) error
}

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, user models.User) error
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, userID, name, email string) error
	SetAvatar(ctx context.Context, userID, handle string) error
	SetSMTP(ctx context.Context, userID string, settings store.SMTPSettings) error
	ScheduleDeletion(ctx context.Context, userID string, at *time.Time) error
	ListDueForDeletion(ctx context.Context, now time.Time) ([]models.User, error)
	Delete(ctx context.Context, tx store.Execer, userID string) error
	SetFamily(ctx context.Context, tx store.Execer, userID string, familyID *string, role models.Role) error
	SetRole(ctx context.Context, tx store.Execer, userID string, role models.Role) error
	ListByFamily(ctx context.Context, q store.Selecter, familyID string) ([]models.User, error)
	GetFamilyAdmin(ctx context.Context, q store.Getter, familyID string) (models.User, error)
	CountByFamily(ctx context.Context, q store.Getter, familyID string) (int, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type FamilyStore interface {
	Create(ctx context.Context, tx store.Execer, family models.Family) error
	GetByID(ctx context.Context, q store.Getter, familyID string) (models.Family, error)
	GetByCode(ctx context.Context, q store.Getter, code string) (models.Family, error)
	CodeExists(ctx context.Context, q store.Getter, code string) (bool, error)
	Delete(ctx context.Context, tx store.Execer, familyID string) error
	RetagOwned(ctx context.Context, tx store.Execer, userID string, familyID *string) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID string, familyID *string, action, entityType, entityID string, data map[string]string) error
	List(ctx context.Context, filter store.Filter, limit, offset int) ([]store.AuditEntry, error)
}

// Notifier records notifications inside a transaction and delivers them once
// it has committed.
type Notifier interface {
	Record(ctx context.Context, tx store.Execer, n models.Notification) (models.Notification, error)
	Publish(ctx context.Context, notes ...models.Notification)
	Emit(ctx context.Context, n models.Notification) (models.Notification, error)
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}
