package models

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RolePartner Role = "partner"
	RoleMember  Role = "member"
)

// NormalizeRole maps unknown or empty roles to member.
func NormalizeRole(value string) Role {
	switch Role(value) {
	case RoleAdmin, RolePartner:
		return Role(value)
	default:
		return RoleMember
	}
}

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
	PlanFamily  Plan = "family"
)

// PlanLimits holds entity caps for a plan. Zero means unlimited.
type PlanLimits struct {
	MaxAccounts      int
	MaxFamilyMembers int
}

func LimitsFor(plan Plan) PlanLimits {
	switch plan {
	case PlanPremium:
		return PlanLimits{MaxAccounts: 15, MaxFamilyMembers: 4}
	case PlanFamily:
		return PlanLimits{MaxAccounts: 0, MaxFamilyMembers: 10}
	default:
		return PlanLimits{MaxAccounts: 3, MaxFamilyMembers: 2}
	}
}

// Owner identifies who created a record and which family pool it belongs to.
type Owner struct {
	UserID   string
	FamilyID *string
}

type User struct {
	ID                    string     `db:"id" json:"id"`
	Name                  string     `db:"name" json:"name"`
	Email                 string     `db:"email" json:"email"`
	PasswordHash          string     `db:"password_hash" json:"-"`
	Role                  string     `db:"role" json:"role"`
	FamilyID              *string    `db:"family_id" json:"family_id,omitempty"`
	Plan                  string     `db:"plan" json:"plan"`
	SubscriptionStatus    string     `db:"subscription_status" json:"subscription_status"`
	SubscriptionStartedAt *time.Time `db:"subscription_started_at" json:"subscription_started_at,omitempty"`
	SubscriptionEndsAt    *time.Time `db:"subscription_ends_at" json:"subscription_ends_at,omitempty"`
	AvatarHandle          *string    `db:"avatar_handle" json:"-"`
	DeletionScheduledAt   *time.Time `db:"deletion_scheduled_at" json:"deletion_scheduled_at,omitempty"`
	SMTPHost              string     `db:"smtp_host" json:"smtp_host"`
	SMTPPort              int        `db:"smtp_port" json:"smtp_port"`
	SMTPUser              string     `db:"smtp_user" json:"smtp_user"`
	SMTPPassword          string     `db:"smtp_password" json:"-"`
	SMTPFromEmail         string     `db:"smtp_from_email" json:"smtp_from_email"`
	SMTPSecure            bool       `db:"smtp_secure" json:"smtp_secure"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

func (u User) HasSMTP() bool {
	return u.SMTPHost != "" && u.SMTPUser != "" && u.SMTPPassword != ""
}

type Session struct {
	Token     string    `db:"token"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

type Family struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Account struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FamilyID  *string   `db:"family_id" json:"family_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	Bank      string    `db:"bank" json:"bank"`
	Balance   int64     `db:"balance" json:"balance"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (a Account) Owner() Owner { return Owner{UserID: a.UserID, FamilyID: a.FamilyID} }

const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"

	TransactionCompleted = "completed"
	TransactionPending   = "pending"
)

type Transaction struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	FamilyID    *string   `db:"family_id" json:"family_id,omitempty"`
	Description string    `db:"description" json:"description"`
	Type        string    `db:"type" json:"type"`
	Amount      int64     `db:"amount" json:"amount"`
	Category    string    `db:"category" json:"category"`
	Date        time.Time `db:"date" json:"date"`
	AccountID   *string   `db:"account_id" json:"account_id,omitempty"`
	AccountName string    `db:"account_name" json:"account_name"`
	Status      string    `db:"status" json:"status"`
	TransferID  *string   `db:"transfer_id" json:"transfer_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func (t Transaction) Owner() Owner { return Owner{UserID: t.UserID, FamilyID: t.FamilyID} }

// SignedAmount is the balance effect of the transaction, derived only from
// its stored type and amount.
func (t Transaction) SignedAmount() int64 {
	return SignedAmount(t.Type, t.Amount)
}

func SignedAmount(txType string, amount int64) int64 {
	if txType == TransactionIncome {
		return amount
	}
	return -amount
}

func ValidTransactionType(value string) bool {
	return value == TransactionIncome || value == TransactionExpense
}

type BudgetLimit struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	FamilyID     *string   `db:"family_id" json:"family_id,omitempty"`
	Category     string    `db:"category" json:"category"`
	MonthlyLimit int64     `db:"monthly_limit" json:"monthly_limit"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (b BudgetLimit) Owner() Owner { return Owner{UserID: b.UserID, FamilyID: b.FamilyID} }

const (
	GoalActive    = "active"
	GoalCompleted = "completed"
)

type Goal struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	FamilyID      *string   `db:"family_id" json:"family_id,omitempty"`
	Name          string    `db:"name" json:"name"`
	TargetAmount  int64     `db:"target_amount" json:"target_amount"`
	CurrentAmount int64     `db:"current_amount" json:"current_amount"`
	Deadline      time.Time `db:"deadline" json:"deadline"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

func (g Goal) Owner() Owner { return Owner{UserID: g.UserID, FamilyID: g.FamilyID} }

type Debt struct {
	ID                 string    `db:"id" json:"id"`
	UserID             string    `db:"user_id" json:"user_id"`
	FamilyID           *string   `db:"family_id" json:"family_id,omitempty"`
	Name               string    `db:"name" json:"name"`
	Creditor           string    `db:"creditor" json:"creditor"`
	TotalValue         int64     `db:"total_value" json:"total_value"`
	PaidValue          int64     `db:"paid_value" json:"paid_value"`
	MonthlyInstallment int64     `db:"monthly_installment" json:"monthly_installment"`
	DueDay             int       `db:"due_day" json:"due_day"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

func (d Debt) Owner() Owner { return Owner{UserID: d.UserID, FamilyID: d.FamilyID} }

func (d Debt) IsPaidOff() bool {
	return d.PaidValue >= d.TotalValue
}

// NextDueDate returns the first due date on or after the day of now. The due
// day is clamped to the length of the month.
func (d Debt) NextDueDate(now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	due := dueIn(today.Year(), today.Month(), d.DueDay, now.Location())
	if due.Before(today) {
		next := today.AddDate(0, 0, -today.Day()+1).AddDate(0, 1, 0)
		due = dueIn(next.Year(), next.Month(), d.DueDay, now.Location())
	}
	return due
}

func dueIn(year int, month time.Month, day int, loc *time.Location) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

type Investment struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FamilyID  *string   `db:"family_id" json:"family_id,omitempty"`
	Ticker    string    `db:"ticker" json:"ticker"`
	Kind      string    `db:"kind" json:"kind"`
	Quantity  string    `db:"quantity" json:"quantity"`
	UnitPrice int64     `db:"unit_price" json:"unit_price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (i Investment) Owner() Owner { return Owner{UserID: i.UserID, FamilyID: i.FamilyID} }

const (
	NotificationInfo    = "info"
	NotificationWarning = "warning"
	NotificationSuccess = "success"
	NotificationDanger  = "danger"
)

type Notification struct {
	ID          string    `db:"id" json:"id"`
	UserID      *string   `db:"user_id" json:"user_id,omitempty"`
	FamilyID    *string   `db:"family_id" json:"family_id,omitempty"`
	Kind        string    `db:"kind" json:"kind"`
	Title       string    `db:"title" json:"title"`
	Message     string    `db:"message" json:"message"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	IsImportant bool      `db:"is_important" json:"is_important"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
