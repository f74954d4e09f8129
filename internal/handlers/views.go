package handlers

import (
	"time"

	"household/internal/models"
	"household/internal/money"
	"household/internal/services"
)

// Views render money as decimal strings in major units, e.g. "12.50".

type accountView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FamilyID  *string   `json:"family_id,omitempty"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Bank      string    `json:"bank"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newAccountView(a models.Account) accountView {
	return accountView{
		ID:        a.ID,
		UserID:    a.UserID,
		FamilyID:  a.FamilyID,
		Name:      a.Name,
		Type:      a.Type,
		Bank:      a.Bank,
		Balance:   money.FormatMinor(a.Balance),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type transactionView struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	FamilyID    *string   `json:"family_id,omitempty"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	AccountID   *string   `json:"account_id,omitempty"`
	AccountName string    `json:"account_name"`
	Status      string    `json:"status"`
	TransferID  *string   `json:"transfer_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newTransactionView(t models.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		UserID:      t.UserID,
		FamilyID:    t.FamilyID,
		Description: t.Description,
		Type:        t.Type,
		Amount:      money.FormatMinor(t.Amount),
		Category:    t.Category,
		Date:        t.Date.Format(dateLayout),
		AccountID:   t.AccountID,
		AccountName: t.AccountName,
		Status:      t.Status,
		TransferID:  t.TransferID,
		CreatedAt:   t.CreatedAt,
	}
}

type budgetView struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	FamilyID     *string   `json:"family_id,omitempty"`
	Category     string    `json:"category"`
	MonthlyLimit string    `json:"monthly_limit"`
	CreatedAt    time.Time `json:"created_at"`
}

func newBudgetView(b models.BudgetLimit) budgetView {
	return budgetView{
		ID:           b.ID,
		UserID:       b.UserID,
		FamilyID:     b.FamilyID,
		Category:     b.Category,
		MonthlyLimit: money.FormatMinor(b.MonthlyLimit),
		CreatedAt:    b.CreatedAt,
	}
}

type budgetStatusView struct {
	Budget    budgetView `json:"budget"`
	Spent     string     `json:"spent"`
	Remaining string     `json:"remaining"`
	Exceeded  bool       `json:"exceeded"`
}

func newBudgetStatusView(s services.BudgetStatus) budgetStatusView {
	return budgetStatusView{
		Budget:    newBudgetView(s.Budget),
		Spent:     money.FormatMinor(s.Spent),
		Remaining: money.FormatMinor(s.Remaining),
		Exceeded:  s.Exceeded,
	}
}

type goalView struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	FamilyID      *string   `json:"family_id,omitempty"`
	Name          string    `json:"name"`
	TargetAmount  string    `json:"target_amount"`
	CurrentAmount string    `json:"current_amount"`
	Deadline      string    `json:"deadline"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func newGoalView(g models.Goal) goalView {
	return goalView{
		ID:            g.ID,
		UserID:        g.UserID,
		FamilyID:      g.FamilyID,
		Name:          g.Name,
		TargetAmount:  money.FormatMinor(g.TargetAmount),
		CurrentAmount: money.FormatMinor(g.CurrentAmount),
		Deadline:      g.Deadline.Format(dateLayout),
		Status:        g.Status,
		CreatedAt:     g.CreatedAt,
	}
}

type debtView struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	FamilyID           *string   `json:"family_id,omitempty"`
	Name               string    `json:"name"`
	Creditor           string    `json:"creditor"`
	TotalValue         string    `json:"total_value"`
	PaidValue          string    `json:"paid_value"`
	MonthlyInstallment string    `json:"monthly_installment"`
	DueDay             int       `json:"due_day"`
	PaidOff            bool      `json:"paid_off"`
	CreatedAt          time.Time `json:"created_at"`
}

func newDebtView(d models.Debt) debtView {
	return debtView{
		ID:                 d.ID,
		UserID:             d.UserID,
		FamilyID:           d.FamilyID,
		Name:               d.Name,
		Creditor:           d.Creditor,
		TotalValue:         money.FormatMinor(d.TotalValue),
		PaidValue:          money.FormatMinor(d.PaidValue),
		MonthlyInstallment: money.FormatMinor(d.MonthlyInstallment),
		DueDay:             d.DueDay,
		PaidOff:            d.IsPaidOff(),
		CreatedAt:          d.CreatedAt,
	}
}

type investmentView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FamilyID  *string   `json:"family_id,omitempty"`
	Ticker    string    `json:"ticker"`
	Kind      string    `json:"kind"`
	Quantity  string    `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
}

func newInvestmentView(i models.Investment) investmentView {
	return investmentView{
		ID:        i.ID,
		UserID:    i.UserID,
		FamilyID:  i.FamilyID,
		Ticker:    i.Ticker,
		Kind:      i.Kind,
		Quantity:  i.Quantity,
		UnitPrice: money.FormatMinor(i.UnitPrice),
		CreatedAt: i.CreatedAt,
	}
}

func mapViews[T, V any](items []T, view func(T) V) []V {
	out := make([]V, 0, len(items))
	for _, item := range items {
		out = append(out, view(item))
	}
	return out
}
