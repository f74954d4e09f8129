package services

import (
	"context"
	"database/sql"
	"errors"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"household/internal/models"
	"household/internal/store"
	"household/internal/websocket"
)

// world is an in-memory database shared by the fake stores. memTxRunner
// snapshots it before each transaction and restores it on error, so failed
// operations leave no trace just like a rolled back SQL transaction.
type world struct {
	accounts      map[string]models.Account
	transactions  map[string]models.Transaction
	budgets       map[string]models.BudgetLimit
	goals         map[string]models.Goal
	debts         map[string]models.Debt
	investments   map[string]models.Investment
	notifications map[string]models.Notification
	users         map[string]models.User
	sessions      map[string]models.Session
	families      map[string]models.Family
	audit         []store.AuditEntry

	accountOrder []string
	userOrder    []string

	failRetagAt string
	txCount     int
}

func newWorld() *world {
	return &world{
		accounts:      map[string]models.Account{},
		transactions:  map[string]models.Transaction{},
		budgets:       map[string]models.BudgetLimit{},
		goals:         map[string]models.Goal{},
		debts:         map[string]models.Debt{},
		investments:   map[string]models.Investment{},
		notifications: map[string]models.Notification{},
		users:         map[string]models.User{},
		sessions:      map[string]models.Session{},
		families:      map[string]models.Family{},
	}
}

func (w *world) clone() *world {
	c := *w
	c.accounts = maps.Clone(w.accounts)
	c.transactions = maps.Clone(w.transactions)
	c.budgets = maps.Clone(w.budgets)
	c.goals = maps.Clone(w.goals)
	c.debts = maps.Clone(w.debts)
	c.investments = maps.Clone(w.investments)
	c.notifications = maps.Clone(w.notifications)
	c.users = maps.Clone(w.users)
	c.sessions = maps.Clone(w.sessions)
	c.families = maps.Clone(w.families)
	c.audit = slices.Clone(w.audit)
	c.accountOrder = slices.Clone(w.accountOrder)
	c.userOrder = slices.Clone(w.userOrder)
	return &c
}

type memTxRunner struct {
	w *world
}

func (r memTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	snapshot := r.w.clone()
	r.w.txCount++
	if err := fn(nil); err != nil {
		count := r.w.txCount
		*r.w = *snapshot
		r.w.txCount = count
		return err
	}
	return nil
}

func visible(f store.Filter, userID string, familyID *string) bool {
	if userID == f.UserID {
		return true
	}
	return f.FamilyID != nil && familyID != nil && *familyID == *f.FamilyID
}

func ptr[T any](value T) *T {
	return &value
}

type memAccounts struct{ w *world }

func (m memAccounts) Create(_ context.Context, _ store.Execer, account models.Account) error {
	m.w.accounts[account.ID] = account
	m.w.accountOrder = append(m.w.accountOrder, account.ID)
	return nil
}

func (m memAccounts) List(_ context.Context, f store.Filter) ([]models.Account, error) {
	var out []models.Account
	for _, id := range m.w.accountOrder {
		if a, ok := m.w.accounts[id]; ok && visible(f, a.UserID, a.FamilyID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m memAccounts) GetForUpdate(_ context.Context, _ store.Getter, accountID string) (models.Account, error) {
	a, ok := m.w.accounts[accountID]
	if !ok {
		return models.Account{}, sql.ErrNoRows
	}
	return a, nil
}

func (m memAccounts) FindByName(_ context.Context, _ store.Getter, f store.Filter, name string) (models.Account, error) {
	for _, id := range m.w.accountOrder {
		if a, ok := m.w.accounts[id]; ok && a.Name == name && visible(f, a.UserID, a.FamilyID) {
			return a, nil
		}
	}
	return models.Account{}, sql.ErrNoRows
}

func (m memAccounts) FirstByUser(_ context.Context, _ store.Getter, userID string) (models.Account, error) {
	for _, id := range m.w.accountOrder {
		if a, ok := m.w.accounts[id]; ok && a.UserID == userID {
			return a, nil
		}
	}
	return models.Account{}, sql.ErrNoRows
}

func (m memAccounts) CountByUser(_ context.Context, _ store.Getter, userID string) (int, error) {
	count := 0
	for _, a := range m.w.accounts {
		if a.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m memAccounts) UpdateDetails(_ context.Context, _ store.Execer, account models.Account) error {
	current := m.w.accounts[account.ID]
	current.Name, current.Type, current.Bank = account.Name, account.Type, account.Bank
	m.w.accounts[account.ID] = current
	return nil
}

func (m memAccounts) UpdateBalance(_ context.Context, _ store.Execer, accountID string, balance int64) error {
	current := m.w.accounts[accountID]
	current.Balance = balance
	m.w.accounts[accountID] = current
	return nil
}

func (m memAccounts) Delete(_ context.Context, _ store.Execer, accountID string) error {
	delete(m.w.accounts, accountID)
	for id, t := range m.w.transactions {
		if t.AccountID != nil && *t.AccountID == accountID {
			t.AccountID = nil
			m.w.transactions[id] = t
		}
	}
	return nil
}

type memTransactions struct{ w *world }

func (m memTransactions) Create(_ context.Context, _ store.Execer, t models.Transaction) error {
	m.w.transactions[t.ID] = t
	return nil
}

func (m memTransactions) GetForUpdate(_ context.Context, _ store.Getter, id string) (models.Transaction, error) {
	t, ok := m.w.transactions[id]
	if !ok {
		return models.Transaction{}, sql.ErrNoRows
	}
	return t, nil
}

func (m memTransactions) Update(_ context.Context, _ store.Execer, t models.Transaction) error {
	m.w.transactions[t.ID] = t
	return nil
}

func (m memTransactions) Delete(_ context.Context, _ store.Execer, id string) error {
	delete(m.w.transactions, id)
	return nil
}

func (m memTransactions) List(_ context.Context, f store.Filter, q store.TransactionQuery) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range m.w.transactions {
		if !visible(f, t.UserID, t.FamilyID) {
			continue
		}
		if q.Category != "" && t.Category != q.Category {
			continue
		}
		if q.Type != "" && t.Type != q.Type {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m memTransactions) SumExpenses(_ context.Context, f store.Filter, category string, from, to time.Time) (int64, error) {
	var total int64
	for _, t := range m.w.transactions {
		if visible(f, t.UserID, t.FamilyID) && t.Type == models.TransactionExpense && t.Category == category &&
			!t.Date.Before(from) && t.Date.Before(to) {
			total += t.Amount
		}
	}
	return total, nil
}

type memBudgets struct{ w *world }

func (m memBudgets) Create(_ context.Context, _ store.Execer, b models.BudgetLimit) error {
	m.w.budgets[b.ID] = b
	return nil
}

func (m memBudgets) List(_ context.Context, f store.Filter) ([]models.BudgetLimit, error) {
	var out []models.BudgetLimit
	for _, b := range m.w.budgets {
		if visible(f, b.UserID, b.FamilyID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m memBudgets) GetByID(_ context.Context, _ store.Getter, id string) (models.BudgetLimit, error) {
	b, ok := m.w.budgets[id]
	if !ok {
		return models.BudgetLimit{}, sql.ErrNoRows
	}
	return b, nil
}

func (m memBudgets) FindForCategory(_ context.Context, f store.Filter, category string) (models.BudgetLimit, error) {
	for _, b := range m.w.budgets {
		if b.Category == category && visible(f, b.UserID, b.FamilyID) {
			return b, nil
		}
	}
	return models.BudgetLimit{}, sql.ErrNoRows
}

func (m memBudgets) Update(_ context.Context, _ store.Execer, b models.BudgetLimit) error {
	m.w.budgets[b.ID] = b
	return nil
}

func (m memBudgets) Delete(_ context.Context, _ store.Execer, id string) error {
	delete(m.w.budgets, id)
	return nil
}

type memGoals struct{ w *world }

func (m memGoals) Create(_ context.Context, _ store.Execer, g models.Goal) error {
	m.w.goals[g.ID] = g
	return nil
}

func (m memGoals) List(_ context.Context, f store.Filter) ([]models.Goal, error) {
	var out []models.Goal
	for _, g := range m.w.goals {
		if visible(f, g.UserID, g.FamilyID) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m memGoals) GetForUpdate(_ context.Context, _ store.Getter, id string) (models.Goal, error) {
	g, ok := m.w.goals[id]
	if !ok {
		return models.Goal{}, sql.ErrNoRows
	}
	return g, nil
}

func (m memGoals) Update(_ context.Context, _ store.Execer, g models.Goal) error {
	m.w.goals[g.ID] = g
	return nil
}

func (m memGoals) UpdateProgress(_ context.Context, _ store.Execer, id string, current int64, status string) error {
	g := m.w.goals[id]
	g.CurrentAmount, g.Status = current, status
	m.w.goals[id] = g
	return nil
}

func (m memGoals) Delete(_ context.Context, _ store.Execer, id string) error {
	delete(m.w.goals, id)
	return nil
}

func (m memGoals) ListActiveDueBetween(_ context.Context, from, to time.Time) ([]models.Goal, error) {
	var out []models.Goal
	for _, g := range m.w.goals {
		if g.Status == models.GoalActive && !g.Deadline.Before(from) && !g.Deadline.After(to) {
			out = append(out, g)
		}
	}
	return out, nil
}

type memDebts struct{ w *world }

func (m memDebts) Create(_ context.Context, _ store.Execer, d models.Debt) error {
	m.w.debts[d.ID] = d
	return nil
}

func (m memDebts) List(_ context.Context, f store.Filter) ([]models.Debt, error) {
	var out []models.Debt
	for _, d := range m.w.debts {
		if visible(f, d.UserID, d.FamilyID) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m memDebts) GetForUpdate(_ context.Context, _ store.Getter, id string) (models.Debt, error) {
	d, ok := m.w.debts[id]
	if !ok {
		return models.Debt{}, sql.ErrNoRows
	}
	return d, nil
}

func (m memDebts) Update(_ context.Context, _ store.Execer, d models.Debt) error {
	m.w.debts[d.ID] = d
	return nil
}

func (m memDebts) SetPaid(_ context.Context, _ store.Execer, id string, paid int64) error {
	d := m.w.debts[id]
	d.PaidValue = paid
	m.w.debts[id] = d
	return nil
}

func (m memDebts) Delete(_ context.Context, _ store.Execer, id string) error {
	delete(m.w.debts, id)
	return nil
}

func (m memDebts) ListOutstanding(_ context.Context) ([]models.Debt, error) {
	var out []models.Debt
	for _, d := range m.w.debts {
		if !d.IsPaidOff() {
			out = append(out, d)
		}
	}
	return out, nil
}

type memInvestments struct{ w *world }

func (m memInvestments) Create(_ context.Context, _ store.Execer, i models.Investment) error {
	m.w.investments[i.ID] = i
	return nil
}

func (m memInvestments) List(_ context.Context, f store.Filter) ([]models.Investment, error) {
	var out []models.Investment
	for _, i := range m.w.investments {
		if visible(f, i.UserID, i.FamilyID) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m memInvestments) GetForUpdate(_ context.Context, _ store.Getter, id string) (models.Investment, error) {
	i, ok := m.w.investments[id]
	if !ok {
		return models.Investment{}, sql.ErrNoRows
	}
	return i, nil
}

func (m memInvestments) Update(_ context.Context, _ store.Execer, i models.Investment) error {
	m.w.investments[i.ID] = i
	return nil
}

func (m memInvestments) UpdateQuantity(_ context.Context, _ store.Execer, id, quantity string) error {
	i := m.w.investments[id]
	i.Quantity = quantity
	m.w.investments[id] = i
	return nil
}

func (m memInvestments) Delete(_ context.Context, _ store.Execer, id string) error {
	delete(m.w.investments, id)
	return nil
}

type memNotifications struct{ w *world }

func (m memNotifications) List(_ context.Context, f store.NotificationFilter, unreadOnly bool) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range m.w.notifications {
		if unreadOnly && n.IsRead {
			continue
		}
		own := n.UserID != nil && *n.UserID == f.UserID
		family := f.FamilyID != nil && n.FamilyID != nil && *n.FamilyID == *f.FamilyID && (n.UserID == nil || f.Pooled)
		if own || family {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m memNotifications) GetByID(_ context.Context, _ store.Getter, id string) (models.Notification, error) {
	n, ok := m.w.notifications[id]
	if !ok {
		return models.Notification{}, sql.ErrNoRows
	}
	return n, nil
}

func (m memNotifications) MarkRead(_ context.Context, _ store.Execer, id string) error {
	n := m.w.notifications[id]
	n.IsRead = true
	m.w.notifications[id] = n
	return nil
}

func (m memNotifications) MarkAllRead(ctx context.Context, f store.NotificationFilter) (int64, error) {
	rows, _ := m.List(ctx, f, true)
	for _, n := range rows {
		n.IsRead = true
		m.w.notifications[n.ID] = n
	}
	return int64(len(rows)), nil
}

func (m memNotifications) Delete(_ context.Context, _ store.Execer, id string) error {
	delete(m.w.notifications, id)
	return nil
}

type memUsers struct{ w *world }

func (m memUsers) add(user models.User) {
	m.w.users[user.ID] = user
	m.w.userOrder = append(m.w.userOrder, user.ID)
}

func (m memUsers) Create(_ context.Context, _ store.Execer, user models.User) error {
	for _, u := range m.w.users {
		if u.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	m.add(user)
	return nil
}

func (m memUsers) GetByID(_ context.Context, id string) (models.User, error) {
	u, ok := m.w.users[id]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m memUsers) GetForUpdate(ctx context.Context, _ store.Getter, id string) (models.User, error) {
	return m.GetByID(ctx, id)
}

func (m memUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range m.w.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, sql.ErrNoRows
}

func (m memUsers) UpdateProfile(_ context.Context, id, name, email string) error {
	u := m.w.users[id]
	u.Name, u.Email = name, email
	m.w.users[id] = u
	return nil
}

func (m memUsers) SetAvatar(_ context.Context, id, handle string) error {
	u := m.w.users[id]
	u.AvatarHandle = &handle
	m.w.users[id] = u
	return nil
}

func (m memUsers) SetSMTP(_ context.Context, id string, settings store.SMTPSettings) error {
	u := m.w.users[id]
	u.SMTPHost, u.SMTPPort, u.SMTPUser = settings.Host, settings.Port, settings.User
	u.SMTPPassword, u.SMTPFromEmail, u.SMTPSecure = settings.SealedPassword, settings.FromEmail, settings.Secure
	m.w.users[id] = u
	return nil
}

func (m memUsers) ScheduleDeletion(_ context.Context, id string, at *time.Time) error {
	u := m.w.users[id]
	u.DeletionScheduledAt = at
	m.w.users[id] = u
	return nil
}

func (m memUsers) ListDueForDeletion(_ context.Context, now time.Time) ([]models.User, error) {
	var out []models.User
	for _, id := range m.w.userOrder {
		u, ok := m.w.users[id]
		if ok && u.DeletionScheduledAt != nil && !u.DeletionScheduledAt.After(now) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m memUsers) Delete(_ context.Context, _ store.Execer, id string) error {
	delete(m.w.users, id)
	return nil
}

func (m memUsers) SetFamily(_ context.Context, _ store.Execer, id string, familyID *string, role models.Role) error {
	u := m.w.users[id]
	u.FamilyID, u.Role = familyID, string(role)
	m.w.users[id] = u
	return nil
}

func (m memUsers) SetRole(_ context.Context, _ store.Execer, id string, role models.Role) error {
	u := m.w.users[id]
	u.Role = string(role)
	m.w.users[id] = u
	return nil
}

func (m memUsers) ListByFamily(_ context.Context, _ store.Selecter, familyID string) ([]models.User, error) {
	var out []models.User
	for _, id := range m.w.userOrder {
		u, ok := m.w.users[id]
		if ok && u.FamilyID != nil && *u.FamilyID == familyID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m memUsers) GetFamilyAdmin(ctx context.Context, _ store.Getter, familyID string) (models.User, error) {
	members, _ := m.ListByFamily(ctx, nil, familyID)
	for _, u := range members {
		if u.Role == string(models.RoleAdmin) {
			return u, nil
		}
	}
	return models.User{}, sql.ErrNoRows
}

func (m memUsers) CountByFamily(ctx context.Context, _ store.Getter, familyID string) (int, error) {
	members, _ := m.ListByFamily(ctx, nil, familyID)
	return len(members), nil
}

type memSessions struct{ w *world }

func (m memSessions) Create(_ context.Context, session models.Session) error {
	m.w.sessions[session.Token] = session
	return nil
}

func (m memSessions) Delete(_ context.Context, token string) error {
	delete(m.w.sessions, token)
	return nil
}

func (m memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for token, s := range m.w.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.w.sessions, token)
			n++
		}
	}
	return n, nil
}

type memFamilies struct{ w *world }

func (m memFamilies) Create(_ context.Context, _ store.Execer, family models.Family) error {
	m.w.families[family.ID] = family
	return nil
}

func (m memFamilies) GetByID(_ context.Context, _ store.Getter, id string) (models.Family, error) {
	f, ok := m.w.families[id]
	if !ok {
		return models.Family{}, sql.ErrNoRows
	}
	return f, nil
}

func (m memFamilies) GetByCode(_ context.Context, _ store.Getter, code string) (models.Family, error) {
	for _, f := range m.w.families {
		if strings.EqualFold(f.Code, code) {
			return f, nil
		}
	}
	return models.Family{}, sql.ErrNoRows
}

func (m memFamilies) CodeExists(ctx context.Context, q store.Getter, code string) (bool, error) {
	_, err := m.GetByCode(ctx, q, code)
	return err == nil, nil
}

func (m memFamilies) Delete(_ context.Context, _ store.Execer, id string) error {
	delete(m.w.families, id)
	return nil
}

// RetagOwned walks the tables in the same order as the SQL store and can be
// told to fail part way through.
func (m memFamilies) RetagOwned(_ context.Context, _ store.Execer, userID string, familyID *string) error {
	steps := []struct {
		table string
		apply func()
	}{
		{"accounts", func() { retag(m.w.accounts, userID, familyID, accountOwner) }},
		{"transactions", func() { retag(m.w.transactions, userID, familyID, transactionOwner) }},
		{"goals", func() { retag(m.w.goals, userID, familyID, goalOwner) }},
		{"budget_limits", func() { retag(m.w.budgets, userID, familyID, budgetOwner) }},
		{"investments", func() { retag(m.w.investments, userID, familyID, investmentOwner) }},
		{"debts", func() { retag(m.w.debts, userID, familyID, debtOwner) }},
		{"notifications", func() { retag(m.w.notifications, userID, familyID, notificationOwner) }},
	}
	for _, step := range steps {
		if step.table == m.w.failRetagAt {
			return errors.New("retag " + step.table + ": connection reset")
		}
		step.apply()
	}
	return nil
}

func retag[T any](rows map[string]T, userID string, familyID *string, owner func(*T) (string, **string)) {
	for id, row := range rows {
		uid, fam := owner(&row)
		if uid == userID {
			*fam = familyID
			rows[id] = row
		}
	}
}

func accountOwner(a *models.Account) (string, **string)         { return a.UserID, &a.FamilyID }
func transactionOwner(t *models.Transaction) (string, **string) { return t.UserID, &t.FamilyID }
func goalOwner(g *models.Goal) (string, **string)               { return g.UserID, &g.FamilyID }
func budgetOwner(b *models.BudgetLimit) (string, **string)      { return b.UserID, &b.FamilyID }
func investmentOwner(i *models.Investment) (string, **string)   { return i.UserID, &i.FamilyID }
func debtOwner(d *models.Debt) (string, **string)               { return d.UserID, &d.FamilyID }

func notificationOwner(n *models.Notification) (string, **string) {
	if n.UserID == nil {
		return "", &n.FamilyID
	}
	return *n.UserID, &n.FamilyID
}

type memAudit struct{ w *world }

func (m memAudit) Log(_ context.Context, _ store.Execer, actorID string, familyID *string, action, entityType, entityID string, _ map[string]string) error {
	m.w.audit = append(m.w.audit, store.AuditEntry{
		UserID: actorID, FamilyID: familyID, Action: action, EntityType: entityType, EntityID: entityID,
	})
	return nil
}

func (m memAudit) List(_ context.Context, f store.Filter, limit, offset int) ([]store.AuditEntry, error) {
	var out []store.AuditEntry
	for _, e := range m.w.audit {
		if visible(f, e.UserID, e.FamilyID) {
			out = append(out, e)
		}
	}
	return out, nil
}

// memNotifier records into the world and remembers what was published.
type memNotifier struct {
	w         *world
	published []models.Notification
	seq       int
}

func (n *memNotifier) Record(_ context.Context, _ store.Execer, note models.Notification) (models.Notification, error) {
	n.seq++
	note.ID = "note-" + strconv.Itoa(n.seq)
	n.w.notifications[note.ID] = note
	return note, nil
}

func (n *memNotifier) Publish(_ context.Context, notes ...models.Notification) {
	n.published = append(n.published, notes...)
}

func (n *memNotifier) Emit(ctx context.Context, note models.Notification) (models.Notification, error) {
	recorded, err := n.Record(ctx, nil, note)
	if err != nil {
		return models.Notification{}, err
	}
	n.Publish(ctx, recorded)
	return recorded, nil
}

func (n *memNotifier) titles() []string {
	var out []string
	for _, note := range n.published {
		out = append(out, note.Title)
	}
	return out
}

type memHub struct {
	updates []websocket.BalanceUpdate
}

func (h *memHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	h.updates = append(h.updates, update)
}
