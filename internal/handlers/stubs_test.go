package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"household/internal/config"
	"household/internal/middleware"
	"household/internal/models"
	"household/internal/scope"
	"household/internal/services"
	"household/internal/store"
	"household/internal/websocket"
)

type stubResolver struct {
	identities map[string]scope.Identity
}

func (s stubResolver) Resolve(_ context.Context, token string) (scope.Identity, error) {
	id, ok := s.identities[token]
	if !ok {
		return scope.Identity{}, scope.ErrUnauthenticated
	}
	return id, nil
}

type stubLedger struct {
	createFn   func(ctx context.Context, id scope.Identity, in services.TransactionInput) (models.Transaction, error)
	updateFn   func(ctx context.Context, id scope.Identity, transactionID string, in services.TransactionInput) (models.Transaction, error)
	deleteFn   func(ctx context.Context, id scope.Identity, transactionID string) error
	transferFn func(ctx context.Context, id scope.Identity, in services.TransferInput) (services.TransferResult, error)
	payDebtFn  func(ctx context.Context, id scope.Identity, in services.DebtPaymentInput) (services.DebtPaymentResult, error)
	depositFn  func(ctx context.Context, id scope.Identity, in services.GoalDepositInput) (models.Goal, error)
	buyFn      func(ctx context.Context, id scope.Identity, in services.InvestmentInput) (models.Investment, error)
	sellFn     func(ctx context.Context, id scope.Identity, in services.InvestmentSaleInput) (services.InvestmentSaleResult, error)
}

func (s stubLedger) CreateTransaction(ctx context.Context, id scope.Identity, in services.TransactionInput) (models.Transaction, error) {
	if s.createFn == nil {
		return models.Transaction{}, nil
	}
	return s.createFn(ctx, id, in)
}

func (s stubLedger) UpdateTransaction(ctx context.Context, id scope.Identity, transactionID string, in services.TransactionInput) (models.Transaction, error) {
	if s.updateFn == nil {
		return models.Transaction{}, nil
	}
	return s.updateFn(ctx, id, transactionID, in)
}

func (s stubLedger) DeleteTransaction(ctx context.Context, id scope.Identity, transactionID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, id, transactionID)
}

func (s stubLedger) Transfer(ctx context.Context, id scope.Identity, in services.TransferInput) (services.TransferResult, error) {
	if s.transferFn == nil {
		return services.TransferResult{}, nil
	}
	return s.transferFn(ctx, id, in)
}

func (s stubLedger) PayDebt(ctx context.Context, id scope.Identity, in services.DebtPaymentInput) (services.DebtPaymentResult, error) {
	if s.payDebtFn == nil {
		return services.DebtPaymentResult{}, nil
	}
	return s.payDebtFn(ctx, id, in)
}

func (s stubLedger) AddGoalFunds(ctx context.Context, id scope.Identity, in services.GoalDepositInput) (models.Goal, error) {
	if s.depositFn == nil {
		return models.Goal{}, nil
	}
	return s.depositFn(ctx, id, in)
}

func (s stubLedger) CreateInvestment(ctx context.Context, id scope.Identity, in services.InvestmentInput) (models.Investment, error) {
	if s.buyFn == nil {
		return models.Investment{}, nil
	}
	return s.buyFn(ctx, id, in)
}

func (s stubLedger) SellInvestment(ctx context.Context, id scope.Identity, in services.InvestmentSaleInput) (services.InvestmentSaleResult, error) {
	if s.sellFn == nil {
		return services.InvestmentSaleResult{}, nil
	}
	return s.sellFn(ctx, id, in)
}

// stubRecords only stubs the calls the handler tests exercise; the rest
// return empty results.
type stubRecords struct {
	listAccountsFn     func(ctx context.Context, id scope.Identity) ([]models.Account, error)
	createAccountFn    func(ctx context.Context, id scope.Identity, in services.AccountInput) (models.Account, error)
	updateAccountFn    func(ctx context.Context, id scope.Identity, accountID string, in services.AccountInput) (models.Account, error)
	deleteAccountFn    func(ctx context.Context, id scope.Identity, accountID string) error
	listTransactionsFn func(ctx context.Context, id scope.Identity, q store.TransactionQuery) ([]models.Transaction, error)
	listActivityFn     func(ctx context.Context, id scope.Identity, limit, offset int) ([]store.AuditEntry, error)
	createBudgetFn     func(ctx context.Context, id scope.Identity, in services.BudgetInput) (models.BudgetLimit, error)
	budgetStatusesFn   func(ctx context.Context, id scope.Identity) ([]services.BudgetStatus, error)
	updateGoalFn       func(ctx context.Context, id scope.Identity, goalID string, in services.GoalInput) (models.Goal, error)
	createDebtFn       func(ctx context.Context, id scope.Identity, in services.DebtInput) (models.Debt, error)
	listNotificationFn func(ctx context.Context, id scope.Identity, unreadOnly bool) ([]models.Notification, error)
}

func (s stubRecords) ListAccounts(ctx context.Context, id scope.Identity) ([]models.Account, error) {
	if s.listAccountsFn == nil {
		return []models.Account{}, nil
	}
	return s.listAccountsFn(ctx, id)
}

func (s stubRecords) CreateAccount(ctx context.Context, id scope.Identity, in services.AccountInput) (models.Account, error) {
	if s.createAccountFn == nil {
		return models.Account{}, nil
	}
	return s.createAccountFn(ctx, id, in)
}

func (s stubRecords) UpdateAccount(ctx context.Context, id scope.Identity, accountID string, in services.AccountInput) (models.Account, error) {
	if s.updateAccountFn == nil {
		return models.Account{}, nil
	}
	return s.updateAccountFn(ctx, id, accountID, in)
}

func (s stubRecords) DeleteAccount(ctx context.Context, id scope.Identity, accountID string) error {
	if s.deleteAccountFn == nil {
		return nil
	}
	return s.deleteAccountFn(ctx, id, accountID)
}

func (s stubRecords) ListTransactions(ctx context.Context, id scope.Identity, q store.TransactionQuery) ([]models.Transaction, error) {
	if s.listTransactionsFn == nil {
		return []models.Transaction{}, nil
	}
	return s.listTransactionsFn(ctx, id, q)
}

func (s stubRecords) ListActivity(ctx context.Context, id scope.Identity, limit, offset int) ([]store.AuditEntry, error) {
	if s.listActivityFn == nil {
		return []store.AuditEntry{}, nil
	}
	return s.listActivityFn(ctx, id, limit, offset)
}

func (s stubRecords) ListBudgets(context.Context, scope.Identity) ([]models.BudgetLimit, error) {
	return []models.BudgetLimit{}, nil
}

func (s stubRecords) CreateBudget(ctx context.Context, id scope.Identity, in services.BudgetInput) (models.BudgetLimit, error) {
	if s.createBudgetFn == nil {
		return models.BudgetLimit{}, nil
	}
	return s.createBudgetFn(ctx, id, in)
}

func (s stubRecords) UpdateBudget(context.Context, scope.Identity, string, services.BudgetInput) (models.BudgetLimit, error) {
	return models.BudgetLimit{}, nil
}

func (s stubRecords) DeleteBudget(context.Context, scope.Identity, string) error {
	return nil
}

func (s stubRecords) BudgetStatuses(ctx context.Context, id scope.Identity) ([]services.BudgetStatus, error) {
	if s.budgetStatusesFn == nil {
		return []services.BudgetStatus{}, nil
	}
	return s.budgetStatusesFn(ctx, id)
}

func (s stubRecords) ListGoals(context.Context, scope.Identity) ([]models.Goal, error) {
	return []models.Goal{}, nil
}

func (s stubRecords) CreateGoal(context.Context, scope.Identity, services.GoalInput) (models.Goal, error) {
	return models.Goal{}, nil
}

func (s stubRecords) UpdateGoal(ctx context.Context, id scope.Identity, goalID string, in services.GoalInput) (models.Goal, error) {
	if s.updateGoalFn == nil {
		return models.Goal{}, nil
	}
	return s.updateGoalFn(ctx, id, goalID, in)
}

func (s stubRecords) DeleteGoal(context.Context, scope.Identity, string) error {
	return nil
}

func (s stubRecords) ListDebts(context.Context, scope.Identity) ([]models.Debt, error) {
	return []models.Debt{}, nil
}

func (s stubRecords) CreateDebt(ctx context.Context, id scope.Identity, in services.DebtInput) (models.Debt, error) {
	if s.createDebtFn == nil {
		return models.Debt{}, nil
	}
	return s.createDebtFn(ctx, id, in)
}

func (s stubRecords) UpdateDebt(context.Context, scope.Identity, string, services.DebtInput) (models.Debt, error) {
	return models.Debt{}, nil
}

func (s stubRecords) DeleteDebt(context.Context, scope.Identity, string) error {
	return nil
}

func (s stubRecords) ListInvestments(context.Context, scope.Identity) ([]models.Investment, error) {
	return []models.Investment{}, nil
}

func (s stubRecords) UpdateInvestment(context.Context, scope.Identity, string, services.InvestmentDetails) (models.Investment, error) {
	return models.Investment{}, nil
}

func (s stubRecords) DeleteInvestment(context.Context, scope.Identity, string) error {
	return nil
}

func (s stubRecords) ListNotifications(ctx context.Context, id scope.Identity, unreadOnly bool) ([]models.Notification, error) {
	if s.listNotificationFn == nil {
		return []models.Notification{}, nil
	}
	return s.listNotificationFn(ctx, id, unreadOnly)
}

func (s stubRecords) MarkNotificationRead(context.Context, scope.Identity, string) error {
	return nil
}

func (s stubRecords) MarkAllNotificationsRead(context.Context, scope.Identity) (int64, error) {
	return 0, nil
}

func (s stubRecords) DeleteNotification(context.Context, scope.Identity, string) error {
	return nil
}

type stubFamilies struct {
	createFn        func(ctx context.Context, id scope.Identity, name string) (models.Family, error)
	joinFn          func(ctx context.Context, id scope.Identity, code string) (models.Family, error)
	leaveFn         func(ctx context.Context, id scope.Identity) error
	transferAdminFn func(ctx context.Context, id scope.Identity, targetUserID string) error
	setRoleFn       func(ctx context.Context, id scope.Identity, targetUserID string, role models.Role) error
}

func (s stubFamilies) Create(ctx context.Context, id scope.Identity, name string) (models.Family, error) {
	if s.createFn == nil {
		return models.Family{}, nil
	}
	return s.createFn(ctx, id, name)
}

func (s stubFamilies) Join(ctx context.Context, id scope.Identity, code string) (models.Family, error) {
	if s.joinFn == nil {
		return models.Family{}, nil
	}
	return s.joinFn(ctx, id, code)
}

func (s stubFamilies) Leave(ctx context.Context, id scope.Identity) error {
	if s.leaveFn == nil {
		return nil
	}
	return s.leaveFn(ctx, id)
}

func (s stubFamilies) TransferAdmin(ctx context.Context, id scope.Identity, targetUserID string) error {
	if s.transferAdminFn == nil {
		return nil
	}
	return s.transferAdminFn(ctx, id, targetUserID)
}

func (s stubFamilies) SetRole(ctx context.Context, id scope.Identity, targetUserID string, role models.Role) error {
	if s.setRoleFn == nil {
		return nil
	}
	return s.setRoleFn(ctx, id, targetUserID, role)
}

func (s stubFamilies) Get(context.Context, scope.Identity) (services.FamilyView, error) {
	return services.FamilyView{}, nil
}

func (s stubFamilies) Members(context.Context, scope.Identity) ([]services.FamilyMember, error) {
	return []services.FamilyMember{}, nil
}

type stubUsers struct {
	registerFn func(ctx context.Context, in services.RegisterInput) (services.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (services.AuthResult, error)
	logoutFn   func(ctx context.Context, token string) error
	avatarFn   func(ctx context.Context, id scope.Identity, r io.Reader, ext string) (string, error)
	smtpFn     func(ctx context.Context, id scope.Identity, in services.SMTPInput) error
}

func (s stubUsers) Register(ctx context.Context, in services.RegisterInput) (services.AuthResult, error) {
	if s.registerFn == nil {
		return services.AuthResult{}, nil
	}
	return s.registerFn(ctx, in)
}

func (s stubUsers) Login(ctx context.Context, email, password string) (services.AuthResult, error) {
	if s.loginFn == nil {
		return services.AuthResult{}, nil
	}
	return s.loginFn(ctx, email, password)
}

func (s stubUsers) Logout(ctx context.Context, token string) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, token)
}

func (s stubUsers) Me(_ context.Context, id scope.Identity) (services.Profile, error) {
	return services.Profile{User: models.User{ID: id.UserID, Name: id.Name, Email: id.Email}}, nil
}

func (s stubUsers) UpdateProfile(_ context.Context, id scope.Identity, name, email string) (services.Profile, error) {
	return services.Profile{User: models.User{ID: id.UserID, Name: name, Email: email}}, nil
}

func (s stubUsers) SetAvatar(ctx context.Context, id scope.Identity, r io.Reader, ext string) (string, error) {
	if s.avatarFn == nil {
		return "", nil
	}
	return s.avatarFn(ctx, id, r, ext)
}

func (s stubUsers) UpdateSMTP(ctx context.Context, id scope.Identity, in services.SMTPInput) error {
	if s.smtpFn == nil {
		return nil
	}
	return s.smtpFn(ctx, id, in)
}

func (s stubUsers) ScheduleDeletion(context.Context, scope.Identity) (time.Time, error) {
	return time.Date(2026, time.October, 22, 0, 0, 0, 0, time.UTC), nil
}

func (s stubUsers) CancelDeletion(context.Context, scope.Identity) error {
	return nil
}

type stubFiles struct {
	verifyFn func(handle, token string) error
	pathFn   func(handle string) (string, error)
}

func (s stubFiles) Verify(handle, token string) error {
	if s.verifyFn == nil {
		return nil
	}
	return s.verifyFn(handle, token)
}

func (s stubFiles) Path(handle string) (string, error) {
	if s.pathFn == nil {
		return "", nil
	}
	return s.pathFn(handle)
}

const (
	aliceToken = "alice-token"
	adminToken = "admin-token"
)

var testFamilyID = "fam-1"

func testIdentities() map[string]scope.Identity {
	return map[string]scope.Identity{
		aliceToken: {UserID: "alice", Name: "Alice", Email: "alice@example.com", Role: models.RoleMember, Plan: models.PlanFree},
		adminToken: {UserID: "admin", Name: "Admin", Role: models.RoleAdmin, FamilyID: &testFamilyID, Plan: models.PlanFamily},
	}
}

func newTestHandler(deps Deps) *Handler {
	log, _ := test.NewNullLogger()
	deps.Config = config.Config{AppEnv: "test", Port: "0", AllowedOrigins: "*"}
	deps.Log = log
	deps.Resolver = stubResolver{identities: testIdentities()}
	deps.Hub = websocket.NewHub()
	if deps.Ledger == nil {
		deps.Ledger = stubLedger{}
	}
	if deps.Records == nil {
		deps.Records = stubRecords{}
	}
	if deps.Families == nil {
		deps.Families = stubFamilies{}
	}
	if deps.Users == nil {
		deps.Users = stubUsers{}
	}
	if deps.Files == nil {
		deps.Files = stubFiles{}
	}
	return New(deps)
}

// serve runs the request through the full router so identity resolution and
// route guards apply.
func serve(t *testing.T, h *Handler, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func withIdentity(req *http.Request, id scope.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), id))
}

func stringPtr(value string) *string {
	return &value
}
