package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"household/internal/models"
	"household/internal/scope"
)

var fixedNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	t        *testing.T
	w        *world
	notifier *memNotifier
	hub      *memHub
	files    *memFiles
	ledger   *LedgerService
	records  *RecordService
	alerts   *AlertService
	families *FamilyService
	users    *UserService
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithPolicy(t, LedgerPolicy{})
}

func newHarnessWithPolicy(t *testing.T, policy LedgerPolicy) *harness {
	t.Helper()
	log, _ := test.NewNullLogger()
	w := newWorld()
	h := &harness{t: t, w: w, notifier: &memNotifier{w: w}, hub: &memHub{}, files: &memFiles{saved: map[string]string{}}}
	runner := memTxRunner{w: w}
	now := func() time.Time { return fixedNow }

	h.alerts = NewAlertService(memTransactions{w}, memBudgets{w}, memGoals{w}, memDebts{w}, h.notifier, nil, log)
	h.alerts.now = now
	h.ledger = NewLedgerService(LedgerDeps{
		TxRunner:     runner,
		Accounts:     memAccounts{w},
		Transactions: memTransactions{w},
		Goals:        memGoals{w},
		Debts:        memDebts{w},
		Investments:  memInvestments{w},
		Users:        memUsers{w},
		Audit:        memAudit{w},
		Notifier:     h.notifier,
		Budgets:      h.alerts,
		Hub:          h.hub,
		Log:          log,
	}, policy)
	h.ledger.now = now
	h.records = NewRecordService(RecordDeps{
		TxRunner:      runner,
		Accounts:      memAccounts{w},
		Transactions:  memTransactions{w},
		Budgets:       memBudgets{w},
		Goals:         memGoals{w},
		Debts:         memDebts{w},
		Investments:   memInvestments{w},
		Notifications: memNotifications{w},
		Audit:         memAudit{w},
		DebtAlerts:    h.alerts,
		Notifier:      h.notifier,
		Log:           log,
	})
	h.records.now = now
	h.families = NewFamilyService(runner, nil, memFamilies{w}, memUsers{w}, memAudit{w}, log)
	h.users = NewUserService(UserDeps{
		TxRunner: runner,
		Users:    memUsers{w},
		Sessions: memSessions{w},
		Families: memFamilies{w},
		Files:    h.files,
		URLs:     h.files,
		Sealer:   reverseSealer{},
		Log:      log,
	})
	h.users.now = now
	return h
}

// user seeds a user and returns the identity the resolver would build for it.
func (h *harness) user(id string, role models.Role, familyID *string, plan models.Plan) scope.Identity {
	h.t.Helper()
	user := models.User{
		ID:        id,
		Name:      strings.ToUpper(id[:1]) + id[1:],
		Email:     id + "@example.com",
		Role:      string(role),
		FamilyID:  familyID,
		Plan:      string(plan),
		CreatedAt: fixedNow,
	}
	memUsers{h.w}.add(user)
	return scope.FromUser(user)
}

func (h *harness) identity(userID string) scope.Identity {
	h.t.Helper()
	user, ok := h.w.users[userID]
	if !ok {
		h.t.Fatalf("unknown user %s", userID)
	}
	return scope.FromUser(user)
}

func (h *harness) family(id, code string) *string {
	h.w.families[id] = models.Family{ID: id, Name: "Family " + id, Code: code, CreatedAt: fixedNow}
	return &id
}

func (h *harness) account(id scope.Identity, name string, balance int64) models.Account {
	h.t.Helper()
	account, err := h.records.CreateAccount(context.Background(), id, AccountInput{Name: name, Type: "checking", Balance: balance})
	if err != nil {
		h.t.Fatalf("create account %s: %v", name, err)
	}
	return account
}

func (h *harness) balance(accountID string) int64 {
	h.t.Helper()
	account, ok := h.w.accounts[accountID]
	if !ok {
		h.t.Fatalf("account %s missing", accountID)
	}
	return account.Balance
}

type memFiles struct {
	saved   map[string]string
	removed []string
	seq     int
}

func (f *memFiles) Save(r io.Reader, ext string) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.seq++
	handle := "file-" + string(rune('0'+f.seq)) + "." + ext
	f.saved[handle] = string(body)
	return handle, nil
}

func (f *memFiles) Remove(handle string) error {
	f.removed = append(f.removed, handle)
	delete(f.saved, handle)
	return nil
}

func (f *memFiles) URL(handle string) (string, error) {
	return "/files/" + handle + "?token=signed", nil
}

type reverseSealer struct{}

func (reverseSealer) Seal(plain string) (string, error) {
	runes := []rune(plain)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return "sealed:" + string(runes), nil
}
