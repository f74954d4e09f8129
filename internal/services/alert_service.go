package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"household/internal/metrics"
	"household/internal/models"
	"household/internal/money"
	"household/internal/scope"
)

const (
	goalDeadlineWindow = 7 * 24 * time.Hour
	debtDueWindowDays  = 3
)

// AlertService emits threshold notifications. Emission is not deduplicated:
// a sweep that runs twice notifies twice.
type AlertService struct {
	transactions TransactionStore
	budgets      BudgetStore
	goals        GoalStore
	debts        DebtStore
	notifier     Notifier
	metrics      *metrics.Metrics
	log          logrus.FieldLogger
	now          func() time.Time
}

func NewAlertService(transactions TransactionStore, budgets BudgetStore, goals GoalStore, debts DebtStore, notifier Notifier, m *metrics.Metrics, log logrus.FieldLogger) *AlertService {
	return &AlertService{
		transactions: transactions,
		budgets:      budgets,
		goals:        goals,
		debts:        debts,
		notifier:     notifier,
		metrics:      m,
		log:          log,
		now:          time.Now,
	}
}

// CheckBudget compares this month's expenses in category against the visible
// limit for it and warns when the limit is exceeded.
func (s *AlertService) CheckBudget(ctx context.Context, id scope.Identity, category string) error {
	if category == "" {
		return nil
	}
	filter := id.Filter()
	limit, err := s.budgets.FindForCategory(ctx, filter, category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load budget limit: %w", err)
	}
	from, to := monthBounds(s.now())
	spent, err := s.transactions.SumExpenses(ctx, filter, category, from, to)
	if err != nil {
		return fmt.Errorf("sum expenses: %w", err)
	}
	if spent <= limit.MonthlyLimit {
		return nil
	}
	note := models.Notification{
		Kind:    models.NotificationWarning,
		Title:   "Budget exceeded",
		Message: fmt.Sprintf("Spending on %s this month is %s, above the limit of %s.", category, money.FormatMinor(spent), money.FormatMinor(limit.MonthlyLimit)),
	}
	if id.Kind() == scope.KindFamily {
		note.FamilyID = id.FamilyID
	} else {
		note = notificationFor(id.Stamp(), note)
	}
	_, err = s.notifier.Emit(ctx, note)
	return err
}

// SweepGoalDeadlines warns about active goals due within the next seven days.
func (s *AlertService) SweepGoalDeadlines(ctx context.Context) (int, error) {
	today := startOfDay(s.now())
	goals, err := s.goals.ListActiveDueBetween(ctx, today, today.Add(goalDeadlineWindow))
	s.metrics.SweepRun("goal_deadlines", err)
	if err != nil {
		return 0, fmt.Errorf("list goals: %w", err)
	}
	sent := 0
	for _, goal := range goals {
		_, err := s.notifier.Emit(ctx, notificationFor(goal.Owner(), models.Notification{
			Kind:    models.NotificationWarning,
			Title:   "Goal deadline approaching",
			Message: fmt.Sprintf("The goal %q is due on %s with %s of %s saved.", goal.Name, goal.Deadline.Format("2006-01-02"), money.FormatMinor(goal.CurrentAmount), money.FormatMinor(goal.TargetAmount)),
		}))
		if err != nil {
			s.log.WithError(err).WithField("goal_id", goal.ID).Warn("goal deadline notification failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// SweepDebtsDue flags unpaid debts whose next due date is within three days.
func (s *AlertService) SweepDebtsDue(ctx context.Context) (int, error) {
	debts, err := s.debts.ListOutstanding(ctx)
	s.metrics.SweepRun("debts_due", err)
	if err != nil {
		return 0, fmt.Errorf("list debts: %w", err)
	}
	sent := 0
	for _, debt := range debts {
		notified, err := s.CheckDebtDue(ctx, debt)
		if err != nil {
			s.log.WithError(err).WithField("debt_id", debt.ID).Warn("debt due notification failed")
			continue
		}
		if notified {
			sent++
		}
	}
	return sent, nil
}

func (s *AlertService) CheckDebtDue(ctx context.Context, debt models.Debt) (bool, error) {
	if debt.IsPaidOff() {
		return false, nil
	}
	today := startOfDay(s.now())
	due := debt.NextDueDate(today)
	if due.After(today.AddDate(0, 0, debtDueWindowDays)) {
		return false, nil
	}
	_, err := s.notifier.Emit(ctx, notificationFor(debt.Owner(), models.Notification{
		Kind:        models.NotificationDanger,
		Title:       "Debt due soon",
		Message:     fmt.Sprintf("The installment of %s for %q (%s) is due on %s.", money.FormatMinor(debt.MonthlyInstallment), debt.Name, debt.Creditor, due.Format("2006-01-02")),
		IsImportant: true,
	}))
	if err != nil {
		return false, err
	}
	return true, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func monthBounds(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 1, 0)
}
