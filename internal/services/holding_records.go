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

	"household/internal/models"
	"household/internal/scope"
)

type GoalInput struct {
	Name         string
	TargetAmount int64
	Deadline     time.Time
}

func (in *GoalInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: goal name is required", ErrInvalidInput)
	}
	if in.TargetAmount <= 0 {
		return ErrInvalidAmount
	}
	if in.Deadline.IsZero() {
		return fmt.Errorf("%w: deadline is required", ErrInvalidInput)
	}
	return nil
}

func (s *RecordService) ListGoals(ctx context.Context, id scope.Identity) ([]models.Goal, error) {
	if id.UserID == "" {
		return []models.Goal{}, nil
	}
	return nonNil(s.goals.List(ctx, id.Filter()))
}

func (s *RecordService) CreateGoal(ctx context.Context, id scope.Identity, in GoalInput) (models.Goal, error) {
	if id.UserID == "" {
		return models.Goal{}, ErrUnauthenticated
	}
	if err := in.normalize(); err != nil {
		return models.Goal{}, err
	}
	owner := id.Stamp()
	goal := models.Goal{
		ID:           uuid.NewString(),
		UserID:       owner.UserID,
		FamilyID:     owner.FamilyID,
		Name:         in.Name,
		TargetAmount: in.TargetAmount,
		Deadline:     in.Deadline,
		Status:       models.GoalActive,
		CreatedAt:    s.now(),
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.goals.Create(ctx, tx, goal)
	})
	if err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

// UpdateGoal never reopens a completed goal. Lowering the target to the saved
// amount completes it and announces it the same way a deposit would.
func (s *RecordService) UpdateGoal(ctx context.Context, id scope.Identity, goalID string, in GoalInput) (models.Goal, error) {
	if id.UserID == "" {
		return models.Goal{}, ErrUnauthenticated
	}
	if err := in.normalize(); err != nil {
		return models.Goal{}, err
	}
	var goal models.Goal
	var notes []models.Notification
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		notes = nil
		var err error
		goal, err = s.goals.GetForUpdate(ctx, tx, goalID)
		if err != nil {
			return notFound(err)
		}
		if !id.CanWrite(goal.Owner()) {
			return ErrForbidden
		}
		goal.Name, goal.TargetAmount, goal.Deadline = in.Name, in.TargetAmount, in.Deadline
		completedNow := goal.Status != models.GoalCompleted && goal.CurrentAmount >= goal.TargetAmount
		if completedNow {
			goal.Status = models.GoalCompleted
		}
		if err := s.goals.Update(ctx, tx, goal); err != nil {
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
	if err != nil {
		return models.Goal{}, err
	}
	s.notifier.Publish(ctx, notes...)
	return goal, nil
}

func (s *RecordService) DeleteGoal(ctx context.Context, id scope.Identity, goalID string) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		goal, err := s.goals.GetForUpdate(ctx, tx, goalID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if !id.CanWrite(goal.Owner()) {
			return ErrForbidden
		}
		return s.goals.Delete(ctx, tx, goalID)
	})
}

type DebtInput struct {
	Name               string
	Creditor           string
	TotalValue         int64
	PaidValue          int64
	MonthlyInstallment int64
	DueDay             int
}

func (in *DebtInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Creditor = strings.TrimSpace(in.Creditor)
	if in.Name == "" {
		return fmt.Errorf("%w: debt name is required", ErrInvalidInput)
	}
	if in.TotalValue <= 0 || in.MonthlyInstallment < 0 || in.PaidValue < 0 {
		return ErrInvalidAmount
	}
	if in.DueDay < 1 || in.DueDay > 31 {
		return fmt.Errorf("%w: due day must be between 1 and 31", ErrInvalidInput)
	}
	return nil
}

func (s *RecordService) ListDebts(ctx context.Context, id scope.Identity) ([]models.Debt, error) {
	if id.UserID == "" {
		return []models.Debt{}, nil
	}
	return nonNil(s.debts.List(ctx, id.Filter()))
}

// CreateDebt runs the due-soon check for the new debt once it is stored.
func (s *RecordService) CreateDebt(ctx context.Context, id scope.Identity, in DebtInput) (models.Debt, error) {
	if id.UserID == "" {
		return models.Debt{}, ErrUnauthenticated
	}
	if err := in.normalize(); err != nil {
		return models.Debt{}, err
	}
	owner := id.Stamp()
	debt := models.Debt{
		ID:                 uuid.NewString(),
		UserID:             owner.UserID,
		FamilyID:           owner.FamilyID,
		Name:               in.Name,
		Creditor:           in.Creditor,
		TotalValue:         in.TotalValue,
		PaidValue:          in.PaidValue,
		MonthlyInstallment: in.MonthlyInstallment,
		DueDay:             in.DueDay,
		CreatedAt:          s.now(),
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.debts.Create(ctx, tx, debt)
	})
	if err != nil {
		return models.Debt{}, err
	}
	if s.debtAlerts != nil {
		if _, err := s.debtAlerts.CheckDebtDue(ctx, debt); err != nil {
			s.log.WithError(err).WithField("debt_id", debt.ID).Warn("debt due check failed")
		}
	}
	return debt, nil
}

// UpdateDebt leaves paid_value alone; it only grows through payments.
func (s *RecordService) UpdateDebt(ctx context.Context, id scope.Identity, debtID string, in DebtInput) (models.Debt, error) {
	if id.UserID == "" {
		return models.Debt{}, ErrUnauthenticated
	}
	if err := in.normalize(); err != nil {
		return models.Debt{}, err
	}
	var debt models.Debt
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		debt, err = s.debts.GetForUpdate(ctx, tx, debtID)
		if err != nil {
			return notFound(err)
		}
		if !id.CanWrite(debt.Owner()) {
			return ErrForbidden
		}
		debt.Name, debt.Creditor = in.Name, in.Creditor
		debt.TotalValue, debt.MonthlyInstallment, debt.DueDay = in.TotalValue, in.MonthlyInstallment, in.DueDay
		return s.debts.Update(ctx, tx, debt)
	})
	if err != nil {
		return models.Debt{}, err
	}
	return debt, nil
}

func (s *RecordService) DeleteDebt(ctx context.Context, id scope.Identity, debtID string) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		debt, err := s.debts.GetForUpdate(ctx, tx, debtID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if !id.CanWrite(debt.Owner()) {
			return ErrForbidden
		}
		return s.debts.Delete(ctx, tx, debtID)
	})
}

type InvestmentDetails struct {
	Ticker    string
	Kind      string
	UnitPrice int64
}

func (s *RecordService) ListInvestments(ctx context.Context, id scope.Identity) ([]models.Investment, error) {
	if id.UserID == "" {
		return []models.Investment{}, nil
	}
	return nonNil(s.investments.List(ctx, id.Filter()))
}

// UpdateInvestment reprices or relabels a holding. Quantity changes go
// through buy and sell.
func (s *RecordService) UpdateInvestment(ctx context.Context, id scope.Identity, investmentID string, in InvestmentDetails) (models.Investment, error) {
	if id.UserID == "" {
		return models.Investment{}, ErrUnauthenticated
	}
	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if ticker == "" {
		return models.Investment{}, fmt.Errorf("%w: ticker is required", ErrInvalidInput)
	}
	if in.UnitPrice <= 0 {
		return models.Investment{}, ErrInvalidAmount
	}
	var investment models.Investment
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		investment, err = s.investments.GetForUpdate(ctx, tx, investmentID)
		if err != nil {
			return notFound(err)
		}
		if !id.CanWrite(investment.Owner()) {
			return ErrForbidden
		}
		investment.Ticker, investment.Kind, investment.UnitPrice = ticker, strings.TrimSpace(in.Kind), in.UnitPrice
		return s.investments.Update(ctx, tx, investment)
	})
	if err != nil {
		return models.Investment{}, err
	}
	return investment, nil
}

func (s *RecordService) DeleteInvestment(ctx context.Context, id scope.Identity, investmentID string) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		investment, err := s.investments.GetForUpdate(ctx, tx, investmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if !id.CanWrite(investment.Owner()) {
			return ErrForbidden
		}
		return s.investments.Delete(ctx, tx, investmentID)
	})
}

func (s *RecordService) ListNotifications(ctx context.Context, id scope.Identity, unreadOnly bool) ([]models.Notification, error) {
	if id.UserID == "" {
		return []models.Notification{}, nil
	}
	return nonNil(s.notifications.List(ctx, id.NotificationFilter(), unreadOnly))
}

func (s *RecordService) MarkNotificationRead(ctx context.Context, id scope.Identity, notificationID string) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		n, err := s.notifications.GetByID(ctx, tx, notificationID)
		if err != nil {
			return notFound(err)
		}
		if !id.CanReadNotification(n) {
			return ErrForbidden
		}
		return s.notifications.MarkRead(ctx, tx, notificationID)
	})
}

func (s *RecordService) MarkAllNotificationsRead(ctx context.Context, id scope.Identity) (int64, error) {
	if id.UserID == "" {
		return 0, ErrUnauthenticated
	}
	return s.notifications.MarkAllRead(ctx, id.NotificationFilter())
}

func (s *RecordService) DeleteNotification(ctx context.Context, id scope.Identity, notificationID string) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		n, err := s.notifications.GetByID(ctx, tx, notificationID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if !id.CanReadNotification(n) {
			return ErrForbidden
		}
		return s.notifications.Delete(ctx, tx, notificationID)
	})
}
