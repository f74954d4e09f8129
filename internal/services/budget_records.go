package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"household/internal/models"
	"household/internal/scope"
)

type BudgetInput struct {
	Category     string
	MonthlyLimit int64
}

func (in *BudgetInput) normalize() error {
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if in.MonthlyLimit <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// budgetPermission distinguishes the member rule from a plain ownership
// failure so callers get the specific message.
func budgetPermission(id scope.Identity, owner models.Owner) error {
	if !id.CanWrite(owner) {
		return ErrForbidden
	}
	if !id.CanWriteBudget(owner) {
		return ErrFamilyBudgetLocked
	}
	return nil
}

func (s *RecordService) ListBudgets(ctx context.Context, id scope.Identity) ([]models.BudgetLimit, error) {
	if id.UserID == "" {
		return []models.BudgetLimit{}, nil
	}
	return nonNil(s.budgets.List(ctx, id.Filter()))
}

func (s *RecordService) CreateBudget(ctx context.Context, id scope.Identity, in BudgetInput) (models.BudgetLimit, error) {
	if id.UserID == "" {
		return models.BudgetLimit{}, ErrUnauthenticated
	}
	if err := in.normalize(); err != nil {
		return models.BudgetLimit{}, err
	}
	owner := id.Stamp()
	if err := budgetPermission(id, owner); err != nil {
		return models.BudgetLimit{}, err
	}
	budget := models.BudgetLimit{
		ID:           uuid.NewString(),
		UserID:       owner.UserID,
		FamilyID:     owner.FamilyID,
		Category:     in.Category,
		MonthlyLimit: in.MonthlyLimit,
		CreatedAt:    s.now(),
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.budgets.Create(ctx, tx, budget)
	})
	if err != nil {
		return models.BudgetLimit{}, err
	}
	return budget, nil
}

func (s *RecordService) UpdateBudget(ctx context.Context, id scope.Identity, budgetID string, in BudgetInput) (models.BudgetLimit, error) {
	if id.UserID == "" {
		return models.BudgetLimit{}, ErrUnauthenticated
	}
	if err := in.normalize(); err != nil {
		return models.BudgetLimit{}, err
	}
	var budget models.BudgetLimit
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		budget, err = s.budgets.GetByID(ctx, tx, budgetID)
		if err != nil {
			return notFound(err)
		}
		if err := budgetPermission(id, budget.Owner()); err != nil {
			return err
		}
		budget.Category, budget.MonthlyLimit = in.Category, in.MonthlyLimit
		return s.budgets.Update(ctx, tx, budget)
	})
	if err != nil {
		return models.BudgetLimit{}, err
	}
	return budget, nil
}

func (s *RecordService) DeleteBudget(ctx context.Context, id scope.Identity, budgetID string) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		budget, err := s.budgets.GetByID(ctx, tx, budgetID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := budgetPermission(id, budget.Owner()); err != nil {
			return err
		}
		return s.budgets.Delete(ctx, tx, budgetID)
	})
}

type BudgetStatus struct {
	Budget    models.BudgetLimit `json:"budget"`
	Spent     int64              `json:"spent"`
	Remaining int64              `json:"remaining"`
	Exceeded  bool               `json:"exceeded"`
}

// BudgetStatuses reports this month's spending against every visible limit.
func (s *RecordService) BudgetStatuses(ctx context.Context, id scope.Identity) ([]BudgetStatus, error) {
	out := []BudgetStatus{}
	if id.UserID == "" {
		return out, nil
	}
	budgets, err := s.budgets.List(ctx, id.Filter())
	if err != nil {
		return nil, err
	}
	from, to := monthBounds(s.now())
	for _, budget := range budgets {
		spent, err := s.transactions.SumExpenses(ctx, id.Filter(), budget.Category, from, to)
		if err != nil {
			return nil, fmt.Errorf("sum %s: %w", budget.Category, err)
		}
		out = append(out, BudgetStatus{
			Budget:    budget,
			Spent:     spent,
			Remaining: budget.MonthlyLimit - spent,
			Exceeded:  spent > budget.MonthlyLimit,
		})
	}
	return out, nil
}
