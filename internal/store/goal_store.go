package store

import (
	"context"
	"time"

	"household/internal/models"
)

type GoalStore struct {
	db DB
}

func NewGoalStore(db DB) *GoalStore {
	return &GoalStore{db: db}
}

const goalColumns = `id, user_id, family_id, name, target_amount, current_amount, deadline, status, created_at`

func (s *GoalStore) Create(ctx context.Context, tx Execer, goal models.Goal) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, family_id, name, target_amount, current_amount, deadline, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, goal.ID, goal.UserID, goal.FamilyID, goal.Name, goal.TargetAmount, goal.CurrentAmount, goal.Deadline, goal.Status)
	return err
}

func (s *GoalStore) List(ctx context.Context, filter Filter) ([]models.Goal, error) {
	where, args := filter.clause(1)
	var rows []models.Goal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+goalColumns+`
		FROM goals
		WHERE `+where+`
		ORDER BY deadline, created_at
	`, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GoalStore) GetForUpdate(ctx context.Context, tx Getter, goalID string) (models.Goal, error) {
	var row models.Goal
	err := tx.GetContext(ctx, &row, `SELECT `+goalColumns+` FROM goals WHERE id = $1 FOR UPDATE`, goalID)
	if err != nil {
		return models.Goal{}, err
	}
	return row, nil
}

func (s *GoalStore) Update(ctx context.Context, tx Execer, goal models.Goal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE goals
		SET name = $1, target_amount = $2, deadline = $3, status = $4
		WHERE id = $5
	`, goal.Name, goal.TargetAmount, goal.Deadline, goal.Status, goal.ID)
	return err
}

func (s *GoalStore) UpdateProgress(ctx context.Context, tx Execer, goalID string, current int64, status string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE goals
		SET current_amount = $1, status = $2
		WHERE id = $3
	`, current, status, goalID)
	return err
}

func (s *GoalStore) Delete(ctx context.Context, tx Execer, goalID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, goalID)
	return err
}

// ListActiveDueBetween returns active goals whose deadline is in [from, to].
func (s *GoalStore) ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]models.Goal, error) {
	var rows []models.Goal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+goalColumns+`
		FROM goals
		WHERE status = 'active' AND deadline >= $1 AND deadline <= $2
		ORDER BY deadline
	`, from, to)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
