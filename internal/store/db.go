package store

import (
	"context"
	"database/sql"
	"fmt"
)

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type DB interface {
	Execer
	Getter
	Selecter
}

// Filter selects the rows visible to a caller: their own rows, plus every
// row tagged with FamilyID when it is set.
type Filter struct {
	UserID   string
	FamilyID *string
}

func (f Filter) clause(next int) (string, []any) {
	if f.FamilyID == nil {
		return fmt.Sprintf("user_id = $%d", next), []any{f.UserID}
	}
	return fmt.Sprintf("(user_id = $%d OR family_id = $%d)", next, next+1), []any{f.UserID, *f.FamilyID}
}

// NotificationFilter differs from Filter in that family-addressed
// notifications (no user) are visible to every member of the family.
type NotificationFilter struct {
	UserID   string
	FamilyID *string
	Pooled   bool
}

func (f NotificationFilter) clause(next int) (string, []any) {
	switch {
	case f.FamilyID == nil:
		return fmt.Sprintf("user_id = $%d", next), []any{f.UserID}
	case f.Pooled:
		return fmt.Sprintf("(user_id = $%d OR family_id = $%d)", next, next+1), []any{f.UserID, *f.FamilyID}
	default:
		return fmt.Sprintf("(user_id = $%d OR (user_id IS NULL AND family_id = $%d))", next, next+1), []any{f.UserID, *f.FamilyID}
	}
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
