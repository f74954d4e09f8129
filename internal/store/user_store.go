package store

import (
	"context"
	"time"

	"household/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, name, email, password_hash, role, family_id, plan, subscription_status,
	subscription_started_at, subscription_ends_at, avatar_handle, deletion_scheduled_at,
	smtp_host, smtp_port, smtp_user, smtp_password, smtp_from_email, smtp_secure,
	created_at, updated_at`

type SMTPSettings struct {
	Host           string
	Port           int
	User           string
	SealedPassword string
	FromEmail      string
	Secure         bool
}

func (s *UserStore) Create(ctx context.Context, tx Execer, user models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, plan, subscription_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.Plan, user.SubscriptionStatus)
	return err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	return s.GetByIDTx(ctx, s.db, userID)
}

func (s *UserStore) GetByIDTx(ctx context.Context, q Getter, userID string) (models.User, error) {
	var row models.User
	err := q.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

// GetForUpdate locks the user row for membership changes.
func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (models.User, error) {
	var row models.User
	err := tx.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = LOWER($1)`, email)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, userID, name, email string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $1, email = LOWER($2), updated_at = NOW()
		WHERE id = $3
	`, name, email, userID)
	return err
}

func (s *UserStore) SetFamily(ctx context.Context, tx Execer, userID string, familyID *string, role models.Role) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET family_id = $1, role = $2, updated_at = NOW()
		WHERE id = $3
	`, familyID, string(role), userID)
	return err
}

func (s *UserStore) SetRole(ctx context.Context, tx Execer, userID string, role models.Role) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, string(role), userID)
	return err
}

func (s *UserStore) ListByFamily(ctx context.Context, q Selecter, familyID string) ([]models.User, error) {
	var rows []models.User
	err := q.SelectContext(ctx, &rows, `
		SELECT `+userColumns+`
		FROM users
		WHERE family_id = $1
		ORDER BY created_at, id
	`, familyID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetFamilyAdmin is queried on every use so an admin transfer is seen at once.
func (s *UserStore) GetFamilyAdmin(ctx context.Context, q Getter, familyID string) (models.User, error) {
	var row models.User
	err := q.GetContext(ctx, &row, `
		SELECT `+userColumns+`
		FROM users
		WHERE family_id = $1 AND role = 'admin'
		ORDER BY created_at
		LIMIT 1
	`, familyID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) CountByFamily(ctx context.Context, q Getter, familyID string) (int, error) {
	var count int
	err := q.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE family_id = $1`, familyID)
	return count, err
}

func (s *UserStore) SetAvatar(ctx context.Context, userID, handle string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET avatar_handle = $1, updated_at = NOW() WHERE id = $2`, handle, userID)
	return err
}

func (s *UserStore) SetSMTP(ctx context.Context, userID string, settings SMTPSettings) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET smtp_host = $1, smtp_port = $2, smtp_user = $3, smtp_password = $4,
		    smtp_from_email = $5, smtp_secure = $6, updated_at = NOW()
		WHERE id = $7
	`, settings.Host, settings.Port, settings.User, settings.SealedPassword, settings.FromEmail, settings.Secure, userID)
	return err
}

func (s *UserStore) ScheduleDeletion(ctx context.Context, userID string, at *time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET deletion_scheduled_at = $1, updated_at = NOW() WHERE id = $2`, at, userID)
	return err
}

func (s *UserStore) ListDueForDeletion(ctx context.Context, now time.Time) ([]models.User, error) {
	var rows []models.User
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+userColumns+`
		FROM users
		WHERE deletion_scheduled_at IS NOT NULL AND deletion_scheduled_at <= $1
		ORDER BY deletion_scheduled_at
	`, now)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *UserStore) Delete(ctx context.Context, tx Execer, userID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	return err
}
