package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"household/internal/auth"
	"household/internal/db"
	"household/internal/models"
	"household/internal/scope"
	"household/internal/store"
	"household/internal/validator"
)

const deletionGracePeriod = 7 * 24 * time.Hour

var avatarExtensions = map[string]bool{"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true}

type FileStore interface {
	Save(r io.Reader, ext string) (string, error)
	Remove(handle string) error
}

type URLSigner interface {
	URL(handle string) (string, error)
}

type Sealer interface {
	Seal(plain string) (string, error)
}

type SessionForgetter interface {
	Forget(ctx context.Context, token string)
}

type UserDeps struct {
	TxRunner   db.TxRunner
	Users      UserStore
	Sessions   SessionStore
	Families   FamilyStore
	Files      FileStore
	URLs       URLSigner
	Sealer     Sealer
	Resolver   SessionForgetter
	Log        logrus.FieldLogger
	SessionTTL time.Duration
}

type UserService struct {
	txRunner   db.TxRunner
	users      UserStore
	sessions   SessionStore
	families   FamilyStore
	files      FileStore
	urls       URLSigner
	sealer     Sealer
	resolver   SessionForgetter
	log        logrus.FieldLogger
	sessionTTL time.Duration
	now        func() time.Time
}

func NewUserService(deps UserDeps) *UserService {
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &UserService{
		txRunner:   deps.TxRunner,
		users:      deps.Users,
		sessions:   deps.Sessions,
		families:   deps.Families,
		files:      deps.Files,
		urls:       deps.URLs,
		sealer:     deps.Sealer,
		resolver:   deps.Resolver,
		log:        deps.Log,
		sessionTTL: ttl,
		now:        time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

type Profile struct {
	models.User
	AvatarURL string `json:"avatar_url,omitempty"`
	HasSMTP   bool   `json:"has_smtp"`
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validator.ValidateName(in.Name); err != nil {
		return AuthResult{}, invalid(err)
	}
	if err := validator.ValidateEmail(in.Email); err != nil {
		return AuthResult{}, invalid(err)
	}
	if err := validator.ValidatePassword(in.Password); err != nil {
		return AuthResult{}, invalid(err)
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return AuthResult{}, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return AuthResult{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, err
	}
	user := models.User{
		ID:                 uuid.NewString(),
		Name:               in.Name,
		Email:              in.Email,
		PasswordHash:       hash,
		Role:               string(models.RoleMember),
		Plan:               string(models.PlanFree),
		SubscriptionStatus: "none",
		CreatedAt:          s.now(),
		UpdatedAt:          s.now(),
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.users.Create(ctx, tx, user)
	})
	if db.IsUniqueViolation(err) {
		return AuthResult{}, ErrEmailTaken
	}
	if err != nil {
		return AuthResult{}, err
	}
	s.log.WithField("user_id", user.ID).Info("user registered")
	return s.startSession(ctx, user)
}

func (s *UserService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

func (s *UserService) startSession(ctx context.Context, user models.User) (AuthResult, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return AuthResult{}, err
	}
	session := models.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.sessionTTL),
		CreatedAt: s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}
	return AuthResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return err
	}
	if s.resolver != nil {
		s.resolver.Forget(ctx, token)
	}
	return nil
}

func (s *UserService) Me(ctx context.Context, id scope.Identity) (Profile, error) {
	if id.UserID == "" {
		return Profile{}, ErrUnauthenticated
	}
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		return Profile{}, notFound(err)
	}
	profile := Profile{User: user, HasSMTP: user.HasSMTP()}
	if user.AvatarHandle != nil && s.urls != nil {
		url, err := s.urls.URL(*user.AvatarHandle)
		if err != nil {
			return Profile{}, err
		}
		profile.AvatarURL = url
	}
	return profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id scope.Identity, name, email string) (Profile, error) {
	if id.UserID == "" {
		return Profile{}, ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validator.ValidateName(name); err != nil {
		return Profile{}, invalid(err)
	}
	if err := validator.ValidateEmail(email); err != nil {
		return Profile{}, invalid(err)
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil && existing.ID != id.UserID {
		return Profile{}, ErrEmailTaken
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Profile{}, err
	}
	err = s.users.UpdateProfile(ctx, id.UserID, name, email)
	if db.IsUniqueViolation(err) {
		return Profile{}, ErrEmailTaken
	}
	if err != nil {
		return Profile{}, err
	}
	return s.Me(ctx, id)
}

// SetAvatar stores the upload and returns a signed URL for it. The previous
// file is removed once the new handle is saved.
func (s *UserService) SetAvatar(ctx context.Context, id scope.Identity, r io.Reader, ext string) (string, error) {
	if id.UserID == "" {
		return "", ErrUnauthenticated
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if !avatarExtensions[ext] {
		return "", fmt.Errorf("%w: avatar must be png, jpg, gif or webp", ErrInvalidInput)
	}
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		return "", notFound(err)
	}
	handle, err := s.files.Save(r, ext)
	if err != nil {
		return "", err
	}
	if err := s.users.SetAvatar(ctx, id.UserID, handle); err != nil {
		_ = s.files.Remove(handle)
		return "", err
	}
	if user.AvatarHandle != nil {
		if err := s.files.Remove(*user.AvatarHandle); err != nil {
			s.log.WithError(err).WithField("handle", *user.AvatarHandle).Warn("remove old avatar")
		}
	}
	return s.urls.URL(handle)
}

type SMTPInput struct {
	Host      string
	Port      int
	User      string
	Password  string
	FromEmail string
	Secure    bool
}

// UpdateSMTP seals the password before storing it. An empty password keeps
// the stored one.
func (s *UserService) UpdateSMTP(ctx context.Context, id scope.Identity, in SMTPInput) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	in.Host = strings.TrimSpace(in.Host)
	in.User = strings.TrimSpace(in.User)
	in.FromEmail = strings.TrimSpace(in.FromEmail)
	if err := validator.ValidateHost(in.Host); err != nil {
		return invalid(err)
	}
	if in.Port < 1 || in.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalidInput)
	}
	if in.User == "" {
		return fmt.Errorf("%w: smtp user is required", ErrInvalidInput)
	}
	if in.FromEmail != "" {
		if err := validator.ValidateEmail(in.FromEmail); err != nil {
			return invalid(err)
		}
	}
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		return notFound(err)
	}
	sealed := user.SMTPPassword
	if in.Password != "" {
		sealed, err = s.sealer.Seal(in.Password)
		if err != nil {
			return fmt.Errorf("seal smtp password: %w", err)
		}
	}
	return s.users.SetSMTP(ctx, id.UserID, store.SMTPSettings{
		Host:           in.Host,
		Port:           in.Port,
		User:           in.User,
		SealedPassword: sealed,
		FromEmail:      in.FromEmail,
		Secure:         in.Secure,
	})
}

func (s *UserService) ScheduleDeletion(ctx context.Context, id scope.Identity) (time.Time, error) {
	if id.UserID == "" {
		return time.Time{}, ErrUnauthenticated
	}
	at := s.now().Add(deletionGracePeriod)
	if err := s.users.ScheduleDeletion(ctx, id.UserID, &at); err != nil {
		return time.Time{}, err
	}
	return at, nil
}

func (s *UserService) CancelDeletion(ctx context.Context, id scope.Identity) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	return s.users.ScheduleDeletion(ctx, id.UserID, nil)
}

// PurgeScheduledDeletions deletes every user whose grace period is over.
// Failures are logged and skipped.
func (s *UserService) PurgeScheduledDeletions(ctx context.Context) (int, error) {
	due, err := s.users.ListDueForDeletion(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list scheduled deletions: %w", err)
	}
	purged := 0
	for _, user := range due {
		ok, err := s.purge(ctx, user.ID)
		if err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).Warn("scheduled deletion failed")
			continue
		}
		if ok {
			purged++
		}
	}
	return purged, nil
}

// purge hands the admin role to the earliest remaining member, or removes
// the family when the user was its last member.
func (s *UserService) purge(ctx context.Context, userID string) (bool, error) {
	var avatar *string
	var deleted bool
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		deleted = false
		user, err := s.users.GetForUpdate(ctx, tx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if user.DeletionScheduledAt == nil || user.DeletionScheduledAt.After(s.now()) {
			return nil
		}
		avatar = user.AvatarHandle
		var dissolve *string
		if user.FamilyID != nil {
			members, err := s.users.ListByFamily(ctx, tx, *user.FamilyID)
			if err != nil {
				return err
			}
			var heir *models.User
			for i := range members {
				if members[i].ID != user.ID {
					heir = &members[i]
					break
				}
			}
			switch {
			case heir == nil:
				dissolve = user.FamilyID
			case models.NormalizeRole(user.Role) == models.RoleAdmin:
				if err := s.users.SetRole(ctx, tx, heir.ID, models.RoleAdmin); err != nil {
					return err
				}
			}
		}
		if err := s.users.Delete(ctx, tx, user.ID); err != nil {
			return err
		}
		if dissolve != nil {
			if err := s.families.Delete(ctx, tx, *dissolve); err != nil {
				return err
			}
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if deleted && avatar != nil && s.files != nil {
		if err := s.files.Remove(*avatar); err != nil {
			s.log.WithError(err).WithField("handle", *avatar).Warn("remove avatar of deleted user")
		}
	}
	return deleted, nil
}

// PurgeExpiredSessions drops sessions past their expiry.
func (s *UserService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}
