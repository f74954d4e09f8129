package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"household/internal/db"
	"household/internal/models"
	"household/internal/scope"
	"household/internal/store"
)

const (
	familyCodeLength   = 8
	familyCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	familyCodeAttempts = 5
)

// FamilyService moves users in and out of families. Every membership change
// re-tags the user's own rows in the same transaction as the user update.
type FamilyService struct {
	txRunner db.TxRunner
	db       store.DB
	families FamilyStore
	users    UserStore
	audit    AuditStore
	log      logrus.FieldLogger
	newCode  func() (string, error)
}

func NewFamilyService(txRunner db.TxRunner, database store.DB, families FamilyStore, users UserStore, audit AuditStore, log logrus.FieldLogger) *FamilyService {
	return &FamilyService{
		txRunner: txRunner,
		db:       database,
		families: families,
		users:    users,
		audit:    audit,
		log:      log,
		newCode:  generateFamilyCode,
	}
}

type FamilyMember struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

type FamilyView struct {
	Family  models.Family  `json:"family"`
	Members []FamilyMember `json:"members"`
}

func (s *FamilyService) Create(ctx context.Context, id scope.Identity, name string) (models.Family, error) {
	if id.UserID == "" {
		return models.Family{}, ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Family{}, fmt.Errorf("%w: family name is required", ErrInvalidInput)
	}
	var family models.Family
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, id.UserID)
		if err != nil {
			return notFound(err)
		}
		if user.FamilyID != nil {
			return ErrAlreadyInFamily
		}
		code, err := s.uniqueCode(ctx, tx)
		if err != nil {
			return err
		}
		family = models.Family{ID: uuid.NewString(), Name: name, Code: code, CreatedAt: time.Now()}
		if err := s.families.Create(ctx, tx, family); err != nil {
			return err
		}
		if err := s.attach(ctx, tx, user.ID, family.ID, models.RoleAdmin); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, user.ID, &family.ID, "family_create", "family", family.ID, map[string]string{"name": name})
	})
	if err != nil {
		return models.Family{}, err
	}
	s.log.WithFields(logrus.Fields{"family_id": family.ID, "user_id": id.UserID}).Info("family created")
	return family, nil
}

// Join enforces the member cap of the admin's plan.
func (s *FamilyService) Join(ctx context.Context, id scope.Identity, code string) (models.Family, error) {
	if id.UserID == "" {
		return models.Family{}, ErrUnauthenticated
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return models.Family{}, ErrFamilyNotFound
	}
	var family models.Family
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, id.UserID)
		if err != nil {
			return notFound(err)
		}
		if user.FamilyID != nil {
			return ErrAlreadyInFamily
		}
		family, err = s.families.GetByCode(ctx, tx, code)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFamilyNotFound
		}
		if err != nil {
			return err
		}
		plan := models.PlanFree
		admin, err := s.users.GetFamilyAdmin(ctx, tx, family.ID)
		switch {
		case err == nil:
			plan = models.Plan(admin.Plan)
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
		if limit := models.LimitsFor(plan).MaxFamilyMembers; limit > 0 {
			count, err := s.users.CountByFamily(ctx, tx, family.ID)
			if err != nil {
				return err
			}
			if count >= limit {
				return ErrFamilyFull
			}
		}
		if err := s.attach(ctx, tx, user.ID, family.ID, models.RoleMember); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, user.ID, &family.ID, "family_join", "family", family.ID, nil)
	})
	if err != nil {
		return models.Family{}, err
	}
	s.log.WithFields(logrus.Fields{"family_id": family.ID, "user_id": id.UserID}).Info("family joined")
	return family, nil
}

func (s *FamilyService) attach(ctx context.Context, tx *sqlx.Tx, userID, familyID string, role models.Role) error {
	if err := s.users.SetFamily(ctx, tx, userID, &familyID, role); err != nil {
		return err
	}
	return s.families.RetagOwned(ctx, tx, userID, &familyID)
}

// Leave takes the caller's own rows out of the family pool. The admin can
// only leave as the last member, which dissolves the family.
func (s *FamilyService) Leave(ctx context.Context, id scope.Identity) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, id.UserID)
		if err != nil {
			return notFound(err)
		}
		if user.FamilyID == nil {
			return ErrNotInFamily
		}
		familyID := *user.FamilyID
		isAdmin := models.NormalizeRole(user.Role) == models.RoleAdmin
		if isAdmin {
			count, err := s.users.CountByFamily(ctx, tx, familyID)
			if err != nil {
				return err
			}
			if count > 1 {
				return ErrAdminMustTransfer
			}
		}
		if err := s.audit.Log(ctx, tx, user.ID, &familyID, "family_leave", "family", familyID, nil); err != nil {
			return err
		}
		if err := s.users.SetFamily(ctx, tx, user.ID, nil, models.RoleMember); err != nil {
			return err
		}
		if err := s.families.RetagOwned(ctx, tx, user.ID, nil); err != nil {
			return err
		}
		if isAdmin {
			return s.families.Delete(ctx, tx, familyID)
		}
		return nil
	})
}

// TransferAdmin hands the admin role to another member; the previous admin
// becomes a partner.
func (s *FamilyService) TransferAdmin(ctx context.Context, id scope.Identity, targetUserID string) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	if targetUserID == id.UserID {
		return fmt.Errorf("%w: you are already the admin", ErrInvalidInput)
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		caller, target, err := s.adminAndMember(ctx, tx, id.UserID, targetUserID)
		if err != nil {
			return err
		}
		if err := s.users.SetRole(ctx, tx, target.ID, models.RoleAdmin); err != nil {
			return err
		}
		if err := s.users.SetRole(ctx, tx, caller.ID, models.RolePartner); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, caller.ID, caller.FamilyID, "family_admin_transfer", "user", target.ID, nil)
	})
}

func (s *FamilyService) SetRole(ctx context.Context, id scope.Identity, targetUserID string, role models.Role) error {
	if id.UserID == "" {
		return ErrUnauthenticated
	}
	if role != models.RolePartner && role != models.RoleMember {
		return ErrInvalidRole
	}
	if targetUserID == id.UserID {
		return fmt.Errorf("%w: transfer the admin role to change your own role", ErrInvalidInput)
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		caller, target, err := s.adminAndMember(ctx, tx, id.UserID, targetUserID)
		if err != nil {
			return err
		}
		if err := s.users.SetRole(ctx, tx, target.ID, role); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, caller.ID, caller.FamilyID, "family_role_change", "user", target.ID, map[string]string{"role": string(role)})
	})
}

// adminAndMember locks both users in id order and checks that the first is
// the admin of the family the second belongs to.
func (s *FamilyService) adminAndMember(ctx context.Context, tx *sqlx.Tx, adminID, memberID string) (models.User, models.User, error) {
	firstID, secondID := orderedIDs(adminID, memberID)
	first, err := s.users.GetForUpdate(ctx, tx, firstID)
	if err != nil {
		return models.User{}, models.User{}, notFound(err)
	}
	second, err := s.users.GetForUpdate(ctx, tx, secondID)
	if err != nil {
		return models.User{}, models.User{}, notFound(err)
	}
	caller, target := first, second
	if firstID != adminID {
		caller, target = second, first
	}
	if caller.FamilyID == nil {
		return models.User{}, models.User{}, ErrNotInFamily
	}
	if models.NormalizeRole(caller.Role) != models.RoleAdmin {
		return models.User{}, models.User{}, ErrNotFamilyAdmin
	}
	if target.FamilyID == nil || *target.FamilyID != *caller.FamilyID {
		return models.User{}, models.User{}, ErrNotFound
	}
	return caller, target, nil
}

func (s *FamilyService) Get(ctx context.Context, id scope.Identity) (FamilyView, error) {
	if id.UserID == "" {
		return FamilyView{}, ErrUnauthenticated
	}
	if id.FamilyID == nil {
		return FamilyView{}, ErrNotInFamily
	}
	family, err := s.families.GetByID(ctx, s.db, *id.FamilyID)
	if err != nil {
		return FamilyView{}, notFound(err)
	}
	members, err := s.Members(ctx, id)
	if err != nil {
		return FamilyView{}, err
	}
	return FamilyView{Family: family, Members: members}, nil
}

func (s *FamilyService) Members(ctx context.Context, id scope.Identity) ([]FamilyMember, error) {
	out := []FamilyMember{}
	if id.UserID == "" || id.FamilyID == nil {
		return out, nil
	}
	users, err := s.users.ListByFamily(ctx, s.db, *id.FamilyID)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		out = append(out, FamilyMember{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      models.NormalizeRole(user.Role),
			CreatedAt: user.CreatedAt,
		})
	}
	return out, nil
}

func (s *FamilyService) uniqueCode(ctx context.Context, tx *sqlx.Tx) (string, error) {
	for attempt := 0; attempt < familyCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		exists, err := s.families.CodeExists(ctx, tx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

func generateFamilyCode() (string, error) {
	var b strings.Builder
	size := big.NewInt(int64(len(familyCodeAlphabet)))
	for i := 0; i < familyCodeLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generate family code: %w", err)
		}
		b.WriteByte(familyCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
