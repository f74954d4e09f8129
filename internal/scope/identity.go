package scope

import (
	"household/internal/models"
	"household/internal/store"
)

type Kind string

const (
	KindPersonal Kind = "personal"
	KindFamily   Kind = "family"
)

// Identity is the resolved caller. All permission decisions are computed
// from it and the target record's owner, never from client-supplied owners.
type Identity struct {
	UserID   string
	Name     string
	Email    string
	Role     models.Role
	FamilyID *string
	Plan     models.Plan
}

func FromUser(user models.User) Identity {
	plan := models.Plan(user.Plan)
	if plan == "" {
		plan = models.PlanFree
	}
	return Identity{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     models.NormalizeRole(user.Role),
		FamilyID: user.FamilyID,
		Plan:     plan,
	}
}

// Kind is family only for admins and partners that belong to a family.
func (i Identity) Kind() Kind {
	if i.FamilyID != nil && (i.Role == models.RoleAdmin || i.Role == models.RolePartner) {
		return KindFamily
	}
	return KindPersonal
}

func (i Identity) InFamily() bool {
	return i.FamilyID != nil
}

func (i Identity) CanRead(owner models.Owner) bool {
	if owner.UserID == i.UserID {
		return true
	}
	return i.Kind() == KindFamily && owner.FamilyID != nil && *owner.FamilyID == *i.FamilyID
}

func (i Identity) CanWrite(owner models.Owner) bool {
	return i.CanRead(owner)
}

// CanWriteBudget forbids members from touching family-tagged budget limits,
// including limits they created themselves.
func (i Identity) CanWriteBudget(owner models.Owner) bool {
	if i.Role == models.RoleMember && owner.FamilyID != nil {
		return false
	}
	return i.CanWrite(owner)
}

func (i Identity) CanReadNotification(n models.Notification) bool {
	if n.UserID != nil && *n.UserID == i.UserID {
		return true
	}
	if n.FamilyID == nil || i.FamilyID == nil || *n.FamilyID != *i.FamilyID {
		return false
	}
	return n.UserID == nil || i.Kind() == KindFamily
}

// Stamp is the owner of records the caller creates. Records of family
// members join the family pool.
func (i Identity) Stamp() models.Owner {
	return models.Owner{UserID: i.UserID, FamilyID: i.FamilyID}
}

func (i Identity) Filter() store.Filter {
	if i.Kind() == KindFamily {
		return store.Filter{UserID: i.UserID, FamilyID: i.FamilyID}
	}
	return store.Filter{UserID: i.UserID}
}

func (i Identity) NotificationFilter() store.NotificationFilter {
	return store.NotificationFilter{
		UserID:   i.UserID,
		FamilyID: i.FamilyID,
		Pooled:   i.Kind() == KindFamily,
	}
}
