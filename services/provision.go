package services

import (
	"errors"
	"log"
	"strings"

	"concretera-backend/models"

	"gorm.io/gorm"
)

// Identity is what the bearer token tells us about the caller.
type Identity struct {
	Sub   string
	Email string
	Name  string
	Roles []string
}

// SyncUser mirrors an external identity into the users table. Absent users
// are created (with an email-conflict migration path for re-issued subject
// ids); present users get their name, email and role reconciled.
func SyncUser(db *gorm.DB, id Identity) (*models.User, error) {
	var user models.User
	err := db.First(&user, "id = ?", id.Sub).Error
	switch {
	case err == nil:
		return reconcileUser(db, &user, id)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return createMirroredUser(db, id)
	default:
		return nil, err
	}
}

func createMirroredUser(db *gorm.DB, id Identity) (*models.User, error) {
	// The identity provider sometimes re-issues a new subject for an
	// existing email (connection migrations). Re-point everything owned by
	// the old id before creating the new row.
	if id.Email != "" {
		var old models.User
		if err := db.First(&old, "email = ? AND id <> ?", id.Email, id.Sub).Error; err == nil {
			return migrateUserID(db, &old, id)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	user := models.User{
		ID:       id.Sub,
		Email:    id.Email,
		Name:     pickName(id.Name, "", id.Email),
		Role:     effectiveRole(id, ""),
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func migrateUserID(db *gorm.DB, old *models.User, id Identity) (*models.User, error) {
	user := models.User{
		ID:       id.Sub,
		Email:    id.Email,
		Name:     pickName(id.Name, old.Name, id.Email),
		Phone:    old.Phone,
		Role:     effectiveRole(id, old.Role),
		IsActive: old.IsActive,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// The old row goes first: users.email is unique, and the new row
		// carries the same address.
		if err := tx.Delete(&models.User{}, "id = ?", old.ID).Error; err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		repoint := []struct {
			model  interface{}
			column string
		}{
			{&models.Budget{}, "creator_id"},
			{&models.Budget{}, "processed_by_id"},
			{&models.Client{}, "owner_id"},
			{&models.Project{}, "owner_id"},
			{&models.Payment{}, "validated_by_id"},
			{&models.Notification{}, "user_id"},
			{&models.AuditLog{}, "user_id"},
		}
		for _, r := range repoint {
			if err := tx.Model(r.model).Where(r.column+" = ?", old.ID).
				Update(r.column, user.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Migrated user %s -> %s (%s)", old.ID, user.ID, user.Email)
	return &user, nil
}

func reconcileUser(db *gorm.DB, user *models.User, id Identity) (*models.User, error) {
	changed := false

	if name := pickName(id.Name, user.Name, id.Email); name != user.Name {
		user.Name = name
		changed = true
	}
	if id.Email != "" && id.Email != user.Email {
		user.Email = id.Email
		changed = true
	}

	if role := effectiveRole(id, user.Role); role != user.Role {
		oldRole := user.Role
		user.Role = role
		changed = true
		Events.Publish(Event{Type: "user.updated", Data: map[string]string{
			"userId": user.ID, "role": role,
		}})
		log.Printf("Role change for %s: %s -> %s", user.ID, oldRole, role)
	}

	if changed {
		if err := db.Save(user).Error; err != nil {
			return nil, err
		}
	}
	return user, nil
}

// effectiveRole resolves the role by trust order: token claim, then the
// management API, then whatever is stored, then Cliente.
func effectiveRole(id Identity, stored string) string {
	if role := models.ResolveRole(id.Roles); role != "" {
		return role
	}
	if role := models.ResolveRole(LookupExternalRoles(id.Sub)); role != "" {
		return role
	}
	if stored != "" {
		return stored
	}
	return models.RoleCliente
}

// pickName prefers a non-generic incoming name, keeps a non-generic stored
// one, and only trades a stored name for a longer incoming one.
func pickName(incoming, stored, email string) string {
	if isGenericName(incoming, email) {
		if stored != "" {
			return stored
		}
		return incoming
	}
	if isGenericName(stored, email) || len(incoming) > len(stored) {
		return incoming
	}
	return stored
}

func isGenericName(name, email string) bool {
	if name == "" {
		return true
	}
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "user" || lower == "usuario" {
		return true
	}
	if at := strings.Index(email, "@"); at > 0 && lower == strings.ToLower(email[:at]) {
		return true
	}
	return false
}
