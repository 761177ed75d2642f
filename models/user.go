package models

import (
	"time"
)

// Roles recognized by the system. Role claims coming from the identity
// provider are reduced to a single role, highest privilege wins.
const (
	RoleAdministrador = "Administrador"
	RoleContable      = "Contable"
	RoleComercial     = "Comercial"
	RoleCliente       = "Cliente"
)

// RolesClaim is the namespaced JWT claim carrying the role array.
const RolesClaim = "https://concretera.app/roles"

var rolePriority = []string{RoleAdministrador, RoleContable, RoleComercial, RoleCliente}

// IsPrivileged reports whether a role may override prices, approve budgets
// and manage other users' records.
func IsPrivileged(role string) bool {
	switch role {
	case RoleAdministrador, RoleContable, RoleComercial:
		return true
	}
	return false
}

// ResolveRole reduces a role-claim array to the single highest-privilege
// role. Returns "" when no claim matches a known role.
func ResolveRole(claims []string) string {
	for _, want := range rolePriority {
		for _, got := range claims {
			if got == want {
				return want
			}
		}
	}
	return ""
}

// User mirrors an externally-authenticated identity. ID is the external
// subject (e.g. "auth0|abc123"), so it is a string, not a UUID.
type User struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `gorm:"type:varchar(20);not null;default:'Cliente'" json:"role"`

	IsActive  bool       `gorm:"default:true" json:"isActive"`
	LastSeen  *time.Time `json:"lastSeen"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
