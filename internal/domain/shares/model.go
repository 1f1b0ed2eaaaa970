package shares

import "time"

type Scope string

// Por ahora el único scope es lectura de la granja (ficha, animales y actividad).
// Las mutaciones siguen siendo solo del dueño.
const ScopeFarmRead Scope = "farm:read"

type Status string

const (
	StatusInvited Status = "invited"
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

type Share struct {
	ID string

	FarmID string

	OwnerUserID   string // quien comparte
	GranteeUserID string // invitado

	Scopes []Scope
	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// HasScope valida si el share incluye un scope.
func (s Share) HasScope(scope Scope) bool {
	for _, sc := range s.Scopes {
		if sc == scope {
			return true
		}
	}
	return false
}
