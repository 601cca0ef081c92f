package service

import "github.com/Baaaki/heritage-museum/internal/models"

// Each check lists every role explicitly; unknown values are denied.

func canCreateEvents(r models.Role) bool {
	switch r {
	case models.RoleAdmin:
		return true
	case models.RoleUser, models.RoleSuperAdmin:
		return false
	default:
		return false
	}
}

func canReviewEvents(r models.Role) bool {
	switch r {
	case models.RoleSuperAdmin:
		return true
	case models.RoleUser, models.RoleAdmin:
		return false
	default:
		return false
	}
}

func canViewDashboard(r models.Role) bool {
	switch r {
	case models.RoleAdmin, models.RoleSuperAdmin:
		return true
	case models.RoleUser:
		return false
	default:
		return false
	}
}

func canManageUsers(r models.Role) bool {
	switch r {
	case models.RoleSuperAdmin:
		return true
	case models.RoleUser, models.RoleAdmin:
		return false
	default:
		return false
	}
}

// authorize returns ErrUnauthenticated for a nil actor and ErrForbidden when check denies.
func authorize(actor *models.User, check func(models.Role) bool) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !check(actor.Role) {
		return ErrForbidden
	}
	return nil
}
