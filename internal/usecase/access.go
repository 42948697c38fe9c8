package usecase

import (
	"press-subscription/internal/domain"
	"press-subscription/internal/domain/model"
)

// requireActive rejects anonymous and deactivated actors.
func requireActive(actor *model.User) error {
	if actor.IsZero() || !actor.IsActive {
		return domain.ErrForbidden
	}
	return nil
}

// requireAdmin rejects anyone who is not an active administrator.
func requireAdmin(actor *model.User) error {
	if err := requireActive(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}
