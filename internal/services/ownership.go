package services

import (
	apperrors "github.com/axellelanca/shortly/internal/errors"
	"github.com/axellelanca/shortly/internal/models"
)

// CheckLinkOwnership is the authorization predicate for link mutations.
// Anonymous links have no owner and are therefore immutable by anyone; owned
// links may only be mutated by the exact owning user. Pure predicate, no side
// effects.
func CheckLinkOwnership(link *models.Link, userID *uint) error {
	if link.UserID == nil {
		return apperrors.ErrForbidden
	}
	if userID == nil || *link.UserID != *userID {
		return apperrors.ErrForbidden
	}
	return nil
}
