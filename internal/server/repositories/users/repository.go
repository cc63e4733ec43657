// Package users is the credential store: persistence of user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

// Repository persists user accounts.
//
// Create must enforce username uniqueness atomically and report a conflict
// as common.ErrAlreadyExists. Lookups report a missing user as
// common.ErrorNotFound. Update writes the password hash and picture
// reference only.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}
