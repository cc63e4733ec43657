// Package tasks provides persistence for to-do items.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

// Repository persists tasks. Missing rows are reported as common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	List(ctx context.Context) ([]*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	// LockByID is GetByID that also row-locks the task until the enclosing
	// transaction ends.
	LockByID(ctx context.Context, id string) (*models.Task, error)
	Toggle(ctx context.Context, id string) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}
