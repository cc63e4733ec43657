package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is a process-local Repository. The uniqueness check and
// the insert happen under one lock, so concurrent registrations of the same
// username cannot both succeed.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byLogin map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byLogin: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byLogin[user.UserName]; ok {
		return nil, common.ErrAlreadyExists
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()

	stored := *user
	r.byID[stored.ID] = &stored
	r.byLogin[stored.UserName] = stored.ID

	return user, nil
}

func (r *MemoryRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byLogin[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *stored
	return &u, nil
}

func (r *MemoryRepository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	stored.PasswordHash = user.PasswordHash
	stored.PictureRef = user.PictureRef
	return nil
}
