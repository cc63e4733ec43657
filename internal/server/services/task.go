package services

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
)

var htmlTag = regexp.MustCompile(`<.*?>`)

// StripTags removes anything that looks like an HTML tag.
func StripTags(s string) string {
	return htmlTag.ReplaceAllString(s, "")
}

// TaskService manages to-do items.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager) *TaskService {
	return &TaskService{db: db, repomanager: m}
}

func (s *TaskService) List(ctx context.Context) ([]*models.Task, error) {
	return s.repomanager.Tasks(s.db).List(ctx)
}

func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	return s.repomanager.Tasks(s.db).GetByID(ctx, id)
}

// Create stores a new, not yet completed task. Tags are stripped from title
// and description; an empty title is rejected.
func (s *TaskService) Create(ctx context.Context, title, description string) (*models.Task, error) {
	title = strings.TrimSpace(StripTags(title))
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}

	task := &models.Task{Title: title, Description: StripTags(description)}
	created, err := s.repomanager.Tasks(s.db).Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return created, nil
}

// Toggle flips the completion flag and returns the updated task.
func (s *TaskService) Toggle(ctx context.Context, id string) (*models.Task, error) {
	return s.repomanager.Tasks(s.db).Toggle(ctx, id)
}

// Delete removes a task that is not completed. Completed tasks yield
// common.ErrTaskCompleted. The check and the delete share a transaction
// holding a row lock.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		task, err := repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if task.IsCompleted {
			return common.ErrTaskCompleted
		}
		return repo.Delete(ctx, id)
	})
}
