package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/google/uuid"
)

const taskColumns = `id, title, description, is_completed, created_at, updated_at`

// PostgresRepository implements task storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `INSERT INTO tasks (title, description, is_completed)
		VALUES ($1, $2, $3)
		RETURNING ` + taskColumns

	return scanTask(r.db.QueryRowContext(ctx, query, task.Title, task.Description, task.IsCompleted))
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Task, 0)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*models.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 FOR UPDATE`
	return scanTask(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Toggle(ctx context.Context, id string) (*models.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	query := `UPDATE tasks SET is_completed = NOT is_completed, updated_at = now()
		WHERE id = $1
		RETURNING ` + taskColumns
	return scanTask(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func scanTask(row *sql.Row) (*models.Task, error) {
	var t models.Task
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &t, nil
}
