package models

import "time"

// Task is a single to-do item.
type Task struct {
	ID          string
	Title       string
	Description string
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
