package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/gorilla/mux"
)

type taskDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type toggleResponse struct {
	Message     string `json:"message"`
	IsCompleted bool   `json:"isCompleted"`
}

func toTaskDTO(t *models.Task) taskDTO {
	return taskDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (s *HTTPServer) listTasks(w http.ResponseWriter, r *http.Request) {
	list, err := s.tasks.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]taskDTO, 0, len(list))
	for _, t := range list {
		out = append(out, toTaskDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

func (s *HTTPServer) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := s.tasks.Create(r.Context(), req.Title, req.Description)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/todo/"+task.ID)
	writeJSON(w, http.StatusCreated, toTaskDTO(task))
}

func (s *HTTPServer) toggleTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Toggle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{
		Message:     "Todo status updated successfully",
		IsCompleted: task.IsCompleted,
	})
}

func (s *HTTPServer) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Todo deleted successfully")
}
