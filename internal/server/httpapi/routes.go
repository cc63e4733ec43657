package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/todokeeper/internal/server/rbac"
	"github.com/gorilla/mux"
)

func (s *HTTPServer) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recoverer, s.instrument)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	a := r.PathPrefix("/api/auth").Subrouter()
	a.HandleFunc("/create", s.createUser).Methods(http.MethodPost)
	a.HandleFunc("/login", s.login).Methods(http.MethodPost)
	a.Handle("/current-user", s.authenticate(http.HandlerFunc(s.currentUser))).Methods(http.MethodGet)
	a.HandleFunc("/request-password-reset", s.requestPasswordReset).Methods(http.MethodPost)
	a.HandleFunc("/verify-reset-token", s.verifyResetToken).Methods(http.MethodGet)
	a.HandleFunc("/reset-password", s.resetPassword).Methods(http.MethodPost)
	a.Handle("/{userId}/photo", s.gate(rbac.Edit, s.updatePhoto)).Methods(http.MethodPatch)

	t := r.PathPrefix("/api/todo").Subrouter()
	t.Handle("", s.gate(rbac.View, s.listTasks)).Methods(http.MethodGet)
	t.Handle("", s.gate(rbac.Create, s.createTask)).Methods(http.MethodPost)
	t.Handle("/{id}", s.gate(rbac.View, s.getTask)).Methods(http.MethodGet)
	t.Handle("/{id}", s.gate(rbac.Delete, s.deleteTask)).Methods(http.MethodDelete)
	t.Handle("/{id}/toggle", s.gate(rbac.Edit, s.toggleTask)).Methods(http.MethodPatch)

	return r
}

// gate wraps h with bearer authentication and a permission check.
func (s *HTTPServer) gate(action rbac.Action, h http.HandlerFunc) http.Handler {
	return s.authenticate(s.requirePermission(action, h))
}

func (s *HTTPServer) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
