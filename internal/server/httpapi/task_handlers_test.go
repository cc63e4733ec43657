package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Register alice as a plain user, log in, and try to delete a task: the
// policy must refuse with 403 before the task service is reached.
func TestEndToEnd_UserCannotDelete(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.put(&models.Task{ID: "t1", Title: "groceries"})

	env.register(t, "alice", "pw123", "user")
	login := env.login(t, "alice", "pw123")
	require.Equal(t, "user", login.Role)

	claims, err := env.tokens.Validate(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "user", claims.Role)

	rec := env.do(t, http.MethodDelete, "/api/todo/t1", login.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, http.StatusForbidden, body.StatusCode)
	assert.Equal(t, "You are not authorized to access this resource", body.Message)

	assert.NotContains(t, env.tasks.Calls(), "delete")
	_, stillThere := env.tasks.items["t1"]
	assert.True(t, stillThere)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.server.metrics.PermissionDenialsTotal.WithLabelValues("Delete")))
}

func TestAdminCanDelete(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.put(&models.Task{ID: "t1", Title: "a"})
	env.tasks.put(&models.Task{ID: "t2", Title: "b", IsCompleted: true})
	env.register(t, "root", "pw", "admin")
	tok := env.login(t, "root", "pw").Token

	rec := env.do(t, http.MethodDelete, "/api/todo/t1", tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/todo/t2", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot delete a completed todo", decodeError(t, rec).Message)

	rec = env.do(t, http.MethodDelete, "/api/todo/missing", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserCanViewCreateToggle(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "pw", "user")
	tok := env.login(t, "alice", "pw").Token

	rec := env.do(t, http.MethodPost, "/api/todo", tok, createTaskRequest{Title: "write", Description: "tests"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created taskDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "/api/todo/"+created.ID, rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/api/todo", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []taskDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = env.do(t, http.MethodGet, "/api/todo/"+created.ID, tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/todo/"+created.ID+"/toggle", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tr toggleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tr))
	assert.True(t, tr.IsCompleted)

	rec = env.do(t, http.MethodGet, "/api/todo/nope", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTask_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "pw", "user")
	tok := env.login(t, "alice", "pw").Token

	rec := env.do(t, http.MethodPost, "/api/todo", tok, createTaskRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTodoRoutes_RequireBearer(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/todo", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 401, decodeError(t, rec).StatusCode)
	assert.Empty(t, env.tasks.Calls())
}

func TestUnknownRoleGetsNothing(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.put(&models.Task{ID: "t1", Title: "a"})

	tok, _, err := env.tokens.Issue(&models.User{ID: "u-x", UserName: "mallory", Role: "guest"})
	require.NoError(t, err)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/todo"},
		{http.MethodGet, "/api/todo/t1"},
		{http.MethodPatch, "/api/todo/t1/toggle"},
		{http.MethodDelete, "/api/todo/t1"},
	} {
		rec := env.do(t, req.method, req.path, tok, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, req.path)
	}
	assert.Empty(t, env.tasks.Calls())
}
