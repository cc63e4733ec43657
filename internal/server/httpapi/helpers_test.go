package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/rbac"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memRepoManager struct {
	users users.Repository
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(dbx.DBTX) users.Repository             { return m.users }
func (m *memRepoManager) Tasks(db dbx.DBTX) tasks.Repository           { return tasks.NewPostgresRepository(db) }

// fakeTasks is an in-memory TaskService that records every call.
type fakeTasks struct {
	mu    sync.Mutex
	items map[string]*models.Task
	calls []string
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{items: map[string]*models.Task{}}
}

func (f *fakeTasks) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeTasks) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTasks) put(t *models.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[t.ID] = t
}

func (f *fakeTasks) List(context.Context) ([]*models.Task, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Task, 0, len(f.items))
	for _, t := range f.items {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTasks) Get(_ context.Context, id string) (*models.Task, error) {
	f.record("get")
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeTasks) Create(_ context.Context, title, description string) (*models.Task, error) {
	f.record("create")
	if title == "" {
		return nil, common.ErrorValidation
	}
	now := time.Now()
	t := &models.Task{ID: "t-" + title, Title: title, Description: description, CreatedAt: now, UpdatedAt: now}
	f.put(t)
	return t, nil
}

func (f *fakeTasks) Toggle(_ context.Context, id string) (*models.Task, error) {
	f.record("toggle")
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	t.IsCompleted = !t.IsCompleted
	return t, nil
}

func (f *fakeTasks) Delete(_ context.Context, id string) error {
	f.record("delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	if t.IsCompleted {
		return common.ErrTaskCompleted
	}
	delete(f.items, id)
	return nil
}

type fakePictures struct {
	mu       sync.Mutex
	uploaded map[string][]byte
	failPut  bool
}

func (f *fakePictures) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	if f.failPut {
		return errors.New("s3 unavailable")
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploaded == nil {
		f.uploaded = map[string][]byte{}
	}
	f.uploaded[key] = b
	return nil
}

func (f *fakePictures) PresignGet(_ context.Context, key string) (string, error) {
	return "https://s3.local/pictures/" + key + "?X-Amz-Expires=3600", nil
}

type testEnv struct {
	server   *HTTPServer
	handler  http.Handler
	users    *services.UserService
	tasks    *fakeTasks
	pictures *fakePictures
	tokens   *auth.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "http-test-secret"
	cfg.BcryptCost = bcrypt.MinCost

	tokens := auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.TokenIssuer, cfg.TokenAudience, cfg.AccessTokenValidityDuration)
	us := services.NewUserService(nil, &memRepoManager{users: users.NewMemoryRepository()}, cfg, tokens)
	ft := newFakeTasks()
	fp := &fakePictures{}

	s := NewHTTPServer(":0", logging.NewNop(), Deps{
		Users:    us,
		Tasks:    ft,
		Pictures: fp,
		Tokens:   tokens,
		Policy:   rbac.NewPolicy(rbac.DefaultTable()),
		Metrics:  NewMetrics(prometheus.NewRegistry()),
	})
	return &testEnv{server: s, handler: s.Handler(), users: us, tasks: ft, pictures: fp, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

type formFile struct {
	field, name, content string
}

func (e *testEnv) doMultipart(t *testing.T, method, path, token string, fields map[string]string, file *formFile) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile(file.field, file.name)
		require.NoError(t, err)
		_, err = io.Copy(fw, strings.NewReader(file.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, username, password, role string) {
	t.Helper()
	rec := e.doMultipart(t, http.MethodPost, "/api/auth/create", "",
		map[string]string{"username": username, "password": password, "role": role}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (e *testEnv) login(t *testing.T, username, password string) loginResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var out errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
