// Package httpapi exposes the account and to-do operations over HTTP/JSON.
// Routes are served by a gorilla/mux router; bearer authentication and
// role permissions are enforced by middleware before handlers run.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/rbac"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// UserService is the account API the handlers depend on.
type UserService interface {
	Register(ctx context.Context, username, password, role, pictureRef string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, username string) (*services.ResetRequest, error)
	VerifyResetToken(userID, token string) bool
	ResetPassword(ctx context.Context, userID, token, newPassword string) error
	UpdatePicture(ctx context.Context, userID, pictureRef string) (*models.User, error)
}

// TaskService is the to-do API the handlers depend on.
type TaskService interface {
	List(ctx context.Context) ([]*models.Task, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, title, description string) (*models.Task, error)
	Toggle(ctx context.Context, id string) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

// PictureStore keeps uploaded pictures.
type PictureStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Deps groups the collaborators of HTTPServer.
type Deps struct {
	Users    UserService
	Tasks    TaskService
	Pictures PictureStore
	Tokens   TokenValidator
	Policy   *rbac.Policy
	Metrics  *Metrics
}

type HTTPServer struct {
	address  string
	logger   logging.Logger
	users    UserService
	tasks    TaskService
	pictures PictureStore
	tokens   TokenValidator
	policy   *rbac.Policy
	metrics  *Metrics
	handler  http.Handler
}

func NewHTTPServer(address string, l logging.Logger, d Deps) *HTTPServer {
	s := &HTTPServer{
		address:  address,
		logger:   l.With("module", "http_server"),
		users:    d.Users,
		tasks:    d.Tasks,
		pictures: d.Pictures,
		tokens:   d.Tokens,
		policy:   d.Policy,
		metrics:  d.Metrics,
	}
	if s.policy == nil {
		s.policy = rbac.NewPolicy(rbac.DefaultTable())
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
