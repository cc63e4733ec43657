// Package services contains server-side business logic. This file implements
// UserService: registration, credential checks, bearer token issuance and the
// stateless password-reset flow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/passwords"
	"github.com/dmitrijs2005/todokeeper/internal/server/rbac"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/server/resettoken"
)

// LoginResult is returned by a successful Login.
type LoginResult struct {
	UserID    string
	UserName  string
	Role      string
	Token     string
	ExpiresAt time.Time
}

// ResetRequest carries a freshly issued reset token and the user it is for.
type ResetRequest struct {
	UserID string
	Token  string
}

// UserService provides authentication-related operations.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *passwords.Hasher
	tokens      *auth.TokenIssuer
	resetWindow time.Duration
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, tokens *auth.TokenIssuer) *UserService {
	window := cfg.ResetTokenValidityDuration
	if window <= 0 {
		window = resettoken.DefaultWindow
	}
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      passwords.NewHasher(cfg.BcryptCost, cfg.HashWorkers),
		tokens:      tokens,
		resetWindow: window,
		now:         time.Now,
	}
}

// Register creates a user. Duplicate usernames yield common.ErrAlreadyExists,
// detected by the store on insert.
func (s *UserService) Register(ctx context.Context, username, password, role, pictureRef string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}
	if !rbac.IsKnownRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}

	hash, err := s.hashPassword(ctx, password)
	if err != nil {
		return nil, err
	}

	user := &models.User{UserName: username, PasswordHash: hash, Role: role, PictureRef: pictureRef}
	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return created.Public(), nil
}

// Authenticate checks username and password. Unknown users and wrong
// passwords both yield common.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep response time close to the found-user path
			s.hasher.Verify(ctx, password, s.dummy())
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Verify(ctx, password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	return user.Public(), nil
}

// Login authenticates and mints a bearer token.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}
	return &LoginResult{
		UserID:    user.ID,
		UserName:  user.UserName,
		Role:      user.Role,
		Token:     token,
		ExpiresAt: expires,
	}, nil
}

// IssueResetToken encodes the user id with the current UTC time.
func (s *UserService) IssueResetToken(user *models.User) string {
	return resettoken.Encode(user.ID, s.now().UTC())
}

// RequestPasswordReset looks the user up by name and issues a reset token.
func (s *UserService) RequestPasswordReset(ctx context.Context, username string) (*ResetRequest, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &ResetRequest{UserID: user.ID, Token: s.IssueResetToken(user)}, nil
}

// VerifyResetToken reports whether token was issued for userID within the
// reset window. It never fails; bad input reports false.
func (s *UserService) VerifyResetToken(userID, token string) bool {
	return resettoken.Valid(userID, token, s.now(), s.resetWindow)
}

// ResetPassword replaces the user's password hash. An invalid token or an
// unknown user yields common.ErrInvalidToken.
func (s *UserService) ResetPassword(ctx context.Context, userID, token, newPassword string) error {
	if !s.VerifyResetToken(userID, token) {
		return common.ErrInvalidToken
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return fmt.Errorf("error searching user: %w", err)
	}

	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", common.ErrorValidation)
	}
	hash, err := s.hashPassword(ctx, newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	if err := repo.Update(ctx, user); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return fmt.Errorf("error updating user: %w", err)
	}
	return nil
}

// GetUserByID returns the user without its password hash.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// GetUserByUsername returns the user without its password hash.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// UpdatePicture stores a new picture reference for the user.
func (s *UserService) UpdatePicture(ctx context.Context, userID, pictureRef string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.PictureRef = pictureRef
	if err := repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return user.Public(), nil
}

// hashPassword maps rejected inputs to common.ErrorValidation.
func (s *UserService) hashPassword(ctx context.Context, password string) (string, error) {
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		if errors.Is(err, passwords.ErrEmptyPassword) || errors.Is(err, passwords.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return hash, nil
}

// dummy returns the hash compared against when the user does not exist.
// It never depends on a request context.
func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(context.Background(), "todokeeper-dummy-password")
	})
	return s.dummyHash
}
