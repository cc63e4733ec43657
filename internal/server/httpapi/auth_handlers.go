package httpapi

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/rbac"
	"github.com/dmitrijs2005/todokeeper/internal/server/storage"
	"github.com/gorilla/mux"
)

const maxUploadMemory = 10 << 20

type userCreatedResponse struct {
	Message    string `json:"message"`
	ID         string `json:"id"`
	PictureURL string `json:"pictureUrl"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type currentUserResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	PictureURL string `json:"pictureUrl"`
}

type resetRequest struct {
	Username string `json:"username"`
}

type resetResponse struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
}

type setPasswordRequest struct {
	UserID      string `json:"userId"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type photoResponse struct {
	Message    string `json:"message"`
	PictureURL string `json:"pictureUrl"`
}

// createUser registers an account from a multipart form with fields
// username, password, role and an optional "picture" file.
func (s *HTTPServer) createUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	role := r.FormValue("role")

	var pictureRef string
	file, header, err := r.FormFile("picture")
	switch {
	case err == nil:
		defer file.Close()
		if header.Size > 0 {
			pictureRef, err = s.storePicture(r.Context(), file, header)
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
		}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		writeError(w, http.StatusBadRequest, "Invalid picture")
		return
	}

	user, err := s.users.Register(r.Context(), username, password, role, pictureRef)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "username", user.UserName, "role", user.Role)
	writeJSON(w, http.StatusOK, userCreatedResponse{
		Message:    "User created successfully",
		ID:         user.ID,
		PictureURL: s.pictureURL(r.Context(), user.PictureRef),
	})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		outcome := "error"
		if errors.Is(err, common.ErrInvalidCredentials) {
			outcome = "invalid_credentials"
		}
		s.metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
		s.writeServiceError(w, r, err)
		return
	}

	s.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, loginResponse{
		ID:        res.UserID,
		Username:  res.UserName,
		Role:      res.Role,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	})
}

func (s *HTTPServer) currentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		s.writeServiceError(w, r, common.ErrUnauthenticated)
		return
	}

	user, err := s.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, currentUserResponse{
		ID:         user.ID,
		Username:   user.UserName,
		Role:       user.Role,
		PictureURL: s.pictureURL(r.Context(), user.PictureRef),
	})
}

func (s *HTTPServer) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.users.RequestPasswordReset(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusBadRequest, "User not found")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resetResponse{UID: res.UserID, Token: res.Token})
}

func (s *HTTPServer) verifyResetToken(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !s.users.VerifyResetToken(q.Get("uid"), q.Get("token")) {
		writeError(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}
	writeMessage(w, http.StatusOK, "Token is valid")
}

func (s *HTTPServer) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.users.ResetPassword(r.Context(), req.UserID, req.Token, req.NewPassword); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successful")
}

// updatePhoto replaces a user's picture from the multipart file "newPhoto".
// Non-admins may only change their own picture.
func (s *HTTPServer) updatePhoto(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		s.writeServiceError(w, r, common.ErrUnauthenticated)
		return
	}
	if claims.Role != rbac.RoleAdmin && claims.UserID != userID {
		s.writeServiceError(w, r, common.ErrForbidden)
		return
	}

	if _, err := s.users.GetUserByID(r.Context(), userID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	file, header, err := r.FormFile("newPhoto")
	if err != nil {
		writeError(w, http.StatusBadRequest, "newPhoto is required")
		return
	}
	defer file.Close()

	key, err := s.storePicture(r.Context(), file, header)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	user, err := s.users.UpdatePicture(r.Context(), userID, key)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, photoResponse{
		Message:    "Photo updated successfully",
		PictureURL: s.pictureURL(r.Context(), user.PictureRef),
	})
}

func (s *HTTPServer) storePicture(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	if s.pictures == nil {
		return "", errors.New("picture storage is not configured")
	}
	key := storage.PictureKey(header.Filename)
	if err := s.pictures.Upload(ctx, key, header.Header.Get("Content-Type"), file, header.Size); err != nil {
		return "", err
	}
	return key, nil
}

// pictureURL presigns ref; failures are logged and yield an empty URL.
func (s *HTTPServer) pictureURL(ctx context.Context, ref string) string {
	if ref == "" || s.pictures == nil {
		return ""
	}
	u, err := s.pictures.PresignGet(ctx, ref)
	if err != nil {
		s.logger.Warn(ctx, "presign picture failed", "key", ref, "error", err.Error())
		return ""
	}
	return u
}
