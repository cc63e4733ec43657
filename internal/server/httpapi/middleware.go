package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/rbac"
	"github.com/gorilla/mux"
)

// authenticate requires a valid "Authorization: Bearer <token>" header and
// stores the decoded claims in the request context.
func (s *HTTPServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" {
			s.rejectToken(w, r, "missing", common.ErrUnauthenticated)
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, common.BearerScheme) || strings.TrimSpace(token) == "" {
			s.rejectToken(w, r, "bad_header", common.ErrUnauthenticated)
			return
		}

		claims, err := s.tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			s.rejectToken(w, r, failureReason(err), err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (s *HTTPServer) rejectToken(w http.ResponseWriter, r *http.Request, reason string, err error) {
	s.metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
	s.logger.Debug(r.Context(), "bearer token rejected", "reason", reason, "path", r.URL.Path)
	status, msg := statusFor(err)
	if status != http.StatusUnauthorized {
		status, msg = http.StatusUnauthorized, "You are not authenticated"
	}
	writeError(w, status, msg)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return "expired"
	case errors.Is(err, common.ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, common.ErrBadIssuerAudience):
		return "bad_issuer_audience"
	default:
		return "malformed"
	}
}

// requirePermission lets the request through only when the caller's role is
// allowed action. Denied requests get 403 and next is never called.
func (s *HTTPServer) requirePermission(action rbac.Action, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			status, msg := statusFor(common.ErrUnauthenticated)
			writeError(w, status, msg)
			return
		}
		if !s.policy.Allowed(claims.Role, action) {
			s.metrics.PermissionDenialsTotal.WithLabelValues(string(action)).Inc()
			s.logger.Info(r.Context(), "permission denied",
				"user_id", claims.UserID, "role", claims.Role, "action", string(action))
			status, msg := statusFor(common.ErrForbidden)
			writeError(w, status, msg)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latency per route template and
// writes an access log line.
func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		elapsed := time.Since(start)

		s.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		s.logger.Info(r.Context(), "http request",
			"method", r.Method, "route", route, "status", rec.status, "duration", elapsed.String())
	})
}

// recoverer turns a handler panic into a 500 response.
func (s *HTTPServer) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				s.logger.Error(r.Context(), "panic in handler", "path", r.URL.Path, "panic", fmt.Sprint(p))
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
