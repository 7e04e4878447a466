package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/conorfennell/flashlearn/internal/domain"
)

const (
	tokenCookie  = "flashlearn_token"
	noticeCookie = "flashlearn_notice"
)

type ctxKey struct{}

func withUser(ctx context.Context, id domain.UserID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// userFrom returns the authenticated user of the request. It is only valid
// behind requireAPIUser or requirePageUser.
func userFrom(r *http.Request) domain.UserID {
	id, _ := r.Context().Value(ctxKey{}).(domain.UserID)
	return id
}

// requestToken prefers a bearer token and falls back to the session cookie.
func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(tokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) requireAPIUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := requestToken(r)
		if token == "" {
			writeError(w, r, s.logger, errUnauthorized)
			return
		}
		id, err := s.auth.Authenticate(token)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), id)))
	})
}

func (s *Server) requirePageUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(tokenCookie)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		id, err := s.auth.Authenticate(c.Value)
		if err != nil {
			s.clearCookie(w, tokenCookie)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), id)))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.auth.Tokens().TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// setNotice stores a one-shot message shown on the next rendered page.
func (s *Server) setNotice(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookie,
		Value:    encodeNotice(msg),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeNotice returns and clears the pending notice.
func (s *Server) takeNotice(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(noticeCookie)
	if err != nil {
		return ""
	}
	s.clearCookie(w, noticeCookie)
	return decodeNotice(c.Value)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelDebug
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
