package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/SadLabib/Spendit/internal/auth"
	"github.com/SadLabib/Spendit/internal/log"
	"github.com/SadLabib/Spendit/internal/storage"
)

type contextKey string

const userContextKey contextKey = "user"

// currentUser retrieves the authenticated user from request context.
func currentUser(r *http.Request) *storage.User {
	if user, ok := r.Context().Value(userContextKey).(*storage.User); ok {
		return user
	}
	return nil
}

// requireUser resolves the session cookie to a user, renewing sessions
// past the halfway point of their lifetime. Browsers without a valid
// session are redirected to /login.
func (s *Server) requireUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		info, err := s.store.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			s.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		// Rolling session: renew once past the halfway point, so
		// active users stay logged in while idle sessions expire.
		now := time.Now()
		if info.ExpiresAt.Sub(now) < s.sessionDuration/2 {
			newExpiresAt := now.Add(s.sessionDuration)
			if err := s.store.RenewSession(r.Context(), cookie.Value, newExpiresAt); err == nil {
				s.setSessionCookie(w, cookie.Value)
			}
		}

		ctx := context.WithValue(r.Context(), userContextKey, info.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoginView holds data for the login page.
type LoginView struct {
	Error string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := s.store.ValidateSession(r.Context(), cookie.Value); err == nil {
			http.Redirect(w, r, "/transactions", http.StatusFound)
			return
		}
	}
	s.render(w, r, "login.html", LoginView{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, "login.html", LoginView{Error: "Invalid form submission"})
		return
	}

	userName := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if userName == "" || password == "" {
		s.render(w, r, "login.html", LoginView{Error: "Username and password are required"})
		return
	}

	user, err := s.store.GetUserByUserName(r.Context(), userName)
	if err != nil || !auth.CheckPassword(user.PasswordHash, password) {
		s.render(w, r, "login.html", LoginView{Error: "Invalid username or password"})
		return
	}

	token := auth.NewSessionToken()
	expiresAt := time.Now().Add(s.sessionDuration)
	if err := s.store.CreateSession(r.Context(), token, user.ID, expiresAt); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to create session",
			log.FieldError, err,
			log.FieldUserID, user.ID)
		s.render(w, r, "login.html", LoginView{Error: "An error occurred. Please try again."})
		return
	}

	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/transactions", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := s.store.DeleteSession(r.Context(), cookie.Value); err != nil {
			s.logger.WarnContext(r.Context(), "Failed to delete session", log.FieldError, err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
