// Package http serves the Spendit web UI: authentication, category and
// transaction CRUD, and the personal-data export endpoint.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/SadLabib/Spendit/internal/cache"
	"github.com/SadLabib/Spendit/internal/core"
	"github.com/SadLabib/Spendit/internal/export"
	"github.com/SadLabib/Spendit/internal/log"
	"github.com/SadLabib/Spendit/internal/middleware/ratelimit"
	"github.com/SadLabib/Spendit/internal/middleware/security"
	"github.com/SadLabib/Spendit/internal/middleware/trace"
	"github.com/SadLabib/Spendit/internal/storage"
	appweb "github.com/SadLabib/Spendit/web"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "spendit_session"

// Store is the persistence surface the handlers need.
type Store interface {
	GetUserByUserName(ctx context.Context, userName string) (*storage.User, error)
	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	ValidateSession(ctx context.Context, token string) (*storage.SessionInfo, error)
	RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error

	ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
	GetCategory(ctx context.Context, userID, id int64) (*core.Category, error)
	CreateCategory(ctx context.Context, c *core.Category) error
	UpdateCategory(ctx context.Context, c *core.Category) error
	DeleteCategory(ctx context.Context, userID, id int64) error

	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id int64) (*core.Transaction, error)
	CreateTransaction(ctx context.Context, userID int64, t *core.Transaction) error
	UpdateTransaction(ctx context.Context, userID int64, t *core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id int64) error
}

// Exporter runs the personal-data export pipeline.
type Exporter interface {
	Export(ctx context.Context, userID int64, format export.Format) (*export.Document, error)
}

// Config holds server configuration.
type Config struct {
	Addr            string
	SecureCookie    bool
	SessionDuration time.Duration
}

type Server struct {
	http.Server
	store    Store
	exporter Exporter
	options  *cache.OptionsCache
	caches   *cache.Manager

	templates *template.Template
	logger    *log.Logger

	secureCookie    bool
	sessionDuration time.Duration

	limiter  *ratelimit.Limiter
	resolver *security.IPResolver

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(cfg Config, store Store, exporter Exporter, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:           store,
		exporter:        exporter,
		options:         cache.NewOptionsCache(200, 5*time.Minute),
		caches:          cache.NewManager(),
		logger:          logger.WithComponent(log.ComponentHTTP),
		secureCookie:    cfg.SecureCookie,
		sessionDuration: cfg.SessionDuration,
		limiter:         ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		resolver:        security.NewIPResolver(),
	}
	if s.sessionDuration <= 0 {
		s.sessionDuration = 30 * 24 * time.Hour
	}

	s.caches.Register(s.options)
	s.caches.StartCleanup(10 * time.Minute)

	t, err := template.New("").Funcs(template.FuncMap{
		"formatDate": func(d time.Time) string { return d.Format("January 02, 2006") },
		"inputDate":  func(d time.Time) string { return d.Format("2006-01-02") },
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("GET /{$}", s.requireUser(s.handleIndex))

	mux.Handle("GET /transactions", s.requireUser(s.handleTransactionList))
	mux.Handle("GET /transactions/new", s.requireUser(s.handleTransactionNew))
	mux.Handle("POST /transactions", s.requireUser(s.handleTransactionCreate))
	mux.Handle("GET /transactions/{id}", s.requireUser(s.handleTransactionDetail))
	mux.Handle("GET /transactions/{id}/edit", s.requireUser(s.handleTransactionEditForm))
	mux.Handle("POST /transactions/{id}", s.requireUser(s.handleTransactionEdit))
	mux.Handle("POST /transactions/{id}/delete", s.requireUser(s.handleTransactionDelete))

	mux.Handle("GET /categories", s.requireUser(s.handleCategoryList))
	mux.Handle("GET /categories/new", s.requireUser(s.handleCategoryNew))
	mux.Handle("POST /categories", s.requireUser(s.handleCategoryCreate))
	mux.Handle("GET /categories/{id}/edit", s.requireUser(s.handleCategoryEditForm))
	mux.Handle("POST /categories/{id}", s.requireUser(s.handleCategoryEdit))
	mux.Handle("POST /categories/{id}/delete", s.requireUser(s.handleCategoryDelete))

	mux.Handle("GET /account", s.requireUser(s.handleAccount))
	mux.Handle("GET /account/personal-data", s.requireUser(s.handleExportGet))
	mux.Handle("POST /account/personal-data", s.requireUser(s.handleExport))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	traced := trace.NewMiddleware(s.resolver.ExtractClientIP, logger)

	s.Server = http.Server{
		Addr:    cfg.Addr,
		Handler: headers.Middleware(traced.Middleware(s.limitPosts(mux))),
	}
	return s
}

// limitPosts applies the rate limiter to mutating requests only.
func (s *Server) limitPosts(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.limiter.Allow(s.resolver.ExtractClientIP(r)) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, s.resolver.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/transactions", http.StatusFound)
}

// Shutdown stops the server together with its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
