package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"shelfmark/internal/app"
	"shelfmark/internal/ratelimit"
	"shelfmark/internal/util"
	"shelfmark/pkg/auth"
	"shelfmark/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App    *app.App
	Tokens *auth.TokenIssuer

	RedisAddr     string
	RedisPassword string

	RegisterRateLimitPerMinute int
	LoginRateLimitPerMinute    int
	MessageRateLimitPerMinute  int

	MaxUploadBytes         int64
	AllowedImageExtensions []string

	DefaultPageLimit int
	MaxPageLimit     int

	TrustedProxies []string
}

// Server exposes the HTTP API.
type Server struct {
	app    *app.App
	tokens *auth.TokenIssuer
	mux    *http.ServeMux

	maxUploadBytes    int64
	allowedExtensions map[string]struct{}
	defaultPageLimit  int
	maxPageLimit      int
	trustedProxies    *util.TrustedProxies

	registerLimiter *ratelimit.FixedWindowLimiter
	loginLimiter    *ratelimit.FixedWindowLimiter
	messageLimiter  *ratelimit.FixedWindowLimiter
}

var defaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("server: token issuer is required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 * 1024 * 1024
	}
	defaultLimit := cfg.DefaultPageLimit
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxPageLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	extensions := cfg.AllowedImageExtensions
	if len(extensions) == 0 {
		extensions = defaultImageExtensions
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}

	registerLimit := cfg.RegisterRateLimitPerMinute
	if registerLimit <= 0 {
		registerLimit = 5
	}
	loginLimit := cfg.LoginRateLimitPerMinute
	if loginLimit <= 0 {
		loginLimit = 10
	}
	messageLimit := cfg.MessageRateLimitPerMinute
	if messageLimit <= 0 {
		messageLimit = 5
	}
	newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
		prefix := "shelfmark:ratelimit:" + name
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, limit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	registerLimiter, err := newLimiter("register", registerLimit)
	if err != nil {
		return nil, err
	}
	loginLimiter, err := newLimiter("login", loginLimit)
	if err != nil {
		return nil, err
	}
	messageLimiter, err := newLimiter("message", messageLimit)
	if err != nil {
		return nil, err
	}

	s := &Server{
		app:               cfg.App,
		tokens:            cfg.Tokens,
		mux:               http.NewServeMux(),
		maxUploadBytes:    maxUploadBytes,
		allowedExtensions: allowed,
		defaultPageLimit:  defaultLimit,
		maxPageLimit:      maxLimit,
		trustedProxies:    trusted,
		registerLimiter:   registerLimiter,
		loginLimiter:      loginLimiter,
		messageLimiter:    messageLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with middleware applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// users
	s.mux.HandleFunc("/users/register", s.handleRegister)
	s.mux.HandleFunc("/users/login", s.handleLogin)
	s.mux.Handle("/users/me", s.authenticated(s.handleMe))
	s.mux.Handle("/users/me/password", s.authenticated(s.handleChangePassword))
	s.mux.Handle("/users/all", s.adminOnly(s.handleListUsers))
	s.mux.Handle("/users/ban/", s.adminOnly(s.handleBanUser))
	s.mux.Handle("/users/role/", s.adminOnly(s.handleRoleUser))
	s.mux.Handle("/users/", s.adminOnly(s.handleUserByID))

	// books
	s.mux.Handle("/books", s.authenticated(s.handleBooks))
	s.mux.Handle("/books/all", s.adminOnly(s.handleAllBooks))
	s.mux.Handle("/books/user/", s.adminOnly(s.handleBooksByUser))
	s.mux.Handle("/books/", s.authenticated(s.handleBookByID))

	// contact messages
	s.mux.HandleFunc("/message", s.handleSubmitMessage)
	s.mux.Handle("/messages", s.adminOnly(s.handleListMessages))
	s.mux.Handle("/message/", s.adminOnly(s.handleMessageByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if user.Role != domain.RoleAdmin {
			s.audit(r, "admin.authorize", "fail", "user_id", user.ID, "reason", "forbidden")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		s.audit(r, "token.verify", "fail", "reason", "missing_token")
		return domain.User{}, false
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		s.audit(r, "token.verify", "fail", "reason", "invalid_signature_or_claims")
		return domain.User{}, false
	}
	user, err := s.app.GetUser(r.Context(), userID)
	if err != nil {
		s.audit(r, "token.verify", "fail", "reason", "unknown_subject")
		return domain.User{}, false
	}
	if user.IsBanned {
		s.audit(r, "token.verify", "fail", "user_id", user.ID, "reason", "banned")
		return domain.User{}, false
	}
	return user, true
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trustedProxies),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func (s *Server) isExtensionAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	_, ok := s.allowedExtensions[ext]
	return ok
}

// writeAppError maps application errors onto HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrUserBanned):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrEmailAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrUserNotFound),
		errors.Is(err, app.ErrBookNotFound),
		errors.Is(err, app.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrSelfDelete):
		writeError(w, http.StatusBadRequest, err.Error())
	case app.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
