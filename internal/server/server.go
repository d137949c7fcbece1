package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/config"
	"github.com/dukerupert/chorely/internal/handler"
	"github.com/dukerupert/chorely/internal/metrics"
	"github.com/dukerupert/chorely/internal/middleware"
	"github.com/dukerupert/chorely/internal/service"
	"github.com/dukerupert/chorely/internal/store"
	ws "github.com/dukerupert/chorely/internal/websocket"
)

const limiterIdle = 30 * time.Minute

type Server struct {
	db          *sql.DB
	cfg         *config.Config
	hub         *ws.Hub
	metrics     *metrics.Metrics
	tokens      *auth.TokenIssuer
	userStore   *store.UserStore
	rateLimiter *middleware.RateLimiter

	authH       *handler.AuthHandler
	familyH     *handler.FamilyHandler
	choreH      *handler.ChoreHandler
	assignmentH *handler.AssignmentHandler
	ledgerH     *handler.LedgerHandler

	logger *slog.Logger
}

// Options overrides collaborators, mostly for tests.
type Options struct {
	Now func() time.Time
}

func New(db *sql.DB, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger, opts Options) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	var notifier service.Notifier
	if cfg.Catalog.Features.Realtime {
		notifier = hub
	}

	svc := service.New(db, service.Options{
		Logger:          logger,
		Metrics:         m,
		Notifier:        notifier,
		Now:             opts.Now,
		RejectReasonMin: cfg.RejectReasonMin,
	})
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	return &Server{
		db:          db,
		cfg:         cfg,
		hub:         hub,
		metrics:     m,
		tokens:      tokens,
		userStore:   store.NewUserStore(db),
		rateLimiter: middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, limiterIdle),
		authH:       handler.NewAuthHandler(svc.Families, tokens, logger.With("component", "auth")),
		familyH:     handler.NewFamilyHandler(svc.Families, logger.With("component", "family")),
		choreH:      handler.NewChoreHandler(svc.Chores, svc.Assignments, cfg.Catalog, logger.With("component", "chore")),
		assignmentH: handler.NewAssignmentHandler(svc.Assignments, logger.With("component", "assignment")),
		ledgerH:     handler.NewLedgerHandler(svc.Ledger, cfg.Catalog.Features, logger.With("component", "ledger")),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the realtime hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))
	r.Use(s.metrics.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public routes (no auth required)
	r.Get("/health", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	limited := middleware.RateLimit(s.rateLimiter, middleware.RealIP)
	r.With(limited).Post("/api/auth/register", s.authH.Register)
	r.With(limited).Post("/api/auth/login", s.authH.Login)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(s.tokens, s.userStore))
		s.registerProtectedRoutes(r)
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) registerProtectedRoutes(r chi.Router) {
	parent := middleware.RequireParent
	child := middleware.RequireChild

	// Account and family
	r.Get("/api/me", s.familyH.Me)
	r.Get("/api/family", s.familyH.Get)
	r.With(parent).Put("/api/family", s.familyH.Rename)
	r.Get("/api/activities", s.familyH.Activity)

	// Children
	r.Get("/api/children", s.familyH.ListChildren)
	r.With(parent).Post("/api/children", s.familyH.CreateChild)
	r.With(parent).Delete("/api/children/{id}", s.familyH.DeleteChild)

	// Ledger
	r.With(parent).Post("/api/children/{id}/adjustments", s.ledgerH.CreateAdjustment)
	r.Get("/api/children/{id}/adjustments", s.ledgerH.ListAdjustments)
	r.Get("/api/children/{id}/balance", s.ledgerH.Balance)
	r.Get("/api/leaderboard", s.ledgerH.Leaderboard)

	// Chores
	r.With(parent).Post("/api/chores", s.choreH.Create)
	r.Get("/api/chores", s.choreH.List)
	r.With(child).Get("/api/chores/available", s.choreH.Available)
	r.With(parent).Get("/api/chores/pending-approval", s.choreH.PendingApproval)
	r.Get("/api/chores/{id}", s.choreH.Get)
	r.With(parent).Put("/api/chores/{id}", s.choreH.Update)
	r.With(parent).Delete("/api/chores/{id}", s.choreH.Delete)
	r.With(parent).Post("/api/chores/{id}/disable", s.choreH.Disable)
	r.With(parent).Post("/api/chores/{id}/enable", s.choreH.Enable)
	r.With(child).Post("/api/chores/{id}/complete", s.choreH.Complete)
	r.With(parent).Get("/api/chore-templates", s.choreH.Templates)

	// Approval
	r.With(parent).Post("/api/assignments/{id}/approve", s.assignmentH.Approve)
	r.With(parent).Post("/api/assignments/{id}/reject", s.assignmentH.Reject)

	if s.cfg.Catalog.Features.Realtime {
		r.Get("/api/ws", ws.HandleWebSocket(s.hub, s.cfg.Origins(), s.logger.With("component", "websocket")))
	}
}
