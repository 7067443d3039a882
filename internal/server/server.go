// Package server exposes the bot backend over HTTP. Every user-facing
// endpoint authenticates Telegram init data and rate limits per user; the
// renewal endpoint is reserved for the cron runner and guarded by a shared
// secret instead.
package server

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"
	"strings"
	"time"

	"finbot/internal/auth"
	"finbot/internal/logging"
	"finbot/internal/receipt"
	"finbot/internal/resolver"
	"finbot/internal/scheduler"
	"finbot/internal/stats"
)

// Request body caps. Receipts carry an image, everything else is small JSON.
const (
	maxJSONBody    = 32 << 10
	maxReceiptBody = 10 << 20
	maxImageBytes  = 7 << 20
)

// Resolver parses free text into a transaction outcome.
type Resolver interface {
	Resolve(ctx context.Context, text string, forceIncome bool) (resolver.Resolution, error)
}

// ReceiptProcessor runs the photo-to-transactions pipeline.
type ReceiptProcessor interface {
	Process(ctx context.Context, userID int64, imageData []byte) (receipt.Result, error)
}

// Authenticator verifies Telegram init data.
type Authenticator interface {
	Verify(initData string) (auth.User, error)
}

// RateLimiter applies the per-user request cap.
type RateLimiter interface {
	Allow(userID int64) bool
}

// RenewalRunner executes one subscription renewal sweep.
type RenewalRunner interface {
	Run(ctx context.Context) (scheduler.Summary, error)
}

// StatsReporter builds the dashboard summary.
type StatsReporter interface {
	Report(ctx context.Context, userID int64) (stats.Report, error)
}

// Assistant answers free-form questions.
type Assistant interface {
	Ask(ctx context.Context, userID int64, question string) (string, error)
}

// Exporter streams a user's history as CSV.
type Exporter interface {
	WriteCSV(ctx context.Context, userID int64, w io.Writer) error
}

// Server routes API requests to the domain components.
type Server struct {
	resolver      Resolver
	receipts      ReceiptProcessor
	authenticator Authenticator
	limiter       RateLimiter
	renewals      RenewalRunner
	reporter      StatsReporter
	assistant     Assistant
	exporter      Exporter
	store         Store
	cronSecret    string
	logger        logging.Logger
	now           func() time.Time
}

// Deps bundles the server's collaborators.
type Deps struct {
	Resolver      Resolver
	Receipts      ReceiptProcessor
	Authenticator Authenticator
	Limiter       RateLimiter
	Renewals      RenewalRunner
	Reporter      StatsReporter
	Assistant     Assistant
	Exporter      Exporter
	Store         Store
	CronSecret    string
	Logger        logging.Logger
}

// New creates a server.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Server{
		resolver:      deps.Resolver,
		receipts:      deps.Receipts,
		authenticator: deps.Authenticator,
		limiter:       deps.Limiter,
		renewals:      deps.Renewals,
		reporter:      deps.Reporter,
		assistant:     deps.Assistant,
		exporter:      deps.Exporter,
		store:         deps.Store,
		cronSecret:    deps.CronSecret,
		logger:        logger,
		now:           time.Now,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/entries", s.authenticated(s.handleCreateEntry))
	mux.Handle("DELETE /api/entries/{id}", s.authenticated(s.handleDeleteEntry))
	mux.Handle("POST /api/receipts", s.authenticated(s.handleReceipt))
	mux.Handle("GET /api/subscriptions", s.authenticated(s.handleListSubscriptions))
	mux.Handle("POST /api/subscriptions", s.authenticated(s.handleCreateSubscription))
	mux.Handle("DELETE /api/subscriptions/{id}", s.authenticated(s.handleDeleteSubscription))
	mux.Handle("GET /api/settings", s.authenticated(s.handleGetSettings))
	mux.Handle("POST /api/settings", s.authenticated(s.handleUpdateSettings))
	mux.Handle("GET /api/stats", s.authenticated(s.handleStats))
	mux.Handle("GET /api/export", s.authenticated(s.handleExport))
	mux.Handle("POST /api/chat", s.authenticated(s.handleChat))

	mux.HandleFunc("GET /api/cron/renewals", s.handleRenewals)

	return mux
}

type contextKey string

const userKey contextKey = "user"

// authenticated wraps a handler with init data verification and per-user rate
// limiting.
func (s *Server) authenticated(next func(http.ResponseWriter, *http.Request, auth.User)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.authenticator.Verify(r.Header.Get("X-Telegram-Init-Data"))
		if err != nil {
			s.fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !s.limiter.Allow(user.ID) {
			s.fail(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)), user)
	})
}

// handleRenewals triggers one renewal sweep. Only the cron runner knows the
// bearer secret.
func (s *Server) handleRenewals(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if s.cronSecret == "" || !ok ||
		subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) != 1 {
		s.fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	summary, err := s.renewals.Run(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Renewal sweep failed")
		s.fail(w, http.StatusInternalServerError, "renewal sweep failed")
		return
	}
	s.ok(w, summary)
}
