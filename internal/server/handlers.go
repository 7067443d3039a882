package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"finbot/internal/auth"
	"finbot/internal/dateutils"
	"finbot/internal/logging"
	"finbot/internal/models"
	"finbot/internal/parsererror"
	"finbot/internal/store"
)

// Store is the persistence surface the handlers need directly. Parsing and
// aggregation components carry their own store interfaces.
type Store interface {
	SaveTransaction(ctx context.Context, record *models.TransactionRecord) error
	DeleteTransaction(ctx context.Context, userID int64, id string) error
	CreateSubscription(ctx context.Context, sub *models.SubscriptionRecord) error
	ListSubscriptions(ctx context.Context, userID int64) ([]models.SubscriptionRecord, error)
	DeleteSubscription(ctx context.Context, userID int64, id string) error
	UpsertCurrency(ctx context.Context, userID int64, currency string) error
	GetCurrency(ctx context.Context, userID int64) (string, error)
}

type entryRequest struct {
	Text        string `json:"text"`
	Date        string `json:"date"`
	ForceIncome bool   `json:"force_income"`
}

type entryResponse struct {
	Record models.TransactionRecord `json:"record"`
	Path   string                   `json:"path"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request, user auth.User) {
	var req entryRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	text := strings.TrimSpace(req.Text)
	// A leading plus is the chat shorthand for income.
	if rest, ok := strings.CutPrefix(text, "+"); ok {
		text = strings.TrimSpace(rest)
		req.ForceIncome = true
	}
	if text == "" {
		s.fail(w, http.StatusBadRequest, "text is required")
		return
	}

	// Backdating is allowed: an explicit date replaces the server clock.
	createdAt := s.now().UTC()
	if req.Date != "" {
		day, err := dateutils.ParseDay(req.Date)
		if err != nil {
			s.fail(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		createdAt = day
	}

	resolution, err := s.resolver.Resolve(r.Context(), text, req.ForceIncome)
	if err != nil {
		if errors.Is(err, parsererror.ErrNoAmount) {
			s.fail(w, http.StatusUnprocessableEntity, "no amount found in message")
			return
		}
		s.logger.WithError(err).Error("Failed to resolve entry")
		s.fail(w, http.StatusInternalServerError, "failed to parse message")
		return
	}

	record := resolution.Outcome.Record(user.ID, createdAt)
	if err := record.Validate(); err != nil {
		s.fail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.store.SaveTransaction(r.Context(), &record); err != nil {
		s.logger.WithError(err).WithFields(
			logging.Field{Key: logging.FieldUserID, Value: user.ID},
		).Error("Failed to save transaction")
		s.fail(w, http.StatusInternalServerError, "failed to save record")
		return
	}

	s.ok(w, entryResponse{Record: record, Path: resolution.Path})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request, user auth.User) {
	err := s.store.DeleteTransaction(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.fail(w, http.StatusNotFound, "record not found")
			return
		}
		s.logger.WithError(err).Error("Failed to delete transaction")
		s.fail(w, http.StatusInternalServerError, "failed to delete record")
		return
	}
	s.ok(w, map[string]bool{"deleted": true})
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request, user auth.User) {
	if s.receipts == nil {
		s.fail(w, http.StatusServiceUnavailable, "receipt processing is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptBody)
	if err := r.ParseMultipartForm(maxReceiptBody); err != nil {
		s.fail(w, http.StatusBadRequest, "expected multipart form with an image")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.fail(w, http.StatusBadRequest, "image field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > maxImageBytes {
		s.fail(w, http.StatusRequestEntityTooLarge, "image exceeds size limit")
		return
	}

	imageData, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		s.fail(w, http.StatusBadRequest, "failed to read image")
		return
	}

	result, err := s.receipts.Process(r.Context(), user.ID, imageData)
	if err != nil {
		switch {
		case errors.Is(err, parsererror.ErrNotAReceipt):
			s.fail(w, http.StatusUnprocessableEntity, "the photo does not look like a receipt")
		case errors.Is(err, parsererror.ErrUnreadable):
			s.fail(w, http.StatusUnprocessableEntity, "could not read the receipt")
		default:
			s.logger.WithError(err).Error("Receipt processing failed")
			s.fail(w, http.StatusInternalServerError, "failed to process receipt")
		}
		return
	}
	s.ok(w, result)
}

type subscriptionRequest struct {
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Period   string `json:"period"`
	NextDate string `json:"next_date"`
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request, user auth.User) {
	var req subscriptionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	amount, err := models.DecimalFromString(req.Amount)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "amount must be a number")
		return
	}
	period, ok := models.NormalizePeriod(req.Period)
	if !ok {
		s.fail(w, http.StatusBadRequest, "unknown period")
		return
	}
	nextDate, err := dateutils.ParseDay(req.NextDate)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "next_date must be YYYY-MM-DD")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = models.CurrencyRUB
	}

	sub := models.SubscriptionRecord{
		UserID:   user.ID,
		Name:     strings.TrimSpace(req.Name),
		Amount:   amount,
		Currency: currency,
		Period:   period,
		NextDate: nextDate,
	}
	if err := sub.Validate(); err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.CreateSubscription(r.Context(), &sub); err != nil {
		s.logger.WithError(err).Error("Failed to create subscription")
		s.fail(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	s.ok(w, sub)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request, user auth.User) {
	subs, err := s.store.ListSubscriptions(r.Context(), user.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list subscriptions")
		s.fail(w, http.StatusInternalServerError, "failed to load subscriptions")
		return
	}
	if subs == nil {
		subs = []models.SubscriptionRecord{}
	}
	s.ok(w, subs)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request, user auth.User) {
	err := s.store.DeleteSubscription(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.fail(w, http.StatusNotFound, "subscription not found")
			return
		}
		s.logger.WithError(err).Error("Failed to delete subscription")
		s.fail(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	s.ok(w, map[string]bool{"deleted": true})
}

type settingsRequest struct {
	Currency string `json:"currency"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request, user auth.User) {
	currency, err := s.store.GetCurrency(r.Context(), user.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load settings")
		s.fail(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	s.ok(w, map[string]string{"currency": currency})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request, user auth.User) {
	var req settingsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if _, ok := models.AllowedCurrencies[currency]; !ok {
		s.fail(w, http.StatusBadRequest, "invalid currency, allowed: EUR, RUB, USD")
		return
	}

	if err := s.store.UpsertCurrency(r.Context(), user.ID, currency); err != nil {
		s.logger.WithError(err).Error("Failed to save settings")
		s.fail(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	s.ok(w, map[string]string{"currency": currency})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, user auth.User) {
	report, err := s.reporter.Report(r.Context(), user.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to build stats report")
		s.fail(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	s.ok(w, report)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, user auth.User) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := s.exporter.WriteCSV(r.Context(), user.ID, w); err != nil {
		// Headers may already be out; log and cut the stream.
		s.logger.WithError(err).Error("Failed to export transactions")
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, user auth.User) {
	if s.assistant == nil {
		s.fail(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}

	var req chatRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.fail(w, http.StatusBadRequest, "message is required")
		return
	}

	answer, err := s.assistant.Ask(r.Context(), user.ID, req.Message)
	if err != nil {
		s.logger.WithError(err).Error("Assistant request failed")
		s.fail(w, http.StatusInternalServerError, "assistant is unavailable")
		return
	}
	s.ok(w, map[string]string{"answer": answer})
}

// decodeJSON reads a capped JSON body into dst, answering the error response
// itself when decoding fails.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
