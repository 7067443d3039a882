// Package receipt runs the photo-to-transactions pipeline: OCR the image,
// parse the recognized text into line items, categorize each item, then
// persist every item as its own expense record. Persistence failures are
// isolated per item so one bad row never discards the rest of the receipt.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finbot/internal/logging"
	"finbot/internal/models"
	"finbot/internal/parsererror"
	"finbot/internal/semantic"
)

// Recognizer extracts text from a receipt image.
type Recognizer interface {
	RecognizeReceipt(ctx context.Context, imageData []byte) (string, error)
}

// Parser turns recognized receipt text into validated line items.
type Parser interface {
	ParseReceipt(ctx context.Context, ocrText string) (semantic.Receipt, error)
}

// ItemCategorizer assigns a canonical category to one purchased item.
type ItemCategorizer interface {
	CategorizeItem(itemName, storeName string) string
}

// TransactionSaver persists one transaction record.
type TransactionSaver interface {
	SaveTransaction(ctx context.Context, record *models.TransactionRecord) error
}

// Result summarizes one processed receipt.
type Result struct {
	Store       string          `json:"store,omitempty"`
	TotalSaved  int             `json:"total_saved"`
	TotalFailed int             `json:"total_failed"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []SavedItem     `json:"items"`
	FailedItems []string        `json:"failed_items,omitempty"`
}

// SavedItem is one line item that reached storage.
type SavedItem struct {
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
}

// Pipeline wires the receipt processing stages together.
type Pipeline struct {
	recognizer  Recognizer
	parser      Parser
	categorizer ItemCategorizer
	saver       TransactionSaver
	logger      logging.Logger
	now         func() time.Time
}

// NewPipeline creates a receipt pipeline.
func NewPipeline(recognizer Recognizer, parser Parser, categorizer ItemCategorizer, saver TransactionSaver, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Pipeline{
		recognizer:  recognizer,
		parser:      parser,
		categorizer: categorizer,
		saver:       saver,
		logger:      logger,
		now:         time.Now,
	}
}

// Process runs the full pipeline for one user's receipt image. Stage failures
// before persistence abort the whole receipt; during persistence each item
// fails independently. A receipt where nothing persisted is a failure.
func (p *Pipeline) Process(ctx context.Context, userID int64, imageData []byte) (Result, error) {
	text, err := p.recognizer.RecognizeReceipt(ctx, imageData)
	if err != nil {
		return Result{}, fmt.Errorf("recognition stage: %w", err)
	}

	parsed, err := p.parser.ParseReceipt(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("parse stage: %w", err)
	}

	result := Result{
		Store:       parsed.Store,
		TotalAmount: decimal.Zero,
	}
	createdAt := p.now().UTC()

	for _, item := range parsed.Items {
		record := &models.TransactionRecord{
			UserID:      userID,
			Amount:      item.Amount,
			Kind:        models.KindExpense,
			Category:    p.categorizer.CategorizeItem(item.Name, parsed.Store),
			Description: models.NormalizeDescription(item.Name),
			CreatedAt:   createdAt,
		}

		if err := p.saveItem(ctx, record); err != nil {
			p.logger.WithError(err).WithFields(
				logging.Field{Key: logging.FieldUserID, Value: userID},
				logging.Field{Key: "item", Value: item.Name},
			).Warn("Failed to persist receipt item")
			result.TotalFailed++
			result.FailedItems = append(result.FailedItems, item.Name)
			continue
		}

		result.TotalSaved++
		result.TotalAmount = result.TotalAmount.Add(item.Amount)
		result.Items = append(result.Items, SavedItem{
			Name:     record.Description,
			Amount:   record.Amount,
			Category: record.Category,
		})
	}

	if result.TotalSaved == 0 {
		return Result{}, &parsererror.PersistenceError{
			Operation: "save receipt items",
			Err:       errors.New("no items persisted"),
		}
	}

	p.logger.WithFields(
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldCount, Value: result.TotalSaved},
		logging.Field{Key: "failed", Value: result.TotalFailed},
	).Info("Receipt processed")
	return result, nil
}

// saveItem validates and persists one item record.
func (p *Pipeline) saveItem(ctx context.Context, record *models.TransactionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	return p.saver.SaveTransaction(ctx, record)
}
