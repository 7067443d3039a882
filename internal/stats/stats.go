// Package stats aggregates a user's recent transactions into the summary
// shown on the dashboard: thirty-day totals, balance, top spending categories
// and the daily average.
package stats

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finbot/internal/logging"
	"finbot/internal/models"
)

const (
	windowDays    = 30
	topCategories = 5
)

// TransactionLister is the read capability the aggregator needs.
type TransactionLister interface {
	ListTransactionsSince(ctx context.Context, userID int64, since time.Time) ([]models.TransactionRecord, error)
}

// CategoryTotal is one category's share of recent spending.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Report is the thirty-day summary for one user.
type Report struct {
	PeriodDays    int             `json:"period_days"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpense  decimal.Decimal `json:"total_expense"`
	Balance       decimal.Decimal `json:"balance"`
	DailyAverage  decimal.Decimal `json:"daily_average"`
	TopCategories []CategoryTotal `json:"top_categories"`
	Count         int             `json:"count"`
}

// Aggregator computes reports from stored transactions.
type Aggregator struct {
	lister TransactionLister
	logger logging.Logger
	now    func() time.Time
}

// New creates a stats aggregator.
func New(lister TransactionLister, logger logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Aggregator{
		lister: lister,
		logger: logger,
		now:    time.Now,
	}
}

// Report builds the thirty-day summary for one user.
func (a *Aggregator) Report(ctx context.Context, userID int64) (Report, error) {
	since := a.now().UTC().AddDate(0, 0, -windowDays)

	records, err := a.lister.ListTransactionsSince(ctx, userID, since)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		PeriodDays:   windowDays,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		Count:        len(records),
	}
	byCategory := make(map[string]decimal.Decimal)

	for _, record := range records {
		switch record.Kind {
		case models.KindIncome:
			report.TotalIncome = report.TotalIncome.Add(record.Amount)
		case models.KindExpense:
			report.TotalExpense = report.TotalExpense.Add(record.Amount)
			byCategory[record.Category] = byCategory[record.Category].Add(record.Amount)
		}
	}

	report.Balance = report.TotalIncome.Sub(report.TotalExpense)
	report.DailyAverage = report.TotalExpense.
		Div(decimal.NewFromInt(windowDays)).Round(2)
	report.TopCategories = topN(byCategory, topCategories)

	a.logger.WithFields(
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldCount, Value: report.Count},
	).Debug("Built stats report")
	return report, nil
}

// topN ranks categories by total, largest first, ties broken by name so the
// output is stable.
func topN(byCategory map[string]decimal.Decimal, n int) []CategoryTotal {
	totals := make([]CategoryTotal, 0, len(byCategory))
	for category, total := range byCategory {
		totals = append(totals, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].Total.Equal(totals[j].Total) {
			return totals[i].Total.GreaterThan(totals[j].Total)
		}
		return totals[i].Category < totals[j].Category
	})
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals
}
