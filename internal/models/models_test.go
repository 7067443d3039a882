package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRecordValidate(t *testing.T) {
	valid := TransactionRecord{
		UserID:      1,
		Amount:      decimal.NewFromInt(450),
		Kind:        KindExpense,
		Category:    CategoryCafes,
		Description: "450 кофе",
		CreatedAt:   time.Now(),
	}

	tests := []struct {
		name    string
		mutate  func(r *TransactionRecord)
		wantErr bool
	}{
		{name: "valid expense", mutate: func(r *TransactionRecord) {}, wantErr: false},
		{
			name: "valid income",
			mutate: func(r *TransactionRecord) {
				r.Kind = KindIncome
				r.Category = CategoryIncome
			},
		},
		{
			name:    "zero amount",
			mutate:  func(r *TransactionRecord) { r.Amount = decimal.Zero },
			wantErr: true,
		},
		{
			name:    "negative amount",
			mutate:  func(r *TransactionRecord) { r.Amount = decimal.NewFromInt(-5) },
			wantErr: true,
		},
		{
			name:    "amount above ceiling",
			mutate:  func(r *TransactionRecord) { r.Amount = decimal.NewFromInt(10_000_001) },
			wantErr: true,
		},
		{
			name:    "amount at ceiling is fine",
			mutate:  func(r *TransactionRecord) { r.Amount = decimal.NewFromInt(10_000_000) },
			wantErr: false,
		},
		{
			name:    "non-canonical category",
			mutate:  func(r *TransactionRecord) { r.Category = "Loot boxes" },
			wantErr: true,
		},
		{
			name:    "income with expense category",
			mutate:  func(r *TransactionRecord) { r.Kind = KindIncome },
			wantErr: true,
		},
		{
			name: "expense with income category",
			mutate: func(r *TransactionRecord) {
				r.Category = CategoryIncome
			},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			mutate:  func(r *TransactionRecord) { r.Kind = "transfer" },
			wantErr: true,
		},
		{
			name:    "blank description",
			mutate:  func(r *TransactionRecord) { r.Description = "   " },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := valid
			tt.mutate(&record)
			err := record.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseOutcomeRecord(t *testing.T) {
	outcome := ParseOutcome{
		Amount:      decimal.NewFromInt(500),
		Kind:        KindExpense,
		Category:    CategoryCafes,
		Description: "  500   кофе  ",
	}

	record := outcome.Record(42, time.Time{})
	assert.Equal(t, int64(42), record.UserID)
	assert.Equal(t, "500 кофе", record.Description)
	assert.False(t, record.CreatedAt.IsZero())
	require.NoError(t, record.Validate())

	explicit := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	record = outcome.Record(42, explicit)
	assert.Equal(t, explicit, record.CreatedAt)
}

func TestNormalizeDescription(t *testing.T) {
	assert.Equal(t, "кофе с собой", NormalizeDescription(" кофе \n с  собой "))
	assert.Equal(t, DescriptionPlaceholder, NormalizeDescription("   "))
	assert.Equal(t, DescriptionPlaceholder, NormalizeDescription(""))
}

func TestNormalizePeriod(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"monthly", PeriodMonthly, true},
		{"month", PeriodMonthly, true},
		{"Year", PeriodYearly, true},
		{"yearly", PeriodYearly, true},
		{"week", PeriodWeekly, true},
		{"weekly", PeriodWeekly, true},
		{"day", PeriodDaily, true},
		{"DAILY", PeriodDaily, true},
		{" monthly ", PeriodMonthly, true},
		{"fortnightly", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizePeriod(tt.in)
		assert.Equal(t, tt.wantOK, ok, "period %q", tt.in)
		assert.Equal(t, tt.want, got, "period %q", tt.in)
	}
}

func TestSubscriptionRecordValidate(t *testing.T) {
	valid := SubscriptionRecord{
		UserID:   1,
		Name:     "Netflix",
		Amount:   decimal.NewFromInt(799),
		Currency: CurrencyRUB,
		Period:   PeriodMonthly,
		NextDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, valid.Validate())

	blank := valid
	blank.Name = " "
	assert.Error(t, blank.Validate())

	badCurrency := valid
	badCurrency.Currency = "GBP"
	assert.Error(t, badCurrency.Validate())

	legacyPeriod := valid
	legacyPeriod.Period = "month"
	assert.NoError(t, legacyPeriod.Validate())

	badPeriod := valid
	badPeriod.Period = "sometimes"
	assert.Error(t, badPeriod.Validate())
}

func TestDecimalFromString(t *testing.T) {
	got, err := DecimalFromString("45,50")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromFloat(45.5)))

	_, err = DecimalFromString("not a number")
	assert.Error(t, err)
}
