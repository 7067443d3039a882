package assistant

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbot/internal/models"
	"finbot/internal/stats"
)

func TestFinancialContext(t *testing.T) {
	report := stats.Report{
		PeriodDays:   30,
		TotalIncome:  decimal.NewFromInt(90000),
		TotalExpense: decimal.NewFromInt(45000),
		Balance:      decimal.NewFromInt(45000),
		DailyAverage: decimal.NewFromInt(1500),
		TopCategories: []stats.CategoryTotal{
			{Category: models.CategoryGroceries, Total: decimal.NewFromInt(20000)},
			{Category: models.CategoryCafes, Total: decimal.NewFromInt(9000)},
		},
		Count: 42,
	}
	subs := []models.SubscriptionRecord{
		{Name: "Netflix", Amount: decimal.NewFromInt(599), Currency: models.CurrencyRUB},
	}

	got := financialContext(report, subs)

	assert.Contains(t, got, "Финансовая сводка за 30 дней")
	assert.Contains(t, got, "Баланс: 45000")
	assert.Contains(t, got, "Средние траты в день: 1500")
	assert.Contains(t, got, models.CategoryGroceries+": 20000")
	assert.Contains(t, got, models.CategoryCafes+": 9000")
	assert.Contains(t, got, "Netflix: 599 RUB")
	assert.Contains(t, got, "Транзакций за период: 42")
}

func TestFinancialContextEmpty(t *testing.T) {
	got := financialContext(stats.Report{PeriodDays: 30}, nil)

	assert.Contains(t, got, "(нет данных)")
	assert.Contains(t, got, "(нет)")
}

func TestToGenaiHistory(t *testing.T) {
	history := toGenaiHistory([]models.ChatMessage{
		{Role: models.RoleUser, Content: "сколько я потратил на кафе?"},
		{Role: models.RoleAssistant, Content: "За 30 дней — 4 500 ₽."},
	})

	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, genai.Text("сколько я потратил на кафе?"), history[0].Parts[0])
}

func TestToGenaiHistoryEmpty(t *testing.T) {
	assert.Empty(t, toGenaiHistory(nil))
}
