package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbot/internal/logging"
	"finbot/internal/models"
	"finbot/internal/parsererror"
)

// fakeCompletions returns a handler answering every chat-completions request
// with the given message content.
func fakeCompletions(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 0.0, body["temperature"])

		response := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, logging.NewMockLogger())
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{}, logging.NewMockLogger())
	assert.Error(t, err)
}

func TestCompletionsURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "", want: "https://api.deepseek.com/v1/chat/completions"},
		{base: "https://api.deepseek.com", want: "https://api.deepseek.com/v1/chat/completions"},
		{base: "https://api.deepseek.com/v1", want: "https://api.deepseek.com/v1/chat/completions"},
		{base: "https://api.deepseek.com/v1/", want: "https://api.deepseek.com/v1/chat/completions"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, completionsURL(tt.base))
	}
}

func TestParseEntry(t *testing.T) {
	client := newTestClient(t, fakeCompletions(t,
		`{"amount": 450.0, "type": "expense", "category": "Кафе и Рестораны", "description": "Кофе"}`))

	outcome, err := client.ParseEntry(context.Background(), "450 кофе")
	require.NoError(t, err)
	assert.True(t, outcome.Amount.Equal(decimal.NewFromInt(450)))
	assert.Equal(t, models.KindExpense, outcome.Kind)
	assert.Equal(t, models.CategoryCafes, outcome.Category)
	assert.Equal(t, "Кофе", outcome.Description)
}

func TestParseEntryFencedJSON(t *testing.T) {
	content := "Вот результат:\n```json\n{\"amount\": 120, \"type\": \"expense\", \"category\": \"Транспорт\", \"description\": \"Метро\"}\n```\nГотово."
	client := newTestClient(t, fakeCompletions(t, content))

	outcome, err := client.ParseEntry(context.Background(), "метро 120")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryTransport, outcome.Category)
	assert.True(t, outcome.Amount.Equal(decimal.NewFromInt(120)))
}

func TestParseEntryBraceScan(t *testing.T) {
	content := `The answer is {"amount": 99, "type": "expense", "category": "Разное", "description": "x"} as requested`
	client := newTestClient(t, fakeCompletions(t, content))

	outcome, err := client.ParseEntry(context.Background(), "99 x")
	require.NoError(t, err)
	assert.True(t, outcome.Amount.Equal(decimal.NewFromInt(99)))
}

func TestParseEntryAmountAsString(t *testing.T) {
	client := newTestClient(t, fakeCompletions(t,
		`{"amount": "89,50", "type": "expense", "category": "Продукты", "description": "Молоко"}`))

	outcome, err := client.ParseEntry(context.Background(), "молоко 89.50")
	require.NoError(t, err)
	assert.True(t, outcome.Amount.Equal(decimal.RequireFromString("89.5")))
}

func TestParseEntryCoercions(t *testing.T) {
	t.Run("unknown kind becomes expense", func(t *testing.T) {
		client := newTestClient(t, fakeCompletions(t,
			`{"amount": 10, "type": "transfer", "category": "Продукты", "description": "x"}`))
		outcome, err := client.ParseEntry(context.Background(), "x 10")
		require.NoError(t, err)
		assert.Equal(t, models.KindExpense, outcome.Kind)
	})

	t.Run("unknown category becomes default", func(t *testing.T) {
		client := newTestClient(t, fakeCompletions(t,
			`{"amount": 10, "type": "expense", "category": "Groceries", "description": "x"}`))
		outcome, err := client.ParseEntry(context.Background(), "x 10")
		require.NoError(t, err)
		assert.Equal(t, models.CategoryOther, outcome.Category)
	})

	t.Run("income always maps to income category", func(t *testing.T) {
		client := newTestClient(t, fakeCompletions(t,
			`{"amount": 50000, "type": "income", "category": "Продукты", "description": "зп"}`))
		outcome, err := client.ParseEntry(context.Background(), "зп 50000")
		require.NoError(t, err)
		assert.Equal(t, models.CategoryIncome, outcome.Category)
	})

	t.Run("empty description falls back to source text", func(t *testing.T) {
		client := newTestClient(t, fakeCompletions(t,
			`{"amount": 10, "type": "expense", "category": "Разное", "description": "  "}`))
		outcome, err := client.ParseEntry(context.Background(), "  чай   10 ")
		require.NoError(t, err)
		assert.Equal(t, "чай 10", outcome.Description)
	})
}

func TestParseEntryNoAmountSentinel(t *testing.T) {
	client := newTestClient(t, fakeCompletions(t, `{"error": "no_amount"}`))

	_, err := client.ParseEntry(context.Background(), "кофе без цены")
	assert.ErrorIs(t, err, parsererror.ErrNoAmount)
}

func TestParseEntryInvalidAmounts(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "negative", content: `{"amount": -5, "type": "expense", "category": "Разное", "description": "x"}`},
		{name: "zero", content: `{"amount": 0, "type": "expense", "category": "Разное", "description": "x"}`},
		{name: "above ceiling", content: `{"amount": 10000001, "type": "expense", "category": "Разное", "description": "x"}`},
		{name: "not a number", content: `{"amount": "many", "type": "expense", "category": "Разное", "description": "x"}`},
		{name: "missing", content: `{"type": "expense", "category": "Разное", "description": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, fakeCompletions(t, tt.content))
			_, err := client.ParseEntry(context.Background(), "x")
			var verr *parsererror.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestParseEntryGarbageResponse(t *testing.T) {
	client := newTestClient(t, fakeCompletions(t, "извините, не могу разобрать"))

	_, err := client.ParseEntry(context.Background(), "450 кофе")
	assert.ErrorIs(t, err, parsererror.ErrInvalidResponse)
}

func TestParseEntryTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ParseEntry(context.Background(), "450 кофе")
	var terr *parsererror.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusBadGateway, terr.Status)
	assert.True(t, parsererror.IsSoftParseFailure(err))
}

func TestParseEntryEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	})

	_, err := client.ParseEntry(context.Background(), "450 кофе")
	assert.ErrorIs(t, err, parsererror.ErrInvalidResponse)
}

func TestParseReceipt(t *testing.T) {
	client := newTestClient(t, fakeCompletions(t,
		`{"items": [{"name": "Хлеб", "amount": 45.5}, {"name": "Молоко", "amount": 89}], "total": 134.5, "store": "Пятёрочка"}`))

	receipt, err := client.ParseReceipt(context.Background(), "ПЯТЁРОЧКА\nХлеб 45.50\nМолоко 89.00\nИТОГО 134.50")
	require.NoError(t, err)
	assert.Equal(t, "Пятёрочка", receipt.Store)
	require.Len(t, receipt.Items, 2)
	assert.Equal(t, "Хлеб", receipt.Items[0].Name)
	assert.True(t, receipt.Items[0].Amount.Equal(decimal.RequireFromString("45.5")))
}

func TestParseReceiptSentinels(t *testing.T) {
	tests := []struct {
		content string
		want    error
	}{
		{content: `{"error": "not_a_receipt"}`, want: parsererror.ErrNotAReceipt},
		{content: `{"error": "unreadable"}`, want: parsererror.ErrUnreadable},
		{content: `{"items": [], "store": ""}`, want: parsererror.ErrUnreadable},
	}
	for _, tt := range tests {
		client := newTestClient(t, fakeCompletions(t, tt.content))
		_, err := client.ParseReceipt(context.Background(), "some text")
		assert.True(t, errors.Is(err, tt.want), "content %s: got %v", tt.content, err)
	}
}

func TestParseReceiptRejectsBadItems(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty name", content: `{"items": [{"name": " ", "amount": 10}], "store": "X"}`},
		{name: "zero amount", content: `{"items": [{"name": "Хлеб", "amount": 0}], "store": "X"}`},
		{name: "negative amount", content: `{"items": [{"name": "Хлеб", "amount": -1}], "store": "X"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, fakeCompletions(t, tt.content))
			_, err := client.ParseReceipt(context.Background(), "some text")
			var verr *parsererror.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestBuildReceiptPromptTruncation(t *testing.T) {
	// Cyrillic is two bytes per rune, so a byte-indexed cut would land inside
	// a character and produce invalid UTF-8.
	long := strings.Repeat("Молоко 3.2% 89.00\n", 500)

	prompt := buildReceiptPrompt(long)
	assert.True(t, utf8.ValidString(prompt))
	assert.Less(t, len(prompt), len(long))

	short := "Хлеб 45.50"
	assert.Contains(t, buildReceiptPrompt(short), short)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "bare object", content: `{"a": 1}`},
		{name: "fenced", content: "```json\n{\"a\": 1}\n```"},
		{name: "fenced without language", content: "```\n{\"a\": 1}\n```"},
		{name: "prose around object", content: `result: {"a": 1} done`},
		{name: "empty", content: "", wantErr: true},
		{name: "no json at all", content: "nothing here", wantErr: true},
		{name: "broken braces", content: "{not json}", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := extractJSON(tt.content)
			if tt.wantErr {
				assert.ErrorIs(t, err, parsererror.ErrInvalidResponse)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, `{"a": 1}`, string(raw))
		})
	}
}
