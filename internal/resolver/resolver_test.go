package resolver

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbot/internal/categorizer"
	"finbot/internal/fallback"
	"finbot/internal/logging"
	"finbot/internal/models"
	"finbot/internal/parsererror"
)

// stubParser counts calls and returns a fixed outcome or error.
type stubParser struct {
	outcome models.ParseOutcome
	err     error
	calls   int
}

func (s *stubParser) ParseEntry(ctx context.Context, text string) (models.ParseOutcome, error) {
	s.calls++
	return s.outcome, s.err
}

func newFallback() *fallback.Parser {
	logger := logging.NewMockLogger()
	return fallback.NewParser(categorizer.NewIndex(logger), logger)
}

func TestResolveSemanticSuccess(t *testing.T) {
	semantic := &stubParser{outcome: models.ParseOutcome{
		Amount:      decimal.NewFromInt(450),
		Kind:        models.KindExpense,
		Category:    models.CategoryCafes,
		Description: "Кофе",
	}}
	r := New(semantic, newFallback(), logging.NewMockLogger())

	res, err := r.Resolve(context.Background(), "450 кофе", false)
	require.NoError(t, err)
	assert.Equal(t, PathSemantic, res.Path)
	assert.Equal(t, models.CategoryCafes, res.Outcome.Category)
	assert.Equal(t, 1, semantic.calls)
}

func TestResolveDivertsToFallback(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "transport failure", err: &parsererror.TransportError{Service: "semantic-parser", Status: 502}},
		{name: "invalid response", err: parsererror.ErrInvalidResponse},
		{name: "no amount sentinel", err: parsererror.ErrNoAmount},
		{name: "validation failure", err: &parsererror.ValidationError{Field: "amount", Reason: "missing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			semantic := &stubParser{err: tt.err}
			r := New(semantic, newFallback(), logging.NewMockLogger())

			res, err := r.Resolve(context.Background(), "450 coffee", false)
			require.NoError(t, err)
			assert.Equal(t, PathFallback, res.Path)
			assert.True(t, res.Outcome.Amount.Equal(decimal.NewFromInt(450)))
			assert.Equal(t, models.CategoryCafes, res.Outcome.Category)
			// The semantic path is never retried.
			assert.Equal(t, 1, semantic.calls)
		})
	}
}

func TestResolveHardFailurePropagates(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "cancelled context", err: context.Canceled},
		{name: "deadline exceeded", err: context.DeadlineExceeded},
		{name: "unauthorized", err: parsererror.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			semantic := &stubParser{err: tt.err}
			r := New(semantic, newFallback(), logging.NewMockLogger())

			// The message itself is parseable, so an error here proves the
			// fallback was never consulted.
			_, err := r.Resolve(context.Background(), "450 coffee", false)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, semantic.calls)
		})
	}
}

func TestResolveBothPathsFail(t *testing.T) {
	semantic := &stubParser{err: parsererror.ErrInvalidResponse}
	r := New(semantic, newFallback(), logging.NewMockLogger())

	_, err := r.Resolve(context.Background(), "кофе без цены", false)
	assert.ErrorIs(t, err, parsererror.ErrNoAmount)
	assert.Equal(t, 1, semantic.calls)
}

func TestResolveWithoutSemanticParser(t *testing.T) {
	r := New(nil, newFallback(), logging.NewMockLogger())

	res, err := r.Resolve(context.Background(), "300 метро", false)
	require.NoError(t, err)
	assert.Equal(t, PathFallback, res.Path)
	assert.Equal(t, models.CategoryTransport, res.Outcome.Category)
}

func TestResolveForcedIncome(t *testing.T) {
	t.Run("overrides semantic outcome", func(t *testing.T) {
		semantic := &stubParser{outcome: models.ParseOutcome{
			Amount:      decimal.NewFromInt(5000),
			Kind:        models.KindExpense,
			Category:    models.CategoryOther,
			Description: "перевод",
		}}
		r := New(semantic, newFallback(), logging.NewMockLogger())

		res, err := r.Resolve(context.Background(), "5000 перевод", true)
		require.NoError(t, err)
		assert.Equal(t, models.KindIncome, res.Outcome.Kind)
		assert.Equal(t, models.CategoryIncome, res.Outcome.Category)
	})

	t.Run("propagates to fallback", func(t *testing.T) {
		semantic := &stubParser{err: parsererror.ErrInvalidResponse}
		r := New(semantic, newFallback(), logging.NewMockLogger())

		res, err := r.Resolve(context.Background(), "5000 перевод", true)
		require.NoError(t, err)
		assert.Equal(t, models.KindIncome, res.Outcome.Kind)
	})
}
