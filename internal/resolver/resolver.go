// Package resolver decides how a free-text message becomes a transaction:
// the semantic parser is tried first, and a soft failure there diverts to
// the deterministic fallback parser. Each path runs at most once per message.
package resolver

import (
	"context"

	"finbot/internal/fallback"
	"finbot/internal/logging"
	"finbot/internal/models"
	"finbot/internal/parsererror"
)

// Parse paths reported in Resolution.
const (
	PathSemantic = "semantic"
	PathFallback = "fallback"
)

// EntryParser is the semantic parsing capability the resolver depends on.
type EntryParser interface {
	ParseEntry(ctx context.Context, text string) (models.ParseOutcome, error)
}

// Resolution is a parse outcome annotated with the path that produced it.
type Resolution struct {
	Outcome models.ParseOutcome
	Path    string
}

// Resolver orchestrates the semantic and fallback parse paths.
type Resolver struct {
	semantic EntryParser
	fallback *fallback.Parser
	logger   logging.Logger
}

// New creates a resolver. The semantic parser may be nil, in which case every
// message goes straight to the fallback parser.
func New(semantic EntryParser, fb *fallback.Parser, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Resolver{
		semantic: semantic,
		fallback: fb,
		logger:   logger,
	}
}

// Resolve parses one message. The semantic path is attempted once; a soft
// failure there (no amount, malformed response, upstream error) diverts to
// the fallback parser, which also runs at most once. Hard failures such as a
// cancelled context propagate unchanged, the fallback could not do better.
// When forceIncome is set the outcome is coerced to an income record
// regardless of what either parser decided.
func (r *Resolver) Resolve(ctx context.Context, text string, forceIncome bool) (Resolution, error) {
	if r.semantic != nil {
		outcome, err := r.semantic.ParseEntry(ctx, text)
		if err == nil {
			r.logger.WithFields(
				logging.Field{Key: logging.FieldPath, Value: PathSemantic},
				logging.Field{Key: logging.FieldCategory, Value: outcome.Category},
			).Info("Message resolved via semantic parser")
			return Resolution{Outcome: forceKind(outcome, forceIncome), Path: PathSemantic}, nil
		}
		if !parsererror.IsSoftParseFailure(err) {
			return Resolution{}, err
		}
		r.logger.WithError(err).WithFields(
			logging.Field{Key: logging.FieldPath, Value: PathSemantic},
			logging.Field{Key: logging.FieldReason, Value: err.Error()},
		).Warn("Semantic parse failed, diverting to fallback")
	}

	outcome, err := r.fallback.Parse(text, forceIncome)
	if err != nil {
		return Resolution{}, err
	}

	r.logger.WithFields(
		logging.Field{Key: logging.FieldPath, Value: PathFallback},
		logging.Field{Key: logging.FieldCategory, Value: outcome.Category},
	).Info("Message resolved via fallback parser")
	return Resolution{Outcome: outcome, Path: PathFallback}, nil
}

// forceKind rewrites an outcome as income when the caller demanded it.
func forceKind(outcome models.ParseOutcome, forceIncome bool) models.ParseOutcome {
	if forceIncome {
		outcome.Kind = models.KindIncome
		outcome.Category = models.CategoryIncome
	}
	return outcome
}
