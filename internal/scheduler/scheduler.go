// Package scheduler runs the subscription renewal sweep: it finds
// subscriptions whose next occurrence lands three days from now, notifies
// their owners, and advances the occurrence date by one period. Each
// subscription is processed independently so one failure never blocks the
// sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"finbot/internal/dateutils"
	"finbot/internal/logging"
	"finbot/internal/models"
)

// Lead time between the reminder and the actual renewal date.
const reminderLeadDays = 3

// SubscriptionStore is the persistence surface the scheduler needs.
type SubscriptionStore interface {
	// ListDue returns all subscriptions whose next date falls on due
	// (date-only comparison).
	ListDue(ctx context.Context, due time.Time) ([]models.SubscriptionRecord, error)
	// AdvanceNextDate moves a subscription's next date from one value to
	// another. It reports false without error when the stored date no longer
	// matches from, which means another sweep already advanced it.
	AdvanceNextDate(ctx context.Context, id string, from, to time.Time) (bool, error)
}

// Messenger delivers a reminder to a user.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Summary tallies one renewal sweep.
type Summary struct {
	Processed int `json:"processed"`
	Notified  int `json:"notified"`
	Errors    int `json:"errors"`
}

// Scheduler performs renewal sweeps.
type Scheduler struct {
	store     SubscriptionStore
	messenger Messenger
	logger    logging.Logger
	now       func() time.Time
}

// New creates a renewal scheduler.
func New(store SubscriptionStore, messenger Messenger, logger logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Scheduler{
		store:     store,
		messenger: messenger,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one renewal sweep and returns its tally. The sweep itself only
// fails when the due list cannot be loaded at all.
func (s *Scheduler) Run(ctx context.Context) (Summary, error) {
	target := dateutils.Day(s.now().UTC().AddDate(0, 0, reminderLeadDays))

	due, err := s.store.ListDue(ctx, target)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list due subscriptions: %w", err)
	}

	s.logger.WithFields(
		logging.Field{Key: logging.FieldTargetDate, Value: target.Format("2006-01-02")},
		logging.Field{Key: logging.FieldCount, Value: len(due)},
	).Info("Renewal sweep started")

	var summary Summary
	for _, sub := range due {
		summary.Processed++
		period, ok := models.NormalizePeriod(sub.Period)
		if !ok {
			// The date stays put so the record surfaces again next sweep once
			// the period is repaired.
			s.logger.WithFields(
				logging.Field{Key: logging.FieldSubscription, Value: sub.Name},
				logging.Field{Key: logging.FieldPeriod, Value: sub.Period},
			).Warn("Skipping subscription with unknown period")
			continue
		}
		if err := s.processOne(ctx, sub, period, target, &summary); err != nil {
			summary.Errors++
			s.logger.WithError(err).WithFields(
				logging.Field{Key: logging.FieldSubscription, Value: sub.Name},
				logging.Field{Key: logging.FieldUserID, Value: sub.UserID},
			).Error("Failed to process subscription renewal")
		}
	}

	s.logger.WithFields(
		logging.Field{Key: "processed", Value: summary.Processed},
		logging.Field{Key: "notified", Value: summary.Notified},
		logging.Field{Key: "errors", Value: summary.Errors},
	).Info("Renewal sweep finished")
	return summary, nil
}

func (s *Scheduler) processOne(ctx context.Context, sub models.SubscriptionRecord, period string, target time.Time, summary *Summary) error {
	next := AdvanceDate(dateutils.Day(sub.NextDate), period)

	advanced, err := s.store.AdvanceNextDate(ctx, sub.ID, dateutils.Day(sub.NextDate), next)
	if err != nil {
		return fmt.Errorf("failed to advance next date: %w", err)
	}
	if !advanced {
		s.logger.WithFields(
			logging.Field{Key: logging.FieldSubscription, Value: sub.Name},
		).Debug("Subscription already advanced by another sweep")
		return nil
	}

	if err := s.messenger.SendMessage(ctx, sub.UserID, reminderText(sub, target)); err != nil {
		// The advance already happened; count the delivery failure but do not
		// roll the date back, the reminder is best effort.
		return fmt.Errorf("failed to deliver reminder: %w", err)
	}
	summary.Notified++
	return nil
}

// reminderText renders the renewal reminder message.
func reminderText(sub models.SubscriptionRecord, target time.Time) string {
	return fmt.Sprintf(
		"🔔 Напоминание: через %d дня спишется оплата\n\n%s — %s %s\nДата списания: %s",
		reminderLeadDays, sub.Name, sub.Amount.String(), sub.Currency, target.Format("02.01.2006"),
	)
}

// AdvanceDate moves a date forward by one period. Month and year advances
// clamp the day to the end of the destination month, so Jan 31 + 1 month is
// Feb 28 (or 29 in a leap year).
func AdvanceDate(date time.Time, period string) time.Time {
	switch period {
	case models.PeriodDaily:
		return date.AddDate(0, 0, 1)
	case models.PeriodWeekly:
		return date.AddDate(0, 0, 7)
	case models.PeriodMonthly:
		return addMonthsClamped(date, 1)
	case models.PeriodYearly:
		return addMonthsClamped(date, 12)
	default:
		return date
	}
}

// addMonthsClamped adds months without the normalization overflow of AddDate
// (which would turn Jan 31 + 1 month into Mar 3).
func addMonthsClamped(date time.Time, months int) time.Time {
	year := date.Year()
	month := int(date.Month()) - 1 + months
	year += month / 12
	month = month % 12

	day := date.Day()
	if last := daysInMonth(year, time.Month(month+1)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, date.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
