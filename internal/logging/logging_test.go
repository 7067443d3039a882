package logging

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogrusAdapter(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{name: "debug level text format", level: "debug", format: "text"},
		{name: "info level json format", level: "info", format: "json"},
		{name: "invalid level falls back to info", level: "nonsense", format: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogrusAdapter(tt.level, tt.format)
			require.NotNil(t, logger)
			// Must not panic when used.
			logger.Info("hello", Field{Key: FieldCount, Value: 1})
		})
	}
}

func TestNewLogrusAdapterFromLogger(t *testing.T) {
	logger := NewLogrusAdapterFromLogger(logrus.New())
	require.NotNil(t, logger)

	// Nil logger should still yield a usable adapter.
	logger = NewLogrusAdapterFromLogger(nil)
	require.NotNil(t, logger)
	logger.Debug("noop")
}

func TestMockLoggerCapture(t *testing.T) {
	mock := NewMockLogger()

	mock.Info("record created", Field{Key: FieldCategory, Value: "Продукты"})
	mock.WithError(errors.New("boom")).Error("save failed")
	mock.WithField(FieldUserID, int64(42)).Warn("rate limited")

	assert.Len(t, *mock.Entries, 3)
	assert.True(t, mock.HasEntry("INFO", "record created"))
	assert.True(t, mock.HasEntry("ERROR", "save failed"))

	warns := mock.GetEntriesByLevel("WARN")
	require.Len(t, warns, 1)
	require.Len(t, warns[0].Fields, 1)
	assert.Equal(t, FieldUserID, warns[0].Fields[0].Key)
}

func TestMockLoggerDerivedLoggersShareEntries(t *testing.T) {
	mock := NewMockLogger()
	derived := mock.WithField(FieldOperation, "resolve")
	derived.Info("resolved")

	assert.True(t, mock.HasEntry("INFO", "resolved"))
}

func TestDefaultLogger(t *testing.T) {
	logger := GetLogger()
	require.NotNil(t, logger)

	mock := NewMockLogger()
	SetDefaultLogger(mock)
	GetLogger().Info("via default")
	assert.True(t, mock.HasEntry("INFO", "via default"))

	SetDefaultLogger(NewLogrusAdapter("info", "text"))
}
