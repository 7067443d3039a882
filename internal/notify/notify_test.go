package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbot/internal/logging"
	"finbot/internal/parsererror"
)

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(42), body["chat_id"])
		assert.Equal(t, "Напоминание о подписке", body["text"])

		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	notifier, err := New("TOKEN", server.URL, logging.NewMockLogger())
	require.NoError(t, err)

	err = notifier.SendMessage(context.Background(), 42, "Напоминание о подписке")
	assert.NoError(t, err)
}

func TestSendMessageRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	notifier, err := New("TOKEN", server.URL, logging.NewMockLogger())
	require.NoError(t, err)

	err = notifier.SendMessage(context.Background(), 42, "hi")
	var terr *parsererror.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusForbidden, terr.Status)
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New("", "", logging.NewMockLogger())
	assert.Error(t, err)
}
