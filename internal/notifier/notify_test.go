package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"verifly/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifier_Notify(t *testing.T) {
	received := make(chan ports.SecurityEvent, 1)
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

		var event ports.SecurityEvent
		assert.NoError(t, json.NewDecoder(request.Body).Decode(&event))
		received <- event
	}))
	defer server.Close()

	event := ports.SecurityEvent{
		Event:     EventRefreshTokenReuse,
		AccountID: "42",
		TokenID:   "jti",
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	err := NewWebhookNotifier(server.URL, time.Second).Notify(context.Background(), event)
	require.NoError(t, err)

	got := <-received
	assert.Equal(t, event.Event, got.Event)
	assert.Equal(t, event.AccountID, got.AccountID)
	assert.Equal(t, event.TokenID, got.TokenID)
	assert.True(t, event.Timestamp.Equal(got.Timestamp))
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewWebhookNotifier(server.URL, time.Second).Notify(context.Background(), ports.SecurityEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookNotifier_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := NewWebhookNotifier(url, time.Second).Notify(context.Background(), ports.SecurityEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ошибка отправки webhook")
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Notify(context.Background(), ports.SecurityEvent{}))
}
