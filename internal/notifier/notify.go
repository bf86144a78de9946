package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"verifly/internal/ports"
)

const EventRefreshTokenReuse = "refresh_token_reuse"

var _ ports.Notifier = (*WebhookNotifier)(nil)

// WebhookNotifier отправляет события безопасности POST запросом с json телом.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(webhookURL string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:    webhookURL,
		client: &http.Client{Timeout: timeout},
	}
}

func (notifier *WebhookNotifier) Notify(ctx context.Context, event ports.SecurityEvent) error {
	jsonBody, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ошибка преобразования в json: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, notifier.url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := notifier.client.Do(request)
	if err != nil {
		return fmt.Errorf("ошибка отправки webhook: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook ответил статусом %d", response.StatusCode)
	}

	return nil
}

// Noop используется, когда адрес webhook не задан.
type Noop struct{}

func (Noop) Notify(context.Context, ports.SecurityEvent) error { return nil }
