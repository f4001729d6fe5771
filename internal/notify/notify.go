package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/saferides/internal/models"
)

// Scheduler is the notification collaborator: it delivers a payload at a
// future time and can cancel a pending delivery.
type Scheduler interface {
	ScheduleAt(ctx context.Context, at time.Time, payload map[string]any) (string, error)
	Cancel(ctx context.Context, id string) error
}

// HTTPPush posts scheduled notifications to a push gateway.
type HTTPPush struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewHTTPPush(endpoint, key string) *HTTPPush {
	return &HTTPPush{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (p *HTTPPush) ScheduleAt(ctx context.Context, at time.Time, payload map[string]any) (string, error) {
	id := uuid.NewString()
	body := map[string]any{"id": id, "deliver_at": at.UTC().Format(time.RFC3339), "payload": payload}
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint+"/notifications", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.Key != "" {
		req.Header.Set("Authorization", "Bearer "+p.Key)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: push gateway status %d", models.ErrExternalUnavailable, resp.StatusCode)
	}
	return id, nil
}

func (p *HTTPPush) Cancel(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.Endpoint+"/notifications/"+id, nil)
	if err != nil {
		return err
	}
	if p.Key != "" {
		req.Header.Set("Authorization", "Bearer "+p.Key)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
	}
	resp.Body.Close()
	return nil
}
