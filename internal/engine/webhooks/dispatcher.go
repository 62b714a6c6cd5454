package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"agrihub/internal/platform/config"
	"agrihub/internal/platform/models"
	"agrihub/internal/platform/registry"
)

const (
	headerSignature = "X-AgriHub-Signature"
	headerEvent     = "X-AgriHub-Event"
	headerDelivery  = "X-AgriHub-Delivery"
)

// Dispatcher fans event payloads out to subscribed webhook targets. Each
// target gets one best-effort POST with a bounded timeout; a failing target
// never affects delivery to the others.
type Dispatcher struct {
	store        registry.Store
	client       *http.Client
	previewLimit int
}

func NewDispatcher(store registry.Store, cfg config.WebhooksConfig) *Dispatcher {
	preview := cfg.ResponsePreview
	if preview <= 0 {
		preview = 500
	}
	return &Dispatcher{
		store:        store,
		client:       &http.Client{Timeout: cfg.DeliveryTimeout},
		previewLimit: preview,
	}
}

// Dispatch delivers the event to every active subscribed webhook and returns
// one attempt record per target. Target failures are recorded on the config,
// never escalated.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType, tenantID string, data interface{}) []models.DeliveryAttempt {
	webhooks, err := d.store.ListByEvent(eventType)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("webhook lookup failed")
		return nil
	}
	if len(webhooks) == 0 {
		return nil
	}

	event := &models.WebhookEvent{
		ID:        "evt-" + uuid.New().String()[:8],
		Event:     eventType,
		Timestamp: time.Now().Unix(),
		TenantID:  tenantID,
		Data:      data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("webhook payload marshal failed")
		return nil
	}

	attempts := make([]models.DeliveryAttempt, len(webhooks))
	var wg sync.WaitGroup
	for i, webhook := range webhooks {
		wg.Add(1)
		go func(i int, webhook *models.Webhook) {
			defer wg.Done()
			attempt := d.deliver(ctx, webhook, event.ID, eventType, payload, false)
			attempts[i] = attempt

			if err := d.store.RecordDelivery(webhook.ID, attempt.Success, time.Now().Unix()); err != nil {
				log.Warn().Err(err).Str("webhook_id", webhook.ID).Msg("delivery bookkeeping failed")
			}

			if attempt.Success {
				log.Debug().Str("webhook_id", webhook.ID).Str("event", eventType).
					Int("status", attempt.StatusCode).Msg("webhook delivered")
			} else {
				log.Warn().Str("webhook_id", webhook.ID).Str("event", eventType).
					Str("error", attempt.Error).Msg("webhook delivery failed")
			}
		}(i, webhook)
	}
	wg.Wait()

	return attempts
}

// TestDeliver sends a synthetic test payload to a single webhook and surfaces
// the raw outcome to the caller. It does not touch delivery counters.
func (d *Dispatcher) TestDeliver(ctx context.Context, id, triggeredBy string) (*models.DeliveryAttempt, error) {
	webhook, err := d.store.Get(id)
	if err != nil {
		return nil, err
	}

	event := &models.WebhookEvent{
		ID:        "evt-" + uuid.New().String()[:8],
		Event:     "test",
		Timestamp: time.Now().Unix(),
		Data: map[string]interface{}{
			"message":     "This is a test webhook from the integration hub",
			"triggeredBy": triggeredBy,
		},
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	attempt := d.deliver(ctx, webhook, event.ID, "test", payload, true)
	return &attempt, nil
}

func (d *Dispatcher) deliver(ctx context.Context, webhook *models.Webhook, deliveryID, eventType string, payload []byte, readBody bool) models.DeliveryAttempt {
	attempt := models.DeliveryAttempt{
		WebhookID: webhook.ID,
		Event:     eventType,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(payload))
	if err != nil {
		attempt.Error = err.Error()
		return attempt
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerEvent, eventType)
	req.Header.Set(headerDelivery, deliveryID)
	if webhook.Secret != "" {
		req.Header.Set(headerSignature, "sha256="+Sign(webhook.Secret, payload))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		attempt.Error = err.Error()
		return attempt
	}
	defer resp.Body.Close()

	attempt.StatusCode = resp.StatusCode
	attempt.Success = resp.StatusCode < 400
	if !attempt.Success {
		attempt.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	if readBody {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, int64(d.previewLimit)))
		attempt.Response = string(preview)
	}

	return attempt
}
