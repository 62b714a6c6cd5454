package registry

import (
	"errors"

	"agrihub/internal/platform/models"
)

var (
	ErrNotFound = errors.New("webhook not found")
	ErrExists   = errors.New("webhook id already exists")
)

// Store is the persistence boundary for webhook configurations. Callers own
// id generation and event validation; implementations own concurrency safety
// and must serialize mutations to a single entry.
type Store interface {
	List() ([]*models.Webhook, error)
	Get(id string) (*models.Webhook, error)
	Create(webhook *models.Webhook) error
	Update(id string, upd models.WebhookUpdate) (*models.Webhook, error)
	Delete(id string) error

	// ListByEvent returns active webhooks subscribed to the event.
	ListByEvent(event string) ([]*models.Webhook, error)

	// RecordDelivery updates per-entry delivery bookkeeping: lastTriggered
	// on success, failureCount on failure.
	RecordDelivery(id string, success bool, at int64) error
}
