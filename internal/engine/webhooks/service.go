package webhooks

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"agrihub/internal/platform/models"
	"agrihub/internal/platform/registry"
)

// InvalidEventsError reports event names outside the fixed vocabulary.
type InvalidEventsError struct {
	Events []string
}

func (e *InvalidEventsError) Error() string {
	return fmt.Sprintf("invalid events: %s (valid events: %s)",
		strings.Join(e.Events, ", "), strings.Join(models.EventTypes, ", "))
}

func validateEvents(events []string) error {
	var invalid []string
	for _, e := range events {
		if !models.IsValidEvent(e) {
			invalid = append(invalid, e)
		}
	}
	if len(invalid) > 0 {
		return &InvalidEventsError{Events: invalid}
	}
	return nil
}

// Service owns webhook configuration semantics: id generation, event
// vocabulary enforcement and partial-update application over a Store.
type Service struct {
	store registry.Store
}

func NewService(store registry.Store) *Service {
	return &Service{store: store}
}

func (s *Service) List() ([]*models.Webhook, error) {
	return s.store.List()
}

func (s *Service) Get(id string) (*models.Webhook, error) {
	return s.store.Get(id)
}

func (s *Service) Create(name, url, secret string, events []string, active bool) (*models.Webhook, error) {
	if err := validateEvents(events); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	webhook := &models.Webhook{
		ID:              "wh-" + uuid.New().String()[:8],
		Name:            name,
		URL:             url,
		Secret:          secret,
		Events:          append([]string(nil), events...),
		Active:          active,
		LastTriggeredAt: nil,
		FailureCount:    0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Create(webhook); err != nil {
		return nil, err
	}
	return webhook, nil
}

// Update applies only the fields present in upd. Event names are validated
// on update as well as create; letting an update smuggle in an unknown event
// would break dispatch matching silently.
func (s *Service) Update(id string, upd models.WebhookUpdate) (*models.Webhook, error) {
	if upd.Events != nil {
		if err := validateEvents(upd.Events); err != nil {
			return nil, err
		}
	}
	return s.store.Update(id, upd)
}

func (s *Service) Delete(id string) error {
	return s.store.Delete(id)
}
