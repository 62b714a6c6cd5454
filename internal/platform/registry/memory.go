package registry

import (
	"sort"
	"sync"
	"time"

	"agrihub/internal/platform/models"
)

// MemoryStore keeps webhook configurations in process memory. This is the
// default backend; configurations do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	webhooks map[string]*models.Webhook
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{webhooks: make(map[string]*models.Webhook)}
}

func (s *MemoryStore) List() ([]*models.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Webhook, 0, len(s.webhooks))
	for _, w := range s.webhooks {
		out = append(out, w.Clone())
	}
	// Stable ordering for clients; the map iteration order is not.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Get(id string) (*models.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.webhooks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return w.Clone(), nil
}

func (s *MemoryStore) Create(webhook *models.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.webhooks[webhook.ID]; ok {
		return ErrExists
	}
	s.webhooks[webhook.ID] = webhook.Clone()
	return nil
}

func (s *MemoryStore) Update(id string, upd models.WebhookUpdate) (*models.Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.webhooks[id]
	if !ok {
		return nil, ErrNotFound
	}

	if upd.Name != nil {
		w.Name = *upd.Name
	}
	if upd.URL != nil {
		w.URL = *upd.URL
	}
	if upd.Secret != nil {
		w.Secret = *upd.Secret
	}
	if upd.Events != nil {
		w.Events = append([]string(nil), upd.Events...)
	}
	if upd.Active != nil {
		w.Active = *upd.Active
	}
	w.UpdatedAt = time.Now().Unix()

	return w.Clone(), nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.webhooks[id]; !ok {
		return ErrNotFound
	}
	delete(s.webhooks, id)
	return nil
}

func (s *MemoryStore) ListByEvent(event string) ([]*models.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Webhook
	for _, w := range s.webhooks {
		if !w.Active {
			continue
		}
		for _, e := range w.Events {
			if e == event {
				matched = append(matched, w.Clone())
				break
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, nil
}

func (s *MemoryStore) RecordDelivery(id string, success bool, at int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.webhooks[id]
	if !ok {
		return ErrNotFound
	}

	if success {
		w.LastTriggeredAt = &at
	} else {
		w.FailureCount++
	}
	return nil
}
