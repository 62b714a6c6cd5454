package webhooks

import (
	"errors"
	"strings"
	"testing"

	"agrihub/internal/platform/models"
	"agrihub/internal/platform/registry"
)

func TestServiceCreate(t *testing.T) {
	svc := NewService(registry.NewMemoryStore())

	webhook, err := svc.Create("alerts", "https://example.com/hook", "s3cret", []string{"ndvi.alert", "pest.detected"}, true)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !strings.HasPrefix(webhook.ID, "wh-") || len(webhook.ID) != 11 {
		t.Errorf("Create() id = %q, want wh- prefix with 8 char suffix", webhook.ID)
	}
	if webhook.FailureCount != 0 || webhook.LastTriggeredAt != nil {
		t.Errorf("Create() delivery state not zeroed: %+v", webhook)
	}

	stored, err := svc.Get(webhook.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Name != "alerts" || len(stored.Events) != 2 {
		t.Errorf("Get() = %+v, want persisted create fields", stored)
	}
}

func TestServiceCreateIDsUnique(t *testing.T) {
	svc := NewService(registry.NewMemoryStore())

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		webhook, err := svc.Create("hook", "https://example.com/hook", "", []string{"ndvi.alert"}, true)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[webhook.ID] {
			t.Fatalf("duplicate id issued: %s", webhook.ID)
		}
		seen[webhook.ID] = true
	}
}

func TestServiceCreateRejectsUnknownEvents(t *testing.T) {
	store := registry.NewMemoryStore()
	svc := NewService(store)

	_, err := svc.Create("bad", "https://example.com/hook", "", []string{"ndvi.alert", "made.up", "also.fake"}, true)

	var invalid *InvalidEventsError
	if !errors.As(err, &invalid) {
		t.Fatalf("Create() error = %v, want InvalidEventsError", err)
	}
	if len(invalid.Events) != 2 {
		t.Errorf("InvalidEventsError.Events = %v, want the 2 unknown names", invalid.Events)
	}

	// A rejected create must leave the registry untouched.
	list, _ := store.List()
	if len(list) != 0 {
		t.Errorf("store has %d entries after rejected create, want 0", len(list))
	}
}

func TestServiceUpdate(t *testing.T) {
	svc := NewService(registry.NewMemoryStore())
	created, _ := svc.Create("alerts", "https://example.com/hook", "s3cret", []string{"ndvi.alert"}, true)

	t.Run("partial update leaves other fields alone", func(t *testing.T) {
		name := "renamed"
		updated, err := svc.Update(created.ID, models.WebhookUpdate{Name: &name})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Name != "renamed" {
			t.Errorf("Update() name = %q, want renamed", updated.Name)
		}
		if updated.URL != created.URL || updated.Secret != created.Secret || !updated.Active {
			t.Errorf("Update() touched unset fields: %+v", updated)
		}
	})

	t.Run("rejects unknown events", func(t *testing.T) {
		_, err := svc.Update(created.ID, models.WebhookUpdate{Events: []string{"nope"}})
		var invalid *InvalidEventsError
		if !errors.As(err, &invalid) {
			t.Fatalf("Update() error = %v, want InvalidEventsError", err)
		}

		current, _ := svc.Get(created.ID)
		if len(current.Events) != 1 || current.Events[0] != "ndvi.alert" {
			t.Errorf("events changed after rejected update: %v", current.Events)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		name := "x"
		if _, err := svc.Update("wh-missing", models.WebhookUpdate{Name: &name}); !errors.Is(err, registry.ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})
}

func TestServiceDelete(t *testing.T) {
	svc := NewService(registry.NewMemoryStore())
	created, _ := svc.Create("alerts", "https://example.com/hook", "", []string{"ndvi.alert"}, true)

	if err := svc.Delete(created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(created.ID); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(created.ID); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}
