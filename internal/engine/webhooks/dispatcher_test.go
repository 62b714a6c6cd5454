package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"agrihub/internal/platform/config"
	"agrihub/internal/platform/models"
	"agrihub/internal/platform/registry"
)

func testDispatcher(store registry.Store) *Dispatcher {
	return NewDispatcher(store, config.WebhooksConfig{
		DeliveryTimeout: 2 * time.Second,
		ResponsePreview: 500,
	})
}

func TestDispatchFanOut(t *testing.T) {
	store := registry.NewMemoryStore()
	svc := NewService(store)

	var received int32
	var gotSignature, gotEvent string
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&received, 1)
		gotSignature = r.Header.Get("X-AgriHub-Signature")
		gotEvent = r.Header.Get("X-AgriHub-Event")

		var event models.WebhookEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			t.Errorf("payload decode: %v", err)
		}
		if event.Event != "ndvi.alert" || event.TenantID != "farm-1" {
			t.Errorf("payload = %+v, want ndvi.alert for farm-1", event)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	okWebhook, _ := svc.Create("reachable", ok.URL, "s3cret", []string{"ndvi.alert"}, true)
	deadWebhook, _ := svc.Create("dead", "http://127.0.0.1:1/hook", "", []string{"ndvi.alert"}, true)
	svc.Create("other event", ok.URL, "", []string{"pest.detected"}, true)
	svc.Create("inactive", ok.URL, "", []string{"ndvi.alert"}, false)

	attempts := testDispatcher(store).Dispatch(context.Background(), "ndvi.alert", "farm-1",
		map[string]interface{}{"parcelId": "p-1"})

	if len(attempts) != 2 {
		t.Fatalf("Dispatch() attempts = %d, want 2 (subscribed active only)", len(attempts))
	}
	if atomic.LoadInt32(&received) != 1 {
		t.Errorf("reachable target hit %d times, want 1", received)
	}
	if gotEvent != "ndvi.alert" {
		t.Errorf("event header = %q", gotEvent)
	}
	if !strings.HasPrefix(gotSignature, "sha256=") {
		t.Errorf("signature header = %q, want sha256= prefix", gotSignature)
	}

	byID := map[string]models.DeliveryAttempt{}
	for _, a := range attempts {
		byID[a.WebhookID] = a
	}
	if !byID[okWebhook.ID].Success || byID[okWebhook.ID].StatusCode != http.StatusOK {
		t.Errorf("reachable attempt = %+v, want success 200", byID[okWebhook.ID])
	}
	if byID[deadWebhook.ID].Success || byID[deadWebhook.ID].Error == "" {
		t.Errorf("dead attempt = %+v, want recorded failure", byID[deadWebhook.ID])
	}

	// Delivery bookkeeping: success stamps lastTriggered, failure increments.
	okState, _ := store.Get(okWebhook.ID)
	if okState.LastTriggeredAt == nil || okState.FailureCount != 0 {
		t.Errorf("reachable state = %+v, want lastTriggered set", okState)
	}
	deadState, _ := store.Get(deadWebhook.ID)
	if deadState.FailureCount != 1 || deadState.LastTriggeredAt != nil {
		t.Errorf("dead state = %+v, want failureCount 1", deadState)
	}
}

func TestDispatchNoSubscribers(t *testing.T) {
	store := registry.NewMemoryStore()
	attempts := testDispatcher(store).Dispatch(context.Background(), "robot.error", "farm-1", nil)
	if attempts != nil {
		t.Errorf("Dispatch() = %v, want nil when nothing is subscribed", attempts)
	}
}

func TestDispatchUnsignedWhenNoSecret(t *testing.T) {
	store := registry.NewMemoryStore()
	svc := NewService(store)

	var signature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get("X-AgriHub-Signature")
	}))
	defer server.Close()

	svc.Create("no secret", server.URL, "", []string{"robot.error"}, true)
	testDispatcher(store).Dispatch(context.Background(), "robot.error", "farm-1", nil)

	if signature != "" {
		t.Errorf("signature header = %q, want empty without a secret", signature)
	}
}

func TestTestDeliver(t *testing.T) {
	store := registry.NewMemoryStore()
	svc := NewService(store)

	body := strings.Repeat("x", 600)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event models.WebhookEvent
		json.NewDecoder(r.Body).Decode(&event)
		if event.Event != "test" {
			t.Errorf("event = %q, want test", event.Event)
		}
		w.Write([]byte(body))
	}))
	defer server.Close()

	webhook, _ := svc.Create("target", server.URL, "", []string{"ndvi.alert"}, true)

	attempt, err := testDispatcher(store).TestDeliver(context.Background(), webhook.ID, "admin@example.com")
	if err != nil {
		t.Fatalf("TestDeliver() error = %v", err)
	}
	if !attempt.Success || attempt.StatusCode != http.StatusOK {
		t.Errorf("attempt = %+v, want success 200", attempt)
	}
	// Response preview is capped.
	if len(attempt.Response) != 500 {
		t.Errorf("response preview length = %d, want 500", len(attempt.Response))
	}

	// Test deliveries never touch the delivery counters.
	state, _ := store.Get(webhook.ID)
	if state.LastTriggeredAt != nil || state.FailureCount != 0 {
		t.Errorf("state after test delivery = %+v, want untouched counters", state)
	}
}

func TestTestDeliverUnknownWebhook(t *testing.T) {
	store := registry.NewMemoryStore()
	_, err := testDispatcher(store).TestDeliver(context.Background(), "wh-missing", "admin@example.com")
	if !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("TestDeliver() error = %v, want ErrNotFound", err)
	}
}
