package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/studyhabit/internal/database"
	"github.com/dukerupert/studyhabit/internal/logging"
	"github.com/dukerupert/studyhabit/internal/model"
	"github.com/dukerupert/studyhabit/internal/push"
	"github.com/dukerupert/studyhabit/internal/store"
)

func setupPushHandler(t *testing.T, cfg push.Config) *PushHandler {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPushHandler(store.NewPushStore(db), push.NewService(cfg), logging.Discard())
}

func TestSubscribeListUnsubscribe(t *testing.T) {
	h := setupPushHandler(t, push.Config{})

	body := `{"endpoint":"https://push.example.com/abc","p256dh":"key","auth":"secret","device_name":"laptop"}`
	rec := httptest.NewRecorder()
	h.Subscribe(rec, httptest.NewRequest("POST", "/api/push/subscribe", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("subscribe status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var sub model.PushSubscription
	if err := json.NewDecoder(rec.Body).Decode(&sub); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sub.ID == 0 || sub.DeviceName != "laptop" {
		t.Errorf("subscription = %+v", sub)
	}

	rec = httptest.NewRecorder()
	h.ListSubscriptions(rec, httptest.NewRequest("GET", "/api/push/subscriptions", nil))
	var subs []model.PushSubscription
	json.NewDecoder(rec.Body).Decode(&subs)
	if len(subs) != 1 {
		t.Fatalf("subscriptions = %d, want 1", len(subs))
	}

	req := httptest.NewRequest("DELETE", "/api/push/subscriptions/1", nil)
	req.SetPathValue("id", "1")
	rec = httptest.NewRecorder()
	h.Unsubscribe(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("unsubscribe status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = httptest.NewRecorder()
	h.ListSubscriptions(rec, httptest.NewRequest("GET", "/api/push/subscriptions", nil))
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("list after delete = %s, want []", rec.Body.String())
	}
}

func TestSubscribeValidation(t *testing.T) {
	h := setupPushHandler(t, push.Config{})

	rec := httptest.NewRecorder()
	h.Subscribe(rec, httptest.NewRequest("POST", "/api/push/subscribe", strings.NewReader(`{"endpoint":"https://x"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUnsubscribeBadID(t *testing.T) {
	h := setupPushHandler(t, push.Config{})

	req := httptest.NewRequest("DELETE", "/api/push/subscriptions/abc", nil)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()
	h.Unsubscribe(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetVAPIDKey(t *testing.T) {
	h := setupPushHandler(t, push.Config{})
	rec := httptest.NewRecorder()
	h.GetVAPIDKey(rec, httptest.NewRequest("GET", "/api/push/vapid-key", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unconfigured status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	pub, priv, err := push.GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	h = setupPushHandler(t, push.Config{VAPIDPublicKey: pub, VAPIDPrivateKey: priv})
	rec = httptest.NewRecorder()
	h.GetVAPIDKey(rec, httptest.NewRequest("GET", "/api/push/vapid-key", nil))

	var got map[string]string
	json.NewDecoder(rec.Body).Decode(&got)
	if got["public_key"] != pub {
		t.Errorf("public_key = %q, want %q", got["public_key"], pub)
	}
}
