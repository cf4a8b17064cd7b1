package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/calloutkit/calloutbot/internal/events"
	"github.com/calloutkit/calloutbot/internal/models"
)

const testSecret = "webhook-test-secret"

func signedToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "content-system",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return raw
}

func testServer(t *testing.T, bus *events.Dispatcher) *httptest.Server {
	t.Helper()
	srv, err := NewServer(bus,
		WithSecret(testSecret),
		WithAllowedEvents("callout:updated", "callout:added"),
	)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postWebhook(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWebhook_EmitsEvent(t *testing.T) {
	bus := events.NewDispatcher()
	received := make(chan events.Descriptor, 1)
	bus.On("callout:updated", func(ctx context.Context, desc events.Descriptor, ev *models.Event) {
		received <- desc
	})

	ts := testServer(t, bus)
	resp := postWebhook(t, ts.URL+"/webhook/callout/updated", signedToken(t, testSecret))

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	select {
	case desc := <-received:
		if desc.Category != "callout" || desc.Subcategory != "updated" {
			t.Errorf("unexpected descriptor: %+v", desc)
		}
	case <-time.After(time.Second):
		t.Fatal("event never emitted")
	}
}

func errorBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body["error"]
}

func TestWebhook_InvalidToken(t *testing.T) {
	ts := testServer(t, events.NewDispatcher())

	resp := postWebhook(t, ts.URL+"/webhook/callout/updated", signedToken(t, "wrong-secret"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad signature, got %d", resp.StatusCode)
	}
	if body := errorBody(t, resp); !strings.Contains(body, "signature") {
		t.Errorf("body must carry the verification error, got %q", body)
	}
}

func TestWebhook_MissingToken(t *testing.T) {
	ts := testServer(t, events.NewDispatcher())

	resp := postWebhook(t, ts.URL+"/webhook/callout/updated", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for missing token, got %d", resp.StatusCode)
	}
	if body := errorBody(t, resp); !strings.Contains(body, "missing bearer token") {
		t.Errorf("body must name the missing token, got %q", body)
	}
}

func TestWebhook_UnknownEventName(t *testing.T) {
	ts := testServer(t, events.NewDispatcher())

	resp := postWebhook(t, ts.URL+"/webhook/not/registered", signedToken(t, testSecret))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown event, got %d", resp.StatusCode)
	}
	if body := errorBody(t, resp); body != "unauthorized" {
		t.Errorf("unknown event names get the generic error, got %q", body)
	}
}

func TestHealth(t *testing.T) {
	ts := testServer(t, events.NewDispatcher())

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}
