package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPayloadDefaults(t *testing.T) {
	b := New(Config{Model: "gpt-4o-realtime-preview", Voice: "alloy"})

	p := b.Payload("", "", 0)
	if p["model"] != "gpt-4o-realtime-preview" || p["voice"] != "alloy" {
		t.Errorf("defaults not applied: %v", p)
	}
	if _, ok := p["max_response_output_tokens"]; ok {
		t.Error("max tokens should be omitted when unset")
	}
	if p["instructions"] == "" {
		t.Error("persona instructions missing")
	}

	p = b.Payload("gpt-4o-mini-realtime", "verse", 800)
	if p["model"] != "gpt-4o-mini-realtime" || p["voice"] != "verse" {
		t.Errorf("overrides not applied: %v", p)
	}
	if p["max_response_output_tokens"] != 800 {
		t.Errorf("max tokens = %v", p["max_response_output_tokens"])
	}
}

func TestCreateSessionRequiresAPIKey(t *testing.T) {
	b := New(Config{})

	if _, err := b.CreateSession(context.Background(), "", "", 0); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("error = %v, want ErrNoAPIKey", err)
	}
}

func TestCreateSession(t *testing.T) {
	var gotAuth, gotBeta string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBeta = r.Header.Get("OpenAI-Beta")

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if payload["model"] != "gpt-4o-realtime-preview" {
			t.Errorf("model = %v", payload["model"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"sess_123","client_secret":{"value":"ek_abc"}}`))
	}))
	defer srv.Close()

	b := New(Config{APIKey: "sk-test", Model: "gpt-4o-realtime-preview", Voice: "alloy"})
	b.url = srv.URL
	b.client = srv.Client()

	raw, err := b.CreateSession(context.Background(), "", "", 0)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBeta != "realtime=v1" {
		t.Errorf("OpenAI-Beta = %q", gotBeta)
	}

	var res map[string]any
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("response not passed through verbatim: %v", err)
	}
	if res["id"] != "sess_123" {
		t.Errorf("session id = %v", res["id"])
	}
}

func TestCreateSessionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	b := New(Config{APIKey: "sk-bad"})
	b.url = srv.URL
	b.client = srv.Client()

	_, err := b.CreateSession(context.Background(), "", "", 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
}
