// Package realtime brokers ephemeral OpenAI Realtime sessions. The
// browser completes the WebRTC handshake directly with OpenAI; this
// server only mints the short-lived credentials.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hannalabs/hanna-api/internal/httpc"
	"github.com/hannalabs/hanna-api/internal/log"
)

const sessionsURL = "https://api.openai.com/v1/realtime/sessions"

// instructions is Hanna's persona prompt, sent with every session.
const instructions = "Você é a Hanna, brasileira, simpática, soando como se estivesse sorrindo. " +
	"Regra de ouro: responda em 1 frase (8–18 palavras), direta e útil. " +
	"Não repita a pergunta. Evite rodeios e formalidades. " +
	"Ao usar ferramentas, confirme em 1 sentença o resultado. " +
	"Otimize custo: mínimo de tokens sem perder clareza. " +
	"Quando perguntarem seu nome, apresente-se como 'Hanna'."

// ErrNoAPIKey indicates OPENAI_API_KEY is unset.
var ErrNoAPIKey = errors.New("realtime: OPENAI_API_KEY not configured")

// APIError is an error response from the OpenAI API, with the raw body
// preserved so the front-end can debug it.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("realtime: API error %d: %s", e.StatusCode, e.Body)
}

// Config configures the broker.
type Config struct {
	APIKey    string
	OrgID     string
	ProjectID string
	Model     string
	Voice     string
}

// Broker creates ephemeral Realtime sessions.
type Broker struct {
	cfg    Config
	client *http.Client
	url    string
}

// New creates a Broker.
func New(cfg Config) *Broker {
	return &Broker{cfg: cfg, client: httpc.Client, url: sessionsURL}
}

// Payload builds the session-creation request body. Model and voice
// fall back to the configured defaults when empty.
func (b *Broker) Payload(model, voice string, maxTokens int) map[string]any {
	if model == "" {
		model = b.cfg.Model
	}
	if voice == "" {
		voice = b.cfg.Voice
	}
	payload := map[string]any{
		"model":        model,
		"voice":        voice,
		"modalities":   []string{"text", "audio"},
		"instructions": instructions,
	}
	if maxTokens > 0 {
		payload["max_response_output_tokens"] = maxTokens
	}
	return payload
}

// CreateSession mints an ephemeral session and returns OpenAI's raw
// JSON response for the browser to complete the WebRTC setup.
func (b *Broker) CreateSession(ctx context.Context, model, voice string, maxTokens int) (json.RawMessage, error) {
	if b.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	body, err := json.Marshal(b.Payload(model, voice, maxTokens))
	if err != nil {
		return nil, fmt.Errorf("realtime: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("realtime: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "realtime=v1")
	if b.cfg.OrgID != "" {
		req.Header.Set("OpenAI-Organization", b.cfg.OrgID)
	}
	if b.cfg.ProjectID != "" {
		req.Header.Set("OpenAI-Project", b.cfg.ProjectID)
	}

	res, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("realtime: create session: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("realtime: read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &APIError{StatusCode: res.StatusCode, Body: string(raw)}
	}

	log.Debug("realtime session created", "model", b.cfg.Model)
	return json.RawMessage(raw), nil
}
