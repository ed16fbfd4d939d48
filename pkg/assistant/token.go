package assistant

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// tokenVersion is the continuation-token schema version. Decoding
// validates it so future fields can be added without old tokens being
// misread: unknown versions fail closed as ErrInvalidToken.
const tokenVersion = 1

// Token kinds.
const (
	tokenKindSlots   = "slots"
	tokenKindConfirm = "confirm"
)

// tokenEnvelope is the versioned wire form of a continuation token:
// a URL-safe base64 encoding of this JSON document. The token is the
// only state carried between dialogue turns.
type tokenEnvelope struct {
	Version int           `json:"v"`
	Kind    string        `json:"kind"`
	Slots   *slotState    `json:"slots,omitempty"`
	Pending *pendingEvent `json:"pending,omitempty"`
}

// slotState carries a partially filled creation request between turns.
type slotState struct {
	Intent       string `json:"intent"`
	Slots        Slots  `json:"slots"`
	Timezone     string `json:"tz"`
	OriginalText string `json:"original_text"`
}

// pendingEvent carries a fully resolved candidate event awaiting the
// user's conflict confirmation.
type pendingEvent struct {
	Title           string     `json:"title"`
	Location        string     `json:"location,omitempty"`
	Attendees       []Attendee `json:"attendees,omitempty"`
	DurationMinutes int        `json:"duration"`
	StartISO        string     `json:"start_iso"`
	Timezone        string     `json:"tz"`
	OriginalText    string     `json:"original_text"`
}

// encodeToken serializes env into an opaque URL-safe token.
func encodeToken(env tokenEnvelope) (string, error) {
	env.Version = tokenVersion
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("assistant: encode token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// decodeToken reverses encodeToken. Any malformed, tampered or
// unrecognized token decodes to ErrInvalidToken — a condition distinct
// from "token valid but slots incomplete".
func decodeToken(token string) (tokenEnvelope, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(token), "="))
	if err != nil {
		return tokenEnvelope{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var env tokenEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return tokenEnvelope{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if env.Version != tokenVersion {
		return tokenEnvelope{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidToken, env.Version)
	}
	switch env.Kind {
	case tokenKindSlots:
		if env.Slots == nil {
			return tokenEnvelope{}, fmt.Errorf("%w: missing slot state", ErrInvalidToken)
		}
	case tokenKindConfirm:
		if env.Pending == nil {
			return tokenEnvelope{}, fmt.Errorf("%w: missing pending event", ErrInvalidToken)
		}
	default:
		return tokenEnvelope{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidToken, env.Kind)
	}
	return env, nil
}
