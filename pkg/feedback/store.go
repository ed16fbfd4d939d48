// Package feedback persists user ratings of assistant interactions as
// an append-only JSONL file.
package feedback

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidRating indicates a rating outside 1..5.
var ErrInvalidRating = errors.New("feedback: rating must be between 1 and 5")

// Entry is one feedback record.
type Entry struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	Rating     int            `json:"rating"`
	LatencyMS  int            `json:"latency_ms,omitempty"`
	Transcript string         `json:"transcript,omitempty"`
	Response   string         `json:"response,omitempty"`
	ToolTrace  map[string]any `json:"tool_trace,omitempty"`
}

// Store appends entries to a JSONL file. Writes are serialized so
// concurrent requests never interleave lines.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a Store writing to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Append validates and writes one entry, assigning its ID and
// timestamp.
func (s *Store) Append(e Entry) (Entry, error) {
	if e.Rating < 1 || e.Rating > 5 {
		return Entry{}, ErrInvalidRating
	}
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()

	line, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("feedback: encode entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Entry{}, fmt.Errorf("feedback: open log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return Entry{}, fmt.Errorf("feedback: write entry: %w", err)
	}
	return e, nil
}
