package feedback

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.log")
	s := NewStore(path)

	first, err := s.Append(Entry{Rating: 5, Transcript: "marca reunião amanhã"})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Errorf("entry not stamped: %+v", first)
	}

	second, err := s.Append(Entry{Rating: 2, LatencyMS: 840})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if second.ID == first.ID {
		t.Error("entries share an ID")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var lines []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("malformed JSONL line: %v", err)
		}
		lines = append(lines, e)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Rating != 5 || lines[1].Rating != 2 {
		t.Errorf("ratings = %d, %d", lines[0].Rating, lines[1].Rating)
	}
}

func TestAppendRejectsBadRating(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "feedback.log"))

	for _, rating := range []int{0, -1, 6} {
		if _, err := s.Append(Entry{Rating: rating}); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("Append(rating=%d) error = %v, want ErrInvalidRating", rating, err)
		}
	}
	if _, err := os.Stat(s.path); !os.IsNotExist(err) {
		t.Error("rejected entries must not create the log file")
	}
}
