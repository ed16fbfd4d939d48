package homebus

import (
	"errors"
	"testing"
)

func TestTopics(t *testing.T) {
	b := New(Config{Host: "broker.local"})

	if got := b.LightTopic("sala"); got != "hanna/cmd/sala/light" {
		t.Errorf("LightTopic = %q", got)
	}
	if got := b.ACTopic("quarto"); got != "hanna/cmd/quarto/ac" {
		t.Errorf("ACTopic = %q", got)
	}

	b = New(Config{Host: "broker.local", BaseTopic: "casa"})
	if got := b.LightTopic("sala"); got != "casa/cmd/sala/light" {
		t.Errorf("LightTopic with custom base = %q", got)
	}
}

func TestPublishWithoutHost(t *testing.T) {
	b := New(Config{})

	if err := b.Publish("hanna/cmd/sala/light", "on"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Publish without host = %v, want ErrNotConfigured", err)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &Error{Topic: "hanna/cmd/sala/light", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("Error does not unwrap to its cause")
	}
	if err.Error() == "" {
		t.Error("empty error string")
	}
}
