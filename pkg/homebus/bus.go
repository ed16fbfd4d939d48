// Package homebus publishes home-automation commands (lights, AC) to
// the MQTT command bus. Publishes are fire-and-forget: one connection
// per message, no retained state, failures surface as a typed error.
package homebus

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/hannalabs/hanna-api/internal/log"
)

// connectTimeout bounds the broker handshake for a single publish.
const connectTimeout = 5 * time.Second

// ErrNotConfigured indicates MQTT_HOST is unset.
var ErrNotConfigured = errors.New("homebus: MQTT host not configured")

// Error is the typed command-bus integration error.
type Error struct {
	Topic string
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("homebus: publish to %s: %v", e.Topic, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Config configures the bus.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	BaseTopic string
}

// Bus publishes commands to the home-automation broker.
type Bus struct {
	cfg Config
}

// New creates a Bus. Port defaults to 1883 and the base topic to
// "hanna".
func New(cfg Config) *Bus {
	if cfg.Port == 0 {
		cfg.Port = 1883
	}
	if cfg.BaseTopic == "" {
		cfg.BaseTopic = "hanna"
	}
	return &Bus{cfg: cfg}
}

// LightTopic returns the command topic for a room's light.
func (b *Bus) LightTopic(room string) string {
	return fmt.Sprintf("%s/cmd/%s/light", b.cfg.BaseTopic, room)
}

// ACTopic returns the command topic for a room's air conditioner.
func (b *Bus) ACTopic(room string) string {
	return fmt.Sprintf("%s/cmd/%s/ac", b.cfg.BaseTopic, room)
}

// Publish sends a single message: connect, publish at QoS 0,
// disconnect. There are no retries; the caller sees the first failure.
func (b *Bus) Publish(topic, payload string) error {
	if b.cfg.Host == "" {
		return ErrNotConfigured
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", b.cfg.Host, b.cfg.Port)).
		SetClientID("hanna-api-" + uuid.NewString()[:8]).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(false)
	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
		opts.SetPassword(b.cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if tok := client.Connect(); tok.Wait() && tok.Error() != nil {
		return &Error{Topic: topic, Err: tok.Error()}
	}
	defer client.Disconnect(250)

	if tok := client.Publish(topic, 0, false, payload); tok.Wait() && tok.Error() != nil {
		return &Error{Topic: topic, Err: tok.Error()}
	}
	log.Debug("command published", "topic", topic)
	return nil
}
