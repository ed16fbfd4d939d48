// Package config provides environment-driven configuration for hanna-api.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/hannalabs/hanna-api/internal/log"
)

// Defaults applied when the corresponding env var is unset.
const (
	DefaultPort            = "8000"
	DefaultTimezone        = "America/New_York"
	DefaultDurationMinutes = 60
	DefaultMQTTPort        = 1883
	DefaultMQTTBaseTopic   = "hanna"
	DefaultRealtimeModel   = "gpt-4o-realtime-preview"
	DefaultRealtimeVoice   = "alloy"
	DefaultFeedbackPath    = "feedback.log"
	DefaultCredentialsPath = "/tmp/gcp.json"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port     string
	LogLevel string

	// CORS origins allowed for the browser front-end.
	CORSOrigins []string

	// Voice assistant core.
	Timezone        string
	DurationMinutes int
	Contacts        map[string]string

	// Google Calendar.
	GoogleCredentialsPath string
	GoogleCredentialsJSON string
	GoogleCalendarID      string
	GoogleClientID        string
	GoogleClientSecret    string
	OAuthRedirectURL      string

	// OpenAI Realtime session broker.
	OpenAIAPIKey    string
	OpenAIOrgID     string
	OpenAIProjectID string
	RealtimeModel   string
	RealtimeVoice   string

	// MQTT command bus.
	MQTTHost      string
	MQTTPort      int
	MQTTUsername  string
	MQTTPassword  string
	MQTTBaseTopic string

	// Feedback log.
	FeedbackPath string
}

// Parse reads configuration from the environment.
// Missing credentials are not an error here: integrations fail at the
// point of use with a descriptive error instead.
func Parse() Config {
	return Config{
		Port:            getString("PORT", DefaultPort),
		LogLevel:        getString("LOG_LEVEL", "info"),
		CORSOrigins:     parseOrigins(getString("CORS_ORIGINS", "")),
		Timezone:        getString("CALENDAR_DEFAULT_TIMEZONE", DefaultTimezone),
		DurationMinutes: getInt("CALENDAR_DEFAULT_DURATION_MINUTES", DefaultDurationMinutes),
		Contacts:        parseContacts(os.Getenv("CONTACTS_JSON")),

		GoogleCredentialsPath: getString("GOOGLE_CREDENTIALS_JSON_PATH", DefaultCredentialsPath),
		GoogleCredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		GoogleCalendarID:      getString("GOOGLE_CALENDAR_ID", "primary"),
		GoogleClientID:        os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:    os.Getenv("GOOGLE_CLIENT_SECRET"),
		OAuthRedirectURL:      os.Getenv("GOOGLE_OAUTH_REDIRECT_URL"),

		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIOrgID:     os.Getenv("OPENAI_ORG_ID"),
		OpenAIProjectID: os.Getenv("OPENAI_PROJECT_ID"),
		RealtimeModel:   getString("OPENAI_REALTIME_MODEL", DefaultRealtimeModel),
		RealtimeVoice:   getString("OPENAI_VOICE", DefaultRealtimeVoice),

		MQTTHost:      os.Getenv("MQTT_HOST"),
		MQTTPort:      getInt("MQTT_PORT", DefaultMQTTPort),
		MQTTUsername:  os.Getenv("MQTT_USERNAME"),
		MQTTPassword:  os.Getenv("MQTT_PASSWORD"),
		MQTTBaseTopic: getString("MQTT_BASE_TOPIC", DefaultMQTTBaseTopic),

		FeedbackPath: getString("FEEDBACK_LOG_PATH", DefaultFeedbackPath),
	}
}

// parseContacts decodes the CONTACTS_JSON name→email map.
// A malformed payload is logged and treated as empty, matching the
// forgiving behavior the assistant needs at startup.
func parseContacts(raw string) map[string]string {
	if raw == "" {
		return map[string]string{}
	}
	contacts := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &contacts); err != nil {
		log.Warn("ignoring malformed CONTACTS_JSON", "error", err)
		return map[string]string{}
	}
	return contacts
}

// parseOrigins splits the comma-separated CORS origin list and appends
// the local dev origins if they are not already present.
func parseOrigins(csv string) []string {
	var origins []string
	for _, o := range strings.Split(csv, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	for _, dev := range []string{"http://localhost:3000", "http://127.0.0.1:3000"} {
		found := false
		for _, o := range origins {
			if o == dev {
				found = true
				break
			}
		}
		if !found {
			origins = append(origins, dev)
		}
	}
	return origins
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
