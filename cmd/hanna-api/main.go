// hanna-api is the backend for the Hanna voice assistant: it brokers
// OpenAI Realtime sessions for the browser, interprets Portuguese voice
// commands against Google Calendar and relays home-automation commands
// over MQTT.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hannalabs/hanna-api/internal/config"
	"github.com/hannalabs/hanna-api/internal/log"
	"github.com/hannalabs/hanna-api/pkg/assistant"
	"github.com/hannalabs/hanna-api/pkg/calendar"
	"github.com/hannalabs/hanna-api/pkg/feedback"
	"github.com/hannalabs/hanna-api/pkg/homebus"
	"github.com/hannalabs/hanna-api/pkg/realtime"
	"github.com/hannalabs/hanna-api/pkg/web"
)

func main() {
	// Best effort: production deployments set real env vars instead.
	_ = godotenv.Load()

	cfg := config.Parse()
	log.Init(cfg.LogLevel)

	cal := calendar.New(calendar.Config{
		CredentialsPath:        cfg.GoogleCredentialsPath,
		CredentialsJSON:        cfg.GoogleCredentialsJSON,
		CalendarID:             cfg.GoogleCalendarID,
		DefaultTimezone:        cfg.Timezone,
		DefaultDurationMinutes: cfg.DurationMinutes,
	})

	hanna, err := assistant.New(assistant.Config{
		DefaultTimezone:        cfg.Timezone,
		DefaultDurationMinutes: cfg.DurationMinutes,
		Contacts:               cfg.Contacts,
	}, &calendarBridge{cal: cal})
	if err != nil {
		log.Error("assistant setup failed", "error", err)
		os.Exit(1)
	}

	srv := web.New(web.Config{
		Port:               cfg.Port,
		AllowOrigins:       cfg.CORSOrigins,
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		OAuthRedirectURL:   cfg.OAuthRedirectURL,
	}, web.Deps{
		Assistant: hanna,
		Calendar:  cal,
		Bus: homebus.New(homebus.Config{
			Host:      cfg.MQTTHost,
			Port:      cfg.MQTTPort,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			BaseTopic: cfg.MQTTBaseTopic,
		}),
		Realtime: realtime.New(realtime.Config{
			APIKey:    cfg.OpenAIAPIKey,
			OrgID:     cfg.OpenAIOrgID,
			ProjectID: cfg.OpenAIProjectID,
			Model:     cfg.RealtimeModel,
			Voice:     cfg.RealtimeVoice,
		}),
		Feedback: feedback.NewStore(cfg.FeedbackPath),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}
}
