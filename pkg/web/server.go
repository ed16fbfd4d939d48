// Package web provides the HTTP surface of hanna-api: the voice
// endpoints, home-automation tools, the Realtime session broker, the
// Google OAuth flow and a live activity feed for the front-end.
package web

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/hannalabs/hanna-api/internal/log"
	"github.com/hannalabs/hanna-api/pkg/assistant"
	"github.com/hannalabs/hanna-api/pkg/calendar"
	"github.com/hannalabs/hanna-api/pkg/feedback"
	"github.com/hannalabs/hanna-api/pkg/homebus"
	"github.com/hannalabs/hanna-api/pkg/hub"
	"github.com/hannalabs/hanna-api/pkg/realtime"
)

// maxActivityEntries bounds the in-memory activity buffer.
const maxActivityEntries = 200

// Config configures the server.
type Config struct {
	Port         string
	AllowOrigins []string

	// Google OAuth web flow. Empty client ID disables the flow; the
	// calendar then relies on credentials provisioned out of band.
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string
}

// Deps are the collaborators the handlers delegate to.
type Deps struct {
	Assistant *assistant.Assistant
	Calendar  *calendar.Client
	Bus       *homebus.Bus
	Realtime  *realtime.Broker
	Feedback  *feedback.Store
}

// ActivityEntry is one line of the live activity feed.
type ActivityEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // voice, tool, calendar, error
	Message string `json:"message"`
}

// Server is the hanna-api HTTP server.
type Server struct {
	app  *fiber.App
	cfg  Config
	deps Deps

	oauth      *oauth2.Config
	oauthState string
	oauthMu    sync.Mutex

	activity    []ActivityEntry
	activityMu  sync.RWMutex
	activityHub *hub.Hub
}

// New creates the server and mounts all routes.
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		cfg:         cfg,
		deps:        deps,
		activity:    make([]ActivityEntry, 0, maxActivityEntries),
		activityHub: hub.New("activity"),
	}

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		redirect := cfg.OAuthRedirectURL
		if redirect == "" {
			redirect = "http://localhost:" + cfg.Port + "/google/oauth/callback"
		}
		s.oauth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  redirect,
			Scopes:       []string{calendar.Scope},
			Endpoint:     google.Endpoint,
		}
	}

	app := fiber.New(fiber.Config{
		AppName:               "Hanna API",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowOrigins, ","),
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", s.handleHealth)

	voice := app.Group("/voice")
	voice.Post("/handle", s.handleVoice)
	voice.Post("/confirm", s.handleConfirm)

	tool := app.Group("/tool")
	tool.Post("/switchLight", s.handleSwitchLight)
	tool.Post("/setAC", s.handleSetAC)
	tool.Post("/createCalendarEvent", s.handleCreateEvent)

	app.Post("/session", s.handleSession)
	app.Post("/feedback", s.handleFeedback)

	app.Get("/google/oauth/start", s.handleOAuthStart)
	app.Get("/google/oauth/callback", s.handleOAuthCallback)

	app.Get("/api/activity", s.handleGetActivity)
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/activity", websocket.New(s.handleActivityWS))

	s.app = app
	return s
}

// Start runs the broadcast hub and listens on the configured port.
// It blocks until the server shuts down.
func (s *Server) Start() error {
	go s.activityHub.Run()
	log.Info("hanna-api listening", "port", s.cfg.Port)
	return s.app.Listen(":" + s.cfg.Port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// addActivity appends an entry to the feed and broadcasts it.
func (s *Server) addActivity(kind, message string) {
	entry := ActivityEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    kind,
		Message: message,
	}

	s.activityMu.Lock()
	s.activity = append(s.activity, entry)
	if len(s.activity) > maxActivityEntries {
		s.activity = s.activity[1:]
	}
	s.activityMu.Unlock()

	s.activityHub.BroadcastJSON(entry)
}
