package web

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/hannalabs/hanna-api/internal/log"
	"github.com/hannalabs/hanna-api/pkg/calendar"
	"github.com/hannalabs/hanna-api/pkg/feedback"
	"github.com/hannalabs/hanna-api/pkg/hub"
	"github.com/hannalabs/hanna-api/pkg/realtime"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// VoiceCommand is the /voice/handle request body.
type VoiceCommand struct {
	Text     string `json:"text"`
	Timezone string `json:"timezone,omitempty"`
}

// handleVoice interprets a fresh voice command.
func (s *Server) handleVoice(c *fiber.Ctx) error {
	var cmd VoiceCommand
	if err := c.BodyParser(&cmd); err != nil || strings.TrimSpace(cmd.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok": false, "message": "text is required",
		})
	}

	res := s.deps.Assistant.Handle(c.Context(), cmd.Text, cmd.Timezone)
	s.addActivity("voice", cmd.Text+" → "+res.Message)
	return c.JSON(res)
}

// ConfirmBody is the /voice/confirm request body. Confirm defaults to
// true when omitted.
type ConfirmBody struct {
	ConfirmationToken string `json:"confirmation_token"`
	Confirm           *bool  `json:"confirm,omitempty"`
	Text              string `json:"text,omitempty"`
}

// handleConfirm continues a dialogue from a continuation token.
func (s *Server) handleConfirm(c *fiber.Ctx) error {
	var body ConfirmBody
	if err := c.BodyParser(&body); err != nil || body.ConfirmationToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok": false, "message": "confirmation_token is required",
		})
	}
	confirm := true
	if body.Confirm != nil {
		confirm = *body.Confirm
	}

	res := s.deps.Assistant.Confirm(c.Context(), body.ConfirmationToken, confirm, body.Text)
	s.addActivity("voice", "confirm → "+res.Message)
	if !res.OK {
		if code, _ := res.Details["error"].(string); code == "invalid_token" {
			return c.Status(fiber.StatusBadRequest).JSON(res)
		}
	}
	return c.JSON(res)
}

// SwitchLight is the /tool/switchLight request body.
type SwitchLight struct {
	Room  string `json:"room"`
	State string `json:"state"` // "on" | "off"
}

// handleSwitchLight publishes a light command to the home bus.
func (s *Server) handleSwitchLight(c *fiber.Ctx) error {
	var body SwitchLight
	if err := c.BodyParser(&body); err != nil || body.Room == "" {
		return badRequest(c, "room is required")
	}
	if body.State != "on" && body.State != "off" {
		return badRequest(c, "state must be 'on' or 'off'")
	}

	if err := s.deps.Bus.Publish(s.deps.Bus.LightTopic(body.Room), body.State); err != nil {
		log.Error("light command failed", "room", body.Room, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	s.addActivity("tool", "light "+body.Room+" "+body.State)
	return c.JSON(fiber.Map{"ok": true})
}

// SetAC is the /tool/setAC request body.
type SetAC struct {
	Room string  `json:"room"`
	Temp float64 `json:"temp"`
}

// handleSetAC publishes an AC temperature command to the home bus.
func (s *Server) handleSetAC(c *fiber.Ctx) error {
	var body SetAC
	if err := c.BodyParser(&body); err != nil || body.Room == "" {
		return badRequest(c, "room is required")
	}

	payload := strconv.FormatFloat(body.Temp, 'f', -1, 64)
	if err := s.deps.Bus.Publish(s.deps.Bus.ACTopic(body.Room), payload); err != nil {
		log.Error("ac command failed", "room", body.Room, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	s.addActivity("tool", "ac "+body.Room+" "+payload)
	return c.JSON(fiber.Map{"ok": true})
}

// CreateEventBody is the /tool/createCalendarEvent request body: the
// structured (non-voice) creation path used by the Realtime tool calls.
type CreateEventBody struct {
	Title           string     `json:"title"`
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	Timezone        string     `json:"timezone,omitempty"`
	Location        string     `json:"location,omitempty"`
	Description     string     `json:"description,omitempty"`
	Attendees       []string   `json:"attendees,omitempty"`
}

// handleCreateEvent creates a calendar event from structured fields.
func (s *Server) handleCreateEvent(c *fiber.Ctx) error {
	var body CreateEventBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Title == "" || body.Start.IsZero() {
		return badRequest(c, "title and start are required")
	}
	if body.End == nil && body.DurationMinutes != 0 &&
		(body.DurationMinutes < 5 || body.DurationMinutes > 12*60) {
		return badRequest(c, "duration_minutes must be between 5 and 720")
	}

	in := calendar.EventInput{
		Title:           body.Title,
		Description:     body.Description,
		Location:        body.Location,
		Start:           body.Start,
		DurationMinutes: body.DurationMinutes,
		Timezone:        body.Timezone,
		Attendees:       cleanEmails(body.Attendees),
	}
	if body.End != nil {
		in.End = *body.End
	}

	created, err := s.deps.Calendar.CreateEvent(c.Context(), in)
	if err != nil {
		log.Error("structured event creation failed", "title", body.Title, "error", err)
		status := fiber.StatusBadGateway
		if errors.Is(err, calendar.ErrInvalidTimezone) ||
			errors.Is(err, calendar.ErrInvalidDuration) ||
			errors.Is(err, calendar.ErrInvalidInterval) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}

	s.addActivity("calendar", "created "+body.Title)
	return c.JSON(fiber.Map{
		"ok":       true,
		"eventId":  created.ID,
		"htmlLink": created.HTMLLink,
		"start":    created.Start,
		"end":      created.End,
	})
}

// handleSession mints an ephemeral OpenAI Realtime session. With
// ?dry=true it returns the payload without calling OpenAI.
func (s *Server) handleSession(c *fiber.Ctx) error {
	model := c.Query("model")
	voice := c.Query("voice")
	maxTokens := c.QueryInt("max_tokens")

	if c.QueryBool("dry") {
		return c.JSON(fiber.Map{"payload": s.deps.Realtime.Payload(model, voice, maxTokens)})
	}

	raw, err := s.deps.Realtime.CreateSession(c.Context(), model, voice, maxTokens)
	if err != nil {
		var apiErr *realtime.APIError
		if errors.As(err, &apiErr) {
			// Pass OpenAI's error body through for front-end debugging.
			c.Status(apiErr.StatusCode)
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.SendString(apiErr.Body)
		}
		if errors.Is(err, realtime.ErrNoAPIKey) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// handleFeedback appends a rating entry to the feedback log.
func (s *Server) handleFeedback(c *fiber.Ctx) error {
	var entry feedback.Entry
	if err := c.BodyParser(&entry); err != nil {
		return badRequest(c, "invalid request body")
	}

	saved, err := s.deps.Feedback.Append(entry)
	if err != nil {
		if errors.Is(err, feedback.ErrInvalidRating) {
			return badRequest(c, err.Error())
		}
		log.Error("feedback write failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false})
	}
	return c.JSON(fiber.Map{"ok": true, "id": saved.ID})
}

// handleOAuthStart redirects the browser into Google's consent flow.
func (s *Server) handleOAuthStart(c *fiber.Ctx) error {
	if s.oauth == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are not configured",
		})
	}

	state := uuid.NewString()
	s.oauthMu.Lock()
	s.oauthState = state
	s.oauthMu.Unlock()

	url := s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

// handleOAuthCallback exchanges the authorization code and persists
// the user credentials for the calendar client.
func (s *Server) handleOAuthCallback(c *fiber.Ctx) error {
	if s.oauth == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "OAuth flow not configured",
		})
	}

	s.oauthMu.Lock()
	expected := s.oauthState
	s.oauthMu.Unlock()
	if state := c.Query("state"); expected == "" || state != expected {
		return badRequest(c, "state mismatch, restart at /google/oauth/start")
	}
	code := c.Query("code")
	if code == "" {
		return badRequest(c, "missing authorization code")
	}

	tok, err := s.oauth.Exchange(c.Context(), code)
	if err != nil {
		log.Error("oauth exchange failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	if err := s.deps.Calendar.Store().Save(s.oauth, tok); err != nil {
		log.Error("credential persistence failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	log.Info("google calendar authorized")
	return c.JSON(fiber.Map{"ok": true, "message": "Google Calendar autorizado."})
}

// handleGetActivity returns the recent activity buffer.
func (s *Server) handleGetActivity(c *fiber.Ctx) error {
	s.activityMu.RLock()
	defer s.activityMu.RUnlock()
	return c.JSON(s.activity)
}

// handleActivityWS streams the activity feed over a websocket.
func (s *Server) handleActivityWS(conn *websocket.Conn) {
	// Replay the buffer, then join the live broadcast.
	s.activityMu.RLock()
	for _, entry := range s.activity {
		conn.WriteJSON(entry)
	}
	s.activityMu.RUnlock()

	hub.NewClient(s.activityHub, conn).Run()
}

// cleanEmails trims and drops empty attendee addresses.
func cleanEmails(emails []string) []string {
	var out []string
	for _, e := range emails {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "message": msg})
}
