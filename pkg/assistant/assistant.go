package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hannalabs/hanna-api/internal/log"
)

// User-facing messages (the assistant speaks Brazilian Portuguese).
const (
	msgChitChat      = "Oi! Eu sou a Hanna. Posso marcar compromissos ou mostrar sua agenda."
	msgAskWhen       = "Para quando é esse compromisso? Pode dizer 'amanhã às 9' ou 'dia 20 às 15h'."
	msgAskTitle      = "Como devo chamar esse compromisso?"
	msgCancelled     = "Ok, não vou criar esse evento agora."
	msgInvalidToken  = "Token inválido ou expirado. Pode repetir o pedido?"
	msgAgendaFailed  = "Não consegui consultar sua agenda agora."
	msgCreateFailed  = "Não consegui criar o evento agora."
	msgUntitledEvent = "Compromisso"
)

var (
	// Phrases that override a conflict and force creation.
	overridePat = regexp.MustCompile(`(?i)(confirmo|pode marcar|mesmo assim|for[çc]a|pode seguir|pode criar)`)

	// Explicit negatives on a confirmation turn. Non-letter guards, not
	// \b, so "não" matches mid-sentence.
	declinePat = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])(n[ãa]o|cancela|cancelar|deixa|esquece)(?:$|[^\p{L}\p{N}])`)
)

// Config configures the assistant core. The contact directory is loaded
// once at startup and treated as immutable afterwards.
type Config struct {
	// DefaultTimezone is the IANA zone used when the caller passes none
	// or an invalid one.
	DefaultTimezone string

	// DefaultDurationMinutes is applied when no duration was spoken.
	DefaultDurationMinutes int

	// Contacts maps display names to e-mail addresses.
	Contacts map[string]string
}

// Assistant is the conversation orchestrator. It is stateless and
// request-scoped: all continuation state lives in the opaque token, so
// a single instance serves concurrent requests without locking.
type Assistant struct {
	cfg        Config
	cal        Calendar
	resolver   *Resolver
	classifier *Classifier
	detector   *Detector
	now        func() time.Time
}

// New creates an Assistant over the given calendar collaborator.
func New(cfg Config, cal Calendar) (*Assistant, error) {
	if cal == nil {
		return nil, ErrNoCalendar
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "America/New_York"
	}
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = 60
	}
	if cfg.Contacts == nil {
		cfg.Contacts = map[string]string{}
	}
	resolver := NewResolver()
	return &Assistant{
		cfg:        cfg,
		cal:        cal,
		resolver:   resolver,
		classifier: NewClassifier(resolver),
		detector:   NewDetector(cal),
		now:        time.Now,
	}, nil
}

// Handle interprets a fresh voice command.
//
//	"Hanna, marca reunião amanhã às 9 com Marcos no escritório"
//	"Hanna, quais meus próximos compromissos?"
func (a *Assistant) Handle(ctx context.Context, text, timezone string) Response {
	text = strings.TrimSpace(text)
	loc := a.location(timezone)

	intent := a.classifier.Classify(text, loc)
	log.Debug("voice command classified", "intent", intent.String())

	switch intent {
	case IntentChitChat:
		return Response{OK: true, Message: msgChitChat}
	case IntentAgendaQuery:
		return a.agenda(ctx, text, loc)
	default:
		return a.create(ctx, text, loc)
	}
}

// Confirm continues a dialogue from a token previously handed to the
// client: answering a conflict prompt, or supplying a missing slot.
func (a *Assistant) Confirm(ctx context.Context, token string, confirm bool, text string) Response {
	env, err := decodeToken(token)
	if err != nil {
		log.Warn("continuation token rejected", "error", err)
		return Response{
			OK:      false,
			Message: msgInvalidToken,
			Details: map[string]any{"error": "invalid_token"},
		}
	}

	text = strings.TrimSpace(text)
	if env.Kind == tokenKindConfirm {
		// Decline words only carry weight on a yes/no turn. A slot
		// answer like "deixa pra quinta às 9" is data, not a refusal.
		if !confirm || declinePat.MatchString(text) {
			return a.cancelled()
		}
		return a.commitPending(ctx, env.Pending)
	}
	if !confirm {
		return a.cancelled()
	}
	return a.continueSlots(ctx, env.Slots, text)
}

func (a *Assistant) cancelled() Response {
	return Response{
		OK:      true,
		Message: msgCancelled,
		Details: map[string]any{"state": StateCancelled.String()},
	}
}

// agenda lists the commitments of a single day: tomorrow when the text
// says so, today otherwise. An empty day is a friendly message, not an
// error.
func (a *Assistant) agenda(ctx context.Context, text string, loc *time.Location) Response {
	now := a.now().In(loc)
	day, label := now, "hoje"
	if tomorrowWordPat.MatchString(text) {
		day, label = now.AddDate(0, 0, 1), "amanhã"
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	events, err := a.cal.ListEvents(ctx, start, end)
	if err != nil {
		log.Error("agenda listing failed", "error", err)
		return Response{OK: false, Message: msgAgendaFailed}
	}
	if len(events) == 0 {
		return Response{OK: true, Message: fmt.Sprintf("Você não tem compromissos %s.", label)}
	}

	lines := make([]string, 0, len(events))
	for _, ev := range events {
		title := ev.Summary
		if title == "" {
			title = msgUntitledEvent
		}
		if t, err := parseEventTime(ev.Start, loc); err == nil {
			lines = append(lines, t.Format("15:04")+" - "+title)
		} else {
			lines = append(lines, title)
		}
	}
	return Response{
		OK:      true,
		Message: strings.Join(lines, "; "),
		Details: map[string]any{"events": events},
	}
}

// create starts an event-creation flow from a fresh utterance.
func (a *Assistant) create(ctx context.Context, text string, loc *time.Location) Response {
	slots := a.ExtractSlots(text)

	when, ok := a.resolver.Resolve(text, loc)
	if !ok {
		return a.askForSlot(slots, loc, text, msgAskWhen, "start")
	}
	slots.StartISO = when.Format(time.RFC3339)
	return a.checkAndCommit(ctx, slots, when, loc, text, false)
}

// continueSlots merges a free-text continuation into stored slots and
// either asks the next question or proceeds to the conflict check.
func (a *Assistant) continueSlots(ctx context.Context, st *slotState, text string) Response {
	loc := a.location(st.Timezone)
	merged := st.Slots

	if text != "" {
		incoming := a.ExtractSlots(text)
		if when, ok := a.resolver.Resolve(text, loc); ok {
			incoming.StartISO = when.Format(time.RFC3339)
			// An answer like "amanhã às 10" is a date, not a title.
			if GuessTitle(text) == DefaultTitle {
				incoming.Title = ""
			}
		}
		merged.Merge(incoming)
	}
	combined := strings.TrimSpace(st.OriginalText + " " + text)

	if merged.StartISO == "" {
		return a.askForSlot(merged, loc, combined, msgAskWhen, "start")
	}
	if merged.Title == "" || merged.Title == DefaultTitle {
		return a.askForSlot(merged, loc, combined, msgAskTitle, "title")
	}

	when, err := time.Parse(time.RFC3339, merged.StartISO)
	if err != nil {
		// Slot state we minted ourselves should always parse back.
		log.Error("stored start instant unreadable", "start", merged.StartISO, "error", err)
		return Response{OK: false, Message: msgInvalidToken, Details: map[string]any{"error": "invalid_token"}}
	}
	return a.checkAndCommit(ctx, merged, when.In(loc), loc, combined, false)
}

// askForSlot emits an AWAITING_SLOT response carrying the slots
// gathered so far and a follow-up question. Needing more input is a
// state, never an error.
func (a *Assistant) askForSlot(slots Slots, loc *time.Location, originalText, question, missing string) Response {
	token, err := encodeToken(tokenEnvelope{
		Kind: tokenKindSlots,
		Slots: &slotState{
			Intent:       IntentCreate.String(),
			Slots:        slots,
			Timezone:     loc.String(),
			OriginalText: originalText,
		},
	})
	if err != nil {
		log.Error("token encoding failed", "error", err)
		return Response{OK: false, Message: msgCreateFailed}
	}
	return Response{
		OK:             true,
		Message:        question,
		ExpectingInput: true,
		Details: map[string]any{
			"state":              StateAwaitingSlot.String(),
			"missing":            missing,
			"continuation_token": token,
		},
	}
}

// checkAndCommit runs the advisory conflict scan and either commits or
// asks for confirmation. An override phrase in the utterance skips the
// prompt; confirmed==true means the user already answered one, and the
// conflict scan is skipped entirely — confirmation is final.
func (a *Assistant) checkAndCommit(ctx context.Context, slots Slots, when time.Time, loc *time.Location, originalText string, confirmed bool) Response {
	duration := slots.DurationMinutes
	if duration <= 0 {
		duration = a.cfg.DefaultDurationMinutes
	}
	end := when.Add(time.Duration(duration) * time.Minute)

	if !confirmed && !overridePat.MatchString(originalText) {
		if conflicts := a.detector.Find(ctx, when, end, loc); len(conflicts) > 0 {
			return a.askForConfirmation(slots, when, duration, loc, originalText, conflicts)
		}
	}

	description := fmt.Sprintf("Criado por voz: “%s”.", originalText)
	if confirmed {
		description = fmt.Sprintf("Criado por voz (confirmado): “%s”.", originalText)
	}
	return a.commit(ctx, slots, when, duration, loc, description)
}

// askForConfirmation emits an AWAITING_CONFLICT_CONFIRMATION response
// with the full candidate event stored in the token.
func (a *Assistant) askForConfirmation(slots Slots, when time.Time, duration int, loc *time.Location, originalText string, conflicts []Conflict) Response {
	first := conflicts[0]
	title := first.Event.Summary
	if title == "" {
		title = msgUntitledEvent
	}
	msg := fmt.Sprintf("Você já tem '%s' de %s a %s nesse horário. Quer marcar mesmo assim?",
		title, first.Start.Format("15:04"), first.End.Format("15:04"))

	token, err := encodeToken(tokenEnvelope{
		Kind: tokenKindConfirm,
		Pending: &pendingEvent{
			Title:           slots.Title,
			Location:        slots.Location,
			Attendees:       slots.Attendees,
			DurationMinutes: duration,
			StartISO:        when.Format(time.RFC3339),
			Timezone:        loc.String(),
			OriginalText:    originalText,
		},
	})
	if err != nil {
		log.Error("token encoding failed", "error", err)
		return Response{OK: false, Message: msgCreateFailed}
	}

	events := make([]Event, 0, len(conflicts))
	for _, c := range conflicts {
		events = append(events, c.Event)
	}
	return Response{
		OK:      false,
		Message: msg,
		Details: map[string]any{
			"state":              StateAwaitingConfirmation.String(),
			"needs_confirmation": true,
			"confirmation_token": token,
			"conflicts":          events,
		},
	}
}

// commitPending commits a candidate stored in a confirmation token.
// No conflict re-check happens here: the user already decided, and the
// stored candidate wins even if the calendar changed meanwhile.
func (a *Assistant) commitPending(ctx context.Context, p *pendingEvent) Response {
	loc := a.location(p.Timezone)
	when, err := time.Parse(time.RFC3339, p.StartISO)
	if err != nil {
		log.Warn("confirmation token carries unreadable start", "start", p.StartISO, "error", err)
		return Response{OK: false, Message: msgInvalidToken, Details: map[string]any{"error": "invalid_token"}}
	}
	slots := Slots{
		Title:     p.Title,
		Location:  p.Location,
		Attendees: p.Attendees,
	}
	duration := p.DurationMinutes
	if duration <= 0 {
		duration = a.cfg.DefaultDurationMinutes
	}
	description := fmt.Sprintf("Criado por voz (confirmado): “%s”.", p.OriginalText)
	return a.commit(ctx, slots, when.In(loc), duration, loc, description)
}

// commit delegates event construction to the calendar collaborator and
// reports the result. A failing commit is surfaced to the caller: the
// event was not created.
func (a *Assistant) commit(ctx context.Context, slots Slots, when time.Time, duration int, loc *time.Location, description string) Response {
	title := slots.Title
	if title == "" {
		title = DefaultTitle
	}
	created, err := a.cal.CreateEvent(ctx, EventInput{
		Title:           title,
		Description:     description,
		Location:        slots.Location,
		Start:           when,
		DurationMinutes: duration,
		Timezone:        loc.String(),
		Attendees:       slots.Attendees,
	})
	if err != nil {
		log.Error("calendar commit failed", "title", title, "error", err)
		return Response{OK: false, Message: msgCreateFailed, Details: map[string]any{"error": err.Error()}}
	}

	log.Info("event committed", "title", title, "start", when.Format(time.RFC3339))
	return Response{
		OK:      true,
		Message: fmt.Sprintf("%s marcado para %s (%s).", title, when.Format("02/01 15:04"), loc.String()),
		Details: map[string]any{
			"state": StateCommitted.String(),
			"event": created,
			"link":  created.HTMLLink,
		},
	}
}

// location resolves a timezone name, falling back to the configured
// default and finally to UTC. A bad zone never aborts a request.
func (a *Assistant) location(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
		log.Warn("unknown timezone, using default", "timezone", name)
	}
	if loc, err := time.LoadLocation(a.cfg.DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}
