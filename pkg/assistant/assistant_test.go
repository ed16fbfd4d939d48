package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func testAssistant(t *testing.T, cal Calendar) *Assistant {
	t.Helper()
	a, err := New(Config{
		DefaultTimezone:        "UTC",
		DefaultDurationMinutes: 60,
		Contacts:               map[string]string{"Marcos": "marcos@example.com"},
	}, cal)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	a.now = func() time.Time { return fixedNow }
	a.resolver.now = a.now
	return a
}

func TestNewRequiresCalendar(t *testing.T) {
	if _, err := New(Config{}, nil); !errors.Is(err, ErrNoCalendar) {
		t.Errorf("New(nil calendar) error = %v, want ErrNoCalendar", err)
	}
}

func TestHandleGreeting(t *testing.T) {
	cal := &fakeCalendar{}
	a := testAssistant(t, cal)

	res := a.Handle(context.Background(), "Oi Hanna, tudo bem?", "")
	if !res.OK || res.Message != msgChitChat {
		t.Errorf("greeting reply = %+v", res)
	}
	if len(cal.created) != 0 {
		t.Error("greeting must not touch the calendar")
	}
}

func TestHandleCreateCommits(t *testing.T) {
	cal := &fakeCalendar{}
	a := testAssistant(t, cal)

	res := a.Handle(context.Background(), "marca reunião amanhã às 9 com Marcos no escritório", "")
	if !res.OK {
		t.Fatalf("expected commit, got %+v", res)
	}
	if len(cal.created) != 1 {
		t.Fatalf("expected one created event, got %d", len(cal.created))
	}

	ev := cal.created[0]
	if ev.Title != "Reunião" {
		t.Errorf("title = %q, want Reunião", ev.Title)
	}
	if ev.Start.Day() != 11 || ev.Start.Hour() != 9 || ev.Start.Minute() != 0 {
		t.Errorf("start = %v, want tomorrow 09:00", ev.Start)
	}
	if ev.DurationMinutes != 60 {
		t.Errorf("duration = %d, want default 60", ev.DurationMinutes)
	}
	if ev.Location != "escritório" {
		t.Errorf("location = %q", ev.Location)
	}
	if len(ev.Attendees) != 1 || ev.Attendees[0].Email != "marcos@example.com" {
		t.Errorf("attendees = %+v", ev.Attendees)
	}
	if !strings.Contains(res.Message, "Reunião marcado para 11/03 09:00") {
		t.Errorf("commit message = %q", res.Message)
	}
	if res.Details["state"] != StateCommitted.String() {
		t.Errorf("state = %v", res.Details["state"])
	}
}

func TestHandleAgendaEmpty(t *testing.T) {
	a := testAssistant(t, &fakeCalendar{})

	res := a.Handle(context.Background(), "agenda", "")
	if !res.OK {
		t.Fatalf("agenda query failed: %+v", res)
	}
	if res.Message != "Você não tem compromissos hoje." {
		t.Errorf("message = %q", res.Message)
	}
}

func TestHandleAgendaListsEvents(t *testing.T) {
	cal := &fakeCalendar{events: []Event{
		{ID: "1", Summary: "Dentista", Start: "2026-03-10T09:30:00Z", End: "2026-03-10T10:30:00Z"},
		{ID: "2", Summary: "", Start: "2026-03-10T14:00:00Z", End: "2026-03-10T15:00:00Z"},
	}}
	a := testAssistant(t, cal)

	res := a.Handle(context.Background(), "meus compromissos", "")
	if !res.OK {
		t.Fatalf("agenda query failed: %+v", res)
	}
	if res.Message != "09:30 - Dentista; 14:00 - Compromisso" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestHandleAgendaListFailure(t *testing.T) {
	a := testAssistant(t, &fakeCalendar{listErr: errors.New("unreachable")})

	res := a.Handle(context.Background(), "meus compromissos", "")
	if res.OK || res.Message != msgAgendaFailed {
		t.Errorf("expected agenda failure message, got %+v", res)
	}
}

func TestSlotFillingDialogue(t *testing.T) {
	cal := &fakeCalendar{}
	a := testAssistant(t, cal)
	ctx := context.Background()

	// Turn 1: a creation verb with no date asks when.
	res := a.Handle(ctx, "Hanna, marca", "")
	if !res.OK || !res.ExpectingInput {
		t.Fatalf("turn 1 = %+v, want a follow-up question", res)
	}
	if res.Message != msgAskWhen || res.Details["missing"] != "start" {
		t.Fatalf("turn 1 should ask for the start: %+v", res)
	}
	token, _ := res.Details["continuation_token"].(string)
	if token == "" {
		t.Fatal("turn 1 carries no continuation token")
	}

	// Turn 2: the date answer fills the start but not the title.
	res = a.Confirm(ctx, token, true, "amanhã às 10")
	if !res.OK || !res.ExpectingInput {
		t.Fatalf("turn 2 = %+v, want a follow-up question", res)
	}
	if res.Message != msgAskTitle || res.Details["missing"] != "title" {
		t.Fatalf("turn 2 should ask for the title: %+v", res)
	}
	token, _ = res.Details["continuation_token"].(string)
	if token == "" {
		t.Fatal("turn 2 carries no continuation token")
	}

	// Turn 3: the title completes the request.
	res = a.Confirm(ctx, token, true, "Dentista")
	if !res.OK {
		t.Fatalf("turn 3 = %+v, want a commit", res)
	}
	if len(cal.created) != 1 {
		t.Fatalf("expected one created event, got %d", len(cal.created))
	}
	ev := cal.created[0]
	if ev.Title != "Dentista" {
		t.Errorf("title = %q, want Dentista", ev.Title)
	}
	if ev.Start.Day() != 11 || ev.Start.Hour() != 10 {
		t.Errorf("start = %v, want tomorrow 10:00", ev.Start)
	}
}

func TestSlotAnswerWithDeclineWordMerges(t *testing.T) {
	cal := &fakeCalendar{}
	a := testAssistant(t, cal)
	ctx := context.Background()

	res := a.Handle(ctx, "Hanna, marca", "")
	token, _ := res.Details["continuation_token"].(string)
	if token == "" {
		t.Fatal("no continuation token issued")
	}

	// "deixa" here introduces the date, it is not a refusal.
	res = a.Confirm(ctx, token, true, "deixa pra amanhã às 9")
	if !res.OK || !res.ExpectingInput {
		t.Fatalf("slot answer = %+v, want a follow-up question", res)
	}
	if res.Message != msgAskTitle {
		t.Fatalf("message = %q, want the title question", res.Message)
	}

	token, _ = res.Details["continuation_token"].(string)
	res = a.Confirm(ctx, token, true, "Reunião")
	if !res.OK {
		t.Fatalf("final turn = %+v, want a commit", res)
	}
	if len(cal.created) != 1 {
		t.Fatalf("expected one created event, got %d", len(cal.created))
	}
	if ev := cal.created[0]; ev.Start.Day() != 11 || ev.Start.Hour() != 9 {
		t.Errorf("start = %v, want tomorrow 09:00", ev.Start)
	}
}

func TestSlotDialogueExplicitCancel(t *testing.T) {
	cal := &fakeCalendar{}
	a := testAssistant(t, cal)
	ctx := context.Background()

	res := a.Handle(ctx, "Hanna, marca", "")
	token, _ := res.Details["continuation_token"].(string)

	res = a.Confirm(ctx, token, false, "")
	if !res.OK || res.Message != msgCancelled {
		t.Errorf("cancel reply = %+v", res)
	}
	if res.Details["state"] != StateCancelled.String() {
		t.Errorf("state = %v", res.Details["state"])
	}
	if len(cal.created) != 0 {
		t.Error("cancelled request must not create anything")
	}
}

func TestConflictFlow(t *testing.T) {
	cal := &fakeCalendar{events: []Event{
		{ID: "1", Summary: "Dentista", Start: "2026-03-11T09:30:00Z", End: "2026-03-11T10:30:00Z"},
	}}
	a := testAssistant(t, cal)
	ctx := context.Background()

	res := a.Handle(ctx, "marca reunião amanhã às 9", "")
	if res.OK {
		t.Fatalf("expected a confirmation prompt, got %+v", res)
	}
	if res.Details["needs_confirmation"] != true {
		t.Fatalf("details = %+v", res.Details)
	}
	if !strings.Contains(res.Message, "Dentista") {
		t.Errorf("prompt should name the conflicting event: %q", res.Message)
	}
	if len(cal.created) != 0 {
		t.Fatal("nothing may be created before the user confirms")
	}

	token, _ := res.Details["confirmation_token"].(string)
	if token == "" {
		t.Fatal("no confirmation token issued")
	}

	// Confirming commits even though the conflicting event still exists.
	res = a.Confirm(ctx, token, true, "pode marcar")
	if !res.OK {
		t.Fatalf("confirmed commit failed: %+v", res)
	}
	if len(cal.created) != 1 {
		t.Fatalf("expected one created event, got %d", len(cal.created))
	}
	if cal.created[0].Title != "Reunião" {
		t.Errorf("title = %q", cal.created[0].Title)
	}
}

func TestOverridePhraseSkipsConfirmation(t *testing.T) {
	cal := &fakeCalendar{events: []Event{
		{ID: "1", Summary: "Dentista", Start: "2026-03-11T09:30:00Z", End: "2026-03-11T10:30:00Z"},
	}}
	a := testAssistant(t, cal)

	res := a.Handle(context.Background(), "marca reunião amanhã às 9, pode marcar mesmo assim", "")
	if !res.OK {
		t.Fatalf("override should commit directly: %+v", res)
	}
	if len(cal.created) != 1 {
		t.Fatalf("expected one created event, got %d", len(cal.created))
	}
}

func TestConfirmDecline(t *testing.T) {
	cal := &fakeCalendar{events: []Event{
		{ID: "1", Summary: "Dentista", Start: "2026-03-11T09:30:00Z", End: "2026-03-11T10:30:00Z"},
	}}
	a := testAssistant(t, cal)
	ctx := context.Background()

	res := a.Handle(ctx, "marca reunião amanhã às 9", "")
	token, _ := res.Details["confirmation_token"].(string)

	tests := []struct {
		name    string
		confirm bool
		text    string
	}{
		{"explicit false", false, ""},
		{"negative phrase", true, "não, deixa pra lá"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.Confirm(ctx, token, tt.confirm, tt.text)
			if !res.OK || res.Message != msgCancelled {
				t.Errorf("decline reply = %+v", res)
			}
			if res.Details["state"] != StateCancelled.String() {
				t.Errorf("state = %v", res.Details["state"])
			}
		})
	}
	if len(cal.created) != 0 {
		t.Error("declined request must not create anything")
	}
}

func TestConfirmInvalidToken(t *testing.T) {
	a := testAssistant(t, &fakeCalendar{})

	res := a.Confirm(context.Background(), "definitely-not-a-token", true, "")
	if res.OK {
		t.Fatalf("invalid token accepted: %+v", res)
	}
	if res.Details["error"] != "invalid_token" {
		t.Errorf("details = %+v", res.Details)
	}
}

func TestCreateFailureSurfaces(t *testing.T) {
	cal := &fakeCalendar{createErr: errors.New("insert denied")}
	a := testAssistant(t, cal)

	res := a.Handle(context.Background(), "marca reunião amanhã às 9", "")
	if res.OK || res.Message != msgCreateFailed {
		t.Errorf("expected creation failure, got %+v", res)
	}
}
