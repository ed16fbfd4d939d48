package assistant

import (
	"regexp"
	"time"
)

// Intent labels what the user wants from an utterance.
type Intent int

const (
	// IntentChitChat is small talk: greetings, thanks, anything the
	// assistant answers without touching the calendar. It is the safe
	// default — never an error.
	IntentChitChat Intent = iota
	// IntentAgendaQuery asks for a day's commitments.
	IntentAgendaQuery
	// IntentCreate asks for a new event.
	IntentCreate
)

// String returns the wire label for the intent.
func (i Intent) String() string {
	switch i {
	case IntentAgendaQuery:
		return "agenda"
	case IntentCreate:
		return "create"
	default:
		return "chitchat"
	}
}

// Pre-compiled patterns for intent classification. \b is ASCII-only in
// regexp and never fires after accented letters ("olá", "aí"), so word
// ends use explicit non-letter guards.
var (
	// Greetings take precedence over everything else, even when a
	// schedulable phrase is embedded in the same sentence.
	greetingPat = regexp.MustCompile(`(?i)^[\s,]*(oi|ol[áa]|e a[íi]|bom dia|boa tarde|boa noite|tudo bem|obrigad[oa]|valeu|tchau)(?:$|[^\p{L}\p{N}])`)

	// Creation verbs. Bare "agenda" is the noun ("minha agenda") and is
	// left for the query pattern; it only counts as a verb when it
	// takes an object.
	createVerbPat = regexp.MustCompile(`(?i)\b(marca|marcar|agendar)\b|\bagenda\b\s+\S`)

	agendaQueryPat = regexp.MustCompile(`(?i)(pr[óo]xim[oa]s?\s+compromissos?|agenda|meus\s+compromissos)`)

	tomorrowWordPat = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])amanh[ãa]`)
)

// Classifier assigns an intent to an utterance. A time expression that
// resolves counts as a creation signal even without a verb.
type Classifier struct {
	resolver *Resolver
}

// NewClassifier creates a Classifier backed by the given resolver.
func NewClassifier(resolver *Resolver) *Classifier {
	return &Classifier{resolver: resolver}
}

// Classify labels text. Priority order: greeting, then creation (verb
// present or a time expression resolves), then agenda query, then
// chit-chat as the fallback.
func (c *Classifier) Classify(text string, loc *time.Location) Intent {
	if greetingPat.MatchString(text) {
		return IntentChitChat
	}
	if createVerbPat.MatchString(text) {
		return IntentCreate
	}
	if _, ok := c.resolver.Resolve(text, loc); ok {
		return IntentCreate
	}
	if agendaQueryPat.MatchString(text) {
		return IntentAgendaQuery
	}
	return IntentChitChat
}
