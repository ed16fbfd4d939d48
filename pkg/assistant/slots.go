package assistant

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultTitle is the placeholder used when no real title could be
// extracted. It may be replaced by a later turn; real titles may not.
const DefaultTitle = "Compromisso"

// Limits applied to extracted text.
const (
	maxTitleLen    = 60
	maxLocationLen = 100
)

var (
	// Domain keywords that make a good short title on their own.
	titleKeywordPat = regexp.MustCompile(`(?i)(reuni[aã]o|visita|orçamento|orcamento|reparo|call|meeting)`)

	// Leading hotword / greeting / creation-verb noise stripped by BuildTitle.
	titlePrefixPat = regexp.MustCompile(`(?i)^[\s,]*(hanna[\s,!]*)?((bom dia|boa tarde|boa noite|oi|ol[áa])[\s,!]*)?((marca|marcar|agenda|agendar)( uma?| o| a)?[\s,]*)?`)

	// Preposition followed by a run of letters, digits, hyphens and
	// Portuguese diacritics.
	locationPat = regexp.MustCompile(`(?i)\b(no|na|em)\s+([A-Za-z0-9çãáàéíóúâêô\-\s]+)`)

	// Date/time vocabulary that disqualifies a location capture.
	locationRejectPat = regexp.MustCompile(`(?i)(amanh[ãa]|às|as\s|\bhoje\b|\bdia\b|\d{1,2}/\d{1,2})`)

	emailPat = regexp.MustCompile(`[\w.\-+]+@[\w.\-]+\.\w+`)
)

// GuessTitle returns the first domain keyword found in text,
// capitalized, or DefaultTitle when none matches.
func GuessTitle(text string) string {
	if m := titleKeywordPat.FindString(text); m != "" {
		return capitalize(m)
	}
	return DefaultTitle
}

// BuildTitle produces an event title from the raw utterance. A keyword
// match wins; otherwise the hotword/greeting prefix is stripped, the
// remainder trimmed of punctuation, capped at 60 characters and given a
// capital first letter. An empty remainder yields DefaultTitle.
func BuildTitle(text string) string {
	if t := GuessTitle(text); t != DefaultTitle {
		return t
	}
	cleaned := titlePrefixPat.ReplaceAllString(strings.TrimSpace(text), "")
	cleaned = strings.Trim(cleaned, " \t,.!?")
	if cleaned == "" {
		return DefaultTitle
	}
	cleaned = truncateRunes(cleaned, maxTitleLen)
	return upperFirst(cleaned)
}

// ExtractLocation finds a "no/na/em <place>" phrase, rejecting captures
// that contain date/time words (so "na sexta às 9" never becomes a
// place). Returns "" when nothing usable matches.
func ExtractLocation(text string) string {
	m := locationPat.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	loc := strings.TrimSpace(m[2])
	if loc == "" || locationRejectPat.MatchString(loc) {
		return ""
	}
	return truncateRunes(loc, maxLocationLen)
}

// ExtractAttendees collects attendees from explicit e-mail addresses in
// the text plus whole-word, case-insensitive matches against the
// contact directory. Duplicates are removed by lowercased e-mail.
// Returns nil when nothing is found.
func ExtractAttendees(text string, contacts map[string]string) []Attendee {
	var found []Attendee
	for _, email := range emailPat.FindAllString(text, -1) {
		found = append(found, Attendee{Email: email})
	}
	for name, email := range contacts {
		if name == "" || email == "" {
			continue
		}
		// Explicit non-letter guards, not \b: the ASCII boundary never
		// fires next to accented names like "João".
		pat, err := regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(name) + `(?:$|[^\p{L}\p{N}])`)
		if err != nil {
			continue
		}
		if pat.MatchString(text) {
			found = append(found, Attendee{Email: email})
		}
	}
	if len(found) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(found))
	uniq := found[:0]
	for _, a := range found {
		key := strings.ToLower(a.Email)
		if !seen[key] {
			seen[key] = true
			uniq = append(uniq, a)
		}
	}
	return uniq
}

// ExtractSlots runs every extractor over the utterance and assembles
// the working state for a creation turn.
func (a *Assistant) ExtractSlots(text string) Slots {
	s := Slots{
		Title:     BuildTitle(text),
		Location:  ExtractLocation(text),
		Attendees: ExtractAttendees(text, a.cfg.Contacts),
	}
	if d, ok := a.resolver.ResolveDuration(text); ok {
		s.DurationMinutes = d
	}
	return s
}

// capitalize lowercases s and uppercases the first rune ("reunião" →
// "Reunião").
func capitalize(s string) string {
	return upperFirst(strings.ToLower(s))
}

// upperFirst uppercases only the first rune, leaving the rest as-is.
func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// truncateRunes caps s at n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
