package formatter

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultEmoji is shown for moods without a known keyword.
const DefaultEmoji = "🎵"

type moodKeywords struct {
	emoji    string
	keywords []string
}

// moods is checked in order; the first entry with a matching keyword wins. Keywords are folded.
var moods = []moodKeywords{
	{"😊", []string{"happy", "feliz", "alegre"}},
	{"😔", []string{"sad", "triste"}},
	{"😌", []string{"calm", "calmo", "tranquilo"}},
	{"⚡", []string{"energetic", "energetico", "energico"}},
	{"💆", []string{"relax", "relaxado"}},
	{"😠", []string{"angry", "irritado", "enojado", "raivoso"}},
	{"😰", []string{"anxious", "ansioso"}},
	{"🤩", []string{"excited", "empolgado", "emocionado", "animado"}},
	{"🥹", []string{"nostalgic", "nostalgico"}},
	{"❤️", []string{"romantic", "romantico"}},
	{"🧠", []string{"focus", "focado", "concentrado"}},
	{"🎉", []string{"party", "festa", "fiesta"}},
	{"😴", []string{"tired", "cansado"}},
	{"💪", []string{"motivado", "motivated"}},
}

// fold lowercases s and strips diacritics, so "Energético" matches "energetico".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return cases.Lower(language.Und).String(folded)
}

// MoodEmoji picks an emoji for a free-text mood in English, Portuguese or Spanish.
func MoodEmoji(mood string) string {
	m := fold(mood)
	if strings.TrimSpace(m) == "" {
		return DefaultEmoji
	}

	for _, entry := range moods {
		for _, k := range entry.keywords {
			if strings.Contains(m, k) {
				return entry.emoji
			}
		}
	}
	return DefaultEmoji
}
