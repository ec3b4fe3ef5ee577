// Package voice scores a client's available synthesis voices against a
// persona and picks one deterministically. Selection is best-effort: it
// never fails, it only returns "no voice" when the set is empty.
package voice

import (
	"hash/fnv"
	"strings"

	"ai-persona-chat/backend/internal/models"
)

// Voice describes one synthesis voice as reported by the client.
type Voice struct {
	Name         string `json:"name"`
	Lang         string `json:"lang"`
	LocalService bool   `json:"local_service"`
	Default      bool   `json:"default"`
	VoiceURI     string `json:"voice_uri"`
}

// Scoring is the pluggable scoring table. The keyword lists are an
// English-name heuristic and only a tie-break aid; they make no claim of
// covering non-English voice catalogs.
type Scoring struct {
	MaleKeywords   []string
	FemaleKeywords []string
	QualityMarkers []string

	GenderMatch    int
	GenderMismatch int
	LocalBonus     int
	QualityBonus   int
	DefaultPenalty int
}

// DefaultScoring returns the stock scoring table.
func DefaultScoring() Scoring {
	return Scoring{
		MaleKeywords: []string{
			"male", "man", "david", "mark", "james", "george", "daniel",
			"alex", "fred", "thomas", "guy",
		},
		FemaleKeywords: []string{
			"female", "woman", "zira", "susan", "hazel", "samantha",
			"victoria", "karen", "moira", "tessa", "fiona", "kate",
			"serena", "allison", "ava", "linda", "heather",
		},
		QualityMarkers: []string{
			"google", "microsoft", "apple", "natural", "neural", "premium", "enhanced",
		},
		GenderMatch:    100,
		GenderMismatch: -50,
		LocalBonus:     10,
		QualityBonus:   15,
		DefaultPenalty: -5,
	}
}

// Selector picks voices for personas.
type Selector struct {
	scoring Scoring
}

// NewSelector builds a selector with the given scoring table.
func NewSelector(scoring Scoring) *Selector {
	return &Selector{scoring: scoring}
}

// Select returns the best voice for the persona, or false when the set is
// empty. The same persona id and voice set always resolve to the same voice.
func (s *Selector) Select(persona *models.Persona, voices []Voice) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}

	candidates := filterByLanguage(persona.Language, voices)

	best := make([]Voice, 0, len(candidates))
	bestScore := 0
	for i, v := range candidates {
		score := s.score(persona.Gender, v)
		if i == 0 || score > bestScore {
			bestScore = score
			best = best[:0]
		}
		if score == bestScore {
			best = append(best, v)
		}
	}

	return best[stableIndex(persona.ID, len(best))], true
}

// score rates one voice for a gender. Neutral personas skip the gender
// keywords entirely.
func (s *Selector) score(gender models.Gender, v Voice) int {
	name := strings.ToLower(v.Name)
	score := 0

	if gender != models.GenderNeutral {
		match, mismatch := s.scoring.MaleKeywords, s.scoring.FemaleKeywords
		if gender == models.GenderFemale {
			match, mismatch = mismatch, match
		}
		if containsAny(name, match) {
			score += s.scoring.GenderMatch
		}
		if containsAny(name, mismatch) {
			score += s.scoring.GenderMismatch
		}
	}

	if v.LocalService {
		score += s.scoring.LocalBonus
	}
	if containsAny(name, s.scoring.QualityMarkers) {
		score += s.scoring.QualityBonus
	}
	if v.Default {
		score += s.scoring.DefaultPenalty
	}

	return score
}

// filterByLanguage keeps voices matching the persona's primary language
// subtag, falling back to English voices, then to the full set.
func filterByLanguage(lang string, voices []Voice) []Voice {
	primary := primarySubtag(lang)

	if primary != "" {
		if matched := withPrimarySubtag(primary, voices); len(matched) > 0 {
			return matched
		}
	}
	if english := withPrimarySubtag("en", voices); len(english) > 0 {
		return english
	}
	return voices
}

func withPrimarySubtag(primary string, voices []Voice) []Voice {
	var matched []Voice
	for _, v := range voices {
		if primarySubtag(v.Lang) == primary {
			matched = append(matched, v)
		}
	}
	return matched
}

func primarySubtag(lang string) string {
	lang = strings.ToLower(lang)
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		return lang[:i]
	}
	return lang
}

func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// stableIndex breaks ties with a hash of the persona id so the pick
// survives reloads given the same voice set.
func stableIndex(personaID string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(personaID))
	return int(h.Sum32() % uint32(n))
}
