package voice

import (
	"testing"

	"ai-persona-chat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maleEnglishPersona() *models.Persona {
	return &models.Persona{ID: "p-male", Gender: models.GenderMale, Language: "en-US"}
}

func TestSelectEmptySet(t *testing.T) {
	s := NewSelector(DefaultScoring())

	_, ok := s.Select(maleEnglishPersona(), nil)

	assert.False(t, ok)
}

func TestSelectPrefersGenderMatch(t *testing.T) {
	s := NewSelector(DefaultScoring())
	voices := []Voice{
		{Name: "Microsoft Zira", Lang: "en-US"},
		{Name: "Microsoft David", Lang: "en-US"},
	}

	got, ok := s.Select(maleEnglishPersona(), voices)

	require.True(t, ok)
	assert.Equal(t, "Microsoft David", got.Name)
}

func TestSelectNeutralIgnoresGenderKeywords(t *testing.T) {
	s := NewSelector(DefaultScoring())
	p := &models.Persona{ID: "p-neutral", Gender: models.GenderNeutral, Language: "en-US"}
	voices := []Voice{
		{Name: "Zira", Lang: "en-US"},
		{Name: "David", Lang: "en-US", LocalService: true},
	}

	// With gender skipped only the local bonus separates them.
	got, ok := s.Select(p, voices)

	require.True(t, ok)
	assert.Equal(t, "David", got.Name)
}

func TestSelectFiltersByPrimaryLanguageSubtag(t *testing.T) {
	s := NewSelector(DefaultScoring())
	p := &models.Persona{ID: "p-fr", Gender: models.GenderFemale, Language: "fr-FR"}
	voices := []Voice{
		{Name: "Google UK English Female", Lang: "en-GB"},
		{Name: "Amelie", Lang: "fr-CA"},
	}

	got, ok := s.Select(p, voices)

	require.True(t, ok)
	assert.Equal(t, "Amelie", got.Name)
}

func TestSelectFallsBackToEnglish(t *testing.T) {
	s := NewSelector(DefaultScoring())
	p := &models.Persona{ID: "p-ja", Gender: models.GenderFemale, Language: "ja-JP"}
	voices := []Voice{
		{Name: "Anna", Lang: "de-DE"},
		{Name: "Samantha", Lang: "en-US"},
	}

	got, ok := s.Select(p, voices)

	require.True(t, ok)
	assert.Equal(t, "Samantha", got.Name)
}

func TestSelectUsesFullSetWhenNothingMatches(t *testing.T) {
	s := NewSelector(DefaultScoring())
	p := &models.Persona{ID: "p-ja", Gender: models.GenderNeutral, Language: "ja-JP"}
	voices := []Voice{{Name: "Anna", Lang: "de-DE"}}

	got, ok := s.Select(p, voices)

	require.True(t, ok)
	assert.Equal(t, "Anna", got.Name)
}

func TestSelectQualityAndDefaultAdjustments(t *testing.T) {
	s := NewSelector(DefaultScoring())
	p := &models.Persona{ID: "p-neutral", Gender: models.GenderNeutral, Language: "en-US"}
	voices := []Voice{
		{Name: "Plain Voice", Lang: "en-US", Default: true},
		{Name: "Neural Voice", Lang: "en-US"},
	}

	got, ok := s.Select(p, voices)

	require.True(t, ok)
	assert.Equal(t, "Neural Voice", got.Name)
}

func TestSelectIsDeterministicAcrossCalls(t *testing.T) {
	s := NewSelector(DefaultScoring())
	p := maleEnglishPersona()
	voices := []Voice{
		{Name: "Voice One", Lang: "en-US"},
		{Name: "Voice Two", Lang: "en-US"},
		{Name: "Voice Three", Lang: "en-US"},
	}

	first, ok := s.Select(p, voices)
	require.True(t, ok)

	for i := 0; i < 10; i++ {
		got, ok := s.Select(p, voices)
		require.True(t, ok)
		assert.Equal(t, first.Name, got.Name)
	}
}

func TestSelectTieBreakVariesByPersona(t *testing.T) {
	s := NewSelector(DefaultScoring())
	voices := []Voice{
		{Name: "Voice One", Lang: "en-US"},
		{Name: "Voice Two", Lang: "en-US"},
		{Name: "Voice Three", Lang: "en-US"},
		{Name: "Voice Four", Lang: "en-US"},
	}

	picks := make(map[string]bool)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		p := &models.Persona{ID: id, Gender: models.GenderNeutral, Language: "en-US"}
		got, ok := s.Select(p, voices)
		require.True(t, ok)
		picks[got.Name] = true
	}

	// Eight ids over four tied voices should not all land on one pick.
	assert.Greater(t, len(picks), 1)
}
