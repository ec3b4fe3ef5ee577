package models

import (
	"hash/fnv"
	"time"
)

// Gender influences voice selection only, never the persona's behavior.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderNeutral Gender = "neutral"
)

// PitchLevel is the persona's speech pitch category.
type PitchLevel string

const (
	PitchLow    PitchLevel = "low"
	PitchMedium PitchLevel = "medium"
	PitchHigh   PitchLevel = "high"
)

// RateLevel is the persona's speech rate category.
type RateLevel string

const (
	RateSlow   RateLevel = "slow"
	RateNormal RateLevel = "normal"
	RateFast   RateLevel = "fast"
)

// Multiplier maps a pitch category to the synthesis pitch multiplier.
func (p PitchLevel) Multiplier() float64 {
	switch p {
	case PitchLow:
		return 0.8
	case PitchHigh:
		return 1.2
	default:
		return 1.0
	}
}

// Multiplier maps a rate category to the synthesis rate multiplier.
func (r RateLevel) Multiplier() float64 {
	switch r {
	case RateSlow:
		return 0.8
	case RateFast:
		return 1.2
	default:
		return 1.0
	}
}

// Persona is a user-authored AI character definition. The ID is immutable
// after creation; Name and Personality are non-empty once saved.
type Persona struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Avatar      string     `json:"avatar"`
	Personality string     `json:"personality"`
	Memory      string     `json:"memory"`
	Purpose     string     `json:"purpose"`
	Language    string     `json:"language"`
	Gender      Gender     `json:"gender"`
	VoicePitch  PitchLevel `json:"voice_pitch"`
	VoiceRate   RateLevel  `json:"voice_rate"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FallbackPurposes is the fixed pool a persona's purpose is drawn from when
// it is saved without one.
var FallbackPurposes = [8]string{
	"Be a supportive friend who is always happy to listen.",
	"Keep the user company and make their day a little brighter.",
	"Share interesting stories and spark the user's curiosity.",
	"Help the user practice conversations in a relaxed setting.",
	"Offer a fresh perspective whenever the user feels stuck.",
	"Encourage the user to talk about their day and their plans.",
	"Make the user laugh with a playful sense of humor.",
	"Be a calm presence the user can unwind with.",
}

// FallbackPurposeFor picks a purpose from the fixed pool, stable per persona id.
func FallbackPurposeFor(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return FallbackPurposes[h.Sum32()%uint32(len(FallbackPurposes))]
}

// CreatePersonaRequest carries the user-editable persona fields.
type CreatePersonaRequest struct {
	Name        string     `json:"name" binding:"required"`
	Avatar      string     `json:"avatar"`
	Personality string     `json:"personality" binding:"required"`
	Memory      string     `json:"memory"`
	Purpose     string     `json:"purpose"`
	Language    string     `json:"language"`
	Gender      Gender     `json:"gender"`
	VoicePitch  PitchLevel `json:"voice_pitch"`
	VoiceRate   RateLevel  `json:"voice_rate"`
}
