package models

// AnalysisReport is a derived snapshot of the user's side of a conversation.
// It is computed on demand and never persisted.
type AnalysisReport struct {
	PersonalityTraits  string   `json:"personality_traits"`
	CommunicationStyle string   `json:"communication_style"`
	Motivators         string   `json:"motivators"`
	Interests          []string `json:"interests"`
	EmotionalSummary   string   `json:"emotional_summary"`
}

// GeneratePersonaRequest carries the character-creation quiz answers.
type GeneratePersonaRequest struct {
	Answers []QuizAnswer `json:"answers" binding:"required"`
}

// QuizAnswer is one question/answer pair from the guided creation quiz.
type QuizAnswer struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
}
