// Package prompt builds the system instructions and structured-output
// schemas for every model call. Everything here is a pure function of its
// inputs: the same persona and mode always produce the same instruction.
package prompt

import (
	"fmt"
	"strings"

	"ai-persona-chat/backend/internal/models"

	"google.golang.org/genai"
)

const nonePlaceholder = "None yet."

// GreetingPrompt is the synthetic turn sent when a freshly selected persona
// has no history and the greeting timer fires.
const GreetingPrompt = "Open the conversation proactively. Greet the user in character and " +
	"say something that invites them to respond. Do not mention that you are starting the conversation."

// FollowUpPrompt is the synthetic turn sent when the user has gone quiet
// after a reply and the inactivity timer fires.
const FollowUpPrompt = "The user has not replied yet. Re-engage them naturally with a short " +
	"message that continues the conversation. Never mention the silence or that you are following up."

// SystemInstruction renders the persona's behavioral contract for one call.
// Empty memory and purpose render as an explicit placeholder so the
// instruction still reads coherently.
func SystemInstruction(p *models.Persona, mode models.Mode) string {
	memory := p.Memory
	if memory == "" {
		memory = nonePlaceholder
	}
	purpose := p.Purpose
	if purpose == "" {
		purpose = nonePlaceholder
	}
	language := p.Language
	if language == "" {
		language = "en-US"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s character. Stay in character at all times and never reveal that you are an AI.\n", p.Name, p.Gender)
	fmt.Fprintf(&b, "Respond only in the language with tag %q.\n", language)
	fmt.Fprintf(&b, "Your personality: %s\n", p.Personality)
	fmt.Fprintf(&b, "What you remember about the user: %s\n", memory)
	fmt.Fprintf(&b, "Your purpose in these conversations: %s\n", purpose)
	b.WriteString("Vary your reply style adaptively: match the user's energy, sometimes short, sometimes expansive, never repetitive.\n")
	b.WriteString("Always answer with the required reply shape: put everything you say out loud in the dialogue field; ")
	b.WriteString("inner thoughts go in the thought field and physical stage directions in the action field, neither of which is spoken.\n")
	if mode == models.ModeGame {
		b.WriteString("The user is playing in guided mode: always include user_response_options, a list of 3 to 4 short replies the user could plausibly choose next.\n")
	}
	return b.String()
}

// ResponseSchema is the structured-output contract for a conversation turn.
// Game mode additionally requires the suggested user replies.
func ResponseSchema(mode models.Mode) *genai.Schema {
	properties := map[string]*genai.Schema{
		"dialogue":     {Type: genai.TypeString},
		"thought":      {Type: genai.TypeString},
		"action":       {Type: genai.TypeString},
		"image_prompt": {Type: genai.TypeString},
	}
	required := []string{"dialogue"}
	ordering := []string{"dialogue", "thought", "action", "image_prompt"}

	if mode == models.ModeGame {
		properties["user_response_options"] = &genai.Schema{
			Type:     genai.TypeArray,
			Items:    &genai.Schema{Type: genai.TypeString},
			MinItems: genai.Ptr[int64](3),
			MaxItems: genai.Ptr[int64](4),
		}
		required = append(required, "user_response_options")
		ordering = append(ordering, "user_response_options")
	}

	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       properties,
		Required:         required,
		PropertyOrdering: ordering,
	}
}

// AnalysisInstruction asks the model to profile the user from a transcript.
func AnalysisInstruction() string {
	return "You are an insightful conversation analyst. You will receive a chat transcript " +
		"between a user and an AI character. Analyze only the user's turns and produce a " +
		"personality report: their personality traits, communication style, what motivates them, " +
		"their interests, and a summary of their emotional state across the conversation. " +
		"Be specific and ground every observation in what the user actually wrote."
}

// AnalysisSchema is the structured-output contract for an analysis report.
func AnalysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"personality_traits":  {Type: genai.TypeString},
			"communication_style": {Type: genai.TypeString},
			"motivators":          {Type: genai.TypeString},
			"interests": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"emotional_summary": {Type: genai.TypeString},
		},
		Required: []string{
			"personality_traits", "communication_style", "motivators", "interests", "emotional_summary",
		},
		PropertyOrdering: []string{
			"personality_traits", "communication_style", "motivators", "interests", "emotional_summary",
		},
	}
}

// GenerationInstruction guides the character-creation quiz call.
func GenerationInstruction() string {
	return "You are a character creation assistant. You will receive a user's answers to a " +
		"short quiz about the kind of AI companion they want. Design a fitting character: a name, " +
		"a vivid personality description, an initial memory about the user inferred from their answers, " +
		"a purpose for the character's conversations, a gender (male, female or neutral), and a " +
		"BCP 47 language tag matching the language of the answers."
}

// GenerationSchema is the structured-output contract for a generated persona draft.
func GenerationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        {Type: genai.TypeString},
			"personality": {Type: genai.TypeString},
			"memory":      {Type: genai.TypeString},
			"purpose":     {Type: genai.TypeString},
			"gender": {
				Type: genai.TypeString,
				Enum: []string{"male", "female", "neutral"},
			},
			"language": {Type: genai.TypeString},
		},
		Required:         []string{"name", "personality", "purpose", "gender", "language"},
		PropertyOrdering: []string{"name", "personality", "memory", "purpose", "gender", "language"},
	}
}

// GenerationPrompt serializes the quiz answers into one model turn.
func GenerationPrompt(answers []models.QuizAnswer) string {
	var b strings.Builder
	b.WriteString("Here are the user's quiz answers:\n")
	for _, a := range answers {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", a.Question, a.Answer)
	}
	b.WriteString("Generate the character as JSON.")
	return b.String()
}

// Transcript serializes a conversation as alternating labeled turns for the
// analysis call. The persona's display name labels the model turns.
func Transcript(personaName string, history []models.Message) string {
	if personaName == "" {
		personaName = "Character"
	}
	var b strings.Builder
	for _, m := range history {
		label := "User"
		if m.Role == models.RoleModel {
			label = personaName
		}
		fmt.Fprintf(&b, "%s: %s\n", label, m.Text)
	}
	return b.String()
}
