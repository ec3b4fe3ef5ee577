package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-persona-chat/backend/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

// Capabilities reports which speech services are configured. Clients hide
// the dependent affordances when a capability is off instead of erroring.
type Capabilities struct {
	TextToSpeech bool `json:"text_to_speech"`
	SpeechToText bool `json:"speech_to_text"`
}

// SpeechService converts text to audio through ElevenLabs and audio to text
// through Whisper. Either side degrades to a disabled capability when its
// API key is missing.
type SpeechService struct {
	elevenLabsKey string
	openaiClient  *openai.Client
	httpClient    *http.Client
}

// NewSpeechService wires the speech backends. Empty keys disable the
// corresponding capability rather than failing construction.
func NewSpeechService(elevenLabsKey, openAIKey string) *SpeechService {
	s := &SpeechService{
		elevenLabsKey: elevenLabsKey,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
	if openAIKey != "" {
		s.openaiClient = openai.NewClient(openAIKey)
	}
	return s
}

// Capabilities reports what this instance can do.
func (s *SpeechService) Capabilities() Capabilities {
	return Capabilities{
		TextToSpeech: s.elevenLabsKey != "",
		SpeechToText: s.openaiClient != nil,
	}
}

type ttsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed"`
}

type ttsRequest struct {
	Text          string           `json:"text"`
	VoiceSettings ttsVoiceSettings `json:"voice_settings"`
}

// TextToSpeech renders text with the given voice. The persona's rate
// category maps to the synthesis speed; pitch is a playback-side adjustment
// and is returned to the caller with the audio.
func (s *SpeechService) TextToSpeech(ctx context.Context, text, voiceID string, rate models.RateLevel) ([]byte, error) {
	if s.elevenLabsKey == "" {
		return nil, fmt.Errorf("text-to-speech unavailable: ElevenLabs API key not configured")
	}
	if voiceID == "" {
		voiceID = "21m00Tcm4TlvDq8ikWAM" // Rachel
	}

	url := fmt.Sprintf("https://api.elevenlabs.io/v1/text-to-speech/%s", voiceID)
	body := ttsRequest{
		Text: text,
		VoiceSettings: ttsVoiceSettings{
			Stability:       0.75,
			SimilarityBoost: 0.75,
			Speed:           rate.Multiplier(),
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling TTS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating TTS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.elevenLabsKey)
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("TTS request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return io.ReadAll(resp.Body)
}

// Transcribe converts one uploaded clip to its final transcript.
func (s *SpeechService) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if s.openaiClient == nil {
		return "", fmt.Errorf("speech-to-text unavailable: OpenAI API key not configured")
	}
	if filename == "" {
		filename = "audio.webm"
	}

	resp, err := s.openaiClient.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio),
		FilePath: filename,
	})
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	return resp.Text, nil
}
