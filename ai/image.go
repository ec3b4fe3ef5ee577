package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ImageService generates scene images for prompts the model proposes in its
// replies. Messages stay append-only: the client attaches the returned URL
// itself rather than the server rewriting history.
type ImageService struct {
	client *openai.Client
}

// NewImageService returns a generator, or nil when no API key is configured
// so callers can report the capability as disabled.
func NewImageService(openAIKey string) *ImageService {
	if openAIKey == "" {
		return nil
	}
	return &ImageService{client: openai.NewClient(openAIKey)}
}

// Generate renders one image for the prompt and returns its URL.
func (s *ImageService) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("image generation: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("image generation returned no data")
	}
	return resp.Data[0].URL, nil
}
