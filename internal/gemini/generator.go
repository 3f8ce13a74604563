// Package gemini wraps the Google GenAI SDK behind the small surface the
// pipeline stages need: structured JSON, free text, and image generation and
// editing, all with transient-error retry.
package gemini

import "context"

// Image is a generated or edited image.
type Image struct {
	Data     []byte
	MIMEType string
}

// Generator is the model surface consumed by pipeline stages. Tests swap in
// a fake; production uses Client.
type Generator interface {
	// GenerateJSON prompts model for a JSON response and unmarshals it into out.
	GenerateJSON(ctx context.Context, model, prompt string, out any) error

	// GenerateText prompts model for a plain text response.
	GenerateText(ctx context.Context, model, prompt string) (string, error)

	// GenerateImage produces one image for prompt. aspectRatio is a ratio
	// string such as "9:16"; mimeType selects the output encoding.
	GenerateImage(ctx context.Context, model, prompt, aspectRatio, mimeType string) (Image, error)

	// EditImage applies prompt to an existing image and returns the result.
	EditImage(ctx context.Context, model, prompt string, img Image) (Image, error)
}
