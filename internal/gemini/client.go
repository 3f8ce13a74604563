package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var _ Generator = (*Client)(nil)

// Client is the production Generator backed by the Google GenAI API.
type Client struct {
	client *genai.Client
	retry  RetryPolicy
}

// NewClient creates a Client authenticated with apiKey.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Client{
		client: client,
		retry:  DefaultRetryPolicy(),
	}, nil
}

// GenerateJSON prompts model with a JSON response MIME type and unmarshals
// the reply into out.
func (c *Client) GenerateJSON(ctx context.Context, model, prompt string, out any) error {
	var text string
	err := c.retry.do(ctx, func() error {
		resp, err := c.client.Models.GenerateContent(ctx, model,
			genai.Text(prompt),
			&genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
			})
		if err != nil {
			return err
		}
		text = resp.Text()
		return nil
	})
	if err != nil {
		return fmt.Errorf("gemini: generate JSON with %s: %w", model, err)
	}

	if err := json.Unmarshal([]byte(stripFences(text)), out); err != nil {
		return fmt.Errorf("gemini: %s returned invalid JSON: %w", model, err)
	}
	return nil
}

// GenerateText prompts model for a plain text response.
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	var text string
	err := c.retry.do(ctx, func() error {
		resp, err := c.client.Models.GenerateContent(ctx, model,
			genai.Text(prompt), nil)
		if err != nil {
			return err
		}
		text = resp.Text()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("gemini: generate text with %s: %w", model, err)
	}
	return text, nil
}

// GenerateImage produces a single image for prompt.
func (c *Client) GenerateImage(ctx context.Context, model, prompt, aspectRatio, mimeType string) (Image, error) {
	var img Image
	err := c.retry.do(ctx, func() error {
		resp, err := c.client.Models.GenerateImages(ctx, model, prompt,
			&genai.GenerateImagesConfig{
				NumberOfImages: 1,
				AspectRatio:    aspectRatio,
				OutputMIMEType: mimeType,
			})
		if err != nil {
			return err
		}
		if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
			return fmt.Errorf("no image returned")
		}
		img = Image{
			Data:     resp.GeneratedImages[0].Image.ImageBytes,
			MIMEType: mimeType,
		}
		return nil
	})
	if err != nil {
		return Image{}, fmt.Errorf("gemini: generate image with %s: %w", model, err)
	}
	return img, nil
}

// EditImage applies prompt to img using a multimodal model and returns the
// first image part of the response.
func (c *Client) EditImage(ctx context.Context, model, prompt string, img Image) (Image, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(img.Data, img.MIMEType),
		}, genai.RoleUser),
	}

	var edited Image
	err := c.retry.do(ctx, func() error {
		resp, err := c.client.Models.GenerateContent(ctx, model, contents,
			&genai.GenerateContentConfig{
				ResponseModalities: []string{"TEXT", "IMAGE"},
			})
		if err != nil {
			return err
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					edited = Image{
						Data:     part.InlineData.Data,
						MIMEType: part.InlineData.MIMEType,
					}
					return nil
				}
			}
		}
		return fmt.Errorf("no image part in response")
	})
	if err != nil {
		return Image{}, fmt.Errorf("gemini: edit image with %s: %w", model, err)
	}
	return edited, nil
}

// stripFences removes a markdown code fence wrapper, which some models emit
// even when asked for raw JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
