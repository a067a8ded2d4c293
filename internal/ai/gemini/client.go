package gemini

import (
	"context"

	"google.golang.org/genai"

	"documind/internal/ai"
)

// Client is a Gemini-backed completion provider.
type Client struct {
	client *genai.Client
	config *Config
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &ai.ProviderError{
			Provider: "gemini",
			Code:     ai.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}

	return &Client{
		client: client,
		config: config,
	}, nil
}

// Complete generates a plain-text completion for the prompt.
func (c *Client) Complete(ctx context.Context, prompt string, opts ai.CompletionOptions) (string, error) {
	result, err := c.client.Models.GenerateContent(
		ctx,
		c.config.Model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float64(opts.Temperature)),
			MaxOutputTokens: genai.Ptr(int64(opts.MaxOutputTokens)),
		},
	)
	if err != nil {
		return "", &ai.ProviderError{
			Provider: "gemini",
			Code:     ai.ErrCodeServiceDown,
			Message:  "Failed to generate completion",
			Err:      err,
		}
	}
	if result == nil {
		return "", &ai.ProviderError{
			Provider: "gemini",
			Code:     ai.ErrCodeInvalidInput,
			Message:  "No response generated",
		}
	}

	text, err := result.Text()
	if err != nil {
		return "", &ai.ProviderError{
			Provider: "gemini",
			Code:     ai.ErrCodeInvalidInput,
			Message:  "Failed to extract response text",
			Err:      err,
		}
	}
	if text == "" {
		return "", &ai.ProviderError{
			Provider: "gemini",
			Code:     ai.ErrCodeInvalidInput,
			Message:  "Empty response generated",
		}
	}
	return text, nil
}

func (c *Client) GetProviderName() string {
	return "gemini"
}
