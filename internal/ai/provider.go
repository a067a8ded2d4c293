package ai

import "context"

// CompletionOptions are per-call generation settings.
type CompletionOptions struct {
	Temperature     float32
	MaxOutputTokens int32
}

// Provider defines the interface for text completion providers.
type Provider interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
	GetProviderName() string
}

// ProviderError represents an error from a completion provider.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Common error codes across providers.
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
)
