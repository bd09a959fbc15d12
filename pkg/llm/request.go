package llm

// DefaultMaxLength is the generation length sent when the caller does not pick one.
const DefaultMaxLength = 1000

// GenerateRequest represents a text-generation request (KoboldCpp-compatible).
// Sampler fields are embedded so they are spread into the top-level payload.
type GenerateRequest struct {
	Prompt    string `json:"prompt"`     // Fully rendered prompt string
	MaxLength int    `json:"max_length"` // Max tokens to generate

	Sampler
}
