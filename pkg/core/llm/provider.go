// Package llm provides the external classifier interface used by pattern
// discovery. Semantic field extraction lives outside this repository; the
// only calls made through here propose document-format metadata (page-number
// regexes, tables of contents) that the engine validates locally before
// trusting.
package llm

import "context"

// Provider is the interface for all classifier backends.
type Provider interface {
	// GenerateResponse sends one prompt and returns the raw text response.
	// Options are backend-specific knobs ("model", "response_format", ...).
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}
