// Package vision defines the capability contract for AI vision
// providers and parses their responses into order fields. Vendor
// implementations live in subpackages.
package vision

import (
	"context"
)

// Request carries one extraction call's input.
type Request struct {
	// Image is the encoded image handed to the model.
	Image []byte
	// MIME is the encoding of Image, e.g. "image/png".
	MIME string
	// Prompt is the extraction instruction. Callers normally pass
	// ExtractionPrompt.
	Prompt string
}

// Provider is a vision model that can answer an extraction request
// with raw text. Implementations must respect context cancellation.
type Provider interface {
	Name() string
	Extract(ctx context.Context, req Request) (string, error)
}

// ExtractionPrompt instructs the model to return the order fields as a
// bare JSON object.
const ExtractionPrompt = `You are an expert online-order analyst. Extract structured data from this order screenshot.

Return ONLY valid JSON with this exact structure (no markdown, no extra text):

{
  "order_id": "string or null",
  "order_date": "string or null",
  "total": "string or null",
  "items": [
    {
      "name": "string",
      "quantity": "integer or null",
      "price": "string or null"
    }
  ],
  "seller": "string or null",
  "tracking_number": "string or null"
}

Rules:
- Use null for missing data, never leave fields undefined
- Keep prices in "$X.XX" format
- Extract ALL items visible
- Be precise and accurate
- Return ONLY the JSON object`

// DefaultTemperature keeps extraction output deterministic.
const DefaultTemperature = 0.1
