package analyst

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/timkosters/edge-city-finder/internal/model"
)

// verifyVerdict is the structured verdict expected from the verification
// prompt. Missing fields fall back to conservative defaults at decode time.
type verifyVerdict struct {
	IsListing        bool     `json:"is_listing"`
	IsAvailable      bool     `json:"is_available"`
	PropertyType     string   `json:"property_type"`
	Classification   string   `json:"classification"`
	Reason           string   `json:"reason"`
	ExtractedPrice   *string  `json:"extracted_price"`
	ExtractedBeds    *int     `json:"extracted_beds"`
	ExtractedAcreage *float64 `json:"extracted_acreage"`
}

// analyzeVerdict is the structured verdict expected from the scoring prompt.
type analyzeVerdict struct {
	Score           *int     `json:"score"`
	AISummary       string   `json:"ai_summary"`
	InferredBeds    *int     `json:"inferred_beds"`
	InferredAcreage *float64 `json:"inferred_acreage"`
}

// DecodeError reports model output that contained no decodable JSON
// object. Raw keeps the full response text for diagnostics.
type DecodeError struct {
	Raw   string
	Cause error
}

func (e *DecodeError) Error() string {
	return "analyst: decode verdict: " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// cleanJSON extracts a JSON object from model output that may carry
// markdown code fences or prose around the object. The model is not
// guaranteed to emit only JSON.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// decodeVerifyVerdict parses untrusted model output into a verifyVerdict.
// A missing or unknown classification falls back to interesting rather
// than dismissing the lead. Failures return a *DecodeError wrapping the
// raw text.
func decodeVerifyVerdict(text string) (*verifyVerdict, error) {
	cleaned := cleanJSON(text)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, &DecodeError{Raw: text, Cause: eris.New("no JSON object in response")}
	}

	var v verifyVerdict
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return nil, &DecodeError{Raw: text, Cause: err}
	}

	if !model.ValidStage(model.FunnelStage(v.Classification)) {
		v.Classification = string(model.StageInteresting)
	}
	return &v, nil
}

// decodeAnalyzeVerdict parses untrusted model output into an analyzeVerdict.
func decodeAnalyzeVerdict(text string) (*analyzeVerdict, error) {
	cleaned := cleanJSON(text)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, &DecodeError{Raw: text, Cause: eris.New("no JSON object in response")}
	}

	var v analyzeVerdict
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return nil, &DecodeError{Raw: text, Cause: err}
	}
	return &v, nil
}
