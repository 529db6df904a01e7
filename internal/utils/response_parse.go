package utils

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// SentimentOutput is the structured response expected from a sentiment model.
type SentimentOutput struct {
	Valence   float64 `json:"valence"`
	Arousal   float64 `json:"arousal"`
	Dominance float64 `json:"dominance"`
	Label     string  `json:"label"`
}

// ParseSentimentOutput extracts and validates structured sentiment output.
// The model may wrap the JSON object in prose or code fences.
func ParseSentimentOutput(raw string) (SentimentOutput, error) {
	clean := strings.TrimSpace(raw)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		clean = clean[start : end+1]
	}

	var output SentimentOutput
	if err := json.Unmarshal([]byte(clean), &output); err != nil {
		return SentimentOutput{}, goerr.Wrap(err, "failed to parse sentiment output")
	}

	for _, axis := range []float64{output.Valence, output.Arousal, output.Dominance} {
		if axis < -1 || axis > 1 {
			return SentimentOutput{}, goerr.New("sentiment axis out of range", goerr.V("value", axis))
		}
	}

	label := strings.ToLower(strings.TrimSpace(output.Label))
	switch label {
	case "positive", "negative", "neutral", "":
		output.Label = label
	default:
		return SentimentOutput{}, goerr.New("invalid sentiment label", goerr.V("label", output.Label))
	}

	return output, nil
}
