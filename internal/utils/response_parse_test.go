package utils

import "testing"

func TestParseSentimentOutputPlainJSON(t *testing.T) {
	out, err := ParseSentimentOutput(`{"valence": 0.7, "arousal": 0.2, "dominance": -0.1, "label": "positive"}`)
	if err != nil {
		t.Fatalf("ParseSentimentOutput returned error: %v", err)
	}
	if out.Valence != 0.7 || out.Arousal != 0.2 || out.Dominance != -0.1 {
		t.Fatalf("unexpected axes: %+v", out)
	}
	if out.Label != "positive" {
		t.Fatalf("expected positive label, got %q", out.Label)
	}
}

func TestParseSentimentOutputFencedJSON(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"valence\": -0.4, \"arousal\": 0.1, \"dominance\": 0, \"label\": \"Negative\"}\n```"
	out, err := ParseSentimentOutput(raw)
	if err != nil {
		t.Fatalf("ParseSentimentOutput returned error: %v", err)
	}
	if out.Valence != -0.4 {
		t.Fatalf("expected valence -0.4, got %v", out.Valence)
	}
	if out.Label != "negative" {
		t.Fatalf("expected lowered label, got %q", out.Label)
	}
}

func TestParseSentimentOutputEmptyLabel(t *testing.T) {
	out, err := ParseSentimentOutput(`{"valence": 0, "arousal": 0, "dominance": 0}`)
	if err != nil {
		t.Fatalf("ParseSentimentOutput returned error: %v", err)
	}
	if out.Label != "" {
		t.Fatalf("expected empty label, got %q", out.Label)
	}
}

func TestParseSentimentOutputRejectsOutOfRange(t *testing.T) {
	if _, err := ParseSentimentOutput(`{"valence": 1.5, "arousal": 0, "dominance": 0, "label": "positive"}`); err == nil {
		t.Fatalf("expected error for out-of-range valence")
	}
}

func TestParseSentimentOutputRejectsBadLabel(t *testing.T) {
	if _, err := ParseSentimentOutput(`{"valence": 0, "arousal": 0, "dominance": 0, "label": "ecstatic"}`); err == nil {
		t.Fatalf("expected error for unknown label")
	}
}

func TestParseSentimentOutputRejectsNonJSON(t *testing.T) {
	if _, err := ParseSentimentOutput("the user seems upset"); err == nil {
		t.Fatalf("expected error for prose output")
	}
}
