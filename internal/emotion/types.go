// Package emotion implements the four-stage analysis pipeline that estimates
// sentiment, decides what to remember, proposes a mood delta, and picks a
// response policy for each inbound message.
package emotion

// Sentiment estimate sources.
const (
	SourceLexicon = "lexicon"
	SourceLLM     = "llm"
)

// Tone modifier vocabulary for response composition.
const (
	ToneCaring       = "caring and supportive"
	ToneExcited      = "excited and enthusiastic"
	ToneCalming      = "calm and soothing"
	ToneProfessional = "professional and helpful"
)

// SentimentEstimate is the Stage-1 result: a VAD triple in [-1,1] plus the
// sentiment tokens that produced it.
type SentimentEstimate struct {
	Valence        float64  `json:"valence"`
	Arousal        float64  `json:"arousal"`
	Dominance      float64  `json:"dominance"`
	Label          string   `json:"label"`
	PositiveTokens []string `json:"positive_tokens,omitempty"`
	NegativeTokens []string `json:"negative_tokens,omitempty"`
	Source         string   `json:"source"`
}

// MemorizeDecision is the Stage-2 result.
type MemorizeDecision struct {
	ShouldMemorize  bool     `json:"should_memorize"`
	ImportanceScore int      `json:"importance_score"`
	SimpleContent   string   `json:"simple_content"`
	FullContent     string   `json:"full_content"`
	Categories      []string `json:"categories"`
	Keywords        []string `json:"keywords,omitempty"`
}

// MoodDelta is the Stage-3 result: the proposed change to the agent's mood.
type MoodDelta struct {
	Valence   float64 `json:"valence"`
	Arousal   float64 `json:"arousal"`
	Dominance float64 `json:"dominance"`
	// AdminProtectionApplied is set when the privileged-sender floor actually
	// truncated the valence delta.
	AdminProtectionApplied bool   `json:"admin_protection_applied"`
	Reason                 string `json:"reason"`
}

// ResponsePolicy is the Stage-4 result.
type ResponsePolicy struct {
	ShouldRespond bool   `json:"should_respond"`
	ToneModifier  string `json:"tone_modifier"`
	Reason        string `json:"reason,omitempty"`
}

// AnalysisResult bundles all four stage results. Every field is always
// populated on a successful Analyze call.
type AnalysisResult struct {
	Sentiment SentimentEstimate `json:"sentiment"`
	Memorize  MemorizeDecision  `json:"memorize"`
	MoodDelta MoodDelta         `json:"mood_delta"`
	Response  ResponsePolicy    `json:"response"`
}
