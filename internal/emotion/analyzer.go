package emotion

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/project-kokoro/internal/utils"
)

const sentimentInstruction = `You are a sentiment analyzer using the valence-arousal-dominance model.
Given a user message, return ONLY a JSON object of this shape:
{"valence": <float -1..1>, "arousal": <float -1..1>, "dominance": <float -1..1>, "label": "positive"|"negative"|"neutral"}
valence: negative vs positive feeling. arousal: calm vs excited. dominance: how in-control the speaker sounds.
Do not output anything outside the JSON object.`

// LLMAnalyzer delegates Stage-1 estimation to a language model.
type LLMAnalyzer struct {
	model model.LLM
}

// NewLLMAnalyzer returns an analyzer backed by the given model.
func NewLLMAnalyzer(m model.LLM) *LLMAnalyzer {
	return &LLMAnalyzer{model: m}
}

// EstimateSentiment asks the model for a VAD estimate of the text.
func (a *LLMAnalyzer) EstimateSentiment(ctx context.Context, text string) (SentimentEstimate, error) {
	if a == nil || a.model == nil {
		return SentimentEstimate{}, goerr.New("sentiment analyzer not configured")
	}
	if strings.TrimSpace(text) == "" {
		return SentimentEstimate{Source: SourceLLM}, nil
	}

	req := &model.LLMRequest{
		Contents: []*genai.Content{
			genai.NewContentFromText(sentimentInstruction, "system"),
			genai.NewContentFromText(text, "user"),
		},
	}

	seq := a.model.GenerateContent(ctx, req, false)
	var resp *model.LLMResponse
	var err error
	seq(func(r *model.LLMResponse, e error) bool {
		resp = r
		err = e
		return false
	})
	if err != nil {
		return SentimentEstimate{}, goerr.Wrap(err, "sentiment model call failed")
	}
	if resp == nil || resp.Content == nil {
		return SentimentEstimate{}, goerr.New("empty sentiment response")
	}

	parsed, err := utils.ParseSentimentOutput(utils.ExtractContentText(resp.Content))
	if err != nil {
		return SentimentEstimate{}, err
	}
	return SentimentEstimate{
		Valence:   parsed.Valence,
		Arousal:   parsed.Arousal,
		Dominance: parsed.Dominance,
		Label:     parsed.Label,
		Source:    SourceLLM,
	}, nil
}
