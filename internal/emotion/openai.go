package emotion

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/easeaico/project-kokoro/internal/utils"
)

// OpenAIAnalyzer delegates Stage-1 estimation to an OpenAI-compatible chat
// completion endpoint.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
}

// NewOpenAIAnalyzer returns an analyzer backed by an OpenAI-compatible API.
func NewOpenAIAnalyzer(apiKey, modelName string) (*OpenAIAnalyzer, error) {
	if apiKey == "" {
		return nil, goerr.New("API key is required")
	}
	if modelName == "" {
		return nil, goerr.New("model name cannot be empty")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIAnalyzer{
		client: &client,
		model:  modelName,
	}, nil
}

// EstimateSentiment asks the model for a VAD estimate of the text.
func (a *OpenAIAnalyzer) EstimateSentiment(ctx context.Context, text string) (SentimentEstimate, error) {
	if a == nil || a.client == nil {
		return SentimentEstimate{}, goerr.New("sentiment analyzer not configured")
	}
	if strings.TrimSpace(text) == "" {
		return SentimentEstimate{Source: SourceLLM}, nil
	}

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(sentimentInstruction),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return SentimentEstimate{}, goerr.Wrap(err, "failed to call chat completion API")
	}
	if resp == nil || len(resp.Choices) == 0 {
		return SentimentEstimate{}, goerr.New("empty sentiment response")
	}

	parsed, err := utils.ParseSentimentOutput(resp.Choices[0].Message.Content)
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
