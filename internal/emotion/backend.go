package emotion

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// NewAnalyzerForBackend selects the Stage-1 estimation backend. "lexicon"
// returns nil: the pipeline then scores deterministically. The model-backed
// analyzers still fall back to the lexicon on call failure.
func NewAnalyzerForBackend(ctx context.Context, backend, googleAPIKey, openaiAPIKey, modelName string) (Analyzer, error) {
	switch backend {
	case "lexicon", "":
		return nil, nil
	case "gemini":
		llmModel, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
			APIKey:  googleAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create gemini analyzer model")
		}
		return NewLLMAnalyzer(llmModel), nil
	case "openai":
		return NewOpenAIAnalyzer(openaiAPIKey, modelName)
	default:
		return nil, goerr.New("unknown analyzer backend", goerr.V("backend", backend))
	}
}
