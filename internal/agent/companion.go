// Package agent assembles the conversational companion agent.
package agent

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/easeaico/project-kokoro/internal/callback"
	"github.com/easeaico/project-kokoro/internal/config"
	"github.com/easeaico/project-kokoro/internal/prompt"
)

const companionName = "kokoro"

// companionInstruction frames every turn; the per-turn context block is
// injected from session state by the before-agent callback.
const companionInstruction = `{CompanionContext?}

Reply to the user's latest message. Stay consistent with the memories and
relationship context above, and let the stated mood shape your tone.`

// Deps carries the collaborators the companion agent hooks into.
type Deps struct {
	Moods         callback.MoodReader
	Relationships callback.RelationshipReader
	Memories      callback.MemorySearcher
	Processor     callback.MessageProcessor
	// AdminIDs lists sender ids treated as privileged.
	AdminIDs []string
}

// NewCompanionAgent builds the LLM agent with memory-aware context injection
// and post-turn analysis commits.
func NewCompanionAgent(ctx context.Context, cfg config.Config, deps Deps) (agent.Agent, error) {
	llmModel, err := gemini.NewModel(ctx, cfg.CompanionModel, &genai.ClientConfig{
		APIKey:  cfg.GoogleAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create companion model")
	}

	builder := prompt.NewBuilder(cfg.TopK)

	companion, err := llmagent.New(llmagent.Config{
		Name:        companionName,
		Description: "conversational companion with long-term memory and affective state",
		Model:       llmModel,
		Instruction: companionInstruction,
		BeforeAgentCallbacks: []agent.BeforeAgentCallback{
			callback.WrapBefore("companion_context",
				callback.NewCompanionContextCallback(companionName, deps.Moods, deps.Relationships, deps.Memories, builder, deps.AdminIDs)),
		},
		AfterAgentCallbacks: []agent.AfterAgentCallback{
			callback.WrapAfter("analysis_commit",
				callback.NewAnalysisCommitCallback(deps.Processor, deps.AdminIDs)),
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create companion agent")
	}
	return companion, nil
}
