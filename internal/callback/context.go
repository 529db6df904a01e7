package callback

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/adk/agent"
	"google.golang.org/genai"

	"github.com/easeaico/project-kokoro/internal/mood"
	"github.com/easeaico/project-kokoro/internal/prompt"
	"github.com/easeaico/project-kokoro/internal/types"
	"github.com/easeaico/project-kokoro/internal/utils"
)

// contextStateKey is the session state key the agent instruction references
// as {CompanionContext?}.
const contextStateKey = "CompanionContext"

// MoodReader exposes the current affective state.
type MoodReader interface {
	Current(ctx context.Context) (types.BotMood, error)
}

// RelationshipReader exposes the per-sender relationship row.
type RelationshipReader interface {
	Get(ctx context.Context, senderID string, privileged bool) (types.UserRelationship, error)
}

// MemorySearcher retrieves memories relevant to the current message.
type MemorySearcher interface {
	SearchSemantic(ctx context.Context, query string) []types.RetrievedMemory
}

// NewCompanionContextCallback returns a before-agent hook that renders mood,
// relationship, and retrieved memories into session state for instruction
// injection. Every lookup degrades independently; the turn always proceeds.
func NewCompanionContextCallback(agentName string, moods MoodReader, relationships RelationshipReader, memories MemorySearcher, builder *prompt.Builder, adminIDs []string) agent.BeforeAgentCallback {
	return func(ctx agent.CallbackContext) (*genai.Content, error) {
		senderID := ctx.UserID()

		bc := prompt.BuildContext{AgentName: agentName}

		current, err := moods.Current(ctx)
		if err != nil {
			slog.Warn("failed to load mood for context", "error", err.Error())
			current = types.BotMood{PrimaryMood: "neutral"}
		}
		bc.Mood = current
		bc.StyleHint = mood.Instruction(current.PrimaryMood)

		rel, err := relationships.Get(ctx, senderID, isAdmin(senderID, adminIDs))
		if err != nil {
			slog.Warn("failed to load relationship for context", "error", err.Error(), "sender_id", senderID)
			rel = types.UserRelationship{UserID: senderID, RelationshipType: "regular", BotFeeling: "neutral"}
		}
		bc.Relationship = rel

		if query := strings.TrimSpace(utils.ExtractContentText(ctx.UserContent())); query != "" {
			bc.Memories = memories.SearchSemantic(ctx, query)
		}

		rendered, err := builder.Build(bc)
		if err != nil {
			slog.Warn("failed to render companion context", "error", err.Error())
			return nil, nil
		}

		state := ctx.State()
		if state == nil {
			slog.Warn("session state is nil, skipping context injection")
			return nil, nil
		}
		if err := state.Set(contextStateKey, rendered); err != nil {
			slog.Warn("failed to set companion context", "error", err.Error())
		}
		if err := state.Set("Now", time.Now().Format(time.RFC3339)); err != nil {
			slog.Warn("failed to set Now", "error", err.Error())
		}

		return nil, nil
	}
}

func isAdmin(senderID string, adminIDs []string) bool {
	for _, id := range adminIDs {
		if id == senderID {
			return true
		}
	}
	return false
}
