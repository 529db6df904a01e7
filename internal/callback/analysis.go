package callback

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/adk/agent"
	"google.golang.org/genai"

	"github.com/easeaico/project-kokoro/internal/handler"
	"github.com/easeaico/project-kokoro/internal/utils"
)

// MessageProcessor commits the side effects of one inbound message.
type MessageProcessor interface {
	Handle(ctx context.Context, text, senderID string, privileged bool) handler.Reply
}

// NewAnalysisCommitCallback returns an after-agent hook that runs the
// emotional analysis over the user's message and commits memory, mood, and
// relationship updates once the turn has completed.
func NewAnalysisCommitCallback(processor MessageProcessor, adminIDs []string) agent.AfterAgentCallback {
	return func(ctx agent.CallbackContext) (*genai.Content, error) {
		text := strings.TrimSpace(utils.ExtractContentText(ctx.UserContent()))
		if text == "" {
			return nil, nil
		}

		senderID := ctx.UserID()
		reply := processor.Handle(ctx, text, senderID, isAdmin(senderID, adminIDs))
		if reply.Degraded {
			slog.Warn("analysis commit degraded", "sender_id", senderID)
			return nil, nil
		}

		slog.Info("turn committed",
			"sender_id", senderID,
			"mood", reply.Mood.PrimaryMood,
			"memorized", reply.MemoryID != nil)
		return nil, nil
	}
}
