// Package callback provides the agent hooks that surround each conversation
// turn: context injection before the turn, state commits after it.
package callback

import (
	"log/slog"

	"google.golang.org/adk/agent"
	"google.golang.org/genai"
)

// WrapBefore guards a before-agent callback. A panic or error inside a hook
// must never abort the turn itself.
func WrapBefore(name string, cb agent.BeforeAgentCallback) agent.BeforeAgentCallback {
	return func(ctx agent.CallbackContext) (content *genai.Content, err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("before callback panic", "name", name, "error", r)
				content, err = nil, nil
			}
		}()

		content, err = cb(ctx)
		if err != nil {
			slog.Error("before callback failed", "name", name, "error", err.Error())
			return nil, nil
		}
		return content, nil
	}
}

// WrapAfter guards an after-agent callback the same way.
func WrapAfter(name string, cb agent.AfterAgentCallback) agent.AfterAgentCallback {
	return func(ctx agent.CallbackContext) (content *genai.Content, err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("after callback panic", "name", name, "error", r)
				content, err = nil, nil
			}
		}()

		content, err = cb(ctx)
		if err != nil {
			slog.Error("after callback failed", "name", name, "error", err.Error())
			return nil, nil
		}
		return content, nil
	}
}
