// Package prompt assembles the companion agent's system instruction from the
// current mood, the sender relationship, and retrieved memories.
package prompt

import (
	"bytes"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/easeaico/project-kokoro/internal/types"
)

// BuildContext contains all inputs for instruction assembly.
type BuildContext struct {
	AgentName    string
	Mood         types.BotMood
	StyleHint    string
	Relationship types.UserRelationship
	Memories     []types.RetrievedMemory
}

// Builder renders the layered system instruction.
type Builder struct {
	memoryLimit int
	nowFunc     func() time.Time
}

// NewBuilder creates an instruction Builder. memoryLimit caps how many
// retrieved memories are rendered.
func NewBuilder(memoryLimit int) *Builder {
	if memoryLimit <= 0 {
		memoryLimit = 5
	}
	return &Builder{
		memoryLimit: memoryLimit,
		nowFunc:     time.Now,
	}
}

// Build renders the instruction text.
func (b *Builder) Build(ctx BuildContext) (string, error) {
	if ctx.AgentName == "" {
		ctx.AgentName = "kokoro"
	}

	memories := ctx.Memories
	if len(memories) > b.memoryLimit {
		memories = memories[:b.memoryLimit]
	}

	data := struct {
		AgentName    string
		Mood         types.BotMood
		StyleHint    string
		Relationship types.UserRelationship
		Memories     []types.RetrievedMemory
		Now          string
	}{
		AgentName:    ctx.AgentName,
		Mood:         ctx.Mood,
		StyleHint:    ctx.StyleHint,
		Relationship: ctx.Relationship,
		Memories:     memories,
		Now:          b.nowFunc().Format(time.RFC3339),
	}

	var buf bytes.Buffer
	if err := instructionTemplate.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render instruction")
	}
	return buf.String(), nil
}
