// Package tool exposes the memory store to an external reasoning collaborator
// through a small function-calling surface.
package tool

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/openai/openai-go/v3"

	"github.com/easeaico/project-kokoro/internal/errs"
	"github.com/easeaico/project-kokoro/internal/memory"
	"github.com/easeaico/project-kokoro/internal/types"
)

const (
	ToolCreateMemory   = "create_memory"
	ToolSearchMemories = "search_memories"
	ToolGetMemory      = "get_memory"
)

// CategoryVocabulary supplies the known category paths at call time.
type CategoryVocabulary interface {
	Known(ctx context.Context) ([]string, error)
}

// Declaration describes one callable operation.
type Declaration struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// MemoryToolset routes function calls into the memory store.
type MemoryToolset struct {
	memories   *memory.Service
	categories CategoryVocabulary
	creator    string
}

// NewMemoryToolset returns the toolset. creator is recorded on memories the
// collaborator writes.
func NewMemoryToolset(memories *memory.Service, categories CategoryVocabulary, creator string) *MemoryToolset {
	return &MemoryToolset{
		memories:   memories,
		categories: categories,
		creator:    creator,
	}
}

// Declarations returns the three operation schemas. The category enum is
// resolved from the Category Store at call time so it always matches the
// known set.
func (t *MemoryToolset) Declarations(ctx context.Context) ([]Declaration, error) {
	known, err := t.categories.Known(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load category vocabulary")
	}
	categoryEnum := make([]any, 0, len(known))
	for _, path := range known {
		categoryEnum = append(categoryEnum, path)
	}

	categoriesSchema := &jsonschema.Schema{
		Type:  "array",
		Items: &jsonschema.Schema{Type: "string", Enum: categoryEnum},
	}

	return []Declaration{
		{
			Name:        ToolCreateMemory,
			Description: "Store a new memory about the user or conversation.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"content":    {Type: "string", Description: "The fact to remember."},
					"categories": categoriesSchema,
					"importance": {Type: "integer", Description: "Importance score, 0 and up.", Minimum: float64Ptr(0)},
				},
				Required: []string{"content", "categories"},
			},
		},
		{
			Name:        ToolSearchMemories,
			Description: "Search stored memories ranked by importance.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query":      {Type: "string", Description: "Text to match against memory content."},
					"categories": categoriesSchema,
					"limit":      {Type: "integer", Minimum: float64Ptr(1), Maximum: float64Ptr(100)},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        ToolGetMemory,
			Description: "Fetch one memory by id, optionally with the detailed view.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"memory_id": {Type: "integer"},
					"full":      {Type: "boolean", Description: "Return the full content view."},
				},
				Required: []string{"memory_id"},
			},
		},
	}, nil
}

type createMemoryArgs struct {
	Content    string   `json:"content"`
	Categories []string `json:"categories"`
	Importance *int     `json:"importance"`
}

type searchMemoriesArgs struct {
	Query      string   `json:"query"`
	Categories []string `json:"categories"`
	Limit      int      `json:"limit"`
}

type getMemoryArgs struct {
	MemoryID int  `json:"memory_id"`
	Full     bool `json:"full"`
}

// MemoryRecord is the plain structured view returned to the collaborator.
type MemoryRecord struct {
	ID         int      `json:"id"`
	Content    string   `json:"content"`
	Importance int      `json:"importance"`
	Version    int      `json:"version"`
	Categories []string `json:"categories"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

// Dispatch routes a named call with raw JSON arguments into the memory store.
func (t *MemoryToolset) Dispatch(ctx context.Context, name string, rawArgs json.RawMessage) (any, error) {
	switch name {
	case ToolCreateMemory:
		var args createMemoryArgs
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return nil, goerr.Wrap(errs.ErrValidation, "malformed create_memory arguments", goerr.V("cause", err.Error()))
		}
		importance := 100
		if args.Importance != nil {
			importance = *args.Importance
		}
		mem, err := t.memories.Create(ctx, memory.CreateInput{
			SimpleContent: args.Content,
			FullContent:   args.Content,
			Categories:    args.Categories,
			Importance:    importance,
			CreatedBy:     t.creator,
		})
		if err != nil {
			return nil, err
		}
		return toRecord(mem), nil

	case ToolSearchMemories:
		var args searchMemoriesArgs
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return nil, goerr.Wrap(errs.ErrValidation, "malformed search_memories arguments", goerr.V("cause", err.Error()))
		}
		results := t.memories.Search(ctx, args.Query, args.Categories, args.Limit)
		records := make([]MemoryRecord, 0, len(results))
		for _, mem := range results {
			records = append(records, toRecord(mem))
		}
		return records, nil

	case ToolGetMemory:
		var args getMemoryArgs
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return nil, goerr.Wrap(errs.ErrValidation, "malformed get_memory arguments", goerr.V("cause", err.Error()))
		}
		mem, err := t.memories.Get(ctx, args.MemoryID, args.Full)
		if err != nil {
			return nil, err
		}
		record := toRecord(mem)
		if args.Full {
			record.Content = mem.FullContent
		}
		return record, nil

	default:
		slog.Warn("unknown tool call", "name", name)
		return nil, goerr.Wrap(errs.ErrValidation, "unknown tool", goerr.V("name", name))
	}
}

// OpenAIFunctions converts the declarations into OpenAI tool parameters
// for chat-completion function calling.
func (t *MemoryToolset) OpenAIFunctions(ctx context.Context) ([]openai.ChatCompletionToolUnionParam, error) {
	declarations, err := t.Declarations(ctx)
	if err != nil {
		return nil, err
	}
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(declarations))
	for _, decl := range declarations {
		tools = append(tools, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        decl.Name,
					Description: openai.String(decl.Description),
					Parameters:  schemaToFunctionParameters(decl.Parameters),
				},
			},
		})
	}
	return tools, nil
}

// schemaToFunctionParameters converts a jsonschema.Schema into the map form
// the OpenAI API expects.
func schemaToFunctionParameters(schema *jsonschema.Schema) openai.FunctionParameters {
	result := make(map[string]any)

	if schema.Type != "" {
		result["type"] = schema.Type
	} else {
		result["type"] = "object"
	}

	if len(schema.Properties) > 0 {
		properties := make(map[string]any)
		for name, propSchema := range schema.Properties {
			if propSchema != nil {
				properties[name] = schemaProperty(propSchema)
			}
		}
		result["properties"] = properties
	}

	if len(schema.Required) > 0 {
		result["required"] = schema.Required
	} else {
		result["required"] = []string{}
	}

	return openai.FunctionParameters(result)
}

func schemaProperty(schema *jsonschema.Schema) map[string]any {
	prop := make(map[string]any)
	if schema.Type != "" {
		prop["type"] = schema.Type
	}
	if schema.Description != "" {
		prop["description"] = schema.Description
	}
	if len(schema.Enum) > 0 {
		prop["enum"] = schema.Enum
	}
	if schema.Items != nil {
		prop["items"] = schemaProperty(schema.Items)
	}
	if schema.Minimum != nil {
		prop["minimum"] = *schema.Minimum
	}
	if schema.Maximum != nil {
		prop["maximum"] = *schema.Maximum
	}
	return prop
}

func toRecord(mem types.Memory) MemoryRecord {
	return MemoryRecord{
		ID:         mem.ID,
		Content:    mem.SimpleContent,
		Importance: mem.Importance,
		Version:    mem.Version,
		Categories: mem.Categories,
		CreatedAt:  mem.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  mem.UpdatedAt.Format(time.RFC3339),
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}
