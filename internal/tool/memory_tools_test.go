package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/goerr/v2"

	"github.com/easeaico/project-kokoro/internal/errs"
	"github.com/easeaico/project-kokoro/internal/memory"
	"github.com/easeaico/project-kokoro/internal/types"
)

type stubMemoryRepo struct {
	rows   map[int]types.Memory
	nextID int
}

func newStubMemoryRepo() *stubMemoryRepo {
	return &stubMemoryRepo{rows: make(map[int]types.Memory), nextID: 1}
}

func (s *stubMemoryRepo) Create(ctx context.Context, mem types.Memory, categoryIDs []int) (types.Memory, error) {
	mem.ID = s.nextID
	s.nextID++
	mem.Version = 1
	s.rows[mem.ID] = mem
	return mem, nil
}

func (s *stubMemoryRepo) Evolve(ctx context.Context, originalID int, mem types.Memory, categoryIDs []int) (types.Memory, error) {
	return types.Memory{}, goerr.Wrap(errs.ErrNotFound, "not supported")
}

func (s *stubMemoryRepo) Get(ctx context.Context, id int) (types.Memory, error) {
	mem, ok := s.rows[id]
	if !ok {
		return types.Memory{}, goerr.Wrap(errs.ErrNotFound, "memory not found")
	}
	return mem, nil
}

func (s *stubMemoryRepo) Search(ctx context.Context, query string, categories []string, limit int) ([]types.Memory, error) {
	var out []types.Memory
	for _, mem := range s.rows {
		out = append(out, mem)
	}
	return out, nil
}

func (s *stubMemoryRepo) SearchSimilar(ctx context.Context, embedding []float32, topK int, threshold float64) ([]types.RetrievedMemory, error) {
	return nil, nil
}

func (s *stubMemoryRepo) AddLink(ctx context.Context, link types.MemoryLink) (types.MemoryLink, error) {
	return link, nil
}

func (s *stubMemoryRepo) Links(ctx context.Context, memoryID int) ([]types.MemoryLink, error) {
	return nil, nil
}

func (s *stubMemoryRepo) Delete(ctx context.Context, id int) error {
	return nil
}

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, fullPaths []string) ([]types.Category, error) {
	if len(fullPaths) == 0 {
		return nil, goerr.Wrap(errs.ErrValidation, "categories must not be empty")
	}
	var out []types.Category
	for i, p := range fullPaths {
		if p == "no.such" {
			return nil, goerr.Wrap(errs.ErrValidation, "unknown categories")
		}
		out = append(out, types.Category{ID: i + 1, FullPath: p})
	}
	return out, nil
}

type stubVocabulary struct{}

func (stubVocabulary) Known(ctx context.Context) ([]string, error) {
	return []string{"personal.identity", "conversation.casual"}, nil
}

func newTestToolset() (*MemoryToolset, *stubMemoryRepo) {
	repo := newStubMemoryRepo()
	svc := memory.NewService(repo, stubResolver{}, nil, 5, 0.7)
	return NewMemoryToolset(svc, stubVocabulary{}, "agent"), repo
}

func TestDeclarationsListThreeTools(t *testing.T) {
	toolset, _ := newTestToolset()

	decls, err := toolset.Declarations(context.Background())
	if err != nil {
		t.Fatalf("Declarations returned error: %v", err)
	}
	if len(decls) != 3 {
		t.Fatalf("expected 3 declarations, got %d", len(decls))
	}
	names := map[string]bool{}
	for _, d := range decls {
		if d.Parameters == nil {
			t.Fatalf("declaration %s has no parameter schema", d.Name)
		}
		names[d.Name] = true
	}
	for _, want := range []string{ToolCreateMemory, ToolSearchMemories, ToolGetMemory} {
		if !names[want] {
			t.Fatalf("missing declaration %s", want)
		}
	}
}

func TestDispatchCreateAndGet(t *testing.T) {
	toolset, _ := newTestToolset()

	created, err := toolset.Dispatch(context.Background(), ToolCreateMemory,
		json.RawMessage(`{"content": "user likes jazz", "categories": ["conversation.casual"]}`))
	if err != nil {
		t.Fatalf("create dispatch returned error: %v", err)
	}
	record, ok := created.(MemoryRecord)
	if !ok {
		t.Fatalf("expected MemoryRecord, got %T", created)
	}
	if record.Importance != 100 {
		t.Fatalf("expected default importance 100, got %d", record.Importance)
	}

	fetched, err := toolset.Dispatch(context.Background(), ToolGetMemory,
		json.RawMessage(`{"memory_id": 1}`))
	if err != nil {
		t.Fatalf("get dispatch returned error: %v", err)
	}
	if got := fetched.(MemoryRecord); got.Content != "user likes jazz" {
		t.Fatalf("expected stored content, got %q", got.Content)
	}
}

func TestDispatchSearch(t *testing.T) {
	toolset, _ := newTestToolset()

	if _, err := toolset.Dispatch(context.Background(), ToolCreateMemory,
		json.RawMessage(`{"content": "a", "categories": ["conversation.casual"]}`)); err != nil {
		t.Fatalf("create dispatch returned error: %v", err)
	}

	results, err := toolset.Dispatch(context.Background(), ToolSearchMemories,
		json.RawMessage(`{"query": "a"}`))
	if err != nil {
		t.Fatalf("search dispatch returned error: %v", err)
	}
	records := results.([]MemoryRecord)
	if len(records) != 1 {
		t.Fatalf("expected 1 result, got %d", len(records))
	}
}

func TestDispatchRejectsUnknownTool(t *testing.T) {
	toolset, _ := newTestToolset()
	_, err := toolset.Dispatch(context.Background(), "delete_everything", json.RawMessage(`{}`))
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDispatchRejectsMalformedArgs(t *testing.T) {
	toolset, _ := newTestToolset()
	_, err := toolset.Dispatch(context.Background(), ToolCreateMemory, json.RawMessage(`{not json`))
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOpenAIFunctionsCarrySchemas(t *testing.T) {
	toolset, _ := newTestToolset()

	tools, err := toolset.OpenAIFunctions(context.Background())
	if err != nil {
		t.Fatalf("OpenAIFunctions returned error: %v", err)
	}
	if len(tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools))
	}
	for _, tl := range tools {
		fn := tl.OfFunction
		if fn == nil {
			t.Fatalf("expected function tool")
		}
		params := fn.Function.Parameters
		if params["type"] != "object" {
			t.Fatalf("%s: expected object parameters, got %v", fn.Function.Name, params["type"])
		}
		if _, ok := params["properties"]; !ok {
			t.Fatalf("%s: expected properties", fn.Function.Name)
		}
	}
}
