// Package memory implements the versioned, linkable store of remembered facts.
package memory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/easeaico/project-kokoro/internal/errs"
	"github.com/easeaico/project-kokoro/internal/types"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// MemoryRepo defines the storage surface the service needs.
type MemoryRepo interface {
	Create(ctx context.Context, mem types.Memory, categoryIDs []int) (types.Memory, error)
	Evolve(ctx context.Context, originalID int, mem types.Memory, categoryIDs []int) (types.Memory, error)
	Get(ctx context.Context, id int) (types.Memory, error)
	Search(ctx context.Context, query string, categories []string, limit int) ([]types.Memory, error)
	SearchSimilar(ctx context.Context, embedding []float32, topK int, threshold float64) ([]types.RetrievedMemory, error)
	AddLink(ctx context.Context, link types.MemoryLink) (types.MemoryLink, error)
	Links(ctx context.Context, memoryID int) ([]types.MemoryLink, error)
	Delete(ctx context.Context, id int) error
}

// CategoryResolver validates category paths against the known taxonomy.
type CategoryResolver interface {
	Resolve(ctx context.Context, fullPaths []string) ([]types.Category, error)
}

// Service is the Memory Store.
type Service struct {
	memories            MemoryRepo
	categories          CategoryResolver
	embedder            Embedder
	topK                int
	similarityThreshold float64
}

// NewService returns a memory service. The embedder is optional; without it
// semantic search degrades to empty results.
func NewService(memories MemoryRepo, categories CategoryResolver, embedder Embedder, topK int, threshold float64) *Service {
	if topK <= 0 {
		topK = 5
	}
	if threshold <= 0 {
		threshold = 0.7
	}
	return &Service{
		memories:            memories,
		categories:          categories,
		embedder:            embedder,
		topK:                topK,
		similarityThreshold: threshold,
	}
}

// CreateInput carries the fields accepted for a new memory.
type CreateInput struct {
	SimpleContent      string
	FullContent        string
	Categories         []string
	Importance         int
	CreatedBy          string
	Keywords           []string
	Tags               []string
	EmotionValence     float64
	EmotionArousal     float64
	EmotionDominance   float64
	EmotionLabel       string
	ContextTemporal    string
	ContextSituational string
}

// Create stores a fresh memory. Categories must be non-empty and drawn from
// the known taxonomy; importance is accepted as given.
func (s *Service) Create(ctx context.Context, in CreateInput) (types.Memory, error) {
	if strings.TrimSpace(in.SimpleContent) == "" {
		return types.Memory{}, goerr.Wrap(errs.ErrValidation, "memory content must not be empty")
	}
	if in.Importance < 0 {
		return types.Memory{}, goerr.Wrap(errs.ErrValidation, "importance must be non-negative",
			goerr.V("importance", in.Importance))
	}
	cats, err := s.categories.Resolve(ctx, in.Categories)
	if err != nil {
		return types.Memory{}, err
	}

	mem := types.Memory{
		SimpleContent:      in.SimpleContent,
		FullContent:        in.FullContent,
		Importance:         in.Importance,
		CreatedBy:          in.CreatedBy,
		Keywords:           in.Keywords,
		Tags:               in.Tags,
		EmotionValence:     in.EmotionValence,
		EmotionArousal:     in.EmotionArousal,
		EmotionDominance:   in.EmotionDominance,
		EmotionLabel:       in.EmotionLabel,
		ContextTemporal:    in.ContextTemporal,
		ContextSituational: in.ContextSituational,
	}
	mem.Embedding = s.embed(ctx, in.SimpleContent)

	return s.memories.Create(ctx, mem, categoryIDs(cats))
}

// EvolveInput carries the fields accepted for an evolution.
type EvolveInput struct {
	SimpleContent string
	FullContent   string
	// Categories nil keeps the original's associations.
	Categories []string
	// Importance 0 keeps the original's importance.
	Importance        int
	CreatedBy         string
	EvolutionTriggers []int
}

// Evolve appends a new version on top of originalID and returns it. The
// original row is never mutated; the chain stays retrievable.
func (s *Service) Evolve(ctx context.Context, originalID int, in EvolveInput) (types.Memory, error) {
	if strings.TrimSpace(in.SimpleContent) == "" {
		return types.Memory{}, goerr.Wrap(errs.ErrValidation, "evolved content must not be empty")
	}

	var ids []int
	if in.Categories != nil {
		cats, err := s.categories.Resolve(ctx, in.Categories)
		if err != nil {
			return types.Memory{}, err
		}
		ids = categoryIDs(cats)
	}

	mem := types.Memory{
		SimpleContent:     in.SimpleContent,
		FullContent:       in.FullContent,
		Importance:        in.Importance,
		CreatedBy:         in.CreatedBy,
		EvolutionTriggers: in.EvolutionTriggers,
	}
	mem.Embedding = s.embed(ctx, in.SimpleContent)

	return s.memories.Evolve(ctx, originalID, mem, ids)
}

// Get returns a memory by id. Every successful call counts as an access. When
// full is false the detailed content view is withheld.
func (s *Service) Get(ctx context.Context, id int, full bool) (types.Memory, error) {
	mem, err := s.memories.Get(ctx, id)
	if err != nil {
		return types.Memory{}, err
	}
	if !full {
		mem.FullContent = ""
	}
	return mem, nil
}

// Search returns memories ranked importance-descending with most-recent ties
// first. Internal failures degrade to an empty result so callers can keep
// serving a reply.
func (s *Service) Search(ctx context.Context, query string, categories []string, limit int) []types.Memory {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	results, err := s.memories.Search(ctx, query, categories, limit)
	if err != nil {
		slog.Warn("memory search degraded to empty result", "error", err.Error(), "query", query)
		return nil
	}
	return results
}

// SearchSemantic ranks memories by embedding similarity. Without an embedder
// it returns nothing.
func (s *Service) SearchSemantic(ctx context.Context, query string) []types.RetrievedMemory {
	if s.embedder == nil || strings.TrimSpace(query) == "" {
		return nil
	}
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		slog.Warn("semantic search degraded to empty result", "error", err.Error())
		return nil
	}
	results, err := s.memories.SearchSimilar(ctx, vec, s.topK, s.similarityThreshold)
	if err != nil {
		slog.Warn("semantic search degraded to empty result", "error", err.Error())
		return nil
	}
	return results
}

// Link records a directed typed edge between two memories. A duplicate
// (from, to, type) triple fails with ErrDuplicate; the caller must observe it.
func (s *Service) Link(ctx context.Context, fromID, toID int, linkType string, strength float64, linkContext string, autoGenerated bool, createdBy string) (types.MemoryLink, error) {
	switch linkType {
	case types.LinkRelated, types.LinkContradicts, types.LinkSupersedes, types.LinkCausedBy, types.LinkPartOf:
	default:
		return types.MemoryLink{}, goerr.Wrap(errs.ErrValidation, "unknown link type", goerr.V("link_type", linkType))
	}
	if fromID == toID {
		return types.MemoryLink{}, goerr.Wrap(errs.ErrValidation, "memory cannot link to itself", goerr.V("id", fromID))
	}
	if strength == 0 {
		strength = 1.0
	}
	return s.memories.AddLink(ctx, types.MemoryLink{
		FromMemoryID:  fromID,
		ToMemoryID:    toID,
		LinkType:      linkType,
		Strength:      strength,
		Context:       linkContext,
		AutoGenerated: autoGenerated,
		CreatedBy:     createdBy,
	})
}

// Links returns every edge touching a memory.
func (s *Service) Links(ctx context.Context, memoryID int) ([]types.MemoryLink, error) {
	return s.memories.Links(ctx, memoryID)
}

// Delete removes a memory, its category associations, and its links.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.memories.Delete(ctx, id)
}

// embed produces an embedding for content, degrading to nil on any failure so
// a write is never blocked by the embedding collaborator.
func (s *Service) embed(ctx context.Context, content string) []float32 {
	if s.embedder == nil {
		return nil
	}
	vec, err := s.embedder.EmbedDocument(ctx, content)
	if err != nil {
		slog.Warn("failed to embed memory content, storing without vector", "error", err.Error())
		return nil
	}
	return vec
}

func categoryIDs(cats []types.Category) []int {
	ids := make([]int, 0, len(cats))
	for _, cat := range cats {
		ids = append(ids, cat.ID)
	}
	return ids
}
