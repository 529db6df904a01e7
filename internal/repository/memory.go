package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/easeaico/project-kokoro/internal/errs"
	"github.com/easeaico/project-kokoro/internal/types"
)

// memoryModel maps to the memories table.
type memoryModel struct {
	ID            int
	SimpleContent string
	FullContent   string
	Importance    int `gorm:"index"`
	Version       int `gorm:"default:1"`
	ParentID      *int
	CreatedBy     string
	// Keywords/Tags/EvolutionTriggers are stored as JSONB for retrieval filters.
	Keywords           json.RawMessage `gorm:"type:jsonb"`
	Tags               json.RawMessage `gorm:"type:jsonb"`
	EvolutionTriggers  json.RawMessage `gorm:"type:jsonb"`
	EmotionValence     float64
	EmotionArousal     float64
	EmotionDominance   float64
	EmotionLabel       string
	ContextTemporal    string
	ContextSituational string
	AccessCount        int `gorm:"default:0"`
	LastAccessed       *time.Time
	// Embedding stores the vector representation for similarity search.
	Embedding *pgvector.Vector `gorm:"type:vector"`
	CreatedAt time.Time        `gorm:"index"`
	UpdatedAt time.Time
}

func (memoryModel) TableName() string {
	return "memories"
}

// memoryCategoryModel is the memory-to-category association row.
type memoryCategoryModel struct {
	MemoryID   int `gorm:"primaryKey"`
	CategoryID int `gorm:"primaryKey"`
}

func (memoryCategoryModel) TableName() string {
	return "memory_categories"
}

// memoryLinkModel maps to the memory_links table. The composite unique index
// enforces at most one edge per (from, to, type) triple.
type memoryLinkModel struct {
	ID            int
	FromMemoryID  int    `gorm:"uniqueIndex:idx_memory_links_edge"`
	ToMemoryID    int    `gorm:"uniqueIndex:idx_memory_links_edge"`
	LinkType      string `gorm:"uniqueIndex:idx_memory_links_edge"`
	Strength      float64
	Context       string
	AutoGenerated bool
	CreatedBy     string
	CreatedAt     time.Time
}

func (memoryLinkModel) TableName() string {
	return "memory_links"
}

// MemoryRepo accesses memory data.
type MemoryRepo struct {
	db *gorm.DB
}

// NewMemoryRepo returns a MemoryRepo.
func NewMemoryRepo(db *gorm.DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

// Create inserts a fresh version-1 memory and its category associations in one
// transaction.
func (r *MemoryRepo) Create(ctx context.Context, mem types.Memory, categoryIDs []int) (types.Memory, error) {
	record, err := memoryToModel(mem)
	if err != nil {
		return types.Memory{}, err
	}
	record.Version = 1
	record.ParentID = nil

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return goerr.Wrap(err, "failed to insert memory")
		}
		return insertCategoryRows(tx, record.ID, categoryIDs)
	})
	if err != nil {
		return types.Memory{}, err
	}
	return r.hydrate(ctx, record)
}

// Evolve appends a new version on top of originalID. The original row is left
// untouched. When categoryIDs is nil the original's associations are copied.
func (r *MemoryRepo) Evolve(ctx context.Context, originalID int, mem types.Memory, categoryIDs []int) (types.Memory, error) {
	record, err := memoryToModel(mem)
	if err != nil {
		return types.Memory{}, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var original memoryModel
		if err := tx.First(&original, originalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return goerr.Wrap(errs.ErrNotFound, "memory not found", goerr.V("id", originalID))
			}
			return goerr.Wrap(err, "failed to load original memory")
		}

		record.Version = original.Version + 1
		record.ParentID = &original.ID
		if record.Importance == 0 {
			record.Importance = original.Importance
		}
		if err := tx.Create(&record).Error; err != nil {
			return goerr.Wrap(err, "failed to insert evolved memory")
		}

		if categoryIDs == nil {
			var rows []memoryCategoryModel
			if err := tx.Where("memory_id = ?", original.ID).Find(&rows).Error; err != nil {
				return goerr.Wrap(err, "failed to load original categories")
			}
			categoryIDs = make([]int, 0, len(rows))
			for _, row := range rows {
				categoryIDs = append(categoryIDs, row.CategoryID)
			}
		}
		return insertCategoryRows(tx, record.ID, categoryIDs)
	})
	if err != nil {
		return types.Memory{}, err
	}
	return r.hydrate(ctx, record)
}

// Get returns a memory by id. Every successful call increments access_count by
// exactly one and stamps last_accessed; the touch and the read share one
// transaction.
func (r *MemoryRepo) Get(ctx context.Context, id int) (types.Memory, error) {
	var record memoryModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&memoryModel{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"access_count":  gorm.Expr("access_count + 1"),
				"last_accessed": time.Now(),
			})
		if res.Error != nil {
			return goerr.Wrap(res.Error, "failed to touch memory")
		}
		if res.RowsAffected == 0 {
			return goerr.Wrap(errs.ErrNotFound, "memory not found", goerr.V("id", id))
		}
		if err := tx.First(&record, id).Error; err != nil {
			return goerr.Wrap(err, "failed to load memory")
		}
		return nil
	})
	if err != nil {
		return types.Memory{}, err
	}
	return r.hydrate(ctx, record)
}

// Search returns memories ordered by importance descending, ties broken by
// most recent created_at. No match yields an empty slice, never an error.
func (r *MemoryRepo) Search(ctx context.Context, query string, categories []string, limit int) ([]types.Memory, error) {
	q := r.db.WithContext(ctx).Model(&memoryModel{}).
		Order("memories.importance DESC, memories.created_at DESC").
		Limit(limit)

	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("simple_content ILIKE ? OR full_content ILIKE ?", pattern, pattern)
	}
	if len(categories) > 0 {
		q = q.
			Joins("JOIN memory_categories mc ON mc.memory_id = memories.id").
			Joins("JOIN categories c ON c.id = mc.category_id").
			Where("c.full_path IN ?", categories).
			Distinct("memories.*")
	}

	var records []memoryModel
	if err := q.Find(&records).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to query memories")
	}

	results := make([]types.Memory, 0, len(records))
	for _, record := range records {
		mem, err := r.hydrate(ctx, record)
		if err != nil {
			return nil, err
		}
		results = append(results, mem)
	}
	return results, nil
}

// SearchSimilar ranks memories by cosine similarity blended with importance.
func (r *MemoryRepo) SearchSimilar(ctx context.Context, embedding []float32, topK int, threshold float64) ([]types.RetrievedMemory, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	query := `
		SELECT id AS memory_id, simple_content AS content, importance, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM memories
		WHERE embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) > $2
		ORDER BY (0.8 * (1 - (embedding <=> $1)) + 0.2 * LEAST(importance / 1000.0, 1.0)) DESC
		LIMIT $3`

	vector := pgvector.NewVector(embedding)
	var results []types.RetrievedMemory
	if err := r.db.WithContext(ctx).
		Raw(query, vector, threshold, topK).
		Scan(&results).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to search similar memories")
	}
	return results, nil
}

// AddLink inserts a directed typed edge. A second edge with the same
// (from, to, type) triple fails with ErrDuplicate.
func (r *MemoryRepo) AddLink(ctx context.Context, link types.MemoryLink) (types.MemoryLink, error) {
	record := memoryLinkModel{
		FromMemoryID:  link.FromMemoryID,
		ToMemoryID:    link.ToMemoryID,
		LinkType:      link.LinkType,
		Strength:      link.Strength,
		Context:       link.Context,
		AutoGenerated: link.AutoGenerated,
		CreatedBy:     link.CreatedBy,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return types.MemoryLink{}, goerr.Wrap(errs.ErrDuplicate, "memory link already exists",
				goerr.V("from", link.FromMemoryID), goerr.V("to", link.ToMemoryID), goerr.V("type", link.LinkType))
		}
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return types.MemoryLink{}, goerr.Wrap(errs.ErrNotFound, "link endpoint not found",
				goerr.V("from", link.FromMemoryID), goerr.V("to", link.ToMemoryID))
		}
		return types.MemoryLink{}, goerr.Wrap(err, "failed to insert memory link")
	}
	return linkFromModel(record), nil
}

// Links returns all edges touching the given memory, either direction.
func (r *MemoryRepo) Links(ctx context.Context, memoryID int) ([]types.MemoryLink, error) {
	var records []memoryLinkModel
	if err := r.db.WithContext(ctx).
		Where("from_memory_id = ? OR to_memory_id = ?", memoryID, memoryID).
		Find(&records).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to query memory links")
	}
	results := make([]types.MemoryLink, 0, len(records))
	for _, record := range records {
		results = append(results, linkFromModel(record))
	}
	return results, nil
}

// Delete removes a memory, cascading to its category associations and any
// links touching it in either direction.
func (r *MemoryRepo) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record memoryModel
		if err := tx.First(&record, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return goerr.Wrap(errs.ErrNotFound, "memory not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to load memory")
		}
		if err := tx.Where("memory_id = ?", id).Delete(&memoryCategoryModel{}).Error; err != nil {
			return goerr.Wrap(err, "failed to delete category associations")
		}
		if err := tx.Where("from_memory_id = ? OR to_memory_id = ?", id, id).Delete(&memoryLinkModel{}).Error; err != nil {
			return goerr.Wrap(err, "failed to delete memory links")
		}
		if err := tx.Delete(&memoryModel{}, id).Error; err != nil {
			return goerr.Wrap(err, "failed to delete memory")
		}
		return nil
	})
}

func insertCategoryRows(tx *gorm.DB, memoryID int, categoryIDs []int) error {
	for _, categoryID := range categoryIDs {
		row := memoryCategoryModel{MemoryID: memoryID, CategoryID: categoryID}
		if err := tx.Create(&row).Error; err != nil {
			return goerr.Wrap(err, "failed to insert category association",
				goerr.V("memory_id", memoryID), goerr.V("category_id", categoryID))
		}
	}
	return nil
}

// hydrate converts a model into the domain struct and attaches category paths.
func (r *MemoryRepo) hydrate(ctx context.Context, record memoryModel) (types.Memory, error) {
	mem := memoryFromModel(record)

	var paths []string
	if err := r.db.WithContext(ctx).
		Model(&categoryModel{}).
		Joins("JOIN memory_categories mc ON mc.category_id = categories.id").
		Where("mc.memory_id = ?", record.ID).
		Pluck("categories.full_path", &paths).Error; err != nil {
		return types.Memory{}, goerr.Wrap(err, "failed to load memory categories")
	}
	mem.Categories = paths
	return mem, nil
}

func memoryToModel(mem types.Memory) (memoryModel, error) {
	keywords, err := marshalJSON(mem.Keywords)
	if err != nil {
		return memoryModel{}, goerr.Wrap(err, "failed to encode memory keywords")
	}
	tags, err := marshalJSON(mem.Tags)
	if err != nil {
		return memoryModel{}, goerr.Wrap(err, "failed to encode memory tags")
	}
	triggers, err := marshalJSON(mem.EvolutionTriggers)
	if err != nil {
		return memoryModel{}, goerr.Wrap(err, "failed to encode evolution triggers")
	}

	var vector *pgvector.Vector
	if len(mem.Embedding) > 0 {
		v := pgvector.NewVector(mem.Embedding)
		vector = &v
	}

	return memoryModel{
		SimpleContent:      mem.SimpleContent,
		FullContent:        mem.FullContent,
		Importance:         mem.Importance,
		CreatedBy:          mem.CreatedBy,
		Keywords:           keywords,
		Tags:               tags,
		EvolutionTriggers:  triggers,
		EmotionValence:     mem.EmotionValence,
		EmotionArousal:     mem.EmotionArousal,
		EmotionDominance:   mem.EmotionDominance,
		EmotionLabel:       mem.EmotionLabel,
		ContextTemporal:    mem.ContextTemporal,
		ContextSituational: mem.ContextSituational,
		Embedding:          vector,
	}, nil
}

// memoryFromModel converts a database model to the domain struct.
func memoryFromModel(record memoryModel) types.Memory {
	var keywords []string
	var tags []string
	var triggers []int
	_ = unmarshalJSON(record.Keywords, &keywords)
	_ = unmarshalJSON(record.Tags, &tags)
	_ = unmarshalJSON(record.EvolutionTriggers, &triggers)

	mem := types.Memory{
		ID:                 record.ID,
		SimpleContent:      record.SimpleContent,
		FullContent:        record.FullContent,
		Importance:         record.Importance,
		Version:            record.Version,
		ParentID:           record.ParentID,
		CreatedBy:          record.CreatedBy,
		Keywords:           keywords,
		Tags:               tags,
		EvolutionTriggers:  triggers,
		EmotionValence:     record.EmotionValence,
		EmotionArousal:     record.EmotionArousal,
		EmotionDominance:   record.EmotionDominance,
		EmotionLabel:       record.EmotionLabel,
		ContextTemporal:    record.ContextTemporal,
		ContextSituational: record.ContextSituational,
		AccessCount:        record.AccessCount,
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
	}
	if record.LastAccessed != nil {
		mem.LastAccessed = *record.LastAccessed
	}
	return mem
}

func linkFromModel(record memoryLinkModel) types.MemoryLink {
	return types.MemoryLink{
		ID:            record.ID,
		FromMemoryID:  record.FromMemoryID,
		ToMemoryID:    record.ToMemoryID,
		LinkType:      record.LinkType,
		Strength:      record.Strength,
		Context:       record.Context,
		AutoGenerated: record.AutoGenerated,
		CreatedBy:     record.CreatedBy,
		CreatedAt:     record.CreatedAt,
	}
}

// marshalJSON encodes a value into JSONB, returning nil for empty values.
func marshalJSON(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// unmarshalJSON decodes JSONB into the provided target.
func unmarshalJSON(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
