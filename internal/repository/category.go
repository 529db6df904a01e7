package repository

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gorm.io/gorm"

	"github.com/easeaico/project-kokoro/internal/errs"
	"github.com/easeaico/project-kokoro/internal/types"
)

// categoryModel maps to the categories table.
type categoryModel struct {
	ID                 int
	Name               string `gorm:"uniqueIndex"`
	Domain             string
	FullPath           string `gorm:"uniqueIndex"`
	ParentID           *int
	ImportanceRangeMin int
	ImportanceRangeMax int
	CreatedAt          time.Time
}

func (categoryModel) TableName() string {
	return "categories"
}

// CategoryRepo accesses the taxonomy tree.
type CategoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepo returns a CategoryRepo.
func NewCategoryRepo(db *gorm.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// GetByPath fetches a category by its full path.
func (r *CategoryRepo) GetByPath(ctx context.Context, fullPath string) (types.Category, error) {
	var record categoryModel
	if err := r.db.WithContext(ctx).Where("full_path = ?", fullPath).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.Category{}, goerr.Wrap(errs.ErrNotFound, "category not found", goerr.V("full_path", fullPath))
		}
		return types.Category{}, goerr.Wrap(err, "failed to get category")
	}
	return categoryFromModel(record), nil
}

// GetByPaths resolves a set of full paths. Unknown paths are reported via the
// second return value so the caller can build a validation error.
func (r *CategoryRepo) GetByPaths(ctx context.Context, fullPaths []string) ([]types.Category, []string, error) {
	var records []categoryModel
	if err := r.db.WithContext(ctx).Where("full_path IN ?", fullPaths).Find(&records).Error; err != nil {
		return nil, nil, goerr.Wrap(err, "failed to resolve categories")
	}

	found := make(map[string]bool, len(records))
	results := make([]types.Category, 0, len(records))
	for _, record := range records {
		found[record.FullPath] = true
		results = append(results, categoryFromModel(record))
	}

	var missing []string
	for _, path := range fullPaths {
		if !found[path] {
			missing = append(missing, path)
		}
	}
	return results, missing, nil
}

// Insert creates a category row. A full-path or name collision surfaces as
// ErrDuplicate.
func (r *CategoryRepo) Insert(ctx context.Context, cat types.Category) (types.Category, error) {
	record := categoryModel{
		Name:               cat.Name,
		Domain:             cat.Domain,
		FullPath:           cat.FullPath,
		ParentID:           cat.ParentID,
		ImportanceRangeMin: cat.ImportanceRangeMin,
		ImportanceRangeMax: cat.ImportanceRangeMax,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return types.Category{}, goerr.Wrap(errs.ErrDuplicate, "category path already exists",
				goerr.V("full_path", cat.FullPath))
		}
		return types.Category{}, goerr.Wrap(err, "failed to insert category")
	}
	return categoryFromModel(record), nil
}

// GetByID fetches a category by id.
func (r *CategoryRepo) GetByID(ctx context.Context, id int) (types.Category, error) {
	var record categoryModel
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.Category{}, goerr.Wrap(errs.ErrNotFound, "category not found", goerr.V("id", id))
		}
		return types.Category{}, goerr.Wrap(err, "failed to get category")
	}
	return categoryFromModel(record), nil
}

// List returns all categories ordered by full path.
func (r *CategoryRepo) List(ctx context.Context) ([]types.Category, error) {
	var records []categoryModel
	if err := r.db.WithContext(ctx).Order("full_path ASC").Find(&records).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list categories")
	}
	results := make([]types.Category, 0, len(records))
	for _, record := range records {
		results = append(results, categoryFromModel(record))
	}
	return results, nil
}

func categoryFromModel(record categoryModel) types.Category {
	return types.Category{
		ID:                 record.ID,
		Name:               record.Name,
		Domain:             record.Domain,
		FullPath:           record.FullPath,
		ParentID:           record.ParentID,
		ImportanceRangeMin: record.ImportanceRangeMin,
		ImportanceRangeMax: record.ImportanceRangeMax,
		CreatedAt:          record.CreatedAt,
	}
}
