// Package category maintains the hierarchical tag taxonomy used to classify
// memories.
package category

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/easeaico/project-kokoro/internal/errs"
	"github.com/easeaico/project-kokoro/internal/types"
)

// CategoryRepo defines the storage surface the service needs.
type CategoryRepo interface {
	GetByPath(ctx context.Context, fullPath string) (types.Category, error)
	GetByPaths(ctx context.Context, fullPaths []string) ([]types.Category, []string, error)
	GetByID(ctx context.Context, id int) (types.Category, error)
	Insert(ctx context.Context, cat types.Category) (types.Category, error)
	List(ctx context.Context) ([]types.Category, error)
}

// Service manages the taxonomy.
type Service struct {
	repo CategoryRepo
}

// NewService returns a category service.
func NewService(repo CategoryRepo) *Service {
	return &Service{repo: repo}
}

// FullPath computes the composite path for a domain and name.
func FullPath(domain, name string) string {
	return domain + "." + name
}

// Ensure creates a category if absent and returns it. Creation is idempotent:
// an existing category with the same computed path is returned as-is. A path
// collision with a different category fails with ErrDuplicate.
func (s *Service) Ensure(ctx context.Context, name, domain string, parentID *int, importanceMin, importanceMax int) (types.Category, error) {
	name = strings.TrimSpace(name)
	domain = strings.TrimSpace(domain)
	if name == "" || domain == "" {
		return types.Category{}, goerr.Wrap(errs.ErrValidation, "category name and domain are required")
	}

	path := FullPath(domain, name)
	existing, err := s.repo.GetByPath(ctx, path)
	if err == nil {
		if existing.Name != name || existing.Domain != domain {
			return types.Category{}, goerr.Wrap(errs.ErrDuplicate, "category path collides with a different category",
				goerr.V("full_path", path))
		}
		return existing, nil
	}
	if !errs.IsNotFound(err) {
		return types.Category{}, err
	}

	if parentID != nil {
		if _, err := s.repo.GetByID(ctx, *parentID); err != nil {
			return types.Category{}, goerr.Wrap(errs.ErrValidation, "parent category does not exist",
				goerr.V("parent_id", *parentID))
		}
	}

	created, err := s.repo.Insert(ctx, types.Category{
		Name:               name,
		Domain:             domain,
		FullPath:           path,
		ParentID:           parentID,
		ImportanceRangeMin: importanceMin,
		ImportanceRangeMax: importanceMax,
	})
	if err != nil {
		if errs.IsDuplicate(err) {
			// Lost a concurrent ensure race for the same path, or the name is
			// taken under another domain. Re-read to distinguish.
			if again, reread := s.repo.GetByPath(ctx, path); reread == nil {
				return again, nil
			}
			return types.Category{}, goerr.Wrap(errs.ErrDuplicate, "category name already used in another domain",
				goerr.V("name", name), goerr.V("domain", domain))
		}
		return types.Category{}, err
	}
	return created, nil
}

// Known returns the full-path vocabulary of all categories.
func (s *Service) Known(ctx context.Context) ([]string, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(categories))
	for _, cat := range categories {
		paths = append(paths, cat.FullPath)
	}
	return paths, nil
}

// Resolve maps full paths to categories, failing with ErrValidation when any
// path is unknown.
func (s *Service) Resolve(ctx context.Context, fullPaths []string) ([]types.Category, error) {
	if len(fullPaths) == 0 {
		return nil, goerr.Wrap(errs.ErrValidation, "categories must not be empty")
	}
	categories, missing, err := s.repo.GetByPaths(ctx, fullPaths)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, goerr.Wrap(errs.ErrValidation, "unknown categories", goerr.V("missing", missing))
	}
	return categories, nil
}

// defaultTaxonomy is the seed vocabulary the analysis pipeline assigns from.
var defaultTaxonomy = []struct {
	domain string
	name   string
	min    int
	max    int
}{
	{"personal", "identity", 200, 1500},
	{"personal", "profession", 200, 1200},
	{"interest", "preference", 100, 800},
	{"interest", "tech_preference", 100, 800},
	{"event", "emotional", 200, 2000},
	{"event", "milestone", 300, 3000},
	{"conversation", "casual", 0, 100},
	{"directive", "admin", 5000, 9999},
	{"relationship", "trust", 200, 2000},
}

// SeedDefaults installs the default taxonomy. Safe to call on every start.
func (s *Service) SeedDefaults(ctx context.Context) error {
	for _, entry := range defaultTaxonomy {
		if _, err := s.Ensure(ctx, entry.name, entry.domain, nil, entry.min, entry.max); err != nil {
			if errs.IsDuplicate(err) {
				slog.Warn("skipping colliding seed category", "domain", entry.domain, "name", entry.name)
				continue
			}
			return err
		}
	}
	return nil
}
