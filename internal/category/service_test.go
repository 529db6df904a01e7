package category

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"

	"github.com/easeaico/project-kokoro/internal/errs"
	"github.com/easeaico/project-kokoro/internal/types"
)

type mockCategoryRepo struct {
	byPath map[string]types.Category
	byID   map[int]types.Category
	nextID int
	// uniqueNames enforces the cross-domain name constraint.
	uniqueNames map[string]bool
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{
		byPath:      make(map[string]types.Category),
		byID:        make(map[int]types.Category),
		uniqueNames: make(map[string]bool),
		nextID:      1,
	}
}

func (m *mockCategoryRepo) GetByPath(ctx context.Context, fullPath string) (types.Category, error) {
	if cat, ok := m.byPath[fullPath]; ok {
		return cat, nil
	}
	return types.Category{}, goerr.Wrap(errs.ErrNotFound, "category not found")
}

func (m *mockCategoryRepo) GetByPaths(ctx context.Context, fullPaths []string) ([]types.Category, []string, error) {
	var found []types.Category
	var missing []string
	for _, p := range fullPaths {
		if cat, ok := m.byPath[p]; ok {
			found = append(found, cat)
		} else {
			missing = append(missing, p)
		}
	}
	return found, missing, nil
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, id int) (types.Category, error) {
	if cat, ok := m.byID[id]; ok {
		return cat, nil
	}
	return types.Category{}, goerr.Wrap(errs.ErrNotFound, "category not found")
}

func (m *mockCategoryRepo) Insert(ctx context.Context, cat types.Category) (types.Category, error) {
	if _, exists := m.byPath[cat.FullPath]; exists {
		return types.Category{}, goerr.Wrap(errs.ErrDuplicate, "duplicate path")
	}
	if m.uniqueNames[cat.Name] {
		return types.Category{}, goerr.Wrap(errs.ErrDuplicate, "duplicate name")
	}
	cat.ID = m.nextID
	m.nextID++
	m.byPath[cat.FullPath] = cat
	m.byID[cat.ID] = cat
	m.uniqueNames[cat.Name] = true
	return cat, nil
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]types.Category, error) {
	var out []types.Category
	for _, cat := range m.byPath {
		out = append(out, cat)
	}
	return out, nil
}

func TestEnsureCreatesCategory(t *testing.T) {
	repo := newMockCategoryRepo()
	svc := NewService(repo)

	cat, err := svc.Ensure(context.Background(), "identity", "personal", nil, 200, 1500)
	if err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}
	if cat.FullPath != "personal.identity" {
		t.Fatalf("expected path personal.identity, got %q", cat.FullPath)
	}
	if cat.ID == 0 {
		t.Fatalf("expected assigned id, got 0")
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	repo := newMockCategoryRepo()
	svc := NewService(repo)

	first, err := svc.Ensure(context.Background(), "identity", "personal", nil, 200, 1500)
	if err != nil {
		t.Fatalf("first Ensure returned error: %v", err)
	}
	second, err := svc.Ensure(context.Background(), "identity", "personal", nil, 200, 1500)
	if err != nil {
		t.Fatalf("second Ensure returned error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same category, got ids %d and %d", first.ID, second.ID)
	}
}

func TestEnsureRejectsCrossDomainName(t *testing.T) {
	repo := newMockCategoryRepo()
	svc := NewService(repo)

	if _, err := svc.Ensure(context.Background(), "identity", "personal", nil, 200, 1500); err != nil {
		t.Fatalf("first Ensure returned error: %v", err)
	}
	_, err := svc.Ensure(context.Background(), "identity", "event", nil, 0, 100)
	if !errs.IsDuplicate(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestEnsureRejectsMissingParent(t *testing.T) {
	repo := newMockCategoryRepo()
	svc := NewService(repo)

	missing := 999
	_, err := svc.Ensure(context.Background(), "sub", "personal", &missing, 0, 100)
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnsureRejectsBlankInput(t *testing.T) {
	repo := newMockCategoryRepo()
	svc := NewService(repo)

	if _, err := svc.Ensure(context.Background(), "", "personal", nil, 0, 0); !errs.IsValidation(err) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
	if _, err := svc.Ensure(context.Background(), "identity", "  ", nil, 0, 0); !errs.IsValidation(err) {
		t.Fatalf("expected validation error for blank domain, got %v", err)
	}
}

func TestResolveRejectsUnknownPaths(t *testing.T) {
	repo := newMockCategoryRepo()
	svc := NewService(repo)
	if _, err := svc.Ensure(context.Background(), "identity", "personal", nil, 200, 1500); err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}

	_, err := svc.Resolve(context.Background(), []string{"personal.identity", "no.such"})
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveRejectsEmptyInput(t *testing.T) {
	svc := NewService(newMockCategoryRepo())
	if _, err := svc.Resolve(context.Background(), nil); !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSeedDefaultsPopulatesVocabulary(t *testing.T) {
	repo := newMockCategoryRepo()
	svc := NewService(repo)

	if err := svc.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("SeedDefaults returned error: %v", err)
	}
	known, err := svc.Known(context.Background())
	if err != nil {
		t.Fatalf("Known returned error: %v", err)
	}
	if len(known) != len(defaultTaxonomy) {
		t.Fatalf("expected %d categories, got %d", len(defaultTaxonomy), len(known))
	}

	// Seeding twice must not duplicate or fail.
	if err := svc.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("second SeedDefaults returned error: %v", err)
	}
	again, err := svc.Known(context.Background())
	if err != nil {
		t.Fatalf("Known returned error: %v", err)
	}
	if len(again) != len(known) {
		t.Fatalf("expected %d categories after reseed, got %d", len(known), len(again))
	}
}
