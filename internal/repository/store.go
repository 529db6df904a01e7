// Package repository implements PostgreSQL persistence for the core services.
package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/easeaico/project-kokoro/internal/errs"
)

// Store holds the DB handle and repositories.
type Store struct {
	db            *gorm.DB
	Memories      *MemoryRepo
	Categories    *CategoryRepo
	Moods         *MoodRepo
	Relationships *RelationshipRepo
}

// NewStore initializes the PostgreSQL connection and repositories.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, goerr.Wrap(errs.ErrUnavailable, "failed to open gorm database", goerr.V("cause", err.Error()))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get sql db")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, goerr.Wrap(errs.ErrUnavailable, "failed to ping database", goerr.V("cause", err.Error()))
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&categoryModel{},
		&memoryModel{},
		&memoryCategoryModel{},
		&memoryLinkModel{},
		&botMoodModel{},
		&userRelationshipModel{},
	); err != nil {
		return nil, goerr.Wrap(err, "failed to migrate schema")
	}

	store := &Store{
		db:            db,
		Memories:      NewMemoryRepo(db),
		Categories:    NewCategoryRepo(db),
		Moods:         NewMoodRepo(db),
		Relationships: NewRelationshipRepo(db),
	}
	return store, nil
}

// Ping reports whether the persistence layer is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get sql db")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return goerr.Wrap(errs.ErrUnavailable, "database unreachable", goerr.V("cause", err.Error()))
	}
	return nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() {
	if s.db == nil {
		return
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
