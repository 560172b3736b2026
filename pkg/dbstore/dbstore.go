package dbstore

import (
	"context"
	"errors"

	"github.com/sre-norns/gantry/pkg/bark"
	"github.com/sre-norns/gantry/pkg/manifest"
	"gorm.io/gorm"
)

// DbStore persists harness resources (suites, results, artifacts) behind a
// small CRUD surface. Callers pass concrete model pointers; the store stays
// agnostic of what it holds.
type DbStore struct {
	db *gorm.DB
}

func NewDbStore(db *gorm.DB) *DbStore {
	return &DbStore{
		db: db,
	}
}

func (s *DbStore) Create(ctx context.Context, value any) error {
	return s.db.WithContext(ctx).Create(value).Error
}

func (s *DbStore) Get(ctx context.Context, dest any, id manifest.ResourceID) (bool, error) {
	tx := s.db.WithContext(ctx).First(dest, id)
	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return tx.RowsAffected == 1, tx.Error
}

func (s *DbStore) GetByName(ctx context.Context, dest any, name string) (bool, error) {
	tx := s.db.WithContext(ctx).Where("name = ?", name).First(dest)
	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return tx.RowsAffected == 1, tx.Error
}

func (s *DbStore) GetWithVersion(ctx context.Context, dest any, id manifest.VersionedResourceID) (bool, error) {
	tx := s.db.WithContext(ctx).Where("version = ?", id.Version).First(dest, id.ID)
	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return tx.RowsAffected == 1, tx.Error
}

func (s *DbStore) Update(ctx context.Context, value any, id manifest.VersionedResourceID) (bool, error) {
	tx := s.db.WithContext(ctx).Where("version = ?", id.Version).Save(value)
	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return tx.RowsAffected == 1, tx.Error
}

func (s *DbStore) Delete(ctx context.Context, value any, id manifest.VersionedResourceID) (bool, error) {
	tx := s.db.WithContext(ctx).Where("version = ?", id.Version).Delete(value, id.ID)
	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return tx.RowsAffected == 1, tx.Error
}

func (s *DbStore) startPaginatedTx(ctx context.Context, pagination bark.Pagination, maxLimit uint) *gorm.DB {
	pagination = pagination.ClampLimit(maxLimit)
	return s.db.WithContext(ctx).Offset(int(pagination.Offset)).Limit(int(pagination.Limit))
}

// FindResources lists resources matching the search query, oldest first
func (s *DbStore) FindResources(ctx context.Context, resources any, searchQuery bark.SearchQuery, maxLimit uint) (uint, error) {
	tx := s.startPaginatedTx(ctx, searchQuery.Pagination, maxLimit)
	if searchQuery.Name != "" {
		tx = tx.Where("name = ?", searchQuery.Name)
	}

	rtx := tx.Order("created_at").Find(resources)
	if rtx.Error != nil {
		return 0, rtx.Error
	}

	return uint(rtx.RowsAffected), nil
}
