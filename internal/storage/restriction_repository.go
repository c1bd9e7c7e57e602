package storage

import (
	"errors"
	"time"

	"srcds-admin/internal/models"
	"srcds-admin/internal/restriction"

	"gorm.io/gorm"
)

// RestrictionRepository handles database operations for one restriction
// kind's table. It implements restriction.Store.
type RestrictionRepository struct {
	db    *gorm.DB
	table string
}

// NewRestrictionRepository creates a repository bound to the given table
func NewRestrictionRepository(db *gorm.DB, table string) *RestrictionRepository {
	return &RestrictionRepository{db: db, table: table}
}

// Table returns the table this repository operates on
func (r *RestrictionRepository) Table() string {
	return r.table
}

// MigrateTable ensures the restriction table exists
func (r *RestrictionRepository) MigrateTable() error {
	return r.db.Table(r.table).AutoMigrate(&models.Restriction{})
}

// Insert persists a new Restriction and fills in the assigned id
func (r *RestrictionRepository) Insert(rec *models.Restriction) error {
	return r.db.Table(r.table).Create(rec).Error
}

// Get returns a record by id, or nil when it no longer exists
func (r *RestrictionRepository) Get(id uint) (*models.Restriction, error) {
	var rec models.Restriction
	err := r.db.Table(r.table).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update saves all fields of an existing record
func (r *RestrictionRepository) Update(rec *models.Restriction) error {
	return r.db.Table(r.table).Save(rec).Error
}

// Delete removes a record permanently
func (r *RestrictionRepository) Delete(id uint) error {
	return r.db.Table(r.table).Delete(&models.Restriction{}, id).Error
}

// All returns every record in the table, history included
func (r *RestrictionRepository) All() ([]*models.Restriction, error) {
	var records []*models.Restriction
	result := r.db.Table(r.table).Find(&records)
	return records, result.Error
}

// Query returns records matching the filter. Set filters combine with
// AND; the expired predicate matches the cache's expiry test
// (expires_at >= 0 and expires_at < now).
func (r *RestrictionRepository) Query(filter restriction.QueryFilter) ([]*models.Restriction, error) {
	query := r.db.Table(r.table)

	if filter.Identifier != nil {
		query = query.Where("identifier = ?", *filter.Identifier)
	}
	if filter.IssuedBy != nil {
		query = query.Where("issued_by = ?", *filter.IssuedBy)
	}
	if filter.Reviewed != nil {
		query = query.Where("reviewed = ?", *filter.Reviewed)
	}
	if filter.Expired != nil {
		now := time.Now().Unix()
		if *filter.Expired {
			query = query.Where("expires_at >= 0 AND expires_at < ?", now)
		} else {
			query = query.Where("expires_at >= ? OR expires_at < 0", now)
		}
	}
	if filter.Lifted != nil {
		query = query.Where("lifted = ?", *filter.Lifted)
	}

	var records []*models.Restriction
	result := query.Find(&records)
	return records, result.Error
}
