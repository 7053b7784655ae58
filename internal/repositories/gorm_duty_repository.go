package repository

import (
	"context"

	"gorm.io/gorm"

	apperrors "duty-tracker.com/duty-tracker/internal/errors"
	model "duty-tracker.com/duty-tracker/pkg/models"
)

type GormDutyRepository struct {
	db *gorm.DB
}

var _ DutyRepository = (*GormDutyRepository)(nil)

func NewGormDutyRepository(db *gorm.DB) *GormDutyRepository {
	return &GormDutyRepository{db: db}
}

func (r *GormDutyRepository) List(ctx context.Context) ([]model.Duty, error) {
	duties := make([]model.Duty, 0)
	err := r.db.WithContext(ctx).Order("id asc").Find(&duties).Error
	return duties, err
}

func (r *GormDutyRepository) Create(ctx context.Context, name string) (*model.Duty, error) {
	duty := &model.Duty{Name: name}

	if err := r.db.WithContext(ctx).Create(duty).Error; err != nil {
		return nil, err
	}

	return duty, nil
}

// Update replaces the name and reads the row back in the same transaction.
func (r *GormDutyRepository) Update(ctx context.Context, id int64, name string) (*model.Duty, error) {
	var duty model.Duty

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Duty{}).Where("id = ?", id).Update("name", name)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrDutyNotFound
		}

		return tx.First(&duty, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}

	return &duty, nil
}

func (r *GormDutyRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Duty{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrDutyNotFound
	}
	return nil
}

func (r *GormDutyRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
