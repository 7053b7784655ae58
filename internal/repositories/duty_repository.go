package repository

import (
	"context"

	model "duty-tracker.com/duty-tracker/pkg/models"
)

// DutyRepository is the storage boundary for duties. Update and Delete
// return apperrors.ErrDutyNotFound when no row matches the id.
type DutyRepository interface {
	List(ctx context.Context) ([]model.Duty, error)
	Create(ctx context.Context, name string) (*model.Duty, error)
	Update(ctx context.Context, id int64, name string) (*model.Duty, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}
