package services

import (
	"context"
	"errors"

	apperrors "duty-tracker.com/duty-tracker/internal/errors"
	repository "duty-tracker.com/duty-tracker/internal/repositories"
	model "duty-tracker.com/duty-tracker/pkg/models"
)

// DutyService validates payloads going into storage and rows coming out of
// it. Every error it returns is an *apperrors.Exception.
type DutyService struct {
	repo repository.DutyRepository
}

func NewDutyService(repo repository.DutyRepository) *DutyService {
	return &DutyService{repo: repo}
}

func (s *DutyService) ListDuties(ctx context.Context) ([]model.Duty, error) {
	duties, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	for _, duty := range duties {
		if err := duty.Validate(); err != nil {
			return nil, apperrors.Internal(err)
		}
	}

	return duties, nil
}

func (s *DutyService) CreateDuty(ctx context.Context, payload model.DutyCreate) (*model.Duty, error) {
	if err := payload.Validate(); err != nil {
		return nil, apperrors.Validation(err)
	}

	duty, err := s.repo.Create(ctx, payload.Name)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return checkRow(duty)
}

func (s *DutyService) UpdateDuty(ctx context.Context, id int64, payload model.DutyCreate) (*model.Duty, error) {
	if err := payload.Validate(); err != nil {
		return nil, apperrors.Validation(err)
	}

	duty, err := s.repo.Update(ctx, id, payload.Name)
	if err != nil {
		return nil, classify(err)
	}

	return checkRow(duty)
}

func (s *DutyService) DeleteDuty(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return classify(err)
	}
	return nil
}

func (s *DutyService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func checkRow(duty *model.Duty) (*model.Duty, error) {
	if err := duty.Validate(); err != nil {
		return nil, apperrors.Internal(err)
	}
	return duty, nil
}

func classify(err error) error {
	if errors.Is(err, apperrors.ErrDutyNotFound) {
		return apperrors.ErrDutyNotFound
	}
	return apperrors.Internal(err)
}
