package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/contracts"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/database"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/days"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/events"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/result"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/services/schedule"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/user"
)

// Service defines the working-day calendar operations. Every change
// refits the dates of all work packages to the new calendar.
type Service interface {
	Calendar(ctx context.Context) (*days.Calendar, error)
	GetWeekDays(ctx context.Context) ([]models.WeekDay, error)
	ListNonWorkingDays(ctx context.Context, from, to *time.Time) ([]models.NonWorkingDay, error)

	SetWeekDays(ctx context.Context, weekDays []models.WeekDay) (*result.ServiceResult[[]models.WeekDay], error)
	AddNonWorkingDay(ctx context.Context, date time.Time, name string) (*result.ServiceResult[*models.NonWorkingDay], error)
	RemoveNonWorkingDay(ctx context.Context, date time.Time) (*result.ServiceResult[*models.NonWorkingDay], error)
}

// service implements Service
type service struct {
	repo        database.DataStore
	eventClient events.EventPublisher
}

// NewService creates a new calendar service
func NewService(repo database.DataStore, eventClient events.EventPublisher) Service {
	return &service{
		repo:        repo,
		eventClient: eventClient,
	}
}

// Calendar returns the current working-day calendar
func (s *service) Calendar(ctx context.Context) (*days.Calendar, error) {
	return schedule.LoadCalendar(ctx, s.repo)
}

// GetWeekDays returns the seven week days Monday first
func (s *service) GetWeekDays(ctx context.Context) ([]models.WeekDay, error) {
	return s.repo.GetWeekDays(ctx)
}

// ListNonWorkingDays lists non-working days between from and to; nil
// leaves an end open
func (s *service) ListNonWorkingDays(ctx context.Context, from, to *time.Time) ([]models.NonWorkingDay, error) {
	return s.repo.ListNonWorkingDays(ctx, from, to)
}

// SetWeekDays replaces the working week
func (s *service) SetWeekDays(ctx context.Context, weekDays []models.WeekDay) (*result.ServiceResult[[]models.WeekDay], error) {
	var res *result.ServiceResult[[]models.WeekDay]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		contract := contracts.WeekDaysContract{User: user.FromContext(ctx)}
		if errs := contract.Validate(weekDays); !errs.Empty() {
			res = result.Failure[[]models.WeekDay](errs)
			return nil
		}
		if err := tx.SetWeekDays(ctx, weekDays); err != nil {
			return err
		}
		moved, err := applyChange(ctx, tx)
		if err != nil {
			return err
		}
		stored, err := tx.GetWeekDays(ctx)
		if err != nil {
			return err
		}
		res = result.Success(stored, moved...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(res.Result, res.Dependents)
	}
	return res, nil
}

// AddNonWorkingDay marks a date as off work
func (s *service) AddNonWorkingDay(ctx context.Context, date time.Time, name string) (*result.ServiceResult[*models.NonWorkingDay], error) {
	nwd := &models.NonWorkingDay{Name: strings.TrimSpace(name)}
	if !date.IsZero() {
		nwd.Date = models.Date(date)
	}

	var res *result.ServiceResult[*models.NonWorkingDay]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		taken := false
		if !nwd.Date.IsZero() {
			_, err := tx.GetNonWorkingDayByDate(ctx, nwd.Date)
			switch {
			case err == nil:
				taken = true
			case !errors.Is(err, models.ErrNotFound):
				return fmt.Errorf("failed to check date: %w", err)
			}
		}
		contract := contracts.NonWorkingDayContract{User: user.FromContext(ctx), DateTaken: taken}
		if errs := contract.Validate(nwd); !errs.Empty() {
			res = result.Failure[*models.NonWorkingDay](errs)
			return nil
		}

		created, err := tx.AddNonWorkingDay(ctx, *nwd)
		if err != nil {
			return err
		}
		moved, err := applyChange(ctx, tx)
		if err != nil {
			return err
		}
		res = result.Success(created, moved...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(res.Result, res.Dependents)
	}
	return res, nil
}

// RemoveNonWorkingDay makes a date a regular day again
func (s *service) RemoveNonWorkingDay(ctx context.Context, date time.Time) (*result.ServiceResult[*models.NonWorkingDay], error) {
	var res *result.ServiceResult[*models.NonWorkingDay]
	err := s.repo.InTx(ctx, func(tx database.DataStore) error {
		nwd, err := tx.GetNonWorkingDayByDate(ctx, models.Date(date))
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return ErrNonWorkingDayNotFound
			}
			return err
		}
		if errs := contracts.Authorize(user.FromContext(ctx), models.PermissionManageWorkingDays, 0); !errs.Empty() {
			res = result.Failure[*models.NonWorkingDay](errs)
			return nil
		}
		if err := tx.RemoveNonWorkingDay(ctx, nwd.ID); err != nil {
			return err
		}
		moved, err := applyChange(ctx, tx)
		if err != nil {
			return err
		}
		res = result.Success(nwd, moved...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Success() {
		s.publish(res.Result, res.Dependents)
	}
	return res, nil
}

// applyChange refits every work package to the stored calendar
func applyChange(ctx context.Context, tx database.DataStore) ([]*models.WorkPackage, error) {
	snap, err := schedule.Load(ctx, tx)
	if err != nil {
		return nil, err
	}
	return snap.ApplyWorkingDaysChange(ctx, tx)
}

// publish announces the calendar change and every moved work package
func (s *service) publish(payload any, moved []*models.WorkPackage) {
	if s.eventClient == nil {
		return
	}
	_ = events.PublishWithRetry(s.eventClient, events.NewEvent(models.EventCalendarChanged, 0, 0, payload), 3)
	for _, wp := range moved {
		_ = events.PublishWithRetry(s.eventClient, events.NewEvent(models.EventWorkPackageUpdated, wp.ProjectID, wp.ID, wp), 3)
	}
}
