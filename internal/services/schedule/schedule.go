// Package schedule loads the state automatic scheduling works on and
// persists what the scheduler changed. The write services share it.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/days"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/scheduling"
)

// Store is the data access needed to schedule
type Store interface {
	ListAllWorkPackages(ctx context.Context) ([]*models.WorkPackage, error)
	ListAllRelations(ctx context.Context) ([]models.Relation, error)
	GetWeekDays(ctx context.Context) ([]models.WeekDay, error)
	ListNonWorkingDays(ctx context.Context, from, to *time.Time) ([]models.NonWorkingDay, error)
	UpdateWorkPackageDates(ctx context.Context, wp *models.WorkPackage) error
}

// Snapshot is the calendar and dependency graph at one point in time.
// The graph owns its work packages; scheduling mutates them in place.
type Snapshot struct {
	Calendar *days.Calendar
	Graph    *scheduling.Graph
}

// LoadCalendar builds the working-day calendar from the stored week and
// every non-working day
func LoadCalendar(ctx context.Context, store Store) (*days.Calendar, error) {
	weekDays, err := store.GetWeekDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load week days: %w", err)
	}
	nonWorking, err := store.ListNonWorkingDays(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load non-working days: %w", err)
	}
	cal, err := days.New(weekDays, nonWorking)
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar: %w", err)
	}
	return cal, nil
}

// Load reads the calendar and the full dependency graph
func Load(ctx context.Context, store Store) (*Snapshot, error) {
	cal, err := LoadCalendar(ctx, store)
	if err != nil {
		return nil, err
	}
	packages, err := store.ListAllWorkPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load work packages: %w", err)
	}
	relations, err := store.ListAllRelations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load relations: %w", err)
	}
	return &Snapshot{Calendar: cal, Graph: scheduling.NewGraph(packages, relations)}, nil
}

// Scheduler returns a scheduler over the snapshot's calendar
func (s *Snapshot) Scheduler() *scheduling.Scheduler {
	return scheduling.NewScheduler(s.Calendar)
}

// Reschedule propagates date changes starting at seeds and persists the
// affected work packages. Seeds themselves are expected to be saved by
// the caller; they are only returned when scheduling moved them again.
func (s *Snapshot) Reschedule(ctx context.Context, store Store, seeds ...int) ([]*models.WorkPackage, error) {
	changes, err := s.Scheduler().Reschedule(s.Graph, seeds)
	if err != nil {
		return nil, fmt.Errorf("failed to reschedule: %w", err)
	}
	return s.persist(ctx, store, changes)
}

// ApplyWorkingDaysChange refits every work package to the snapshot's
// calendar and persists the ones that moved
func (s *Snapshot) ApplyWorkingDaysChange(ctx context.Context, store Store) ([]*models.WorkPackage, error) {
	changes, err := s.Scheduler().ApplyWorkingDaysChange(s.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to apply working days change: %w", err)
	}
	return s.persist(ctx, store, changes)
}

func (s *Snapshot) persist(ctx context.Context, store Store, changes []scheduling.Change) ([]*models.WorkPackage, error) {
	saved := make([]*models.WorkPackage, 0, len(changes))
	for _, c := range changes {
		wp, ok := s.Graph.Get(c.WorkPackageID)
		if !ok {
			continue
		}
		if err := store.UpdateWorkPackageDates(ctx, wp); err != nil {
			return nil, fmt.Errorf("failed to save dates of work package %d: %w", wp.ID, err)
		}
		saved = append(saved, wp.Clone())
	}
	return saved, nil
}
