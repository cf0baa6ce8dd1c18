package scheduling

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/days"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// ErrCircularDependency is returned when follows relations and the
// hierarchy form a loop
var ErrCircularDependency = errors.New("circular dependency between work packages")

// Change describes the dates of one work package before and after
// scheduling
type Change struct {
	WorkPackageID int
	OldStart      *time.Time
	OldDue        *time.Time
	OldDuration   *int
	NewStart      *time.Time
	NewDue        *time.Time
	NewDuration   *int
}

// Scheduler computes dates against a working-day calendar
type Scheduler struct {
	cal *days.Calendar
}

// NewScheduler creates a scheduler using cal for every work package that
// does not ignore non-working days
func NewScheduler(cal *days.Calendar) *Scheduler {
	return &Scheduler{cal: cal}
}

// Calendar returns the calendar that applies to wp
func (s *Scheduler) Calendar(wp *models.WorkPackage) *days.Calendar {
	return s.cal.For(wp.IgnoreNonWorkingDays)
}

// SoonestStart returns the earliest start permitted by the follows
// relations of id and its ancestors, or nil when none constrains it
func (s *Scheduler) SoonestStart(g *Graph, id int) (*time.Time, error) {
	wp, ok := g.Get(id)
	if !ok {
		return nil, fmt.Errorf("work package %d not in graph", id)
	}
	cal := s.Calendar(wp)

	var soonest *time.Time
	for _, n := range append([]int{id}, g.Ancestors(id)...) {
		for _, rel := range g.Predecessors(n) {
			pred, ok := g.Get(rel.ToID)
			if !ok {
				continue
			}
			base := pred.DueDate
			if base == nil {
				base = pred.StartDate
			}
			if base == nil {
				continue
			}
			candidate, err := cal.SoonestWorkingDay(base.AddDate(0, 0, 1), rel.Lag)
			if err != nil {
				return nil, err
			}
			if soonest == nil || candidate.After(*soonest) {
				c := candidate
				soonest = &c
			}
		}
	}
	return soonest, nil
}

// Reschedule recomputes every work package whose dates depend on the
// seeds and returns the ones that changed, in processing order
func (s *Scheduler) Reschedule(g *Graph, seeds []int) ([]Change, error) {
	order, err := g.order(g.affectedBy(seeds))
	if err != nil {
		return nil, err
	}

	var changes []Change
	for _, id := range order {
		wp, _ := g.Get(id)
		before := wp.Clone()
		if err := s.schedule(g, wp); err != nil {
			return nil, fmt.Errorf("failed to schedule work package %d: %w", id, err)
		}
		if c, changed := diff(before, wp); changed {
			changes = append(changes, c)
		}
	}
	return changes, nil
}

// schedule applies automatic scheduling to a single work package
func (s *Scheduler) schedule(g *Graph, wp *models.WorkPackage) error {
	if wp.ScheduleManually {
		return nil
	}
	cal := s.Calendar(wp)

	if g.IsParent(wp.ID) {
		var minStart, maxDue *time.Time
		for _, childID := range g.Children(wp.ID) {
			child, _ := g.Get(childID)
			start, due := child.StartDate, child.DueDate
			if start == nil {
				start = due
			}
			if due == nil {
				due = start
			}
			if start == nil {
				continue
			}
			if minStart == nil || start.Before(*minStart) {
				minStart = copyDate(start)
			}
			if maxDue == nil || due.After(*maxDue) {
				maxDue = copyDate(due)
			}
		}
		if minStart == nil {
			return nil
		}
		wp.StartDate, wp.DueDate = minStart, maxDue
		setDuration(cal, wp)
		return nil
	}

	soonest, err := s.SoonestStart(g, wp.ID)
	if err != nil || soonest == nil {
		return err
	}

	start := *soonest
	wp.StartDate = &start
	switch {
	case wp.IsMilestone():
		wp.DueDate = copyDate(&start)
	case wp.Duration != nil && *wp.Duration > 0:
		due, err := cal.DueDate(start, *wp.Duration)
		if err != nil {
			return err
		}
		wp.DueDate = &due
	case wp.DueDate != nil && wp.DueDate.Before(start):
		wp.DueDate = copyDate(&start)
	}
	setDuration(cal, wp)
	return nil
}

// ApplyWorkingDaysChange refits every dated leaf that does not ignore
// non-working days to the scheduler's calendar, keeping start and
// duration, then reschedules everything depending on the result.
func (s *Scheduler) ApplyWorkingDaysChange(g *Graph) ([]Change, error) {
	var (
		changes []Change
		seeds   []int
	)
	for _, wp := range g.Packages() {
		if len(g.Predecessors(wp.ID)) > 0 {
			seeds = append(seeds, wp.ID)
		}
		if g.IsParent(wp.ID) || wp.IgnoreNonWorkingDays {
			continue
		}
		if wp.StartDate == nil && wp.DueDate == nil {
			continue
		}
		before := wp.Clone()
		if err := s.refit(wp); err != nil {
			return nil, fmt.Errorf("failed to refit work package %d: %w", wp.ID, err)
		}
		if c, changed := diff(before, wp); changed {
			changes = append(changes, c)
			seeds = append(seeds, wp.ID)
		}
	}

	propagated, err := s.Reschedule(g, seeds)
	if err != nil {
		return nil, err
	}
	return mergeChanges(changes, propagated), nil
}

func (s *Scheduler) refit(wp *models.WorkPackage) error {
	cal := s.cal
	if wp.StartDate == nil {
		due, err := cal.LatestWorkingDay(*wp.DueDate)
		if err != nil {
			return err
		}
		wp.DueDate = &due
		return nil
	}

	start, err := cal.SoonestWorkingDay(*wp.StartDate, 0)
	if err != nil {
		return err
	}
	wp.StartDate = &start
	switch {
	case wp.IsMilestone():
		wp.DueDate = copyDate(&start)
	case wp.Duration != nil && *wp.Duration > 0:
		due, err := cal.DueDate(start, *wp.Duration)
		if err != nil {
			return err
		}
		wp.DueDate = &due
	case wp.DueDate != nil:
		due, err := cal.LatestWorkingDay(*wp.DueDate)
		if err != nil {
			return err
		}
		if due.Before(start) {
			due = start
		}
		wp.DueDate = &due
	}
	setDuration(cal, wp)
	return nil
}

// affectedBy collects the seeds, their descendants, and everything
// reachable through "followers and their descendants" and "parent" edges
func (g *Graph) affectedBy(seeds []int) map[int]bool {
	affected := make(map[int]bool)
	var queue []int
	for _, id := range seeds {
		if _, ok := g.Get(id); !ok {
			continue
		}
		queue = append(queue, id)
		queue = append(queue, g.Descendants(id)...)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if affected[id] {
			continue
		}
		affected[id] = true

		for _, rel := range g.Followers(id) {
			queue = append(queue, rel.FromID)
			queue = append(queue, g.Descendants(rel.FromID)...)
		}
		if parent, ok := g.Parent(id); ok {
			queue = append(queue, parent)
		}
	}
	return affected
}

// order sorts the affected set so every work package comes after the
// ones it depends on. Ties are broken by ascending ID.
func (g *Graph) order(affected map[int]bool) ([]int, error) {
	indegree := make(map[int]int, len(affected))
	dependents := make(map[int][]int)
	for id := range affected {
		indegree[id] += 0
		seen := make(map[int]bool)
		for _, dep := range g.dependencies(id) {
			if !affected[dep] || seen[dep] {
				continue
			}
			seen[dep] = true
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []int
	for id, n := range indegree {
		if n == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]int, 0, len(affected))
	for len(ready) > 0 {
		sort.Ints(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, d := range dependents[id] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(order) != len(affected) {
		return nil, ErrCircularDependency
	}
	return order, nil
}

func setDuration(cal *days.Calendar, wp *models.WorkPackage) {
	if d, ok := cal.Duration(wp.StartDate, wp.DueDate); ok {
		wp.Duration = &d
	}
}

func copyDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func diff(before, after *models.WorkPackage) (Change, bool) {
	c := Change{
		WorkPackageID: after.ID,
		OldStart:      before.StartDate,
		OldDue:        before.DueDate,
		OldDuration:   before.Duration,
		NewStart:      after.StartDate,
		NewDue:        after.DueDate,
		NewDuration:   after.Duration,
	}
	changed := !models.SameDate(before.StartDate, after.StartDate) ||
		!models.SameDate(before.DueDate, after.DueDate) ||
		!models.SameInt(before.Duration, after.Duration)
	return c, changed
}

// mergeChanges folds later changes of the same work package into the
// first one, keeping the original old values
func mergeChanges(first, later []Change) []Change {
	index := make(map[int]int, len(first))
	out := append([]Change(nil), first...)
	for i, c := range out {
		index[c.WorkPackageID] = i
	}
	for _, c := range later {
		if i, ok := index[c.WorkPackageID]; ok {
			out[i].NewStart, out[i].NewDue, out[i].NewDuration = c.NewStart, c.NewDue, c.NewDuration
			continue
		}
		index[c.WorkPackageID] = len(out)
		out = append(out, c)
	}
	return out
}
