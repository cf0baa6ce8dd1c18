package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/days"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

func TestDeriveDates(t *testing.T) {
	tests := []struct {
		name     string
		wp       models.WorkPackage
		changed  Fields
		wantFrom *time.Time
		wantTo   *time.Time
		wantDur  *int
	}{
		{
			name:     "start and due give duration",
			wp:       models.WorkPackage{StartDate: june(3), DueDate: june(10)},
			changed:  Fields{StartDate: true, DueDate: true},
			wantFrom: june(3), wantTo: june(10), wantDur: models.IntPtr(6),
		},
		{
			name:     "start and due win over a given duration",
			wp:       models.WorkPackage{StartDate: june(3), DueDate: june(7), Duration: models.IntPtr(10)},
			changed:  Fields{StartDate: true, DueDate: true, Duration: true},
			wantFrom: june(3), wantTo: june(7), wantDur: models.IntPtr(5),
		},
		{
			name:     "start and duration give due",
			wp:       models.WorkPackage{StartDate: june(6), Duration: models.IntPtr(3)},
			changed:  Fields{StartDate: true, Duration: true},
			wantFrom: june(6), wantTo: june(10), wantDur: models.IntPtr(3),
		},
		{
			name:     "due and duration give start",
			wp:       models.WorkPackage{DueDate: june(10), Duration: models.IntPtr(2)},
			changed:  Fields{DueDate: true, Duration: true},
			wantFrom: june(7), wantTo: june(10), wantDur: models.IntPtr(2),
		},
		{
			name:     "moving start keeps duration",
			wp:       models.WorkPackage{StartDate: june(4), DueDate: june(4), Duration: models.IntPtr(2)},
			changed:  Fields{StartDate: true},
			wantFrom: june(4), wantTo: june(5), wantDur: models.IntPtr(2),
		},
		{
			name:     "changing duration moves due",
			wp:       models.WorkPackage{StartDate: june(3), DueDate: june(4), Duration: models.IntPtr(5)},
			changed:  Fields{Duration: true},
			wantFrom: june(3), wantTo: june(7), wantDur: models.IntPtr(5),
		},
		{
			name:     "changing due recomputes duration",
			wp:       models.WorkPackage{StartDate: june(3), DueDate: june(5), Duration: models.IntPtr(1)},
			changed:  Fields{DueDate: true},
			wantFrom: june(3), wantTo: june(5), wantDur: models.IntPtr(3),
		},
		{
			name:     "clearing start clears duration",
			wp:       models.WorkPackage{DueDate: june(5), Duration: models.IntPtr(3)},
			changed:  Fields{StartDate: true},
			wantFrom: nil, wantTo: june(5), wantDur: nil,
		},
		{
			name:     "clearing due with new duration keeps start",
			wp:       models.WorkPackage{StartDate: june(3), Duration: models.IntPtr(2)},
			changed:  Fields{DueDate: true, Duration: true},
			wantFrom: june(3), wantTo: june(4), wantDur: models.IntPtr(2),
		},
		{
			name:     "only start stays open",
			wp:       models.WorkPackage{StartDate: june(3)},
			changed:  Fields{StartDate: true},
			wantFrom: june(3), wantTo: nil, wantDur: nil,
		},
		{
			name:     "milestone takes start",
			wp:       models.WorkPackage{TypeID: models.TypeMilestone, StartDate: june(6), DueDate: june(10)},
			changed:  Fields{StartDate: true},
			wantFrom: june(6), wantTo: june(6), wantDur: models.IntPtr(1),
		},
		{
			name:     "milestone takes due when only due changed",
			wp:       models.WorkPackage{TypeID: models.TypeMilestone, StartDate: june(6), DueDate: june(10)},
			changed:  Fields{DueDate: true},
			wantFrom: june(10), wantTo: june(10), wantDur: models.IntPtr(1),
		},
		{
			name:     "milestone without dates",
			wp:       models.WorkPackage{TypeID: models.TypeMilestone, Duration: models.IntPtr(1)},
			changed:  Fields{StartDate: true},
			wantFrom: nil, wantTo: nil, wantDur: nil,
		},
		{
			name:     "ignoring non-working days counts weekends",
			wp:       models.WorkPackage{StartDate: june(7), Duration: models.IntPtr(3), IgnoreNonWorkingDays: true},
			changed:  Fields{Duration: true},
			wantFrom: june(7), wantTo: june(9), wantDur: models.IntPtr(3),
		},
	}

	s := NewScheduler(days.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.wp
			require.NoError(t, s.DeriveDates(&w, tt.changed))
			assert.True(t, models.SameDate(tt.wantFrom, w.StartDate), "start: want %v got %v", tt.wantFrom, w.StartDate)
			assert.True(t, models.SameDate(tt.wantTo, w.DueDate), "due: want %v got %v", tt.wantTo, w.DueDate)
			assert.True(t, models.SameInt(tt.wantDur, w.Duration), "duration: want %v got %v", tt.wantDur, w.Duration)
		})
	}
}

func TestFieldsAny(t *testing.T) {
	assert.False(t, Fields{}.Any())
	assert.True(t, Fields{Duration: true}.Any())
}
