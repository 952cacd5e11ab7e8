package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/repo"
)

func newOnCallFixture() (*OnCallService, *fakeShiftRepo, time.Time) {
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	schedules := newFakeScheduleRepo(&model.Schedule{
		ScheduleId: "sched-1", Name: "Payments", Timezone: "UTC", IsActive: 1,
	})
	users := map[string]*model.User{
		"alice": {UserId: "alice", Username: "Alice", Email: "alice@example.com", IsActive: 1},
		"bob":   {UserId: "bob", Username: "Bob", Email: "bob@example.com", IsActive: 1},
		"carol": {UserId: "carol", Username: "Carol", Email: "carol@example.com", IsActive: 1},
	}
	shifts := newFakeShiftRepo(schedules, users)
	svc := &OnCallService{
		ShiftRepo:    shifts,
		ScheduleRepo: schedules,
		DirectoryRepo: newFakeDirectoryRepo(
			users["alice"], users["bob"], users["carol"],
		),
	}
	return svc, shifts, t0
}

func TestWhoIsOnCall_OverridePrecedence(t *testing.T) {
	svc, shifts, t0 := newOnCallFixture()

	// alice holds the whole day; bob overrides hours 2..4
	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-a", ScheduleId: "sched-1", UserId: "alice",
		StartTime: t0, EndTime: t0.Add(24 * time.Hour),
		ShiftType: model.ShiftTypePrimary, Layer: model.DefaultLayer,
	}))
	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-b", ScheduleId: "sched-1", UserId: "bob",
		StartTime: t0.Add(2 * time.Hour), EndTime: t0.Add(4 * time.Hour),
		ShiftType: model.ShiftTypeOverride, Layer: model.DefaultLayer,
	}))

	// inside the override window the substitute wins
	winners, err := svc.WhoIsOnCall("sched-1", t0.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "bob", winners[0].UserId)
	assert.Equal(t, model.ShiftTypeOverride, winners[0].ShiftType)

	// after the override expires the primary is back
	winners, err = svc.WhoIsOnCall("sched-1", t0.Add(5*time.Hour))
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "alice", winners[0].UserId)
	assert.Equal(t, model.ShiftTypePrimary, winners[0].ShiftType)
}

func TestWhoIsOnCall_OnePerLayer(t *testing.T) {
	svc, shifts, t0 := newOnCallFixture()

	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-a", ScheduleId: "sched-1", UserId: "alice",
		StartTime: t0, EndTime: t0.Add(24 * time.Hour),
		ShiftType: model.ShiftTypePrimary, Layer: 1,
	}))
	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-c", ScheduleId: "sched-1", UserId: "carol",
		StartTime: t0, EndTime: t0.Add(24 * time.Hour),
		ShiftType: model.ShiftTypePrimary, Layer: 2,
	}))

	winners, err := svc.WhoIsOnCall("sched-1", t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, winners, 2)
	assert.Equal(t, "alice", winners[0].UserId)
	assert.Equal(t, 1, winners[0].Layer)
	assert.Equal(t, "carol", winners[1].UserId)
	assert.Equal(t, 2, winners[1].Layer)
}

func TestWhoIsOnCall_SecondaryShiftsDoNotResolve(t *testing.T) {
	svc, shifts, t0 := newOnCallFixture()

	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-a", ScheduleId: "sched-1", UserId: "alice",
		StartTime: t0, EndTime: t0.Add(24 * time.Hour),
		ShiftType: model.ShiftTypePrimary, Layer: 1,
	}))
	// a later-starting secondary on the same layer would outrank the
	// primary if it entered the candidate set
	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-s", ScheduleId: "sched-1", UserId: "carol",
		StartTime: t0.Add(time.Hour), EndTime: t0.Add(24 * time.Hour),
		ShiftType: model.ShiftTypeSecondary, Layer: 1,
	}))

	winners, err := svc.WhoIsOnCall("sched-1", t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "alice", winners[0].UserId)
}

func TestWhoIsOnCall_BoundaryInstants(t *testing.T) {
	svc, shifts, t0 := newOnCallFixture()

	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-a", ScheduleId: "sched-1", UserId: "alice",
		StartTime: t0, EndTime: t0.Add(8 * time.Hour),
		ShiftType: model.ShiftTypePrimary, Layer: 1,
	}))

	// start is inclusive
	winners, err := svc.WhoIsOnCall("sched-1", t0)
	require.NoError(t, err)
	require.Len(t, winners, 1)

	// end is exclusive
	winners, err = svc.WhoIsOnCall("sched-1", t0.Add(8*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, winners)
}

func TestWhoIsOnCall_EmptySchedule(t *testing.T) {
	svc, _, t0 := newOnCallFixture()

	winners, err := svc.WhoIsOnCall("sched-1", t0)
	require.NoError(t, err)
	assert.Empty(t, winners)
}

func TestWhoIsOnCall_UnknownSchedule(t *testing.T) {
	svc, _, t0 := newOnCallFixture()

	_, err := svc.WhoIsOnCall("nope", t0)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestCreateShift_Validation(t *testing.T) {
	svc, _, t0 := newOnCallFixture()

	_, err := svc.CreateShift("sched-1", &model.CreateShiftReq{
		UserId: "alice", StartTime: t0.Add(time.Hour), EndTime: t0,
	})
	assert.Error(t, err)

	_, err = svc.CreateShift("sched-1", &model.CreateShiftReq{
		UserId: "ghost", StartTime: t0, EndTime: t0.Add(time.Hour),
	})
	assert.ErrorIs(t, err, repo.ErrNotFound)

	shift, err := svc.CreateShift("sched-1", &model.CreateShiftReq{
		UserId: "alice", StartTime: t0, EndTime: t0.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ShiftTypePrimary, shift.ShiftType)
	assert.Equal(t, model.DefaultLayer, shift.Layer)
	assert.NotEmpty(t, shift.ShiftId)
}

func TestCreateOverride_KeepsPrimary(t *testing.T) {
	svc, shifts, t0 := newOnCallFixture()

	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-a", ScheduleId: "sched-1", UserId: "alice",
		StartTime: t0, EndTime: t0.Add(24 * time.Hour),
		ShiftType: model.ShiftTypePrimary, Layer: 1,
	}))

	override, err := svc.CreateOverride("sched-1", &model.CreateOverrideReq{
		UserId: "bob", OriginalUserId: "alice",
		StartTime: t0.Add(time.Hour), EndTime: t0.Add(2 * time.Hour),
		Reason: "dentist",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ShiftTypeOverride, override.ShiftType)
	assert.Equal(t, "alice", override.OriginalUserId)

	// both rows exist; precedence is purely a read-time concern
	window, err := svc.GetShifts("sched-1", t0, t0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, window, 2)
}

func TestGetShift(t *testing.T) {
	svc, shifts, t0 := newOnCallFixture()

	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-a", ScheduleId: "sched-1", UserId: "alice",
		StartTime: t0, EndTime: t0.Add(8 * time.Hour),
		ShiftType: model.ShiftTypePrimary, Layer: 1,
	}))

	got, err := svc.GetShift("shift-a")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserId)

	_, err = svc.GetShift("nope")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestWhoIsOnCallForApplication(t *testing.T) {
	svc, shifts, t0 := newOnCallFixture()
	schedRepo := svc.ScheduleRepo.(*fakeScheduleRepo)
	require.NoError(t, schedRepo.LinkApplication("sched-1", "app-1"))

	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-a", ScheduleId: "sched-1", UserId: "alice",
		StartTime: t0, EndTime: t0.Add(24 * time.Hour),
		ShiftType: model.ShiftTypePrimary, Layer: 1,
	}))

	winners, err := svc.WhoIsOnCallForApplication("app-1", t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "alice", winners[0].UserId)

	winners, err = svc.WhoIsOnCallForApplication("app-unlinked", t0)
	require.NoError(t, err)
	assert.Empty(t, winners)
}
