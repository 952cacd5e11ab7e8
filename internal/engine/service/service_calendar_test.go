package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/repo"
)

func newCalendarFixture() (*CalendarService, *fakeShiftRepo, time.Time) {
	t0 := time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)
	schedules := newFakeScheduleRepo(&model.Schedule{
		ScheduleId: "sched-1", Name: "Payments; EU, primary", Timezone: "Europe/Berlin", IsActive: 1,
	})
	users := map[string]*model.User{
		"alice": {UserId: "alice", Username: "Alice", Email: "alice@example.com", IsActive: 1},
		"bob":   {UserId: "bob", Username: "Bob", Email: "bob@example.com", IsActive: 1},
	}
	shifts := newFakeShiftRepo(schedules, users)
	svc := &CalendarService{
		ScheduleRepo:  schedules,
		ShiftRepo:     shifts,
		DirectoryRepo: newFakeDirectoryRepo(users["alice"], users["bob"]),
		TenantId:      "acme",
	}
	return svc, shifts, t0
}

func TestRenderFeed_Structure(t *testing.T) {
	svc, shifts, t0 := newCalendarFixture()
	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-1", ScheduleId: "sched-1", UserId: "alice",
		StartTime: t0, EndTime: t0.Add(24 * time.Hour),
		ShiftType: model.ShiftTypePrimary, Layer: 1,
	}))

	feed, err := svc.RenderFeed("sched-1", "", t0.Add(-time.Hour), t0.Add(48*time.Hour))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(feed, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(feed, "END:VCALENDAR\r\n"))
	assert.Contains(t, feed, "VERSION:2.0\r\n")
	assert.Contains(t, feed, "BEGIN:VEVENT\r\n")
	assert.Contains(t, feed, "DTSTART:20260406T090000Z\r\n")
	assert.Contains(t, feed, "DTEND:20260407T090000Z\r\n")
	assert.Contains(t, feed, "X-WR-TIMEZONE:Europe/Berlin\r\n")
	assert.Contains(t, feed, "BEGIN:VALARM\r\n")
	assert.Contains(t, feed, "TRIGGER:-PT15M\r\n")
}

func TestRenderFeed_StableUID(t *testing.T) {
	svc, shifts, t0 := newCalendarFixture()
	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-1", ScheduleId: "sched-1", UserId: "alice",
		StartTime: t0, EndTime: t0.Add(24 * time.Hour),
		ShiftType: model.ShiftTypePrimary, Layer: 1,
	}))

	first, err := svc.RenderFeed("sched-1", "", t0.Add(-time.Hour), t0.Add(48*time.Hour))
	require.NoError(t, err)
	second, err := svc.RenderFeed("sched-1", "", t0.Add(-time.Hour), t0.Add(48*time.Hour))
	require.NoError(t, err)

	// same uid on every export, so calendar apps update instead of duplicate
	const uid = "UID:shift-1@acme.firelater\r\n"
	assert.Contains(t, first, uid)
	assert.Contains(t, second, uid)
}

func TestRenderFeed_TextEscaping(t *testing.T) {
	svc, shifts, t0 := newCalendarFixture()
	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-1", ScheduleId: "sched-1", UserId: "bob",
		StartTime: t0, EndTime: t0.Add(4 * time.Hour),
		ShiftType: model.ShiftTypeOverride, Layer: 1,
		OriginalUserId: "alice", Reason: "out; family, stuff\nback tomorrow",
	}))

	feed, err := svc.RenderFeed("sched-1", "", t0.Add(-time.Hour), t0.Add(48*time.Hour))
	require.NoError(t, err)

	// schedule name carries ; and , and must arrive escaped
	assert.Contains(t, feed, `Payments\; EU\, primary`)
	assert.Contains(t, feed, `out\; family\, stuff\nback tomorrow`)
	assert.NotContains(t, feed, "Reason: out; family")
}

func TestRenderFeed_FilterUser(t *testing.T) {
	svc, shifts, t0 := newCalendarFixture()
	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-1", ScheduleId: "sched-1", UserId: "alice",
		StartTime: t0, EndTime: t0.Add(24 * time.Hour),
		ShiftType: model.ShiftTypePrimary, Layer: 1,
	}))
	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-2", ScheduleId: "sched-1", UserId: "bob",
		StartTime: t0.Add(24 * time.Hour), EndTime: t0.Add(48 * time.Hour),
		ShiftType: model.ShiftTypePrimary, Layer: 1,
	}))

	feed, err := svc.RenderFeed("sched-1", "bob", t0.Add(-time.Hour), t0.Add(72*time.Hour))
	require.NoError(t, err)
	assert.NotContains(t, feed, "UID:shift-1@")
	assert.Contains(t, feed, "UID:shift-2@")
}

func TestRenderFeed_UnknownSchedule(t *testing.T) {
	svc, _, t0 := newCalendarFixture()
	_, err := svc.RenderFeed("nope", "", t0, t0.Add(time.Hour))
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestRenderFeed_LineFolding(t *testing.T) {
	svc, shifts, t0 := newCalendarFixture()
	longReason := strings.Repeat("still out ", 30)
	require.NoError(t, shifts.CreateShift(&model.Shift{
		ShiftId: "shift-1", ScheduleId: "sched-1", UserId: "bob",
		StartTime: t0, EndTime: t0.Add(time.Hour),
		ShiftType: model.ShiftTypeOverride, Layer: 1, Reason: longReason,
	}))

	feed, err := svc.RenderFeed("sched-1", "", t0.Add(-time.Hour), t0.Add(2*time.Hour))
	require.NoError(t, err)

	for _, line := range strings.Split(feed, "\r\n") {
		assert.LessOrEqual(t, len(line), 76, "unfolded line: %q", line)
	}
	// folded continuation lines start with a space
	assert.Contains(t, feed, "\r\n ")
}

func TestEscapeText(t *testing.T) {
	assert.Equal(t, `a\\b\;c\,d\ne`, escapeText("a\\b;c,d\ne"))
	assert.Equal(t, `x\ny`, escapeText("x\r\ny"))
	assert.Equal(t, "plain", escapeText("plain"))
}
