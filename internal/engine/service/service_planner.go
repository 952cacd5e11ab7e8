package service

import (
	"time"

	"github.com/pkg/errors"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/repo"
	"github.com/firelater/firelater/pkg/ctx"
	"github.com/firelater/firelater/pkg/id"
	"github.com/firelater/firelater/pkg/log"
)

/**
 * @file: service_planner.go
 * @description: materializes primary shifts from rotation cadence
 */

type PlannerService struct {
	ScheduleRepo repo.IScheduleRepository
	RotationRepo repo.IRotationRepository
	ShiftRepo    repo.IShiftRepository
	HorizonDays  int
}

func NewPlannerService(c *ctx.Context, schema string, horizonDays int) *PlannerService {
	return &PlannerService{
		ScheduleRepo: repo.NewScheduleRepo(c, schema),
		RotationRepo: repo.NewRotationRepo(c, schema),
		ShiftRepo:    repo.NewShiftRepo(c, schema),
		HorizonDays:  horizonDays,
	}
}

// PlanAll extends shift coverage for every active schedule in the tenant.
func (s *PlannerService) PlanAll(now time.Time) error {
	schedules, err := s.ScheduleRepo.ListActiveSchedules()
	if err != nil {
		return err
	}
	for _, schedule := range schedules {
		created, err := s.PlanSchedule(schedule, now)
		if err != nil {
			log.Errorw("shift planning failed",
				"scheduleId", schedule.ScheduleId, "err", err)
			continue
		}
		if created > 0 {
			log.Infow("shifts planned",
				"scheduleId", schedule.ScheduleId, "created", created)
		}
	}
	return nil
}

// PlanSchedule round-robins the rotation members over handoff boundaries
// from the last generated shift (or the current boundary) out to the
// planning horizon. Returns the number of shifts created.
func (s *PlannerService) PlanSchedule(schedule *model.Schedule, now time.Time) (int, error) {
	members, err := s.RotationRepo.ListActiveMembers(schedule.ScheduleId)
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}

	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return 0, errors.Wrapf(err, "schedule %s timezone", schedule.ScheduleId)
	}

	horizon := now.Add(time.Duration(s.HorizonDays) * 24 * time.Hour)

	lastEnd, err := s.ShiftRepo.GetLastShiftEnd(schedule.ScheduleId)
	if err != nil {
		return 0, err
	}

	var cursor time.Time
	var next int // member index to assign
	if lastEnd != nil && lastEnd.After(now) {
		cursor = *lastEnd
		// continue the round-robin from whoever was last assigned
		count, err := s.shiftCount(schedule.ScheduleId)
		if err != nil {
			return 0, err
		}
		next = count % len(members)
	} else {
		cursor = currentHandoff(schedule, now, loc)
	}

	created := 0
	for cursor.Before(horizon) {
		end := nextHandoff(schedule, cursor, loc)
		shift := &model.Shift{
			ShiftId:    id.GetUUID(),
			ScheduleId: schedule.ScheduleId,
			UserId:     members[next].UserId,
			StartTime:  cursor.UTC(),
			EndTime:    end.UTC(),
			ShiftType:  model.ShiftTypePrimary,
			Layer:      model.DefaultLayer,
		}
		if err := s.ShiftRepo.CreateShift(shift); err != nil {
			return created, errors.Wrap(err, "create planned shift")
		}
		created++
		next = (next + 1) % len(members)
		cursor = end
	}
	return created, nil
}

func (s *PlannerService) shiftCount(scheduleId string) (int, error) {
	shifts, err := s.ShiftRepo.GetShiftsInWindow(scheduleId,
		time.Unix(0, 0), time.Now().Add(time.Duration(s.HorizonDays)*24*time.Hour))
	if err != nil {
		return 0, err
	}
	count := 0
	for _, sh := range shifts {
		if sh.ShiftType == model.ShiftTypePrimary {
			count++
		}
	}
	return count, nil
}

// currentHandoff returns the handoff boundary at or before now, so the
// first planned shift covers the present instant.
func currentHandoff(schedule *model.Schedule, now time.Time, loc *time.Location) time.Time {
	boundary := nextHandoff(schedule, now, loc)
	for boundary.After(now) {
		boundary = prevHandoff(schedule, boundary, loc)
	}
	return boundary
}

// nextHandoff returns the first handoff boundary strictly after t,
// computed in the schedule's timezone.
func nextHandoff(schedule *model.Schedule, t time.Time, loc *time.Location) time.Time {
	hour, minute := handoffClock(schedule.HandoffTime)
	local := t.In(loc)

	switch schedule.RotationType {
	case model.RotationDaily, model.RotationCustom:
		days := schedule.RotationLength
		if days <= 0 {
			days = 1
		}
		boundary := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
		if !boundary.After(t) {
			boundary = boundary.AddDate(0, 0, 1)
		}
		if schedule.RotationType == model.RotationCustom {
			// custom cadence: boundaries land every N days; the next valid
			// boundary after t is the next daily mark, shifts then run N days
			return boundary.AddDate(0, 0, days-1)
		}
		return boundary

	case model.RotationWeekly, model.RotationBiWeekly:
		weeks := schedule.RotationLength
		if weeks <= 0 {
			weeks = 1
		}
		if schedule.RotationType == model.RotationBiWeekly {
			weeks *= 2
		}
		boundary := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
		for int(boundary.Weekday()) != schedule.HandoffDay || !boundary.After(t) {
			boundary = boundary.AddDate(0, 0, 1)
		}
		return boundary.AddDate(0, 0, (weeks-1)*7)
	}
	// unknown cadence falls back to daily
	boundary := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !boundary.After(t) {
		boundary = boundary.AddDate(0, 0, 1)
	}
	return boundary
}

// prevHandoff steps one cadence length back from a boundary.
func prevHandoff(schedule *model.Schedule, boundary time.Time, loc *time.Location) time.Time {
	days := schedule.RotationLength
	if days <= 0 {
		days = 1
	}
	switch schedule.RotationType {
	case model.RotationWeekly:
		return boundary.In(loc).AddDate(0, 0, -7*days)
	case model.RotationBiWeekly:
		return boundary.In(loc).AddDate(0, 0, -14*days)
	default:
		return boundary.In(loc).AddDate(0, 0, -days)
	}
}

func handoffClock(handoffTime string) (hour, minute int) {
	t, err := time.Parse("15:04", handoffTime)
	if err != nil {
		return 9, 0
	}
	return t.Hour(), t.Minute()
}
