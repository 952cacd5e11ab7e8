package service

import (
	"time"

	"github.com/pkg/errors"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/repo"
	"github.com/firelater/firelater/pkg/ctx"
	"github.com/firelater/firelater/pkg/id"
)

/**
 * @file: service_schedule.go
 * @description: schedule lifecycle and application links
 */

const (
	defaultTimezone    = "UTC"
	defaultHandoffTime = "09:00"
)

type ScheduleService struct {
	ScheduleRepo repo.IScheduleRepository
}

func NewScheduleService(c *ctx.Context, schema string) *ScheduleService {
	return &ScheduleService{
		ScheduleRepo: repo.NewScheduleRepo(c, schema),
	}
}

func (s *ScheduleService) CreateSchedule(req *model.CreateScheduleReq) (*model.Schedule, error) {
	if !validRotationType(req.RotationType) {
		return nil, errors.Errorf("unknown rotation type: %s", req.RotationType)
	}
	tz := req.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, errors.Wrapf(err, "invalid timezone: %s", tz)
	}
	handoff := req.HandoffTime
	if handoff == "" {
		handoff = defaultHandoffTime
	}
	if _, err := time.Parse("15:04", handoff); err != nil {
		return nil, errors.Wrapf(err, "invalid handoff time: %s", handoff)
	}
	if req.HandoffDay < 0 || req.HandoffDay > 6 {
		return nil, errors.Errorf("handoff day out of range: %d", req.HandoffDay)
	}
	length := req.RotationLength
	if length <= 0 {
		length = 1
	}

	schedule := &model.Schedule{
		ScheduleId:     id.GetUUID(),
		Name:           req.Name,
		Description:    req.Description,
		Timezone:       tz,
		RotationType:   req.RotationType,
		RotationLength: length,
		HandoffTime:    handoff,
		HandoffDay:     req.HandoffDay,
		TeamId:         req.TeamId,
		IsActive:       1,
	}
	if err := s.ScheduleRepo.CreateSchedule(schedule); err != nil {
		return nil, errors.Wrap(err, "create schedule")
	}
	return schedule, nil
}

func (s *ScheduleService) UpdateSchedule(scheduleId string, req *model.UpdateScheduleReq) error {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return errors.Wrapf(err, "invalid timezone: %s", *req.Timezone)
		}
		updates["timezone"] = *req.Timezone
	}
	if req.RotationType != nil {
		if !validRotationType(*req.RotationType) {
			return errors.Errorf("unknown rotation type: %s", *req.RotationType)
		}
		updates["rotation_type"] = *req.RotationType
	}
	if req.RotationLength != nil {
		if *req.RotationLength <= 0 {
			return errors.New("rotation length must be positive")
		}
		updates["rotation_length"] = *req.RotationLength
	}
	if req.HandoffTime != nil {
		if _, err := time.Parse("15:04", *req.HandoffTime); err != nil {
			return errors.Wrapf(err, "invalid handoff time: %s", *req.HandoffTime)
		}
		updates["handoff_time"] = *req.HandoffTime
	}
	if req.HandoffDay != nil {
		if *req.HandoffDay < 0 || *req.HandoffDay > 6 {
			return errors.Errorf("handoff day out of range: %d", *req.HandoffDay)
		}
		updates["handoff_day"] = *req.HandoffDay
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return s.ScheduleRepo.UpdateSchedule(scheduleId, updates)
}

func (s *ScheduleService) DeleteSchedule(scheduleId string) error {
	return s.ScheduleRepo.DeleteSchedule(scheduleId)
}

func (s *ScheduleService) GetSchedule(scheduleId string) (*model.Schedule, error) {
	return s.ScheduleRepo.GetScheduleById(scheduleId)
}

func (s *ScheduleService) ListSchedules() ([]*model.Schedule, error) {
	return s.ScheduleRepo.ListSchedules()
}

func (s *ScheduleService) LinkApplication(scheduleId, applicationId string) error {
	exists, err := s.ScheduleRepo.CheckScheduleExists(scheduleId)
	if err != nil {
		return err
	}
	if !exists {
		return repo.ErrNotFound
	}
	return s.ScheduleRepo.LinkApplication(scheduleId, applicationId)
}

func (s *ScheduleService) UnlinkApplication(scheduleId, applicationId string) error {
	return s.ScheduleRepo.UnlinkApplication(scheduleId, applicationId)
}

func (s *ScheduleService) GetScheduleIdsByApplication(applicationId string) ([]string, error) {
	return s.ScheduleRepo.GetScheduleIdsByApplication(applicationId)
}

func validRotationType(t string) bool {
	switch t {
	case model.RotationDaily, model.RotationWeekly, model.RotationBiWeekly, model.RotationCustom:
		return true
	}
	return false
}
