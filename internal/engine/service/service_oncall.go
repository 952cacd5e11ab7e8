package service

import (
	"time"

	"github.com/pkg/errors"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/repo"
	"github.com/firelater/firelater/pkg/ctx"
	"github.com/firelater/firelater/pkg/id"
	"github.com/firelater/firelater/pkg/metrics"
)

/**
 * @file: service_oncall.go
 * @description: shift resolution with override precedence
 */

type OnCallService struct {
	ShiftRepo     repo.IShiftRepository
	ScheduleRepo  repo.IScheduleRepository
	DirectoryRepo repo.IDirectoryRepository
}

func NewOnCallService(c *ctx.Context, schema string) *OnCallService {
	return &OnCallService{
		ShiftRepo:     repo.NewShiftRepo(c, schema),
		ScheduleRepo:  repo.NewScheduleRepo(c, schema),
		DirectoryRepo: repo.NewDirectoryRepo(c, schema),
	}
}

// WhoIsOnCall resolves the active assignments at the given instant, one per
// layer. Overrides outrank primaries on the same layer; among same-ranked
// candidates the latest-starting shift wins. Resolution happens entirely at
// read time, nothing is materialized.
func (s *OnCallService) WhoIsOnCall(scheduleId string, at time.Time) ([]*model.OnCallResp, error) {
	exists, err := s.ScheduleRepo.CheckScheduleExists(scheduleId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repo.ErrNotFound
	}

	rows, err := s.ShiftRepo.GetActiveShifts(scheduleId, at)
	if err != nil {
		return nil, err
	}

	// rows arrive overrides first, then by start_time descending; keep the
	// first hit per layer.
	seen := make(map[int]bool, len(rows))
	var winners []*model.OnCallResp
	for _, row := range rows {
		if seen[row.Layer] {
			continue
		}
		seen[row.Layer] = true
		winners = append(winners, row)
	}

	metrics.OnCallResolutionsTotal.Inc()
	return winners, nil
}

// WhoIsOnCallForApplication resolves across every schedule linked to the
// application.
func (s *OnCallService) WhoIsOnCallForApplication(applicationId string, at time.Time) ([]*model.OnCallResp, error) {
	scheduleIds, err := s.ScheduleRepo.GetScheduleIdsByApplication(applicationId)
	if err != nil {
		return nil, err
	}
	var result []*model.OnCallResp
	for _, scheduleId := range scheduleIds {
		winners, err := s.WhoIsOnCall(scheduleId, at)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				continue
			}
			return nil, err
		}
		result = append(result, winners...)
	}
	return result, nil
}

func (s *OnCallService) CreateShift(scheduleId string, req *model.CreateShiftReq) (*model.Shift, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, errors.New("shift end must be after start")
	}
	exists, err := s.ScheduleRepo.CheckScheduleExists(scheduleId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repo.ErrNotFound
	}
	if ok, err := s.DirectoryRepo.CheckUserExists(req.UserId); err != nil {
		return nil, err
	} else if !ok {
		return nil, repo.ErrNotFound
	}

	shiftType := req.ShiftType
	if shiftType == "" {
		shiftType = model.ShiftTypePrimary
	}
	if shiftType != model.ShiftTypePrimary && shiftType != model.ShiftTypeSecondary {
		return nil, errors.Errorf("unknown shift type: %s", shiftType)
	}
	layer := req.Layer
	if layer <= 0 {
		layer = model.DefaultLayer
	}

	shift := &model.Shift{
		ShiftId:    id.GetUUID(),
		ScheduleId: scheduleId,
		UserId:     req.UserId,
		StartTime:  req.StartTime.UTC(),
		EndTime:    req.EndTime.UTC(),
		ShiftType:  shiftType,
		Layer:      layer,
	}
	if err := s.ShiftRepo.CreateShift(shift); err != nil {
		return nil, errors.Wrap(err, "create shift")
	}
	return shift, nil
}

// CreateOverride records a temporary substitution. The underlying primary
// shift is untouched; precedence is applied when resolving.
func (s *OnCallService) CreateOverride(scheduleId string, req *model.CreateOverrideReq) (*model.Shift, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, errors.New("override end must be after start")
	}
	exists, err := s.ScheduleRepo.CheckScheduleExists(scheduleId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repo.ErrNotFound
	}
	if ok, err := s.DirectoryRepo.CheckUserExists(req.UserId); err != nil {
		return nil, err
	} else if !ok {
		return nil, repo.ErrNotFound
	}

	shift := &model.Shift{
		ShiftId:        id.GetUUID(),
		ScheduleId:     scheduleId,
		UserId:         req.UserId,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		ShiftType:      model.ShiftTypeOverride,
		Layer:          model.DefaultLayer,
		OriginalUserId: req.OriginalUserId,
		Reason:         req.Reason,
	}
	if err := s.ShiftRepo.CreateShift(shift); err != nil {
		return nil, errors.Wrap(err, "create override")
	}
	return shift, nil
}

func (s *OnCallService) GetShifts(scheduleId string, from, to time.Time) ([]*model.Shift, error) {
	if !to.After(from) {
		return nil, errors.New("window end must be after start")
	}
	return s.ShiftRepo.GetShiftsInWindow(scheduleId, from, to)
}

func (s *OnCallService) GetShift(shiftId string) (*model.Shift, error) {
	return s.ShiftRepo.GetShiftById(shiftId)
}

func (s *OnCallService) DeleteShift(shiftId string) error {
	return s.ShiftRepo.DeleteShift(shiftId)
}
