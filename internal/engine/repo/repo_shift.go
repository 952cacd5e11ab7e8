package repo

import (
	"time"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/pkg/ctx"
)

type IShiftRepository interface {
	CreateShift(s *model.Shift) error
	GetShiftById(shiftId string) (*model.Shift, error)
	GetActiveShifts(scheduleId string, at time.Time) ([]*model.OnCallResp, error)
	GetShiftsInWindow(scheduleId string, from, to time.Time) ([]*model.Shift, error)
	GetLastShiftEnd(scheduleId string) (*time.Time, error)
	DeleteShift(shiftId string) error
}

type ShiftRepo struct {
	Repo
}

func NewShiftRepo(c *ctx.Context, schema string) IShiftRepository {
	return &ShiftRepo{Repo{Ctx: c, Schema: schema}}
}

func (r *ShiftRepo) CreateShift(s *model.Shift) error {
	return r.table("t_shift").Create(s).Error
}

func (r *ShiftRepo) GetShiftById(shiftId string) (*model.Shift, error) {
	var s model.Shift
	err := r.table("t_shift").Where("shift_id = ?", shiftId).First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// GetActiveShifts returns the primary and override assignments covering the
// given instant, overrides first so the resolver can keep the winner per
// layer. Secondary shifts are calendar-only and never resolve. Start is
// inclusive, end exclusive.
func (r *ShiftRepo) GetActiveShifts(scheduleId string, at time.Time) ([]*model.OnCallResp, error) {
	var rows []*model.OnCallResp
	err := r.table("t_shift").
		Select("t_shift.schedule_id, s.name AS schedule_name, t_shift.shift_id, "+
			"t_shift.user_id, u.username, u.email, t_shift.shift_type, t_shift.layer, "+
			"t_shift.start_time, t_shift.end_time").
		Joins("JOIN "+r.qualified("t_schedule")+" s ON s.schedule_id = t_shift.schedule_id").
		Joins("LEFT JOIN "+r.qualified("t_user")+" u ON u.user_id = t_shift.user_id").
		Where("t_shift.schedule_id = ? AND t_shift.shift_type IN ? AND t_shift.start_time <= ? AND t_shift.end_time > ?",
			scheduleId, []string{model.ShiftTypePrimary, model.ShiftTypeOverride}, at, at).
		Order("CASE WHEN t_shift.shift_type = 'override' THEN 0 ELSE 1 END, t_shift.layer ASC, t_shift.start_time DESC").
		Find(&rows).Error
	return rows, err
}

func (r *ShiftRepo) GetShiftsInWindow(scheduleId string, from, to time.Time) ([]*model.Shift, error) {
	var shifts []*model.Shift
	err := r.table("t_shift").
		Where("schedule_id = ? AND end_time > ? AND start_time < ?", scheduleId, from, to).
		Order("start_time ASC").
		Find(&shifts).Error
	return shifts, err
}

// GetLastShiftEnd returns the end of the latest generated primary shift,
// nil when the schedule has none yet.
func (r *ShiftRepo) GetLastShiftEnd(scheduleId string) (*time.Time, error) {
	var last model.Shift
	err := r.table("t_shift").
		Where("schedule_id = ? AND shift_type = ?", scheduleId, model.ShiftTypePrimary).
		Order("end_time DESC").
		First(&last).Error
	if err != nil {
		if notFound(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &last.EndTime, nil
}

func (r *ShiftRepo) DeleteShift(shiftId string) error {
	res := r.table("t_shift").Where("shift_id = ?", shiftId).Delete(&model.Shift{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
