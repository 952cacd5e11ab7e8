package repo

import (
	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/pkg/ctx"
)

type IScheduleRepository interface {
	CreateSchedule(s *model.Schedule) error
	UpdateSchedule(scheduleId string, updates map[string]interface{}) error
	DeleteSchedule(scheduleId string) error
	GetScheduleById(scheduleId string) (*model.Schedule, error)
	ListSchedules() ([]*model.Schedule, error)
	ListActiveSchedules() ([]*model.Schedule, error)
	CheckScheduleExists(scheduleId string) (bool, error)
	LinkApplication(scheduleId, applicationId string) error
	UnlinkApplication(scheduleId, applicationId string) error
	GetScheduleIdsByApplication(applicationId string) ([]string, error)
}

type ScheduleRepo struct {
	Repo
}

func NewScheduleRepo(c *ctx.Context, schema string) IScheduleRepository {
	return &ScheduleRepo{Repo{Ctx: c, Schema: schema}}
}

func (r *ScheduleRepo) CreateSchedule(s *model.Schedule) error {
	return r.table("t_schedule").Create(s).Error
}

func (r *ScheduleRepo) UpdateSchedule(scheduleId string, updates map[string]interface{}) error {
	res := r.table("t_schedule").Where("schedule_id = ?", scheduleId).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSchedule removes the schedule row. Historical shifts keep their
// schedule_id for audit joins; they are never cascaded.
func (r *ScheduleRepo) DeleteSchedule(scheduleId string) error {
	res := r.table("t_schedule").Where("schedule_id = ?", scheduleId).Delete(&model.Schedule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ScheduleRepo) GetScheduleById(scheduleId string) (*model.Schedule, error) {
	var s model.Schedule
	err := r.table("t_schedule").Where("schedule_id = ?", scheduleId).First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *ScheduleRepo) ListSchedules() ([]*model.Schedule, error) {
	var schedules []*model.Schedule
	err := r.table("t_schedule").Order("name ASC").Find(&schedules).Error
	return schedules, err
}

func (r *ScheduleRepo) ListActiveSchedules() ([]*model.Schedule, error) {
	var schedules []*model.Schedule
	err := r.table("t_schedule").Where("is_active = ?", 1).Order("name ASC").Find(&schedules).Error
	return schedules, err
}

func (r *ScheduleRepo) CheckScheduleExists(scheduleId string) (bool, error) {
	var count int64
	err := r.table("t_schedule").Where("schedule_id = ?", scheduleId).Count(&count).Error
	return count > 0, err
}

func (r *ScheduleRepo) LinkApplication(scheduleId, applicationId string) error {
	var count int64
	if err := r.table("t_schedule_application").
		Where("schedule_id = ? AND application_id = ?", scheduleId, applicationId).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	link := &model.ScheduleApplication{ScheduleId: scheduleId, ApplicationId: applicationId}
	return r.table("t_schedule_application").Create(link).Error
}

func (r *ScheduleRepo) UnlinkApplication(scheduleId, applicationId string) error {
	return r.table("t_schedule_application").
		Where("schedule_id = ? AND application_id = ?", scheduleId, applicationId).
		Delete(&model.ScheduleApplication{}).Error
}

func (r *ScheduleRepo) GetScheduleIdsByApplication(applicationId string) ([]string, error) {
	var ids []string
	err := r.table("t_schedule_application").
		Where("application_id = ?", applicationId).
		Pluck("schedule_id", &ids).Error
	return ids, err
}
