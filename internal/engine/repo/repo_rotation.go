package repo

import (
	"errors"

	"gorm.io/gorm"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/pkg/ctx"
	"github.com/firelater/firelater/pkg/id"
)

type IRotationRepository interface {
	AddMember(scheduleId, userId string, position int) (*model.Rotation, error)
	MaxPosition(scheduleId string) (int, error)
	UpdatePosition(scheduleId, userId string, position int) error
	Deactivate(scheduleId, userId string) error
	ListActiveMembers(scheduleId string) ([]*model.Rotation, error)
}

type RotationRepo struct {
	Repo
}

func NewRotationRepo(c *ctx.Context, schema string) IRotationRepository {
	return &RotationRepo{Repo{Ctx: c, Schema: schema}}
}

// AddMember re-activates a previously removed member instead of inserting a
// duplicate row, so a user keeps a single rotation record per schedule.
func (r *RotationRepo) AddMember(scheduleId, userId string, position int) (*model.Rotation, error) {
	var existing model.Rotation
	err := r.table("t_rotation").
		Where("schedule_id = ? AND user_id = ?", scheduleId, userId).
		First(&existing).Error
	if err == nil {
		updates := map[string]interface{}{"position": position, "is_active": 1}
		if err = r.table("t_rotation").
			Where("schedule_id = ? AND user_id = ?", scheduleId, userId).
			Updates(updates).Error; err != nil {
			return nil, err
		}
		existing.Position = position
		existing.IsActive = 1
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	member := newRotationMember(scheduleId, userId, position)
	if err = r.table("t_rotation").Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// newRotationMember builds a fresh membership row. Every row carries its own
// rotation_id: it is the position tie-breaker, so it must never be empty.
func newRotationMember(scheduleId, userId string, position int) *model.Rotation {
	return &model.Rotation{
		RotationId: id.GetUUID(),
		ScheduleId: scheduleId,
		UserId:     userId,
		Position:   position,
		IsActive:   1,
	}
}

func (r *RotationRepo) MaxPosition(scheduleId string) (int, error) {
	var max *int
	err := r.table("t_rotation").
		Where("schedule_id = ? AND is_active = ?", scheduleId, 1).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *RotationRepo) UpdatePosition(scheduleId, userId string, position int) error {
	res := r.table("t_rotation").
		Where("schedule_id = ? AND user_id = ? AND is_active = ?", scheduleId, userId, 1).
		Update("position", position)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RotationRepo) Deactivate(scheduleId, userId string) error {
	res := r.table("t_rotation").
		Where("schedule_id = ? AND user_id = ? AND is_active = ?", scheduleId, userId, 1).
		Update("is_active", 0)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveMembers returns members in handoff order. Ties on position fall
// back to rotation_id so the order stays stable across reads.
func (r *RotationRepo) ListActiveMembers(scheduleId string) ([]*model.Rotation, error) {
	var members []*model.Rotation
	err := r.table("t_rotation").
		Where("schedule_id = ? AND is_active = ?", scheduleId, 1).
		Order("position ASC, rotation_id ASC").
		Find(&members).Error
	return members, err
}
