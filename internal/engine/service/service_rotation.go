package service

import (
	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/repo"
	"github.com/firelater/firelater/pkg/ctx"
)

/**
 * @file: service_rotation.go
 * @description: rotation membership management
 */

type RotationService struct {
	RotationRepo  repo.IRotationRepository
	ScheduleRepo  repo.IScheduleRepository
	DirectoryRepo repo.IDirectoryRepository
}

func NewRotationService(c *ctx.Context, schema string) *RotationService {
	return &RotationService{
		RotationRepo:  repo.NewRotationRepo(c, schema),
		ScheduleRepo:  repo.NewScheduleRepo(c, schema),
		DirectoryRepo: repo.NewDirectoryRepo(c, schema),
	}
}

// AddMember appends the user at the end of the rotation unless an explicit
// position is given.
func (s *RotationService) AddMember(scheduleId string, req *model.AddRotationMemberReq) (*model.Rotation, error) {
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

	position := 0
	if req.Position != nil {
		position = *req.Position
	} else {
		members, err := s.RotationRepo.ListActiveMembers(scheduleId)
		if err != nil {
			return nil, err
		}
		if len(members) > 0 {
			max, err := s.RotationRepo.MaxPosition(scheduleId)
			if err != nil {
				return nil, err
			}
			position = max + 1
		}
	}
	return s.RotationRepo.AddMember(scheduleId, req.UserId, position)
}

// RemoveMember soft-removes: the row stays for shift history, future
// planning skips the user. Already generated shifts are untouched.
func (s *RotationService) RemoveMember(scheduleId, userId string) error {
	return s.RotationRepo.Deactivate(scheduleId, userId)
}

// Reorder moves one member to a new position. Other members are not
// renumbered; ties resolve by rotation_id, so the order stays deterministic.
func (s *RotationService) Reorder(scheduleId, userId string, req *model.ReorderRotationReq) error {
	return s.RotationRepo.UpdatePosition(scheduleId, userId, req.NewPosition)
}

func (s *RotationService) ListMembers(scheduleId string) ([]*model.Rotation, error) {
	return s.RotationRepo.ListActiveMembers(scheduleId)
}
