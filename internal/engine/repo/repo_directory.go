package repo

import (
	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/pkg/ctx"
)

type IDirectoryRepository interface {
	GetUserById(userId string) (*model.User, error)
	ListUsersByIds(userIds []string) ([]*model.User, error)
	GetGroupMemberIds(groupId string) ([]string, error)
	CheckUserExists(userId string) (bool, error)
}

// DirectoryRepo read-only view of the user directory tables.
type DirectoryRepo struct {
	Repo
}

func NewDirectoryRepo(c *ctx.Context, schema string) IDirectoryRepository {
	return &DirectoryRepo{Repo{Ctx: c, Schema: schema}}
}

func (r *DirectoryRepo) GetUserById(userId string) (*model.User, error) {
	var u model.User
	err := r.table("t_user").Where("user_id = ?", userId).First(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *DirectoryRepo) ListUsersByIds(userIds []string) ([]*model.User, error) {
	if len(userIds) == 0 {
		return nil, nil
	}
	var users []*model.User
	err := r.table("t_user").Where("user_id IN ?", userIds).Find(&users).Error
	return users, err
}

func (r *DirectoryRepo) GetGroupMemberIds(groupId string) ([]string, error) {
	var ids []string
	err := r.table("t_user_group").Where("group_id = ?", groupId).Pluck("user_id", &ids).Error
	return ids, err
}

func (r *DirectoryRepo) CheckUserExists(userId string) (bool, error) {
	var count int64
	err := r.table("t_user").Where("user_id = ? AND is_active = ?", userId, 1).Count(&count).Error
	return count > 0, err
}
