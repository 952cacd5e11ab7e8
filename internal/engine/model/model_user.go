package model

// User directory row, consumed read-only by the engine for resolution,
// contact info and calendar text. Owned by the directory service.
type User struct {
	BaseModel
	UserId   string `gorm:"column:user_id" json:"userId"`
	Username string `gorm:"column:username" json:"username"`
	Email    string `gorm:"column:email" json:"email"`
	Phone    string `gorm:"column:phone" json:"phone"`
	IsActive int    `gorm:"column:is_active" json:"isActive"`
}

func (User) TableName() string {
	return "t_user"
}

// UserGroup group membership row, consumed read-only for group targets.
type UserGroup struct {
	BaseModel
	GroupId string `gorm:"column:group_id" json:"groupId"`
	UserId  string `gorm:"column:user_id" json:"userId"`
}

func (UserGroup) TableName() string {
	return "t_user_group"
}
