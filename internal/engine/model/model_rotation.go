package model

// Rotation ordered membership of a user in a schedule's on-call pool.
// Members are soft-removed: is_active flips to 0, the row stays for
// shift history joins.
type Rotation struct {
	BaseModel
	RotationId string `gorm:"column:rotation_id" json:"rotationId"`
	ScheduleId string `gorm:"column:schedule_id" json:"scheduleId"`
	UserId     string `gorm:"column:user_id" json:"userId"`
	Position   int    `gorm:"column:position" json:"position"` // 0-based order in the rotation
	IsActive   int    `gorm:"column:is_active" json:"isActive"`
}

func (Rotation) TableName() string {
	return "t_rotation"
}

// AddRotationMemberReq add member request; Position nil means append at the end
type AddRotationMemberReq struct {
	UserId   string `json:"userId" binding:"required"`
	Position *int   `json:"position,omitempty"`
}

// ReorderRotationReq move a single member to a new position
type ReorderRotationReq struct {
	NewPosition int `json:"newPosition"`
}
