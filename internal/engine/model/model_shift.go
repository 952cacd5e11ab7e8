package model

import "time"

// Shift concrete time-boxed on-call assignment
type Shift struct {
	BaseModel
	ShiftId        string    `gorm:"column:shift_id" json:"shiftId"`
	ScheduleId     string    `gorm:"column:schedule_id" json:"scheduleId"`
	UserId         string    `gorm:"column:user_id" json:"userId"`
	StartTime      time.Time `gorm:"column:start_time" json:"startTime"`
	EndTime        time.Time `gorm:"column:end_time" json:"endTime"`
	ShiftType      string    `gorm:"column:shift_type" json:"shiftType"` // primary, secondary, override
	Layer          int       `gorm:"column:layer" json:"layer"`          // parallel on-call track, 1 for primary/override
	OriginalUserId string    `gorm:"column:original_user_id" json:"originalUserId"` // override only
	Reason         string    `gorm:"column:reason" json:"reason"`                   // override only
}

func (Shift) TableName() string {
	return "t_shift"
}

// ShiftType values
const (
	ShiftTypePrimary   = "primary"
	ShiftTypeSecondary = "secondary"
	ShiftTypeOverride  = "override"
)

// DefaultLayer is the track primary and override shifts occupy.
const DefaultLayer = 1

// CreateShiftReq create shift request
type CreateShiftReq struct {
	UserId    string    `json:"userId" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
	ShiftType string    `json:"shiftType"`
	Layer     int       `json:"layer"`
}

// CreateOverrideReq create override request
type CreateOverrideReq struct {
	UserId         string    `json:"userId" binding:"required"`
	OriginalUserId string    `json:"originalUserId"`
	StartTime      time.Time `json:"startTime" binding:"required"`
	EndTime        time.Time `json:"endTime" binding:"required"`
	Reason         string    `json:"reason"`
}

// OnCallResp one currently-active assignment joined with its user
type OnCallResp struct {
	ScheduleId   string    `gorm:"column:schedule_id" json:"scheduleId"`
	ScheduleName string    `gorm:"column:schedule_name" json:"scheduleName"`
	ShiftId      string    `gorm:"column:shift_id" json:"shiftId"`
	UserId       string    `gorm:"column:user_id" json:"userId"`
	Username     string    `gorm:"column:username" json:"username"`
	Email        string    `gorm:"column:email" json:"email"`
	ShiftType    string    `gorm:"column:shift_type" json:"shiftType"`
	Layer        int       `gorm:"column:layer" json:"layer"`
	StartTime    time.Time `gorm:"column:start_time" json:"startTime"`
	EndTime      time.Time `gorm:"column:end_time" json:"endTime"`
}
