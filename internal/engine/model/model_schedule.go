package model

// Schedule on-call rotation configuration
type Schedule struct {
	BaseModel
	ScheduleId     string `gorm:"column:schedule_id" json:"scheduleId"`          // schedule unique identifier
	Name           string `gorm:"column:name" json:"name"`                       // schedule name
	Description    string `gorm:"column:description" json:"description"`         // schedule description
	Timezone       string `gorm:"column:timezone" json:"timezone"`               // IANA timezone name
	RotationType   string `gorm:"column:rotation_type" json:"rotationType"`      // daily, weekly, bi_weekly, custom
	RotationLength int    `gorm:"column:rotation_length" json:"rotationLength"`  // length in cadence units (custom: days)
	HandoffTime    string `gorm:"column:handoff_time" json:"handoffTime"`        // time of day "HH:MM"
	HandoffDay     int    `gorm:"column:handoff_day" json:"handoffDay"`          // 0=Sunday .. 6=Saturday, weekly cadences
	TeamId         string `gorm:"column:team_id" json:"teamId"`                  // optional owning group
	IsActive       int    `gorm:"column:is_active" json:"isActive"`              // 0: inactive, 1: active
}

func (Schedule) TableName() string {
	return "t_schedule"
}

// RotationType values
const (
	RotationDaily    = "daily"
	RotationWeekly   = "weekly"
	RotationBiWeekly = "bi_weekly"
	RotationCustom   = "custom"
)

// ScheduleApplication schedule to application link (pure many-to-many)
type ScheduleApplication struct {
	BaseModel
	ScheduleId    string `gorm:"column:schedule_id" json:"scheduleId"`
	ApplicationId string `gorm:"column:application_id" json:"applicationId"`
}

func (ScheduleApplication) TableName() string {
	return "t_schedule_application"
}

// CreateScheduleReq create schedule request
type CreateScheduleReq struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	Timezone       string `json:"timezone"`
	RotationType   string `json:"rotationType" binding:"required"`
	RotationLength int    `json:"rotationLength"`
	HandoffTime    string `json:"handoffTime"`
	HandoffDay     int    `json:"handoffDay"`
	TeamId         string `json:"teamId"`
}

// UpdateScheduleReq update schedule request
type UpdateScheduleReq struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	Timezone       *string `json:"timezone,omitempty"`
	RotationType   *string `json:"rotationType,omitempty"`
	RotationLength *int    `json:"rotationLength,omitempty"`
	HandoffTime    *string `json:"handoffTime,omitempty"`
	HandoffDay     *int    `json:"handoffDay,omitempty"`
	IsActive       *int    `json:"isActive,omitempty"`
}
