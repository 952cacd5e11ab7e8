package model

import "time"

// CalendarSubscription opaque token authorizing anonymous feed access.
// Keyed on (schedule_id, user_id, filter_user_id); re-issuing replaces
// the token.
type CalendarSubscription struct {
	BaseModel
	ScheduleId     string     `gorm:"column:schedule_id" json:"scheduleId"`
	UserId         string     `gorm:"column:user_id" json:"userId"`
	FilterUserId   string     `gorm:"column:filter_user_id" json:"filterUserId"` // empty: full schedule feed
	Token          string     `gorm:"column:token" json:"-"`
	LastAccessedAt *time.Time `gorm:"column:last_accessed_at" json:"lastAccessedAt"`
}

func (CalendarSubscription) TableName() string {
	return "t_calendar_subscription"
}

// CreateSubscriptionReq create token request
type CreateSubscriptionReq struct {
	FilterUserId string `json:"filterUserId"`
}

// SubscriptionResp returned to the caller with the ready-to-use feed url
type SubscriptionResp struct {
	ScheduleId   string `json:"scheduleId"`
	FilterUserId string `json:"filterUserId,omitempty"`
	FeedURL      string `json:"feedUrl"`
}

// TokenBinding what a validated token resolves to
type TokenBinding struct {
	TenantId     string `json:"tenantId,omitempty"` // set by the public lookup only
	ScheduleId   string `json:"scheduleId"`
	UserId       string `json:"userId"`
	FilterUserId string `json:"filterUserId,omitempty"`
}
