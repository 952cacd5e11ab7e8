package model

import (
	"time"

	"gorm.io/datatypes"
)

// EscalationPolicy named escalation chain
type EscalationPolicy struct {
	BaseModel
	PolicyId           string `gorm:"column:policy_id" json:"policyId"`
	Name               string `gorm:"column:name" json:"name"`
	Description        string `gorm:"column:description" json:"description"`
	RepeatCount        int    `gorm:"column:repeat_count" json:"repeatCount"`               // full-sequence replays when unacknowledged
	RepeatDelayMinutes int    `gorm:"column:repeat_delay_minutes" json:"repeatDelayMinutes"` // pause between replays
	IsDefault          int    `gorm:"column:is_default" json:"isDefault"`                   // at most one per tenant
}

func (EscalationPolicy) TableName() string {
	return "t_escalation_policy"
}

// EscalationStep ordered member of a policy. Exactly one of
// ScheduleId/UserId/GroupId is populated, consistent with NotifyType.
type EscalationStep struct {
	BaseModel
	StepId       string         `gorm:"column:step_id" json:"stepId"`
	PolicyId     string         `gorm:"column:policy_id" json:"policyId"`
	StepNumber   int            `gorm:"column:step_number" json:"stepNumber"` // sort order authoritative, gaps allowed
	DelayMinutes int            `gorm:"column:delay_minutes" json:"delayMinutes"`
	NotifyType   string         `gorm:"column:notify_type" json:"notifyType"` // schedule, user, group
	ScheduleId   string         `gorm:"column:schedule_id" json:"scheduleId"`
	UserId       string         `gorm:"column:user_id" json:"userId"`
	GroupId      string         `gorm:"column:group_id" json:"groupId"`
	Channels     datatypes.JSON `gorm:"column:channels;type:json" json:"channels"` // e.g. ["email","sms"]
}

func (EscalationStep) TableName() string {
	return "t_escalation_step"
}

// NotifyType values
const (
	NotifySchedule = "schedule"
	NotifyUser     = "user"
	NotifyGroup    = "group"
)

// StepTarget is the resolved variant of a step's polymorphic target,
// constructed at read time.
type StepTarget struct {
	Type       string
	ScheduleId string
	UserId     string
	GroupId    string
}

// Target builds the tagged variant for the step.
func (s *EscalationStep) Target() StepTarget {
	t := StepTarget{Type: s.NotifyType}
	switch s.NotifyType {
	case NotifySchedule:
		t.ScheduleId = s.ScheduleId
	case NotifyUser:
		t.UserId = s.UserId
	case NotifyGroup:
		t.GroupId = s.GroupId
	}
	return t
}

// EscalationRun one live instantiation of a policy, persisted so
// in-progress runs survive a restart.
type EscalationRun struct {
	BaseModel
	RunId       string     `gorm:"column:run_id" json:"runId"`
	PolicyId    string     `gorm:"column:policy_id" json:"policyId"`
	IncidentRef string     `gorm:"column:incident_ref" json:"incidentRef"`
	State       string     `gorm:"column:state" json:"state"`
	CurrentStep int        `gorm:"column:current_step" json:"currentStep"` // index into the sorted step list
	ReplaysDone int        `gorm:"column:replays_done" json:"replaysDone"`
	NextFireAt  *time.Time `gorm:"column:next_fire_at" json:"nextFireAt"`
}

func (EscalationRun) TableName() string {
	return "t_escalation_run"
}

// CreateEscalationPolicyReq create policy request
type CreateEscalationPolicyReq struct {
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	RepeatCount        int    `json:"repeatCount"`
	RepeatDelayMinutes int    `json:"repeatDelayMinutes"`
	IsDefault          bool   `json:"isDefault"`
}

// CreateEscalationStepReq create step request
type CreateEscalationStepReq struct {
	StepNumber   int      `json:"stepNumber" binding:"required"`
	DelayMinutes int      `json:"delayMinutes"`
	NotifyType   string   `json:"notifyType" binding:"required"`
	ScheduleId   string   `json:"scheduleId"`
	UserId       string   `json:"userId"`
	GroupId      string   `json:"groupId"`
	Channels     []string `json:"channels"`
}

// TriggerEscalationReq trigger request
type TriggerEscalationReq struct {
	IncidentRef string `json:"incidentRef" binding:"required"`
}
