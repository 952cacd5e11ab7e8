package repo

import (
	"time"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/pkg/ctx"
	"github.com/firelater/firelater/pkg/statemachine"
	"gorm.io/gorm"
)

type IEscalationRepository interface {
	CreatePolicy(p *model.EscalationPolicy) error
	GetPolicyById(policyId string) (*model.EscalationPolicy, error)
	GetDefaultPolicy() (*model.EscalationPolicy, error)
	ListPolicies() ([]*model.EscalationPolicy, error)
	SetDefaultPolicy(policyId string) error
	DeletePolicy(policyId string) error

	CreateStep(s *model.EscalationStep) error
	ListSteps(policyId string) ([]*model.EscalationStep, error)
	DeleteStep(stepId string) error

	CreateRun(run *model.EscalationRun) error
	GetRunById(runId string) (*model.EscalationRun, error)
	UpdateRun(runId string, updates map[string]interface{}) error
	ListActiveRuns() ([]*model.EscalationRun, error)
}

type EscalationRepo struct {
	Repo
}

func NewEscalationRepo(c *ctx.Context, schema string) IEscalationRepository {
	return &EscalationRepo{Repo{Ctx: c, Schema: schema}}
}

func (r *EscalationRepo) CreatePolicy(p *model.EscalationPolicy) error {
	return r.table("t_escalation_policy").Create(p).Error
}

func (r *EscalationRepo) GetPolicyById(policyId string) (*model.EscalationPolicy, error) {
	var p model.EscalationPolicy
	err := r.table("t_escalation_policy").Where("policy_id = ?", policyId).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *EscalationRepo) GetDefaultPolicy() (*model.EscalationPolicy, error) {
	var p model.EscalationPolicy
	err := r.table("t_escalation_policy").Where("is_default = ?", 1).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *EscalationRepo) ListPolicies() ([]*model.EscalationPolicy, error) {
	var policies []*model.EscalationPolicy
	err := r.table("t_escalation_policy").Order("name ASC").Find(&policies).Error
	return policies, err
}

// SetDefaultPolicy clears the previous default and marks the given policy in
// one transaction, keeping at most one default per tenant.
func (r *EscalationRepo) SetDefaultPolicy(policyId string) error {
	return r.db().Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(r.qualified("t_escalation_policy")).
			Where("is_default = ?", 1).
			Update("is_default", 0).Error; err != nil {
			return err
		}
		res := tx.Table(r.qualified("t_escalation_policy")).
			Where("policy_id = ?", policyId).
			Update("is_default", 1)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *EscalationRepo) DeletePolicy(policyId string) error {
	return r.db().Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(r.qualified("t_escalation_step")).
			Where("policy_id = ?", policyId).
			Delete(&model.EscalationStep{}).Error; err != nil {
			return err
		}
		res := tx.Table(r.qualified("t_escalation_policy")).
			Where("policy_id = ?", policyId).
			Delete(&model.EscalationPolicy{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *EscalationRepo) CreateStep(s *model.EscalationStep) error {
	return r.table("t_escalation_step").Create(s).Error
}

// ListSteps returns the policy's steps sorted by step_number. Gaps in the
// numbering are fine, only the sort order matters.
func (r *EscalationRepo) ListSteps(policyId string) ([]*model.EscalationStep, error) {
	var steps []*model.EscalationStep
	err := r.table("t_escalation_step").
		Where("policy_id = ?", policyId).
		Order("step_number ASC, step_id ASC").
		Find(&steps).Error
	return steps, err
}

func (r *EscalationRepo) DeleteStep(stepId string) error {
	res := r.table("t_escalation_step").Where("step_id = ?", stepId).Delete(&model.EscalationStep{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EscalationRepo) CreateRun(run *model.EscalationRun) error {
	return r.table("t_escalation_run").Create(run).Error
}

func (r *EscalationRepo) GetRunById(runId string) (*model.EscalationRun, error) {
	var run model.EscalationRun
	err := r.table("t_escalation_run").Where("run_id = ?", runId).First(&run).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}

// UpdateRun refuses to touch a run that already reached a terminal state,
// so a late runner write can never overwrite an acknowledgment.
func (r *EscalationRepo) UpdateRun(runId string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	res := r.table("t_escalation_run").
		Where("run_id = ? AND state NOT IN ?", runId,
			[]string{string(statemachine.RunAcked), string(statemachine.RunExhausted)}).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveRuns returns every run in a non-terminal state; the engine
// resumes these after a restart.
func (r *EscalationRepo) ListActiveRuns() ([]*model.EscalationRun, error) {
	states := make([]string, 0, len(statemachine.ActiveRunStates))
	for _, s := range statemachine.ActiveRunStates {
		states = append(states, string(s))
	}
	var runs []*model.EscalationRun
	err := r.table("t_escalation_run").
		Where("state IN ?", states).
		Find(&runs).Error
	return runs, err
}
