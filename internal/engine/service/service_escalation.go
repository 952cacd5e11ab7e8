package service

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/repo"
	"github.com/firelater/firelater/pkg/ctx"
	"github.com/firelater/firelater/pkg/id"
	"github.com/firelater/firelater/pkg/log"
	"github.com/firelater/firelater/pkg/metrics"
	"github.com/firelater/firelater/pkg/safe"
	"github.com/firelater/firelater/pkg/statemachine"
)

/**
 * @file: service_escalation.go
 * @description: escalation policies and the run state machine
 */

// runRegistry tracks the cancel function of every in-flight run so an
// acknowledgment can interrupt its timer. Keyed on run id; run ids are
// globally unique ULIDs, so one process-wide registry serves all tenants.
type runRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

var activeRuns = &runRegistry{cancels: make(map[string]context.CancelFunc)}

func (r *runRegistry) add(runId string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[runId] = cancel
}

func (r *runRegistry) remove(runId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, runId)
}

func (r *runRegistry) cancel(runId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.cancels[runId]
	if ok {
		cancel()
		delete(r.cancels, runId)
	}
	return ok
}

type EscalationService struct {
	EscalationRepo repo.IEscalationRepository
	DirectoryRepo  repo.IDirectoryRepository
	OnCall         *OnCallService
	Dispatcher     IDispatcher
	TenantId       string

	// DelayUnit scales step delay_minutes; one minute in production,
	// shrunk in tests.
	DelayUnit time.Duration
}

func NewEscalationService(c *ctx.Context, schema, tenantId string,
	dispatcher IDispatcher, delayUnit time.Duration) *EscalationService {
	return &EscalationService{
		EscalationRepo: repo.NewEscalationRepo(c, schema),
		DirectoryRepo:  repo.NewDirectoryRepo(c, schema),
		OnCall:         NewOnCallService(c, schema),
		Dispatcher:     dispatcher,
		TenantId:       tenantId,
		DelayUnit:      delayUnit,
	}
}

func (s *EscalationService) CreatePolicy(req *model.CreateEscalationPolicyReq) (*model.EscalationPolicy, error) {
	if req.RepeatCount < 0 {
		return nil, errors.New("repeat count must not be negative")
	}
	if req.RepeatDelayMinutes < 0 {
		return nil, errors.New("repeat delay must not be negative")
	}
	policy := &model.EscalationPolicy{
		PolicyId:           id.GetUUID(),
		Name:               req.Name,
		Description:        req.Description,
		RepeatCount:        req.RepeatCount,
		RepeatDelayMinutes: req.RepeatDelayMinutes,
	}
	if err := s.EscalationRepo.CreatePolicy(policy); err != nil {
		return nil, errors.Wrap(err, "create policy")
	}
	if req.IsDefault {
		if err := s.EscalationRepo.SetDefaultPolicy(policy.PolicyId); err != nil {
			return nil, err
		}
		policy.IsDefault = 1
	}
	return policy, nil
}

func (s *EscalationService) GetPolicy(policyId string) (*model.EscalationPolicy, []*model.EscalationStep, error) {
	policy, err := s.EscalationRepo.GetPolicyById(policyId)
	if err != nil {
		return nil, nil, err
	}
	steps, err := s.EscalationRepo.ListSteps(policyId)
	if err != nil {
		return nil, nil, err
	}
	return policy, steps, nil
}

func (s *EscalationService) ListPolicies() ([]*model.EscalationPolicy, error) {
	return s.EscalationRepo.ListPolicies()
}

func (s *EscalationService) SetDefaultPolicy(policyId string) error {
	return s.EscalationRepo.SetDefaultPolicy(policyId)
}

func (s *EscalationService) DeletePolicy(policyId string) error {
	return s.EscalationRepo.DeletePolicy(policyId)
}

// AddStep validates the target invariant: exactly one of schedule, user or
// group, consistent with the notify type.
func (s *EscalationService) AddStep(policyId string, req *model.CreateEscalationStepReq) (*model.EscalationStep, error) {
	if _, err := s.EscalationRepo.GetPolicyById(policyId); err != nil {
		return nil, err
	}
	if err := validateStepTarget(req); err != nil {
		return nil, err
	}
	if req.DelayMinutes < 0 {
		return nil, errors.New("delay must not be negative")
	}

	var channels datatypes.JSON
	if len(req.Channels) > 0 {
		raw, err := sonic.Marshal(req.Channels)
		if err != nil {
			return nil, errors.Wrap(err, "encode channels")
		}
		channels = raw
	}

	step := &model.EscalationStep{
		StepId:       id.GetUUID(),
		PolicyId:     policyId,
		StepNumber:   req.StepNumber,
		DelayMinutes: req.DelayMinutes,
		NotifyType:   req.NotifyType,
		ScheduleId:   req.ScheduleId,
		UserId:       req.UserId,
		GroupId:      req.GroupId,
		Channels:     channels,
	}
	if err := s.EscalationRepo.CreateStep(step); err != nil {
		return nil, errors.Wrap(err, "create step")
	}
	return step, nil
}

func (s *EscalationService) DeleteStep(stepId string) error {
	return s.EscalationRepo.DeleteStep(stepId)
}

func validateStepTarget(req *model.CreateEscalationStepReq) error {
	set := 0
	if req.ScheduleId != "" {
		set++
	}
	if req.UserId != "" {
		set++
	}
	if req.GroupId != "" {
		set++
	}
	if set != 1 {
		return repo.ErrInvalidTarget
	}
	switch req.NotifyType {
	case model.NotifySchedule:
		if req.ScheduleId == "" {
			return repo.ErrInvalidTarget
		}
	case model.NotifyUser:
		if req.UserId == "" {
			return repo.ErrInvalidTarget
		}
	case model.NotifyGroup:
		if req.GroupId == "" {
			return repo.ErrInvalidTarget
		}
	default:
		return repo.ErrInvalidTarget
	}
	return nil
}

// Trigger starts a run of the policy for the incident and returns
// immediately; the run advances on its own goroutine.
func (s *EscalationService) Trigger(policyId string, req *model.TriggerEscalationReq) (*model.EscalationRun, error) {
	policy, steps, err := s.GetPolicy(policyId)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, errors.New("policy has no steps")
	}

	run := &model.EscalationRun{
		RunId:       id.GetULID(),
		PolicyId:    policy.PolicyId,
		IncidentRef: req.IncidentRef,
		State:       string(statemachine.RunPending),
		CurrentStep: 0,
		ReplaysDone: 0,
	}
	if err := s.EscalationRepo.CreateRun(run); err != nil {
		return nil, errors.Wrap(err, "create run")
	}

	s.startRunner(run, policy, steps)
	return run, nil
}

// Acknowledge stops the run. Any step already mid-dispatch may still go
// out, but no further step fires.
func (s *EscalationService) Acknowledge(runId string) (*model.EscalationRun, error) {
	run, err := s.EscalationRepo.GetRunById(runId)
	if err != nil {
		return nil, err
	}
	state := statemachine.RunState(run.State)
	if state.IsTerminal() {
		// acking an already-finished run is a no-op, not an error
		return run, nil
	}

	sm := statemachine.NewEscalationStateMachine(state)
	if err := sm.TransitTo(statemachine.RunAcked); err != nil {
		return nil, err
	}

	activeRuns.cancel(runId)
	err = s.EscalationRepo.UpdateRun(runId, map[string]interface{}{
		"state":        string(statemachine.RunAcked),
		"next_fire_at": nil,
	})
	if errors.Is(err, repo.ErrNotFound) {
		// the run finished while the ack was in flight
		return s.EscalationRepo.GetRunById(runId)
	}
	if err != nil {
		return nil, err
	}
	metrics.EscalationRunsTotal.WithLabelValues(string(statemachine.RunAcked)).Inc()

	run.State = string(statemachine.RunAcked)
	run.NextFireAt = nil
	return run, nil
}

func (s *EscalationService) GetRun(runId string) (*model.EscalationRun, error) {
	return s.EscalationRepo.GetRunById(runId)
}

// ResumeRuns restarts the runner for every non-terminal run found at boot.
// Elapsed wait time is honored through the persisted next_fire_at.
func (s *EscalationService) ResumeRuns() error {
	runs, err := s.EscalationRepo.ListActiveRuns()
	if err != nil {
		return err
	}
	for _, run := range runs {
		policy, steps, err := s.GetPolicy(run.PolicyId)
		if err != nil {
			log.Errorw("cannot resume run, policy load failed",
				"runId", run.RunId, "policyId", run.PolicyId, "err", err)
			continue
		}
		if len(steps) == 0 {
			log.Warnw("cannot resume run, policy has no steps", "runId", run.RunId)
			continue
		}
		log.Infow("resuming escalation run",
			"runId", run.RunId, "state", run.State, "currentStep", run.CurrentStep)
		s.startRunner(run, policy, steps)
	}
	return nil
}

func (s *EscalationService) startRunner(run *model.EscalationRun,
	policy *model.EscalationPolicy, steps []*model.EscalationStep) {
	runCtx, cancel := context.WithCancel(context.Background())
	activeRuns.add(run.RunId, cancel)
	safe.Go(func() {
		defer activeRuns.remove(run.RunId)
		s.runLoop(runCtx, run, policy, steps)
	})
}

// runLoop drives one escalation run to a terminal state. It is the only
// writer of the run row while active; Acknowledge only flips the state and
// cancels the context.
func (s *EscalationService) runLoop(runCtx context.Context, run *model.EscalationRun,
	policy *model.EscalationPolicy, steps []*model.EscalationStep) {
	sm := statemachine.NewEscalationStateMachine(statemachine.RunState(run.State))

	stepIdx := run.CurrentStep
	replays := run.ReplaysDone
	if stepIdx >= len(steps) {
		stepIdx = 0
	}

	for {
		if runCtx.Err() != nil {
			return
		}
		step := steps[stepIdx]

		// compute the wait; a resumed run keeps its original deadline,
		// whether it was waiting on a step or on a repeat pause
		var wait time.Duration
		now := time.Now()
		if run.NextFireAt != nil &&
			(sm.Is(statemachine.RunStepWaiting) || sm.Is(statemachine.RunRepeating)) {
			wait = run.NextFireAt.Sub(now)
			run.NextFireAt = nil
		} else {
			wait = time.Duration(step.DelayMinutes) * s.DelayUnit
		}
		fireAt := now.Add(wait)

		if !sm.Is(statemachine.RunStepWaiting) {
			if err := sm.TransitTo(statemachine.RunStepWaiting); err != nil {
				log.Errorw("run transition failed", "runId", run.RunId, "err", err)
				return
			}
		}
		s.persistRun(run.RunId, map[string]interface{}{
			"state":        string(statemachine.RunStepWaiting),
			"current_step": stepIdx,
			"replays_done": replays,
			"next_fire_at": fireAt,
		})

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-runCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		} else if runCtx.Err() != nil {
			return
		}

		s.fireStep(runCtx, run, step)

		if err := sm.TransitTo(statemachine.RunStepFired); err != nil {
			log.Errorw("run transition failed", "runId", run.RunId, "err", err)
			return
		}

		// an ack may have landed while the step was dispatching; the step
		// went out, nothing further does
		if runCtx.Err() != nil {
			return
		}

		stepIdx++
		if stepIdx < len(steps) {
			s.persistRun(run.RunId, map[string]interface{}{
				"state":        string(statemachine.RunStepFired),
				"current_step": stepIdx,
				"replays_done": replays,
			})
			continue
		}

		// sequence exhausted; replay or finish
		if replays < policy.RepeatCount {
			replays++
			stepIdx = 0
			if err := sm.TransitTo(statemachine.RunRepeating); err != nil {
				log.Errorw("run transition failed", "runId", run.RunId, "err", err)
				return
			}
			pause := time.Duration(policy.RepeatDelayMinutes) * s.DelayUnit
			fireAt := time.Now().Add(pause)
			s.persistRun(run.RunId, map[string]interface{}{
				"state":        string(statemachine.RunRepeating),
				"current_step": 0,
				"replays_done": replays,
				"next_fire_at": fireAt,
			})
			if pause > 0 {
				timer := time.NewTimer(pause)
				select {
				case <-runCtx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			} else if runCtx.Err() != nil {
				return
			}
			continue
		}

		if err := sm.TransitTo(statemachine.RunExhausted); err != nil {
			log.Errorw("run transition failed", "runId", run.RunId, "err", err)
			return
		}
		s.persistRun(run.RunId, map[string]interface{}{
			"state":        string(statemachine.RunExhausted),
			"next_fire_at": nil,
		})
		metrics.EscalationRunsTotal.WithLabelValues(string(statemachine.RunExhausted)).Inc()
		log.Warnw("escalation run exhausted",
			"runId", run.RunId, "incidentRef", run.IncidentRef)
		// the collaborator must learn the chain ran dry, it is never
		// silently dropped
		report := &Notification{
			TenantId:    s.TenantId,
			RunId:       run.RunId,
			IncidentRef: run.IncidentRef,
			Channel:     ChannelExhausted,
			FiredAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.Dispatcher.Dispatch(runCtx, report); err != nil {
			log.Errorw("exhaustion report failed", "runId", run.RunId, "err", err)
		}
		return
	}
}

// fireStep resolves the step's target to users and hands each (user,
// channel) pair to the dispatcher. An empty resolution skips dispatch and
// the run moves on.
func (s *EscalationService) fireStep(runCtx context.Context, run *model.EscalationRun,
	step *model.EscalationStep) {
	users, err := s.resolveTarget(step)
	if err != nil {
		log.Errorw("step target resolution failed",
			"runId", run.RunId, "stepId", step.StepId, "err", err)
		return
	}
	metrics.EscalationStepsFiredTotal.WithLabelValues(step.NotifyType).Inc()
	if len(users) == 0 {
		log.Warnw("step resolved to nobody, skipping dispatch",
			"runId", run.RunId, "stepId", step.StepId, "notifyType", step.NotifyType)
		return
	}

	var channels []string
	if len(step.Channels) > 0 {
		if err := sonic.Unmarshal(step.Channels, &channels); err != nil {
			log.Errorw("step channels decode failed",
				"stepId", step.StepId, "err", err)
		}
	}

	for _, n := range buildNotifications(s.TenantId, run, step, users, channels, time.Now()) {
		if err := s.Dispatcher.Dispatch(runCtx, n); err != nil {
			log.Errorw("notification dispatch failed",
				"runId", run.RunId, "userId", n.UserId, "channel", n.Channel, "err", err)
		}
	}
}

func (s *EscalationService) resolveTarget(step *model.EscalationStep) ([]*model.User, error) {
	target := step.Target()
	switch target.Type {
	case model.NotifyUser:
		u, err := s.DirectoryRepo.GetUserById(target.UserId)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return []*model.User{u}, nil

	case model.NotifyGroup:
		ids, err := s.DirectoryRepo.GetGroupMemberIds(target.GroupId)
		if err != nil {
			return nil, err
		}
		return s.DirectoryRepo.ListUsersByIds(ids)

	case model.NotifySchedule:
		winners, err := s.OnCall.WhoIsOnCall(target.ScheduleId, time.Now())
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		ids := make([]string, 0, len(winners))
		for _, w := range winners {
			ids = append(ids, w.UserId)
		}
		return s.DirectoryRepo.ListUsersByIds(ids)
	}
	return nil, repo.ErrInvalidTarget
}

func (s *EscalationService) persistRun(runId string, updates map[string]interface{}) {
	err := s.EscalationRepo.UpdateRun(runId, updates)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		log.Errorw("run persist failed", "runId", runId, "err", err)
	}
}
