package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/repo"
)

// in-memory repositories backing the service tests

type fakeScheduleRepo struct {
	schedules map[string]*model.Schedule
	links     map[string][]string // applicationId -> scheduleIds
}

func newFakeScheduleRepo(schedules ...*model.Schedule) *fakeScheduleRepo {
	r := &fakeScheduleRepo{
		schedules: map[string]*model.Schedule{},
		links:     map[string][]string{},
	}
	for _, s := range schedules {
		r.schedules[s.ScheduleId] = s
	}
	return r
}

func (r *fakeScheduleRepo) CreateSchedule(s *model.Schedule) error {
	r.schedules[s.ScheduleId] = s
	return nil
}

func (r *fakeScheduleRepo) UpdateSchedule(scheduleId string, updates map[string]interface{}) error {
	if _, ok := r.schedules[scheduleId]; !ok {
		return repo.ErrNotFound
	}
	if name, ok := updates["name"].(string); ok {
		r.schedules[scheduleId].Name = name
	}
	return nil
}

func (r *fakeScheduleRepo) DeleteSchedule(scheduleId string) error {
	if _, ok := r.schedules[scheduleId]; !ok {
		return repo.ErrNotFound
	}
	delete(r.schedules, scheduleId)
	return nil
}

func (r *fakeScheduleRepo) GetScheduleById(scheduleId string) (*model.Schedule, error) {
	s, ok := r.schedules[scheduleId]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return s, nil
}

func (r *fakeScheduleRepo) ListSchedules() ([]*model.Schedule, error) {
	var out []*model.Schedule
	for _, s := range r.schedules {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeScheduleRepo) ListActiveSchedules() ([]*model.Schedule, error) {
	var out []*model.Schedule
	for _, s := range r.schedules {
		if s.IsActive == 1 {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) CheckScheduleExists(scheduleId string) (bool, error) {
	_, ok := r.schedules[scheduleId]
	return ok, nil
}

func (r *fakeScheduleRepo) LinkApplication(scheduleId, applicationId string) error {
	r.links[applicationId] = append(r.links[applicationId], scheduleId)
	return nil
}

func (r *fakeScheduleRepo) UnlinkApplication(scheduleId, applicationId string) error {
	var kept []string
	for _, id := range r.links[applicationId] {
		if id != scheduleId {
			kept = append(kept, id)
		}
	}
	r.links[applicationId] = kept
	return nil
}

func (r *fakeScheduleRepo) GetScheduleIdsByApplication(applicationId string) ([]string, error) {
	return r.links[applicationId], nil
}

type fakeShiftRepo struct {
	mu        sync.Mutex
	shifts    []*model.Shift
	schedules map[string]*model.Schedule
	users     map[string]*model.User
}

func newFakeShiftRepo(schedules *fakeScheduleRepo, users map[string]*model.User) *fakeShiftRepo {
	return &fakeShiftRepo{schedules: schedules.schedules, users: users}
}

func (r *fakeShiftRepo) CreateShift(s *model.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shifts = append(r.shifts, s)
	return nil
}

func (r *fakeShiftRepo) GetShiftById(shiftId string) (*model.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shifts {
		if s.ShiftId == shiftId {
			return s, nil
		}
	}
	return nil, repo.ErrNotFound
}

// GetActiveShifts mirrors the sql query: primary and override rows only,
// overrides first, then layer ascending, then latest start first.
func (r *fakeShiftRepo) GetActiveShifts(scheduleId string, at time.Time) ([]*model.OnCallResp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []*model.OnCallResp
	for _, s := range r.shifts {
		if s.ScheduleId != scheduleId {
			continue
		}
		if s.ShiftType != model.ShiftTypePrimary && s.ShiftType != model.ShiftTypeOverride {
			continue
		}
		if s.StartTime.After(at) || !s.EndTime.After(at) {
			continue
		}
		row := &model.OnCallResp{
			ScheduleId: s.ScheduleId,
			ShiftId:    s.ShiftId,
			UserId:     s.UserId,
			ShiftType:  s.ShiftType,
			Layer:      s.Layer,
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
		}
		if sched, ok := r.schedules[s.ScheduleId]; ok {
			row.ScheduleName = sched.Name
		}
		if u, ok := r.users[s.UserId]; ok {
			row.Username = u.Username
			row.Email = u.Email
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		oi, oj := rows[i].ShiftType == model.ShiftTypeOverride, rows[j].ShiftType == model.ShiftTypeOverride
		if oi != oj {
			return oi
		}
		if rows[i].Layer != rows[j].Layer {
			return rows[i].Layer < rows[j].Layer
		}
		return rows[i].StartTime.After(rows[j].StartTime)
	})
	return rows, nil
}

func (r *fakeShiftRepo) GetShiftsInWindow(scheduleId string, from, to time.Time) ([]*model.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Shift
	for _, s := range r.shifts {
		if s.ScheduleId == scheduleId && s.EndTime.After(from) && s.StartTime.Before(to) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeShiftRepo) GetLastShiftEnd(scheduleId string) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *time.Time
	for _, s := range r.shifts {
		if s.ScheduleId != scheduleId || s.ShiftType != model.ShiftTypePrimary {
			continue
		}
		if last == nil || s.EndTime.After(*last) {
			end := s.EndTime
			last = &end
		}
	}
	return last, nil
}

func (r *fakeShiftRepo) DeleteShift(shiftId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.shifts {
		if s.ShiftId == shiftId {
			r.shifts = append(r.shifts[:i], r.shifts[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

type fakeDirectoryRepo struct {
	users  map[string]*model.User
	groups map[string][]string
}

func newFakeDirectoryRepo(users ...*model.User) *fakeDirectoryRepo {
	r := &fakeDirectoryRepo{users: map[string]*model.User{}, groups: map[string][]string{}}
	for _, u := range users {
		r.users[u.UserId] = u
	}
	return r
}

func (r *fakeDirectoryRepo) GetUserById(userId string) (*model.User, error) {
	u, ok := r.users[userId]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

func (r *fakeDirectoryRepo) ListUsersByIds(userIds []string) ([]*model.User, error) {
	var out []*model.User
	for _, id := range userIds {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeDirectoryRepo) GetGroupMemberIds(groupId string) ([]string, error) {
	return r.groups[groupId], nil
}

func (r *fakeDirectoryRepo) CheckUserExists(userId string) (bool, error) {
	u, ok := r.users[userId]
	return ok && u.IsActive == 1, nil
}

type fakeRotationRepo struct {
	members map[string][]*model.Rotation // scheduleId -> members
}

func newFakeRotationRepo() *fakeRotationRepo {
	return &fakeRotationRepo{members: map[string][]*model.Rotation{}}
}

func (r *fakeRotationRepo) AddMember(scheduleId, userId string, position int) (*model.Rotation, error) {
	for _, m := range r.members[scheduleId] {
		if m.UserId == userId {
			m.Position = position
			m.IsActive = 1
			return m, nil
		}
	}
	m := &model.Rotation{
		RotationId: userId + "-rot",
		ScheduleId: scheduleId,
		UserId:     userId,
		Position:   position,
		IsActive:   1,
	}
	r.members[scheduleId] = append(r.members[scheduleId], m)
	return m, nil
}

func (r *fakeRotationRepo) MaxPosition(scheduleId string) (int, error) {
	max := 0
	for _, m := range r.members[scheduleId] {
		if m.IsActive == 1 && m.Position > max {
			max = m.Position
		}
	}
	return max, nil
}

func (r *fakeRotationRepo) UpdatePosition(scheduleId, userId string, position int) error {
	for _, m := range r.members[scheduleId] {
		if m.UserId == userId && m.IsActive == 1 {
			m.Position = position
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *fakeRotationRepo) Deactivate(scheduleId, userId string) error {
	for _, m := range r.members[scheduleId] {
		if m.UserId == userId && m.IsActive == 1 {
			m.IsActive = 0
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *fakeRotationRepo) ListActiveMembers(scheduleId string) ([]*model.Rotation, error) {
	var out []*model.Rotation
	for _, m := range r.members[scheduleId] {
		if m.IsActive == 1 {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].RotationId < out[j].RotationId
	})
	return out, nil
}

type fakeEscalationRepo struct {
	mu       sync.Mutex
	policies map[string]*model.EscalationPolicy
	steps    map[string][]*model.EscalationStep
	runs     map[string]*model.EscalationRun
}

func newFakeEscalationRepo() *fakeEscalationRepo {
	return &fakeEscalationRepo{
		policies: map[string]*model.EscalationPolicy{},
		steps:    map[string][]*model.EscalationStep{},
		runs:     map[string]*model.EscalationRun{},
	}
}

func (r *fakeEscalationRepo) CreatePolicy(p *model.EscalationPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.PolicyId] = p
	return nil
}

func (r *fakeEscalationRepo) GetPolicyById(policyId string) (*model.EscalationPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.policies[policyId]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return p, nil
}

func (r *fakeEscalationRepo) GetDefaultPolicy() (*model.EscalationPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.policies {
		if p.IsDefault == 1 {
			return p, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeEscalationRepo) ListPolicies() ([]*model.EscalationPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.EscalationPolicy
	for _, p := range r.policies {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeEscalationRepo) SetDefaultPolicy(policyId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.policies[policyId]; !ok {
		return repo.ErrNotFound
	}
	for _, p := range r.policies {
		p.IsDefault = 0
	}
	r.policies[policyId].IsDefault = 1
	return nil
}

func (r *fakeEscalationRepo) DeletePolicy(policyId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.policies[policyId]; !ok {
		return repo.ErrNotFound
	}
	delete(r.policies, policyId)
	delete(r.steps, policyId)
	return nil
}

func (r *fakeEscalationRepo) CreateStep(s *model.EscalationStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[s.PolicyId] = append(r.steps[s.PolicyId], s)
	return nil
}

func (r *fakeEscalationRepo) ListSteps(policyId string) ([]*model.EscalationStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]*model.EscalationStep{}, r.steps[policyId]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out, nil
}

func (r *fakeEscalationRepo) DeleteStep(stepId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for policyId, steps := range r.steps {
		for i, s := range steps {
			if s.StepId == stepId {
				r.steps[policyId] = append(steps[:i], steps[i+1:]...)
				return nil
			}
		}
	}
	return repo.ErrNotFound
}

func (r *fakeEscalationRepo) CreateRun(run *model.EscalationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *run
	r.runs[run.RunId] = &cp
	return nil
}

func (r *fakeEscalationRepo) GetRunById(runId string) (*model.EscalationRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runId]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (r *fakeEscalationRepo) UpdateRun(runId string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runId]
	if !ok {
		return repo.ErrNotFound
	}
	if run.State == "ACKED" || run.State == "EXHAUSTED" {
		return repo.ErrNotFound
	}
	if v, ok := updates["state"].(string); ok {
		run.State = v
	}
	if v, ok := updates["current_step"].(int); ok {
		run.CurrentStep = v
	}
	if v, ok := updates["replays_done"].(int); ok {
		run.ReplaysDone = v
	}
	if v, ok := updates["next_fire_at"]; ok {
		if t, ok := v.(time.Time); ok {
			run.NextFireAt = &t
		} else {
			run.NextFireAt = nil
		}
	}
	return nil
}

func (r *fakeEscalationRepo) ListActiveRuns() ([]*model.EscalationRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.EscalationRun
	for _, run := range r.runs {
		if run.State != "ACKED" && run.State != "EXHAUSTED" {
			cp := *run
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeSubscriptionRepo struct {
	subs map[string]*model.CalendarSubscription // token -> sub
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: map[string]*model.CalendarSubscription{}}
}

func (r *fakeSubscriptionRepo) Upsert(sub *model.CalendarSubscription) error {
	for token, existing := range r.subs {
		if existing.ScheduleId == sub.ScheduleId &&
			existing.UserId == sub.UserId &&
			existing.FilterUserId == sub.FilterUserId {
			delete(r.subs, token)
		}
	}
	r.subs[sub.Token] = sub
	return nil
}

func (r *fakeSubscriptionRepo) GetByToken(token string) (*model.CalendarSubscription, error) {
	sub, ok := r.subs[token]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return sub, nil
}

func (r *fakeSubscriptionRepo) ListByUser(userId string) ([]*model.CalendarSubscription, error) {
	var out []*model.CalendarSubscription
	for _, sub := range r.subs {
		if sub.UserId == userId {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) TouchLastAccessed(token string) error {
	sub, ok := r.subs[token]
	if !ok {
		return nil
	}
	now := time.Now()
	sub.LastAccessedAt = &now
	return nil
}

func (r *fakeSubscriptionRepo) DeleteByKey(scheduleId, userId, filterUserId string) error {
	for token, sub := range r.subs {
		if sub.ScheduleId == scheduleId && sub.UserId == userId && sub.FilterUserId == filterUserId {
			delete(r.subs, token)
			return nil
		}
	}
	return repo.ErrNotFound
}

// fakeDispatcher records every notification and signals on a channel so
// tests can wait for fires without sleeping.
type fakeDispatcher struct {
	mu       sync.Mutex
	sent     []*Notification
	notifyCh chan *Notification
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{notifyCh: make(chan *Notification, 64)}
}

func (d *fakeDispatcher) Dispatch(_ context.Context, n *Notification) error {
	d.mu.Lock()
	d.sent = append(d.sent, n)
	d.mu.Unlock()
	d.notifyCh <- n
	return nil
}

func (d *fakeDispatcher) all() []*Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Notification{}, d.sent...)
}

// steps filters out exhaustion reports, leaving per-recipient step fires.
func (d *fakeDispatcher) steps() []*Notification {
	var out []*Notification
	for _, n := range d.all() {
		if n.Channel != ChannelExhausted {
			out = append(out, n)
		}
	}
	return out
}

func (d *fakeDispatcher) exhaustionReports() []*Notification {
	var out []*Notification
	for _, n := range d.all() {
		if n.Channel == ChannelExhausted {
			out = append(out, n)
		}
	}
	return out
}

func (d *fakeDispatcher) wait(t time.Duration) *Notification {
	select {
	case n := <-d.notifyCh:
		return n
	case <-time.After(t):
		return nil
	}
}
