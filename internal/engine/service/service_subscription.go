package service

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/repo"
	"github.com/firelater/firelater/pkg/ctx"
)

/**
 * @file: service_subscription.go
 * @description: calendar feed tokens
 */

const tokenBytes = 32

type SubscriptionService struct {
	SubscriptionRepo repo.ISubscriptionRepository
	ScheduleRepo     repo.IScheduleRepository
	ExternalBaseURL  string
}

func NewSubscriptionService(c *ctx.Context, schema, externalBaseURL string) *SubscriptionService {
	return &SubscriptionService{
		SubscriptionRepo: repo.NewSubscriptionRepo(c, schema),
		ScheduleRepo:     repo.NewScheduleRepo(c, schema),
		ExternalBaseURL:  externalBaseURL,
	}
}

// CreateToken issues a feed token for (schedule, user, filter). Re-issuing
// the same key replaces the token; the previous one stops validating.
func (s *SubscriptionService) CreateToken(scheduleId, userId string,
	req *model.CreateSubscriptionReq) (*model.SubscriptionResp, error) {
	exists, err := s.ScheduleRepo.CheckScheduleExists(scheduleId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repo.ErrNotFound
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	sub := &model.CalendarSubscription{
		ScheduleId:   scheduleId,
		UserId:       userId,
		FilterUserId: req.FilterUserId,
		Token:        token,
	}
	if err := s.SubscriptionRepo.Upsert(sub); err != nil {
		return nil, errors.Wrap(err, "store subscription")
	}

	return &model.SubscriptionResp{
		ScheduleId:   scheduleId,
		FilterUserId: req.FilterUserId,
		FeedURL:      s.FeedURL(scheduleId, token),
	}, nil
}

// Revoke deletes the subscription; the token stops resolving immediately.
func (s *SubscriptionService) Revoke(scheduleId, userId, filterUserId string) error {
	return s.SubscriptionRepo.DeleteByKey(scheduleId, userId, filterUserId)
}

func (s *SubscriptionService) ListMine(userId string) ([]*model.SubscriptionResp, error) {
	subs, err := s.SubscriptionRepo.ListByUser(userId)
	if err != nil {
		return nil, err
	}
	out := make([]*model.SubscriptionResp, 0, len(subs))
	for _, sub := range subs {
		out = append(out, &model.SubscriptionResp{
			ScheduleId:   sub.ScheduleId,
			FilterUserId: sub.FilterUserId,
			FeedURL:      s.FeedURL(sub.ScheduleId, sub.Token),
		})
	}
	return out, nil
}

// ValidateToken checks a token within this tenant and touches its
// last-accessed time. A token bound to a different schedule fails exactly
// like an unknown one, so callers cannot probe token validity.
func (s *SubscriptionService) ValidateToken(scheduleId, token string) (*model.TokenBinding, error) {
	sub, err := s.SubscriptionRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if sub.ScheduleId != scheduleId {
		return nil, repo.ErrNotFound
	}
	if err := s.SubscriptionRepo.TouchLastAccessed(token); err != nil {
		return nil, err
	}
	return &model.TokenBinding{
		ScheduleId:   sub.ScheduleId,
		UserId:       sub.UserId,
		FilterUserId: sub.FilterUserId,
	}, nil
}

func (s *SubscriptionService) FeedURL(scheduleId, token string) string {
	return s.ExternalBaseURL + "/api/v1/public/calendar/" + scheduleId + "/feed.ics?token=" + token
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "generate token")
	}
	return hex.EncodeToString(buf), nil
}
