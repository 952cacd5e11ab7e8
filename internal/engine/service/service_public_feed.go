package service

import (
	"time"

	"github.com/firelater/firelater/internal/engine/repo"
	"github.com/firelater/firelater/pkg/cache"
	"github.com/firelater/firelater/pkg/ctx"
)

/**
 * @file: service_public_feed.go
 * @description: anonymous feed access across tenants
 */

// PublicFeedService serves the unauthenticated calendar endpoint. The
// token carries no tenant hint, so resolution fans out across every
// active tenant schema in one query.
type PublicFeedService struct {
	Ctx        *ctx.Context
	TenantRepo repo.ITenantRepository
}

func NewPublicFeedService(c *ctx.Context, controlSchema string, cc cache.ICache) *PublicFeedService {
	return &PublicFeedService{
		Ctx:        c,
		TenantRepo: repo.NewTenantRepo(c, controlSchema, cc),
	}
}

// RenderByToken resolves the token to its tenant, then renders the
// schedule's feed.
func (s *PublicFeedService) RenderByToken(scheduleId, token string, from, to time.Time) (string, error) {
	tenants, err := s.TenantRepo.ListActiveTenants()
	if err != nil {
		return "", err
	}
	binding, err := repo.SearchTokenAllTenants(s.Ctx, tenants, scheduleId, token)
	if err != nil {
		return "", err
	}

	tenant, err := s.TenantRepo.GetByTenantId(binding.TenantId)
	if err != nil {
		return "", err
	}

	subRepo := repo.NewSubscriptionRepo(s.Ctx, tenant.SchemaName)
	if err := subRepo.TouchLastAccessed(token); err != nil {
		return "", err
	}

	calendar := NewCalendarService(s.Ctx, tenant.SchemaName, tenant.TenantId)
	return calendar.RenderFeed(binding.ScheduleId, binding.FilterUserId, from, to)
}
