package repo

import (
	"time"

	"github.com/bytedance/sonic"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/pkg/cache"
	"github.com/firelater/firelater/pkg/ctx"
	"github.com/firelater/firelater/pkg/log"
)

const (
	tenantListCacheKey = "firelater:tenants:active"
	tenantListCacheTTL = 5 * time.Minute
)

type ITenantRepository interface {
	ListActiveTenants() ([]*model.Tenant, error)
	GetByTenantId(tenantId string) (*model.Tenant, error)
	InvalidateCache()
}

// TenantRepo reads the tenant registry from the control schema. The active
// list backs every cross-tenant fan-out, so it is cached in redis.
type TenantRepo struct {
	Ctx           *ctx.Context
	ControlSchema string
	Cache         cache.ICache
}

func NewTenantRepo(c *ctx.Context, controlSchema string, cc cache.ICache) ITenantRepository {
	return &TenantRepo{Ctx: c, ControlSchema: controlSchema, Cache: cc}
}

func (r *TenantRepo) ListActiveTenants() ([]*model.Tenant, error) {
	if cached, err := r.Cache.Get(r.Ctx.Ctx, tenantListCacheKey); err == nil {
		var tenants []*model.Tenant
		if err = sonic.UnmarshalString(cached, &tenants); err == nil {
			return tenants, nil
		}
		log.Warnf("tenant cache decode failed, falling back to db: %v", err)
	}

	var tenants []*model.Tenant
	err := r.Ctx.DB.Table(r.ControlSchema+".t_tenant").
		Where("is_active = ?", 1).
		Order("tenant_id ASC").
		Find(&tenants).Error
	if err != nil {
		return nil, err
	}

	if raw, err := sonic.MarshalString(tenants); err == nil {
		if err = r.Cache.Set(r.Ctx.Ctx, tenantListCacheKey, raw, tenantListCacheTTL); err != nil {
			log.Warnf("tenant cache set failed: %v", err)
		}
	}
	return tenants, nil
}

func (r *TenantRepo) GetByTenantId(tenantId string) (*model.Tenant, error) {
	var t model.Tenant
	err := r.Ctx.DB.Table(r.ControlSchema+".t_tenant").
		Where("tenant_id = ? AND is_active = ?", tenantId, 1).
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *TenantRepo) InvalidateCache() {
	if err := r.Cache.Del(r.Ctx.Ctx, tenantListCacheKey); err != nil {
		log.Warnf("tenant cache del failed: %v", err)
	}
}
