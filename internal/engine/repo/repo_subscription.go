package repo

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/pkg/ctx"
)

type ISubscriptionRepository interface {
	Upsert(sub *model.CalendarSubscription) error
	GetByToken(token string) (*model.CalendarSubscription, error)
	ListByUser(userId string) ([]*model.CalendarSubscription, error)
	TouchLastAccessed(token string) error
	DeleteByKey(scheduleId, userId, filterUserId string) error
}

type SubscriptionRepo struct {
	Repo
}

func NewSubscriptionRepo(c *ctx.Context, schema string) ISubscriptionRepository {
	return &SubscriptionRepo{Repo{Ctx: c, Schema: schema}}
}

// Upsert replaces any existing token for the same (schedule, user, filter)
// key. Delete plus insert in one transaction, so re-issuing revokes the old
// token atomically.
func (r *SubscriptionRepo) Upsert(sub *model.CalendarSubscription) error {
	return r.db().Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(r.qualified("t_calendar_subscription")).
			Where("schedule_id = ? AND user_id = ? AND filter_user_id = ?",
				sub.ScheduleId, sub.UserId, sub.FilterUserId).
			Delete(&model.CalendarSubscription{}).Error; err != nil {
			return err
		}
		return tx.Table(r.qualified("t_calendar_subscription")).Create(sub).Error
	})
}

func (r *SubscriptionRepo) GetByToken(token string) (*model.CalendarSubscription, error) {
	var sub model.CalendarSubscription
	err := r.table("t_calendar_subscription").Where("token = ?", token).First(&sub).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

func (r *SubscriptionRepo) ListByUser(userId string) ([]*model.CalendarSubscription, error) {
	var subs []*model.CalendarSubscription
	err := r.table("t_calendar_subscription").
		Where("user_id = ?", userId).
		Order("schedule_id ASC").
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepo) TouchLastAccessed(token string) error {
	return r.table("t_calendar_subscription").
		Where("token = ?", token).
		Update("last_accessed_at", time.Now()).Error
}

func (r *SubscriptionRepo) DeleteByKey(scheduleId, userId, filterUserId string) error {
	res := r.table("t_calendar_subscription").
		Where("schedule_id = ? AND user_id = ? AND filter_user_id = ?",
			scheduleId, userId, filterUserId).
		Delete(&model.CalendarSubscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// tokenHit one row of the cross-tenant token search.
type tokenHit struct {
	TenantId     string `gorm:"column:tenant_id"`
	ScheduleId   string `gorm:"column:schedule_id"`
	UserId       string `gorm:"column:user_id"`
	FilterUserId string `gorm:"column:filter_user_id"`
}

// SearchTokenAllTenants resolves a public feed token without knowing which
// tenant issued it. One UNION ALL statement fans the lookup out across every
// active tenant schema; tokens are unique so at most one row comes back. A
// token bound to a different schedule misses, indistinguishable from an
// unknown token.
func SearchTokenAllTenants(c *ctx.Context, tenants []*model.Tenant, scheduleId, token string) (*model.TokenBinding, error) {
	if len(tenants) == 0 {
		return nil, ErrNotFound
	}

	var (
		parts []string
		args  []interface{}
	)
	for _, t := range tenants {
		parts = append(parts,
			"SELECT ? AS tenant_id, schedule_id, user_id, filter_user_id FROM "+
				t.SchemaName+".t_calendar_subscription WHERE token = ? AND schedule_id = ?")
		args = append(args, t.TenantId, token, scheduleId)
	}
	query := strings.Join(parts, " UNION ALL ")

	var hit tokenHit
	err := c.DB.Raw(query, args...).Scan(&hit).Error
	if err != nil {
		return nil, err
	}
	if hit.TenantId == "" {
		return nil, ErrNotFound
	}
	return &model.TokenBinding{
		TenantId:     hit.TenantId,
		ScheduleId:   hit.ScheduleId,
		UserId:       hit.UserId,
		FilterUserId: hit.FilterUserId,
	}, nil
}
