package router

import (
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/firelater/firelater/internal/engine/conf"
	"github.com/firelater/firelater/internal/engine/repo"
	"github.com/firelater/firelater/internal/engine/service"
	"github.com/firelater/firelater/pkg/cache"
	"github.com/firelater/firelater/pkg/ctx"
	httpx "github.com/firelater/firelater/pkg/http"
	"github.com/firelater/firelater/pkg/http/interceptor"
	"github.com/firelater/firelater/pkg/http/middleware"
	"github.com/firelater/firelater/pkg/metrics"
)

/**
 * @file: router.go
 * @description: http surface of the engine
 */

type Router struct {
	Ctx        *ctx.Context
	Conf       conf.AppConfig
	Cache      cache.ICache
	TenantRepo repo.ITenantRepository
	Dispatcher service.IDispatcher
}

func NewRouter(c *ctx.Context, cfg conf.AppConfig, cc cache.ICache,
	dispatcher service.IDispatcher) *Router {
	return &Router{
		Ctx:        c,
		Conf:       cfg,
		Cache:      cc,
		TenantRepo: repo.NewTenantRepo(c, cfg.Engine.ControlSchema, cc),
		Dispatcher: dispatcher,
	}
}

// Engine assembles the gin engine: interceptors, the anonymous calendar
// feed, and the authenticated api group.
func (r *Router) Engine() *gin.Engine {
	if r.Conf.Http.Mode != "" {
		gin.SetMode(r.Conf.Http.Mode)
	}
	engine := gin.New()
	engine.Use(interceptor.ExceptionInterceptor)
	engine.Use(interceptor.CorsInterceptor())
	if r.Conf.Http.AccessLog {
		engine.Use(interceptor.AccessLogInterceptor())
	}

	engine.GET("/healthz", func(c *gin.Context) {
		httpx.WithRepNotDetail(c)
	})
	if r.Conf.Http.ExposeMetrics {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// the feed url is pasted into calendar apps; no auth, the token is
	// the credential
	engine.GET("/api/v1/public/calendar/:scheduleId/feed.ics", r.publicCalendarFeed)

	api := engine.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(r.Conf.Http.Auth.SecretKey))
	{
		r.scheduleRoutes(api)
		r.onCallRoutes(api)
		r.escalationRoutes(api)
		r.calendarRoutes(api)
	}
	return engine
}

// tenantSchema resolves the authenticated tenant to its schema. Aborts
// the request when the tenant is unknown.
func (r *Router) tenantSchema(c *gin.Context) (schema, tenantId string, ok bool) {
	tenantId = c.GetString(middleware.TENANT_ID)
	if tenantId == "" {
		httpx.WithRepErrMsg(c, httpx.Unauthorized.Code, httpx.Unauthorized.Msg, c.Request.URL.Path)
		return "", "", false
	}
	tenant, err := r.TenantRepo.GetByTenantId(tenantId)
	if err != nil {
		httpx.WithRepErrMsg(c, httpx.TenantNotExist.Code, httpx.TenantNotExist.Msg, c.Request.URL.Path)
		return "", "", false
	}
	return tenant.SchemaName, tenantId, true
}

// replyErr maps service errors onto the response code table.
func replyErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		httpx.WithRepErrMsg(c, httpx.NotFound.Code, httpx.NotFound.Msg, c.Request.URL.Path)
	case errors.Is(err, repo.ErrInvalidTarget):
		httpx.WithRepErrMsg(c, httpx.InvalidTarget.Code, httpx.InvalidTarget.Msg, c.Request.URL.Path)
	default:
		httpx.WithRepErr(c, httpx.Failed.Code, httpx.Failed.Msg, err.Error(), c.Request.URL.Path)
	}
}
