package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/repo"
	"github.com/firelater/firelater/internal/engine/service"
	httpx "github.com/firelater/firelater/pkg/http"
	"github.com/firelater/firelater/pkg/http/middleware"
)

/**
 * @file: router_calendar.go
 * @description: calendar export and subscription endpoints
 */

func (r *Router) calendarRoutes(api *gin.RouterGroup) {
	api.GET("/schedules/:scheduleId/calendar", r.exportCalendar)
	api.POST("/schedules/:scheduleId/subscription", r.createSubscription)
	api.DELETE("/schedules/:scheduleId/subscription", r.revokeSubscription)
	api.GET("/subscriptions", r.listSubscriptions)
}

// exportCalendar renders the authenticated ics export of one schedule.
func (r *Router) exportCalendar(c *gin.Context) {
	schema, tenantId, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.WithRepErrMsg(c, httpx.InvalidWindow.Code, httpx.InvalidWindow.Msg, c.Request.URL.Path)
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.WithRepErrMsg(c, httpx.InvalidWindow.Code, httpx.InvalidWindow.Msg, c.Request.URL.Path)
			return
		}
		to = t
	}

	feed, err := service.NewCalendarService(r.Ctx, schema, tenantId).
		RenderFeed(c.Param("scheduleId"), c.Query("filterUserId"), from, to)
	if err != nil {
		replyErr(c, err)
		return
	}
	writeICS(c, feed)
}

// publicCalendarFeed serves a feed by token. Unauthenticated: calendar
// apps cannot attach headers, the token in the query is the credential.
func (r *Router) publicCalendarFeed(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		httpx.WithRepErrMsg(c, httpx.InvalidToken.Code, httpx.InvalidToken.Msg, c.Request.URL.Path)
		return
	}

	svc := service.NewPublicFeedService(r.Ctx, r.Conf.Engine.ControlSchema, r.Cache)
	feed, err := svc.RenderByToken(c.Param("scheduleId"), token, time.Time{}, time.Time{})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// an unknown and a revoked token are indistinguishable
			httpx.WithRepErrMsg(c, httpx.InvalidToken.Code, httpx.InvalidToken.Msg, c.Request.URL.Path)
			return
		}
		replyErr(c, err)
		return
	}
	writeICS(c, feed)
}

func (r *Router) createSubscription(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	userId := c.GetString(middleware.USER_ID)
	var req model.CreateSubscriptionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code,
			httpx.RequestParameterParsingFailed.Msg, c.Request.URL.Path)
		return
	}
	resp, err := service.NewSubscriptionService(r.Ctx, schema, r.Conf.Http.ExternalBaseURL).
		CreateToken(c.Param("scheduleId"), userId, &req)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, resp)
}

func (r *Router) revokeSubscription(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	userId := c.GetString(middleware.USER_ID)
	err := service.NewSubscriptionService(r.Ctx, schema, r.Conf.Http.ExternalBaseURL).
		Revoke(c.Param("scheduleId"), userId, c.Query("filterUserId"))
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepNotDetail(c)
}

func (r *Router) listSubscriptions(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	userId := c.GetString(middleware.USER_ID)
	subs, err := service.NewSubscriptionService(r.Ctx, schema, r.Conf.Http.ExternalBaseURL).
		ListMine(userId)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, subs)
}

func writeICS(c *gin.Context, feed string) {
	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="oncall.ics"`)
	c.String(http.StatusOK, feed)
}
