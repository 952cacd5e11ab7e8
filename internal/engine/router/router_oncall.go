package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/service"
	httpx "github.com/firelater/firelater/pkg/http"
)

/**
 * @file: router_oncall.go
 * @description: shift and on-call resolution endpoints
 */

func (r *Router) onCallRoutes(api *gin.RouterGroup) {
	api.GET("/schedules/:scheduleId/oncall", r.whoIsOnCall)
	api.GET("/applications/:applicationId/oncall", r.whoIsOnCallForApplication)

	api.POST("/schedules/:scheduleId/shifts", r.createShift)
	api.GET("/schedules/:scheduleId/shifts", r.getShifts)
	api.POST("/schedules/:scheduleId/overrides", r.createOverride)
	api.GET("/shifts/:shiftId", r.getShift)
	api.DELETE("/shifts/:shiftId", r.deleteShift)
}

// parseAt reads the optional ?at= query, RFC 3339. Empty means now.
func parseAt(c *gin.Context) (time.Time, bool) {
	raw := c.Query("at")
	if raw == "" {
		return time.Now(), true
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httpx.WithRepErrMsg(c, httpx.InvalidWindow.Code, httpx.InvalidWindow.Msg, c.Request.URL.Path)
		return time.Time{}, false
	}
	return at, true
}

func (r *Router) whoIsOnCall(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	at, ok := parseAt(c)
	if !ok {
		return
	}
	winners, err := service.NewOnCallService(r.Ctx, schema).WhoIsOnCall(c.Param("scheduleId"), at)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, winners)
}

func (r *Router) whoIsOnCallForApplication(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	at, ok := parseAt(c)
	if !ok {
		return
	}
	winners, err := service.NewOnCallService(r.Ctx, schema).
		WhoIsOnCallForApplication(c.Param("applicationId"), at)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, winners)
}

func (r *Router) createShift(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	var req model.CreateShiftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code,
			httpx.RequestParameterParsingFailed.Msg, c.Request.URL.Path)
		return
	}
	shift, err := service.NewOnCallService(r.Ctx, schema).CreateShift(c.Param("scheduleId"), &req)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, shift)
}

func (r *Router) getShifts(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	shifts, err := service.NewOnCallService(r.Ctx, schema).GetShifts(c.Param("scheduleId"), from, to)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, shifts)
}

func (r *Router) createOverride(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	var req model.CreateOverrideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code,
			httpx.RequestParameterParsingFailed.Msg, c.Request.URL.Path)
		return
	}
	shift, err := service.NewOnCallService(r.Ctx, schema).CreateOverride(c.Param("scheduleId"), &req)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, shift)
}

func (r *Router) getShift(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	shift, err := service.NewOnCallService(r.Ctx, schema).GetShift(c.Param("shiftId"))
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, shift)
}

func (r *Router) deleteShift(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	if err := service.NewOnCallService(r.Ctx, schema).DeleteShift(c.Param("shiftId")); err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepNotDetail(c)
}

// parseWindow reads ?from= and ?to=, RFC 3339, defaulting to the
// calendar export window around now.
func parseWindow(c *gin.Context) (from, to time.Time, ok bool) {
	now := time.Now().UTC()
	from = now.AddDate(0, 0, -service.DefaultLookbackDays)
	to = now.AddDate(0, 0, service.DefaultLookaheadDays)

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.WithRepErrMsg(c, httpx.InvalidWindow.Code, httpx.InvalidWindow.Msg, c.Request.URL.Path)
			return from, to, false
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.WithRepErrMsg(c, httpx.InvalidWindow.Code, httpx.InvalidWindow.Msg, c.Request.URL.Path)
			return from, to, false
		}
		to = t
	}
	if !to.After(from) {
		httpx.WithRepErrMsg(c, httpx.InvalidWindow.Code, httpx.InvalidWindow.Msg, c.Request.URL.Path)
		return from, to, false
	}
	return from, to, true
}
