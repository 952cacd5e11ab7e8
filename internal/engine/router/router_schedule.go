package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/service"
	httpx "github.com/firelater/firelater/pkg/http"
)

/**
 * @file: router_schedule.go
 * @description: schedule and rotation endpoints
 */

func (r *Router) scheduleRoutes(api *gin.RouterGroup) {
	api.POST("/schedules", r.createSchedule)
	api.GET("/schedules", r.listSchedules)
	api.GET("/schedules/:scheduleId", r.getSchedule)
	api.PUT("/schedules/:scheduleId", r.updateSchedule)
	api.DELETE("/schedules/:scheduleId", r.deleteSchedule)

	api.PUT("/schedules/:scheduleId/applications/:applicationId", r.linkApplication)
	api.DELETE("/schedules/:scheduleId/applications/:applicationId", r.unlinkApplication)
	api.GET("/applications/:applicationId/schedules", r.schedulesByApplication)

	api.POST("/schedules/:scheduleId/plan", r.planSchedule)

	api.POST("/schedules/:scheduleId/rotation", r.addRotationMember)
	api.GET("/schedules/:scheduleId/rotation", r.listRotationMembers)
	api.PUT("/schedules/:scheduleId/rotation/:userId", r.reorderRotationMember)
	api.DELETE("/schedules/:scheduleId/rotation/:userId", r.removeRotationMember)
}

func (r *Router) createSchedule(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	var req model.CreateScheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code,
			httpx.RequestParameterParsingFailed.Msg, c.Request.URL.Path)
		return
	}
	schedule, err := service.NewScheduleService(r.Ctx, schema).CreateSchedule(&req)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, schedule)
}

func (r *Router) listSchedules(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	schedules, err := service.NewScheduleService(r.Ctx, schema).ListSchedules()
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, schedules)
}

func (r *Router) getSchedule(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	scheduleId := c.Param("scheduleId")
	if scheduleId == "" {
		httpx.WithRepErrMsg(c, httpx.ScheduleIdIsEmpty.Code, httpx.ScheduleIdIsEmpty.Msg, c.Request.URL.Path)
		return
	}
	schedule, err := service.NewScheduleService(r.Ctx, schema).GetSchedule(scheduleId)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, schedule)
}

func (r *Router) updateSchedule(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	scheduleId := c.Param("scheduleId")
	var req model.UpdateScheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code,
			httpx.RequestParameterParsingFailed.Msg, c.Request.URL.Path)
		return
	}
	if err := service.NewScheduleService(r.Ctx, schema).UpdateSchedule(scheduleId, &req); err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepNotDetail(c)
}

func (r *Router) deleteSchedule(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	if err := service.NewScheduleService(r.Ctx, schema).DeleteSchedule(c.Param("scheduleId")); err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepNotDetail(c)
}

func (r *Router) linkApplication(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	scheduleId, applicationId := c.Param("scheduleId"), c.Param("applicationId")
	if applicationId == "" {
		httpx.WithRepErrMsg(c, httpx.ApplicationIdIsEmpty.Code, httpx.ApplicationIdIsEmpty.Msg, c.Request.URL.Path)
		return
	}
	if err := service.NewScheduleService(r.Ctx, schema).LinkApplication(scheduleId, applicationId); err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepNotDetail(c)
}

func (r *Router) unlinkApplication(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	if err := service.NewScheduleService(r.Ctx, schema).
		UnlinkApplication(c.Param("scheduleId"), c.Param("applicationId")); err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepNotDetail(c)
}

func (r *Router) schedulesByApplication(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	ids, err := service.NewScheduleService(r.Ctx, schema).
		GetScheduleIdsByApplication(c.Param("applicationId"))
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, ids)
}

// planSchedule regenerates shift coverage on demand, typically after a
// rotation change.
func (r *Router) planSchedule(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	schedule, err := service.NewScheduleService(r.Ctx, schema).GetSchedule(c.Param("scheduleId"))
	if err != nil {
		replyErr(c, err)
		return
	}
	planner := service.NewPlannerService(r.Ctx, schema, r.Conf.Engine.PlannerHorizonDays)
	created, err := planner.PlanSchedule(schedule, time.Now())
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, gin.H{"created": created})
}

func (r *Router) addRotationMember(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	var req model.AddRotationMemberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code,
			httpx.RequestParameterParsingFailed.Msg, c.Request.URL.Path)
		return
	}
	member, err := service.NewRotationService(r.Ctx, schema).AddMember(c.Param("scheduleId"), &req)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, member)
}

func (r *Router) listRotationMembers(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	members, err := service.NewRotationService(r.Ctx, schema).ListMembers(c.Param("scheduleId"))
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, members)
}

func (r *Router) reorderRotationMember(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	var req model.ReorderRotationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code,
			httpx.RequestParameterParsingFailed.Msg, c.Request.URL.Path)
		return
	}
	if err := service.NewRotationService(r.Ctx, schema).
		Reorder(c.Param("scheduleId"), c.Param("userId"), &req); err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepNotDetail(c)
}

func (r *Router) removeRotationMember(c *gin.Context) {
	schema, _, ok := r.tenantSchema(c)
	if !ok {
		return
	}
	if err := service.NewRotationService(r.Ctx, schema).
		RemoveMember(c.Param("scheduleId"), c.Param("userId")); err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepNotDetail(c)
}
