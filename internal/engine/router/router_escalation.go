package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/service"
	httpx "github.com/firelater/firelater/pkg/http"
)

/**
 * @file: router_escalation.go
 * @description: escalation policy and run endpoints
 */

func (r *Router) escalationRoutes(api *gin.RouterGroup) {
	api.POST("/escalation/policies", r.createPolicy)
	api.GET("/escalation/policies", r.listPolicies)
	api.GET("/escalation/policies/:policyId", r.getPolicy)
	api.DELETE("/escalation/policies/:policyId", r.deletePolicy)
	api.PUT("/escalation/policies/:policyId/default", r.setDefaultPolicy)

	api.POST("/escalation/policies/:policyId/steps", r.addStep)
	api.DELETE("/escalation/steps/:stepId", r.deleteStep)

	api.POST("/escalation/policies/:policyId/trigger", r.triggerEscalation)
	api.GET("/escalation/runs/:runId", r.getRun)
	api.POST("/escalation/runs/:runId/ack", r.acknowledgeRun)
}

func (r *Router) escalationService(c *gin.Context) (*service.EscalationService, bool) {
	schema, tenantId, ok := r.tenantSchema(c)
	if !ok {
		return nil, false
	}
	delayUnit := time.Duration(r.Conf.Engine.DelayUnitSeconds) * time.Second
	return service.NewEscalationService(r.Ctx, schema, tenantId, r.Dispatcher, delayUnit), true
}

func (r *Router) createPolicy(c *gin.Context) {
	svc, ok := r.escalationService(c)
	if !ok {
		return
	}
	var req model.CreateEscalationPolicyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code,
			httpx.RequestParameterParsingFailed.Msg, c.Request.URL.Path)
		return
	}
	policy, err := svc.CreatePolicy(&req)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, policy)
}

func (r *Router) listPolicies(c *gin.Context) {
	svc, ok := r.escalationService(c)
	if !ok {
		return
	}
	policies, err := svc.ListPolicies()
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, policies)
}

func (r *Router) getPolicy(c *gin.Context) {
	svc, ok := r.escalationService(c)
	if !ok {
		return
	}
	policyId := c.Param("policyId")
	if policyId == "" {
		httpx.WithRepErrMsg(c, httpx.PolicyIdIsEmpty.Code, httpx.PolicyIdIsEmpty.Msg, c.Request.URL.Path)
		return
	}
	policy, steps, err := svc.GetPolicy(policyId)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, gin.H{"policy": policy, "steps": steps})
}

func (r *Router) deletePolicy(c *gin.Context) {
	svc, ok := r.escalationService(c)
	if !ok {
		return
	}
	if err := svc.DeletePolicy(c.Param("policyId")); err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepNotDetail(c)
}

func (r *Router) setDefaultPolicy(c *gin.Context) {
	svc, ok := r.escalationService(c)
	if !ok {
		return
	}
	if err := svc.SetDefaultPolicy(c.Param("policyId")); err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepNotDetail(c)
}

func (r *Router) addStep(c *gin.Context) {
	svc, ok := r.escalationService(c)
	if !ok {
		return
	}
	var req model.CreateEscalationStepReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code,
			httpx.RequestParameterParsingFailed.Msg, c.Request.URL.Path)
		return
	}
	step, err := svc.AddStep(c.Param("policyId"), &req)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, step)
}

func (r *Router) deleteStep(c *gin.Context) {
	svc, ok := r.escalationService(c)
	if !ok {
		return
	}
	if err := svc.DeleteStep(c.Param("stepId")); err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepNotDetail(c)
}

func (r *Router) triggerEscalation(c *gin.Context) {
	svc, ok := r.escalationService(c)
	if !ok {
		return
	}
	var req model.TriggerEscalationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code,
			httpx.RequestParameterParsingFailed.Msg, c.Request.URL.Path)
		return
	}
	run, err := svc.Trigger(c.Param("policyId"), &req)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, run)
}

func (r *Router) getRun(c *gin.Context) {
	svc, ok := r.escalationService(c)
	if !ok {
		return
	}
	runId := c.Param("runId")
	if runId == "" {
		httpx.WithRepErrMsg(c, httpx.RunIdIsEmpty.Code, httpx.RunIdIsEmpty.Msg, c.Request.URL.Path)
		return
	}
	run, err := svc.GetRun(runId)
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, run)
}

func (r *Router) acknowledgeRun(c *gin.Context) {
	svc, ok := r.escalationService(c)
	if !ok {
		return
	}
	run, err := svc.Acknowledge(c.Param("runId"))
	if err != nil {
		replyErr(c, err)
		return
	}
	httpx.WithRepJSON(c, run)
}
