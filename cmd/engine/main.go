package main

import (
	"flag"
	"time"

	"github.com/robfig/cron"

	"github.com/firelater/firelater/internal/engine/conf"
	"github.com/firelater/firelater/internal/engine/repo"
	"github.com/firelater/firelater/internal/engine/router"
	"github.com/firelater/firelater/internal/engine/service"
	"github.com/firelater/firelater/pkg/ctx"
	httpx "github.com/firelater/firelater/pkg/http"
	"github.com/firelater/firelater/pkg/log"
	"github.com/firelater/firelater/pkg/safe"
)

/**
 * @file: main.go
 * @description: on-call engine entrypoint
 */

var configFile string

func init() {
	flag.StringVar(&configFile, "conf", "conf.d/config.toml", "conf file path, e.g. -conf ./conf.d/config.toml")
}

func main() {
	flag.Parse()

	appConf := conf.NewConf(configFile)

	logger, err := log.NewLog(&appConf.Log)
	if err != nil {
		panic(err)
	}

	engineInfra, err := initInfra(appConf, logger)
	if err != nil {
		panic(err)
	}
	engineCtx := engineInfra.Ctx
	tenantRepo := repo.NewTenantRepo(engineCtx, appConf.Engine.ControlSchema, engineInfra.Cache)
	dispatcher := service.NewDispatcher(appConf.Engine.DispatchURL)

	resumeRuns(engineCtx, appConf, tenantRepo, dispatcher)
	startPlanner(engineCtx, appConf, tenantRepo)

	route := router.NewRouter(engineCtx, appConf, engineInfra.Cache, dispatcher)
	shutdown := httpx.NewHttp(appConf.Http, route.Engine())
	shutdown()
}

// resumeRuns restarts every in-flight escalation run, tenant by tenant.
func resumeRuns(c *ctx.Context, appConf conf.AppConfig,
	tenantRepo repo.ITenantRepository, dispatcher service.IDispatcher) {
	tenants, err := tenantRepo.ListActiveTenants()
	if err != nil {
		log.Errorf("list tenants for run resume: %v", err)
		return
	}
	delayUnit := time.Duration(appConf.Engine.DelayUnitSeconds) * time.Second
	for _, tenant := range tenants {
		svc := service.NewEscalationService(c, tenant.SchemaName, tenant.TenantId, dispatcher, delayUnit)
		if err := svc.ResumeRuns(); err != nil {
			log.Errorw("resume runs failed", "tenantId", tenant.TenantId, "err", err)
		}
	}
}

// startPlanner schedules the shift materialization job.
func startPlanner(c *ctx.Context, appConf conf.AppConfig, tenantRepo repo.ITenantRepository) {
	job := cron.New()
	err := job.AddFunc(appConf.Engine.PlannerCron, func() {
		safe.Do(func() {
			planAll(c, appConf, tenantRepo)
		})
	})
	if err != nil {
		panic(err)
	}
	job.Start()

	// plan once at boot so fresh schedules get coverage without waiting
	// for the first tick
	safe.Go(func() {
		planAll(c, appConf, tenantRepo)
	})
}

func planAll(c *ctx.Context, appConf conf.AppConfig, tenantRepo repo.ITenantRepository) {
	tenants, err := tenantRepo.ListActiveTenants()
	if err != nil {
		log.Errorf("list tenants for planning: %v", err)
		return
	}
	now := time.Now()
	for _, tenant := range tenants {
		planner := service.NewPlannerService(c, tenant.SchemaName, appConf.Engine.PlannerHorizonDays)
		if err := planner.PlanAll(now); err != nil {
			log.Errorw("planning failed", "tenantId", tenant.TenantId, "err", err)
		}
	}
}
