package conf

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/firelater/firelater/pkg/cache"
	"github.com/firelater/firelater/pkg/database"
	httpx "github.com/firelater/firelater/pkg/http"
	"github.com/firelater/firelater/pkg/log"
)

/**
 * @file: conf.go
 * @description: engine configuration
 */

type AppConfig struct {
	Log      log.LogConfig
	Http     httpx.Http
	Database database.Database
	Redis    cache.Redis
	Engine   EngineConfig
}

// EngineConfig holds scheduling and escalation engine settings.
type EngineConfig struct {
	// ControlSchema is the schema holding the tenant registry.
	ControlSchema string `mapstructure:"controlSchema"`
	// DispatchURL is the notification dispatcher collaborator endpoint.
	DispatchURL string `mapstructure:"dispatchUrl"`
	// PlannerCron is the cron spec that extends rotation shifts.
	PlannerCron string `mapstructure:"plannerCron"`
	// PlannerHorizonDays is how far ahead shifts are materialized.
	PlannerHorizonDays int `mapstructure:"plannerHorizonDays"`
	// DelayUnitSeconds scales step delay minutes; 60 in production.
	DelayUnitSeconds int `mapstructure:"delayUnitSeconds"`
}

var (
	cfg  AppConfig
	once sync.Once
)

func NewConf(confFile string) AppConfig {
	once.Do(func() {
		var err error
		cfg, err = LoadConfigFile(confFile)
		if err != nil {
			panic(fmt.Sprintf("load conf file error: %s", err))
		}
	})
	return cfg
}

// LoadConfigFile loads the conf file and watches it for changes.
func LoadConfigFile(confFile string) (AppConfig, error) {
	config := viper.New()
	config.SetConfigFile(confFile)
	config.AddConfigPath("./conf.d")
	config.SetConfigName("config")
	config.SetConfigType("toml")
	if err := config.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("failed to read configuration file: %v", err)
	}

	config.WatchConfig()
	config.OnConfigChange(func(e fsnotify.Event) {
		log.Infof("configuration changed, reloading: %s", e.Name)
		if err := config.Unmarshal(&cfg); err != nil {
			log.Errorf("failed to unmarshal configuration file: %v", err)
		}
	})
	if err := config.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal configuration file: %v", err)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(c *AppConfig) {
	if c.Engine.ControlSchema == "" {
		c.Engine.ControlSchema = "firelater"
	}
	if c.Engine.PlannerCron == "" {
		c.Engine.PlannerCron = "0 0 * * * *"
	}
	if c.Engine.PlannerHorizonDays <= 0 {
		c.Engine.PlannerHorizonDays = 30
	}
	if c.Engine.DelayUnitSeconds <= 0 {
		c.Engine.DelayUnitSeconds = 60
	}
}
