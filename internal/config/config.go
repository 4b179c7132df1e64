package config

import (
	"fmt"
	"time"

	"sampleapps/pkg/config"
)

type Config struct {
	Server config.ServerConfig `yaml:"server"`
	DB     config.DBConfig     `yaml:"db"`
	MQ     config.MQConfig     `yaml:"mq"`
	Redis  config.RedisConfig  `yaml:"redis"`
	JWT    config.JWTConfig    `yaml:"jwt"`
	App    config.AppConfig    `yaml:"app"`
	Outbox config.OutboxConfig `yaml:"outbox"`
	Worker config.WorkerConfig `yaml:"worker"`
}

// Load reads config/<env>.yaml layered over config/base.yaml, then applies
// environment overrides.
func Load(env, dir string) (*Config, error) {
	raw, err := config.LoadConfig(env, dir)
	if err != nil {
		return nil, err
	}

	cfg := defaults()
	if err := config.Decode(raw, cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideAppFromEnv(&cfg.App)

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret must be set")
	}
	return cfg, nil
}

// MustLoad is Load with the environment picked from CONFIG_ENV.
func MustLoad() *Config {
	cfg, err := Load(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func defaults() *Config {
	return &Config{
		Server: config.ServerConfig{Port: ":8080"},
		DB: config.DBConfig{
			Host:          "localhost",
			Port:          5432,
			MaxConns:      10,
			SlowThreshold: 100 * time.Millisecond,
		},
		JWT: config.JWTConfig{TTL: 24 * time.Hour},
		App: config.AppConfig{
			Timezone:      "UTC",
			StatsCacheTTL: 10 * time.Minute,
		},
		Outbox: config.OutboxConfig{
			Interval:         time.Second,
			BatchSize:        100,
			MaxRetries:       5,
			BreakerThreshold: 5,
			BreakerTimeout:   30 * time.Second,
		},
		Worker: config.WorkerConfig{
			MetricsPort: ":9091",
			DedupTTL:    24 * time.Hour,
			RetryTTL:    time.Hour,
			MaxRetries:  3,
		},
	}
}
