package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type APIConfig struct {
	DBDSN       string `envconfig:"DB_DSN" required:"true"`
	Port        string `envconfig:"PORT" default:"3001"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	// DB pool tuning
	DBPoolMaxConns          int32  `envconfig:"DB_POOL_MAX_CONNS" default:"0"`
	DBPoolMinConns          int32  `envconfig:"DB_POOL_MIN_CONNS" default:"0"`
	DBPoolMaxConnLifetime   string `envconfig:"DB_POOL_MAX_CONN_LIFETIME"`
	DBPoolMaxConnIdleTime   string `envconfig:"DB_POOL_MAX_CONN_IDLE_TIME"`
	DBPoolHealthCheckPeriod string `envconfig:"DB_POOL_HEALTH_CHECK_PERIOD"`

	// Voice-AI provider
	ElevenLabsAPIKey        string        `envconfig:"ELEVENLABS_API_KEY" required:"true"`
	ElevenLabsAgentID       string        `envconfig:"ELEVENLABS_AGENT_ID" required:"true"`
	ElevenLabsBaseURL       string        `envconfig:"ELEVENLABS_BASE_URL" default:"https://api.elevenlabs.io"`
	ElevenLabsWebhookSecret string        `envconfig:"ELEVENLABS_WEBHOOK_SECRET"`
	GatewayTimeout          time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"15s"`
	GatewayRPS              float64       `envconfig:"GATEWAY_RPS" default:"5"`
	GatewayBurst            int           `envconfig:"GATEWAY_BURST" default:"10"`

	// Classifier lexicon override (YAML); empty uses the built-in lists.
	LexiconPath string `envconfig:"LEXICON_PATH"`

	// Optional stats cache
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	StatsCacheTTL time.Duration `envconfig:"STATS_CACHE_TTL" default:"30s"`
}

func LoadAPI() APIConfig {
	var cfg APIConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}
