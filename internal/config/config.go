package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`

	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Guards    GuardsConfig    `mapstructure:"guards"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Market    MarketConfig    `mapstructure:"market"`
	Mirror    MirrorConfig    `mapstructure:"mirror"`
	Evaluator EvaluatorConfig `mapstructure:"evaluator"`
	Retention RetentionConfig `mapstructure:"retention"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type SchedulerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
	LockRetry    time.Duration `mapstructure:"lock_retry"`
	Workers      int           `mapstructure:"workers"`
	EvalTimeout  time.Duration `mapstructure:"eval_timeout"`
}

type GuardsConfig struct {
	StaleAfter      time.Duration `mapstructure:"stale_after"`
	RepeatWindow    time.Duration `mapstructure:"repeat_window"`
	CoherenceWindow time.Duration `mapstructure:"coherence_window"`
}

type NotifyConfig struct {
	TelegramToken string        `mapstructure:"telegram_token"`
	DefaultChatID int64         `mapstructure:"default_chat_id"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
}

type MarketConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MirrorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type EvaluatorConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	MinAge    time.Duration `mapstructure:"min_age"`
	MaxAge    time.Duration `mapstructure:"max_age"`
	BatchSize int           `mapstructure:"batch_size"`
}

type RetentionConfig struct {
	SignalMaxAge time.Duration `mapstructure:"signal_max_age"`
	PruneSpec    string        `mapstructure:"prune_spec"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.tick_interval", "60s")
	// TTL stays well above the tick interval so a slow tick cannot hand the
	// lock to a second replica mid-run.
	v.SetDefault("scheduler.lock_ttl", "5m")
	v.SetDefault("scheduler.lock_retry", "10s")
	// The worker bound protects the shared DB connection budget, not CPU.
	v.SetDefault("scheduler.workers", 5)
	v.SetDefault("scheduler.eval_timeout", "45s")

	v.SetDefault("guards.stale_after", "6h")
	v.SetDefault("guards.repeat_window", "60s")
	v.SetDefault("guards.coherence_window", "30m")

	v.SetDefault("notify.telegram_token", "")
	v.SetDefault("notify.default_chat_id", 0)
	v.SetDefault("notify.cooldown", "45m")

	v.SetDefault("market.base_url", "https://api.binance.com")
	v.SetDefault("market.timeout", "15s")

	v.SetDefault("mirror.enabled", true)
	v.SetDefault("mirror.dir", "logs")

	v.SetDefault("evaluator.enabled", true)
	v.SetDefault("evaluator.min_age", "5m")
	v.SetDefault("evaluator.max_age", "168h")
	v.SetDefault("evaluator.batch_size", 200)

	v.SetDefault("retention.signal_max_age", "2160h")
	v.SetDefault("retention.prune_spec", "@every 6h")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
