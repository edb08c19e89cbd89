package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Lock backends for the stock ledger row lock
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Event       EventConfig
	Scheduler   SchedulerConfig
	Telemetry   TelemetryConfig
	Ledger      LedgerConfig
	StockHealth StockHealthConfig
	Kafka       KafkaConfig
	Metrics     MetricsConfig
	Swagger     SwaggerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// EventConfig holds in-process event bus settings
type EventConfig struct {
	BufferSize int
	Workers    int
}

// SchedulerConfig holds background job settings
type SchedulerConfig struct {
	Enabled             bool
	Workers             int
	QueueSize           int
	JobTimeout          time.Duration
	RetryAttempts       int
	RetryDelay          time.Duration
	StagnationInterval  time.Duration
	WaitingStockSweep   time.Duration
	HealthSnapshotEvery time.Duration
	SweepBatchSize      int
}

// TelemetryConfig holds OpenTelemetry and profiling configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool // development only
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
	LogsLevel         string
	DBTraceEnabled    bool
	DBLogFullSQL      bool // dev only
	DBSlowQueryThresh time.Duration
	ProfilingEnabled  bool
	PyroscopeAddress  string
}

// LedgerConfig holds stock ledger locking settings
type LedgerConfig struct {
	LockBackend string // local or redis
	LockTTL     time.Duration
	LockWait    time.Duration
}

// StockHealthConfig holds the classifier cutoffs and return urgency days
type StockHealthConfig struct {
	FastMoverRate      float64
	FastCoverDays      float64
	SlowCoverDays      float64
	MinThresholdBoxes  float64
	CriticalRatio      float64
	WarningRatio       float64
	AttentionRatio     float64
	MinIdleDays        int
	LookbackWindow     string
	ReturnCriticalDays int
	ReturnHighDays     int
	ReturnMediumDays   int
}

// KafkaConfig holds domain event streaming settings
type KafkaConfig struct {
	Enabled          bool
	Brokers          []string
	TopicPrefix      string
	BatchSize        int
	BatchTimeout     time.Duration
	WriteTimeout     time.Duration
	BreakerMaxFails  uint32
	BreakerOpenFor   time.Duration
	BreakerHalfOpenN uint32
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// SwaggerConfig holds the API documentation endpoint settings
type SwaggerConfig struct {
	Enabled    bool
	AllowedIPs []string // single IPs or CIDRs; empty allows everyone
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with BOXSTOCK_ prefix (e.g., BOXSTOCK_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("BOXSTOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Event: EventConfig{
			BufferSize: v.GetInt("event.buffer_size"),
			Workers:    v.GetInt("event.workers"),
		},
		Scheduler: SchedulerConfig{
			Enabled:             v.GetBool("scheduler.enabled"),
			Workers:             v.GetInt("scheduler.workers"),
			QueueSize:           v.GetInt("scheduler.queue_size"),
			JobTimeout:          v.GetDuration("scheduler.job_timeout"),
			RetryAttempts:       v.GetInt("scheduler.retry_attempts"),
			RetryDelay:          v.GetDuration("scheduler.retry_delay"),
			StagnationInterval:  v.GetDuration("scheduler.stagnation_interval"),
			WaitingStockSweep:   v.GetDuration("scheduler.waiting_stock_sweep"),
			HealthSnapshotEvery: v.GetDuration("scheduler.health_snapshot_interval"),
			SweepBatchSize:      v.GetInt("scheduler.sweep_batch_size"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			LogsLevel:         v.GetString("telemetry.logs_level"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeAddress:  v.GetString("telemetry.pyroscope_address"),
		},
		Ledger: LedgerConfig{
			LockBackend: v.GetString("ledger.lock_backend"),
			LockTTL:     v.GetDuration("ledger.lock_ttl"),
			LockWait:    v.GetDuration("ledger.lock_wait"),
		},
		StockHealth: StockHealthConfig{
			FastMoverRate:      v.GetFloat64("stock_health.fast_mover_rate"),
			FastCoverDays:      v.GetFloat64("stock_health.fast_cover_days"),
			SlowCoverDays:      v.GetFloat64("stock_health.slow_cover_days"),
			MinThresholdBoxes:  v.GetFloat64("stock_health.min_threshold_boxes"),
			CriticalRatio:      v.GetFloat64("stock_health.critical_ratio"),
			WarningRatio:       v.GetFloat64("stock_health.warning_ratio"),
			AttentionRatio:     v.GetFloat64("stock_health.attention_ratio"),
			MinIdleDays:        v.GetInt("stock_health.min_idle_days"),
			LookbackWindow:     v.GetString("stock_health.lookback_window"),
			ReturnCriticalDays: v.GetInt("stock_health.return_critical_days"),
			ReturnHighDays:     v.GetInt("stock_health.return_high_days"),
			ReturnMediumDays:   v.GetInt("stock_health.return_medium_days"),
		},
		Kafka: KafkaConfig{
			Enabled:          v.GetBool("kafka.enabled"),
			Brokers:          v.GetStringSlice("kafka.brokers"),
			TopicPrefix:      v.GetString("kafka.topic_prefix"),
			BatchSize:        v.GetInt("kafka.batch_size"),
			BatchTimeout:     v.GetDuration("kafka.batch_timeout"),
			WriteTimeout:     v.GetDuration("kafka.write_timeout"),
			BreakerMaxFails:  v.GetUint32("kafka.breaker_max_failures"),
			BreakerOpenFor:   v.GetDuration("kafka.breaker_open_timeout"),
			BreakerHalfOpenN: v.GetUint32("kafka.breaker_half_open_requests"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
		Swagger: SwaggerConfig{
			Enabled:    v.GetBool("swagger.enabled"),
			AllowedIPs: v.GetStringSlice("swagger.allowed_ips"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "boxstock"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "boxstock"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 300
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// No CORS origin default: cross-origin calls stay blocked until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID", "X-Employee-ID"}
	}
	if cfg.Event.BufferSize == 0 {
		cfg.Event.BufferSize = 1024
	}
	if cfg.Event.Workers == 0 {
		cfg.Event.Workers = 4
	}
	if cfg.Scheduler.Workers == 0 {
		cfg.Scheduler.Workers = 3
	}
	if cfg.Scheduler.QueueSize == 0 {
		cfg.Scheduler.QueueSize = 100
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 5 * time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 3
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = 30 * time.Second
	}
	if cfg.Scheduler.StagnationInterval == 0 {
		cfg.Scheduler.StagnationInterval = 24 * time.Hour
	}
	if cfg.Scheduler.WaitingStockSweep == 0 {
		cfg.Scheduler.WaitingStockSweep = 5 * time.Minute
	}
	if cfg.Scheduler.HealthSnapshotEvery == 0 {
		cfg.Scheduler.HealthSnapshotEvery = 15 * time.Minute
	}
	if cfg.Scheduler.SweepBatchSize == 0 {
		cfg.Scheduler.SweepBatchSize = 200
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "boxstock"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = time.Minute
	}
	if cfg.Telemetry.LogsLevel == "" {
		cfg.Telemetry.LogsLevel = "info"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.PyroscopeAddress == "" {
		cfg.Telemetry.PyroscopeAddress = "http://localhost:4040"
	}
	if cfg.Ledger.LockBackend == "" {
		cfg.Ledger.LockBackend = LockBackendLocal
	}
	if cfg.Ledger.LockTTL == 0 {
		cfg.Ledger.LockTTL = 10 * time.Second
	}
	if cfg.Ledger.LockWait == 0 {
		cfg.Ledger.LockWait = 3 * time.Second
	}
	applyStockHealthDefaults(&cfg.StockHealth)
	if cfg.Kafka.TopicPrefix == "" {
		cfg.Kafka.TopicPrefix = "boxstock"
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 50 * time.Millisecond
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 5 * time.Second
	}
	if cfg.Kafka.BreakerMaxFails == 0 {
		cfg.Kafka.BreakerMaxFails = 5
	}
	if cfg.Kafka.BreakerOpenFor == 0 {
		cfg.Kafka.BreakerOpenFor = 30 * time.Second
	}
	if cfg.Kafka.BreakerHalfOpenN == 0 {
		cfg.Kafka.BreakerHalfOpenN = 1
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func applyStockHealthDefaults(sh *StockHealthConfig) {
	if sh.FastMoverRate == 0 {
		sh.FastMoverRate = 1
	}
	if sh.FastCoverDays == 0 {
		sh.FastCoverDays = 14
	}
	if sh.SlowCoverDays == 0 {
		sh.SlowCoverDays = 7
	}
	if sh.MinThresholdBoxes == 0 {
		sh.MinThresholdBoxes = 1
	}
	if sh.CriticalRatio == 0 {
		sh.CriticalRatio = 1
	}
	if sh.WarningRatio == 0 {
		sh.WarningRatio = 1.5
	}
	if sh.AttentionRatio == 0 {
		sh.AttentionRatio = 2
	}
	if sh.MinIdleDays == 0 {
		sh.MinIdleDays = 21
	}
	if sh.LookbackWindow == "" {
		sh.LookbackWindow = "month"
	}
	if sh.ReturnCriticalDays == 0 {
		sh.ReturnCriticalDays = 90
	}
	if sh.ReturnHighDays == 0 {
		sh.ReturnHighDays = 60
	}
	if sh.ReturnMediumDays == 0 {
		sh.ReturnMediumDays = 35
	}
}

// validate reports every invalid setting at once
func (c *Config) validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Database.MaxOpenConns <= 0 {
		add("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		add("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		add("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			add("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			add("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				add("http.cors_allow_origins cannot be '*' in production (use specific origins)")
				break
			}
		}
		if c.Telemetry.DBLogFullSQL {
			add("telemetry.db_log_full_sql must be false in production")
		}
		if c.Swagger.Enabled && len(c.Swagger.AllowedIPs) == 0 {
			add("swagger must be disabled or restricted with swagger.allowed_ips in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		add("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	switch c.Ledger.LockBackend {
	case LockBackendLocal, LockBackendRedis:
	default:
		add("ledger.lock_backend must be %q or %q, got %q", LockBackendLocal, LockBackendRedis, c.Ledger.LockBackend)
	}
	if c.Ledger.LockBackend == LockBackendRedis && c.Ledger.LockTTL <= c.Ledger.LockWait {
		add("ledger.lock_ttl (%s) must exceed ledger.lock_wait (%s)", c.Ledger.LockTTL, c.Ledger.LockWait)
	}

	sh := c.StockHealth
	if !(sh.CriticalRatio < sh.WarningRatio && sh.WarningRatio < sh.AttentionRatio) {
		add("stock_health ratios must increase: critical %.2f < warning %.2f < attention %.2f",
			sh.CriticalRatio, sh.WarningRatio, sh.AttentionRatio)
	}
	if !(sh.ReturnMediumDays < sh.ReturnHighDays && sh.ReturnHighDays < sh.ReturnCriticalDays) {
		add("stock_health return days must increase: medium %d < high %d < critical %d",
			sh.ReturnMediumDays, sh.ReturnHighDays, sh.ReturnCriticalDays)
	}
	switch strings.ToLower(sh.LookbackWindow) {
	case "day", "week", "month", "year":
	default:
		add("stock_health.lookback_window must be day, week, month or year, got %q", sh.LookbackWindow)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		add("kafka.brokers is required when kafka.enabled is true")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		add("metrics.path must start with '/', got %q", c.Metrics.Path)
	}

	return errors.Join(errs...)
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
