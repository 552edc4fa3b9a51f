package config

import (
	"net"
	"time"
)

// Config holds all configuration for the traffic manager, per SPEC_FULL.md
// 4.M: one section per component plus the ambient Server/Logging stanzas.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Balancer       BalancerConfig       `yaml:"balancer"`
	HealthCheck    HealthCheckConfig    `yaml:"health_check"`
	StickySession  StickySessionConfig  `yaml:"sticky_session"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	RateLimit      RateLimitSetConfig   `yaml:"rate_limit"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	Tracing        TracingConfig        `yaml:"tracing"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration for the proxy front door.
type ServerConfig struct {
	Host            string              `yaml:"host"`
	Port            int                 `yaml:"port"`
	ReadTimeout     time.Duration       `yaml:"read_timeout"`
	WriteTimeout    time.Duration       `yaml:"write_timeout"`
	ShutdownTimeout time.Duration       `yaml:"shutdown_timeout"`
	RequestLimits   ServerRequestLimits `yaml:"request_limits"`
	RateLimits      ServerRateLimits    `yaml:"rate_limits"`
}

// ServerRequestLimits defines request size and validation limits.
type ServerRequestLimits struct {
	MaxBodySize   int64 `yaml:"max_body_size"`
	MaxHeaderSize int64 `yaml:"max_header_size"`
}

// ServerRateLimits carries the client-IP trust settings that util.GetClientIP
// consults when app.go derives the client address. The rate-limit manager's
// own key extraction does not read them. Request throughput limits live in
// RateLimitSetConfig, evaluated by internal/adapter/ratelimit.Manager.
type ServerRateLimits struct {
	TrustProxyHeaders       bool         `yaml:"trust_proxy_headers"`
	TrustedProxyCIDRs       []string     `yaml:"trusted_proxy_cidrs"`
	TrustedProxyCIDRsParsed []*net.IPNet `yaml:"-"`
}

// BalancerConfig selects the selection policy (spec.md 4.E) and carries each
// endpoint's static weight/URL.
type BalancerConfig struct {
	Policy    string           `yaml:"policy"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// EndpointConfig describes one upstream target.
type EndpointConfig struct {
	Name           string  `yaml:"name"`
	URL            string  `yaml:"url"`
	HealthCheckURL string  `yaml:"health_check_url"`
	Weight         float64 `yaml:"weight"`
}

// HealthCheckConfig drives the health checker (spec.md 4.B).
type HealthCheckConfig struct {
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold int32         `yaml:"failure_threshold"`
	SuccessThreshold int32         `yaml:"success_threshold"`
	WorkerCount      int           `yaml:"worker_count"`
}

// StickySessionConfig drives the sticky-session manager (spec.md 4.F).
type StickySessionConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// CircuitBreakerConfig drives the request-path breaker (spec.md 4.G).
type CircuitBreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
	MonitoringPeriod time.Duration `yaml:"monitoring_period"`
	HalfOpenSuccess  int           `yaml:"half_open_success_threshold"`
}

// RateLimitSetConfig holds every named strategy plus the shared exemption
// list consulted before dispatch (spec.md 4.J).
type RateLimitSetConfig struct {
	Strategies []RateLimitStrategyConfig `yaml:"strategies"`
	Exemptions FilterPatternConfig       `yaml:"exemptions"`
}

// RateLimitStrategyConfig is one named strategy entry.
type RateLimitStrategyConfig struct {
	Name                string        `yaml:"name"`
	Type                string        `yaml:"type"` // token_bucket | sliding_window
	Capacity            int64         `yaml:"capacity"`
	RefillRatePerSecond float64       `yaml:"refill_rate_per_second"`
	MaxRequests         int           `yaml:"max_requests"`
	Window              time.Duration `yaml:"window"`
}

// FilterPatternConfig mirrors domain.FilterConfig's include/exclude glob
// lists, kept separate so config unmarshalling doesn't reach into domain.
type FilterPatternConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// MetricsConfig drives the metrics sink and its Prometheus exposition
// (spec.md 4.K, SPEC_FULL.md 4.O).
type MetricsConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Address         string        `yaml:"address"`
	FlushInterval   time.Duration `yaml:"flush_interval"`
	RetentionPeriod time.Duration `yaml:"retention_period"`
}

// TracingConfig drives the W3C tracer and its exporter (spec.md 4.L,
// SPEC_FULL.md 4.P).
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"service_name"`
	SampleRate   float64 `yaml:"sample_rate"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Theme      string `yaml:"theme"`
	LogDir     string `yaml:"log_dir"`
	FileOutput bool   `yaml:"file_output"`
	PrettyLogs bool   `yaml:"pretty_logs"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}
