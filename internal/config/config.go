package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	DefaultPort = 19841
	DefaultHost = "localhost"

	// DefaultFileWriteDelay gives editors time to finish writing before the
	// reload fires; matches the teacher's olla.log rename-then-write pattern.
	DefaultFileWriteDelay = 150 * time.Millisecond
)

var (
	lastReload  time.Time
	reloadMutex sync.Mutex
)

// DefaultConfig returns a configuration with sensible defaults for every
// SPEC_FULL.md 4.M section.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Balancer: BalancerConfig{
			Policy: "round-robin",
			Endpoints: []EndpointConfig{
				{
					Name:           "local",
					URL:            "http://localhost:11434",
					HealthCheckURL: "http://localhost:11434/health",
					Weight:         1.0,
				},
			},
		},
		HealthCheck: HealthCheckConfig{
			Interval:         30 * time.Second,
			Timeout:          5 * time.Second,
			FailureThreshold: 2,
			SuccessThreshold: 3,
			WorkerCount:      10,
		},
		StickySession: StickySessionConfig{
			Enabled: false,
			TTL:     30 * time.Minute,
		},
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  60 * time.Second,
			MonitoringPeriod: 10 * time.Second,
			HalfOpenSuccess:  2,
		},
		RateLimit: RateLimitSetConfig{
			Strategies: []RateLimitStrategyConfig{
				{
					Name:                "default",
					Type:                "token_bucket",
					Capacity:            100,
					RefillRatePerSecond: 10,
				},
			},
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			Address:         ":9090",
			FlushInterval:   30 * time.Second,
			RetentionPeriod: 24 * time.Hour,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			ServiceName:  "edge-utils",
			SampleRate:   0.1,
			OTLPEndpoint: "localhost:4317",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Theme:      "default",
			LogDir:     "./logs",
			FileOutput: true,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		},
	}
}

// Load parses YAML via viper, applies defaults, and watches the resolved
// config file for changes, debouncing onReload per SPEC_FULL.md 4.M.
func Load(path string, onReload func(*Config)) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("EDGEUTILS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if envFile := os.Getenv("EDGEUTILS_CONFIG_FILE"); envFile != "" {
			v.SetConfigFile(envFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", envFile, err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := parseTrustedProxyCIDRs(cfg); err != nil {
		return nil, err
	}

	if onReload != nil {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			reloadMutex.Lock()
			defer reloadMutex.Unlock()

			now := time.Now()
			if now.Sub(lastReload) < 500*time.Millisecond {
				return
			}
			lastReload = now

			// Editors frequently emit the change event before the write
			// finishes; wait out DefaultFileWriteDelay before re-reading.
			time.Sleep(DefaultFileWriteDelay)

			reloaded := DefaultConfig()
			if err := v.Unmarshal(reloaded); err != nil {
				return
			}
			if err := parseTrustedProxyCIDRs(reloaded); err != nil {
				return
			}
			onReload(reloaded)
		})
	}

	return cfg, nil
}

// parseTrustedProxyCIDRs resolves the configured CIDR strings into
// net.IPNet values util.GetClientIP consults.
func parseTrustedProxyCIDRs(cfg *Config) error {
	parsed := make([]*net.IPNet, 0, len(cfg.Server.RateLimits.TrustedProxyCIDRs))
	for _, raw := range cfg.Server.RateLimits.TrustedProxyCIDRs {
		_, ipNet, err := net.ParseCIDR(raw)
		if err != nil {
			return fmt.Errorf("invalid trusted proxy CIDR %q: %w", raw, err)
		}
		parsed = append(parsed, ipNet)
	}
	cfg.Server.RateLimits.TrustedProxyCIDRsParsed = parsed
	return nil
}
