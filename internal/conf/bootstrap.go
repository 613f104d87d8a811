// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment
// variables, with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies
// defaults, and allows overrides from environment variables prefixed with
// RANKGATE_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
//
// Required environment variables:
//   - RANKGATE_API_KEY or RANKGATE_GUARD_API_KEY: shared API key for privileged calls
//   - GROUP_API_COOKIE or RANKGATE_GROUP_COOKIE: upstream group API session cookie
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("RANKGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow direct environment variable names for the secrets operators
	// already export in deployment environments.
	_ = v.BindEnv("guard.api_key", "RANKGATE_API_KEY", "RANKGATE_GUARD_API_KEY")
	_ = v.BindEnv("group.cookie", "GROUP_API_COOKIE", "RANKGATE_GROUP_COOKIE")
	_ = v.BindEnv("webhook.url", "WEBHOOK_URL", "RANKGATE_WEBHOOK_URL")
	_ = v.BindEnv("data.redis.addr", "RANKGATE_DATA_REDIS_ADDR")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	bc := &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
			},
			Grpc: &Server_GRPC{
				Network: v.GetString("server.grpc.network"),
				Addr:    v.GetString("server.grpc.addr"),
				Timeout: durationpb.New(v.GetDuration("server.grpc.timeout")),
			},
		},
		Data: &Data{
			Redis: &Data_Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  durationpb.New(v.GetDuration("data.redis.read_timeout")),
				WriteTimeout: durationpb.New(v.GetDuration("data.redis.write_timeout")),
			},
		},
		Guard: &Guard{
			ApiKey:        v.GetString("guard.api_key"),
			Allowlist:     v.GetStringSlice("guard.allowlist"),
			LockThreshold: v.GetInt("guard.lock_threshold"),
			LockDuration:  v.GetDuration("guard.lock_duration"),
			AttemptWindow: v.GetDuration("guard.attempt_window"),
			SweepInterval: v.GetDuration("guard.sweep_interval"),
		},
		Dedup: &Dedup{
			Window:     v.GetDuration("dedup.window"),
			MaxEntries: v.GetInt("dedup.max_entries"),
		},
		Cooldown: &Cooldown{
			Duration: v.GetDuration("cooldown.duration"),
		},
		RateLimit: &RateLimit{
			Window: v.GetDuration("ratelimit.window"),
			Max:    v.GetInt("ratelimit.max"),
		},
		Audit: &Audit{
			Cap:    v.GetInt("audit.cap"),
			MaxAge: v.GetDuration("audit.max_age"),
		},
		Webhook: &Webhook{
			Url:              v.GetString("webhook.url"),
			Timeout:          v.GetDuration("webhook.timeout"),
			QueueSize:        v.GetInt("webhook.queue_size"),
			MaxRetries:       v.GetInt("webhook.max_retries"),
			BaseDelay:        v.GetDuration("webhook.base_delay"),
			Backoff:          v.GetString("webhook.backoff"),
			BreakerThreshold: v.GetInt("webhook.breaker_threshold"),
			BreakerReset:     v.GetDuration("webhook.breaker_reset"),
			SocksProxy:       v.GetString("webhook.socks_proxy"),
		},
		Session: &Session{
			ProbeInterval: v.GetDuration("session.probe_interval"),
			FailThreshold: v.GetInt("session.fail_threshold"),
			ProbeTimeout:  v.GetDuration("session.probe_timeout"),
		},
		Group: &Group{
			BaseUrl: v.GetString("group.base_url"),
			GroupId: v.GetInt64("group.group_id"),
			Cookie:  v.GetString("group.cookie"),
			Timeout: v.GetDuration("group.timeout"),
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", 30*time.Second)

	v.SetDefault("server.grpc.network", "tcp")
	v.SetDefault("server.grpc.addr", ":9000")
	v.SetDefault("server.grpc.timeout", 30*time.Second)

	// Data defaults. Redis is optional; an empty addr disables it.
	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.addr", "")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)

	// Guard defaults
	// Note: guard.api_key is required from environment
	v.SetDefault("guard.lock_threshold", 5)
	v.SetDefault("guard.lock_duration", 15*time.Minute)
	v.SetDefault("guard.attempt_window", 5*time.Minute)
	v.SetDefault("guard.sweep_interval", time.Minute)

	// Request pipeline defaults
	v.SetDefault("dedup.window", 5*time.Second)
	v.SetDefault("dedup.max_entries", 2048)
	v.SetDefault("cooldown.duration", 0*time.Second) // disabled unless configured
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("ratelimit.max", 30)

	// Audit defaults
	v.SetDefault("audit.cap", 500)
	v.SetDefault("audit.max_age", time.Hour)

	// Webhook defaults
	v.SetDefault("webhook.timeout", 10*time.Second)
	v.SetDefault("webhook.queue_size", 100)
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.base_delay", 2*time.Second)
	v.SetDefault("webhook.backoff", "linear")
	v.SetDefault("webhook.breaker_threshold", 5)
	v.SetDefault("webhook.breaker_reset", time.Minute)

	// Session monitor defaults
	v.SetDefault("session.probe_interval", time.Minute)
	v.SetDefault("session.fail_threshold", 3)
	v.SetDefault("session.probe_timeout", 10*time.Second)

	// Group API defaults
	v.SetDefault("group.base_url", "https://groups.roblox.com")
	v.SetDefault("group.timeout", 15*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that all required configuration fields are present and
// valid. It returns an error listing all missing required fields.
func Validate(bc *Bootstrap) error {
	var missingFields []string

	if bc.Guard == nil || bc.Guard.ApiKey == "" {
		missingFields = append(missingFields, "guard.api_key (RANKGATE_API_KEY)")
	}

	if bc.Group == nil || bc.Group.Cookie == "" {
		missingFields = append(missingFields, "group.cookie (GROUP_API_COOKIE)")
	}

	if bc.Group == nil || bc.Group.GroupId == 0 {
		missingFields = append(missingFields, "group.group_id")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missingFields, ", "))
	}

	if bc.Webhook != nil && bc.Webhook.Backoff != "" &&
		bc.Webhook.Backoff != "linear" && bc.Webhook.Backoff != "fixed" {
		return fmt.Errorf("invalid webhook.backoff %q: must be \"linear\" or \"fixed\"", bc.Webhook.Backoff)
	}

	return nil
}
