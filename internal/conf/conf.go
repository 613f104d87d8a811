package conf

import (
	"time"

	"google.golang.org/protobuf/types/known/durationpb"
)

// Bootstrap is the root configuration for the service.
type Bootstrap struct {
	Server    *Server
	Data      *Data
	Guard     *Guard
	Dedup     *Dedup
	Cooldown  *Cooldown
	RateLimit *RateLimit
	Audit     *Audit
	Webhook   *Webhook
	Session   *Session
	Group     *Group
	Log       *Log
}

// Server holds transport listener configuration.
type Server struct {
	Http *Server_HTTP
	Grpc *Server_GRPC
}

// Server_HTTP configures the HTTP listener.
type Server_HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Server_GRPC configures the gRPC listener.
type Server_GRPC struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Data holds data layer configuration.
type Data struct {
	Redis *Data_Redis
}

// Data_Redis configures the optional Redis connection used by the rate
// limiter. An empty Addr disables Redis entirely.
type Data_Redis struct {
	Network      string
	Addr         string
	ReadTimeout  *durationpb.Duration
	WriteTimeout *durationpb.Duration
}

// Guard configures authentication and brute-force lockout.
type Guard struct {
	// ApiKey is the shared secret expected on privileged calls.
	ApiKey string
	// Allowlist restricts callers to these IPs when non-empty.
	Allowlist []string
	// LockThreshold is the failed-attempt count that triggers a lockout.
	LockThreshold int
	// LockDuration is how long a locked IP stays rejected.
	LockDuration time.Duration
	// AttemptWindow bounds how far back failures count toward the threshold.
	AttemptWindow time.Duration
	// SweepInterval is the cadence of the failed-record GC.
	SweepInterval time.Duration
}

// Dedup configures duplicate-request suppression.
type Dedup struct {
	Window     time.Duration
	MaxEntries int
}

// Cooldown configures the per-subject minimum interval between rank changes.
// A zero duration disables the feature.
type Cooldown struct {
	Duration time.Duration
}

// RateLimit configures the per-IP fixed-window limiter.
type RateLimit struct {
	Window time.Duration
	Max    int
}

// Audit configures the in-memory audit buffer.
type Audit struct {
	Cap    int
	MaxAge time.Duration
}

// Webhook configures outbound notification delivery.
type Webhook struct {
	Url              string
	Timeout          time.Duration
	QueueSize        int
	MaxRetries       int
	BaseDelay        time.Duration
	Backoff          string // "linear" or "fixed"
	BreakerThreshold int
	BreakerReset     time.Duration
	SocksProxy       string
}

// Session configures the upstream session health monitor.
type Session struct {
	ProbeInterval time.Duration
	FailThreshold int
	ProbeTimeout  time.Duration
}

// Group configures the external group-management API client.
type Group struct {
	BaseUrl string
	GroupId int64
	Cookie  string
	Timeout time.Duration
}

// Log configures the Zap logger.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}
