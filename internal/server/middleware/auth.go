// Package middleware provides HTTP middleware for authentication, rate
// limiting and request logging.
package middleware

import (
	"context"
	"strings"

	"RankGate/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const clientIPContextKey contextKey = "client_ip"

// ClientIPFromContext returns the caller IP stored by the Auth middleware.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey).(string)
	return ip
}

// Auth verifies the shared API key and applies the per-IP rate limit
// before any handler runs. The guard's ordering is deliberate: allowlist
// and lockout checks happen inside Verify, rate limiting only after the
// caller proved it holds the key.
func Auth(guard *biz.AuthGuardUseCase, limiter *biz.RateLimiterUseCase, logger log.Logger) middleware.Middleware {
	helper := log.NewHelper(logger)

	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			var (
				apiKey string
				ip     string
			)

			if tr, ok := transport.FromServerContext(ctx); ok {
				if ht, ok := tr.(http.Transporter); ok {
					httpReq := ht.Request()

					authHeader := httpReq.Header.Get("Authorization")
					if authHeader != "" {
						apiKey = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
					}
					if apiKey == "" {
						apiKey = httpReq.Header.Get("X-API-Key")
					}

					ip = extractClientIP(httpReq)
				}
			}

			if err := guard.Verify(ip, apiKey); err != nil {
				helper.Warnw("rejected privileged request",
					"ip", ip,
					"error", err)
				return nil, err
			}

			if err := limiter.Check(ctx, ip); err != nil {
				return nil, err
			}

			ctx = context.WithValue(ctx, clientIPContextKey, ip)
			return handler(ctx, req)
		}
	}
}
