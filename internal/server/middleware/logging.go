package middleware

import (
	"context"
	"net"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// slowRequestThreshold flags requests worth a second look in the logs.
const slowRequestThreshold = 5 * time.Second

// Logging records method, path, caller IP and duration for every request.
func Logging(logger log.Logger) middleware.Middleware {
	helper := log.NewHelper(logger)

	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			startTime := time.Now()

			var (
				method string
				path   string
				ip     string
			)

			if tr, ok := transport.FromServerContext(ctx); ok {
				method = tr.Operation()
				path = tr.Operation()

				if ht, ok := tr.(http.Transporter); ok {
					httpReq := ht.Request()
					method = httpReq.Method
					path = httpReq.URL.Path
					ip = extractClientIP(httpReq)
				}
			}

			reply, err := handler(ctx, req)

			duration := time.Since(startTime)

			if err != nil {
				helper.Warnw("request rejected",
					"method", method,
					"path", path,
					"ip", ip,
					"duration_ms", duration.Milliseconds(),
					"error", err)
			} else {
				helper.Infow("request completed",
					"method", method,
					"path", path,
					"ip", ip,
					"duration_ms", duration.Milliseconds())
			}

			if duration > slowRequestThreshold {
				helper.Warnw("slow request detected",
					"method", method,
					"path", path,
					"duration_ms", duration.Milliseconds())
			}

			return reply, err
		}
	}
}

// extractClientIP resolves the caller address, preferring proxy headers
// over the socket peer.
func extractClientIP(req *nethttp.Request) string {
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		// The first entry is the original client.
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := req.Header.Get("X-Real-IP"); real != "" {
		return real
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
