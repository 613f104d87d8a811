package server

import (
	"encoding/json"
	nethttp "net/http"
	"strconv"

	"RankGate/internal/biz"
	"RankGate/internal/conf"
	"RankGate/internal/server/middleware"
	"RankGate/internal/service"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer creates the HTTP server with the guard chain in front of
// every API route.
func NewHTTPServer(
	c *conf.Server,
	guard *biz.AuthGuardUseCase,
	limiter *biz.RateLimiterUseCase,
	ranker *service.RankService,
	audit *service.AuditService,
	session *service.SessionService,
	logger log.Logger,
) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			middleware.Logging(logger),
			middleware.Auth(guard, limiter, logger),
		),
		http.ErrorEncoder(encodeError),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}
	srv := http.NewServer(opts...)

	r := srv.Route("/api/v1")
	r.POST("/rank", ranker.ChangeRank)
	r.GET("/audit", audit.Query)
	r.GET("/audit/stats", audit.Stats)
	r.GET("/session/health", session.Health)
	r.POST("/session/check", session.ForceCheck)

	return srv
}

// rejectionBody is the structured rejection shape consumed by callers:
// { success: false, error, message, retryAfter? }.
type rejectionBody struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int64  `json:"retryAfter,omitempty"`
}

// encodeError renders every handler error as the structured rejection
// body, carrying the retry hint both in the body and the Retry-After
// header for well-behaved clients.
func encodeError(w nethttp.ResponseWriter, _ *nethttp.Request, err error) {
	se := errors.FromError(err)

	body := rejectionBody{
		Success:    false,
		Error:      se.Reason,
		Message:    se.Message,
		RetryAfter: biz.RetryAfterSeconds(err),
	}

	w.Header().Set("Content-Type", "application/json")
	if body.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(body.RetryAfter, 10))
	}
	w.WriteHeader(int(se.Code))
	_ = json.NewEncoder(w).Encode(body)
}
