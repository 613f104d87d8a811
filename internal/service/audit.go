package service

import (
	"context"
	"strconv"

	"RankGate/internal/biz"
	"RankGate/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// defaultQueryLimit caps unpaginated audit queries.
const defaultQueryLimit = 50

// AuditService exposes the audit query interface consumed by operator
// tooling and the dashboard.
type AuditService struct {
	audit  *biz.AuditLogUseCase
	logger *log.Helper
}

// NewAuditService creates the audit service.
func NewAuditService(audit *biz.AuditLogUseCase, logger log.Logger) *AuditService {
	return &AuditService{
		audit:  audit,
		logger: log.NewHelper(logger),
	}
}

// Query handles GET /api/v1/audit with optional action, success,
// subject_id, limit and offset query parameters.
func (s *AuditService) Query(ctx http.Context) error {
	q := ctx.Request().URL.Query()

	filter := model.AuditFilter{
		Action:    q.Get("action"),
		SubjectID: q.Get("subject_id"),
		Limit:     defaultQueryLimit,
	}

	if raw := q.Get("success"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err == nil {
			filter.Success = &v
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			filter.Limit = v
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			filter.Offset = v
		}
	}

	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.audit.Query(filter), nil
	})

	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

// Stats handles GET /api/v1/audit/stats.
func (s *AuditService) Stats(ctx http.Context) error {
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.audit.Stats(), nil
	})

	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}
