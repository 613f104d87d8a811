package service

import (
	"context"
	"strings"

	"RankGate/internal/biz"
	"RankGate/internal/model"
	"RankGate/internal/server/middleware"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// RankService exposes the privileged rank-change endpoint.
type RankService struct {
	ranker *biz.RankerUseCase
	logger *log.Helper
}

// NewRankService creates the rank service.
func NewRankService(ranker *biz.RankerUseCase, logger log.Logger) *RankService {
	return &RankService{
		ranker: ranker,
		logger: log.NewHelper(logger),
	}
}

// changeRankRequest is the inbound body for POST /api/v1/rank.
type changeRankRequest struct {
	Action    string `json:"action"`
	UserID    int64  `json:"user_id"`
	Rank      int    `json:"rank,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// changeRankReply wraps a successful result.
type changeRankReply struct {
	Success bool                  `json:"success"`
	Data    *biz.RankChangeResult `json:"data"`
}

// ChangeRank handles POST /api/v1/rank.
func (s *RankService) ChangeRank(ctx http.Context) error {
	var in changeRankRequest
	if err := ctx.Bind(&in); err != nil {
		return errors.BadRequest("INVALID_BODY", "request body is not valid JSON")
	}

	action, err := parseAction(in.Action)
	if err != nil {
		return err
	}
	if in.UserID <= 0 {
		return errors.BadRequest("INVALID_USER", "user_id must be positive")
	}

	req := &biz.RankChangeRequest{
		Action:    action,
		UserID:    in.UserID,
		Rank:      in.Rank,
		RequestID: in.RequestID,
	}

	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		req.CallerIP = middleware.ClientIPFromContext(c)
		return s.ranker.ChangeRank(c, req)
	})

	out, err := h(ctx, &in)
	if err != nil {
		return err
	}

	return ctx.Result(200, &changeRankReply{
		Success: true,
		Data:    out.(*biz.RankChangeResult),
	})
}

func parseAction(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "promote":
		return model.AuditActionPromote, nil
	case "demote":
		return model.AuditActionDemote, nil
	case "setrank", "set_rank":
		return model.AuditActionSetRank, nil
	default:
		return "", errors.BadRequest("INVALID_ACTION", "action must be promote, demote or setrank")
	}
}
