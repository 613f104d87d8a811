package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"RankGate/internal/biz"
	"RankGate/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// groupAPIClient implements biz.GroupClient against the external
// group-management API, authenticating with the operator's session cookie.
// Whether a rank transition is allowed is the upstream's decision.
type groupAPIClient struct {
	baseURL string
	groupID int64
	cookie  string
	client  *http.Client
	logger  *log.Helper
}

// NewGroupClient creates the group API client from configuration.
func NewGroupClient(c *conf.Group, logger log.Logger) biz.GroupClient {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &groupAPIClient{
		baseURL: c.BaseUrl,
		groupID: c.GroupId,
		cookie:  c.Cookie,
		client:  &http.Client{Timeout: timeout},
		logger:  log.NewHelper(logger),
	}
}

type memberRoleResponse struct {
	Role struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Rank int    `json:"rank"`
	} `json:"role"`
}

// GetMemberRank returns the member's current rank in the configured group.
func (c *groupAPIClient) GetMemberRank(ctx context.Context, userID int64) (int, error) {
	endpoint := fmt.Sprintf("%s/v1/groups/%d/users/%d", c.baseURL, c.groupID, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build member lookup request: %w", err)
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("member lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("user %d is not a member of group %d", userID, c.groupID)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("group API returned status %d for member lookup", resp.StatusCode)
	}

	var body memberRoleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode member lookup response: %w", err)
	}

	return body.Role.Rank, nil
}

// SetMemberRank moves the member to the given rank.
func (c *groupAPIClient) SetMemberRank(ctx context.Context, userID int64, rank int) error {
	endpoint := fmt.Sprintf("%s/v1/groups/%d/users/%d", c.baseURL, c.groupID, userID)

	payload, err := json.Marshal(map[string]int{"rank": rank})
	if err != nil {
		return fmt.Errorf("failed to marshal rank update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build rank update request: %w", err)
	}
	c.decorate(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("rank update failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("group API returned status %d for rank update", resp.StatusCode)
	}

	c.logger.Debugw("rank updated upstream", "user_id", userID, "rank", rank)
	return nil
}

func (c *groupAPIClient) decorate(req *http.Request) {
	req.Header.Set("User-Agent", webhookUserAgent)
	req.AddCookie(&http.Cookie{Name: ".ROBLOSECURITY", Value: c.cookie})
}
