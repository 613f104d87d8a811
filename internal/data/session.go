package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"RankGate/internal/biz"
	"RankGate/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// authenticatedUserURL asks the platform who the session cookie currently
// authenticates as. The monitor compares the answer against the principal
// recorded at startup.
const authenticatedUserURL = "https://users.roblox.com/v1/users/authenticated"

type authenticatedUserResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewSessionProbe creates the biz.SessionProbe that validates the cached
// upstream session. The probe carries its own HTTP timeout; the monitor
// adds a context deadline on top.
func NewSessionProbe(c *conf.Group, sc *conf.Session, logger log.Logger) biz.SessionProbe {
	helper := log.NewHelper(logger)

	timeout := sc.ProbeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, authenticatedUserURL, nil)
		if err != nil {
			return "", fmt.Errorf("failed to build session probe request: %w", err)
		}
		req.Header.Set("User-Agent", webhookUserAgent)
		req.AddCookie(&http.Cookie{Name: ".ROBLOSECURITY", Value: c.Cookie})

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("session probe failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			return "", fmt.Errorf("session cookie is no longer valid (status 401)")
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("session probe returned status %d", resp.StatusCode)
		}

		var body authenticatedUserResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("failed to decode session probe response: %w", err)
		}

		helper.Debugw("session probe succeeded", "principal", body.Name)
		return strconv.FormatInt(body.ID, 10), nil
	}
}
