package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"RankGate/internal/biz"
	"RankGate/internal/conf"
	"RankGate/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/net/proxy"
)

const webhookUserAgent = "RankGate/1.0"

// httpWebhookSender implements biz.WebhookSender with an HTTP POST to the
// single configured sink. Retry and breaker policy live in the biz layer;
// this type only reports whether one delivery attempt succeeded.
type httpWebhookSender struct {
	url    string
	client *http.Client
	logger *log.Helper
}

// NewWebhookSender creates the HTTP webhook sender. Egress can go through
// a SOCKS5 proxy when one is configured.
func NewWebhookSender(c *conf.Webhook, logger log.Logger) (biz.WebhookSender, error) {
	client, err := newHTTPClient(c.SocksProxy, c.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook HTTP client: %w", err)
	}

	return &httpWebhookSender{
		url:    c.Url,
		client: client,
		logger: log.NewHelper(logger),
	}, nil
}

// Deliver POSTs the payload as JSON. Any non-2xx status is a failure.
func (s *httpWebhookSender) Deliver(ctx context.Context, payload *model.WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webhookUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook sink returned status %d", resp.StatusCode)
	}

	return nil
}

// newHTTPClient creates an HTTP client with an explicit timeout, optionally
// dialing through a SOCKS5 proxy.
func newHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	if proxyURL == "" {
		return &http.Client{Timeout: timeout}, nil
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	if parsed.Scheme != "socks5" {
		return nil, fmt.Errorf("unsupported proxy scheme: %s", parsed.Scheme)
	}

	var auth *proxy.Auth
	if parsed.User != nil {
		password, _ := parsed.User.Password()
		auth = &proxy.Auth{
			User:     parsed.User.Username(),
			Password: password,
		}
	}

	dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return &http.Client{
		Transport: &http.Transport{
			Dial: dialer.Dial,
		},
		Timeout: timeout,
	}, nil
}
