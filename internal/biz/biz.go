// Package biz contains the business logic of the security and reliability
// layer: authentication with lockout, request deduplication, cooldowns,
// the audit log, webhook delivery and session health monitoring.
package biz

import "github.com/google/wire"

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewAuthGuardUseCase,
	NewDeduplicatorUseCase,
	NewCooldownTrackerUseCase,
	NewAuditLogUseCase,
	NewRateLimiterUseCase,
	NewWebhookNotifierUseCase,
	NewSessionMonitorUseCase,
	NewRankerUseCase,
)
