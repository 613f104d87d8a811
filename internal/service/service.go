// Package service implements the HTTP handler layer. Handlers bind
// requests, run them through the server middleware chain, and translate
// use-case results into response bodies.
package service

import "github.com/google/wire"

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewRankService,
	NewAuditService,
	NewSessionService,
)
