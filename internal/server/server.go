// Package server wires the Kratos transport servers and the background
// workers (webhook delivery, session monitor, GC sweeps).
package server

import "github.com/google/wire"

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(
	NewHTTPServer,
	NewGRPCServer,
	NewBackground,
)
