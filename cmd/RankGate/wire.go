//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"RankGate/internal/biz"
	"RankGate/internal/conf"
	"RankGate/internal/data"
	"RankGate/internal/server"
	"RankGate/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// confProviderSet exposes the Bootstrap sections to the graph.
var confProviderSet = wire.NewSet(
	wire.FieldsOf(new(*conf.Bootstrap),
		"Server", "Data", "Guard", "Dedup", "Cooldown",
		"RateLimit", "Audit", "Webhook", "Session", "Group",
	),
)

// wireApp init kratos application.
func wireApp(*conf.Bootstrap, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		confProviderSet,
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		server.ProviderSet,
		newSweepCron,
		newApp,
	))
}
