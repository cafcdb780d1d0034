package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"crosspost/internal/executor"
	"crosspost/internal/server"
	"crosspost/pkg/config"
	"crosspost/pkg/db"
	"crosspost/pkg/gen"
	"crosspost/pkg/health"
	"crosspost/pkg/logger"
	"crosspost/pkg/redis"
	httpserver "crosspost/pkg/server"
	"crosspost/services/intent"
	"crosspost/services/publish"
	"crosspost/services/schema"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		db.Module,
		gen.Module,
		redis.Module,
		health.Module,

		schema.Module,
		intent.Module,
		executor.Module,
		publish.Module,

		httpserver.ProvideHTTPServer,
		server.Module,

		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
