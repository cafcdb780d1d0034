package publish

import (
	"context"

	"crosspost/internal/executor"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("publish.module",
	fx.Provide(
		NewBus,
		NewLimiter,
		NewService,
		NewReconciler,
	),
	fx.Invoke(
		autoMigrate,
		runReconciler,
	),
)

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Task{})
}

type reconcilerParams struct {
	fx.In
	Lifecycle  fx.Lifecycle
	Reconciler *Reconciler
	Dispatcher *executor.Dispatcher
}

func runReconciler(p reconcilerParams) {
	ctx, cancel := context.WithCancel(context.Background())
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go p.Reconciler.Run(ctx, p.Dispatcher.Events())
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
