package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unhappyben/silo-goat-arbitrage/internal/config"
	"github.com/unhappyben/silo-goat-arbitrage/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 组装策略会话并驱动主循环，直到收到退出信号。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("策略系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.Int64("chain_id", a.cfg.Chain.ChainID),
		zap.String("strategy", a.cfg.Strategy.Type),
		zap.Bool("auto", a.cfg.Flow.Auto),
	)

	rt, err := newRuntime(ctx, a.cfg, a.logger, a.store)
	if err != nil {
		return err
	}
	defer rt.Close()

	if a.cfg.Server.Port > 0 {
		if err := startServer(ctx, rt, a.cfg.Server.Port, a.logger); err != nil {
			return err
		}
	}

	loopInterval := a.cfg.Flow.LoopInterval
	if loopInterval <= 0 {
		loopInterval = 15 * time.Second
	}

	if err := rt.Tick(ctx); err != nil {
		a.logger.Error("首次推进失败", zap.Error(err))
	}

	ticker := time.NewTicker(loopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("系统异常退出: %w", err)
			}
			a.logger.Info("系统收到退出信号，正在停止")
			return nil
		case <-ticker.C:
			if err := rt.Tick(ctx); err != nil {
				a.logger.Error("流程推进失败", zap.Error(err))
			}
		}
	}
}
