package app

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/unhappyben/silo-goat-arbitrage/internal/approval"
	"github.com/unhappyben/silo-goat-arbitrage/internal/chain"
	"github.com/unhappyben/silo-goat-arbitrage/internal/config"
	"github.com/unhappyben/silo-goat-arbitrage/internal/flow"
	"github.com/unhappyben/silo-goat-arbitrage/internal/market"
	"github.com/unhappyben/silo-goat-arbitrage/internal/monitor"
	"github.com/unhappyben/silo-goat-arbitrage/internal/odos"
	"github.com/unhappyben/silo-goat-arbitrage/internal/store"
	"github.com/unhappyben/silo-goat-arbitrage/internal/strategy"
	"github.com/unhappyben/silo-goat-arbitrage/internal/token"
)

// runtime 聚合一次策略会话的全部协作方。
type runtime struct {
	flow    *flow.Orchestrator
	tx      *chain.Transactor
	market  *market.Service
	monitor *monitor.Service
	logger  *zap.Logger

	auto     bool
	finished bool
}

func newRuntime(ctx context.Context, cfg *config.Config, logger *zap.Logger, store *store.Store) (*runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tx, err := chain.NewTransactor(cfg.Chain, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化链上客户端失败: %w", err)
	}

	odosClient, err := odos.NewClient(cfg.Odos, logger)
	if err != nil {
		tx.Close()
		return nil, fmt.Errorf("初始化聚合器客户端失败: %w", err)
	}

	marketClient, err := market.NewClient(cfg.Market, logger)
	if err != nil {
		tx.Close()
		return nil, fmt.Errorf("初始化行情客户端失败: %w", err)
	}
	marketSvc := market.NewService(marketClient, logger)

	monitorSvc, err := monitor.NewService(store, logger)
	if err != nil {
		tx.Close()
		return nil, fmt.Errorf("初始化监控服务失败: %w", err)
	}

	snapshot, err := marketSvc.GetSnapshot(ctx)
	if err != nil {
		tx.Close()
		return nil, fmt.Errorf("拉取行情数据失败: %w", err)
	}
	monitorSvc.RecordMarketSnapshot(ctx, snapshot)

	marketInfo, err := snapshot.SelectMarket(token.Symbol(cfg.Strategy.DepositAsset))
	if err != nil {
		tx.Close()
		return nil, fmt.Errorf("选择借贷市场失败: %w", err)
	}

	strat, err := snapshot.SelectStrategy(strategy.VaultKind(cfg.Strategy.Vault))
	if err != nil {
		tx.Close()
		return nil, fmt.Errorf("选择金库策略失败: %w", err)
	}

	strategyCfg, err := strategy.NewConfig(cfg.Strategy, marketInfo, strat)
	if err != nil {
		tx.Close()
		return nil, err
	}

	logFields := []zap.Field{
		zap.String("market", string(strategyCfg.Market.Symbol)),
		zap.String("vault", string(strategyCfg.Strategy.Kind)),
	}
	deposit, depositErr := strconv.ParseFloat(strategyCfg.DepositAmount, 64)
	borrow, borrowErr := strconv.ParseFloat(strategyCfg.BorrowAmount, 64)
	if depositErr == nil && borrowErr == nil {
		if annual, yieldErr := strategy.NetAnnualYield(marketInfo, strat, deposit, borrow); yieldErr == nil {
			logFields = append(logFields, zap.Float64("net_annual_yield", annual))
		}
	}
	logger.Info("策略会话已组装", logFields...)

	marketChecker := approval.NewChecker(tx, strategyCfg.DepositToken(), token.SiloRouter, logger)
	vaultChecker := approval.NewChecker(tx, strategyCfg.SettlementToken(), strategyCfg.Strategy.Vault, logger)
	logger.Info("授权检查器已就绪",
		zap.String("deposit_token", string(marketChecker.Symbol())),
		zap.String("settlement_token", string(vaultChecker.Symbol())),
	)

	orch := flow.NewOrchestrator(strategyCfg, flow.Options{
		AdvanceDelay:       cfg.Flow.AdvanceDelay,
		SwapReceiptTimeout: cfg.Odos.SwapReceiptTimeout,
		SlippagePercent:    cfg.Odos.SlippagePercent,
		ReferralCode:       cfg.Odos.ReferralCode,
	}, flow.Deps{
		Transactor:     tx,
		Quotes:         odosClient,
		MarketApproval: marketChecker,
		VaultApproval:  vaultChecker,
		Monitor:        monitorSvc,
		Logger:         logger,
	})

	orch.EvaluateAutoConfirm(ctx)

	return &runtime{
		flow:    orch,
		tx:      tx,
		market:  marketSvc,
		monitor: monitorSvc,
		logger:  logger,
		auto:    cfg.Flow.Auto,
	}, nil
}

// Tick 推进一次流程：先评估免交易确认，自动模式下执行当前步骤。
// 当前步骤失败后自动模式停止，重试只能由人工显式触发。
func (r *runtime) Tick(ctx context.Context) error {
	r.flow.EvaluateAutoConfirm(ctx)

	snap := r.flow.Snapshot()
	if flowComplete(snap) {
		if !r.finished {
			r.finished = true
			r.logger.Info("全部步骤已确认，流程完成",
				zap.Int("total_steps", snap.TotalSteps),
			)
		}
		return nil
	}

	if !r.auto {
		return nil
	}

	current := stepView(snap, snap.CurrentStep)
	if current == nil || !current.Enabled || current.Status.InFlight() {
		return nil
	}

	// 失败的步骤不自动重试，停掉自动模式等待人工重新触发。
	if current.Status == flow.StatusFailed {
		r.auto = false
		r.logger.Warn("当前步骤处于失败状态，自动模式已停止",
			zap.Int("step", current.ID),
			zap.String("last_error", r.flow.LastError()),
		)
		return nil
	}

	status := r.flow.RunStep(ctx, current.ID)
	if status == flow.StatusFailed {
		r.auto = false
		return fmt.Errorf("步骤 %d 执行失败，自动模式已停止: %s", current.ID, r.flow.LastError())
	}
	return nil
}

func (r *runtime) Close() {
	r.tx.Close()
}

func flowComplete(snap flow.Snapshot) bool {
	for _, step := range snap.Steps {
		if step.Status != flow.StatusConfirmed {
			return false
		}
	}
	return len(snap.Steps) > 0
}

func stepView(snap flow.Snapshot, id int) *flow.StepView {
	for i := range snap.Steps {
		if snap.Steps[i].ID == id {
			return &snap.Steps[i]
		}
	}
	return nil
}
