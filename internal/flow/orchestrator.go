package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unhappyben/silo-goat-arbitrage/internal/plan"
	"github.com/unhappyben/silo-goat-arbitrage/internal/strategy"
	"github.com/unhappyben/silo-goat-arbitrage/internal/token"
)

// ErrFlowBusy 表示存在签名中或等待上链的步骤，拒绝重置配置。
var ErrFlowBusy = errors.New("flow: 存在进行中的步骤，无法重置配置")

// Orchestrator 是多步交易流程的状态机。
// 配置在构造/重置时快照锁定，步骤动作只读取快照。
type Orchestrator struct {
	mu      sync.Mutex
	cfg     strategy.Config
	steps   []plan.Step
	states  map[int]Status
	running map[int]bool
	current int
	lastErr string

	opts           Options
	tx             transactor
	quotes         quoteClient
	marketApproval approvalChecker
	vaultApproval  approvalChecker
	monitor        recorder
	logger         *zap.Logger
}

// Deps 聚合编排器的外部协作方。
type Deps struct {
	Transactor     transactor
	Quotes         quoteClient
	MarketApproval approvalChecker
	VaultApproval  approvalChecker
	Monitor        recorder
	Logger         *zap.Logger
}

// NewOrchestrator 按策略配置生成步骤序列并初始化状态机。
func NewOrchestrator(cfg strategy.Config, opts Options, deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.AdvanceDelay < 0 {
		opts.AdvanceDelay = 0
	}
	if opts.SwapReceiptTimeout <= 0 {
		opts.SwapReceiptTimeout = 60 * time.Second
	}
	if opts.SlippagePercent <= 0 {
		opts.SlippagePercent = 1.0
	}

	return &Orchestrator{
		cfg:            cfg,
		steps:          plan.Plan(cfg),
		states:         make(map[int]Status),
		running:        make(map[int]bool),
		current:        1,
		opts:           opts,
		tx:             deps.Transactor,
		quotes:         deps.Quotes,
		marketApproval: deps.MarketApproval,
		vaultApproval:  deps.VaultApproval,
		monitor:        deps.Monitor,
		logger:         logger,
	}
}

// Reset 以新配置重建步骤序列。若有步骤正在进行则拒绝，
// 避免在途交易的状态挂到错位的步骤编号上。
func (o *Orchestrator) Reset(cfg strategy.Config) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.running) > 0 {
		return ErrFlowBusy
	}
	for _, status := range o.states {
		if status.InFlight() {
			return ErrFlowBusy
		}
	}

	o.cfg = cfg
	o.steps = plan.Plan(cfg)
	o.states = make(map[int]Status)
	o.current = 1
	o.lastErr = ""
	return nil
}

// Config 返回当前配置快照。
func (o *Orchestrator) Config() strategy.Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}

// CurrentStep 返回当前步骤编号。
func (o *Orchestrator) CurrentStep() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// LastError 返回最近一次失败的可读信息。
func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// StepStatus 返回指定步骤的状态，未记录视为 idle。
func (o *Orchestrator) StepStatus(id int) Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statusLocked(id)
}

func (o *Orchestrator) statusLocked(id int) Status {
	if status, ok := o.states[id]; ok {
		return status
	}
	return StatusIdle
}

// Snapshot 生成暴露给界面层的流程视图。
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	cfg := o.cfg
	steps := make([]plan.Step, len(o.steps))
	copy(steps, o.steps)
	current := o.current
	lastErr := o.lastErr
	statuses := make(map[int]Status, len(o.states))
	for id, status := range o.states {
		statuses[id] = status
	}
	o.mu.Unlock()

	views := make([]StepView, 0, len(steps))
	for _, step := range steps {
		status, ok := statuses[step.ID]
		if !ok {
			status = StatusIdle
		}
		views = append(views, StepView{
			ID:          step.ID,
			Kind:        string(step.Kind),
			Title:       step.Title,
			Description: step.Description,
			Status:      status,
			Enabled:     o.stepEnabled(cfg, step, current),
		})
	}

	return Snapshot{
		Steps:       views,
		CurrentStep: current,
		TotalSteps:  len(steps),
		LastError:   lastErr,
	}
}

// stepEnabled 计算步骤的前置条件门控。
func (o *Orchestrator) stepEnabled(cfg strategy.Config, step plan.Step, current int) bool {
	switch step.Kind {
	case plan.KindMarketApproval:
		return cfg.DepositAmount != "" && o.marketApproval.HasBalance(cfg.DepositAmount)
	case plan.KindDepositBorrow:
		return token.IsNative(cfg.DepositToken()) || o.marketApproval.HasApproval(cfg.DepositAmount)
	default:
		return current == step.ID
	}
}

// EvaluateAutoConfirm 在显式时机检查第一步是否可免交易直接确认：
// 原生资产无需授权，已有授权覆盖存入金额时同样跳过。
// 已确认的步骤不会被回退。
func (o *Orchestrator) EvaluateAutoConfirm(ctx context.Context) {
	o.mu.Lock()
	cfg := o.cfg
	if len(o.steps) == 0 || o.steps[0].Kind != plan.KindMarketApproval {
		o.mu.Unlock()
		return
	}
	first := o.steps[0]
	if o.statusLocked(first.ID) == StatusConfirmed {
		o.mu.Unlock()
		return
	}
	// 第一步已被派发时不抢写状态。
	if o.running[first.ID] || o.statusLocked(first.ID).InFlight() {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	if cfg.DepositAmount == "" || cfg.DepositAmount == "0" {
		return
	}

	if !token.IsNative(cfg.DepositToken()) {
		if err := o.marketApproval.Refresh(ctx); err != nil {
			o.logger.Warn("刷新授权状态失败", zap.Error(err))
			return
		}
		if !o.marketApproval.HasApproval(cfg.DepositAmount) {
			return
		}
	}

	o.logger.Info("存入资产无需新授权，第一步自动确认",
		zap.String("asset", string(cfg.DepositToken())),
	)
	o.setStatus(ctx, first, StatusConfirmed)
}

// RunStep 执行指定步骤的动作并返回最终状态。
// 动作内的所有异常都在此层收敛为 failed 状态，不向外传播。
// 步骤占位与状态检查在同一把锁内完成，并发触发同一步骤只会派发一次。
func (o *Orchestrator) RunStep(ctx context.Context, id int) Status {
	o.mu.Lock()
	var step plan.Step
	found := false
	for _, s := range o.steps {
		if s.ID == id {
			step = s
			found = true
			break
		}
	}
	if !found {
		o.mu.Unlock()
		o.logger.Warn("忽略未知步骤", zap.Int("step", id))
		return StatusIdle
	}
	if o.statusLocked(id).InFlight() || o.running[id] {
		o.mu.Unlock()
		o.logger.Warn("步骤正在进行中，忽略重复触发", zap.Int("step", id))
		return o.StepStatus(id)
	}
	// 在锁内占位，覆盖动作写入 awaiting_signature 之前的窗口。
	o.running[id] = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.running, id)
		o.mu.Unlock()
	}()

	switch step.Kind {
	case plan.KindMarketApproval:
		o.runMarketApproval(ctx, step)
	case plan.KindDepositBorrow:
		o.runDepositBorrow(ctx, step)
	case plan.KindWrap:
		o.runWrap(ctx, step)
	case plan.KindAggregatorApproval:
		o.runAggregatorApproval(ctx, step)
	case plan.KindSwap:
		o.runSwap(ctx, step)
	case plan.KindVaultApproval:
		o.runVaultApproval(ctx, step)
	case plan.KindVaultDeposit:
		o.runVaultDeposit(ctx, step)
	}

	return o.StepStatus(id)
}

// setStatus 按步骤编号合并写入状态，confirmed 时调度推进。
func (o *Orchestrator) setStatus(ctx context.Context, step plan.Step, status Status) {
	o.mu.Lock()
	o.states[step.ID] = status
	o.mu.Unlock()

	o.logger.Info("步骤状态变更",
		zap.Int("step", step.ID),
		zap.String("kind", string(step.Kind)),
		zap.String("status", string(status)),
	)
	if o.monitor != nil {
		o.monitor.RecordStep(ctx, step, status)
	}

	if status == StatusConfirmed {
		o.scheduleAdvance()
	}
}

// scheduleAdvance 在固定延迟后把当前步骤推进到
// 已确认最高编号的下一步。currentStep 只增不减。
func (o *Orchestrator) scheduleAdvance() {
	advance := func() {
		o.mu.Lock()
		defer o.mu.Unlock()

		highest := 0
		for id, status := range o.states {
			if status == StatusConfirmed && id > highest {
				highest = id
			}
		}
		next := highest + 1
		if next > o.current && next <= len(o.steps) {
			o.current = next
			o.logger.Info("流程推进", zap.Int("current_step", next))
		}
	}

	if o.opts.AdvanceDelay <= 0 {
		advance()
		return
	}
	time.AfterFunc(o.opts.AdvanceDelay, advance)
}

// fail 把步骤置为失败并记录最新错误信息（仅保留最近一条）。
func (o *Orchestrator) fail(ctx context.Context, step plan.Step, msg string, err error) {
	o.setStatus(ctx, step, StatusFailed)

	o.mu.Lock()
	o.lastErr = msg
	o.mu.Unlock()

	o.logger.Error("步骤执行失败",
		zap.Int("step", step.ID),
		zap.String("kind", string(step.Kind)),
		zap.String("message", msg),
		zap.Error(err),
	)
	if o.monitor != nil {
		o.monitor.RecordFlowError(ctx, step, msg, err)
	}
}
