package flow

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/unhappyben/silo-goat-arbitrage/internal/chain"
	"github.com/unhappyben/silo-goat-arbitrage/internal/odos"
	"github.com/unhappyben/silo-goat-arbitrage/internal/plan"
	"github.com/unhappyben/silo-goat-arbitrage/internal/strategy"
	"github.com/unhappyben/silo-goat-arbitrage/internal/token"
)

// submitAndWait 执行单笔交易步骤的公共生命周期：
// awaiting_signature → 广播 → pending → 等待回执 → confirmed/failed。
func (o *Orchestrator) submitAndWait(ctx context.Context, step plan.Step, to common.Address, data []byte, value *big.Int, timeout time.Duration, failMsg string) {
	o.setStatus(ctx, step, StatusAwaitingSignature)

	hash, err := o.tx.Send(ctx, to, data, value)
	if err != nil {
		o.fail(ctx, step, failMsg, err)
		return
	}

	o.setStatus(ctx, step, StatusPending)

	if _, err := o.tx.WaitReceipt(ctx, hash, timeout); err != nil {
		o.fail(ctx, step, failMsg, err)
		return
	}

	o.setStatus(ctx, step, StatusConfirmed)
}

// runMarketApproval 授权 Silo 路由器使用存入资产。
func (o *Orchestrator) runMarketApproval(ctx context.Context, step plan.Step) {
	cfg := o.Config()
	if cfg.DepositAmount == "" || cfg.Market.MarketAddress == (common.Address{}) {
		return
	}

	depositSym := cfg.DepositToken()
	if token.IsNative(depositSym) {
		// 原生资产无需授权，直接确认。
		o.setStatus(ctx, step, StatusConfirmed)
		return
	}

	data, err := chain.PackApprove(token.SiloRouter, token.MaxApproval)
	if err != nil {
		o.fail(ctx, step, "Failed to approve deposit. Please try again.", err)
		return
	}

	o.submitAndWait(ctx, step, token.Address(depositSym), data, nil, 0,
		"Failed to approve deposit. Please try again.")
}

// runDepositBorrow 向 Silo 路由器提交存入+借出的批量动作，
// 存入原生资产时将金额附带在交易 value 上。
func (o *Orchestrator) runDepositBorrow(ctx context.Context, step plan.Step) {
	cfg := o.Config()
	if cfg.DepositAmount == "" || cfg.BorrowAmount == "" || cfg.Market.MarketAddress == (common.Address{}) {
		return
	}

	depositSym := cfg.DepositToken()
	depositAmount, err := token.ParseTokenAmount(cfg.DepositAmount, depositSym)
	if err != nil {
		o.fail(ctx, step, "Failed to deposit and borrow. Please try again.", err)
		return
	}

	borrowSym := cfg.BorrowAsset
	if cfg.Type == strategy.TypeDeposit {
		borrowSym = token.USDCe
	}
	borrowAmount, err := token.ParseTokenAmount(cfg.BorrowAmount, borrowSym)
	if err != nil {
		o.fail(ctx, step, "Failed to deposit and borrow. Please try again.", err)
		return
	}

	actions := []chain.SiloAction{
		{
			ActionType: chain.SiloActionDeposit,
			Silo:       cfg.Market.MarketAddress,
			Asset:      token.Address(depositSym),
			Amount:     depositAmount,
		},
		{
			ActionType: chain.SiloActionBorrow,
			Silo:       cfg.Market.MarketAddress,
			Asset:      token.Address(borrowSym),
			Amount:     borrowAmount,
		},
	}

	data, err := chain.PackSiloExecute(actions)
	if err != nil {
		o.fail(ctx, step, "Failed to deposit and borrow. Please try again.", err)
		return
	}

	value := new(big.Int)
	if token.IsNative(depositSym) {
		value = depositAmount
	}

	o.submitAndWait(ctx, step, token.SiloRouter, data, value, 0,
		"Failed to deposit and borrow. Please try again.")
}

// runWrap 把借出的原生资产包装为 WETH，金额通过交易 value 附带。
func (o *Orchestrator) runWrap(ctx context.Context, step plan.Step) {
	cfg := o.Config()
	if cfg.BorrowAmount == "" || !cfg.NeedsWrap() {
		return
	}

	amount, err := token.ParseTokenAmount(cfg.BorrowAmount, token.ETH)
	if err != nil {
		o.fail(ctx, step, "Failed to wrap ETH to WETH. Please try again.", err)
		return
	}

	data, err := chain.PackWETHDeposit()
	if err != nil {
		o.fail(ctx, step, "Failed to wrap ETH to WETH. Please try again.", err)
		return
	}

	o.submitAndWait(ctx, step, token.Address(token.WETH), data, amount, 0,
		"Failed to wrap ETH to WETH. Please try again.")
}

// runAggregatorApproval 授权 Odos 路由器使用中间代币。
func (o *Orchestrator) runAggregatorApproval(ctx context.Context, step plan.Step) {
	data, err := chain.PackApprove(token.OdosRouter, token.MaxApproval)
	if err != nil {
		o.fail(ctx, step, "Failed to approve USDC.e for Odos. Please try again.", err)
		return
	}

	o.submitAndWait(ctx, step, token.Address(token.USDCe), data, nil, 0,
		"Failed to approve USDC.e for Odos. Please try again.")
}

// runSwap 经聚合器把中间代币兑换为金库结算代币：
// 先报价、再组装，最后广播组装出的交易载荷。
func (o *Orchestrator) runSwap(ctx context.Context, step plan.Step) {
	cfg := o.Config()
	if cfg.BorrowAmount == "" || cfg.Strategy.Vault == (common.Address{}) {
		return
	}

	o.setStatus(ctx, step, StatusAwaitingSignature)

	amount, err := token.ParseTokenAmount(cfg.BorrowAmount, token.USDCe)
	if err != nil {
		o.fail(ctx, step, "Swap failed: "+err.Error(), err)
		return
	}

	inToken := token.Address(token.USDCe)
	outToken := token.Address(cfg.SettlementToken())
	userAddr := o.tx.From()

	quote, err := o.quotes.Quote(ctx, odos.QuoteRequest{
		ChainID:              o.tx.ChainID().Int64(),
		InputTokens:          []odos.InputToken{{TokenAddress: inToken.Hex(), Amount: amount.String()}},
		OutputTokens:         []odos.OutputToken{{TokenAddress: outToken.Hex(), Proportion: 1}},
		UserAddr:             userAddr.Hex(),
		SlippageLimitPercent: o.opts.SlippagePercent,
		ReferralCode:         o.opts.ReferralCode,
		DisableRFQs:          true,
		Compact:              true,
		Paths:                [][]string{{inToken.Hex(), outToken.Hex()}},
	})
	if err != nil {
		o.fail(ctx, step, "Swap failed: "+err.Error(), err)
		return
	}

	assembled, err := o.quotes.Assemble(ctx, odos.AssembleRequest{
		UserAddr: userAddr.Hex(),
		PathID:   quote.PathID,
		Simulate: true,
	})
	if err != nil {
		o.fail(ctx, step, "Swap failed: "+err.Error(), err)
		return
	}

	value, err := assembled.ValueBigInt()
	if err != nil {
		o.fail(ctx, step, "Swap failed: "+err.Error(), err)
		return
	}

	hash, err := o.tx.Send(ctx, common.HexToAddress(assembled.To), common.FromHex(assembled.Data), value)
	if err != nil {
		o.fail(ctx, step, "Swap failed: "+err.Error(), err)
		return
	}

	o.setStatus(ctx, step, StatusPending)

	if _, err := o.tx.WaitReceipt(ctx, hash, o.opts.SwapReceiptTimeout); err != nil {
		o.fail(ctx, step, "Swap failed: "+err.Error(), err)
		return
	}

	o.logger.Info("兑换完成",
		zap.String("path_id", quote.PathID),
		zap.String("out_token", outToken.Hex()),
	)
	o.setStatus(ctx, step, StatusConfirmed)
}

// runVaultApproval 授权目标金库使用结算代币。
func (o *Orchestrator) runVaultApproval(ctx context.Context, step plan.Step) {
	cfg := o.Config()
	if cfg.Strategy.Vault == (common.Address{}) {
		return
	}

	settlement := cfg.SettlementToken()
	data, err := chain.PackApprove(cfg.Strategy.Vault, token.MaxApproval)
	if err != nil {
		o.fail(ctx, step, "Failed to approve vault. Please try again.", err)
		return
	}

	o.submitAndWait(ctx, step, token.Address(settlement), data, nil, 0,
		"Failed to approve vault. Please try again.")
}

// runVaultDeposit 把结算代币存入目标金库，接收方为签名账户。
func (o *Orchestrator) runVaultDeposit(ctx context.Context, step plan.Step) {
	cfg := o.Config()
	if cfg.BorrowAmount == "" || cfg.Strategy.Vault == (common.Address{}) {
		return
	}

	settlement := cfg.SettlementToken()
	amount, err := token.ParseTokenAmount(cfg.BorrowAmount, settlement)
	if err != nil {
		o.fail(ctx, step, "Failed to deposit in vault. Please try again.", err)
		return
	}

	data, err := chain.PackVaultDeposit(amount, o.tx.From())
	if err != nil {
		o.fail(ctx, step, "Failed to deposit in vault. Please try again.", err)
		return
	}

	o.submitAndWait(ctx, step, cfg.Strategy.Vault, data, nil, 0,
		"Failed to deposit in vault. Please try again.")
}
