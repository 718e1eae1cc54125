package approval

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/unhappyben/silo-goat-arbitrage/internal/chain"
	"github.com/unhappyben/silo-goat-arbitrage/internal/token"
)

type chainClient interface {
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
	From() common.Address
}

// Checker 针对一个 (代币, 被授权方) 组合维护链上授权与余额的缓存视图。
// 原生资产或未设置地址的代币视为无需授权。
type Checker struct {
	client   chainClient
	symbol   token.Symbol
	tokenAdr common.Address
	spender  common.Address
	decimals int
	logger   *zap.Logger

	mu        sync.Mutex
	allowance *big.Int
	balance   *big.Int
}

// NewChecker 创建授权检查器。
func NewChecker(client chainClient, sym token.Symbol, spender common.Address, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		client:   client,
		symbol:   sym,
		tokenAdr: token.Address(sym),
		spender:  spender,
		decimals: token.Decimals(sym),
		logger:   logger,
	}
}

// exempt 为真时该代币没有授权概念。
func (c *Checker) exempt() bool {
	return token.IsNative(c.symbol) || c.tokenAdr == (common.Address{})
}

// Refresh 重新读取链上授权与余额。读取失败只记录日志，
// 缓存保持为空并由查询方法按未授权处理。
func (c *Checker) Refresh(ctx context.Context) error {
	if c.exempt() {
		return nil
	}

	owner := c.client.From()

	allowanceData, err := chain.PackAllowance(owner, c.spender)
	if err != nil {
		return fmt.Errorf("approval: 编码allowance查询失败: %w", err)
	}
	balanceData, err := chain.PackBalanceOf(owner)
	if err != nil {
		return fmt.Errorf("approval: 编码balanceOf查询失败: %w", err)
	}

	raw, err := c.client.Call(ctx, c.tokenAdr, allowanceData)
	if err != nil {
		return fmt.Errorf("approval: 查询授权额度失败: %w", err)
	}
	allowance, err := chain.UnpackUint256("allowance", raw)
	if err != nil {
		return err
	}

	raw, err = c.client.Call(ctx, c.tokenAdr, balanceData)
	if err != nil {
		return fmt.Errorf("approval: 查询余额失败: %w", err)
	}
	balance, err := chain.UnpackUint256("balanceOf", raw)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.allowance = allowance
	c.balance = balance
	c.mu.Unlock()

	c.logger.Debug("授权状态已刷新",
		zap.String("token", string(c.symbol)),
		zap.String("spender", c.spender.Hex()),
		zap.String("allowance", allowance.String()),
		zap.String("balance", balance.String()),
	)

	return nil
}

// HasApproval 判断当前缓存的授权额度是否覆盖给定金额。
// 缓存为空（未读取或读取失败）时返回 false 而非报错。
func (c *Checker) HasApproval(amount string) bool {
	required, err := token.ParseAmount(amount, c.decimals)
	if err != nil {
		return false
	}
	if c.exempt() {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.allowance == nil {
		return false
	}
	return c.allowance.Cmp(required) >= 0
}

// HasBalance 判断当前缓存的余额是否覆盖给定金额。
func (c *Checker) HasBalance(amount string) bool {
	required, err := token.ParseAmount(amount, c.decimals)
	if err != nil {
		return false
	}
	if c.exempt() {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balance == nil {
		return false
	}
	return c.balance.Cmp(required) >= 0
}

// ApproveToken 广播一笔无上限授权交易并刷新缓存视图。
// 无授权概念的代币直接返回零哈希。
func (c *Checker) ApproveToken(ctx context.Context) (common.Hash, error) {
	if c.exempt() {
		return common.Hash{}, nil
	}

	data, err := chain.PackApprove(c.spender, token.MaxApproval)
	if err != nil {
		return common.Hash{}, fmt.Errorf("approval: 编码approve调用失败: %w", err)
	}

	hash, err := c.client.Send(ctx, c.tokenAdr, data, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("approval: 广播授权交易失败: %w", err)
	}

	// 广播后稍等节点索引再回读授权额度，失败不影响授权结果。
	time.Sleep(time.Second)
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("授权后刷新缓存失败", zap.Error(err))
	}

	return hash, nil
}

// Symbol 返回检查器绑定的代币符号。
func (c *Checker) Symbol() token.Symbol {
	return c.symbol
}
