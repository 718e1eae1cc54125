package strategy

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/unhappyben/silo-goat-arbitrage/internal/config"
	"github.com/unhappyben/silo-goat-arbitrage/internal/token"
)

// Type 表示策略模式：抵押借贷或纯存入。
type Type string

const (
	TypeBorrow  Type = "borrow"
	TypeDeposit Type = "deposit"
)

// VaultKind 表示目标金库类型，不同金库接受的结算代币不同。
type VaultKind string

const (
	VaultUSDCe  VaultKind = "USDC_E"
	VaultCRVUSD VaultKind = "CRV_USD"
	VaultYCUSDC VaultKind = "YCUSDC"
	VaultYCETH  VaultKind = "YCETH"
	VaultYCSETH VaultKind = "YCSETH"
)

// 金库默认地址表 (Goat.fi Arbitrum)。
var vaultAddresses = map[VaultKind]common.Address{
	VaultUSDCe:  common.HexToAddress("0x8a1eF3066553275829d1c0F64EE8D5871D5ce9d3"),
	VaultCRVUSD: common.HexToAddress("0xA7781F1D982Eb9000BC1733E29Ff5ba2824cDBE5"),
	VaultYCUSDC: common.HexToAddress("0x0df2e3a0b5997AdC69f8768E495FD98A4D00F134"),
	VaultYCETH:  common.HexToAddress("0xe1c410eefAeBB052E17E0cB6F1c3197F35765Aab"),
	VaultYCSETH: common.HexToAddress("0x878b7897C60fA51c2A7bfBdd4E3cB5708D9eEE43"),
}

// VaultAddress 返回金库合约地址。
func VaultAddress(kind VaultKind) common.Address {
	return vaultAddresses[kind]
}

// TokenInfo 描述一个 Silo 借贷市场。
type TokenInfo struct {
	Symbol        token.Symbol
	Name          string
	BorrowAPY     float64
	DepositAPY    float64
	LTV           float64
	MarketAddress common.Address
}

// Strategy 描述一个目标收益金库。
type Strategy struct {
	Name  string
	APY   float64
	Kind  VaultKind
	Vault common.Address
}

// Config 是一次编排会话的策略配置快照。
// 所有步骤动作只读取该快照，不回读可变的外部状态。
type Config struct {
	Type          Type
	DepositAsset  token.Symbol
	BorrowAsset   token.Symbol
	DepositAmount string
	BorrowAmount  string
	Market        TokenInfo
	Strategy      Strategy
}

// NewConfig 由配置文件与已获取的市场/金库数据组装策略快照。
func NewConfig(cfg config.StrategyConfig, market TokenInfo, strat Strategy) (Config, error) {
	t := Type(cfg.Type)
	if t != TypeBorrow && t != TypeDeposit {
		return Config{}, fmt.Errorf("strategy: 未知策略类型 %q", cfg.Type)
	}
	return Config{
		Type:          t,
		DepositAsset:  token.Symbol(cfg.DepositAsset),
		BorrowAsset:   token.Symbol(cfg.BorrowAsset),
		DepositAmount: cfg.DepositAmount,
		BorrowAmount:  cfg.BorrowAmount,
		Market:        market,
		Strategy:      strat,
	}, nil
}

// NeedsWrap 判断是否需要将借出的原生资产包装为 ERC20。
func (c Config) NeedsWrap() bool {
	return c.Type != TypeDeposit && token.IsNative(c.BorrowAsset)
}

// NeedsSwap 判断金库结算代币与借出代币是否不一致，需要经聚合器兑换。
func (c Config) NeedsSwap() bool {
	if c.BorrowAsset != token.USDCe {
		return false
	}
	return c.Strategy.Kind == VaultYCUSDC || c.Strategy.Kind == VaultCRVUSD
}

// SettlementToken 返回目标金库实际接受的结算代币。
func (c Config) SettlementToken() token.Symbol {
	switch c.Strategy.Kind {
	case VaultYCUSDC:
		return token.USDC
	case VaultCRVUSD:
		return token.CRVUSD
	default:
		return token.Wrapped(c.BorrowAsset)
	}
}

// DepositToken 返回本次作为抵押/存入的代币。
func (c Config) DepositToken() token.Symbol {
	if c.Type == TypeDeposit {
		return c.DepositAsset
	}
	return c.Market.Symbol
}
