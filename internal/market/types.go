package market

import (
	"time"

	"github.com/unhappyben/silo-goat-arbitrage/internal/strategy"
)

// bridgeSymbol 是借出端的桥接资产，只处理挂了该资产的市场。
const bridgeSymbol = "USDC.e"

// Snapshot 聚合一次行情采集的结果。
type Snapshot struct {
	Markets     []strategy.TokenInfo
	Strategies  []strategy.Strategy
	RetrievedAt time.Time
}

// siloPayload 对应 Silo 页面内嵌的 __NEXT_DATA__ 结构，
// 只声明用得到的字段。
type siloPayload struct {
	Props struct {
		PageProps struct {
			Data struct {
				MarketsByProtocol []protocolMarkets `json:"marketsByProtocol"`
			} `json:"data"`
		} `json:"pageProps"`
	} `json:"props"`
}

type protocolMarkets struct {
	ProtocolKey string      `json:"protocolKey"`
	Markets     []rawMarket `json:"markets"`
}

type rawMarket struct {
	MarketSymbol  string  `json:"marketSymbol"`
	MarketName    string  `json:"marketName"`
	MarketAddress string  `json:"marketAddress"`
	MaxLTV        float64 `json:"maxLTV"`
	BaseAsset     struct {
		DepositTotalApr string `json:"depositTotalApr"`
	} `json:"baseAsset"`
	BridgeAssets []bridgeAsset `json:"bridgeAssets"`
}

type bridgeAsset struct {
	Symbol       string `json:"symbol"`
	DebtTotalApr string `json:"debtTotalApr"`
}

// vaultBreakdown 对应 Goat APY 接口中单个金库的条目。
type vaultBreakdown struct {
	VaultAPY float64 `json:"vaultApy"`
}
