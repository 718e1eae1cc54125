package odos

import (
	"fmt"
	"math/big"
	"strings"
)

// InputToken 描述兑换的输入代币与最小单位金额。
type InputToken struct {
	TokenAddress string `json:"tokenAddress"`
	Amount       string `json:"amount"`
}

// OutputToken 描述兑换的目标代币与比例。
type OutputToken struct {
	TokenAddress string  `json:"tokenAddress"`
	Proportion   float64 `json:"proportion"`
}

// QuoteRequest 对应 /sor/quote/v2 的请求体。
type QuoteRequest struct {
	ChainID              int64         `json:"chainId"`
	InputTokens          []InputToken  `json:"inputTokens"`
	OutputTokens         []OutputToken `json:"outputTokens"`
	UserAddr             string        `json:"userAddr"`
	SlippageLimitPercent float64       `json:"slippageLimitPercent"`
	ReferralCode         int           `json:"referralCode"`
	DisableRFQs          bool          `json:"disableRFQs"`
	Compact              bool          `json:"compact"`
	Paths                [][]string    `json:"paths,omitempty"`
}

// QuoteResponse 是报价结果，pathId 用于后续组装。
type QuoteResponse struct {
	PathID       string   `json:"pathId"`
	InAmounts    []string `json:"inAmounts"`
	OutAmounts   []string `json:"outAmounts"`
	PriceImpact  float64  `json:"priceImpact"`
	GasEstimate  float64  `json:"gasEstimate"`
	BlockNumber  int64    `json:"blockNumber"`
	PathVizImage string   `json:"pathVizImage,omitempty"`
}

// AssembleRequest 对应 /sor/assemble 的请求体。
type AssembleRequest struct {
	UserAddr string `json:"userAddr"`
	PathID   string `json:"pathId"`
	Simulate bool   `json:"simulate"`
}

// Transaction 是组装好的可执行交易载荷。
type Transaction struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
	Gas   int64  `json:"gas,omitempty"`
}

// AssembleResponse 是交易组装结果。
type AssembleResponse struct {
	Transaction Transaction `json:"transaction"`
}

// ValueBigInt 解析交易的原生币金额，缺省为0。
// 同时接受十进制与 0x 前缀的十六进制编码。
func (t Transaction) ValueBigInt() (*big.Int, error) {
	raw := strings.TrimSpace(t.Value)
	if raw == "" {
		return new(big.Int), nil
	}
	base := 10
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw = raw[2:]
		base = 16
	}
	value, ok := new(big.Int).SetString(raw, base)
	if !ok {
		return nil, fmt.Errorf("odos: 交易value %q 非法", t.Value)
	}
	return value, nil
}

// Validate 校验组装结果是否包含必要字段。
func (t Transaction) Validate() error {
	if t.To == "" {
		return fmt.Errorf("odos: 组装结果缺少 to 地址")
	}
	if t.Data == "" {
		return fmt.Errorf("odos: 组装结果缺少 data")
	}
	return nil
}

// 远端错误响应，detail 字段携带可读信息。
type apiError struct {
	Detail    string `json:"detail"`
	Message   string `json:"message"`
	ErrorCode int    `json:"errorCode"`
}
