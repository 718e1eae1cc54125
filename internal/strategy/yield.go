package strategy

import "errors"

// YieldBreakdown 按时间维度拆分的预期收益。
type YieldBreakdown struct {
	Daily   float64
	Weekly  float64
	Monthly float64
	Annual  float64
}

// NetAnnualYield 计算净年化收益：存款收益 + 金库收益 - 借款成本。
// APY 以百分比表示。
func NetAnnualYield(market TokenInfo, strat Strategy, deposit, borrow float64) (float64, error) {
	if deposit <= 0 || borrow <= 0 {
		return 0, errors.New("strategy: 存借金额必须为正")
	}

	depositYield := deposit * market.DepositAPY / 100
	borrowCost := borrow * market.BorrowAPY / 100
	strategyYield := borrow * strat.APY / 100

	return depositYield + strategyYield - borrowCost, nil
}

// Breakdown 将年化收益拆分为日/周/月/年。
func Breakdown(annual float64) YieldBreakdown {
	return YieldBreakdown{
		Daily:   annual / 365,
		Weekly:  annual / 52,
		Monthly: annual / 12,
		Annual:  annual,
	}
}

// MaxBorrow 按市场最大LTV计算可借上限。
func MaxBorrow(market TokenInfo, deposit float64) float64 {
	if deposit <= 0 {
		return 0
	}
	return deposit * market.LTV
}
