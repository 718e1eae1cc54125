package plan

import (
	"fmt"

	"github.com/unhappyben/silo-goat-arbitrage/internal/strategy"
	"github.com/unhappyben/silo-goat-arbitrage/internal/token"
)

// Kind 标识步骤种类，流程编排器按种类分派动作。
type Kind string

const (
	KindMarketApproval     Kind = "market_approval"
	KindDepositBorrow      Kind = "deposit_borrow"
	KindWrap               Kind = "wrap"
	KindAggregatorApproval Kind = "aggregator_approval"
	KindSwap               Kind = "swap"
	KindVaultApproval      Kind = "vault_approval"
	KindVaultDeposit       Kind = "vault_deposit"
)

// Step 是执行序列中的一步。ID 从1开始连续编号，
// 可选步骤缺席时后续编号前移。
type Step struct {
	ID          int
	Kind        Kind
	Title       string
	Description string
}

// Plan 根据策略配置生成有序步骤序列。
// 同一配置的多次调用结果完全一致。
func Plan(cfg strategy.Config) []Step {
	depositSym := cfg.DepositToken()
	settlement := cfg.SettlementToken()

	steps := []Step{
		{
			Kind:        KindMarketApproval,
			Title:       fmt.Sprintf("Approve %s Deposit", depositSym),
			Description: fmt.Sprintf("Approve Silo market to use your %s", depositSym),
		},
		{
			Kind:        KindDepositBorrow,
			Title:       "Deposit & Borrow",
			Description: fmt.Sprintf("Deposit %s and borrow %s", depositSym, cfg.BorrowAsset),
		},
	}

	if cfg.NeedsWrap() {
		steps = append(steps, Step{
			Kind:        KindWrap,
			Title:       "Wrap ETH to WETH",
			Description: "Wrap your borrowed ETH to WETH for Goat.fi",
		})
	}

	if cfg.NeedsSwap() {
		steps = append(steps,
			Step{
				Kind:        KindAggregatorApproval,
				Title:       fmt.Sprintf("Approve %s for Odos", token.USDCe),
				Description: fmt.Sprintf("Approve Odos router to use your %s", token.USDCe),
			},
			Step{
				Kind:        KindSwap,
				Title:       fmt.Sprintf("Swap %s to %s", token.USDCe, settlement),
				Description: fmt.Sprintf("Swap your %s to %s using Odos", token.USDCe, settlement),
			},
		)
	}

	steps = append(steps,
		Step{
			Kind:        KindVaultApproval,
			Title:       fmt.Sprintf("Approve %s for Goat.fi", settlement),
			Description: fmt.Sprintf("Approve Goat.fi vault to use your %s", settlement),
		},
		Step{
			Kind:        KindVaultDeposit,
			Title:       "Deposit in Vault",
			Description: fmt.Sprintf("Deposit %s in Goat.fi vault", settlement),
		},
	)

	for i := range steps {
		steps[i].ID = i + 1
	}

	return steps
}

// Find 按种类查找步骤，不存在时第二个返回值为 false。
func Find(steps []Step, kind Kind) (Step, bool) {
	for _, s := range steps {
		if s.Kind == kind {
			return s, true
		}
	}
	return Step{}, false
}
