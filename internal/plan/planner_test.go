package plan

import (
	"reflect"
	"testing"

	"github.com/unhappyben/silo-goat-arbitrage/internal/strategy"
	"github.com/unhappyben/silo-goat-arbitrage/internal/token"
)

func makeConfig(t strategy.Type, depositAsset, borrowAsset token.Symbol, kind strategy.VaultKind) strategy.Config {
	return strategy.Config{
		Type:          t,
		DepositAsset:  depositAsset,
		BorrowAsset:   borrowAsset,
		DepositAmount: "1000",
		BorrowAmount:  "500",
		Market: strategy.TokenInfo{
			Symbol: depositAsset,
			Name:   "test market",
			LTV:    0.75,
		},
		Strategy: strategy.Strategy{
			Kind:  kind,
			Vault: strategy.VaultAddress(kind),
		},
	}
}

func TestPlan_IDsContiguousForAllConfigurations(t *testing.T) {
	types := []strategy.Type{strategy.TypeBorrow, strategy.TypeDeposit}
	borrowAssets := []token.Symbol{token.ETH, token.USDCe}
	kinds := []strategy.VaultKind{strategy.VaultUSDCe, strategy.VaultCRVUSD, strategy.VaultYCUSDC}

	for _, st := range types {
		for _, borrow := range borrowAssets {
			for _, kind := range kinds {
				cfg := makeConfig(st, token.ETH, borrow, kind)
				steps := Plan(cfg)

				if len(steps) < 4 {
					t.Fatalf("%s/%s/%s: expected at least 4 steps, got %d", st, borrow, kind, len(steps))
				}
				for i, step := range steps {
					if step.ID != i+1 {
						t.Errorf("%s/%s/%s: step %d has id %d, want %d", st, borrow, kind, i, step.ID, i+1)
					}
				}
			}
		}
	}
}

func TestPlan_Idempotent(t *testing.T) {
	cfg := makeConfig(strategy.TypeBorrow, token.ETH, token.USDCe, strategy.VaultYCUSDC)
	first := Plan(cfg)
	second := Plan(cfg)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same configuration produced different plans:\n%v\n%v", first, second)
	}
}

func TestPlan_NativeDepositStableBorrowNoMismatch(t *testing.T) {
	// ETH 抵押、借 USDC.e、USDC.e 金库：无需包装也无需兑换。
	cfg := makeConfig(strategy.TypeBorrow, token.ETH, token.USDCe, strategy.VaultUSDCe)
	steps := Plan(cfg)

	expected := []Kind{KindMarketApproval, KindDepositBorrow, KindVaultApproval, KindVaultDeposit}
	if len(steps) != len(expected) {
		t.Fatalf("expected %d steps, got %d: %v", len(expected), len(steps), steps)
	}
	for i, kind := range expected {
		if steps[i].Kind != kind {
			t.Errorf("step %d: got kind %s, want %s", i+1, steps[i].Kind, kind)
		}
		if steps[i].ID != i+1 {
			t.Errorf("step kind %s: got id %d, want %d", kind, steps[i].ID, i+1)
		}
	}
}

func TestPlan_BorrowNativeInsertsWrapAsStepThree(t *testing.T) {
	cfg := makeConfig(strategy.TypeBorrow, token.ETH, token.ETH, strategy.VaultYCETH)
	steps := Plan(cfg)

	expected := []Kind{KindMarketApproval, KindDepositBorrow, KindWrap, KindVaultApproval, KindVaultDeposit}
	if len(steps) != len(expected) {
		t.Fatalf("expected %d steps, got %d: %v", len(expected), len(steps), steps)
	}

	wrap, ok := Find(steps, KindWrap)
	if !ok || wrap.ID != 3 {
		t.Errorf("wrap step: got %+v, want id 3", wrap)
	}
	approve, _ := Find(steps, KindVaultApproval)
	deposit, _ := Find(steps, KindVaultDeposit)
	if approve.ID != 4 || deposit.ID != 5 {
		t.Errorf("vault steps shifted wrong: approve=%d deposit=%d, want 4/5", approve.ID, deposit.ID)
	}
}

func TestPlan_SwapPairShiftsVaultSteps(t *testing.T) {
	cfg := makeConfig(strategy.TypeBorrow, token.ETH, token.USDCe, strategy.VaultCRVUSD)
	steps := Plan(cfg)

	expected := []Kind{KindMarketApproval, KindDepositBorrow, KindAggregatorApproval, KindSwap, KindVaultApproval, KindVaultDeposit}
	if len(steps) != len(expected) {
		t.Fatalf("expected %d steps, got %d: %v", len(expected), len(steps), steps)
	}
	for i, kind := range expected {
		if steps[i].Kind != kind {
			t.Errorf("step %d: got kind %s, want %s", i+1, steps[i].Kind, kind)
		}
	}

	swap, _ := Find(steps, KindSwap)
	if swap.Title != "Swap USDC.e to crvUSD" {
		t.Errorf("unexpected swap title %q", swap.Title)
	}
}

func TestPlan_DepositModeNeverWraps(t *testing.T) {
	cfg := makeConfig(strategy.TypeDeposit, token.ETH, token.ETH, strategy.VaultUSDCe)
	steps := Plan(cfg)

	if _, ok := Find(steps, KindWrap); ok {
		t.Fatalf("deposit mode should not contain a wrap step: %v", steps)
	}
}
