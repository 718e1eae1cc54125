package app

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/unhappyben/silo-goat-arbitrage/internal/flow"
	"github.com/unhappyben/silo-goat-arbitrage/internal/strategy"
	"github.com/unhappyben/silo-goat-arbitrage/internal/token"
)

type stubTransactor struct {
	sendErr error
	sends   int
}

func (s *stubTransactor) Send(context.Context, common.Address, []byte, *big.Int) (common.Hash, error) {
	s.sends++
	if s.sendErr != nil {
		return common.Hash{}, s.sendErr
	}
	return common.HexToHash("0xbeef"), nil
}

func (s *stubTransactor) WaitReceipt(context.Context, common.Hash, time.Duration) (*types.Receipt, error) {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (s *stubTransactor) From() common.Address {
	return common.HexToAddress("0xabc0000000000000000000000000000000000001")
}

func (s *stubTransactor) ChainID() *big.Int {
	return big.NewInt(42161)
}

type stubChecker struct{}

func (stubChecker) Refresh(context.Context) error { return nil }
func (stubChecker) HasApproval(string) bool       { return false }
func (stubChecker) HasBalance(string) bool        { return true }

func tickConfig() strategy.Config {
	return strategy.Config{
		Type:          strategy.TypeBorrow,
		DepositAsset:  token.USDCe,
		BorrowAsset:   token.ETH,
		DepositAmount: "1.5",
		BorrowAmount:  "20",
		Market: strategy.TokenInfo{
			Symbol:        token.USDCe,
			Name:          "test market",
			LTV:           0.75,
			MarketAddress: common.HexToAddress("0x0341c0c0ec423328621788d4854119b97f44e391"),
		},
		Strategy: strategy.Strategy{
			Kind:  strategy.VaultYCETH,
			Vault: strategy.VaultAddress(strategy.VaultYCETH),
		},
	}
}

func TestTick_DoesNotRetryFailedStep(t *testing.T) {
	tx := &stubTransactor{sendErr: errors.New("insufficient funds for gas")}
	orch := flow.NewOrchestrator(tickConfig(), flow.Options{AdvanceDelay: 0}, flow.Deps{
		Transactor:     tx,
		MarketApproval: stubChecker{},
		VaultApproval:  stubChecker{},
	})
	rt := &runtime{flow: orch, logger: zap.NewNop(), auto: true}

	if err := rt.Tick(context.Background()); err == nil {
		t.Fatal("first tick should surface the step failure")
	}
	if tx.sends != 1 {
		t.Fatalf("broadcast attempts = %d, want 1", tx.sends)
	}
	if rt.auto {
		t.Fatal("auto mode should stop after a failed step")
	}

	// 后续轮询不能再触发失败步骤的交易。
	for i := 0; i < 3; i++ {
		if err := rt.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d returned error: %v", i, err)
		}
	}
	if tx.sends != 1 {
		t.Fatalf("failed step was retried, broadcast attempts = %d", tx.sends)
	}

	// 即使外部把自动模式重新打开，失败步骤也只停在原地等待人工触发。
	rt.auto = true
	if err := rt.Tick(context.Background()); err != nil {
		t.Fatalf("tick with failed current step returned error: %v", err)
	}
	if tx.sends != 1 {
		t.Fatalf("failed step was retried, broadcast attempts = %d", tx.sends)
	}
	if rt.auto {
		t.Fatal("auto mode should stop again while the current step is failed")
	}

	// 人工重试成功后自动模式可恢复推进后续步骤。
	tx.sendErr = nil
	if status := orch.RunStep(context.Background(), 1); status != flow.StatusConfirmed {
		t.Fatalf("manual retry expected confirmed, got %s", status)
	}
	if orch.CurrentStep() != 2 {
		t.Fatalf("current step = %d, want 2", orch.CurrentStep())
	}
}
