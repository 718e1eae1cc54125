package flow

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/unhappyben/silo-goat-arbitrage/internal/odos"
	"github.com/unhappyben/silo-goat-arbitrage/internal/plan"
)

// Status 是步骤生命周期状态。
type Status string

const (
	StatusIdle              Status = "idle"
	StatusAwaitingSignature Status = "awaiting_signature"
	StatusPending           Status = "pending"
	StatusConfirmed         Status = "confirmed"
	StatusFailed            Status = "failed"
)

// InFlight 为真时该步骤正在签名或等待上链，不允许重复触发。
func (s Status) InFlight() bool {
	return s == StatusAwaitingSignature || s == StatusPending
}

type transactor interface {
	Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
	WaitReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*types.Receipt, error)
	From() common.Address
	ChainID() *big.Int
}

type quoteClient interface {
	Quote(ctx context.Context, req odos.QuoteRequest) (odos.QuoteResponse, error)
	Assemble(ctx context.Context, req odos.AssembleRequest) (odos.Transaction, error)
}

type approvalChecker interface {
	Refresh(ctx context.Context) error
	HasApproval(amount string) bool
	HasBalance(amount string) bool
}

type recorder interface {
	RecordStep(ctx context.Context, step plan.Step, status Status)
	RecordFlowError(ctx context.Context, step plan.Step, msg string, err error)
}

// StepView 是暴露给界面层的步骤视图。
type StepView struct {
	ID          int    `json:"id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	Enabled     bool   `json:"enabled"`
}

// Snapshot 是整个流程的只读快照。
type Snapshot struct {
	Steps       []StepView `json:"steps"`
	CurrentStep int        `json:"currentStep"`
	TotalSteps  int        `json:"totalSteps"`
	LastError   string     `json:"lastError,omitempty"`
}

// Options 控制流程推进行为。
type Options struct {
	AdvanceDelay       time.Duration
	SwapReceiptTimeout time.Duration
	SlippagePercent    float64
	ReferralCode       int
}
