package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/unhappyben/silo-goat-arbitrage/internal/config"
)

// Transactor 封装签名、广播与回执等待，是所有链上写入的唯一入口。
type Transactor struct {
	cfg     config.ChainConfig
	client  *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
	logger  *zap.Logger
}

// NewTransactor 连接 RPC 节点并加载签名私钥。
func NewTransactor(cfg config.ChainConfig, logger *zap.Logger) (*Transactor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = 2 * time.Second
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("连接RPC节点失败: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("解析私钥失败: %w", err)
	}

	return &Transactor{
		cfg:     cfg,
		client:  client,
		chainID: big.NewInt(cfg.ChainID),
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		logger:  logger,
	}, nil
}

// From 返回签名账户地址。
func (t *Transactor) From() common.Address {
	return t.from
}

// ChainID 返回目标链ID。
func (t *Transactor) ChainID() *big.Int {
	return new(big.Int).Set(t.chainID)
}

// Close 断开RPC连接。
func (t *Transactor) Close() {
	t.client.Close()
}

// Call 执行只读合约调用并返回原始结果。
func (t *Transactor) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{
		From: t.from,
		To:   &to,
		Data: data,
	}

	var out []byte
	err := t.callWithRetry(ctx, "eth_call", func() error {
		result, callErr := t.client.CallContract(ctx, msg, nil)
		if callErr != nil {
			return callErr
		}
		out = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Send 签名并广播一笔交易，返回交易哈希。
func (t *Transactor) Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := t.client.PendingNonceAt(ctx, t.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("获取nonce失败: %w", err)
	}

	gasLimit, err := t.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  t.from,
		To:    &to,
		Data:  data,
		Value: value,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("估算gas失败: %w", err)
	}

	tipCap, err := t.client.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("获取gas小费失败: %w", err)
	}

	head, err := t.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("获取最新区块头失败: %w", err)
	}

	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	tx, err := types.SignNewTx(t.key, types.LatestSignerForChainID(t.chainID), &types.DynamicFeeTx{
		ChainID:   t.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("签名交易失败: %w", err)
	}

	if err := t.client.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("广播交易失败: %w", err)
	}

	hash := tx.Hash()
	t.logger.Info("交易已广播",
		zap.String("hash", hash.Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", nonce),
	)

	return hash, nil
}

// WaitReceipt 轮询等待交易回执。timeout 为0时仅受 ctx 约束。
func (t *Transactor) WaitReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*types.Receipt, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(t.cfg.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := t.client.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, ErrReverted
			}
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) && !IsRetryable(err) {
			return nil, fmt.Errorf("查询交易回执失败: %w", err)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrReceiptTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Transactor) callWithRetry(ctx context.Context, operation string, fn func() error) error {
	attempt := 0
	delay := t.cfg.Retry.MinDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	maxDelay := t.cfg.Retry.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	maxAttempts := t.cfg.Retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		attempt++
		err := fn()
		if err == nil {
			if attempt > 1 {
				t.logger.Info("RPC调用重试后成功",
					zap.String("operation", operation),
					zap.Int("attempts", attempt),
				)
			}
			return nil
		}

		if !IsRetryable(err) || attempt >= maxAttempts {
			t.logger.Error("RPC调用失败",
				zap.String("operation", operation),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return err
		}

		wait := delay
		if wait > maxDelay {
			wait = maxDelay
		}
		t.logger.Warn("RPC调用失败，等待重试",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}
