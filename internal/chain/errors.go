package chain

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ErrReceiptTimeout 表示在限定时间内未等到交易回执。
var ErrReceiptTimeout = errors.New("chain: 等待交易回执超时")

// ErrReverted 表示交易已上链但执行被回滚。
var ErrReverted = errors.New("chain: 交易执行被回滚")

// IsRetryable 判断只读 RPC 调用的错误是否可重试。
// 写入调用不走重试，避免重复广播。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"eof",
		"too many requests",
		"service unavailable",
		"bad gateway",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
