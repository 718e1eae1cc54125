package odos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unhappyben/silo-goat-arbitrage/internal/config"
)

const (
	quotePath    = "/sor/quote/v2"
	assemblePath = "/sor/assemble"
)

// Client 封装 Odos 聚合器的报价与组装调用。
// 只负责网络交互，不做签名和广播。
type Client struct {
	cfg    config.OdosConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient 使用给定配置创建聚合器客户端。
func NewClient(cfg config.OdosConfig, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("odos base_url 不能为空")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// Quote 请求兑换路径报价。
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (QuoteResponse, error) {
	var resp QuoteResponse
	if err := c.post(ctx, quotePath, req, &resp); err != nil {
		return QuoteResponse{}, err
	}
	if resp.PathID == "" {
		return QuoteResponse{}, errors.New("odos: 报价结果缺少 pathId")
	}

	c.logger.Info("获取兑换报价成功",
		zap.String("path_id", resp.PathID),
		zap.Float64("price_impact", resp.PriceImpact),
	)

	return resp, nil
}

// Assemble 将报价路径组装为可执行交易载荷。
func (c *Client) Assemble(ctx context.Context, req AssembleRequest) (Transaction, error) {
	if req.PathID == "" {
		return Transaction{}, errors.New("odos: pathId 不能为空")
	}

	var resp AssembleResponse
	if err := c.post(ctx, assemblePath, req, &resp); err != nil {
		return Transaction{}, err
	}
	if err := resp.Transaction.Validate(); err != nil {
		return Transaction{}, err
	}

	return resp.Transaction, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("odos: 序列化请求失败: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("odos: 构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("odos: 调用 %s 失败: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("odos: 读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("odos: %s 返回 %d: %s", path, resp.StatusCode, remoteDetail(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("odos: 解析响应失败: %w", err)
	}

	return nil
}

// remoteDetail 尽量从响应体中提取可读的错误描述。
func remoteDetail(raw []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}

	detail := strings.TrimSpace(string(raw))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	if detail == "" {
		detail = "无错误详情"
	}
	return detail
}
