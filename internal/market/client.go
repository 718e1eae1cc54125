package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/unhappyben/silo-goat-arbitrage/internal/config"
	"github.com/unhappyben/silo-goat-arbitrage/internal/strategy"
	"github.com/unhappyben/silo-goat-arbitrage/internal/token"
)

const (
	protocolKey     = "arbitrum"
	goatAPYPath     = "/apy/breakdown"
	maxSiloBodySize = 16 << 20
	maxGoatBodySize = 4 << 20
)

// 利率字段为 1e18 精度的定点数字符串。
const aprScale = 1e18

var nextDataPattern = regexp.MustCompile(`(?s)<script id="__NEXT_DATA__" type="application/json">(.*?)</script>`)

// Client 拉取 Silo 市场列表与 Goat 金库收益率。
type Client struct {
	cfg        config.MarketConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 使用给定配置创建行情客户端。
func NewClient(cfg config.MarketConfig, logger *zap.Logger) (*Client, error) {
	if cfg.SiloURL == "" {
		return nil, errors.New("market silo_url 不能为空")
	}
	if cfg.GoatURL == "" {
		return nil, errors.New("market goat_url 不能为空")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// FetchSiloMarkets 抓取 Silo 首页内嵌数据并整理出挂有 USDC.e
// 借出端的 Arbitrum 市场列表。
func (c *Client) FetchSiloMarkets(ctx context.Context) ([]strategy.TokenInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.SiloURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建 Silo 请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("抓取 Silo 页面失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Silo 页面返回 %d", resp.StatusCode)
	}

	html, err := io.ReadAll(io.LimitReader(resp.Body, maxSiloBodySize))
	if err != nil {
		return nil, fmt.Errorf("读取 Silo 页面失败: %w", err)
	}

	return parseSiloMarkets(html)
}

// parseSiloMarkets 从页面 HTML 中提取 __NEXT_DATA__ 并整理市场列表。
func parseSiloMarkets(html []byte) ([]strategy.TokenInfo, error) {
	match := nextDataPattern.FindSubmatch(html)
	if match == nil {
		return nil, errors.New("Silo 页面中未找到市场数据")
	}

	var payload siloPayload
	if err := json.Unmarshal(match[1], &payload); err != nil {
		return nil, fmt.Errorf("解析 Silo 市场数据失败: %w", err)
	}

	var markets []rawMarket
	for _, proto := range payload.Props.PageProps.Data.MarketsByProtocol {
		if proto.ProtocolKey == protocolKey {
			markets = proto.Markets
			break
		}
	}

	infos := make([]strategy.TokenInfo, 0, len(markets))
	for _, m := range markets {
		bridge, ok := findBridgeAsset(m.BridgeAssets, bridgeSymbol)
		if !ok {
			continue
		}

		depositAPR, err := parseAPR(m.BaseAsset.DepositTotalApr)
		if err != nil {
			continue
		}
		borrowAPR, err := parseAPR(bridge.DebtTotalApr)
		if err != nil {
			continue
		}

		ltv := m.MaxLTV
		if ltv == 0 {
			ltv = 0.75
		}

		infos = append(infos, strategy.TokenInfo{
			Symbol:        token.Symbol(m.MarketSymbol),
			Name:          m.MarketName,
			DepositAPY:    depositAPR,
			BorrowAPY:     borrowAPR,
			LTV:           ltv,
			MarketAddress: common.HexToAddress(m.MarketAddress),
		})
	}

	return infos, nil
}

func findBridgeAsset(assets []bridgeAsset, symbol string) (bridgeAsset, bool) {
	for _, asset := range assets {
		if asset.Symbol == symbol {
			return asset, true
		}
	}
	return bridgeAsset{}, false
}

// parseAPR 把 1e18 精度的利率字符串换算为百分比。
func parseAPR(raw string) (float64, error) {
	if raw == "" {
		return 0, errors.New("利率字段为空")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("解析利率失败: %w", err)
	}
	return value / aprScale * 100, nil
}

// FetchVaultAPY 拉取 Goat 金库收益率细目，键为金库地址。
func (c *Client) FetchVaultAPY(ctx context.Context) (map[string]float64, error) {
	url := fmt.Sprintf("%s%s?_=%d", c.cfg.GoatURL, goatAPYPath, time.Now().UnixMilli())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构建 Goat 请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("拉取 Goat 收益率失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Goat 接口返回 %d", resp.StatusCode)
	}

	var breakdown map[string]vaultBreakdown
	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxGoatBodySize))
	if err := decoder.Decode(&breakdown); err != nil {
		return nil, fmt.Errorf("解析 Goat 收益率失败: %w", err)
	}

	apy := make(map[string]float64, len(breakdown))
	for address, entry := range breakdown {
		apy[address] = entry.VaultAPY
	}
	return apy, nil
}
