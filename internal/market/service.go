package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unhappyben/silo-goat-arbitrage/internal/strategy"
	"github.com/unhappyben/silo-goat-arbitrage/internal/token"
)

// targetVaults 是策略候选金库的枚举顺序。
var targetVaults = []strategy.VaultKind{
	strategy.VaultUSDCe,
	strategy.VaultCRVUSD,
	strategy.VaultYCUSDC,
	strategy.VaultYCETH,
	strategy.VaultYCSETH,
}

// Service 聚合 Silo 市场与 Goat 金库数据。
type Service struct {
	client *Client
	logger *zap.Logger
}

// NewService 创建行情服务。
func NewService(client *Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: client,
		logger: logger,
	}
}

// GetSnapshot 并行拉取市场列表与金库收益率并组装快照。
func (s *Service) GetSnapshot(ctx context.Context) (Snapshot, error) {
	var (
		markets  []strategy.TokenInfo
		vaultAPY map[string]float64
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		data, err := s.client.FetchSiloMarkets(groupCtx)
		if err != nil {
			return err
		}
		markets = data
		return nil
	})

	group.Go(func() error {
		data, err := s.client.FetchVaultAPY(groupCtx)
		if err != nil {
			return err
		}
		vaultAPY = data
		return nil
	})

	if err := group.Wait(); err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Markets:     markets,
		Strategies:  buildStrategies(vaultAPY),
		RetrievedAt: time.Now().UTC(),
	}

	s.logger.Debug("行情快照获取完成",
		zap.Time("retrieved_at", snapshot.RetrievedAt),
		zap.Int("market_count", len(snapshot.Markets)),
		zap.Int("strategy_count", len(snapshot.Strategies)),
	)

	return snapshot, nil
}

// buildStrategies 按固定金库清单组装策略列表，收益率为零的剔除。
func buildStrategies(vaultAPY map[string]float64) []strategy.Strategy {
	strategies := make([]strategy.Strategy, 0, len(targetVaults))
	for _, kind := range targetVaults {
		vault := strategy.VaultAddress(kind)
		apy := vaultAPY[vault.Hex()] * 100
		if apy <= 0 {
			continue
		}
		strategies = append(strategies, strategy.Strategy{
			Name:  fmt.Sprintf("%s Vault Strategy", strings.ReplaceAll(string(kind), "_", ".")),
			APY:   apy,
			Kind:  kind,
			Vault: vault,
		})
	}
	return strategies
}

// SelectMarket 按市场符号在快照中查找借贷市场。
func (s Snapshot) SelectMarket(symbol token.Symbol) (strategy.TokenInfo, error) {
	for _, m := range s.Markets {
		if m.Symbol == symbol {
			return m, nil
		}
	}
	return strategy.TokenInfo{}, fmt.Errorf("市场 %s 不存在或未挂 %s 借出端", symbol, bridgeSymbol)
}

// SelectStrategy 按金库类型在快照中查找策略。
func (s Snapshot) SelectStrategy(kind strategy.VaultKind) (strategy.Strategy, error) {
	for _, st := range s.Strategies {
		if st.Kind == kind {
			return st, nil
		}
	}
	return strategy.Strategy{}, fmt.Errorf("金库 %s 无可用收益率", kind)
}
