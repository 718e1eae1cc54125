package market

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/unhappyben/silo-goat-arbitrage/internal/config"
	"github.com/unhappyben/silo-goat-arbitrage/internal/strategy"
	"github.com/unhappyben/silo-goat-arbitrage/internal/token"
)

const siloFixture = `<!DOCTYPE html><html><body>
<script id="__NEXT_DATA__" type="application/json">{
  "props": {"pageProps": {"data": {"marketsByProtocol": [
    {"protocolKey": "ethereum", "markets": []},
    {"protocolKey": "arbitrum", "markets": [
      {
        "marketSymbol": "ETH",
        "marketName": "Ethereum",
        "marketAddress": "0x0341c0c0ec423328621788d4854119b97f44e391",
        "maxLTV": 0.85,
        "baseAsset": {"depositTotalApr": "45000000000000000"},
        "bridgeAssets": [{"symbol": "USDC.e", "debtTotalApr": "120000000000000000"}]
      },
      {
        "marketSymbol": "ARB",
        "marketName": "Arbitrum",
        "marketAddress": "0x1111111111111111111111111111111111111111",
        "maxLTV": 0,
        "baseAsset": {"depositTotalApr": "20000000000000000"},
        "bridgeAssets": [{"symbol": "USDC.e", "debtTotalApr": "90000000000000000"}]
      },
      {
        "marketSymbol": "GMX",
        "marketName": "GMX",
        "marketAddress": "0x2222222222222222222222222222222222222222",
        "maxLTV": 0.7,
        "baseAsset": {"depositTotalApr": "30000000000000000"},
        "bridgeAssets": [{"symbol": "DAI", "debtTotalApr": "80000000000000000"}]
      }
    ]}
  ]}}}
}</script>
</body></html>`

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseSiloMarkets(t *testing.T) {
	markets, err := parseSiloMarkets([]byte(siloFixture))
	if err != nil {
		t.Fatalf("parseSiloMarkets returned error: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("market count = %d, want 2 (DAI-only market filtered)", len(markets))
	}

	eth := markets[0]
	if eth.Symbol != token.Symbol("ETH") || eth.Name != "Ethereum" {
		t.Errorf("first market = %s/%s, want ETH/Ethereum", eth.Symbol, eth.Name)
	}
	if !approxEqual(eth.DepositAPY, 4.5) {
		t.Errorf("deposit apy = %v, want 4.5", eth.DepositAPY)
	}
	if !approxEqual(eth.BorrowAPY, 12.0) {
		t.Errorf("borrow apy = %v, want 12.0", eth.BorrowAPY)
	}
	if eth.LTV != 0.85 {
		t.Errorf("ltv = %v, want 0.85", eth.LTV)
	}
	if eth.MarketAddress != common.HexToAddress("0x0341c0c0ec423328621788d4854119b97f44e391") {
		t.Errorf("market address = %s", eth.MarketAddress)
	}

	// maxLTV 缺失时回退到 0.75。
	if markets[1].LTV != 0.75 {
		t.Errorf("fallback ltv = %v, want 0.75", markets[1].LTV)
	}
}

func TestParseSiloMarkets_MissingScript(t *testing.T) {
	_, err := parseSiloMarkets([]byte("<html><body>maintenance</body></html>"))
	if err == nil {
		t.Fatal("expected error for page without embedded data")
	}
}

func TestBuildStrategies(t *testing.T) {
	usdce := strategy.VaultAddress(strategy.VaultUSDCe)
	crvusd := strategy.VaultAddress(strategy.VaultCRVUSD)

	strategies := buildStrategies(map[string]float64{
		usdce.Hex():  0.1523,
		crvusd.Hex(): 0,
	})

	if len(strategies) != 1 {
		t.Fatalf("strategy count = %d, want 1 (zero-apy vault filtered)", len(strategies))
	}
	got := strategies[0]
	if got.Kind != strategy.VaultUSDCe || got.Vault != usdce {
		t.Errorf("strategy = %+v", got)
	}
	if !approxEqual(got.APY, 15.23) {
		t.Errorf("apy = %v, want 15.23", got.APY)
	}
	if got.Name != "USDC.E Vault Strategy" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestGetSnapshot(t *testing.T) {
	usdce := strategy.VaultAddress(strategy.VaultUSDCe)

	silo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, siloFixture)
	}))
	defer silo.Close()

	goat := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/apy/breakdown" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{%q: {"vaultApy": 0.2}}`, usdce.Hex())
	}))
	defer goat.Close()

	client, err := NewClient(config.MarketConfig{
		SiloURL: silo.URL,
		GoatURL: goat.URL,
		Timeout: 5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	snapshot, err := NewService(client, nil).GetSnapshot(context.Background())
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}

	if len(snapshot.Markets) != 2 || len(snapshot.Strategies) != 1 {
		t.Fatalf("snapshot = %d markets / %d strategies", len(snapshot.Markets), len(snapshot.Strategies))
	}
	if snapshot.RetrievedAt.IsZero() {
		t.Error("retrieved_at not set")
	}

	market, err := snapshot.SelectMarket(token.Symbol("ETH"))
	if err != nil {
		t.Fatalf("SelectMarket: %v", err)
	}
	if market.Name != "Ethereum" {
		t.Errorf("market name = %q", market.Name)
	}

	if _, err := snapshot.SelectStrategy(strategy.VaultCRVUSD); err == nil {
		t.Error("expected error for strategy without yield")
	}
}

func TestGetSnapshot_SiloFailurePropagates(t *testing.T) {
	silo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer silo.Close()

	goat := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer goat.Close()

	client, err := NewClient(config.MarketConfig{
		SiloURL: silo.URL,
		GoatURL: goat.URL,
		Timeout: 5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := NewService(client, nil).GetSnapshot(context.Background()); err == nil {
		t.Fatal("expected error when silo fetch fails")
	}
}
