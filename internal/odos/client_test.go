package odos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/unhappyben/silo-goat-arbitrage/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.OdosConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client, srv
}

func TestQuote_Success(t *testing.T) {
	var captured QuoteRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != quotePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(QuoteResponse{PathID: "path-123", PriceImpact: 0.02})
	})

	req := QuoteRequest{
		ChainID:              42161,
		InputTokens:          []InputToken{{TokenAddress: "0xff97", Amount: "20000000"}},
		OutputTokens:         []OutputToken{{TokenAddress: "0xaf88", Proportion: 1}},
		UserAddr:             "0xabc",
		SlippageLimitPercent: 1.0,
		DisableRFQs:          true,
		Compact:              true,
		Paths:                [][]string{{"0xff97", "0xaf88"}},
	}

	resp, err := client.Quote(context.Background(), req)
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if resp.PathID != "path-123" {
		t.Errorf("PathID = %s, want path-123", resp.PathID)
	}
	if captured.ChainID != 42161 || captured.SlippageLimitPercent != 1.0 || !captured.DisableRFQs {
		t.Errorf("request body not forwarded faithfully: %+v", captured)
	}
}

func TestQuote_ServerErrorSurfacesDetail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"insufficient liquidity"}`))
	})

	_, err := client.Quote(context.Background(), QuoteRequest{ChainID: 42161})
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "insufficient liquidity") {
		t.Errorf("error should carry status and remote detail, got: %v", err)
	}
}

func TestQuote_MissingPathIDIsError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	if _, err := client.Quote(context.Background(), QuoteRequest{}); err == nil || !strings.Contains(err.Error(), "pathId") {
		t.Fatalf("expected missing pathId error, got %v", err)
	}
}

func TestAssemble_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != assemblePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req AssembleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.PathID != "path-123" || !req.Simulate {
			t.Errorf("unexpected assemble request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(AssembleResponse{Transaction: Transaction{
			To:    "0xa669e7a0d4b3e4fa48af2de86bd4cd7126be4e13",
			Data:  "0xdeadbeef",
			Value: "0",
		}})
	})

	tx, err := client.Assemble(context.Background(), AssembleRequest{
		UserAddr: "0xabc",
		PathID:   "path-123",
		Simulate: true,
	})
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	value, err := tx.ValueBigInt()
	if err != nil || value.Sign() != 0 {
		t.Errorf("ValueBigInt = %v, %v; want 0, nil", value, err)
	}
}

func TestAssemble_MissingFieldsIsError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transaction":{"to":"","data":""}}`))
	})

	if _, err := client.Assemble(context.Background(), AssembleRequest{PathID: "p"}); err == nil {
		t.Fatal("expected error for transaction missing to/data")
	}
}

func TestTransaction_ValueDefaultsToZero(t *testing.T) {
	tx := Transaction{To: "0x01", Data: "0x02"}
	value, err := tx.ValueBigInt()
	if err != nil {
		t.Fatalf("ValueBigInt returned error: %v", err)
	}
	if value.Sign() != 0 {
		t.Errorf("empty value should parse to 0, got %s", value)
	}
}

func TestTransaction_ValueAcceptsDecimalAndHex(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1500000000000000000", "1500000000000000000"},
		{"0x14d1120d7b160000", "1500000000000000000"},
		{"0X1b", "27"},
	}
	for _, tt := range tests {
		value, err := Transaction{Value: tt.raw}.ValueBigInt()
		if err != nil {
			t.Errorf("ValueBigInt(%q) returned error: %v", tt.raw, err)
			continue
		}
		if value.String() != tt.want {
			t.Errorf("ValueBigInt(%q) = %s, want %s", tt.raw, value, tt.want)
		}
	}

	if _, err := (Transaction{Value: "not-a-number"}).ValueBigInt(); err == nil {
		t.Error("malformed value should be rejected")
	}
}
