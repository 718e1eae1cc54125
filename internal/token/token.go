package token

import (
	"github.com/ethereum/go-ethereum/common"
)

// Symbol 表示代币符号。
type Symbol string

const (
	ETH    Symbol = "ETH"
	WETH   Symbol = "WETH"
	USDCe  Symbol = "USDC.e"
	USDC   Symbol = "USDC"
	CRVUSD Symbol = "crvUSD"
)

// Arbitrum 链上固定合约地址。
var (
	SiloRouter = common.HexToAddress("0x9992f660137979C1ca7f8b119Cd16361594E3681")
	OdosRouter = common.HexToAddress("0xa669e7a0d4b3e4fa48af2de86bd4cd7126be4e13")
)

// addresses 维护代币地址表，ETH 与 WETH 共用包装合约地址。
var addresses = map[Symbol]common.Address{
	ETH:    common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
	WETH:   common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
	USDCe:  common.HexToAddress("0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8"),
	USDC:   common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
	CRVUSD: common.HexToAddress("0x498Bf2B1e120FeD3ad3D42EA2165E9b73f99C1e5"),
}

// decimals 维护代币精度表，桥接稳定币族为6位，其余默认18位。
var decimals = map[Symbol]int{
	USDCe: 6,
	USDC:  6,
}

// Address 返回代币合约地址，未知代币返回零地址。
func Address(sym Symbol) common.Address {
	return addresses[sym]
}

// Decimals 返回代币精度。
func Decimals(sym Symbol) int {
	if d, ok := decimals[sym]; ok {
		return d
	}
	return 18
}

// IsNative 判断是否为链原生资产。
func IsNative(sym Symbol) bool {
	return sym == ETH
}

// Wrapped 返回原生资产的包装形式，非原生资产原样返回。
func Wrapped(sym Symbol) Symbol {
	if sym == ETH {
		return WETH
	}
	return sym
}
