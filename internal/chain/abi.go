package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABI = `[
	{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const siloRouterABI = `[
	{"name":"execute","type":"function","stateMutability":"payable","inputs":[{"name":"actions","type":"tuple[]","components":[{"name":"actionType","type":"uint8"},{"name":"silo","type":"address"},{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"collateralOnly","type":"bool"}]}],"outputs":[]}
]`

const vaultABI = `[
	{"name":"deposit","type":"function","stateMutability":"nonpayable","inputs":[{"name":"assets","type":"uint256"},{"name":"receiver","type":"address"}],"outputs":[{"name":"shares","type":"uint256"}]},
	{"name":"withdraw","type":"function","stateMutability":"nonpayable","inputs":[{"name":"shares","type":"uint256"}],"outputs":[{"name":"assets","type":"uint256"}]}
]`

const wethABI = `[
	{"name":"deposit","type":"function","stateMutability":"payable","inputs":[],"outputs":[]}
]`

var (
	erc20      = mustParseABI(erc20ABI)
	siloRouter = mustParseABI(siloRouterABI)
	vault      = mustParseABI(vaultABI)
	weth       = mustParseABI(wethABI)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("chain: 解析ABI失败: %v", err))
	}
	return parsed
}

// Silo 路由器动作类型。
const (
	SiloActionDeposit uint8 = 0
	SiloActionBorrow  uint8 = 2
)

// SiloAction 对应 ISiloRouter.Action 结构。
type SiloAction struct {
	ActionType     uint8          `abi:"actionType"`
	Silo           common.Address `abi:"silo"`
	Asset          common.Address `abi:"asset"`
	Amount         *big.Int       `abi:"amount"`
	CollateralOnly bool           `abi:"collateralOnly"`
}

// PackApprove 编码 ERC20 approve 调用。
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return erc20.Pack("approve", spender, amount)
}

// PackAllowance 编码 allowance 查询。
func PackAllowance(owner, spender common.Address) ([]byte, error) {
	return erc20.Pack("allowance", owner, spender)
}

// PackBalanceOf 编码 balanceOf 查询。
func PackBalanceOf(account common.Address) ([]byte, error) {
	return erc20.Pack("balanceOf", account)
}

// UnpackUint256 解码只返回单个 uint256 的查询结果。
func UnpackUint256(method string, data []byte) (*big.Int, error) {
	out, err := erc20.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("chain: 解码 %s 返回值失败: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("chain: %s 返回值为空", method)
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: %s 返回值类型非 uint256", method)
	}
	return value, nil
}

// PackSiloExecute 编码 SiloRouter.execute 的批量动作调用。
func PackSiloExecute(actions []SiloAction) ([]byte, error) {
	return siloRouter.Pack("execute", actions)
}

// PackVaultDeposit 编码 ERC4626 金库 deposit 调用。
func PackVaultDeposit(assets *big.Int, receiver common.Address) ([]byte, error) {
	return vault.Pack("deposit", assets, receiver)
}

// PackWETHDeposit 编码 WETH 包装调用，金额通过交易 value 附带。
func PackWETHDeposit() ([]byte, error) {
	return weth.Pack("deposit")
}
