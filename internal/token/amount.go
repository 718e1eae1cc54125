package token

import (
	"fmt"
	"math/big"
	"strings"
)

// MaxApproval 为无上限授权额度 (2^256 - 1)。
var MaxApproval = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ParseAmount 将用户输入的十进制金额字符串转换为指定精度的最小单位整数。
// 小数位数超过精度视为非法输入。
func ParseAmount(value string, decimals int) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("token: 金额不能为空")
	}
	if decimals < 0 {
		return nil, fmt.Errorf("token: 精度非法 %d", decimals)
	}

	whole := value
	frac := ""
	if idx := strings.Index(value, "."); idx >= 0 {
		whole = value[:idx]
		frac = value[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}

	if len(frac) > decimals {
		return nil, fmt.Errorf("token: 金额 %q 小数位超过精度 %d", value, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	combined := whole + frac
	amount, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("token: 金额 %q 不是合法的十进制数", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("token: 金额 %q 不能为负", value)
	}

	return amount, nil
}

// ParseTokenAmount 按代币自身精度转换金额。
func ParseTokenAmount(value string, sym Symbol) (*big.Int, error) {
	return ParseAmount(value, Decimals(sym))
}

// FormatAmount 将最小单位整数还原为十进制金额字符串，用于日志展示。
func FormatAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	s := amount.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	cut := len(s) - decimals
	out := s[:cut]
	if decimals > 0 {
		frac := strings.TrimRight(s[cut:], "0")
		if frac != "" {
			out += "." + frac
		}
	}
	if neg {
		out = "-" + out
	}
	return out
}
