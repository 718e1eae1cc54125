package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Odos     OdosConfig     `mapstructure:"odos"`
	Market   MarketConfig   `mapstructure:"market"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Flow     FlowConfig     `mapstructure:"flow"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// ChainConfig 描述链上连接与签名信息。
type ChainConfig struct {
	RPCURL              string        `mapstructure:"rpc_url"`
	ChainID             int64         `mapstructure:"chain_id"`
	PrivateKey          string        `mapstructure:"private_key"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
	Retry               RetryConfig   `mapstructure:"retry"`
}

// RetryConfig 统一控制只读调用的重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// OdosConfig 描述聚合器路由服务调用参数。
type OdosConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	SlippagePercent    float64       `mapstructure:"slippage_percent"`
	ReferralCode       int           `mapstructure:"referral_code"`
	Timeout            time.Duration `mapstructure:"timeout"`
	SwapReceiptTimeout time.Duration `mapstructure:"swap_receipt_timeout"`
}

// MarketConfig 描述行情数据源。
type MarketConfig struct {
	SiloURL string        `mapstructure:"silo_url"`
	GoatURL string        `mapstructure:"goat_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StrategyConfig 描述默认策略选择。
type StrategyConfig struct {
	Type          string `mapstructure:"type"`
	DepositAsset  string `mapstructure:"deposit_asset"`
	BorrowAsset   string `mapstructure:"borrow_asset"`
	DepositAmount string `mapstructure:"deposit_amount"`
	BorrowAmount  string `mapstructure:"borrow_amount"`
	Vault         string `mapstructure:"vault"`
}

// FlowConfig 控制交易流程推进行为。
type FlowConfig struct {
	AdvanceDelay time.Duration `mapstructure:"advance_delay"`
	Auto         bool          `mapstructure:"auto"`
	LoopInterval time.Duration `mapstructure:"loop_interval"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// ServerConfig 控制监控接口。
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Chain.RPCURL == "" {
		err = multierr.Append(err, errors.New("chain.rpc_url 不能为空"))
	}
	if c.Chain.ChainID <= 0 {
		err = multierr.Append(err, errors.New("chain.chain_id 必须大于0"))
	}
	if c.Chain.PrivateKey == "" {
		err = multierr.Append(err, errors.New("chain.private_key 不能为空"))
	}
	if c.Chain.ReceiptPollInterval <= 0 {
		err = multierr.Append(err, errors.New("chain.receipt_poll_interval 必须大于0"))
	}
	if c.Chain.Retry.MaxAttempts <= 0 {
		err = multierr.Append(err, errors.New("chain.retry.max_attempts 必须大于0"))
	}
	if c.Chain.Retry.MinDelay <= 0 || c.Chain.Retry.MaxDelay <= 0 {
		err = multierr.Append(err, errors.New("chain.retry.delay 必须为正"))
	}
	if c.Chain.Retry.MinDelay > c.Chain.Retry.MaxDelay {
		err = multierr.Append(err, errors.New("chain.retry.min_delay 不能大于 max_delay"))
	}
	if c.Odos.BaseURL == "" {
		err = multierr.Append(err, errors.New("odos.base_url 不能为空"))
	}
	if c.Odos.SlippagePercent <= 0 || c.Odos.SlippagePercent > 5 {
		err = multierr.Append(err, errors.New("odos.slippage_percent 应位于(0,5]"))
	}
	if c.Odos.Timeout <= 0 {
		err = multierr.Append(err, errors.New("odos.timeout 必须大于0"))
	}
	if c.Odos.SwapReceiptTimeout <= 0 {
		err = multierr.Append(err, errors.New("odos.swap_receipt_timeout 必须大于0"))
	}
	if c.Market.SiloURL == "" {
		err = multierr.Append(err, errors.New("market.silo_url 不能为空"))
	}
	if c.Market.GoatURL == "" {
		err = multierr.Append(err, errors.New("market.goat_url 不能为空"))
	}
	if c.Market.Timeout <= 0 {
		err = multierr.Append(err, errors.New("market.timeout 必须大于0"))
	}
	if c.Strategy.Type != "borrow" && c.Strategy.Type != "deposit" {
		err = multierr.Append(err, errors.New("strategy.type 必须为 borrow 或 deposit"))
	}
	if c.Strategy.DepositAsset == "" {
		err = multierr.Append(err, errors.New("strategy.deposit_asset 不能为空"))
	}
	if c.Strategy.BorrowAsset == "" {
		err = multierr.Append(err, errors.New("strategy.borrow_asset 不能为空"))
	}
	if c.Flow.AdvanceDelay < 0 {
		err = multierr.Append(err, errors.New("flow.advance_delay 不能为负"))
	}
	if c.Flow.LoopInterval <= 0 {
		err = multierr.Append(err, errors.New("flow.loop_interval 必须大于0"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		err = multierr.Append(err, errors.New("server.port 必须位于[1,65535]"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
