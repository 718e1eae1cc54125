package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "silogoat"
)

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("chain.rpc_url", "https://arb1.arbitrum.io/rpc")
	v.SetDefault("chain.chain_id", 42161)
	v.SetDefault("chain.receipt_poll_interval", "2s")
	v.SetDefault("chain.retry.max_attempts", 5)
	v.SetDefault("chain.retry.min_delay", "500ms")
	v.SetDefault("chain.retry.max_delay", "5s")

	v.SetDefault("odos.base_url", "https://api.odos.xyz")
	v.SetDefault("odos.slippage_percent", 1.0)
	v.SetDefault("odos.referral_code", 0)
	v.SetDefault("odos.timeout", "10s")
	v.SetDefault("odos.swap_receipt_timeout", "60s")

	v.SetDefault("market.silo_url", "https://app.silo.finance")
	v.SetDefault("market.goat_url", "https://api.goat.fi")
	v.SetDefault("market.timeout", "15s")

	v.SetDefault("strategy.type", "borrow")
	v.SetDefault("strategy.deposit_asset", "ETH")
	v.SetDefault("strategy.borrow_asset", "USDC.e")
	v.SetDefault("strategy.deposit_amount", "0")
	v.SetDefault("strategy.borrow_amount", "0")
	v.SetDefault("strategy.vault", "USDC_E")

	v.SetDefault("flow.advance_delay", "500ms")
	v.SetDefault("flow.auto", false)
	v.SetDefault("flow.loop_interval", "10s")

	v.SetDefault("database.path", "data/silo_goat.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("server.port", 8787)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
