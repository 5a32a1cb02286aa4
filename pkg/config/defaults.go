package config

import "time"

// DefaultConfig keeps default values of Config
func DefaultConfig() Config {
	return Config{
		RPC: RPCConfig{
			URL:     "http://localhost:8545",
			Timeout: 30 * time.Second,
		},
		ENS: ENSConfig{
			Registry: "",
		},
		Escalator: EscalatorConfig{
			Enabled:      false,
			Strategy:     StrategyGeometric,
			Increase:     "1000000000", // 1 gwei
			Coefficient:  1.125,
			MaxPrice:     "",
			Interval:     60 * time.Second,
			PerBlock:     false,
			PollInterval: 2 * time.Second,
		},
		Logs: LogsConfig{
			PageSize: 10_000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
