// Package config holds the client configuration: RPC endpoint, name service
// registry, escalation policy, log query paging and logging. Values are
// resolved from defaults, then an optional YAML file, then flags and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"path"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	FlagPrefix = "ethlayer."

	// RPC configuration flags

	// FlagRPCURL is a flag for specifying the node endpoint
	FlagRPCURL = FlagPrefix + "rpc.url"
	// FlagRPCJWTSecret is a flag for specifying the hex-encoded JWT secret for authenticated endpoints
	FlagRPCJWTSecret = FlagPrefix + "rpc.jwt_secret" // #nosec G101
	// FlagRPCTimeout is a flag for specifying the per-request timeout
	FlagRPCTimeout = FlagPrefix + "rpc.timeout"

	// ENS configuration flags

	// FlagENSRegistry is a flag for specifying the name service registry address
	FlagENSRegistry = FlagPrefix + "ens.registry"

	// Escalator configuration flags

	// FlagEscalatorEnabled is a flag for enabling the gas escalator layer
	FlagEscalatorEnabled = FlagPrefix + "escalator.enabled"
	// FlagEscalatorStrategy is a flag for selecting the escalation strategy
	FlagEscalatorStrategy = FlagPrefix + "escalator.strategy"
	// FlagEscalatorIncrease is a flag for the linear per-interval price increase in wei
	FlagEscalatorIncrease = FlagPrefix + "escalator.increase"
	// FlagEscalatorCoefficient is a flag for the geometric per-interval multiplier
	FlagEscalatorCoefficient = FlagPrefix + "escalator.coefficient"
	// FlagEscalatorMaxPrice is a flag for the geometric price ceiling in wei
	FlagEscalatorMaxPrice = FlagPrefix + "escalator.max_price"
	// FlagEscalatorInterval is a flag for the escalation period
	FlagEscalatorInterval = FlagPrefix + "escalator.interval"
	// FlagEscalatorPerBlock is a flag for sweeping on new blocks instead of a fixed interval
	FlagEscalatorPerBlock = FlagPrefix + "escalator.per_block"
	// FlagEscalatorPollInterval is a flag for the block filter poll interval
	FlagEscalatorPollInterval = FlagPrefix + "escalator.poll_interval"

	// Log query configuration flags

	// FlagLogsPageSize is a flag for the block span of one paginated getLogs request
	FlagLogsPageSize = FlagPrefix + "logs.page_size"

	// Logging configuration flags

	// FlagLogLevel is a flag for specifying the log level
	FlagLogLevel = FlagPrefix + "log.level"
	// FlagLogFormat is a flag for specifying the log format
	FlagLogFormat = FlagPrefix + "log.format"

	// FlagConfigPath is a flag for specifying an explicit configuration file
	FlagConfigPath = "config"
)

// Escalation strategy names accepted by EscalatorConfig.Strategy.
const (
	StrategyLinear    = "linear"
	StrategyGeometric = "geometric"
)

// ErrReadConfig is wrapped around failures to read or decode configuration.
var ErrReadConfig = errors.New("reading configuration")

// Config stores the client configuration.
type Config struct {
	// RPC configuration
	RPC RPCConfig `mapstructure:"rpc" yaml:"rpc"`

	// Name service configuration
	ENS ENSConfig `mapstructure:"ens" yaml:"ens"`

	// Gas escalation configuration
	Escalator EscalatorConfig `mapstructure:"escalator" yaml:"escalator"`

	// Log query configuration
	Logs LogsConfig `mapstructure:"logs" yaml:"logs"`

	// Logging configuration
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// RPCConfig contains the node endpoint parameters.
type RPCConfig struct {
	URL       string        `mapstructure:"url" yaml:"url" comment:"Node endpoint URL (http, https, ws or wss)"`
	JWTSecret string        `mapstructure:"jwt_secret" yaml:"jwt_secret" comment:"Hex-encoded 32-byte secret for JWT-authenticated endpoints. Leave empty for unauthenticated endpoints."`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" comment:"Per-request timeout. Examples: \"5s\", \"30s\", \"1m\"."`
}

// ENSConfig contains the name service parameters.
type ENSConfig struct {
	Registry string `mapstructure:"registry" yaml:"registry" comment:"Name service registry contract address. Name resolution fails when unset."`
}

// RegistryAddress parses the configured registry, nil when unset.
func (e *ENSConfig) RegistryAddress() (*common.Address, error) {
	if e.Registry == "" {
		return nil, nil
	}
	if !common.IsHexAddress(e.Registry) {
		return nil, fmt.Errorf("ens.registry: not a valid address: %q", e.Registry)
	}
	addr := common.HexToAddress(e.Registry)
	return &addr, nil
}

// EscalatorConfig contains the gas escalation parameters.
type EscalatorConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled" comment:"Enable the gas escalator layer"`
	Strategy     string        `mapstructure:"strategy" yaml:"strategy" comment:"Escalation strategy (linear, geometric)"`
	Increase     string        `mapstructure:"increase" yaml:"increase" comment:"Linear strategy: price increase per interval, in wei"`
	Coefficient  float64       `mapstructure:"coefficient" yaml:"coefficient" comment:"Geometric strategy: per-interval price multiplier, e.g. 1.125"`
	MaxPrice     string        `mapstructure:"max_price" yaml:"max_price" comment:"Geometric strategy: price ceiling in wei. Empty means no ceiling."`
	Interval     time.Duration `mapstructure:"interval" yaml:"interval" comment:"Escalation period. Examples: \"30s\", \"1m\"."`
	PerBlock     bool          `mapstructure:"per_block" yaml:"per_block" comment:"Sweep pending transactions on every new block instead of on a fixed interval"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" comment:"Block filter poll interval when sweeping per block"`
}

// IncreaseWei parses the linear increase into wei.
func (e *EscalatorConfig) IncreaseWei() (*big.Int, error) {
	return parseWei(e.Increase, "escalator.increase")
}

// MaxPriceWei parses the geometric ceiling into wei, nil when unset.
func (e *EscalatorConfig) MaxPriceWei() (*big.Int, error) {
	if e.MaxPrice == "" {
		return nil, nil
	}
	return parseWei(e.MaxPrice, "escalator.max_price")
}

func parseWei(s, field string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%s: not a valid wei amount: %q", field, s)
	}
	return v, nil
}

// LogsConfig contains the paginated log query parameters.
type LogsConfig struct {
	PageSize uint64 `mapstructure:"page_size" yaml:"page_size" comment:"Number of blocks covered by one paginated log request"`
}

// LogConfig contains all logging configuration parameters
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" comment:"Log level (debug, info, warn, error)"`
	Format string `mapstructure:"format" yaml:"format" comment:"Log format (text, json)"`
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	var multiErr error
	if c.RPC.URL == "" {
		multiErr = fmt.Errorf("rpc.url is required")
	}
	if _, err := c.ENS.RegistryAddress(); err != nil {
		multiErr = errors.Join(multiErr, err)
	}
	if c.Logs.PageSize == 0 {
		multiErr = errors.Join(multiErr, fmt.Errorf("logs.page_size must be positive"))
	}

	if c.Escalator.Enabled {
		switch c.Escalator.Strategy {
		case StrategyLinear:
			if _, err := c.Escalator.IncreaseWei(); err != nil {
				multiErr = errors.Join(multiErr, err)
			}
		case StrategyGeometric:
			if c.Escalator.Coefficient <= 1 {
				multiErr = errors.Join(multiErr, fmt.Errorf("escalator.coefficient must be greater than 1"))
			}
			if _, err := c.Escalator.MaxPriceWei(); err != nil {
				multiErr = errors.Join(multiErr, err)
			}
		default:
			multiErr = errors.Join(multiErr, fmt.Errorf("escalator.strategy must be %q or %q", StrategyLinear, StrategyGeometric))
		}
		if c.Escalator.Interval <= 0 {
			multiErr = errors.Join(multiErr, fmt.Errorf("escalator.interval must be positive"))
		}
	}
	return multiErr
}

// AddFlags adds client configuration options to a cobra Command.
func AddFlags(cmd *cobra.Command) {
	def := DefaultConfig()

	cmd.Flags().String(FlagConfigPath, "", "path to a YAML configuration file")

	cmd.Flags().String(FlagRPCURL, def.RPC.URL, "node endpoint URL")
	cmd.Flags().String(FlagRPCJWTSecret, def.RPC.JWTSecret, "hex-encoded JWT secret for authenticated endpoints")
	cmd.Flags().Duration(FlagRPCTimeout, def.RPC.Timeout, "per-request timeout")

	cmd.Flags().String(FlagENSRegistry, def.ENS.Registry, "name service registry contract address")

	cmd.Flags().Bool(FlagEscalatorEnabled, def.Escalator.Enabled, "enable the gas escalator layer")
	cmd.Flags().String(FlagEscalatorStrategy, def.Escalator.Strategy, "escalation strategy (linear, geometric)")
	cmd.Flags().String(FlagEscalatorIncrease, def.Escalator.Increase, "linear price increase per interval, in wei")
	cmd.Flags().Float64(FlagEscalatorCoefficient, def.Escalator.Coefficient, "geometric per-interval price multiplier")
	cmd.Flags().String(FlagEscalatorMaxPrice, def.Escalator.MaxPrice, "geometric price ceiling in wei (empty for none)")
	cmd.Flags().Duration(FlagEscalatorInterval, def.Escalator.Interval, "escalation period")
	cmd.Flags().Bool(FlagEscalatorPerBlock, def.Escalator.PerBlock, "sweep pending transactions on every new block")
	cmd.Flags().Duration(FlagEscalatorPollInterval, def.Escalator.PollInterval, "block filter poll interval when sweeping per block")

	cmd.Flags().Uint64(FlagLogsPageSize, def.Logs.PageSize, "blocks covered by one paginated log request")

	cmd.Flags().String(FlagLogLevel, def.Log.Level, "set the log level (debug, info, warn, error)")
	cmd.Flags().String(FlagLogFormat, def.Log.Format, "set the log format (text, json)")
}

// Load resolves the configuration in the following order of precedence:
// 1. DefaultConfig() (lowest priority)
// 2. YAML configuration file named by --config, when given
// 3. Command line flags and environment variables (highest priority)
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()

	if cfgPath, _ := cmd.Flags().GetString(FlagConfigPath); cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Join(ErrReadConfig, err)
		}
	}

	v.AutomaticEnv()

	executableName, err := os.Executable()
	if err != nil {
		return Config{}, err
	}
	if err := bindFlags(path.Base(executableName), cmd, v); err != nil {
		return Config{}, err
	}

	return loadFromViper(v)
}

func loadFromViper(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, errors.Join(ErrReadConfig, fmt.Errorf("failed creating decoder: %w", err))
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return cfg, errors.Join(ErrReadConfig, fmt.Errorf("failed decoding viper: %w", err))
	}

	return cfg, nil
}

func bindFlags(basename string, cmd *cobra.Command, v *viper.Viper) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bindFlags failed: %v", r)
		}
	}()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		flagName := strings.TrimPrefix(f.Name, FlagPrefix)

		// Environment variables can't have dashes or dots in them, so bind
		// them to their equivalent keys with underscores, e.g.
		// ethlayer.rpc.url to ETHLAYER_RPC_URL
		envName := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(flagName))
		err = v.BindEnv(flagName, fmt.Sprintf("%s_%s", strings.ToUpper(basename), envName))
		if err != nil {
			panic(err)
		}

		err = v.BindPFlag(flagName, f)
		if err != nil {
			panic(err)
		}

		// Apply the viper config value to the flag when the flag is not set
		// and viper has a value.
		if !f.Changed && v.IsSet(flagName) {
			val := v.Get(flagName)
			err = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
			if err != nil {
				panic(err)
			}
		}
	})

	return err
}
