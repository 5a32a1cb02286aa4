package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RPC.URL = ""
	require.Error(t, cfg.Validate())
}

func TestValidateEscalator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Escalator.Enabled = true
	require.NoError(t, cfg.Validate())

	cfg.Escalator.Strategy = "quadratic"
	require.Error(t, cfg.Validate())

	cfg.Escalator.Strategy = StrategyLinear
	cfg.Escalator.Increase = "not-a-number"
	require.Error(t, cfg.Validate())

	cfg.Escalator.Increase = "1000"
	cfg.Escalator.Interval = 0
	require.Error(t, cfg.Validate())
}

func TestRegistryAddress(t *testing.T) {
	cfg := DefaultConfig()

	addr, err := cfg.ENS.RegistryAddress()
	require.NoError(t, err)
	assert.Nil(t, addr)

	cfg.ENS.Registry = "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"
	addr, err = cfg.ENS.RegistryAddress()
	require.NoError(t, err)
	require.NotNil(t, addr)

	cfg.ENS.Registry = "not-an-address"
	_, err = cfg.ENS.RegistryAddress()
	require.Error(t, err)
}

func TestWeiParsing(t *testing.T) {
	e := EscalatorConfig{Increase: "2000000000", MaxPrice: ""}

	inc, err := e.IncreaseWei()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2_000_000_000), inc)

	maxPrice, err := e.MaxPriceWei()
	require.NoError(t, err)
	assert.Nil(t, maxPrice)

	e.MaxPrice = "-5"
	_, err = e.MaxPriceWei()
	require.Error(t, err)
}

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	AddFlags(cmd)
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Parse(nil))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Parse([]string{
		"--" + FlagRPCURL, "http://node:8545",
		"--" + FlagEscalatorEnabled,
		"--" + FlagEscalatorInterval, "90s",
	}))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, "http://node:8545", cfg.RPC.URL)
	assert.True(t, cfg.Escalator.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Escalator.Interval)
	// Untouched values keep their defaults.
	assert.Equal(t, DefaultConfig().Logs.PageSize, cfg.Logs.PageSize)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ethlayer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
rpc:
  url: "ws://node:8546"
  timeout: 10s
logs:
  page_size: 500
`), 0o600))

	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--" + FlagConfigPath, cfgPath}))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, "ws://node:8546", cfg.RPC.URL)
	assert.Equal(t, 10*time.Second, cfg.RPC.Timeout)
	assert.Equal(t, uint64(500), cfg.Logs.PageSize)
}

func TestLoadMissingYAMLFileFails(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--" + FlagConfigPath, "/does/not/exist.yaml"}))

	_, err := Load(cmd)
	require.ErrorIs(t, err, ErrReadConfig)
}
