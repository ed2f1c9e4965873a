// Package settings loads runtime configuration for the settlement process:
// storage location, log output, and the staging-only relayer allowance.
//
// The on-chain ContractConfig record is not configured here; it lives in the
// store and is changed only through the ownership instructions.
package settings

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

// Settings is the process-level configuration.
type Settings struct {
	DatabasePath string `mapstructure:"database_path"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`

	// RPCEndpoints are the Solana JSON-RPC endpoints the runtime reader
	// rotates through.
	RPCEndpoints []string `mapstructure:"rpc_endpoints"`

	// AllowTestRelayers admits the listed staging keys next to the
	// configured MPC on verify/claim/refund. Default off; must never be
	// enabled in production deployments.
	AllowTestRelayers bool     `mapstructure:"allow_test_relayers"`
	TestRelayerKeys   []string `mapstructure:"test_relayer_keys"`
}

// Defaults are applied before any file or environment override.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database_path", "xbridge.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("rpc_endpoints", []string{"https://api.mainnet-beta.solana.com"})
	v.SetDefault("allow_test_relayers", false)
	v.SetDefault("test_relayer_keys", []string{})
}

// Load reads settings from the given config file (optional) and from
// XBRIDGE_-prefixed environment variables.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("XBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return &s, nil
}

// TestRelayers parses the configured staging keys. An empty result when the
// allowance is off means no bypass exists at all.
func (s *Settings) TestRelayers() ([]solana.PublicKey, error) {
	if !s.AllowTestRelayers {
		return nil, nil
	}
	keys := make([]solana.PublicKey, 0, len(s.TestRelayerKeys))
	for _, raw := range s.TestRelayerKeys {
		pk, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid test relayer key %q: %w", raw, err)
		}
		keys = append(keys, pk)
	}
	return keys, nil
}
