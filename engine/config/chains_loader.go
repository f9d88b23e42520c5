package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pelletier/go-toml/v2"

	"github.com/emberwallet/swapcore/engine/currency"
)

// ChainsConfig is the on-disk chain metadata: per chain, the wrapped native
// token and the execution contracts.
type ChainsConfig struct {
	Chains []ChainEntry `toml:"chains" json:"chains"`
}

type ChainEntry struct {
	ID      uint64 `toml:"id" json:"id"`
	Name    string `toml:"name" json:"name"`
	Router  string `toml:"router" json:"router"`
	Reactor string `toml:"reactor" json:"reactor"`

	WrappedNative WrappedNativeEntry `toml:"wrapped_native" json:"wrapped_native"`
}

type WrappedNativeEntry struct {
	Address  string `toml:"address" json:"address"`
	Symbol   string `toml:"symbol" json:"symbol"`
	Name     string `toml:"name" json:"name"`
	Decimals int32  `toml:"decimals" json:"decimals"`
}

// ChainsLoader loads chain metadata files and wires them into the currency
// registry and contract maps.
type ChainsLoader struct{}

// NewChainsLoader creates a new chains loader.
func NewChainsLoader() *ChainsLoader {
	return &ChainsLoader{}
}

// LoadFromFile parses a chains file. TOML by default, JSON when the path
// ends in .json.
func (l *ChainsLoader) LoadFromFile(filePath string) (*ChainsConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read chains file: %w", err)
	}

	var cfg ChainsConfig

	if strings.HasSuffix(filePath, ".json") {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON chains file: %w", err)
		}
	} else {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML chains file: %w", err)
		}
	}

	if len(cfg.Chains) == 0 {
		return nil, fmt.Errorf("no chains in config")
	}
	for _, chain := range cfg.Chains {
		if chain.ID == 0 {
			return nil, fmt.Errorf("chain %q has no id", chain.Name)
		}
		if !common.IsHexAddress(chain.WrappedNative.Address) {
			return nil, fmt.Errorf("chain %q has malformed wrapped native address %q", chain.Name, chain.WrappedNative.Address)
		}
	}

	return &cfg, nil
}

// Apply registers every chain's wrapped native token with the registry.
func (l *ChainsLoader) Apply(cfg *ChainsConfig, registry *currency.Registry) error {
	for _, chain := range cfg.Chains {
		wrapped := currency.NewToken(
			currency.ChainID(chain.ID),
			common.HexToAddress(chain.WrappedNative.Address),
			chain.WrappedNative.Decimals,
			chain.WrappedNative.Symbol,
			chain.WrappedNative.Name,
		)
		registry.SetWrappedNative(currency.ChainID(chain.ID), wrapped)
	}
	return nil
}

// Routers returns the per-chain swap router contracts named in the config.
func (l *ChainsLoader) Routers(cfg *ChainsConfig) map[currency.ChainID]common.Address {
	routers := make(map[currency.ChainID]common.Address)
	for _, chain := range cfg.Chains {
		if common.IsHexAddress(chain.Router) {
			routers[currency.ChainID(chain.ID)] = common.HexToAddress(chain.Router)
		}
	}
	return routers
}

// Reactors returns the per-chain limit order reactor contracts named in the
// config, as consumed by the cancellation flow.
func (l *ChainsLoader) Reactors(cfg *ChainsConfig) map[currency.ChainID]common.Address {
	reactors := make(map[currency.ChainID]common.Address)
	for _, chain := range cfg.Chains {
		if common.IsHexAddress(chain.Reactor) {
			reactors[currency.ChainID(chain.ID)] = common.HexToAddress(chain.Reactor)
		}
	}
	return reactors
}
