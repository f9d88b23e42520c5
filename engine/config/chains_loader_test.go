package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/emberwallet/swapcore/engine/config"
	"github.com/emberwallet/swapcore/engine/currency"
)

const chainsTOML = `
[[chains]]
id = 1
name = "Ethereum"
router = "0x3fC91A3afd70395Cd496C647d5a6CC9D4B2b7FAD"
reactor = "0x6000da47483062A0D734Ba3dc7576Ce6A0B645C4"

[chains.wrapped_native]
address = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
symbol = "WETH"
name = "Wrapped Ether"
decimals = 18

[[chains]]
id = 8453
name = "Base"
router = "0x2626664c2603336E57B271c5C0b26F421741e481"

[chains.wrapped_native]
address = "0x4200000000000000000000000000000000000006"
symbol = "WETH"
name = "Wrapped Ether"
decimals = 18
`

func writeChainsFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing chains file: %v", err)
	}
	return path
}

func TestChainsLoader_TOML(t *testing.T) {
	loader := config.NewChainsLoader()
	cfg, err := loader.LoadFromFile(writeChainsFile(t, "chains.toml", chainsTOML))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cfg.Chains) != 2 {
		t.Fatalf("expected 2 chains, got %d", len(cfg.Chains))
	}
	if cfg.Chains[0].ID != 1 || cfg.Chains[1].ID != 8453 {
		t.Errorf("unexpected chain ids: %+v", cfg.Chains)
	}
}

func TestChainsLoader_JSON(t *testing.T) {
	content := `{"chains":[{"id":1,"name":"Ethereum","wrapped_native":{"address":"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2","symbol":"WETH","name":"Wrapped Ether","decimals":18}}]}`
	loader := config.NewChainsLoader()
	cfg, err := loader.LoadFromFile(writeChainsFile(t, "chains.json", content))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cfg.Chains) != 1 || cfg.Chains[0].WrappedNative.Symbol != "WETH" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestChainsLoader_RejectsMalformed(t *testing.T) {
	loader := config.NewChainsLoader()

	missingID := `
[[chains]]
name = "Nowhere"

[chains.wrapped_native]
address = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
`
	if _, err := loader.LoadFromFile(writeChainsFile(t, "chains.toml", missingID)); err == nil {
		t.Fatalf("expected error for chain without id")
	}

	badWrapped := `
[[chains]]
id = 1
name = "Ethereum"

[chains.wrapped_native]
address = "not-an-address"
`
	if _, err := loader.LoadFromFile(writeChainsFile(t, "chains.toml", badWrapped)); err == nil {
		t.Fatalf("expected error for malformed wrapped native address")
	}

	if _, err := loader.LoadFromFile(writeChainsFile(t, "chains.toml", "")); err == nil {
		t.Fatalf("expected error for empty chains file")
	}
}

func TestChainsLoader_ApplyRegistersWrappedNatives(t *testing.T) {
	loader := config.NewChainsLoader()
	cfg, err := loader.LoadFromFile(writeChainsFile(t, "chains.toml", chainsTOML))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	registry := currency.NewRegistry()
	if err := loader.Apply(cfg, registry); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	wrapped, ok := registry.WrappedNative(currency.ChainID(8453))
	if !ok {
		t.Fatalf("expected wrapped native for chain 8453")
	}
	if wrapped.Symbol != "WETH" {
		t.Errorf("unexpected wrapped native: %+v", wrapped)
	}
}

func TestChainsLoader_RouterAndReactorMaps(t *testing.T) {
	loader := config.NewChainsLoader()
	cfg, err := loader.LoadFromFile(writeChainsFile(t, "chains.toml", chainsTOML))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	routers := loader.Routers(cfg)
	if len(routers) != 2 {
		t.Errorf("expected routers for both chains, got %d", len(routers))
	}

	// Only mainnet names a reactor in the fixture.
	reactors := loader.Reactors(cfg)
	if len(reactors) != 1 {
		t.Errorf("expected a single reactor, got %d", len(reactors))
	}
	if _, ok := reactors[currency.ChainID(1)]; !ok {
		t.Errorf("expected mainnet reactor: %+v", reactors)
	}
}
