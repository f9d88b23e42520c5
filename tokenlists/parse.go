package tokenlists

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pelletier/go-toml/v2"

	"github.com/emberwallet/swapcore/engine/currency"
)

// ParseFile parses one token list file. JSON by default, TOML when the path
// ends in .toml.
func ParseFile(path string) (*TokenList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token list: %w", err)
	}

	var list TokenList
	if strings.HasSuffix(path, ".toml") {
		if err := toml.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to parse TOML token list %s: %w", path, err)
		}
	} else {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to parse JSON token list %s: %w", path, err)
		}
	}
	return &list, nil
}

// LoadDir parses every .json and .toml token list under dir.
func LoadDir(dir string) ([]*TokenList, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read token list dir: %w", err)
	}

	var lists []*TokenList
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".toml") {
			continue
		}
		list, err := ParseFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, nil
}

// Register adds every well-formed entry of the list to the registry and
// returns how many were added. Entries with malformed addresses or missing
// symbols are skipped rather than failing the whole list.
func Register(list *TokenList, registry *currency.Registry) int {
	added := 0
	for _, info := range list.Tokens {
		if info.ChainID == 0 || info.Symbol == "" || !common.IsHexAddress(info.Address) {
			continue
		}
		registry.Add(currency.NewToken(
			currency.ChainID(info.ChainID),
			common.HexToAddress(info.Address),
			info.Decimals,
			info.Symbol,
			info.Name,
		))
		added++
	}
	return added
}
