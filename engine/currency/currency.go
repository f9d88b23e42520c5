package currency

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ChainID identifies an EVM chain.
type ChainID uint64

const (
	Mainnet  ChainID = 1
	Optimism ChainID = 10
	Polygon  ChainID = 137
	Base     ChainID = 8453
	Arbitrum ChainID = 42161
)

// chainInfo carries static per-chain metadata the pipeline needs without
// consulting any remote source.
type chainInfo struct {
	name           string
	nativeSymbol   string
	nativeName     string
	nativeDecimals int32
	explorerURL    string
}

var chains = map[ChainID]chainInfo{
	Mainnet:  {"Ethereum", "ETH", "Ether", 18, "https://etherscan.io"},
	Optimism: {"Optimism", "ETH", "Ether", 18, "https://optimistic.etherscan.io"},
	Polygon:  {"Polygon", "POL", "Polygon Ecosystem Token", 18, "https://polygonscan.com"},
	Base:     {"Base", "ETH", "Ether", 18, "https://basescan.org"},
	Arbitrum: {"Arbitrum", "ETH", "Ether", 18, "https://arbiscan.io"},
}

// Name returns the human readable chain name, or the numeric id for
// chains the pipeline has no metadata for.
func (c ChainID) Name() string {
	if info, ok := chains[c]; ok {
		return info.name
	}
	return strconv.FormatUint(uint64(c), 10)
}

// ExplorerTxURL builds a block explorer link for a transaction hash.
// Returns false when no explorer is known for the chain.
func ExplorerTxURL(chain ChainID, hash common.Hash) (string, bool) {
	info, ok := chains[chain]
	if !ok || info.explorerURL == "" {
		return "", false
	}
	return info.explorerURL + "/tx/" + hash.Hex(), true
}

// ID is a stable string identifier for a currency: "<chainId>-native" for the
// chain native asset, "<chainId>-<lowercase address>" for tokens.
type ID string

// Currency is a fungible token or a chain native currency. Immutable once
// resolved, either from the known-asset registry or synthesized for tokens
// the registry does not know about.
type Currency struct {
	ChainID  ChainID
	Address  common.Address // zero value for native currencies
	Native   bool
	Decimals int32
	Symbol   string
	Name     string
}

// NativeOnChain returns the native currency of the given chain.
func NativeOnChain(chain ChainID) *Currency {
	info, ok := chains[chain]
	if !ok {
		// Unknown chains still get a usable 18-decimal native placeholder.
		return &Currency{ChainID: chain, Native: true, Decimals: 18, Symbol: "ETH", Name: "Ether"}
	}
	return &Currency{
		ChainID:  chain,
		Native:   true,
		Decimals: info.nativeDecimals,
		Symbol:   info.nativeSymbol,
		Name:     info.nativeName,
	}
}

// NewToken builds a token currency.
func NewToken(chain ChainID, address common.Address, decimals int32, symbol, name string) *Currency {
	return &Currency{
		ChainID:  chain,
		Address:  address,
		Decimals: decimals,
		Symbol:   symbol,
		Name:     name,
	}
}

// ID returns the currency's stable identifier.
func (c *Currency) ID() ID {
	if c.Native {
		return ID(fmt.Sprintf("%d-native", c.ChainID))
	}
	return ID(fmt.Sprintf("%d-%s", c.ChainID, strings.ToLower(c.Address.Hex())))
}

// Equal reports whether two currencies identify the same asset.
func (c *Currency) Equal(other *Currency) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.ChainID == other.ChainID && c.Native == other.Native && c.Address == other.Address
}

// BuildID constructs a token ID from its chain and address.
func BuildID(chain ChainID, address common.Address) ID {
	return ID(fmt.Sprintf("%d-%s", chain, strings.ToLower(address.Hex())))
}

// NativeID constructs the ID of a chain's native currency.
func NativeID(chain ChainID) ID {
	return ID(fmt.Sprintf("%d-native", chain))
}

// ParseID splits an ID back into chain and address. The second return is the
// zero address for native IDs.
func ParseID(id ID) (ChainID, common.Address, bool, error) {
	chainStr, rest, found := strings.Cut(string(id), "-")
	if !found {
		return 0, common.Address{}, false, fmt.Errorf("malformed currency id %q", id)
	}
	chainNum, err := strconv.ParseUint(chainStr, 10, 64)
	if err != nil {
		return 0, common.Address{}, false, fmt.Errorf("malformed chain in currency id %q: %w", id, err)
	}
	if rest == "native" {
		return ChainID(chainNum), common.Address{}, true, nil
	}
	if !common.IsHexAddress(rest) {
		return 0, common.Address{}, false, fmt.Errorf("malformed address in currency id %q", id)
	}
	return ChainID(chainNum), common.HexToAddress(rest), false, nil
}
