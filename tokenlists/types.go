package tokenlists

// TokenList mirrors the community token list format: a named list of token
// entries, each scoped to one chain.
type TokenList struct {
	Name   string      `json:"name" toml:"name"`
	Tokens []TokenInfo `json:"tokens" toml:"tokens"`
}

// TokenInfo is one list entry.
type TokenInfo struct {
	ChainID  uint64 `json:"chainId" toml:"chain_id"`
	Address  string `json:"address" toml:"address"`
	Symbol   string `json:"symbol" toml:"symbol"`
	Name     string `json:"name" toml:"name"`
	Decimals int32  `json:"decimals" toml:"decimals"`
}
