package currency

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// SeedForAddress derives the four 32-bit words a blockies-style identicon
// renderer seeds its PRNG with. A malformed address panics: by the time an
// address reaches display helpers it has already passed through the wallet's
// account layer, so a bad one signals a programming error upstream rather
// than user input.
func SeedForAddress(address string) [4]uint32 {
	if !common.IsHexAddress(address) {
		panic(fmt.Sprintf("currency: invalid address %q passed to identicon seed", address))
	}
	normalized := strings.ToLower(common.HexToAddress(address).Hex())

	var seed [4]uint32
	for i := 0; i < len(normalized); i++ {
		j := i % 4
		seed[j] = (seed[j] << 5) - seed[j] + uint32(normalized[i])
	}
	return seed
}
