package currency_test

import (
	"testing"

	"github.com/zeebo/assert"

	"github.com/emberwallet/swapcore/engine/currency"
)

func TestSeedForAddressDeterministic(t *testing.T) {
	addr := "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"

	first := currency.SeedForAddress(addr)
	second := currency.SeedForAddress(addr)
	assert.Equal(t, first, second)

	// Checksummed and lowercase forms seed identically.
	lower := currency.SeedForAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	assert.Equal(t, first, lower)

	other := currency.SeedForAddress("0x1111111111111111111111111111111111111111")
	assert.NotEqual(t, first, other)
}

func TestSeedForAddressPanicsOnGarbage(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid address")
		}
	}()
	currency.SeedForAddress("not-an-address")
}
