package swap_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/assert"

	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/engine/swap"
)

var (
	eth  = currency.NativeOnChain(currency.Mainnet)
	weth = currency.NewToken(
		currency.Mainnet,
		common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		18, "WETH", "Wrapped Ether",
	)
	usdc = currency.NewToken(
		currency.Mainnet,
		common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		6, "USDC", "USD Coin",
	)
	baseEth  = currency.NativeOnChain(currency.Base)
	baseWeth = currency.NewToken(
		currency.Base,
		common.HexToAddress("0x4200000000000000000000000000000000000006"),
		18, "WETH", "Wrapped Ether",
	)
)

func newTestClassifier() swap.WrapClassifier {
	r := currency.NewRegistry()
	r.SetWrappedNative(currency.Mainnet, weth)
	r.SetWrappedNative(currency.Base, baseWeth)
	r.Add(usdc)
	return swap.NewWrapClassifier(r)
}

func TestClassifyWrap(t *testing.T) {
	c := newTestClassifier()
	assert.Equal(t, c.Classify(eth, weth), swap.Wrap)
	assert.Equal(t, c.Classify(weth, eth), swap.Unwrap)
}

func TestClassifyOrdinarySwap(t *testing.T) {
	c := newTestClassifier()
	assert.Equal(t, c.Classify(eth, usdc), swap.WrapNotApplicable)
	assert.Equal(t, c.Classify(usdc, eth), swap.WrapNotApplicable)
	assert.Equal(t, c.Classify(weth, usdc), swap.WrapNotApplicable)
}

func TestClassifyCrossChain(t *testing.T) {
	c := newTestClassifier()

	// Native on one chain against the wrapped native of another is a swap.
	assert.Equal(t, c.Classify(eth, baseWeth), swap.WrapNotApplicable)
	assert.Equal(t, c.Classify(baseWeth, eth), swap.WrapNotApplicable)
	assert.Equal(t, c.Classify(baseEth, baseWeth), swap.Wrap)
}

func TestClassifyNilSides(t *testing.T) {
	c := newTestClassifier()
	assert.Equal(t, c.Classify(nil, weth), swap.WrapNotApplicable)
	assert.Equal(t, c.Classify(eth, nil), swap.WrapNotApplicable)
	assert.Equal(t, c.Classify(nil, nil), swap.WrapNotApplicable)
}

func TestClassifyUnknownWrappedNative(t *testing.T) {
	// A registry with no wrapped-native mapping can never classify a wrap.
	c := swap.NewWrapClassifier(currency.NewRegistry())
	assert.Equal(t, c.Classify(eth, weth), swap.WrapNotApplicable)
	assert.Equal(t, c.Classify(weth, eth), swap.WrapNotApplicable)
}

func TestIsWrapAction(t *testing.T) {
	assert.True(t, swap.IsWrapAction(swap.Wrap))
	assert.True(t, swap.IsWrapAction(swap.Unwrap))
	assert.False(t, swap.IsWrapAction(swap.WrapNotApplicable))
}
