package balances_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/emberwallet/swapcore/engine/balances"
	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/engine/flags"
)

var (
	owner    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	daiAddr  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

// fakeSource serves canned records and a fixed native balance.
type fakeSource struct {
	records []balances.TokenBalanceRecord
	native  decimal.Decimal
	err     error
}

func (f *fakeSource) FetchPortfolio(ctx context.Context, chain currency.ChainID, owner common.Address, ignoreSmallBalances bool) ([]balances.TokenBalanceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeSource) FetchNativeBalance(ctx context.Context, chain currency.ChainID, owner common.Address) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.native, nil
}

func usdcRecord() balances.TokenBalanceRecord {
	return balances.TokenBalanceRecord{
		Address:      usdcAddr.Hex(),
		Symbol:       "USDC",
		Name:         "USD Coin",
		Decimals:     6,
		Quantity:     "250.5",
		BalanceUSD:   "250.50",
		QuoteRate:    "1.00",
		QuoteRate24h: "1.00",
	}
}

func registryWithUSDC() *currency.Registry {
	r := currency.NewRegistry()
	r.Add(currency.NewToken(currency.Mainnet, usdcAddr, 6, "USDC", "USD Coin"))
	return r
}

func TestPortfolioBalancesSkipsIncompleteRecords(t *testing.T) {
	source := &fakeSource{records: []balances.TokenBalanceRecord{
		usdcRecord(),
		{Address: usdcAddr.Hex(), Symbol: "NOQTY", Decimals: 6, BalanceUSD: "10"},
		{Address: daiAddr.Hex(), Symbol: "NOUSD", Decimals: 18, Quantity: "5"},
		{Address: "not-an-address", Symbol: "BADADDR", Decimals: 18, Quantity: "5", BalanceUSD: "5"},
		{Address: daiAddr.Hex(), Symbol: "BADDEC", Decimals: 0, Quantity: "5", BalanceUSD: "5"},
		{Address: daiAddr.Hex(), Symbol: "BADNUM", Decimals: 18, Quantity: "five", BalanceUSD: "5"},
	}}
	reader := balances.NewReader(source, registryWithUSDC(), nil)

	byID, err := reader.PortfolioBalances(context.Background(), currency.Mainnet, owner)
	assert.NoError(t, err)
	assert.Equal(t, len(byID), 1)

	held, ok := byID[currency.BuildID(currency.Mainnet, usdcAddr)]
	assert.True(t, ok)
	assert.Equal(t, held.Amount.Exact(), "250.5")
	assert.True(t, held.BalanceUSD.Equal(decimal.RequireFromString("250.50")))
}

func TestPortfolioBalancesSynthesizesUnknownTokens(t *testing.T) {
	record := usdcRecord()
	record.Address = daiAddr.Hex()
	record.Symbol = "DAI"
	record.Decimals = 18
	source := &fakeSource{records: []balances.TokenBalanceRecord{record}}
	reader := balances.NewReader(source, registryWithUSDC(), nil)

	byID, err := reader.PortfolioBalances(context.Background(), currency.Mainnet, owner)
	assert.NoError(t, err)

	held, ok := byID[currency.BuildID(currency.Mainnet, daiAddr)]
	assert.True(t, ok)
	assert.Equal(t, held.Amount.Currency.Symbol, "DAI")
	assert.Equal(t, held.Amount.Currency.Decimals, int32(18))
}

func TestQualityFilterDropsUnknownTokens(t *testing.T) {
	unknown := usdcRecord()
	unknown.Address = daiAddr.Hex()
	unknown.Symbol = "DAI"
	source := &fakeSource{records: []balances.TokenBalanceRecord{usdcRecord(), unknown}}
	flagSource := flags.Static{flags.TokenQualityFilter: true}
	reader := balances.NewReader(source, registryWithUSDC(), flagSource)

	byID, err := reader.PortfolioBalances(context.Background(), currency.Mainnet, owner)
	assert.NoError(t, err)
	assert.Equal(t, len(byID), 1)

	_, ok := byID[currency.BuildID(currency.Mainnet, daiAddr)]
	assert.False(t, ok)
}

func TestRelativeChangeComputedFromQuoteRates(t *testing.T) {
	record := usdcRecord()
	record.QuoteRate = "1.10"
	record.QuoteRate24h = "1.00"
	source := &fakeSource{records: []balances.TokenBalanceRecord{record}}
	reader := balances.NewReader(source, registryWithUSDC(), nil)

	byID, err := reader.PortfolioBalances(context.Background(), currency.Mainnet, owner)
	assert.NoError(t, err)

	held := byID[currency.BuildID(currency.Mainnet, usdcAddr)]
	assert.True(t, held.RelativeChange24.Round(4).Equal(decimal.RequireFromString("10")))
}

func TestNativeBalance(t *testing.T) {
	source := &fakeSource{native: decimal.RequireFromString("1.25")}
	reader := balances.NewReader(source, registryWithUSDC(), nil)

	amount, err := reader.NativeBalance(context.Background(), currency.Mainnet, owner)
	assert.NoError(t, err)
	assert.True(t, amount.Currency.Native)
	assert.Equal(t, amount.Exact(), "1.25")
}

func TestTokenBalanceZeroWhenUnheld(t *testing.T) {
	source := &fakeSource{records: nil}
	registry := registryWithUSDC()
	reader := balances.NewReader(source, registry, nil)

	usdc, _ := registry.Lookup(currency.BuildID(currency.Mainnet, usdcAddr))
	amount, err := reader.TokenBalance(context.Background(), usdc, owner)
	assert.NoError(t, err)
	assert.True(t, amount.IsZero())

	// Native currencies are not token balances.
	_, err = reader.TokenBalance(context.Background(), currency.NativeOnChain(currency.Mainnet), owner)
	assert.Error(t, err)
}

func TestViewRoutesNativeAndTokenSides(t *testing.T) {
	source := &fakeSource{
		records: []balances.TokenBalanceRecord{usdcRecord()},
		native:  decimal.RequireFromString("10"),
	}
	registry := registryWithUSDC()
	reader := balances.NewReader(source, registry, nil)

	eth := currency.NativeOnChain(currency.Mainnet)
	usdc, _ := registry.Lookup(currency.BuildID(currency.Mainnet, usdcAddr))

	view, err := reader.View(context.Background(), eth, usdc, owner)
	assert.NoError(t, err)
	assert.NotNil(t, view.NativeInput)
	assert.Equal(t, view.NativeInput.Exact(), "10")
	assert.NotNil(t, view.TokenOutput)
	assert.Equal(t, view.TokenOutput.Exact(), "250.5")
	assert.Nil(t, view.TokenInput)
	assert.Nil(t, view.NativeOutput)

	// A nil side stays nil.
	view, err = reader.View(context.Background(), nil, usdc, owner)
	assert.NoError(t, err)
	assert.Nil(t, view.NativeInput)
	assert.Nil(t, view.TokenInput)
}

func TestViewPropagatesSourceErrors(t *testing.T) {
	source := &fakeSource{err: errors.New("indexer down")}
	reader := balances.NewReader(source, registryWithUSDC(), nil)

	_, err := reader.View(context.Background(), currency.NativeOnChain(currency.Mainnet), nil, owner)
	assert.Error(t, err)
}

func TestSortedByValue(t *testing.T) {
	registry := registryWithUSDC()
	usdc, _ := registry.Lookup(currency.BuildID(currency.Mainnet, usdcAddr))
	mk := func(usd string) balances.PortfolioBalance {
		return balances.PortfolioBalance{
			Amount:     currency.NewAmount(usdc, decimal.NewFromInt(1)),
			BalanceUSD: decimal.RequireFromString(usd),
		}
	}

	byID := map[currency.ID]balances.PortfolioBalance{
		"a": mk("5"),
		"b": mk("500"),
		"c": mk("50"),
	}

	sorted := balances.SortedByValue(byID, 0)
	assert.Equal(t, len(sorted), 3)
	assert.True(t, sorted[0].BalanceUSD.Equal(decimal.RequireFromString("500")))
	assert.True(t, sorted[2].BalanceUSD.Equal(decimal.RequireFromString("5")))

	capped := balances.SortedByValue(byID, 2)
	assert.Equal(t, len(capped), 2)
}
