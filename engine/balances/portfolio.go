package balances

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/engine/flags"
	"github.com/emberwallet/swapcore/engine/swap"
)

// PortfolioBalance is one holding: the amount, its USD value, and the 24h
// relative price change in percent.
type PortfolioBalance struct {
	Amount           *currency.Amount
	BalanceUSD       decimal.Decimal
	RelativeChange24 decimal.Decimal
}

// Source is the balance data source the reader consumes.
type Source interface {
	FetchPortfolio(ctx context.Context, chain currency.ChainID, owner common.Address, ignoreSmallBalances bool) ([]TokenBalanceRecord, error)
	FetchNativeBalance(ctx context.Context, chain currency.ChainID, owner common.Address) (decimal.Decimal, error)
}

// Reader turns raw balance records into currency-typed portfolio balances,
// resolving tokens against the known-asset registry.
type Reader struct {
	source   Source
	registry *currency.Registry
	flags    flags.Source

	// IgnoreSmallBalances is forwarded to the data source on portfolio
	// queries.
	IgnoreSmallBalances bool
}

// NewReader creates a reader. A nil flag source behaves as all-off.
func NewReader(source Source, registry *currency.Registry, flagSource flags.Source) *Reader {
	if flagSource == nil {
		flagSource = flags.Disabled()
	}
	return &Reader{source: source, registry: registry, flags: flagSource}
}

// PortfolioBalances returns the owner's token balances on a chain keyed by
// currency ID. Records missing required fields are skipped. Tokens outside
// the registry are synthesized from the record's own metadata unless the
// token-quality filter flag is on, in which case they are dropped.
func (r *Reader) PortfolioBalances(ctx context.Context, chain currency.ChainID, owner common.Address) (map[currency.ID]PortfolioBalance, error) {
	records, err := r.source.FetchPortfolio(ctx, chain, owner, r.IgnoreSmallBalances)
	if err != nil {
		return nil, err
	}

	qualityFilter := r.flags.IsEnabled(flags.TokenQualityFilter)

	byID := make(map[currency.ID]PortfolioBalance, len(records))
	for _, record := range records {
		// Require all of these fields to be present.
		if record.Quantity == "" || record.BalanceUSD == "" || !common.IsHexAddress(record.Address) || record.Decimals <= 0 {
			continue
		}
		quantity, err := decimal.NewFromString(record.Quantity)
		if err != nil {
			continue
		}
		balanceUSD, err := decimal.NewFromString(record.BalanceUSD)
		if err != nil {
			continue
		}

		address := common.HexToAddress(record.Address)
		id := currency.BuildID(chain, address)
		known, isKnown := r.registry.Lookup(id)
		if qualityFilter && !isKnown {
			continue
		}

		c := known
		if !isKnown {
			c = currency.NewToken(chain, address, record.Decimals, record.Symbol, record.Name)
		}

		byID[id] = PortfolioBalance{
			Amount:           currency.NewAmount(c, quantity),
			BalanceUSD:       balanceUSD,
			RelativeChange24: percentDifference(record.QuoteRate, record.QuoteRate24h),
		}
	}

	return byID, nil
}

// NativeBalance returns the owner's native-currency balance on a chain.
func (r *Reader) NativeBalance(ctx context.Context, chain currency.ChainID, owner common.Address) (*currency.Amount, error) {
	quantity, err := r.source.FetchNativeBalance(ctx, chain, owner)
	if err != nil {
		return nil, err
	}
	return currency.NewAmount(currency.NativeOnChain(chain), quantity), nil
}

// TokenBalance returns the owner's balance of one token, zero when the
// portfolio does not hold it.
func (r *Reader) TokenBalance(ctx context.Context, c *currency.Currency, owner common.Address) (*currency.Amount, error) {
	if c == nil || c.Native {
		return nil, fmt.Errorf("token balance requested for a non-token currency")
	}
	byID, err := r.PortfolioBalances(ctx, c.ChainID, owner)
	if err != nil {
		return nil, err
	}
	if held, ok := byID[c.ID()]; ok {
		return held.Amount, nil
	}
	return currency.NewAmount(c, decimal.Zero), nil
}

// View assembles the four balances a swap derivation needs, querying the
// native source for native currencies and the token source for tokens.
// A nil currency leaves its side's balances nil.
func (r *Reader) View(ctx context.Context, in, out *currency.Currency, owner common.Address) (swap.BalanceView, error) {
	var view swap.BalanceView
	var err error

	if in != nil {
		if in.Native {
			view.NativeInput, err = r.NativeBalance(ctx, in.ChainID, owner)
		} else {
			view.TokenInput, err = r.TokenBalance(ctx, in, owner)
		}
		if err != nil {
			return swap.BalanceView{}, err
		}
	}
	if out != nil {
		if out.Native {
			view.NativeOutput, err = r.NativeBalance(ctx, out.ChainID, owner)
		} else {
			view.TokenOutput, err = r.TokenBalance(ctx, out, owner)
		}
		if err != nil {
			return swap.BalanceView{}, err
		}
	}

	return view, nil
}

// SortedByValue flattens a balance map into a list sorted by USD value,
// largest first, capped at count when count > 0.
func SortedByValue(byID map[currency.ID]PortfolioBalance, count int) []PortfolioBalance {
	all := make([]PortfolioBalance, 0, len(byID))
	for _, b := range byID {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].BalanceUSD.GreaterThan(all[j].BalanceUSD)
	})
	if count > 0 && len(all) > count {
		all = all[:count]
	}
	return all
}

// percentDifference computes (current-previous)/previous in percent from
// decimal strings, zero when either rate is unusable.
func percentDifference(current, previous string) decimal.Decimal {
	cur, err := decimal.NewFromString(current)
	if err != nil {
		return decimal.Zero
	}
	prev, err := decimal.NewFromString(previous)
	if err != nil || prev.IsZero() {
		return decimal.Zero
	}
	return cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
}
