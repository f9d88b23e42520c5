package quote

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/engine/swap"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "quote").Logger()
}

var (
	fetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapcore_quote_fetches_total",
		Help: "Quote fetches issued to the quoting source",
	})
	fetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapcore_quote_fetch_failures_total",
		Help: "Quote fetches that returned an error",
	})
	staleResultsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapcore_quote_stale_results_total",
		Help: "Quote results discarded because their input tuple was superseded",
	})
)

// Request fully defines a quote: the exact amount on one side, the currency
// on the other side, and the trade direction.
type Request struct {
	Amount *currency.Amount
	Other  *currency.Currency
	Type   swap.TradeType
}

// Key returns the input tuple tag for the request. In-flight resolutions are
// keyed by it, both for deduplication and for discarding stale results.
func (r Request) Key() string {
	return strings.Join([]string{
		r.Type.String(),
		string(r.Amount.Currency.ID()),
		string(r.Other.ID()),
		r.Amount.Exact(),
	}, "|")
}

// Source is the external quoting source.
type Source interface {
	FetchQuote(ctx context.Context, req Request) (*swap.Trade, error)
}

// Resolver resolves price quotes asynchronously and exposes the loading /
// resolved / failed state to callers without blocking them.
//
// Identical requests during an in-flight fetch share the same pending result
// through singleflight rather than issuing duplicates. Every resolution is
// keyed to its originating input tuple; a completion whose tuple no longer
// matches the most recent input is discarded (last-input-wins).
type Resolver struct {
	source Source
	group  singleflight.Group

	mu        sync.Mutex
	key       string
	current   swap.QuoteResult
	listeners []func(swap.QuoteResult)
}

// NewResolver creates a resolver over the given source.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Subscribe registers a listener invoked after every state change. Listeners
// are called from the resolving goroutine; they should hand off promptly.
func (r *Resolver) Subscribe(fn func(swap.QuoteResult)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Current returns the latest observable state.
func (r *Resolver) Current() swap.QuoteResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Resolve records req as the most recent input and returns the immediately
// observable state: none for empty requests, the existing pending or
// resolved state when the input tuple is unchanged, or pending with a fetch
// started in the background. A previously failed tuple is retried. It never
// blocks on the network.
func (r *Resolver) Resolve(ctx context.Context, req *Request) swap.QuoteResult {
	if req == nil || req.Amount == nil || req.Other == nil {
		r.transition("", swap.NoQuote())
		return swap.NoQuote()
	}

	key := req.Key()

	r.mu.Lock()
	// A failed state is not sticky: re-entering the same input retries.
	if r.key == key && r.current.Status != swap.QuoteFailed {
		cur := r.current
		r.mu.Unlock()
		return cur
	}
	r.key = key
	r.current = swap.QuoteResult{Status: swap.QuotePending}
	r.mu.Unlock()

	// The caller's ctx may be request-scoped; the background fetch should
	// outlive it and be discarded by the staleness check instead.
	go r.fetch(context.WithoutCancel(ctx), key, *req)

	return swap.QuoteResult{Status: swap.QuotePending}
}

// Await resolves synchronously: it shares the same dedup and staleness rules
// as Resolve but blocks until the fetch completes or ctx expires.
func (r *Resolver) Await(ctx context.Context, req *Request) swap.QuoteResult {
	if req == nil || req.Amount == nil || req.Other == nil {
		r.transition("", swap.NoQuote())
		return swap.NoQuote()
	}

	key := req.Key()
	r.mu.Lock()
	if r.key == key && r.current.Status == swap.QuoteResolved {
		cur := r.current
		r.mu.Unlock()
		return cur
	}
	r.key = key
	r.current = swap.QuoteResult{Status: swap.QuotePending}
	r.mu.Unlock()

	return r.fetch(ctx, key, *req)
}

// fetch performs the deduplicated source call and publishes the result if
// the input tuple is still current.
func (r *Resolver) fetch(ctx context.Context, key string, req Request) swap.QuoteResult {
	v, err, shared := r.group.Do(key, func() (interface{}, error) {
		fetchesTotal.Inc()
		return r.source.FetchQuote(ctx, req)
	})
	if shared {
		log.Debug().Str("key", key).Msg("Quote fetch deduplicated")
	}

	var result swap.QuoteResult
	if err != nil {
		fetchFailuresTotal.Inc()
		result = swap.QuoteResult{Status: swap.QuoteFailed, Err: fmt.Errorf("quote fetch: %w", err)}
		log.Warn().Err(err).Str("key", key).Msg("Quote fetch failed")
	} else {
		result = swap.QuoteResult{Status: swap.QuoteResolved, Trade: v.(*swap.Trade)}
	}

	r.mu.Lock()
	if r.key != key {
		staleResultsTotal.Inc()
		cur := r.current
		r.mu.Unlock()
		log.Debug().Str("key", key).Msg("Discarding stale quote result")
		return cur
	}
	r.current = result
	listeners := make([]func(swap.QuoteResult), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(result)
	}
	return result
}

// transition replaces the current key and state, notifying listeners when
// the state actually changes.
func (r *Resolver) transition(key string, result swap.QuoteResult) {
	r.mu.Lock()
	changed := r.key != key || r.current.Status != result.Status
	r.key = key
	r.current = result
	listeners := make([]func(swap.QuoteResult), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(result)
	}
}
