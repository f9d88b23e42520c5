package swap

// QuoteStatus enumerates the observable states of an asynchronous quote
// resolution.
type QuoteStatus int

const (
	// QuoteNone means no quote was requested (empty input, or a wrap/unwrap
	// pair that needs no quote).
	QuoteNone QuoteStatus = iota
	QuotePending
	QuoteResolved
	QuoteFailed
)

func (s QuoteStatus) String() string {
	switch s {
	case QuotePending:
		return "pending"
	case QuoteResolved:
		return "resolved"
	case QuoteFailed:
		return "failed"
	default:
		return "none"
	}
}

// QuoteResult is the promise-like view of a quote resolution: pending,
// resolved with a trade, or failed with an error. Failures are data, not
// panics; the derivation pipeline treats a failed quote as an absent trade.
type QuoteResult struct {
	Status QuoteStatus
	Trade  *Trade
	Err    error
}

// NoQuote is the QuoteResult for inputs that need no resolution.
func NoQuote() QuoteResult {
	return QuoteResult{Status: QuoteNone}
}
