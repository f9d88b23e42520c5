package swap

import (
	"github.com/emberwallet/swapcore/engine/currency"
)

// WrapType classifies a currency pair as a native-asset wrap, an unwrap, or
// an ordinary swap that needs a price quote.
type WrapType int

const (
	WrapNotApplicable WrapType = iota
	Wrap
	Unwrap
)

func (w WrapType) String() string {
	switch w {
	case Wrap:
		return "wrap"
	case Unwrap:
		return "unwrap"
	default:
		return "not_applicable"
	}
}

// WrapClassifier decides wrap/unwrap against the registry's canonical
// wrapped-native mapping.
type WrapClassifier struct {
	registry *currency.Registry
}

// NewWrapClassifier creates a classifier backed by the given registry.
func NewWrapClassifier(registry *currency.Registry) WrapClassifier {
	return WrapClassifier{registry: registry}
}

// Classify returns Wrap when in is a chain's native currency and out is that
// same chain's canonical wrapped form, Unwrap for the reverse, and
// WrapNotApplicable otherwise. Total: either side may be nil.
func (c WrapClassifier) Classify(in, out *currency.Currency) WrapType {
	if in == nil || out == nil || in.ChainID != out.ChainID {
		return WrapNotApplicable
	}
	if in.Native {
		if wrapped, ok := c.registry.WrappedNative(in.ChainID); ok && wrapped.Equal(out) {
			return Wrap
		}
		return WrapNotApplicable
	}
	if out.Native {
		if wrapped, ok := c.registry.WrappedNative(out.ChainID); ok && wrapped.Equal(in) {
			return Unwrap
		}
	}
	return WrapNotApplicable
}

// IsWrapAction reports whether the classification means no quote is needed.
func IsWrapAction(w WrapType) bool {
	return w == Wrap || w == Unwrap
}
