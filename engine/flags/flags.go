// Package flags queries feature flags that toggle minor policy, such as
// token-quality filtering. Every source defaults to off when the backing
// store has no answer.
package flags

import (
	"github.com/spf13/viper"
)

// Flag names a feature flag.
type Flag string

const (
	// TokenQualityFilter drops portfolio entries for tokens outside the
	// known-asset registry instead of synthesizing unknown currencies.
	TokenQualityFilter Flag = "token_quality_filter"
)

// Source answers feature-flag queries synchronously.
type Source interface {
	IsEnabled(f Flag) bool
}

// Static is a fixed in-memory flag set. Missing flags read as off.
type Static map[Flag]bool

func (s Static) IsEnabled(f Flag) bool {
	return s[f]
}

// Disabled returns a source with every flag off.
func Disabled() Source {
	return Static{}
}

// ViperSource reads flags from a viper instance under the "flags." prefix,
// so config files can carry a [flags] table. Unset keys read as off.
type ViperSource struct {
	v *viper.Viper
}

// NewViperSource wraps a viper instance. A nil instance yields a source with
// everything off.
func NewViperSource(v *viper.Viper) *ViperSource {
	return &ViperSource{v: v}
}

func (s *ViperSource) IsEnabled(f Flag) bool {
	if s == nil || s.v == nil {
		return false
	}
	return s.v.GetBool("flags." + string(f))
}
