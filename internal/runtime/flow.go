package runtime

import (
	"fmt"
	"strings"
)

// Variant names a preset for the publish pipeline's failure handling and
// optional stages.
type Variant string

const (
	// VariantStrict checks every step, guards against CI and never prunes.
	VariantStrict Variant = "strict"
	// VariantLenient ignores step failures, has no CI guard and prunes the
	// builder cache at the end.
	VariantLenient Variant = "lenient"
)

// Preset is what a Variant turns on.
type Preset struct {
	CheckStatus bool
	SkipInCI    bool
	Prune       bool
}

// ParseVariant accepts "strict" or "lenient" in any case; empty means strict.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(VariantStrict):
		return VariantStrict, nil
	case string(VariantLenient):
		return VariantLenient, nil
	default:
		return "", fmt.Errorf("invalid variant %q: must be one of: strict, lenient", s)
	}
}

// Preset resolves the variant's defaults. Unknown variants behave as strict.
func (v Variant) Preset() Preset {
	switch v {
	case VariantLenient:
		return Preset{CheckStatus: false, SkipInCI: false, Prune: true}
	default:
		return Preset{CheckStatus: true, SkipInCI: true, Prune: false}
	}
}

func (v Variant) String() string { return string(v) }
