package collexpr

import (
	"github.com/Masterminds/semver/v3"

	"brackets/internal/diag"
	"brackets/internal/source"
)

// MinLanguageVersion is the first language version with collection
// expressions.
const MinLanguageVersion = "12.0"

var featureConstraint = mustConstraint(">= " + MinLanguageVersion)

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FeatureAvailable reports whether collection expressions may be used under
// the given language version. Nil means the latest version.
func FeatureAvailable(v *semver.Version) bool {
	return v == nil || featureConstraint.Check(v)
}

// checkFeature reports FEATURE_UNAVAILABLE once per binder.
func (b *Binder) checkFeature(sp source.Span) {
	if b.gated {
		return
	}
	b.gated = true
	if FeatureAvailable(b.e.lang) {
		return
	}
	b.root.Report(diag.Errorf(diag.CollFeatureUnavailable, sp,
		"feature 'collection expressions' is not available in language version %s; use %s or greater",
		b.e.lang.Original(), MinLanguageVersion))
}
