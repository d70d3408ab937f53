package classify

import "github.com/dshills/sift/internal/finding"

// FingerprintSet holds fingerprints reported by earlier runs.
type FingerprintSet map[string]struct{}

// NewFingerprintSet builds a set from fps.
func NewFingerprintSet(fps ...string) FingerprintSet {
	s := make(FingerprintSet, len(fps))
	for _, fp := range fps {
		s[fp] = struct{}{}
	}
	return s
}

// Has reports whether fp is in the set.
func (s FingerprintSet) Has(fp string) bool {
	_, ok := s[fp]
	return ok
}

// DedupeAcrossRuns suppresses findings already reported by an earlier run and
// returns the ones that were not. existing is not modified.
func DedupeAcrossRuns(findings []*finding.Finding, existing FingerprintSet) []*finding.Finding {
	out := make([]*finding.Finding, 0, len(findings))
	for _, f := range findings {
		if existing.Has(f.Fingerprint) {
			f.Suppress(ReasonAlreadyReported)
			continue
		}
		out = append(out, f)
	}
	return out
}
