package premium

import (
	"sort"
	"strconv"
)

// bandLabel renders the half-open interval [lower, upper).
func bandLabel(lower, upper int) string {
	return strconv.Itoa(lower) + "-" + strconv.Itoa(upper)
}

// ParseBand recovers the interval of a band label. The separator is the
// first '-' following a digit, which keeps negative bounds ("-60--40")
// unambiguous. Returns ok=false for BandUnknown or malformed labels.
func ParseBand(label string) (lower, upper int, ok bool) {
	sep := -1
	for i := 1; i < len(label); i++ {
		if label[i] == '-' && label[i-1] >= '0' && label[i-1] <= '9' {
			sep = i
			break
		}
	}
	if sep < 0 {
		return 0, 0, false
	}

	lower, err := strconv.Atoi(label[:sep])
	if err != nil {
		return 0, 0, false
	}
	upper, err = strconv.Atoi(label[sep+1:])
	if err != nil {
		return 0, 0, false
	}
	return lower, upper, true
}

// BandLower returns the lower bound of a band label.
func BandLower(label string) (int, bool) {
	lower, _, ok := ParseBand(label)
	return lower, ok
}

// Overlaps reports whether a band's half-open interval intersects the
// inclusive premium range [minBps, maxBps]. Used by the premium filter when a
// record carries only a band label: any overlap passes, not exact
// containment.
func Overlaps(label string, minBps, maxBps int) bool {
	lower, upper, ok := ParseBand(label)
	if !ok {
		return false
	}
	return lower <= maxBps && upper > minBps
}

// SortBands orders band labels ascending by lower bound. Unparseable labels
// (never produced by AssignBand) sort last.
func SortBands(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		li, iok := BandLower(labels[i])
		lj, jok := BandLower(labels[j])
		if iok != jok {
			return iok
		}
		return li < lj
	})
}

// Contains reports whether a premium falls in the labelled band.
func Contains(label string, bps int) bool {
	lower, upper, ok := ParseBand(label)
	if !ok {
		return false
	}
	return bps >= lower && bps < upper
}
