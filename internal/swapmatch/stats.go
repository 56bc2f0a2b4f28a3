package swapmatch

import "mpdcli/pkg/contracts/domain"

// ExclusionStats accumulates the loans excluded by failed quote matching.
// Surfaced to the caller with the enriched set; nothing here is swallowed.
type ExclusionStats struct {
	Count          int            `json:"count"`
	ExcludedVolume float64        `json:"excluded_volume"`
	MissesByMonth  map[string]int `json:"misses_by_month"`
}

// NewExclusionStats returns an empty accumulator.
func NewExclusionStats() *ExclusionStats {
	return &ExclusionStats{MissesByMonth: make(map[string]int)}
}

// Record counts one excluded loan by its document month.
func (s *ExclusionStats) Record(rec domain.NormalizedLoanRecord) {
	s.Count++
	s.ExcludedVolume += rec.LoanAmount
	s.MissesByMonth[rec.MonthKey()]++
}
