package domain

import (
	"strings"
	"time"
)

// Committed-term buckets used for benchmark matching. TermUnknown marks
// records whose tie-in period could not be bucketed; they never proceed to
// matching.
const (
	TermUnknown = 0
	Term2Year   = 24
	Term5Year   = 60
)

// MonthKeyFormat is the layout for month keys (sorts lexicographically in
// chronological order).
const MonthKeyFormat = "2006-01"

// BandUnknown is the band label assigned when no premium could be derived.
const BandUnknown = "Unknown"

// RawLoanRecord is a per-loan disclosure record exactly as the ingestion
// collaborator hands it over. Field presence is the only contract: lender may
// arrive under either of two aliases, LTV under two spellings, and the tie-in
// period as numeric months or free text.
type RawLoanRecord struct {
	BaseLender   string  `json:"base_lender,omitempty"`
	Provider     string  `json:"provider,omitempty"`
	DocumentDate string  `json:"document_date,omitempty"`
	InitialRate  float64 `json:"initial_rate,omitempty"`
	LoanAmount   float64 `json:"loan_amount,omitempty"`
	LoanToValue  float64 `json:"loan_to_value,omitempty"`
	LTVPercent   float64 `json:"ltv_percent,omitempty"`
	ProductType  string  `json:"product_type,omitempty"`
	PurchaseType string  `json:"purchase_type,omitempty"`
	TieInPeriod  string  `json:"tie_in_period,omitempty"`
}

// LenderName resolves the lender aliases: the explicit base-lender field wins,
// the provider field is the fallback, and a record with neither still proceeds
// with an empty name (it just matches no lender filter).
func (r RawLoanRecord) LenderName() string {
	if name := strings.TrimSpace(r.BaseLender); name != "" {
		return name
	}
	return strings.TrimSpace(r.Provider)
}

// NormalizedLoanRecord is a RawLoanRecord after canonicalization: parsed
// document date, resolved lender name, LTV as a 0-100 percentage (0 when the
// source carried no LTV) and the committed term bucketed to 24/60 months.
type NormalizedLoanRecord struct {
	Lender       string    `json:"lender"`
	DocumentDate time.Time `json:"document_date"`
	InitialRate  float64   `json:"initial_rate"`
	LoanAmount   float64   `json:"loan_amount"`
	LTV          float64   `json:"ltv"`
	ProductType  string    `json:"product_type,omitempty"`
	PurchaseType string    `json:"purchase_type,omitempty"`
	TermMonths   int       `json:"term_months"`
}

// HasTerm reports whether the committed term landed in a known bucket.
func (r NormalizedLoanRecord) HasTerm() bool {
	return r.TermMonths != TermUnknown
}

// HasLTV reports whether the source carried any LTV data. A zero LTV is
// treated as absent; LTV-bucket filters pass such records (lenient default).
func (r NormalizedLoanRecord) HasLTV() bool {
	return r.LTV > 0
}

// MonthKey returns the record's YYYY-MM reporting bucket.
func (r NormalizedLoanRecord) MonthKey() string {
	return r.DocumentDate.Format(MonthKeyFormat)
}

// RateQuote is a wholesale swap-rate benchmark quote. Rate is a decimal
// fraction (0.015 means 1.5%).
type RateQuote struct {
	TermMonths    int       `json:"term_months" validate:"gt=0"`
	EffectiveDate time.Time `json:"effective_date" validate:"required"`
	Rate          float64   `json:"rate"`
}

// EnrichedLoanRecord is the unit the aggregation and filtering engine works
// on: a normalized record plus its matched quote and derived premium. Quote
// and PremiumBps are nil when no benchmark applied; Band is then BandUnknown.
type EnrichedLoanRecord struct {
	NormalizedLoanRecord

	Quote      *RateQuote `json:"quote,omitempty"`
	PremiumBps *int       `json:"premium_bps,omitempty"`
	Band       string     `json:"band"`
	Month      string     `json:"month"`
}

// HasPremium reports whether a numeric premium was derived.
func (r EnrichedLoanRecord) HasPremium() bool {
	return r.PremiumBps != nil
}
