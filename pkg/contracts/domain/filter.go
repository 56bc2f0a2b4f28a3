package domain

// LTVBucket selects records by loan-to-value band.
type LTVBucket string

const (
	LTVAll     LTVBucket = "all"
	LTVBelow80 LTVBucket = "below-80"
	LTVAbove80 LTVBucket = "above-80"
)

// FilterCriteria carries the user's current selection. Every criterion is
// independently toggleable via FilterFlags; a criterion whose flag is off is
// ignored regardless of its value here.
type FilterCriteria struct {
	// Month keys (YYYY-MM), inclusive. Empty string leaves that end open.
	MonthFrom string `json:"month_from,omitempty"`
	MonthTo   string `json:"month_to,omitempty"`

	// Empty sets pass everything.
	Lenders       []string `json:"lenders,omitempty"`
	ProductTypes  []string `json:"product_types,omitempty"`
	PurchaseTypes []string `json:"purchase_types,omitempty"`

	MinPremiumBps int `json:"min_premium_bps"`
	MaxPremiumBps int `json:"max_premium_bps"`

	LTVBucket LTVBucket `json:"ltv_bucket,omitempty"`

	// Exact-match committed-term selector (Term2Year or Term5Year).
	TermMonths int `json:"term_months,omitempty"`
}

// FilterFlags records which criteria are in force. The zero value disables
// every filter.
type FilterFlags struct {
	DateRange    bool `json:"date_range"`
	Lender       bool `json:"lender"`
	Premium      bool `json:"premium"`
	ProductType  bool `json:"product_type"`
	PurchaseType bool `json:"purchase_type"`
	LTV          bool `json:"ltv"`
	Term         bool `json:"term"`
}

// WithoutLender returns a copy with the lender criterion disabled. Market
// baselines and lender-share denominators are computed against this view.
func (f FilterFlags) WithoutLender() FilterFlags {
	f.Lender = false
	return f
}
