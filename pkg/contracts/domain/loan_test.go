package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLenderName(t *testing.T) {
	tests := []struct {
		name     string
		raw      RawLoanRecord
		expected string
	}{
		{"base lender wins", RawLoanRecord{BaseLender: "HSBC", Provider: "HSBC Bank plc"}, "HSBC"},
		{"provider fallback", RawLoanRecord{Provider: "Barclays"}, "Barclays"},
		{"whitespace trimmed", RawLoanRecord{BaseLender: "  ", Provider: " NatWest "}, "NatWest"},
		{"neither present", RawLoanRecord{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.raw.LenderName())
		})
	}
}

func TestMonthKey(t *testing.T) {
	rec := NormalizedLoanRecord{DocumentDate: time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2023-01", rec.MonthKey())

	assert.Equal(t, "0001-01", NormalizedLoanRecord{}.MonthKey())
}

func TestHasLTV(t *testing.T) {
	assert.False(t, NormalizedLoanRecord{}.HasLTV())
	assert.True(t, NormalizedLoanRecord{LTV: 75}.HasLTV())
}

func TestHasPremium(t *testing.T) {
	bps := 249
	assert.True(t, EnrichedLoanRecord{PremiumBps: &bps}.HasPremium())
	assert.False(t, EnrichedLoanRecord{}.HasPremium())
}

func TestWithoutLender(t *testing.T) {
	flags := FilterFlags{DateRange: true, Lender: true, Premium: true}
	stripped := flags.WithoutLender()

	assert.False(t, stripped.Lender)
	assert.True(t, stripped.DateRange)
	assert.True(t, stripped.Premium)
	// Original is unchanged.
	assert.True(t, flags.Lender)
}
