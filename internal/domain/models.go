// Package domain provides core domain models and types.
package domain

import "time"

// DateLayout is the canonical layout of a trading date.
const DateLayout = "2006-01-02"

// Tier identifies one acquisition method in the fallback chain
type Tier string

// Tier constants, in fallback order
const (
	TierServiceBatch Tier = "service_batch"
	TierService      Tier = "service"
	TierDirectAPI    Tier = "direct_api"
	TierHTMLPage     Tier = "html_page"
)

// AcquisitionResult is one successfully acquired value. It only exists between
// acquisition and persistence.
type AcquisitionResult struct {
	Symbol string
	Value  float64
	Date   string // YYYY-MM-DD, the run's trading date
	Tier   Tier
}

// FormatDate renders t as a trading date in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
