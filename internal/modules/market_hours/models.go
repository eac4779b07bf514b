// Package market_hours provides the exchange trading calendar.
package market_hours

import "time"

// TradingHours represents regular trading hours for an exchange
type TradingHours struct {
	OpenHour    int // Hour (0-23)
	OpenMinute  int // Minute (0-59)
	CloseHour   int // Hour (0-23)
	CloseMinute int // Minute (0-59)
}

// HolidayRuleSet defines holidays for an exchange
type HolidayRuleSet struct {
	FixedDateHolidays   []FixedDateHoliday
	EasterBasedHolidays []EasterBasedHoliday
}

// FixedDateHoliday represents a holiday on a fixed date
type FixedDateHoliday struct {
	Name  string
	Month int // 1-12
	Day   int // 1-31
	// If true, observe on nearest weekday if falls on weekend
	ObserveOnWeekday bool
}

// EasterBasedHoliday represents a holiday relative to Easter
type EasterBasedHoliday struct {
	Name       string
	DaysOffset int // Days from Easter (negative = before, positive = after)
}

// ExchangeConfig represents configuration for a single exchange
type ExchangeConfig struct {
	Code         string
	Name         string
	TradingHours TradingHours
	Timezone     *time.Location
	HolidayRules HolidayRuleSet
}

// MarketStatus represents the current status of a market
type MarketStatus struct {
	Open        bool   `json:"open"`
	TradingDay  bool   `json:"trading_day"`
	Exchange    string `json:"exchange"`
	Timezone    string `json:"timezone"`
	Date        string `json:"date"`
	ClosesAt    string `json:"closes_at,omitempty"`
	NextSession string `json:"next_session,omitempty"` // YYYY-MM-DD of the next trading day when closed
}
