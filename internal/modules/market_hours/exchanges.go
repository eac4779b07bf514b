package market_hours

import "time"

// ExchangeNSE is the MIC for the National Stock Exchange of India
const ExchangeNSE = "XNSE"

// nseConfig returns the NSE calendar in loc.
// Fixed national holidays and Good Friday are computed here; lunar festival
// closures move every year and come from configuration.
func nseConfig(loc *time.Location) *ExchangeConfig {
	return &ExchangeConfig{
		Code:     ExchangeNSE,
		Name:     "National Stock Exchange of India",
		Timezone: loc,
		TradingHours: TradingHours{
			OpenHour:    9,
			OpenMinute:  15,
			CloseHour:   15,
			CloseMinute: 30,
		},
		HolidayRules: HolidayRuleSet{
			FixedDateHolidays: []FixedDateHoliday{
				{Name: "Republic Day", Month: 1, Day: 26},
				{Name: "Maharashtra Day", Month: 5, Day: 1},
				{Name: "Independence Day", Month: 8, Day: 15},
				{Name: "Gandhi Jayanti", Month: 10, Day: 2},
				{Name: "Christmas", Month: 12, Day: 25},
			},
			EasterBasedHolidays: []EasterBasedHoliday{
				{Name: "Good Friday", DaysOffset: -2},
			},
		},
	}
}
