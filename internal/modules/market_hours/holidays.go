package market_hours

import "time"

// CalculateEaster calculates the date of Western (Gregorian) Easter for a year
func CalculateEaster(year int) time.Time {
	// Golden Number (position in 19-year Metonic cycle)
	a := year % 19

	b := year / 100
	c := year % 100

	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451

	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// CalculateGoodFriday calculates Good Friday (Friday before Easter)
func CalculateGoodFriday(year int) time.Time {
	return CalculateEaster(year).AddDate(0, 0, -2)
}

// observeOnWeekday moves a date to the nearest weekday if it falls on a weekend
// Saturday -> Friday, Sunday -> Monday
func observeOnWeekday(date time.Time) time.Time {
	switch date.Weekday() {
	case time.Saturday:
		return date.AddDate(0, 0, -1)
	case time.Sunday:
		return date.AddDate(0, 0, 1)
	default:
		return date
	}
}

// holidaysForYear lists the rule-based holidays of config as YYYY-MM-DD
func holidaysForYear(config *ExchangeConfig, year int) map[string]bool {
	holidays := make(map[string]bool)

	for _, h := range config.HolidayRules.FixedDateHolidays {
		date := time.Date(year, time.Month(h.Month), h.Day, 0, 0, 0, 0, time.UTC)
		if h.ObserveOnWeekday {
			date = observeOnWeekday(date)
		}
		holidays[date.Format("2006-01-02")] = true
	}

	for _, h := range config.HolidayRules.EasterBasedHolidays {
		date := CalculateEaster(year).AddDate(0, 0, h.DaysOffset)
		holidays[date.Format("2006-01-02")] = true
	}

	return holidays
}
