package market_hours

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Calendar answers trading-day questions for one exchange in its own timezone
type Calendar struct {
	config *ExchangeConfig
	extra  map[string]bool // configured closures, YYYY-MM-DD
	now    func() time.Time

	mu           sync.Mutex
	holidayCache map[int]map[string]bool // Cache holidays by year
}

// NewCalendar creates the NSE calendar in loc. extraHolidays are YYYY-MM-DD
// dates on which the exchange is closed in addition to the computed ones.
// now defaults to time.Now.
func NewCalendar(loc *time.Location, extraHolidays []string, now func() time.Time) (*Calendar, error) {
	if loc == nil {
		return nil, fmt.Errorf("calendar timezone is nil")
	}
	if now == nil {
		now = time.Now
	}

	extra := make(map[string]bool, len(extraHolidays))
	for _, day := range extraHolidays {
		d, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", day, err)
		}
		extra[d.Format("2006-01-02")] = true
	}

	return &Calendar{
		config:       nseConfig(loc),
		extra:        extra,
		now:          now,
		holidayCache: make(map[int]map[string]bool),
	}, nil
}

// Location returns the exchange timezone
func (c *Calendar) Location() *time.Location {
	return c.config.Timezone
}

// Now returns the current time in the exchange timezone
func (c *Calendar) Now() time.Time {
	return c.now().In(c.config.Timezone)
}

// Today returns the current trading date (YYYY-MM-DD) in the exchange timezone
func (c *Calendar) Today() string {
	return c.Now().Format("2006-01-02")
}

// IsHoliday reports whether t's exchange-local date is a holiday
func (c *Calendar) IsHoliday(t time.Time) bool {
	local := t.In(c.config.Timezone)
	day := local.Format("2006-01-02")
	if c.extra[day] {
		return true
	}
	return c.holidays(local.Year())[day]
}

// IsTradingDay reports whether t's exchange-local date is a weekday that is not a holiday
func (c *Calendar) IsTradingDay(t time.Time) bool {
	local := t.In(c.config.Timezone)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	return !c.IsHoliday(local)
}

// IsMarketOpen checks if the market is currently open for trading
func (c *Calendar) IsMarketOpen(t time.Time) bool {
	if !c.IsTradingDay(t) {
		return false
	}
	local := t.In(c.config.Timezone)
	openTime, closeTime := c.session(local)
	return !local.Before(openTime) && local.Before(closeTime)
}

// NextTradingDay returns the first trading day strictly after t's date
func (c *Calendar) NextTradingDay(t time.Time) time.Time {
	local := t.In(c.config.Timezone)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.config.Timezone)
	// NSE has never been closed for more than a couple of weeks
	for i := 1; i <= 30; i++ {
		next := day.AddDate(0, 0, i)
		if c.IsTradingDay(next) {
			return next
		}
	}
	return day.AddDate(0, 0, 1)
}

// Status returns detailed status for the market at t
func (c *Calendar) Status(t time.Time) MarketStatus {
	local := t.In(c.config.Timezone)
	status := MarketStatus{
		Open:       c.IsMarketOpen(local),
		TradingDay: c.IsTradingDay(local),
		Exchange:   c.config.Code,
		Timezone:   c.config.Timezone.String(),
		Date:       local.Format("2006-01-02"),
	}

	if status.Open {
		_, closeTime := c.session(local)
		status.ClosesAt = closeTime.Format("15:04")
	} else {
		status.NextSession = c.NextTradingDay(local).Format("2006-01-02")
		if status.TradingDay {
			if openTime, _ := c.session(local); local.Before(openTime) {
				status.NextSession = status.Date
			}
		}
	}

	return status
}

// Holidays returns every closure in year that falls on a weekday, sorted
func (c *Calendar) Holidays(year int) []string {
	seen := make(map[string]bool)
	for day := range c.holidays(year) {
		seen[day] = true
	}
	for day := range c.extra {
		seen[day] = true
	}

	out := make([]string, 0, len(seen))
	for day := range seen {
		d, err := time.Parse("2006-01-02", day)
		if err != nil || d.Year() != year {
			continue
		}
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, day)
	}
	sort.Strings(out)
	return out
}

func (c *Calendar) session(local time.Time) (time.Time, time.Time) {
	h := c.config.TradingHours
	openTime := time.Date(local.Year(), local.Month(), local.Day(), h.OpenHour, h.OpenMinute, 0, 0, c.config.Timezone)
	closeTime := time.Date(local.Year(), local.Month(), local.Day(), h.CloseHour, h.CloseMinute, 0, 0, c.config.Timezone)
	return openTime, closeTime
}

func (c *Calendar) holidays(year int) map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.holidayCache[year]; ok {
		return h
	}
	h := holidaysForYear(c.config, year)
	c.holidayCache[year] = h
	return h
}
