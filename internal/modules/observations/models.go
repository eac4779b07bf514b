// Package observations provides persistence and queries for P/E observations.
package observations

// SeriesPoint is one dated value of a company series
type SeriesPoint struct {
	Date    string  `json:"date"`
	PERatio float64 `json:"pe_ratio"`
}

// CompanySeries is the ascending P/E history of one security
type CompanySeries struct {
	CompanyID int64         `json:"company_id"`
	Symbol    string        `json:"symbol"`
	Name      string        `json:"name"`
	Sector    *string       `json:"sector"`
	Data      []SeriesPoint `json:"data"`
}

// Stats summarises stored data
type Stats struct {
	TotalCompanies    int     `json:"total_companies"`
	TotalObservations int     `json:"total_data_points"`
	EarliestDate      *string `json:"earliest_date"`
	LatestDate        *string `json:"latest_date"`
}

// DateRange is an inclusive YYYY-MM-DD filter; empty bounds are open
type DateRange struct {
	From string
	To   string
}
