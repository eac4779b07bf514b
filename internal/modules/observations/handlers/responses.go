package handlers

import "github.com/aristath/petracker/internal/modules/observations"

// The query routes answer bare JSON bodies in the shapes the dashboard
// already consumes. Only /runs uses the {data, metadata} envelope.

type companyResponse struct {
	ID     int64   `json:"id"`
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Sector *string `json:"sector"`
}

type seriesResponse struct {
	Symbol string                     `json:"symbol"`
	Name   string                     `json:"name"`
	Data   []observations.SeriesPoint `json:"data"`
}

type observationRow struct {
	ID        int64   `json:"id"`
	CompanyID int64   `json:"company_id"`
	Date      string  `json:"date"`
	PERatio   float64 `json:"pe_ratio"`
	Timestamp string  `json:"timestamp"`
}

type statsResponse struct {
	TotalCompanies int               `json:"total_companies"`
	TotalRecords   int               `json:"total_records"`
	DateRange      dateRangeResponse `json:"date_range"`
}

type dateRangeResponse struct {
	Min *string `json:"min"`
	Max *string `json:"max"`
}
