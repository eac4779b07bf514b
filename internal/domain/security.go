package domain

import "time"

// Security is one tracked instrument. Securities are created lazily the first
// time a value is persisted for their symbol and are never deleted.
type Security struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Sector    *string   `json:"sector"`
	CreatedAt time.Time `json:"created_at"`
}

// Observation is the P/E ratio recorded for a security on one trading date.
// At most one exists per (SecurityID, Date) and it is never updated.
type Observation struct {
	ID         int64     `json:"id"`
	SecurityID int64     `json:"security_id"`
	Date       string    `json:"date"`
	PERatio    float64   `json:"pe_ratio"`
	CapturedAt time.Time `json:"captured_at"`
	Tier       Tier      `json:"tier"`
}

// SecurityInfo is the descriptive data the universe holds for a symbol.
type SecurityInfo struct {
	Symbol string
	Name   string
	Sector string
}
