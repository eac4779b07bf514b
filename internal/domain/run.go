package domain

import "time"

// Trigger says what started an acquisition run
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// RunStatus is the final state of a run
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusDegraded  RunStatus = "degraded"
	RunStatusFailed    RunStatus = "failed"
)

// RunReport summarises one acquire → persist run.
type RunReport struct {
	RunID            string       `json:"run_id"`
	Trigger          Trigger      `json:"trigger"`
	Date             string       `json:"date"`
	SymbolsAttempted int          `json:"symbols_attempted"`
	SymbolsSucceeded int          `json:"symbols_succeeded"`
	RowsWritten      int          `json:"rows_written"`
	ByTier           map[Tier]int `json:"by_tier"`
	StartedAt        time.Time    `json:"started_at"`
	FinishedAt       time.Time    `json:"finished_at"`
}

// Degraded reports whether some symbols produced no value.
func (r RunReport) Degraded() bool {
	return r.SymbolsSucceeded < r.SymbolsAttempted
}

// Status derives the run status from the report and the run error.
func (r RunReport) Status(err error) RunStatus {
	switch {
	case err != nil:
		return RunStatusFailed
	case r.Degraded():
		return RunStatusDegraded
	default:
		return RunStatusSucceeded
	}
}

// RunRecord is the persisted form of a run.
type RunRecord struct {
	RunReport
	Status RunStatus `json:"status"`
	Error  string    `json:"error,omitempty"`
}
