package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/petracker/internal/database"
	"github.com/aristath/petracker/internal/domain"
	"github.com/aristath/petracker/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// RunHistory exposes stored runs and per-date coverage
type RunHistory interface {
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
	CountForDate(ctx context.Context, date string) (int, error)
}

// SchedulerStatus reports the cron scheduler state
type SchedulerStatus interface {
	State() scheduler.State
	NextRun() (time.Time, bool)
}

// TradingClock supplies the current trading date
type TradingClock interface {
	Today() string
}

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log          zerolog.Logger
	db           *database.DB
	runs         RunHistory
	scheduler    SchedulerStatus
	clock        TradingClock
	universeSize int
	dataDir      string
	startupTime  time.Time
}

// NewSystemHandlers creates a new system handlers instance. sched may be nil.
func NewSystemHandlers(
	db *database.DB,
	runs RunHistory,
	sched SchedulerStatus,
	clock TradingClock,
	universeSize int,
	dataDir string,
	log zerolog.Logger,
) *SystemHandlers {
	return &SystemHandlers{
		log:          log.With().Str("handler", "system").Logger(),
		db:           db,
		runs:         runs,
		scheduler:    sched,
		clock:        clock,
		universeSize: universeSize,
		dataDir:      dataDir,
		startupTime:  time.Now(),
	}
}

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status         string            `json:"status"`
	UptimeSeconds  int64             `json:"uptime_seconds"`
	CPUPercent     float64           `json:"cpu_percent"`
	MemoryPercent  float64           `json:"memory_percent"`
	Database       string            `json:"database"`
	UniverseSize   int               `json:"universe_size"`
	TradingDate    string            `json:"trading_date"`
	CoveredToday   int               `json:"covered_today"`
	SchedulerState string            `json:"scheduler_state"`
	NextRun        string            `json:"next_run,omitempty"`
	LastRun        *domain.RunRecord `json:"last_run,omitempty"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Name        string  `json:"name"`
	Driver      string  `json:"driver"`
	Path        string  `json:"path,omitempty"`
	SizeMB      float64 `json:"size_mb"`
	WALSizeMB   float64 `json:"wal_size_mb"`
	PageCount   int64   `json:"page_count"`
	PageSize    int64   `json:"page_size"`
	LastChecked string  `json:"last_checked"`
}

// DiskUsageResponse represents disk usage of the data directory's volume
type DiskUsageResponse struct {
	Path        string  `json:"path"`
	TotalMB     float64 `json:"total_mb"`
	UsedMB      float64 `json:"used_mb"`
	AvailableMB float64 `json:"available_mb"`
	UsedPercent float64 `json:"used_percent"`
	DatabaseMB  float64 `json:"database_mb"`
}

// GetSystemStatusSnapshot returns a snapshot of the current system status.
// Individual host reading failures degrade the snapshot instead of failing it.
func (h *SystemHandlers) GetSystemStatusSnapshot(ctx context.Context) SystemStatusResponse {
	cpuPercent, memPercent := h.getSystemStats(ctx)

	response := SystemStatusResponse{
		Status:         "healthy",
		UptimeSeconds:  int64(time.Since(h.startupTime).Seconds()),
		CPUPercent:     cpuPercent,
		MemoryPercent:  memPercent,
		Database:       h.db.Driver(),
		UniverseSize:   h.universeSize,
		TradingDate:    h.clock.Today(),
		SchedulerState: string(scheduler.StateIdle),
	}

	if h.scheduler != nil {
		response.SchedulerState = string(h.scheduler.State())
		if at, ok := h.scheduler.NextRun(); ok {
			response.NextRun = at.Format(time.RFC3339)
		}
	}

	covered, err := h.runs.CountForDate(ctx, response.TradingDate)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to count today's observations")
		response.Status = "degraded"
	}
	response.CoveredToday = covered

	runs, err := h.runs.ListRuns(ctx, 1)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to load last run")
		response.Status = "degraded"
	} else if len(runs) > 0 {
		response.LastRun = &runs[0]
	}

	return response
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")
	h.writeJSON(w, http.StatusOK, h.GetSystemStatusSnapshot(r.Context()))
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		http.Error(w, "Failed to get database stats", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Name:        h.db.Name(),
		Driver:      h.db.Driver(),
		Path:        h.db.Path(),
		SizeMB:      toMB(uint64(stats.SizeBytes)),
		WALSizeMB:   toMB(uint64(stats.WALSizeBytes)),
		PageCount:   stats.PageCount,
		PageSize:    stats.PageSize,
		LastChecked: time.Now().Format(time.RFC3339),
	})
}

// HandleDiskUsage handles GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := disk.UsageWithContext(r.Context(), h.dataDir)
	if err != nil {
		h.log.Error().Err(err).Str("path", h.dataDir).Msg("Failed to get disk usage")
		http.Error(w, "Failed to get disk usage", http.StatusInternalServerError)
		return
	}

	response := DiskUsageResponse{
		Path:        h.dataDir,
		TotalMB:     toMB(usage.Total),
		UsedMB:      toMB(usage.Used),
		AvailableMB: toMB(usage.Free),
		UsedPercent: usage.UsedPercent,
	}
	if stats, err := h.db.GetStats(); err == nil {
		response.DatabaseMB = toMB(uint64(stats.SizeBytes + stats.WALSizeBytes))
	}

	h.writeJSON(w, http.StatusOK, response)
}

// getSystemStats samples CPU over 100ms so the endpoint stays fast
func (h *SystemHandlers) getSystemStats(ctx context.Context) (float64, float64) {
	cpuPercent, err := cpu.PercentWithContext(ctx, 100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func toMB(bytes uint64) float64 {
	return float64(bytes) / 1024 / 1024
}
