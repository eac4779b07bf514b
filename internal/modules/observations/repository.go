package observations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/petracker/internal/database"
	"github.com/aristath/petracker/internal/domain"
	"github.com/rs/zerolog"
)

const (
	securityColumns    = "id, symbol, name, sector, created_at"
	observationColumns = "id, security_id, obs_date, pe_ratio, captured_at, tier"
)

// Repository stores securities and observations in SQLite or Postgres.
// Queries are written with '?' placeholders and rebound per driver.
type Repository struct {
	db     *sql.DB
	driver string
	log    zerolog.Logger
}

// NewRepository creates a new observations repository
func NewRepository(db *sql.DB, driver string, log zerolog.Logger) *Repository {
	return &Repository{
		db:     db,
		driver: driver,
		log:    log.With().Str("repo", "observations").Logger(),
	}
}

func (r *Repository) q(query string) string {
	return database.Rebind(r.driver, query)
}

// WithTx runs fn inside one database transaction
func (r *Repository) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return database.WithTransaction(ctx, r.db, func(sqlTx *sql.Tx) error {
		return fn(&repoTx{tx: sqlTx, repo: r})
	})
}

type repoTx struct {
	tx   *sql.Tx
	repo *Repository
}

// CreateSecurity inserts sec unless its symbol already exists
func (t *repoTx) CreateSecurity(ctx context.Context, sec domain.Security) error {
	_, err := t.tx.ExecContext(ctx, t.repo.q(`
		INSERT INTO securities (symbol, name, sector, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol) DO NOTHING
	`), sec.Symbol, sec.Name, ptrNullString(sec.Sector), sec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert security %s: %w", sec.Symbol, err)
	}
	return nil
}

// FindSecurityBySymbol returns the security or nil when absent
func (t *repoTx) FindSecurityBySymbol(ctx context.Context, symbol string) (*domain.Security, error) {
	row := t.tx.QueryRowContext(ctx, t.repo.q("SELECT "+securityColumns+" FROM securities WHERE symbol = ?"), symbol)
	sec, err := scanSecurity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query security %s: %w", symbol, err)
	}
	return sec, nil
}

// FindObservation returns the observation for (securityID, date) or nil
func (t *repoTx) FindObservation(ctx context.Context, securityID int64, date string) (*domain.Observation, error) {
	row := t.tx.QueryRowContext(ctx, t.repo.q("SELECT "+observationColumns+" FROM observations WHERE security_id = ? AND obs_date = ?"), securityID, date)
	obs, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query observation: %w", err)
	}
	return obs, nil
}

// CreateObservation inserts obs unless (security, date) already exists.
// Reports whether a row was inserted.
func (t *repoTx) CreateObservation(ctx context.Context, obs domain.Observation) (bool, error) {
	res, err := t.tx.ExecContext(ctx, t.repo.q(`
		INSERT INTO observations (security_id, obs_date, pe_ratio, captured_at, tier)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (security_id, obs_date) DO NOTHING
	`), obs.SecurityID, obs.Date, obs.PERatio, obs.CapturedAt.Unix(), string(obs.Tier))
	if err != nil {
		return false, fmt.Errorf("failed to insert observation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ListSecurities returns all securities ordered by symbol
func (r *Repository) ListSecurities(ctx context.Context) ([]domain.Security, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+securityColumns+" FROM securities ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query securities: %w", err)
	}
	defer rows.Close()

	securities := make([]domain.Security, 0)
	for rows.Next() {
		sec, err := scanSecurity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		securities = append(securities, *sec)
	}
	return securities, rows.Err()
}

// GetSecurity returns a security by id, nil when absent
func (r *Repository) GetSecurity(ctx context.Context, id int64) (*domain.Security, error) {
	row := r.db.QueryRowContext(ctx, r.q("SELECT "+securityColumns+" FROM securities WHERE id = ?"), id)
	sec, err := scanSecurity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query security %d: %w", id, err)
	}
	return sec, nil
}

// GetSecurityBySymbol returns a security by symbol, nil when absent
func (r *Repository) GetSecurityBySymbol(ctx context.Context, symbol string) (*domain.Security, error) {
	row := r.db.QueryRowContext(ctx, r.q("SELECT "+securityColumns+" FROM securities WHERE symbol = ?"), symbol)
	sec, err := scanSecurity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query security %s: %w", symbol, err)
	}
	return sec, nil
}

// ListObservations returns the observations of one security in ascending date order
func (r *Repository) ListObservations(ctx context.Context, securityID int64, dates DateRange) ([]domain.Observation, error) {
	where, args := dateFilter(dates, []string{"security_id = ?"}, []interface{}{securityID})
	rows, err := r.db.QueryContext(ctx, r.q("SELECT "+observationColumns+" FROM observations WHERE "+where+" ORDER BY obs_date ASC"), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	observations := make([]domain.Observation, 0)
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, *obs)
	}
	return observations, rows.Err()
}

// ListSeries returns every security that has observations in range, each
// with its ascending series
func (r *Repository) ListSeries(ctx context.Context, dates DateRange) ([]CompanySeries, error) {
	where, args := dateFilter(dates, nil, nil)
	query := `
		SELECT s.id, s.symbol, s.name, s.sector, o.obs_date, o.pe_ratio
		FROM observations o
		JOIN securities s ON s.id = o.security_id`
	if where != "" {
		query += " WHERE " + strings.ReplaceAll(where, "obs_date", "o.obs_date")
	}
	query += " ORDER BY s.symbol ASC, o.obs_date ASC"

	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	series := make([]CompanySeries, 0)
	for rows.Next() {
		var (
			id     int64
			symbol string
			name   string
			sector sql.NullString
			point  SeriesPoint
		)
		if err := rows.Scan(&id, &symbol, &name, &sector, &point.Date, &point.PERatio); err != nil {
			return nil, fmt.Errorf("failed to scan series row: %w", err)
		}
		if n := len(series); n == 0 || series[n-1].CompanyID != id {
			series = append(series, CompanySeries{
				CompanyID: id,
				Symbol:    symbol,
				Name:      name,
				Sector:    nullStringPtr(sector),
			})
		}
		last := &series[len(series)-1]
		last.Data = append(last.Data, point)
	}
	return series, rows.Err()
}

// GetStats returns totals and the stored date range
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM securities").Scan(&stats.TotalCompanies); err != nil {
		return nil, fmt.Errorf("failed to count securities: %w", err)
	}

	var earliest, latest sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*), MIN(obs_date), MAX(obs_date) FROM observations").
		Scan(&stats.TotalObservations, &earliest, &latest)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise observations: %w", err)
	}
	stats.EarliestDate = nullStringPtr(earliest)
	stats.LatestDate = nullStringPtr(latest)
	return stats, nil
}

// CountForDate returns how many observations exist for date
func (r *Repository) CountForDate(ctx context.Context, date string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, r.q("SELECT COUNT(*) FROM observations WHERE obs_date = ?"), date).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count observations for %s: %w", date, err)
	}
	return n, nil
}

func dateFilter(dates DateRange, conds []string, args []interface{}) (string, []interface{}) {
	if dates.From != "" {
		conds = append(conds, "obs_date >= ?")
		args = append(args, dates.From)
	}
	if dates.To != "" {
		conds = append(conds, "obs_date <= ?")
		args = append(args, dates.To)
	}
	return strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSecurity(row scanner) (*domain.Security, error) {
	var (
		sec       domain.Security
		sector    sql.NullString
		createdAt int64
	)
	if err := row.Scan(&sec.ID, &sec.Symbol, &sec.Name, &sector, &createdAt); err != nil {
		return nil, err
	}
	sec.Sector = nullStringPtr(sector)
	sec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &sec, nil
}

func scanObservation(row scanner) (*domain.Observation, error) {
	var (
		obs        domain.Observation
		capturedAt int64
		tier       string
	)
	if err := row.Scan(&obs.ID, &obs.SecurityID, &obs.Date, &obs.PERatio, &capturedAt, &tier); err != nil {
		return nil, err
	}
	obs.CapturedAt = time.Unix(capturedAt, 0).UTC()
	obs.Tier = domain.Tier(tier)
	return &obs, nil
}

func ptrNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
