package observations

import (
	"context"
	"time"

	"github.com/aristath/petracker/internal/domain"
	"github.com/rs/zerolog"
)

// Tx is the set of store operations composable inside one transaction
type Tx interface {
	CreateSecurity(ctx context.Context, sec domain.Security) error
	FindSecurityBySymbol(ctx context.Context, symbol string) (*domain.Security, error)
	FindObservation(ctx context.Context, securityID int64, date string) (*domain.Observation, error)
	CreateObservation(ctx context.Context, obs domain.Observation) (bool, error)
}

// Store runs transactions
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Writer records acquisition results, at most one per (security, date)
type Writer struct {
	store    Store
	universe domain.Universe
	now      func() time.Time
	log      zerolog.Logger
}

// NewWriter creates a writer. universe supplies display names and sectors
// for securities created on first sight; it may be nil.
func NewWriter(store Store, universe domain.Universe, log zerolog.Logger) *Writer {
	return &Writer{
		store:    store,
		universe: universe,
		now:      time.Now,
		log:      log.With().Str("component", "store_writer").Logger(),
	}
}

// Persist writes each result in its own transaction and returns the number
// of observations inserted. Existing observations are left untouched. The
// first store failure stops the batch and is returned as a
// *domain.PersistenceError; rows committed before it stay.
func (w *Writer) Persist(ctx context.Context, results []domain.AcquisitionResult) (int, error) {
	written := 0
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		inserted, err := w.persistOne(ctx, res)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return written, ctxErr
			}
			w.log.Error().Err(err).Str("symbol", res.Symbol).Str("date", res.Date).Msg("Persist failed")
			return written, &domain.PersistenceError{Symbol: res.Symbol, Err: err}
		}

		if inserted {
			written++
		} else {
			w.log.Debug().Str("symbol", res.Symbol).Str("date", res.Date).Msg("Observation already stored")
		}
	}
	return written, nil
}

// persistOne starts with the security insert so the transaction holds the
// write lock from its first statement; a SQLite read-then-write upgrade can
// fail with SQLITE_BUSY under a concurrent writer instead of waiting.
func (w *Writer) persistOne(ctx context.Context, res domain.AcquisitionResult) (bool, error) {
	inserted := false
	err := w.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.CreateSecurity(ctx, w.securityFor(res.Symbol)); err != nil {
			return err
		}

		sec, err := tx.FindSecurityBySymbol(ctx, res.Symbol)
		if err != nil {
			return err
		}
		if sec == nil {
			return errSecurityMissing(res.Symbol)
		}

		existing, err := tx.FindObservation(ctx, sec.ID, res.Date)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		inserted, err = tx.CreateObservation(ctx, domain.Observation{
			SecurityID: sec.ID,
			Date:       res.Date,
			PERatio:    res.Value,
			CapturedAt: w.now(),
			Tier:       res.Tier,
		})
		return err
	})
	return inserted, err
}

func (w *Writer) securityFor(symbol string) domain.Security {
	sec := domain.Security{
		Symbol:    symbol,
		Name:      symbol,
		CreatedAt: w.now(),
	}
	if w.universe == nil {
		return sec
	}
	if info, ok := w.universe.Lookup(symbol); ok {
		if info.Name != "" {
			sec.Name = info.Name
		}
		if info.Sector != "" {
			sector := info.Sector
			sec.Sector = &sector
		}
	}
	return sec
}

type errSecurityMissing string

func (e errSecurityMissing) Error() string {
	return "security " + string(e) + " not found after insert"
}
