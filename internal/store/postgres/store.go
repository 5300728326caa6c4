package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/signals"
	"github.com/wonny/imi/pkg/database"
)

//go:embed schema.sql
var schemaSQL string

// themesSeededKey marks that the theme taxonomy was written at least once
const themesSeededKey = "themes_seeded"

// Store implements contracts.Stores on PostgreSQL.
// Records are JSONB payloads; insertion order is kept by a seq column.
// ⭐ SSOT: PostgreSQL 저장소 구현은 여기서만
type Store struct {
	db   *database.DB
	pool *pgxpool.Pool
}

var _ contracts.Stores = (*Store)(nil)

// New wraps an open DB
func New(db *database.DB) *Store {
	return &Store{db: db, pool: db.Pool}
}

// Migrate creates the imi schema when missing
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the pool
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// ============================================================================
// SignalStore
// ============================================================================

// List implements contracts.SignalStore
func (s *Store) List(ctx context.Context) ([]contracts.Signal, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM imi.signals ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	return collectSignals(rows)
}

// Upsert implements contracts.SignalStore
func (s *Store) Upsert(ctx context.Context, sig contracts.Signal) (contracts.Signal, error) {
	if sig.ID == "" {
		sig.ID = contracts.NewID(contracts.PrefixSignal)
	}

	var stored contracts.Signal
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		existing, found, err := getSignal(ctx, tx, sig.ID, true)
		if err != nil {
			return err
		}

		stored = sig
		if found {
			stored = signals.Merge(existing, sig)
		}

		payload, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to encode signal: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO imi.signals (id, ticker, payload)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE
			SET ticker = EXCLUDED.ticker, payload = EXCLUDED.payload, updated_at = now()
		`, stored.ID, stored.Ticker, payload)
		if err != nil {
			return fmt.Errorf("failed to upsert signal: %w", err)
		}
		return nil
	})
	if err != nil {
		return contracts.Signal{}, err
	}
	return stored, nil
}

// Get implements contracts.SignalStore
func (s *Store) Get(ctx context.Context, id string) (contracts.Signal, error) {
	sig, found, err := getSignal(ctx, s.pool, id, false)
	if err != nil {
		return contracts.Signal{}, err
	}
	if !found {
		return contracts.Signal{}, fmt.Errorf("%w: %s", contracts.ErrSignalNotFound, id)
	}
	return sig, nil
}

// Seed implements contracts.SignalStore
func (s *Store) Seed(ctx context.Context, initial []contracts.Signal) ([]contracts.Signal, error) {
	var result []contracts.Signal
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// 동시 seed 경합 방지
		if _, err := tx.Exec(ctx, `LOCK TABLE imi.signals IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock signals: %w", err)
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM imi.signals`).Scan(&count); err != nil {
			return fmt.Errorf("failed to count signals: %w", err)
		}

		if count > 0 || len(initial) == 0 {
			rows, err := tx.Query(ctx, `SELECT payload FROM imi.signals ORDER BY seq`)
			if err != nil {
				return fmt.Errorf("failed to query signals: %w", err)
			}
			result, err = collectSignals(rows)
			return err
		}

		batch := &pgx.Batch{}
		result = make([]contracts.Signal, len(initial))
		copy(result, initial)
		for i := range result {
			if result[i].ID == "" {
				result[i].ID = contracts.NewID(contracts.PrefixSignal)
			}
			payload, err := json.Marshal(result[i])
			if err != nil {
				return fmt.Errorf("failed to encode signal: %w", err)
			}
			batch.Queue(`INSERT INTO imi.signals (id, ticker, payload) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO NOTHING`, result[i].ID, result[i].Ticker, payload)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to seed signals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getSignal(ctx context.Context, q querier, id string, forUpdate bool) (contracts.Signal, bool, error) {
	query := `SELECT payload FROM imi.signals WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var payload []byte
	err := q.QueryRow(ctx, query, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.Signal{}, false, nil
	}
	if err != nil {
		return contracts.Signal{}, false, fmt.Errorf("failed to get signal: %w", err)
	}

	sig, err := decodeSignal(payload)
	if err != nil {
		return contracts.Signal{}, false, err
	}
	return sig, true, nil
}

func decodeSignal(payload []byte) (contracts.Signal, error) {
	var raw contracts.RawSignal
	if err := json.Unmarshal(payload, &raw); err != nil {
		return contracts.Signal{}, fmt.Errorf("failed to decode signal: %w", err)
	}
	return signals.Normalize(raw), nil
}

func collectSignals(rows pgx.Rows) ([]contracts.Signal, error) {
	defer rows.Close()

	out := make([]contracts.Signal, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		sig, err := decodeSignal(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// ============================================================================
// AnalysisStore
// ============================================================================

// ListAnalyses implements contracts.AnalysisStore (newest first)
func (s *Store) ListAnalyses(ctx context.Context, userID string) ([]contracts.UserAnalysis, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM imi.user_analyses WHERE user_id = $1 ORDER BY seq DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	return collect[contracts.UserAnalysis](rows)
}

// AddAnalysis implements contracts.AnalysisStore
func (s *Store) AddAnalysis(ctx context.Context, a contracts.UserAnalysis) (contracts.UserAnalysis, error) {
	if a.ID == "" {
		a.ID = contracts.NewID(contracts.PrefixAnalysis)
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return contracts.UserAnalysis{}, fmt.Errorf("failed to encode analysis: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO imi.user_analyses (id, user_id, payload) VALUES ($1, $2, $3)`,
		a.ID, a.UserID, payload)
	if err != nil {
		return contracts.UserAnalysis{}, fmt.Errorf("failed to insert analysis: %w", err)
	}
	return a, nil
}

// ============================================================================
// WatchlistStore
// ============================================================================

// ListWatchlists implements contracts.WatchlistStore
func (s *Store) ListWatchlists(ctx context.Context, userID string) ([]contracts.Watchlist, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM imi.watchlists WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlists: %w", err)
	}
	return collect[contracts.Watchlist](rows)
}

// SaveWatchlist implements contracts.WatchlistStore.
// Replacing deletes and re-inserts so the saved list moves to the end, like an append.
func (s *Store) SaveWatchlist(ctx context.Context, w contracts.Watchlist) (contracts.Watchlist, error) {
	if w.ID == "" {
		w.ID = contracts.NewID(contracts.PrefixWatchlist)
	}
	payload, err := json.Marshal(w)
	if err != nil {
		return contracts.Watchlist{}, fmt.Errorf("failed to encode watchlist: %w", err)
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM imi.watchlists WHERE id = $1`, w.ID); err != nil {
			return fmt.Errorf("failed to replace watchlist: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO imi.watchlists (id, user_id, payload) VALUES ($1, $2, $3)`,
			w.ID, w.UserID, payload); err != nil {
			return fmt.Errorf("failed to insert watchlist: %w", err)
		}
		return nil
	})
	if err != nil {
		return contracts.Watchlist{}, err
	}
	return w, nil
}

// ============================================================================
// ClusterStore
// ============================================================================

// ListClusters implements contracts.ClusterStore
func (s *Store) ListClusters(ctx context.Context) ([]contracts.Cluster, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM imi.clusters ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clusters: %w", err)
	}
	return collect[contracts.Cluster](rows)
}

// CreateCluster implements contracts.ClusterStore
func (s *Store) CreateCluster(ctx context.Context, c contracts.Cluster) (contracts.Cluster, error) {
	if c.ID == "" {
		c.ID = contracts.NewID(contracts.PrefixCluster)
	}
	if c.SignalIDs == nil {
		c.SignalIDs = []string{}
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return contracts.Cluster{}, fmt.Errorf("failed to encode cluster: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO imi.clusters (id, payload) VALUES ($1, $2)`, c.ID, payload); err != nil {
		return contracts.Cluster{}, fmt.Errorf("failed to insert cluster: %w", err)
	}
	return c, nil
}

// AddSignalToCluster implements contracts.ClusterStore
func (s *Store) AddSignalToCluster(ctx context.Context, clusterID, signalID string) (contracts.Cluster, error) {
	var out contracts.Cluster
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var payload []byte
		err := tx.QueryRow(ctx,
			`SELECT payload FROM imi.clusters WHERE id = $1 FOR UPDATE`, clusterID).Scan(&payload)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", contracts.ErrClusterNotFound, clusterID)
		}
		if err != nil {
			return fmt.Errorf("failed to get cluster: %w", err)
		}
		if err := json.Unmarshal(payload, &out); err != nil {
			return fmt.Errorf("failed to decode cluster: %w", err)
		}
		if out.HasSignal(signalID) {
			return nil
		}

		out.SignalIDs = append(out.SignalIDs, signalID)
		payload, err = json.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to encode cluster: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE imi.clusters SET payload = $2 WHERE id = $1`, clusterID, payload); err != nil {
			return fmt.Errorf("failed to update cluster: %w", err)
		}
		return nil
	})
	if err != nil {
		return contracts.Cluster{}, err
	}
	return out, nil
}

// ============================================================================
// ThemeStore
// ============================================================================

// ListThemes implements contracts.ThemeStore
func (s *Store) ListThemes(ctx context.Context) ([]contracts.Theme, error) {
	var marker string
	err := s.pool.QueryRow(ctx, `SELECT value FROM imi.meta WHERE key = $1`, themesSeededKey).Scan(&marker)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read theme marker: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT payload FROM imi.themes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query themes: %w", err)
	}
	return collect[contracts.Theme](rows)
}

// SaveThemes implements contracts.ThemeStore (replaces the whole taxonomy)
func (s *Store) SaveThemes(ctx context.Context, themes []contracts.Theme) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM imi.themes`); err != nil {
			return fmt.Errorf("failed to clear themes: %w", err)
		}
		for _, th := range themes {
			payload, err := json.Marshal(th)
			if err != nil {
				return fmt.Errorf("failed to encode theme: %w", err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO imi.themes (id, payload) VALUES ($1, $2)`, th.ID, payload); err != nil {
				return fmt.Errorf("failed to insert theme: %w", err)
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO imi.meta (key, value) VALUES ($1, 'true')
			ON CONFLICT (key) DO NOTHING
		`, themesSeededKey)
		if err != nil {
			return fmt.Errorf("failed to mark themes: %w", err)
		}
		return nil
	})
}

func collect[T any](rows pgx.Rows) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
