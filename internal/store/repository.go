package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/signals"
	"github.com/wonny/imi/pkg/logger"
)

// Repository implements every store port on top of a KV.
// Each collection is one JSON document; writes are read-modify-write under a
// process-local mutex, so racing writers from other processes are last-write-wins.
// ⭐ SSOT: KV 기반 저장소 구현은 여기서만
type Repository struct {
	kv     KV
	logger *logger.Logger
	mu     sync.Mutex
}

var _ contracts.Stores = (*Repository)(nil)

// NewRepository wraps a KV
func NewRepository(kv KV, log *logger.Logger) *Repository {
	return &Repository{kv: kv, logger: log}
}

// NewMemory returns a Repository over a fresh MemoryKV
func NewMemory(log *logger.Logger) *Repository {
	return NewRepository(NewMemoryKV(), log)
}

// load decodes a collection. A missing key yields found=false.
// A corrupt document is logged and treated as missing.
func (r *Repository) load(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || len(data) == 0 || string(data) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("Corrupt collection, using empty fallback")
		return false, nil
	}
	return true, nil
}

func (r *Repository) save(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// loadSignals decodes the forgiving shape so hand-edited or exported documents
// using alias fields (median, date, tickers...) still load canonically.
func (r *Repository) loadSignals(ctx context.Context) ([]contracts.Signal, error) {
	var raws []contracts.RawSignal
	if _, err := r.load(ctx, KeySignals, &raws); err != nil {
		return nil, err
	}
	return signals.NormalizeAll(raws), nil
}

// ============================================================================
// SignalStore
// ============================================================================

// List implements contracts.SignalStore
func (r *Repository) List(ctx context.Context) ([]contracts.Signal, error) {
	return r.loadSignals(ctx)
}

// Upsert implements contracts.SignalStore
func (r *Repository) Upsert(ctx context.Context, s contracts.Signal) (contracts.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.loadSignals(ctx)
	if err != nil {
		return contracts.Signal{}, err
	}

	if s.ID == "" {
		s.ID = contracts.NewID(contracts.PrefixSignal)
	}

	stored := s
	updated := false
	for i := range all {
		if all[i].ID == s.ID {
			stored = signals.Merge(all[i], s)
			all[i] = stored
			updated = true
			break
		}
	}
	if !updated {
		all = append(all, s)
	}

	if err := r.save(ctx, KeySignals, all); err != nil {
		return contracts.Signal{}, err
	}
	return stored, nil
}

// Get implements contracts.SignalStore
func (r *Repository) Get(ctx context.Context, id string) (contracts.Signal, error) {
	all, err := r.loadSignals(ctx)
	if err != nil {
		return contracts.Signal{}, err
	}
	for _, s := range all {
		if s.ID == id {
			return s, nil
		}
	}
	return contracts.Signal{}, fmt.Errorf("%w: %s", contracts.ErrSignalNotFound, id)
}

// Seed implements contracts.SignalStore
func (r *Repository) Seed(ctx context.Context, initial []contracts.Signal) ([]contracts.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.loadSignals(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 || len(initial) == 0 {
		return existing, nil
	}

	seeded := make([]contracts.Signal, len(initial))
	copy(seeded, initial)
	for i := range seeded {
		if seeded[i].ID == "" {
			seeded[i].ID = contracts.NewID(contracts.PrefixSignal)
		}
	}

	if err := r.save(ctx, KeySignals, seeded); err != nil {
		return nil, err
	}
	return seeded, nil
}

// ============================================================================
// AnalysisStore
// ============================================================================

// ListAnalyses implements contracts.AnalysisStore
func (r *Repository) ListAnalyses(ctx context.Context, userID string) ([]contracts.UserAnalysis, error) {
	var all []contracts.UserAnalysis
	if _, err := r.load(ctx, KeyUserAnalyses, &all); err != nil {
		return nil, err
	}
	out := make([]contracts.UserAnalysis, 0)
	for _, a := range all {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// AddAnalysis implements contracts.AnalysisStore (newest first)
func (r *Repository) AddAnalysis(ctx context.Context, a contracts.UserAnalysis) (contracts.UserAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []contracts.UserAnalysis
	if _, err := r.load(ctx, KeyUserAnalyses, &all); err != nil {
		return contracts.UserAnalysis{}, err
	}
	if a.ID == "" {
		a.ID = contracts.NewID(contracts.PrefixAnalysis)
	}

	all = append([]contracts.UserAnalysis{a}, all...)
	if err := r.save(ctx, KeyUserAnalyses, all); err != nil {
		return contracts.UserAnalysis{}, err
	}
	return a, nil
}

// ============================================================================
// WatchlistStore
// ============================================================================

// ListWatchlists implements contracts.WatchlistStore
func (r *Repository) ListWatchlists(ctx context.Context, userID string) ([]contracts.Watchlist, error) {
	var all []contracts.Watchlist
	if _, err := r.load(ctx, KeyWatchlists, &all); err != nil {
		return nil, err
	}
	out := make([]contracts.Watchlist, 0)
	for _, w := range all {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

// SaveWatchlist implements contracts.WatchlistStore (replace-by-id, appended last)
func (r *Repository) SaveWatchlist(ctx context.Context, w contracts.Watchlist) (contracts.Watchlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []contracts.Watchlist
	if _, err := r.load(ctx, KeyWatchlists, &all); err != nil {
		return contracts.Watchlist{}, err
	}
	if w.ID == "" {
		w.ID = contracts.NewID(contracts.PrefixWatchlist)
	}

	next := make([]contracts.Watchlist, 0, len(all)+1)
	for _, existing := range all {
		if existing.ID != w.ID {
			next = append(next, existing)
		}
	}
	next = append(next, w)

	if err := r.save(ctx, KeyWatchlists, next); err != nil {
		return contracts.Watchlist{}, err
	}
	return w, nil
}

// ============================================================================
// ClusterStore
// ============================================================================

// ListClusters implements contracts.ClusterStore
func (r *Repository) ListClusters(ctx context.Context) ([]contracts.Cluster, error) {
	var all []contracts.Cluster
	if _, err := r.load(ctx, KeyClusters, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = []contracts.Cluster{}
	}
	return all, nil
}

// CreateCluster implements contracts.ClusterStore
func (r *Repository) CreateCluster(ctx context.Context, c contracts.Cluster) (contracts.Cluster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []contracts.Cluster
	if _, err := r.load(ctx, KeyClusters, &all); err != nil {
		return contracts.Cluster{}, err
	}
	if c.ID == "" {
		c.ID = contracts.NewID(contracts.PrefixCluster)
	}
	if c.SignalIDs == nil {
		c.SignalIDs = []string{}
	}

	all = append(all, c)
	if err := r.save(ctx, KeyClusters, all); err != nil {
		return contracts.Cluster{}, err
	}
	return c, nil
}

// AddSignalToCluster implements contracts.ClusterStore
func (r *Repository) AddSignalToCluster(ctx context.Context, clusterID, signalID string) (contracts.Cluster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []contracts.Cluster
	if _, err := r.load(ctx, KeyClusters, &all); err != nil {
		return contracts.Cluster{}, err
	}

	for i := range all {
		if all[i].ID != clusterID {
			continue
		}
		if all[i].HasSignal(signalID) {
			return all[i], nil
		}
		all[i].SignalIDs = append(all[i].SignalIDs, signalID)
		if err := r.save(ctx, KeyClusters, all); err != nil {
			return contracts.Cluster{}, err
		}
		return all[i], nil
	}
	return contracts.Cluster{}, fmt.Errorf("%w: %s", contracts.ErrClusterNotFound, clusterID)
}

// ============================================================================
// ThemeStore
// ============================================================================

// ListThemes implements contracts.ThemeStore
func (r *Repository) ListThemes(ctx context.Context) ([]contracts.Theme, error) {
	var all []contracts.Theme
	found, err := r.load(ctx, KeyThemes, &all)
	if err != nil || !found {
		return nil, err
	}
	return all, nil
}

// SaveThemes implements contracts.ThemeStore
func (r *Repository) SaveThemes(ctx context.Context, themes []contracts.Theme) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, KeyThemes, themes)
}

// Close releases the underlying KV
func (r *Repository) Close() error {
	return r.kv.Close()
}
