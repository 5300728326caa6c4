package contracts

import "context"

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만
// Concurrent writes are last-write-wins; no ordering guarantee between racing upserts.

// SignalStore owns the Signal collection
type SignalStore interface {
	// List returns signals in stored order
	List(ctx context.Context) ([]Signal, error)
	// Upsert assigns an id when absent, merges into an existing id otherwise
	Upsert(ctx context.Context, s Signal) (Signal, error)
	// Get returns ErrSignalNotFound when absent
	Get(ctx context.Context, id string) (Signal, error)
	// Seed stores initial only when the store is empty; returns the resulting collection
	Seed(ctx context.Context, initial []Signal) ([]Signal, error)
}

// AnalysisStore owns UserAnalysis rows (append-only, newest first)
type AnalysisStore interface {
	ListAnalyses(ctx context.Context, userID string) ([]UserAnalysis, error)
	AddAnalysis(ctx context.Context, a UserAnalysis) (UserAnalysis, error)
}

// WatchlistStore owns watchlists (replace-by-id)
type WatchlistStore interface {
	ListWatchlists(ctx context.Context, userID string) ([]Watchlist, error)
	SaveWatchlist(ctx context.Context, w Watchlist) (Watchlist, error)
}

// ClusterStore owns clusters
type ClusterStore interface {
	ListClusters(ctx context.Context) ([]Cluster, error)
	CreateCluster(ctx context.Context, c Cluster) (Cluster, error)
	// AddSignalToCluster returns ErrClusterNotFound for unknown ids; duplicates are no-ops
	AddSignalToCluster(ctx context.Context, clusterID, signalID string) (Cluster, error)
}

// ThemeStore owns the theme taxonomy
type ThemeStore interface {
	// ListThemes returns (nil, nil) when never seeded
	ListThemes(ctx context.Context) ([]Theme, error)
	SaveThemes(ctx context.Context, themes []Theme) error
}

// Stores bundles every port a backend provides
type Stores interface {
	SignalStore
	AnalysisStore
	WatchlistStore
	ClusterStore
	ThemeStore
	Close() error
}
