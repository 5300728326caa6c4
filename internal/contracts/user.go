package contracts

import "encoding/json"

// UserAnalysis is one user's manual forecast attempt tied to a Signal.
// Created by explicit user action only; never mutated afterwards.
type UserAnalysis struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	SignalID     string   `json:"signal_id"`
	UserGuessP50 Metric   `json:"user_guess_p50"`
	Notes        string   `json:"notes"`
	Tags         []string `json:"tags"`
	CreatedAt    string   `json:"created_at"`
}

// UnmarshalJSON keeps an absent guess null instead of zero
func (a *UserAnalysis) UnmarshalJSON(data []byte) error {
	type plain UserAnalysis
	out := plain{UserGuessP50: Null()}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*a = UserAnalysis(out)
	return nil
}

// AnalysisInput is what a client submits to log an analysis.
// Signal, when present without an id, is stored first.
type AnalysisInput struct {
	Signal       *RawSignal `json:"signal,omitempty"`
	SignalID     string     `json:"signal_id,omitempty"`
	UserGuessP50 *Metric    `json:"user_guess_p50,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

// Watchlist is a named ticker list per user; saved with replace-by-id semantics
type Watchlist struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Name      string   `json:"name"`
	Tickers   []string `json:"tickers"`
	CreatedAt string   `json:"created_at"`
}

// Cluster is a named bundle of signal ids (a set)
type Cluster struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SignalIDs   []string `json:"signal_ids"`
	CreatedAt   string   `json:"created_at"`
}

// HasSignal reports set membership
func (c Cluster) HasSignal(id string) bool {
	for _, s := range c.SignalIDs {
		if s == id {
			return true
		}
	}
	return false
}

// Theme is a static taxonomy bucket, seeded once and read thereafter
type Theme struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tickers     []string `json:"tickers"`
}
