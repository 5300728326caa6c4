package contracts

import "github.com/google/uuid"

// ID prefixes
const (
	PrefixSignal    = "sig"
	PrefixAnalysis  = "ua"
	PrefixWatchlist = "wl"
	PrefixCluster   = "clu"
	PrefixTheme     = "th"
)

// NewID returns "<prefix>_<uuid>"
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
