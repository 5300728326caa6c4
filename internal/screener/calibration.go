package screener

import (
	"math"

	"github.com/wonny/imi/internal/contracts"
)

// Calibration computes the model's and the user's mean absolute error against realized returns.
// Rows are skipped when the signal is unknown, the outcome or guess is null,
// or any operand is non-finite.
func Calibration(analyses []contracts.UserAnalysis, all []contracts.Signal) contracts.CalibrationStats {
	byID := make(map[string]contracts.Signal, len(all))
	for _, s := range all {
		byID[s.ID] = s
	}

	n := 0
	var modelErr, userErr float64
	for _, a := range analyses {
		s, ok := byID[a.SignalID]
		if !ok {
			continue
		}
		if !s.RealizedExcessReturn.Finite() || !s.P50.Finite() || !a.UserGuessP50.Finite() {
			continue
		}

		realized := s.RealizedExcessReturn.Float()
		n++
		modelErr += math.Abs(realized - s.P50.Float())
		userErr += math.Abs(realized - a.UserGuessP50.Float())
	}

	stats := contracts.CalibrationStats{Count: n}
	if n > 0 {
		m := modelErr / float64(n)
		u := userErr / float64(n)
		stats.ModelMAE = &m
		stats.UserMAE = &u
	}
	return stats
}
