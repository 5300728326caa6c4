package contracts

import "errors"

// ⭐ SSOT: 도메인 sentinel 에러는 여기서만 정의
var (
	ErrSignalNotFound  = errors.New("signal not found")
	ErrClusterNotFound = errors.New("cluster not found")
	ErrThemeNotFound   = errors.New("theme not found")
	ErrInvalidSignal   = errors.New("invalid signal")
	ErrInvalidQuery    = errors.New("invalid query")
)
