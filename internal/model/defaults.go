package model

import "time"

// Shared defaults used by both the server wiring and the component packages.
const (
	DefaultMaxBaselines       = 50
	DefaultBaselineMaxAge     = 7 * 24 * time.Hour
	DefaultBaselineMinGap     = 24 * time.Hour
	DefaultHistoryMaxRecords  = 100
	DefaultHistoryMaxAge      = 30 * 24 * time.Hour
	DefaultEnvironment        = "production"
)
