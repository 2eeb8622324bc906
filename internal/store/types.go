package store

import "github.com/sitepulse/pulse/internal/model"

// Type aliases re-export model types so store method signatures stay
// readable at call sites without importing model everywhere.
type VitalsSnapshot = model.VitalsSnapshot
type QueryOpts = model.QueryOpts
type PageCount = model.PageCount
type MetricPercentile = model.MetricPercentile
type DayCounts = model.DayCounts
