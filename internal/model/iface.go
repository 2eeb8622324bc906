package model

// QueryOpts holds optional filters applied to most queries.
type QueryOpts struct {
	Page   string // empty = all pages
	Locale string // empty = all locales
}

// VitalsQuerier provides read-only queries on stored snapshots.
type VitalsQuerier interface {
	TotalSnapshotCount(opts QueryOpts) (int64, error)
	TopPages(limit int, opts QueryOpts) ([]PageCount, error)
	MetricP75(opts QueryOpts) ([]MetricPercentile, error)
	CountsByDay(opts QueryOpts) ([]DayCounts, error)
	ListLocales() ([]string, error)
	RecentSnapshots(limit int, opts QueryOpts) ([]VitalsSnapshot, error)
}

// SchemaQuerier provides schema introspection and arbitrary read-only queries.
type SchemaQuerier interface {
	ExecuteQuery(query string) ([]map[string]interface{}, error)
	GetSchemaDescription() string
	TableRowCounts() (map[string]int64, error)
}

// VitalsWriter provides append-oriented write operations for snapshots.
type VitalsWriter interface {
	InsertSnapshotBatch(snapshots []*VitalsSnapshot) error
}

// VitalsReader is the unified read-side query contract.
type VitalsReader interface {
	VitalsQuerier
	SchemaQuerier
}

// BaselineStore is the persistence contract for the baseline manager.
type BaselineStore interface {
	LoadBaselines() ([]Baseline, error)
	SaveBaselines(baselines []Baseline) error
}
