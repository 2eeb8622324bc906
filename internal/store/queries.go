package store

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
)

// dangerousKeywordPattern matches dangerous SQL keywords at word boundaries.
// This avoids false positives like "RESET" matching "SET".
// Used as defense-in-depth after comment stripping and semicolon rejection.
var dangerousKeywordPattern = regexp.MustCompile(
	`(?i)\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|COPY|ATTACH|LOAD|EXPORT|IMPORT|INSTALL|CALL|EXECUTE|PRAGMA|SET)\b`,
)

// blockCommentPattern matches C-style block comments (/* ... */).
var blockCommentPattern = regexp.MustCompile(`/\*[\s\S]*?\*/`)

// stripSQLComments removes -- line comments and /* */ block comments from a query.
func stripSQLComments(query string) string {
	cleaned := blockCommentPattern.ReplaceAllString(query, " ")
	var result strings.Builder
	for _, line := range strings.Split(cleaned, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		result.WriteString(line)
		result.WriteByte('\n')
	}
	return result.String()
}

// queryCtx returns a context with the store's configured query timeout.
func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}

// sampleFilter returns a WHERE clause and args for the page/locale filters.
func sampleFilter(opts QueryOpts) (clause string, args []interface{}) {
	var conds []string
	if opts.Page != "" {
		conds = append(conds, "page = ?")
		args = append(args, opts.Page)
	}
	if opts.Locale != "" {
		conds = append(conds, "locale = ?")
		args = append(args, opts.Locale)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// TotalSnapshotCount returns the number of stored snapshots matching the filters.
func (s *Store) TotalSnapshotCount(opts QueryOpts) (int64, error) {
	release := s.acquireQuery()
	defer release()
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	where, args := sampleFilter(opts)
	var count int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM vitals_samples %s", where), args...).Scan(&count)
	return count, err
}

// TopPages returns the pages with the most snapshots.
func (s *Store) TopPages(limit int, opts QueryOpts) ([]PageCount, error) {
	release := s.acquireQuery()
	defer release()
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	where, wArgs := sampleFilter(opts)
	query := fmt.Sprintf(`
		SELECT page, COUNT(*) AS count
		FROM vitals_samples %s
		GROUP BY page
		ORDER BY count DESC
		LIMIT ?`, where)

	args := append(wArgs, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []PageCount
	for rows.Next() {
		var pc PageCount
		if err := rows.Scan(&pc.Page, &pc.Count); err != nil {
			log.Printf("store: scan error (TopPages): %v", err)
			continue
		}
		results = append(results, pc)
	}
	return results, rows.Err()
}

// MetricP75 returns the 75th percentile for each core metric over the
// matching snapshots. Zero readings are excluded so pages that never
// reported a metric do not drag the percentile down.
func (s *Store) MetricP75(opts QueryOpts) ([]MetricPercentile, error) {
	release := s.acquireQuery()
	defer release()
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	where, args := sampleFilter(opts)
	query := fmt.Sprintf(`
		SELECT
			quantile_cont(CASE WHEN cls  > 0 THEN cls  END, 0.75),
			quantile_cont(CASE WHEN lcp  > 0 THEN lcp  END, 0.75),
			quantile_cont(CASE WHEN fid  > 0 THEN fid  END, 0.75),
			quantile_cont(CASE WHEN fcp  > 0 THEN fcp  END, 0.75),
			quantile_cont(CASE WHEN ttfb > 0 THEN ttfb END, 0.75),
			quantile_cont(CASE WHEN inp  > 0 THEN inp  END, 0.75)
		FROM vitals_samples %s`, where)

	metrics := []string{"cls", "lcp", "fid", "fcp", "ttfb", "inp"}
	vals := make([]*float64, len(metrics))
	ptrs := make([]interface{}, len(metrics))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(ptrs...); err != nil {
		return nil, err
	}

	results := make([]MetricPercentile, 0, len(metrics))
	for i, name := range metrics {
		mp := MetricPercentile{Metric: name}
		if vals[i] != nil {
			mp.P75 = *vals[i]
		}
		results = append(results, mp)
	}
	return results, nil
}

// CountsByDay returns per-day snapshot counts split by device class.
func (s *Store) CountsByDay(opts QueryOpts) ([]DayCounts, error) {
	release := s.acquireQuery()
	defer release()
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	where, args := sampleFilter(opts)
	query := fmt.Sprintf(`
		SELECT
			date_trunc('day', collected_at) AS day,
			COUNT(*) FILTER (device = 'mobile') AS mobile,
			COUNT(*) FILTER (device = 'desktop') AS desktop,
			COUNT(*) AS total
		FROM vitals_samples %s
		GROUP BY day
		ORDER BY day ASC`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DayCounts
	for rows.Next() {
		var dc DayCounts
		if err := rows.Scan(&dc.Day, &dc.Mobile, &dc.Desktop, &dc.Total); err != nil {
			log.Printf("store: scan error (CountsByDay): %v", err)
			continue
		}
		results = append(results, dc)
	}
	return results, rows.Err()
}

// ListLocales returns the distinct locales that have stored snapshots.
func (s *Store) ListLocales() ([]string, error) {
	release := s.acquireQuery()
	defer release()
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT locale FROM vitals_samples ORDER BY locale`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locales []string
	for rows.Next() {
		var locale string
		if err := rows.Scan(&locale); err != nil {
			log.Printf("store: scan error (ListLocales): %v", err)
			continue
		}
		locales = append(locales, locale)
	}
	return locales, rows.Err()
}

// RecentSnapshots returns the most recent snapshots matching the filters,
// in chronological (ASC) order.
func (s *Store) RecentSnapshots(limit int, opts QueryOpts) ([]VitalsSnapshot, error) {
	release := s.acquireQuery()
	defer release()
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	where, wArgs := sampleFilter(opts)
	innerQuery := fmt.Sprintf(`SELECT collected_at, page, locale, url, user_agent, device, connection, source, event_id, cls, lcp, fid, fcp, ttfb, inp, dom_content_loaded, load_complete, first_paint FROM vitals_samples %s ORDER BY collected_at DESC LIMIT ?`, where)
	args := append(wArgs, limit)

	// Wrap so final results come back in chronological (ASC) order.
	query := "SELECT * FROM (" + innerQuery + ") ORDER BY collected_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []VitalsSnapshot
	for rows.Next() {
		var v VitalsSnapshot
		if err := rows.Scan(
			&v.CollectedAt, &v.Page, &v.Locale, &v.URL,
			&v.UserAgent, &v.Device, &v.Connection, &v.Source, &v.EventID,
			&v.CLS, &v.LCP, &v.FID, &v.FCP, &v.TTFB, &v.INP,
			&v.DOMContentLoaded, &v.LoadComplete, &v.FirstPaint,
		); err != nil {
			log.Printf("store: scan error (RecentSnapshots): %v", err)
			continue
		}
		results = append(results, v)
	}
	return results, rows.Err()
}

// DeleteBefore removes snapshots collected before the cutoff and returns the
// number of rows deleted.
func (s *Store) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	result, err := s.db.ExecContext(ctx, `DELETE FROM vitals_samples WHERE collected_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ExecuteQuery runs a read-only SQL query and returns results as maps.
// Only SELECT/WITH read queries are allowed; DDL/DML is rejected.
func (s *Store) ExecuteQuery(query string) ([]map[string]interface{}, error) {
	trimmed := strings.TrimSpace(query)

	// Reject semicolons to prevent statement chaining.
	if strings.Contains(trimmed, ";") {
		return nil, fmt.Errorf("query must not contain semicolons")
	}

	// Strip SQL comments so keywords hidden in comments are still caught.
	stripped := strings.TrimSpace(stripSQLComments(trimmed))
	upper := strings.ToUpper(stripped)

	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return nil, fmt.Errorf("only SELECT/WITH queries are allowed")
	}

	// Defense-in-depth: reject dangerous keywords after comment stripping.
	if match := dangerousKeywordPattern.FindString(stripped); match != "" {
		return nil, fmt.Errorf("query contains disallowed keyword: %s", strings.ToUpper(match))
	}

	release := s.acquireQuery()
	defer release()
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()
	rows, err := s.db.QueryContext(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	maxRows := 1000

	for rows.Next() && len(results) < maxRows {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			log.Printf("store: scan error (ExecuteQuery): %v", err)
			continue
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// GetSchemaDescription returns a human-readable schema description.
func (s *Store) GetSchemaDescription() string {
	return `Table 'vitals_samples': collected_at (TIMESTAMP), page (VARCHAR), ` +
		`locale (VARCHAR: en/zh), url (VARCHAR), user_agent (VARCHAR), ` +
		`device (VARCHAR: mobile/desktop), connection (VARCHAR: e.g. 4g), ` +
		`source (VARCHAR: http/tcp/stdin), event_id (VARCHAR), ` +
		`cls (DOUBLE, unitless), lcp/fid/fcp/ttfb/inp (DOUBLE, ms), ` +
		`dom_content_loaded/load_complete/first_paint (DOUBLE, ms).`
}

// TableRowCounts returns the row count for each known table using a hardcoded allowlist.
func (s *Store) TableRowCounts() (map[string]int64, error) {
	release := s.acquireQuery()
	defer release()
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	allowedTables := []string{"vitals_samples"}
	counts := make(map[string]int64, len(allowedTables))

	for _, table := range allowedTables {
		var count int64
		// Table names are hardcoded constants, not user input.
		err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
		if err != nil {
			continue
		}
		counts[table] = count
	}
	return counts, nil
}
