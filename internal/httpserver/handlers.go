package httpserver

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitepulse/pulse/internal/beacon"
	"github.com/sitepulse/pulse/internal/model"
)

// handleBeacon accepts beacon payloads: a single JSON object or NDJSON with
// one beacon per line. Unparseable lines are counted but never fail the batch.
func (s *Server) handleBeacon(c *gin.Context) {
	if s.deps.Processor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "beacon ingestion disabled"})
		return
	}

	accepted, rejected := 0, 0
	scanner := bufio.NewScanner(c.Request.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		result := s.deps.Processor.ProcessEnvelope(model.BeaconEnvelope{
			Source: "http",
			Line:   line,
		})
		if result == nil {
			rejected++
			continue
		}
		accepted++
	}
	if err := scanner.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if accepted == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid beacons in request", "rejected": rejected})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": accepted, "rejected": rejected})
}

// handleMonitorRun parses a beacon payload and runs one full monitoring
// cycle on it.
func (s *Server) handleMonitorRun(c *gin.Context) {
	if s.deps.Monitor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "monitoring disabled"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	snapshot := beacon.ParseBeacon(string(body))
	if snapshot == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body is not a recognizable beacon"})
		return
	}

	var meta struct {
		BuildInfo *model.BuildInfo `json:"buildInfo"`
	}
	_ = json.Unmarshal(body, &meta)

	result, err := s.deps.Monitor.Run(c.Request.Context(), snapshot, meta.BuildInfo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleMonitorSummary summarizes the most recent stored snapshot matching
// the optional page and locale query parameters.
func (s *Server) handleMonitorSummary(c *gin.Context) {
	if s.deps.Monitor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "monitoring disabled"})
		return
	}

	opts := model.QueryOpts{
		Page:   c.Query("page"),
		Locale: c.Query("locale"),
	}
	recent, err := s.store.RecentSnapshots(1, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read snapshots"})
		return
	}
	if len(recent) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshots match"})
		return
	}

	snapshot := recent[len(recent)-1]
	summary := s.deps.Monitor.Summary(&snapshot)
	c.JSON(http.StatusOK, gin.H{
		"page":     snapshot.Page,
		"locale":   snapshot.Locale,
		"score":    summary.Score,
		"grade":    summary.Grade,
		"statuses": summary.Statuses,
		"metrics":  snapshot.WebVitals,
	})
}

func (s *Server) handleBaselines(c *gin.Context) {
	if s.deps.Baselines == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "baselines disabled"})
		return
	}
	baselines := s.deps.Baselines.All()
	c.JSON(http.StatusOK, gin.H{
		"count":     len(baselines),
		"baselines": baselines,
	})
}

// handleI18nConfig resolves the request configuration for a locale. The
// resolver never fails; unsupported locales fall back to the default.
// Detection order is query parameter, then Accept-Language, then default.
func (s *Server) handleI18nConfig(c *gin.Context) {
	if s.deps.Resolver == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "i18n disabled"})
		return
	}

	requested := c.Query("locale")
	source := "path"
	confidence := 1.0
	if requested == "" {
		if lang := primaryLanguageTag(c.GetHeader("Accept-Language")); lang != "" {
			requested = lang
			source = "header"
			confidence = 0.8
		} else {
			source = "default"
			confidence = 0.5
		}
	}

	config := s.deps.Resolver.Resolve(c.Request.Context(), requested)
	if s.deps.History != nil {
		s.deps.History.Append(model.LocaleDetectionRecord{
			Locale:     config.Locale,
			Source:     source,
			Timestamp:  time.Now().UnixMilli(),
			Confidence: confidence,
		})
	}
	c.JSON(http.StatusOK, config)
}

func (s *Server) handleI18nHistory(c *gin.Context) {
	if s.deps.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "detection history disabled"})
		return
	}
	history, err := s.deps.History.History()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read detection history"})
		return
	}
	c.JSON(http.StatusOK, history)
}

// primaryLanguageTag extracts the first language tag from an Accept-Language
// header value, dropping any quality weight.
func primaryLanguageTag(header string) string {
	first, _, _ := strings.Cut(header, ",")
	tag, _, _ := strings.Cut(first, ";")
	return strings.TrimSpace(tag)
}

func (s *Server) handleI18nValidate(c *gin.Context) {
	if s.deps.Validator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "i18n disabled"})
		return
	}
	result := s.deps.Validator.Validate(c.Request.Context())
	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

func (s *Server) handleSchema(c *gin.Context) {
	description := s.store.GetSchemaDescription()

	tables, err := s.store.ExecuteQuery(
		"SELECT table_name, column_name, data_type FROM information_schema.columns WHERE table_schema = 'main' ORDER BY table_name, ordinal_position",
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read schema metadata"})
		return
	}

	schema := make(map[string][]map[string]string)
	for _, row := range tables {
		tableName := fmt.Sprintf("%v", row["table_name"])
		schema[tableName] = append(schema[tableName], map[string]string{
			"column": fmt.Sprintf("%v", row["column_name"]),
			"type":   fmt.Sprintf("%v", row["data_type"]),
		})
	}

	counts, err := s.store.TableRowCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read table row counts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"description": description,
		"tables":      schema,
		"row_counts":  counts,
	})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req struct {
		SQL string `json:"sql" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing sql field"})
		return
	}

	results, err := s.store.ExecuteQuery(req.SQL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var columns []string
	if len(results) > 0 {
		for col := range results[0] {
			columns = append(columns, col)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"columns":   columns,
		"rows":      results,
		"row_count": len(results),
	})
}
