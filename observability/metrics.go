// Package observability persists analysis metrics to SQLite.
//
// Only aggregate-safe values are recorded: durations, page counts, scores,
// risk levels, finding counts and rejection reasons. Lease text, file names
// and party names never reach the store.
//
// Persistence is async and non-blocking: Record appends to a buffer that a
// background goroutine flushes in batches.
package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/lexbaux/dbopen"
)

// Metric names.
const (
	MetricAnalysisDurationMs = "analysis_duration_ms"
	MetricAnalysisRiskScore  = "analysis_risk_score"
	MetricAnalysisFindings   = "analysis_findings_count"
	MetricAnalysisRejected   = "analysis_rejected_count"
	MetricDocumentPages      = "document_pages_count"
)

// Metric is a single timeseries datapoint.
type Metric struct {
	Name      string
	Timestamp time.Time
	Value     float64
	Labels    map[string]string // risk_level, transport, reason
	Unit      string            // "milliseconds", "count", "ratio"
}

// MetricsManager buffers metrics and flushes them to SQLite in batches.
type MetricsManager struct {
	db            *sql.DB
	bufferSize    int
	flushInterval time.Duration
	buffer        []*Metric
	mu            sync.Mutex
	stop          chan struct{}
	done          chan struct{}
	closeOnce     sync.Once
}

// NewMetricsManager creates a manager that flushes metrics in batches.
// Recommended defaults: bufferSize=100, flushInterval=5s.
func NewMetricsManager(db *sql.DB, bufferSize int, flushInterval time.Duration) *MetricsManager {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	mm := &MetricsManager{
		db:            db,
		bufferSize:    bufferSize,
		flushInterval: flushInterval,
		buffer:        make([]*Metric, 0, bufferSize),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go mm.flushLoop()
	return mm
}

// Record queues a metric for async persistence.
func (mm *MetricsManager) Record(m *Metric) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.buffer = append(mm.buffer, m)
	if len(mm.buffer) >= mm.bufferSize {
		mm.flushLocked()
	}
}

// Flush writes buffered metrics now.
func (mm *MetricsManager) Flush() {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.flushLocked()
}

// Filter narrows Query. Zero values mean unbounded.
type Filter struct {
	Name  string
	Since time.Time
	Until time.Time
	Limit int
}

// Query retrieves metrics, newest first.
func (mm *MetricsManager) Query(ctx context.Context, f Filter) ([]*Metric, error) {
	q := "SELECT metric_name, timestamp, value, labels, unit FROM metrics_timeseries WHERE 1=1"
	var args []any

	if f.Name != "" {
		q += " AND metric_name = ?"
		args = append(args, f.Name)
	}
	if !f.Since.IsZero() {
		q += " AND timestamp >= ?"
		args = append(args, f.Since.Unix())
	}
	if !f.Until.IsZero() {
		q += " AND timestamp <= ?"
		args = append(args, f.Until.Unix())
	}
	q += " ORDER BY timestamp DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := mm.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []*Metric
	for rows.Next() {
		var name string
		var unit sql.NullString
		var ts int64
		var value float64
		var labelsJSON sql.NullString

		if err := rows.Scan(&name, &ts, &value, &labelsJSON, &unit); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		m := &Metric{Name: name, Timestamp: time.Unix(ts, 0), Value: value, Unit: unit.String}
		if labelsJSON.Valid {
			var labels map[string]string
			if json.Unmarshal([]byte(labelsJSON.String), &labels) == nil {
				m.Labels = labels
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Stats aggregates analysis metrics since a point in time.
type Stats struct {
	Analyses      int            `json:"analyses"`
	Rejected      int            `json:"rejected"`
	AvgDurationMs float64        `json:"avg_duration_ms"`
	AvgRiskScore  float64        `json:"avg_risk_score"`
	ByRiskLevel   map[string]int `json:"by_risk_level"`
}

// Stats computes counts and averages over the store.
func (mm *MetricsManager) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	st := &Stats{ByRiskLevel: map[string]int{}}

	var avgDur, avgScore sql.NullFloat64
	err := mm.db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN metric_name = ? THEN 1 END),
			AVG(CASE WHEN metric_name = ? THEN value END),
			AVG(CASE WHEN metric_name = ? THEN value END),
			COUNT(CASE WHEN metric_name = ? THEN 1 END)
		FROM metrics_timeseries WHERE timestamp >= ?`,
		MetricAnalysisRiskScore, MetricAnalysisDurationMs, MetricAnalysisRiskScore,
		MetricAnalysisRejected, since.Unix(),
	).Scan(&st.Analyses, &avgDur, &avgScore, &st.Rejected)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	st.AvgDurationMs = avgDur.Float64
	st.AvgRiskScore = avgScore.Float64

	rows, err := mm.db.QueryContext(ctx, `
		SELECT json_extract(labels, '$.risk_level') AS level, COUNT(*)
		FROM metrics_timeseries
		WHERE metric_name = ? AND timestamp >= ? AND json_extract(labels, '$.risk_level') IS NOT NULL
		GROUP BY level`, MetricAnalysisRiskScore, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("stats by level: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		st.ByRiskLevel[level] = n
	}
	return st, rows.Err()
}

// Cleanup deletes metrics older than retentionDays and returns the count removed.
func (mm *MetricsManager) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	threshold := time.Now().AddDate(0, 0, -retentionDays).Unix()
	result, err := dbopen.Exec(ctx, mm.db, "DELETE FROM metrics_timeseries WHERE timestamp < ?", threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup metrics: %w", err)
	}
	return result.RowsAffected()
}

// Close flushes remaining metrics and stops the background goroutine.
// It is safe to call more than once.
func (mm *MetricsManager) Close() error {
	mm.closeOnce.Do(func() {
		close(mm.stop)
		<-mm.done
	})
	return nil
}

func (mm *MetricsManager) flushLoop() {
	defer close(mm.done)
	ticker := time.NewTicker(mm.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-mm.stop:
			mm.Flush()
			return
		case <-ticker.C:
			mm.Flush()
		}
	}
}

func (mm *MetricsManager) flushLocked() {
	if len(mm.buffer) == 0 {
		return
	}
	batch := mm.buffer
	mm.buffer = make([]*Metric, 0, mm.bufferSize)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := dbopen.RunTx(ctx, mm.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO metrics_timeseries (metric_name, timestamp, value, labels, unit) VALUES (?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, m := range batch {
			var labelsJSON sql.NullString
			if len(m.Labels) > 0 {
				if b, err := json.Marshal(m.Labels); err == nil {
					labelsJSON = sql.NullString{String: string(b), Valid: true}
				}
			}
			if _, err := stmt.ExecContext(ctx, m.Name, m.Timestamp.Unix(), m.Value, labelsJSON, m.Unit); err != nil {
				return fmt.Errorf("insert %s: %w", m.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("observability metrics: flush", "error", err, "dropped", len(batch))
	}
}
