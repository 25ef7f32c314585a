package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/pixel.report/internal/detector"
)

// schema is created idempotently at store construction. The store owns
// two tables: one row per reconstruction run, one row per cluster.
const schema = `
CREATE TABLE IF NOT EXISTS reco_runs (
	run_id TEXT PRIMARY KEY,
	cluster_mode TEXT NOT NULL,
	started_unix_nanos BIGINT NOT NULL,
	finished_unix_nanos BIGINT,
	event_count INTEGER NOT NULL DEFAULT 0,
	unit_count INTEGER NOT NULL DEFAULT 0,
	cluster_count INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS pixel_clusters (
	cluster_id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	event_number BIGINT NOT NULL,
	det_id INTEGER NOT NULL,
	charge INTEGER NOT NULL,
	size_pixels INTEGER NOT NULL,
	min_row INTEGER NOT NULL,
	max_row INTEGER NOT NULL,
	min_col INTEGER NOT NULL,
	max_col INTEGER NOT NULL,
	row_bary DOUBLE NOT NULL,
	col_bary DOUBLE NOT NULL,
	FOREIGN KEY(run_id) REFERENCES reco_runs(run_id)
);
CREATE INDEX IF NOT EXISTS idx_pixel_clusters_run_det
	ON pixel_clusters(run_id, det_id);
`

// pragmas applied at store construction; WAL keeps writers from
// blocking the monitor's readers.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// ClusterStore manages persistence for reconstruction runs and the
// clusters they produce.
type ClusterStore struct {
	db *sql.DB
}

// NewClusterStore creates a ClusterStore backed by the given database,
// applying pragmas and creating the schema if needed.
func NewClusterStore(db *sql.DB) (*ClusterStore, error) {
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create cluster store schema: %w", err)
	}
	return &ClusterStore{db: db}, nil
}

// BeginRun records the start of a reconstruction run and returns its id.
func (s *ClusterStore) BeginRun(clusterMode string) (string, error) {
	runID := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO reco_runs (run_id, cluster_mode, started_unix_nanos) VALUES (?, ?, ?)`,
		runID, clusterMode, time.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("insert reco run: %w", err)
	}
	return runID, nil
}

// FinishRun stamps the run's end time and final counters.
func (s *ClusterStore) FinishRun(runID string, events, units, clusters int64) error {
	res, err := s.db.Exec(
		`UPDATE reco_runs SET finished_unix_nanos = ?, event_count = ?, unit_count = ?, cluster_count = ?
		 WHERE run_id = ?`,
		time.Now().UnixNano(), events, units, clusters, runID,
	)
	if err != nil {
		return fmt.Errorf("finish reco run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish reco run rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish reco run: unknown run %q", runID)
	}
	return nil
}

// InsertEventClusters writes every cluster run of one event in a
// single transaction.
func (s *ClusterStore) InsertEventClusters(runID string, eventNumber int64, clusters *detector.ClusterCollection) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin cluster insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO pixel_clusters (
			run_id, event_number, det_id, charge, size_pixels,
			min_row, max_row, min_col, max_col, row_bary, col_bary
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare cluster insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range clusters.IDs() {
		for _, cl := range clusters.Get(id) {
			if _, err := stmt.Exec(
				runID, eventNumber, int64(id), cl.Charge, cl.Size(),
				cl.MinRow, cl.MaxRow, cl.MinCol, cl.MaxCol, cl.RowBary, cl.ColBary,
			); err != nil {
				return fmt.Errorf("insert cluster for det %d: %w", id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cluster insert: %w", err)
	}
	return nil
}

// DetUnitCount is the per-unit cluster total for one run.
type DetUnitCount struct {
	DetID    detector.DetUnitID
	Clusters int64
}

// ClustersPerDetUnit returns cluster totals grouped by detector unit
// for the given run, ordered by det id.
func (s *ClusterStore) ClustersPerDetUnit(runID string) ([]DetUnitCount, error) {
	rows, err := s.db.Query(
		`SELECT det_id, COUNT(*) FROM pixel_clusters WHERE run_id = ? GROUP BY det_id ORDER BY det_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query clusters per det unit: %w", err)
	}
	defer rows.Close()

	var counts []DetUnitCount
	for rows.Next() {
		var c DetUnitCount
		var detID int64
		if err := rows.Scan(&detID, &c.Clusters); err != nil {
			return nil, fmt.Errorf("scan det unit count: %w", err)
		}
		c.DetID = detector.DetUnitID(detID)
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate det unit counts: %w", err)
	}
	return counts, nil
}

// CountClusters returns the total number of clusters stored for a run.
func (s *ClusterStore) CountClusters(runID string) (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM pixel_clusters WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count clusters: %w", err)
	}
	return n, nil
}
