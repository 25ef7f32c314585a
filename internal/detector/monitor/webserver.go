package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pixel.report/internal/detector"
	sqlite "github.com/banshee-data/pixel.report/internal/detector/storage/sqlite"
)

// WebServer handles the HTTP interface for monitoring cluster
// production. It provides a health check, real-time counters, and a
// debugging occupancy chart.
type WebServer struct {
	address string
	stats   *detector.RecoStats
	store   *sqlite.ClusterStore
	server  *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	Stats   *detector.RecoStats
	Store   *sqlite.ClusterStore
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		stats:   config.Stats,
		store:   config.Store,
	}
	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}
	return ws
}

func (ws *WebServer) setupRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", ws.handleHealth)
	mux.HandleFunc("/api/detector/stats", ws.handleStats)
	mux.HandleFunc("/debug/occupancy", ws.handleOccupancy)
	return mux
}

// Handler exposes the route table for tests and for embedding in a
// larger server.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// Start begins the HTTP server in a goroutine and shuts it down when
// ctx is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("monitor server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return ws.server.Shutdown(shutdownCtx)
	}
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStats reports the accumulated reconstruction counters.
func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if ws.stats == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no stats configured")
		return
	}
	events, units, clusters := ws.stats.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{
		"events":            events,
		"det_units_visited": units,
		"clusters_produced": clusters,
	})
}

// handleOccupancy renders a quick bar chart (HTML) of clusters per
// detector unit using go-echarts. This is a debugging-only endpoint
// (no auth) to eyeball module occupancy without a frontend.
// Query params:
//   - run_id (required): the reconstruction run to chart
func (ws *WebServer) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no cluster store configured")
		return
	}
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'run_id' parameter")
		return
	}

	counts, err := ws.store.ClustersPerDetUnit(runID)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(counts) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no clusters for run")
		return
	}

	labels := make([]string, 0, len(counts))
	data := make([]opts.BarData, 0, len(counts))
	for _, c := range counts {
		labels = append(labels, fmt.Sprintf("%d", c.DetID))
		data = append(data, opts.BarData{Value: c.Clusters})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Cluster occupancy by detector unit",
			Subtitle: "run " + runID,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "det unit"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "clusters"}),
	)
	bar.SetXAxis(labels).AddSeries("clusters", data)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := bar.Render(w); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
