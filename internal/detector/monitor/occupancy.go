package monitor

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	sqlite "github.com/banshee-data/pixel.report/internal/detector/storage/sqlite"
)

// OccupancyPlotter renders per-unit cluster occupancy to PNG files for
// offline inspection after a run.
type OccupancyPlotter struct {
	outputDir string
}

// NewOccupancyPlotter creates a plotter writing into outputDir,
// creating the directory if needed.
func NewOccupancyPlotter(outputDir string) (*OccupancyPlotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &OccupancyPlotter{outputDir: outputDir}, nil
}

// PlotRun renders a bar chart of clusters per detector unit for one
// run and returns the path of the written PNG.
func (op *OccupancyPlotter) PlotRun(runID string, counts []sqlite.DetUnitCount) (string, error) {
	if len(counts) == 0 {
		return "", fmt.Errorf("no det unit counts for run %s", runID)
	}

	values := make(plotter.Values, len(counts))
	labels := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Clusters)
		labels[i] = fmt.Sprintf("%d", c.DetID)
	}

	p := plot.New()
	p.Title.Text = "Cluster occupancy, run " + runID
	p.X.Label.Text = "det unit"
	p.Y.Label.Text = "clusters"

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return "", fmt.Errorf("build bar chart: %w", err)
	}
	p.Add(bars)
	p.NominalX(labels...)

	path := filepath.Join(op.outputDir, fmt.Sprintf("occupancy_%s.png", runID))
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save occupancy plot: %w", err)
	}
	return path, nil
}
