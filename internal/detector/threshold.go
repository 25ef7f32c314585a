package detector

import (
	"sort"

	"github.com/banshee-data/pixel.report/internal/config"
)

// Default threshold clusterizer parameters, in ADC counts. These are
// the fallbacks when config/tuning.defaults.json does not override
// them.
const (
	// DefaultSeedThresholdADC is the minimum ADC for a pixel to seed a cluster.
	DefaultSeedThresholdADC = 1000
	// DefaultPixelThresholdADC is the minimum ADC for a pixel to join a cluster.
	DefaultPixelThresholdADC = 400
	// DefaultClusterThresholdADC is the minimum summed ADC for a cluster to be kept.
	DefaultClusterThresholdADC = 2000
	// DefaultNoiseSigmaCut is the per-channel noise multiplier below which
	// a pixel is treated as noise regardless of the pixel threshold.
	DefaultNoiseSigmaCut = 3.0
)

// ThresholdParams holds the tunable thresholds for the threshold
// clusterizer.
type ThresholdParams struct {
	SeedADC       int32
	PixelADC      int32
	ClusterADC    int32
	NoiseSigmaCut float64
}

// DefaultThresholdParams returns production-default threshold parameters.
func DefaultThresholdParams() ThresholdParams {
	return ThresholdParams{
		SeedADC:       DefaultSeedThresholdADC,
		PixelADC:      DefaultPixelThresholdADC,
		ClusterADC:    DefaultClusterThresholdADC,
		NoiseSigmaCut: DefaultNoiseSigmaCut,
	}
}

// ThresholdParamsFromTuning builds ThresholdParams from a tuning
// config. Fields omitted from the config keep their defaults, so
// partial configs are safe.
func ThresholdParamsFromTuning(cfg *config.TuningConfig) ThresholdParams {
	p := DefaultThresholdParams()
	if cfg == nil {
		return p
	}
	if cfg.SeedThresholdADC != nil {
		p.SeedADC = int32(*cfg.SeedThresholdADC)
	}
	if cfg.PixelThresholdADC != nil {
		p.PixelADC = int32(*cfg.PixelThresholdADC)
	}
	if cfg.ClusterThresholdADC != nil {
		p.ClusterADC = int32(*cfg.ClusterThresholdADC)
	}
	if cfg.NoiseSigmaCut != nil {
		p.NoiseSigmaCut = *cfg.NoiseSigmaCut
	}
	return p
}

// PixelThresholdClusterizer implements Clusterizer with threshold
// seeding and 8-neighbour growth: pixels above the pixel threshold are
// candidates, candidates above the seed threshold start clusters,
// clusters grow across adjacent candidates, and only clusters whose
// summed charge passes the cluster threshold are kept.
type PixelThresholdClusterizer struct {
	params ThresholdParams
}

// NewPixelThresholdClusterizer creates a threshold clusterizer with the
// given parameters.
func NewPixelThresholdClusterizer(params ThresholdParams) *PixelThresholdClusterizer {
	return &PixelThresholdClusterizer{params: params}
}

// NewDefaultPixelThresholdClusterizer creates a threshold clusterizer
// with default parameters.
func NewDefaultPixelThresholdClusterizer() *PixelThresholdClusterizer {
	return NewPixelThresholdClusterizer(DefaultThresholdParams())
}

// GetParams returns the current threshold parameters.
func (c *PixelThresholdClusterizer) GetParams() ThresholdParams {
	return c.params
}

// SetParams updates the threshold parameters. This allows runtime
// tuning between events; it must not be called during an event.
func (c *PixelThresholdClusterizer) SetParams(params ThresholdParams) {
	c.params = params
}

type pixelCoord struct {
	row, col int
}

// ClusterizeDetUnit clusters one unit's digi run. The output is
// deterministic: clusters are sorted by (MinRow, MinCol) and member
// pixels by (Row, Col), so repeated runs over the same input produce
// identical results.
func (c *PixelThresholdClusterizer) ClusterizeDetUnit(digis []PixelDigi, id DetUnitID, geom PixelModule, noise []float32, badChannels []int) []PixelCluster {
	if len(digis) == 0 || geom.Rows <= 0 || geom.Cols <= 0 {
		return nil
	}

	bad := make(map[int]struct{}, len(badChannels))
	for _, ch := range badChannels {
		bad[ch] = struct{}{}
	}

	// Candidate pixels: above the pixel threshold and the per-channel
	// noise cut, not masked. Duplicate digis on one pixel accumulate.
	adc := make(map[pixelCoord]int32, len(digis))
	order := make([]pixelCoord, 0, len(digis))
	for _, d := range digis {
		if d.Row < 0 || d.Row >= geom.Rows || d.Col < 0 || d.Col >= geom.Cols {
			// Out-of-module digi: corrupt upstream data, not clusterable.
			Tracef("det %d: digi (%d,%d) outside %dx%d module, skipped", id, d.Row, d.Col, geom.Rows, geom.Cols)
			continue
		}
		ch := d.Channel(geom.Cols)
		if _, masked := bad[ch]; masked {
			continue
		}
		thr := float64(c.params.PixelADC)
		if len(noise) > 0 {
			if nthr := float64(noise[ch%len(noise)]) * c.params.NoiseSigmaCut; nthr > thr {
				thr = nthr
			}
		}
		if float64(d.ADC) < thr {
			continue
		}
		p := pixelCoord{d.Row, d.Col}
		if _, seen := adc[p]; !seen {
			order = append(order, p)
		}
		adc[p] += d.ADC
	}

	visited := make(map[pixelCoord]bool, len(adc))
	var clusters []PixelCluster

	// Seed scan in digi order; growth claims pixels so each candidate
	// belongs to at most one cluster.
	for _, seed := range order {
		if visited[seed] || adc[seed] < c.params.SeedADC {
			continue
		}
		visited[seed] = true
		stack := []pixelCoord{seed}
		var members []pixelCoord
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, cur)
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					n := pixelCoord{cur.row + dr, cur.col + dc}
					if _, ok := adc[n]; ok && !visited[n] {
						visited[n] = true
						stack = append(stack, n)
					}
				}
			}
		}

		cl := buildCluster(members, adc)
		if cl.Charge >= c.params.ClusterADC {
			clusters = append(clusters, cl)
		}
	}

	// Sort clusters deterministically by bounding-box origin.
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].MinRow != clusters[j].MinRow {
			return clusters[i].MinRow < clusters[j].MinRow
		}
		return clusters[i].MinCol < clusters[j].MinCol
	})

	return clusters
}

func buildCluster(members []pixelCoord, adc map[pixelCoord]int32) PixelCluster {
	sort.Slice(members, func(i, j int) bool {
		if members[i].row != members[j].row {
			return members[i].row < members[j].row
		}
		return members[i].col < members[j].col
	})

	cl := PixelCluster{
		MinRow: members[0].row,
		MaxRow: members[0].row,
		MinCol: members[0].col,
		MaxCol: members[0].col,
		Pixels: make([]PixelADC, 0, len(members)),
	}
	var rowSum, colSum float64
	for _, m := range members {
		a := adc[m]
		cl.Charge += a
		cl.Pixels = append(cl.Pixels, PixelADC{Row: m.row, Col: m.col, ADC: a})
		rowSum += float64(m.row) * float64(a)
		colSum += float64(m.col) * float64(a)
		if m.row < cl.MinRow {
			cl.MinRow = m.row
		}
		if m.row > cl.MaxRow {
			cl.MaxRow = m.row
		}
		if m.col < cl.MinCol {
			cl.MinCol = m.col
		}
		if m.col > cl.MaxCol {
			cl.MaxCol = m.col
		}
	}
	if cl.Charge > 0 {
		cl.RowBary = rowSum / float64(cl.Charge)
		cl.ColBary = colSum / float64(cl.Charge)
	}
	return cl
}

// Verify at compile time that *PixelThresholdClusterizer implements Clusterizer.
var _ Clusterizer = (*PixelThresholdClusterizer)(nil)
