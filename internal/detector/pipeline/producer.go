package pipeline

import (
	"errors"
	"fmt"

	"github.com/banshee-data/pixel.report/internal/config"
	"github.com/banshee-data/pixel.report/internal/detector"
)

// DefaultDigiProducer is the default source label for the input digi
// collection.
const DefaultDigiProducer = "siPixelDigis"

// ErrNotConfigured is returned by Run when the producer failed
// configuration at construction time. Each event still produces an
// empty output collection; the job is expected to continue.
var ErrNotConfigured = errors.New("cluster producer is not configured")

// ErrorKind classifies pipeline errors.
type ErrorKind int

const (
	// GeometryMismatch means the input claims digis for a unit the
	// geometry snapshot does not know as a pixel module. The event is
	// aborted; continuing with wrong geometry or silently skipping the
	// unit would corrupt downstream reconstruction.
	GeometryMismatch ErrorKind = iota
)

func (k ErrorKind) String() string {
	switch k {
	case GeometryMismatch:
		return "geometry mismatch"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// PipelineError is a per-event fatal error. It aborts the current
// event's output but never the job.
type PipelineError struct {
	Kind ErrorKind
	Unit detector.DetUnitID
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s for det %d: %v", e.Kind, e.Unit, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// RunSummary reports per-event diagnostic counters. Observability
// only; it has no effect on correctness.
type RunSummary struct {
	ClusterMode      string
	UnitsVisited     int
	ClustersProduced int
}

// Config holds the construction-time configuration of a
// ClusterProducer. Only DigiProducer and ClusterMode are read from
// user configuration; the rest are injected collaborators.
type Config struct {
	// DigiProducer is the source label of the input digi collection.
	// Defaults to DefaultDigiProducer when empty.
	DigiProducer string

	// ClusterMode selects the clustering strategy. Defaults to
	// detector.ClusterModeThreshold when empty. An unrecognized mode
	// leaves the producer permanently unconfigured; the failure is
	// logged at setup and reported by every Run.
	ClusterMode string

	// Calibration supplies per-unit noise and bad-channel data.
	// Defaults to the placeholder provider when nil.
	Calibration detector.CalibrationProvider

	// Tuning optionally overrides clusterizer thresholds.
	Tuning *config.TuningConfig

	// Stats optionally accumulates per-event counters for the monitor.
	Stats *detector.RecoStats
}

// ClusterProducer turns one event's digi collection into a cluster
// collection, one detector unit at a time. The clusterizer is bound
// once at construction; there is no reconfiguration and no retry.
type ClusterProducer struct {
	digiProducer string
	clusterMode  string
	clusterizer  detector.Clusterizer
	calib        detector.CalibrationProvider
	stats        *detector.RecoStats
	ready        bool
}

// NewClusterProducer builds a producer from cfg. Construction never
// fails: an unrecognized ClusterMode is logged and leaves the producer
// in the unconfigured state, where every Run yields an empty output
// and ErrNotConfigured. Query Ready to observe the outcome.
func NewClusterProducer(cfg Config) *ClusterProducer {
	p := &ClusterProducer{
		digiProducer: cfg.DigiProducer,
		clusterMode:  cfg.ClusterMode,
		calib:        cfg.Calibration,
		stats:        cfg.Stats,
	}
	if p.digiProducer == "" {
		p.digiProducer = DefaultDigiProducer
	}
	if p.clusterMode == "" {
		p.clusterMode = detector.ClusterModeThreshold
	}
	if p.calib == nil {
		p.calib = detector.NewPlaceholderCalibration()
	}

	clusterizer, err := detector.NewClusterizer(p.clusterMode, detector.ThresholdParamsFromTuning(cfg.Tuning))
	if err != nil {
		opsf("setup: %v", err)
		return p
	}
	p.clusterizer = clusterizer
	p.ready = true
	return p
}

// Ready reports whether configuration succeeded. A producer that is
// not ready stays that way for the lifetime of the job.
func (p *ClusterProducer) Ready() bool { return p.ready }

// ClusterMode returns the configured strategy name, recognized or not.
func (p *ClusterProducer) ClusterMode() string { return p.clusterMode }

// DigiProducer returns the source label for the input collection.
func (p *ClusterProducer) DigiProducer() string { return p.digiProducer }

// Run processes one event: for every detector unit present in the
// input, it fetches the unit's digi run and pixel geometry, invokes
// the clusterizer exactly once, and inserts the resulting run into the
// output only when non-empty. Units absent from the input are never
// visited; units with an empty digi run are visited and yield nothing.
//
// Run always returns a non-nil output collection. When the producer is
// unconfigured the output is empty and the error is ErrNotConfigured.
// When a unit's geometry fails the pixel-module check the event is
// aborted: the output is empty and the error is a *PipelineError with
// kind GeometryMismatch. Neither error is fatal to the job.
func (p *ClusterProducer) Run(input *detector.DigiCollection, geo *detector.TrackerGeometry) (*detector.ClusterCollection, RunSummary, error) {
	output := detector.NewClusterCollection()
	summary := RunSummary{ClusterMode: p.clusterMode}

	if !p.ready {
		opsf("cluster mode %q is not ready -- can't run", p.clusterMode)
		return output, summary, ErrNotConfigured
	}

	for _, id := range input.IDs() {
		digis := input.Get(id)

		geom, err := geo.PixelModuleFor(id)
		if err != nil {
			perr := &PipelineError{Kind: GeometryMismatch, Unit: id, Err: err}
			opsf("aborting event: %v", perr)
			return detector.NewClusterCollection(), summary, perr
		}

		noise := p.calib.NoiseVector(id)
		badChannels := p.calib.BadChannels(id)

		clusters := p.clusterizer.ClusterizeDetUnit(digis, id, geom, noise, badChannels)
		summary.UnitsVisited++
		summary.ClustersProduced += len(clusters)

		// Units yielding no clusters get no output run: absent means
		// "no data", and empty runs are intentionally never stored.
		if len(clusters) == 0 {
			continue
		}
		if err := output.Insert(id, clusters); err != nil {
			// Input ids are unique per the container contract, so this
			// indicates a corrupted input enumeration.
			return detector.NewClusterCollection(), summary, fmt.Errorf("insert clusters for det %d: %w", id, err)
		}
	}

	diagf("executing %s resulted in %d clusters in %d det units",
		p.clusterMode, summary.ClustersProduced, summary.UnitsVisited)

	if p.stats != nil {
		p.stats.AddEvent(summary.UnitsVisited, summary.ClustersProduced)
	}
	return output, summary, nil
}
