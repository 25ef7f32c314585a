package detector

import "fmt"

// ClusterModeThreshold is the name of the threshold clusterizer, the
// single known clustering strategy and the default ClusterMode.
const ClusterModeThreshold = "PixelThresholdClusterizer"

// Clusterizer abstracts the clustering implementation. A clusterizer
// is bound once per job from the ClusterMode configuration string and
// then invoked exactly once per detector unit per event.
//
// Implementations must be safe to call repeatedly and in any unit
// order: no shared mutable state may survive between calls. An input
// from which no cluster can be formed (including an empty digi run)
// yields an empty result, never an error.
type Clusterizer interface {
	// ClusterizeDetUnit clusters one unit's digi run. digis is exactly
	// the run stored for id in the input collection; noise and
	// badChannels are the unit's calibration side data, indexed by
	// linearised channel number.
	ClusterizeDetUnit(digis []PixelDigi, id DetUnitID, geom PixelModule, noise []float32, badChannels []int) []PixelCluster
}

// NewClusterizer builds the clusterizer selected by mode. An
// unrecognized mode returns an error naming the known strategies;
// callers decide whether that is fatal (the cluster producer treats it
// as a deferred, per-event-reported failure).
func NewClusterizer(mode string, params ThresholdParams) (Clusterizer, error) {
	switch mode {
	case ClusterModeThreshold:
		return NewPixelThresholdClusterizer(params), nil
	default:
		return nil, fmt.Errorf("cluster mode %q is invalid (known modes: %s)", mode, ClusterModeThreshold)
	}
}
