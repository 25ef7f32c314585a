// Package pipeline provides the per-event cluster producer that
// orchestrates digi input, tracker geometry, calibration, and the
// bound clusterizer strategy.
//
// This package is the composition root: it imports from detector and
// config, but neither of those imports pipeline.
package pipeline
