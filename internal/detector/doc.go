// Package detector owns the domain model for silicon pixel local
// reconstruction: detector-unit ids, raw digis, clusters, the sparse
// unit-indexed DetSetVector container, tracker geometry, calibration
// providers, and the pluggable clusterizer strategies.
//
// Orchestration lives in detector/pipeline; persistence in
// detector/storage/sqlite; diagnostics in detector/monitor. Those
// packages import detector, never the other way around.
package detector
