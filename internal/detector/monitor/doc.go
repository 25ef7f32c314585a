// Package monitor provides the HTTP diagnostics surface for cluster
// production: a JSON stats endpoint, a debugging occupancy chart, and
// an offline occupancy plotter.
package monitor
