package detector

import (
	"errors"
	"fmt"
)

// ErrDuplicateDetSet is returned by Insert when a run already exists
// for the given detector unit.
var ErrDuplicateDetSet = errors.New("det set already present for detector unit")

// DetSetVector is a sparse container mapping a detector-unit id to a
// contiguous, insertion-ordered run of per-unit records. At most one
// run may be inserted per id. An id without a run means "no data", not
// "empty data": Get returns nil for absent ids and IDs never reports
// them.
type DetSetVector[T any] struct {
	order []DetUnitID
	runs  map[DetUnitID][]T
}

// DigiCollection is the unit-indexed input collection of raw digis.
type DigiCollection = DetSetVector[PixelDigi]

// ClusterCollection is the unit-indexed output collection of clusters.
type ClusterCollection = DetSetVector[PixelCluster]

// NewDetSetVector creates an empty DetSetVector.
func NewDetSetVector[T any]() *DetSetVector[T] {
	return &DetSetVector[T]{
		runs: make(map[DetUnitID][]T),
	}
}

// NewDigiCollection creates an empty digi collection.
func NewDigiCollection() *DigiCollection {
	return NewDetSetVector[PixelDigi]()
}

// NewClusterCollection creates an empty cluster collection.
func NewClusterCollection() *ClusterCollection {
	return NewDetSetVector[PixelCluster]()
}

// Insert stores the run for id. Callers must insert at most once per
// id per event; a second Insert for the same id fails with
// ErrDuplicateDetSet and leaves the container unchanged.
func (v *DetSetVector[T]) Insert(id DetUnitID, items []T) error {
	if _, ok := v.runs[id]; ok {
		return fmt.Errorf("insert det %d: %w", id, ErrDuplicateDetSet)
	}
	v.order = append(v.order, id)
	v.runs[id] = items
	return nil
}

// Get returns the run stored for id, or nil when the id has no run.
// The returned slice is the stored run itself; callers must not
// mutate it.
func (v *DetSetVector[T]) Get(id DetUnitID) []T {
	return v.runs[id]
}

// Has reports whether a run exists for id. An id inserted with an
// empty run still counts as present.
func (v *DetSetVector[T]) Has(id DetUnitID) bool {
	_, ok := v.runs[id]
	return ok
}

// IDs returns all ids with a run, in insertion order. The slice is a
// fresh copy on every call so enumeration is restartable and immune to
// later insertions.
func (v *DetSetVector[T]) IDs() []DetUnitID {
	ids := make([]DetUnitID, len(v.order))
	copy(ids, v.order)
	return ids
}

// Len returns the number of detector units with a run.
func (v *DetSetVector[T]) Len() int {
	return len(v.order)
}

// Size returns the total number of records across all runs.
func (v *DetSetVector[T]) Size() int {
	n := 0
	for _, run := range v.runs {
		n += len(run)
	}
	return n
}
