package detector

import (
	"errors"
	"fmt"
)

// Sentinel errors for geometry resolution. Both indicate an
// inconsistency between the digi input and the geometry snapshot: the
// input claims data for a unit the geometry does not know, or knows as
// a different module type.
var (
	ErrUnknownDetUnit = errors.New("detector unit not in geometry")
	ErrNotPixelModule = errors.New("detector unit is not a pixel module")
)

// GeomDetUnit describes the physical geometry of one detector unit.
// The set of implementations is closed: PixelModule and StripModule.
// Callers extract the variant they need (see PixelModuleFor) instead
// of downcasting.
type GeomDetUnit interface {
	DetID() DetUnitID

	// sealed marker; only types in this package implement GeomDetUnit.
	isGeomDetUnit()
}

// PixelModule is the geometry of a pixel detector module: the sensor
// grid dimensions and pixel pitch. Immutable once built.
type PixelModule struct {
	ID   DetUnitID
	Rows int
	Cols int

	// Pixel pitch in millimetres.
	PitchRow float64
	PitchCol float64
}

// DetID returns the module's detector-unit id.
func (m PixelModule) DetID() DetUnitID { return m.ID }

func (PixelModule) isGeomDetUnit() {}

// StripModule is the geometry of a silicon strip module. The cluster
// producer never operates on strips; the variant exists so geometry
// mismatches surface as typed errors rather than silent misreads.
type StripModule struct {
	ID     DetUnitID
	Strips int

	// Strip pitch in millimetres.
	Pitch float64
}

// DetID returns the module's detector-unit id.
func (m StripModule) DetID() DetUnitID { return m.ID }

func (StripModule) isGeomDetUnit() {}

// TrackerGeometry is a read-only per-event snapshot mapping detector
// unit ids to their geometric descriptors. Built once by the geometry
// provider; safe for concurrent reads.
type TrackerGeometry struct {
	units map[DetUnitID]GeomDetUnit
}

// NewTrackerGeometry builds a geometry snapshot from the given units.
// A later unit with a duplicate id replaces the earlier one.
func NewTrackerGeometry(units ...GeomDetUnit) *TrackerGeometry {
	g := &TrackerGeometry{units: make(map[DetUnitID]GeomDetUnit, len(units))}
	for _, u := range units {
		g.units[u.DetID()] = u
	}
	return g
}

// Resolve looks up the geometry descriptor for id.
func (g *TrackerGeometry) Resolve(id DetUnitID) (GeomDetUnit, bool) {
	u, ok := g.units[id]
	return u, ok
}

// PixelModuleFor resolves id and extracts the pixel-module variant.
// The error wraps ErrUnknownDetUnit or ErrNotPixelModule so callers
// can distinguish the two inconsistencies with errors.Is.
func (g *TrackerGeometry) PixelModuleFor(id DetUnitID) (PixelModule, error) {
	u, ok := g.units[id]
	if !ok {
		return PixelModule{}, fmt.Errorf("det %d: %w", id, ErrUnknownDetUnit)
	}
	pm, ok := u.(PixelModule)
	if !ok {
		return PixelModule{}, fmt.Errorf("det %d (%T): %w", id, u, ErrNotPixelModule)
	}
	return pm, nil
}

// Len returns the number of units in the snapshot.
func (g *TrackerGeometry) Len() int { return len(g.units) }
