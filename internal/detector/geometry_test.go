package detector

import (
	"errors"
	"testing"
)

func testGeometry() *TrackerGeometry {
	return NewTrackerGeometry(
		PixelModule{ID: 10, Rows: 160, Cols: 416, PitchRow: 0.100, PitchCol: 0.150},
		PixelModule{ID: 20, Rows: 80, Cols: 52, PitchRow: 0.100, PitchCol: 0.150},
		StripModule{ID: 30, Strips: 768, Pitch: 0.080},
	)
}

func TestTrackerGeometry_Resolve(t *testing.T) {
	geo := testGeometry()

	u, ok := geo.Resolve(10)
	if !ok {
		t.Fatal("Resolve(10) should succeed")
	}
	if u.DetID() != 10 {
		t.Errorf("DetID() = %d, want 10", u.DetID())
	}

	if _, ok := geo.Resolve(99); ok {
		t.Error("Resolve(99) should fail for unknown id")
	}
}

func TestTrackerGeometry_PixelModuleFor(t *testing.T) {
	geo := testGeometry()

	pm, err := geo.PixelModuleFor(20)
	if err != nil {
		t.Fatalf("PixelModuleFor(20) failed: %v", err)
	}
	if pm.Rows != 80 || pm.Cols != 52 {
		t.Errorf("unexpected module dimensions: %dx%d", pm.Rows, pm.Cols)
	}
}

func TestTrackerGeometry_PixelModuleFor_UnknownUnit(t *testing.T) {
	geo := testGeometry()

	_, err := geo.PixelModuleFor(99)
	if !errors.Is(err, ErrUnknownDetUnit) {
		t.Fatalf("expected ErrUnknownDetUnit, got %v", err)
	}
}

func TestTrackerGeometry_PixelModuleFor_StripMismatch(t *testing.T) {
	geo := testGeometry()

	_, err := geo.PixelModuleFor(30)
	if !errors.Is(err, ErrNotPixelModule) {
		t.Fatalf("expected ErrNotPixelModule, got %v", err)
	}
}

func TestTrackerGeometry_DuplicateIDReplaces(t *testing.T) {
	geo := NewTrackerGeometry(
		PixelModule{ID: 1, Rows: 10, Cols: 10},
		PixelModule{ID: 1, Rows: 20, Cols: 20},
	)
	if geo.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", geo.Len())
	}
	pm, err := geo.PixelModuleFor(1)
	if err != nil {
		t.Fatalf("PixelModuleFor(1) failed: %v", err)
	}
	if pm.Rows != 20 {
		t.Errorf("later unit should replace earlier, got Rows=%d", pm.Rows)
	}
}
