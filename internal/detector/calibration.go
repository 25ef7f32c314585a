package detector

// Placeholder calibration constants. Until real calibration data is
// sourced, every module gets a flat noise vector and no bad channels.
const (
	// PlaceholderNoiseChannels is the length of the synthesized noise vector.
	PlaceholderNoiseChannels = 768
	// PlaceholderNoiseADC is the flat per-channel noise value in ADC counts.
	PlaceholderNoiseADC = 2.0
)

// CalibrationProvider supplies per-unit noise and bad-channel side data
// for the clusterizer. The pipeline passes both through opaquely; only
// the clusterizer interprets them.
type CalibrationProvider interface {
	// NoiseVector returns the per-channel noise (ADC counts) for the unit.
	// The returned slice is read-only.
	NoiseVector(id DetUnitID) []float32

	// BadChannels returns the linearised channel numbers to mask on the
	// unit. The returned slice is read-only and may be empty.
	BadChannels(id DetUnitID) []int
}

// PlaceholderCalibration implements CalibrationProvider with the fixed
// placeholder data: a 768-entry noise vector of 2.0 ADC and an empty
// bad-channel list for every unit.
type PlaceholderCalibration struct {
	noise []float32
}

// NewPlaceholderCalibration builds the placeholder provider. The noise
// vector is allocated once and shared across all lookups.
func NewPlaceholderCalibration() *PlaceholderCalibration {
	noise := make([]float32, PlaceholderNoiseChannels)
	for i := range noise {
		noise[i] = PlaceholderNoiseADC
	}
	return &PlaceholderCalibration{noise: noise}
}

// NoiseVector returns the shared placeholder noise vector.
func (c *PlaceholderCalibration) NoiseVector(DetUnitID) []float32 {
	return c.noise
}

// BadChannels returns no bad channels.
func (c *PlaceholderCalibration) BadChannels(DetUnitID) []int {
	return nil
}

// Verify at compile time that *PlaceholderCalibration implements CalibrationProvider.
var _ CalibrationProvider = (*PlaceholderCalibration)(nil)
