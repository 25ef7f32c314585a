package detector

// DetUnitID identifies one physical detector module. IDs are opaque,
// dense, non-negative and stable for the lifetime of a run. They are
// the sole join key between digis, geometry, and clusters.
type DetUnitID uint32

// PixelDigi is one raw channel reading on a pixel module: a fired pixel
// at (Row, Col) with its ADC count. Digis are immutable once produced
// by the readout chain.
type PixelDigi struct {
	Row int
	Col int
	ADC int32
}

// Channel returns the linearised channel number of the digi on a module
// with the given column count. Bad-channel lists and noise vectors are
// indexed by this number.
func (d PixelDigi) Channel(cols int) int {
	return d.Row*cols + d.Col
}

// PixelADC is one pixel belonging to a cluster, with the ADC count it
// contributed.
type PixelADC struct {
	Row int
	Col int
	ADC int32
}

// PixelCluster is a group of adjacent fired pixels on one detector
// unit. Produced by a Clusterizer, owned by the output collection.
type PixelCluster struct {
	// Charge is the summed ADC of all member pixels.
	Charge int32

	// Bounding box in pixel coordinates (inclusive).
	MinRow, MaxRow int
	MinCol, MaxCol int

	// Charge-weighted barycentre in pixel coordinates.
	RowBary float64
	ColBary float64

	Pixels []PixelADC
}

// Size returns the number of pixels in the cluster.
func (c PixelCluster) Size() int { return len(c.Pixels) }

// SizeRow returns the cluster extent in rows.
func (c PixelCluster) SizeRow() int { return c.MaxRow - c.MinRow + 1 }

// SizeCol returns the cluster extent in columns.
func (c PixelCluster) SizeCol() int { return c.MaxCol - c.MinCol + 1 }
