package detector

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/pixel.report/internal/config"
)

func testModule() PixelModule {
	return PixelModule{ID: 1, Rows: 160, Cols: 416, PitchRow: 0.100, PitchCol: 0.150}
}

func TestNewClusterizer_KnownMode(t *testing.T) {
	c, err := NewClusterizer(ClusterModeThreshold, DefaultThresholdParams())
	if err != nil {
		t.Fatalf("NewClusterizer failed: %v", err)
	}
	if c == nil {
		t.Fatal("expected non-nil clusterizer")
	}
}

func TestNewClusterizer_UnknownMode(t *testing.T) {
	c, err := NewClusterizer("FancyClusterizer", DefaultThresholdParams())
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if c != nil {
		t.Errorf("expected nil clusterizer, got %T", c)
	}
}

func TestPixelThresholdClusterizer_DefaultParams(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	params := c.GetParams()
	if params.SeedADC != DefaultSeedThresholdADC {
		t.Errorf("SeedADC = %d, want %d", params.SeedADC, DefaultSeedThresholdADC)
	}
	if params.PixelADC != DefaultPixelThresholdADC {
		t.Errorf("PixelADC = %d, want %d", params.PixelADC, DefaultPixelThresholdADC)
	}
	if params.ClusterADC != DefaultClusterThresholdADC {
		t.Errorf("ClusterADC = %d, want %d", params.ClusterADC, DefaultClusterThresholdADC)
	}
}

func TestPixelThresholdClusterizer_SetParams(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	p := ThresholdParams{SeedADC: 500, PixelADC: 100, ClusterADC: 600, NoiseSigmaCut: 2}
	c.SetParams(p)
	if got := c.GetParams(); got != p {
		t.Errorf("GetParams() = %+v, want %+v", got, p)
	}
}

func TestPixelThresholdClusterizer_EmptyInput(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	if got := c.ClusterizeDetUnit(nil, 1, testModule(), nil, nil); got != nil {
		t.Errorf("expected nil for empty input, got %d clusters", len(got))
	}
}

func TestPixelThresholdClusterizer_SingleBlob(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	digis := []PixelDigi{
		{Row: 10, Col: 10, ADC: 1500},
		{Row: 10, Col: 11, ADC: 800},
		{Row: 11, Col: 10, ADC: 700},
	}

	clusters := c.ClusterizeDetUnit(digis, 1, testModule(), nil, nil)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}

	cl := clusters[0]
	if cl.Charge != 3000 {
		t.Errorf("Charge = %d, want 3000", cl.Charge)
	}
	if cl.Size() != 3 {
		t.Errorf("Size() = %d, want 3", cl.Size())
	}
	if cl.MinRow != 10 || cl.MaxRow != 11 || cl.MinCol != 10 || cl.MaxCol != 11 {
		t.Errorf("bounding box = (%d-%d, %d-%d), want (10-11, 10-11)",
			cl.MinRow, cl.MaxRow, cl.MinCol, cl.MaxCol)
	}
	if math.Abs(cl.RowBary-30700.0/3000.0) > 1e-9 {
		t.Errorf("RowBary = %g", cl.RowBary)
	}
	if math.Abs(cl.ColBary-30800.0/3000.0) > 1e-9 {
		t.Errorf("ColBary = %g", cl.ColBary)
	}
}

func TestPixelThresholdClusterizer_DiagonalAdjacency(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	digis := []PixelDigi{
		{Row: 5, Col: 5, ADC: 1500},
		{Row: 6, Col: 6, ADC: 900},
	}

	clusters := c.ClusterizeDetUnit(digis, 1, testModule(), nil, nil)
	if len(clusters) != 1 {
		t.Fatalf("diagonal neighbours should merge, got %d clusters", len(clusters))
	}
	if clusters[0].Size() != 2 {
		t.Errorf("Size() = %d, want 2", clusters[0].Size())
	}
}

func TestPixelThresholdClusterizer_TwoBlobsSorted(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	// Deliberately feed the far blob first; output order must not
	// depend on digi order.
	digis := []PixelDigi{
		{Row: 100, Col: 200, ADC: 1500},
		{Row: 100, Col: 201, ADC: 900},
		{Row: 10, Col: 10, ADC: 1500},
		{Row: 10, Col: 11, ADC: 900},
	}

	clusters := c.ClusterizeDetUnit(digis, 1, testModule(), nil, nil)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].MinRow != 10 || clusters[1].MinRow != 100 {
		t.Errorf("clusters not sorted by MinRow: %d, %d", clusters[0].MinRow, clusters[1].MinRow)
	}
}

func TestPixelThresholdClusterizer_NoSeedNoCluster(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	// All pixels above the pixel threshold but below the seed threshold.
	digis := []PixelDigi{
		{Row: 10, Col: 10, ADC: 900},
		{Row: 10, Col: 11, ADC: 900},
		{Row: 10, Col: 12, ADC: 900},
	}
	if got := c.ClusterizeDetUnit(digis, 1, testModule(), nil, nil); len(got) != 0 {
		t.Errorf("expected no clusters without a seed, got %d", len(got))
	}
}

func TestPixelThresholdClusterizer_ClusterThreshold(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	// Seeded, but total charge below the cluster threshold.
	digis := []PixelDigi{{Row: 10, Col: 10, ADC: 1100}}
	if got := c.ClusterizeDetUnit(digis, 1, testModule(), nil, nil); len(got) != 0 {
		t.Errorf("expected cluster below charge threshold to be dropped, got %d", len(got))
	}
}

func TestPixelThresholdClusterizer_DuplicateDigisAccumulate(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	digis := []PixelDigi{
		{Row: 10, Col: 10, ADC: 800},
		{Row: 10, Col: 10, ADC: 800},
		{Row: 10, Col: 11, ADC: 600},
	}

	clusters := c.ClusterizeDetUnit(digis, 1, testModule(), nil, nil)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Charge != 2200 {
		t.Errorf("Charge = %d, want 2200", clusters[0].Charge)
	}
	if clusters[0].Size() != 2 {
		t.Errorf("Size() = %d, want 2", clusters[0].Size())
	}
}

func TestPixelThresholdClusterizer_BadChannelMasked(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	geom := testModule()
	seed := PixelDigi{Row: 10, Col: 10, ADC: 3000}
	badChannels := []int{seed.Channel(geom.Cols)}

	clusters := c.ClusterizeDetUnit([]PixelDigi{seed}, 1, geom, nil, badChannels)
	if len(clusters) != 0 {
		t.Errorf("masked channel should produce no cluster, got %d", len(clusters))
	}
}

func TestPixelThresholdClusterizer_NoiseCut(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	geom := testModule()
	digi := PixelDigi{Row: 0, Col: 5, ADC: 1400}

	noise := make([]float32, PlaceholderNoiseChannels)
	for i := range noise {
		noise[i] = PlaceholderNoiseADC
	}
	// Hot channel: noise * sigma cut exceeds the digi's ADC.
	noise[digi.Channel(geom.Cols)] = 500

	clusters := c.ClusterizeDetUnit([]PixelDigi{digi}, 1, geom, noise, nil)
	if len(clusters) != 0 {
		t.Errorf("hot channel should be cut, got %d clusters", len(clusters))
	}
}

func TestPixelThresholdClusterizer_OutOfModuleDigiSkipped(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	digis := []PixelDigi{
		{Row: 500, Col: 500, ADC: 3000}, // outside a 160x416 module
	}
	if got := c.ClusterizeDetUnit(digis, 1, testModule(), nil, nil); len(got) != 0 {
		t.Errorf("out-of-module digi should be skipped, got %d clusters", len(got))
	}
}

func TestPixelThresholdClusterizer_Determinism(t *testing.T) {
	c := NewDefaultPixelThresholdClusterizer()
	digis := []PixelDigi{
		{Row: 10, Col: 10, ADC: 1500},
		{Row: 11, Col: 11, ADC: 900},
		{Row: 50, Col: 50, ADC: 2600},
		{Row: 51, Col: 50, ADC: 500},
	}

	first := c.ClusterizeDetUnit(digis, 1, testModule(), nil, nil)
	second := c.ClusterizeDetUnit(digis, 1, testModule(), nil, nil)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated runs differ (-first +second):\n%s", diff)
	}
}

func TestThresholdParamsFromTuning(t *testing.T) {
	p := ThresholdParamsFromTuning(nil)
	if p != DefaultThresholdParams() {
		t.Errorf("nil config should yield defaults, got %+v", p)
	}

	seed := 1200
	sigma := 4.5
	cfg := &config.TuningConfig{SeedThresholdADC: &seed, NoiseSigmaCut: &sigma}
	p = ThresholdParamsFromTuning(cfg)
	if p.SeedADC != 1200 || p.NoiseSigmaCut != 4.5 {
		t.Errorf("overrides not applied: %+v", p)
	}
	if p.PixelADC != DefaultPixelThresholdADC {
		t.Errorf("unset fields should keep defaults: %+v", p)
	}
}

func TestNewClusterizer_ErrorMentionsKnownModes(t *testing.T) {
	_, err := NewClusterizer("nope", DefaultThresholdParams())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), ClusterModeThreshold) {
		t.Errorf("error should name the known modes, got %q", err)
	}
}
