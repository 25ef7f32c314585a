// Command digi-replay synthesizes pixel digi events, runs them through
// the cluster producer, and persists the resulting clusters. It exists
// to exercise the full reconstruction path without a detector readout:
// tuning studies, store inspection, and occupancy plots all run off
// its output.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/pixel.report/internal/config"
	"github.com/banshee-data/pixel.report/internal/detector"
	"github.com/banshee-data/pixel.report/internal/detector/monitor"
	"github.com/banshee-data/pixel.report/internal/detector/pipeline"
	sqlitestore "github.com/banshee-data/pixel.report/internal/detector/storage/sqlite"
)

func main() {
	var (
		dbPath       = flag.String("db", "clusters.db", "path to the SQLite database")
		configPath   = flag.String("config", "", "path to a tuning config JSON (optional)")
		events       = flag.Int("events", 100, "number of events to synthesize")
		modules      = flag.Int("modules", 24, "number of pixel modules in the synthetic tracker")
		maxHits      = flag.Int("max-hits", 6, "maximum synthesized hits per module per event")
		clusterMode  = flag.String("mode", "", "cluster mode (default: PixelThresholdClusterizer)")
		digiProducer = flag.String("digi-producer", "", "digi source label (default: siPixelDigis)")
		seed         = flag.Int64("seed", 1, "random seed for digi synthesis")
		plotDir      = flag.String("plot-dir", "", "write an occupancy PNG into this directory (optional)")
		listen       = flag.String("listen", "", "serve the monitor on this address after the replay (optional)")
	)
	flag.Parse()

	detector.SetLogWriters(detector.LogWriters{Ops: os.Stderr, Diag: os.Stderr})
	pipeline.SetLogWriters(os.Stderr, os.Stderr)

	var tuning *config.TuningConfig
	if *configPath != "" {
		cfg, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("load tuning config: %v", err)
		}
		tuning = cfg
	} else if cfg, err := config.LoadTuningConfig(config.DefaultConfigPath); err == nil {
		tuning = cfg
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	store, err := sqlitestore.NewClusterStore(db)
	if err != nil {
		log.Fatalf("create cluster store: %v", err)
	}

	stats := detector.NewRecoStats()
	producer := pipeline.NewClusterProducer(pipeline.Config{
		DigiProducer: *digiProducer,
		ClusterMode:  *clusterMode,
		Tuning:       tuning,
		Stats:        stats,
	})
	if !producer.Ready() {
		log.Fatalf("cluster mode %q is not recognized", producer.ClusterMode())
	}

	geo := syntheticTracker(*modules)

	runID, err := store.BeginRun(producer.ClusterMode())
	if err != nil {
		log.Fatalf("begin run: %v", err)
	}
	log.Printf("reco run %s: %d events, %d modules, source %q", runID, *events, *modules, producer.DigiProducer())

	rng := rand.New(rand.NewSource(*seed))
	for ev := 0; ev < *events; ev++ {
		input := synthesizeEvent(rng, *modules, *maxHits)
		output, _, err := producer.Run(input, geo)
		if err != nil {
			log.Printf("event %d aborted: %v", ev, err)
			continue
		}
		if err := store.InsertEventClusters(runID, int64(ev), output); err != nil {
			log.Fatalf("persist event %d: %v", ev, err)
		}
	}

	evCount, unitCount, clusterCount := stats.Snapshot()
	if err := store.FinishRun(runID, evCount, unitCount, clusterCount); err != nil {
		log.Fatalf("finish run: %v", err)
	}
	log.Printf("reco run %s done: %d events, %d det units, %d clusters", runID, evCount, unitCount, clusterCount)

	if *plotDir != "" {
		counts, err := store.ClustersPerDetUnit(runID)
		if err != nil {
			log.Fatalf("load occupancy: %v", err)
		}
		plotter, err := monitor.NewOccupancyPlotter(*plotDir)
		if err != nil {
			log.Fatalf("create plotter: %v", err)
		}
		path, err := plotter.PlotRun(runID, counts)
		if err != nil {
			log.Fatalf("plot occupancy: %v", err)
		}
		log.Printf("occupancy plot written to %s", path)
	}

	if *listen != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ws := monitor.NewWebServer(monitor.WebServerConfig{Address: *listen, Stats: stats, Store: store})
		log.Printf("monitor listening on %s (Ctrl-C to stop)", *listen)
		if err := ws.Start(ctx); err != nil {
			log.Fatalf("monitor server: %v", err)
		}
	}
}

// syntheticTracker builds a geometry snapshot of identical pixel
// modules with ids starting at 100. Dimensions match a full pixel
// module: 160 x 416 pixels at 100 x 150 um pitch.
func syntheticTracker(modules int) *detector.TrackerGeometry {
	units := make([]detector.GeomDetUnit, 0, modules)
	for i := 0; i < modules; i++ {
		units = append(units, detector.PixelModule{
			ID:       detector.DetUnitID(100 + i),
			Rows:     160,
			Cols:     416,
			PitchRow: 0.100,
			PitchCol: 0.150,
		})
	}
	return detector.NewTrackerGeometry(units...)
}

// synthesizeEvent builds one event's digi collection. Each module gets
// a random number of hits, each hit a small blob of adjacent pixels.
// Some modules appear with an empty run to mimic suppressed readout.
func synthesizeEvent(rng *rand.Rand, modules, maxHits int) *detector.DigiCollection {
	input := detector.NewDigiCollection()
	for i := 0; i < modules; i++ {
		id := detector.DetUnitID(100 + i)
		nHits := rng.Intn(maxHits + 1)
		if nHits == 0 {
			// One in ten empty modules still ships an empty run.
			if rng.Intn(10) == 0 {
				input.Insert(id, nil)
			}
			continue
		}
		var digis []detector.PixelDigi
		for h := 0; h < nHits; h++ {
			row := 1 + rng.Intn(158)
			col := 1 + rng.Intn(414)
			adc := int32(1200 + rng.Intn(2000))
			digis = append(digis, detector.PixelDigi{Row: row, Col: col, ADC: adc})
			// Charge sharing into up to two neighbours.
			for n := 0; n < rng.Intn(3); n++ {
				digis = append(digis, detector.PixelDigi{
					Row: row + rng.Intn(2),
					Col: col + rng.Intn(2),
					ADC: int32(500 + rng.Intn(800)),
				})
			}
		}
		input.Insert(id, digis)
	}
	return input
}
