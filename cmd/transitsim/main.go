package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/stellarflux/transit-simulator/core"
	"github.com/stellarflux/transit-simulator/internal/logging"
)

func main() {
	scenarioPath := flag.String("scenario", "", "Path to a JSON scenario file (required)")
	format := flag.String("format", "csv", "Output format: csv or json")
	out := flag.String("out", "", "Output path; defaults to stdout")
	workers := flag.Int("workers", 0, "Worker goroutines for batch evaluation; 0 means one per CPU")
	phaseFold := flag.Bool("phase-fold", false, "Emit orbital phase instead of time in the first column")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "usage: transitsim -scenario path/to/scenario.json [-format csv|json] [-out path]")
		os.Exit(2)
	}

	f, err := os.Open(*scenarioPath)
	if err != nil {
		log.Error(ctx, "failed to open scenario", logging.String("path", *scenarioPath), logging.String("error", err.Error()))
		os.Exit(1)
	}
	engine, grid, err := core.LoadScenario(f)
	f.Close()
	if err != nil {
		log.Error(ctx, "failed to load scenario", logging.String("path", *scenarioPath), logging.String("error", err.Error()))
		os.Exit(1)
	}
	if grid == nil {
		log.Error(ctx, "scenario has no grid; add a grid section or explicit times")
		os.Exit(1)
	}
	engine.Workers = *workers

	start := time.Now()
	times := grid.Times()
	flux := engine.LightCurve(times)
	log.Info(ctx, "light curve evaluated",
		logging.Int("samples", len(flux)),
		logging.Float64("period", engine.Orbit.Period),
		logging.Duration("elapsed", time.Since(start)),
	)

	abscissa := times
	label := "time"
	if *phaseFold {
		abscissa, err = grid.PhaseFold(engine.Orbit.T0, engine.Orbit.Period)
		if err != nil {
			log.Error(ctx, "phase fold failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		label = "phase"
	}

	dst := os.Stdout
	if *out != "" {
		dst, err = os.Create(*out)
		if err != nil {
			log.Error(ctx, "failed to create output", logging.String("path", *out), logging.String("error", err.Error()))
			os.Exit(1)
		}
		defer dst.Close()
	}

	switch *format {
	case "csv":
		err = writeCSV(dst, label, abscissa, flux)
	case "json":
		err = writeJSON(dst, label, abscissa, flux)
	default:
		log.Error(ctx, "unknown output format", logging.String("format", *format))
		os.Exit(2)
	}
	if err != nil {
		log.Error(ctx, "failed to write output", logging.String("error", err.Error()))
		os.Exit(1)
	}
}

func writeCSV(dst *os.File, label string, xs, flux []float64) error {
	w := csv.NewWriter(dst)
	if err := w.Write([]string{label, "flux"}); err != nil {
		return err
	}
	for i := range xs {
		rec := []string{
			strconv.FormatFloat(xs[i], 'g', -1, 64),
			strconv.FormatFloat(flux[i], 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(dst *os.File, label string, xs, flux []float64) error {
	enc := json.NewEncoder(dst)
	return enc.Encode(map[string][]float64{label: xs, "flux": flux})
}
