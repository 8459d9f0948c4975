package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"jumpsim/internal/output"
	"jumpsim/internal/sim"
	"jumpsim/pkg/config"
	"jumpsim/pkg/logger"
	"jumpsim/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "config file path (defaults apply when empty)")
	steps := flag.Int("steps", 0, "override run.steps")
	seed := flag.Uint64("seed", 0, "override run.seed")
	out := flag.String("out", "", "override run.output_path")
	jsonl := flag.String("jsonl", "", "also write records as line-delimited JSON")
	replications := flag.Int("replications", 0, "override run.replications")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	applyOverrides(cfg, *steps, *seed, *out, *replications)

	lg, err := logger.New(&logger.Config{
		Level:  cfg.Run.Log.Level,
		Format: cfg.Run.Log.Format,
		Output: "stderr",
	})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	rec := metrics.New()

	if cfg.Run.Replications > 1 {
		runExperiment(cfg, lg, rec)
	} else {
		runSingle(cfg, lg, rec, *jsonl)
	}

	if cfg.Run.MetricsPath != "" {
		if err := rec.WriteTextfile(cfg.Run.MetricsPath); err != nil {
			lg.Error("metrics dump failed", logger.Error(err))
			os.Exit(1)
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

func applyOverrides(cfg *config.Config, steps int, seed uint64, out string, replications int) {
	if steps > 0 {
		cfg.Run.Steps = steps
	}
	if seed != 0 {
		cfg.Run.Seed = seed
	}
	if out != "" {
		cfg.Run.OutputPath = out
	}
	if replications > 0 {
		cfg.Run.Replications = replications
	}
}

func runSingle(cfg *config.Config, lg *logger.Logger, rec *metrics.Recorder, jsonlPath string) {
	sinks := output.MultiSink{}

	csvSink, err := output.NewCSVSink(cfg.Run.OutputPath)
	if err != nil {
		log.Fatalf("output init failed: %v", err)
	}
	sinks = append(sinks, csvSink)

	if jsonlPath != "" {
		jsonlSink, err := output.NewJSONLSink(jsonlPath)
		if err != nil {
			log.Fatalf("output init failed: %v", err)
		}
		sinks = append(sinks, jsonlSink)
	}

	runID := uuid.NewString()[:8]
	s, err := sim.New(cfg,
		sim.WithRunID(runID),
		sim.WithLogger(lg),
		sim.WithMetrics(rec),
		sim.WithSink(sinks),
	)
	if err != nil {
		log.Fatalf("simulation init failed: %v", err)
	}

	if err := s.Run(); err != nil {
		lg.Error("simulation failed", logger.Error(err))
		sinks.Close()
		os.Exit(1)
	}
	if err := sinks.Close(); err != nil {
		lg.Error("output close failed", logger.Error(err))
		os.Exit(1)
	}

	lg.Info("output written", logger.String("path", cfg.Run.OutputPath))
}

func runExperiment(cfg *config.Config, lg *logger.Logger, rec *metrics.Recorder) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exp, err := sim.NewExperiment(cfg,
		sim.WithExperimentLogger(lg),
		sim.WithExperimentMetrics(rec),
	)
	if err != nil {
		log.Fatalf("experiment init failed: %v", err)
	}

	results, err := exp.Run(ctx)
	if err != nil {
		lg.Error("experiment failed", logger.Error(err))
		os.Exit(1)
	}

	for _, r := range results {
		lg.Info("replication complete",
			logger.Int("replication", r.Replication),
			logger.Uint64("seed", r.Seed),
			logger.Float64("final_price", r.Summary.FinalPrice),
			logger.Float64("kurtosis", r.Summary.Kurtosis),
			logger.Float64("jump_frequency", r.Summary.JumpFrequency),
			logger.Int64("halts", r.Summary.HaltCount))
	}
}
