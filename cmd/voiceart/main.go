package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/satindergrewal/voiceart/internal/audio"
	"github.com/satindergrewal/voiceart/internal/capture"
	"github.com/satindergrewal/voiceart/internal/config"
	"github.com/satindergrewal/voiceart/internal/features"
	"github.com/satindergrewal/voiceart/internal/history"
	"github.com/satindergrewal/voiceart/internal/logger"
	"github.com/satindergrewal/voiceart/internal/ollama"
	"github.com/satindergrewal/voiceart/internal/pipeline"
	"github.com/satindergrewal/voiceart/internal/recordings"
	"github.com/satindergrewal/voiceart/internal/server"
	"github.com/satindergrewal/voiceart/internal/stability"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("voiceart stopped", "error", err)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("voiceart starting up...")

	store, err := recordings.New(cfg.AudioDir)
	if err != nil {
		return err
	}

	hist, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer hist.Close()

	srv := &server.Server{
		Analyzer:   &pipeline.Analyzer{AnalysisRate: cfg.AnalysisSampleRate, Features: features.DefaultConfig()},
		Recordings: store,
		History:    hist,
		Images:     stability.NewClient(cfg.Stability.APIURL, cfg.Stability.APIKey, cfg.Stability.Engine, log.With("component", "stability")),
		ImageParams: stability.GenerateRequest{
			Seed:     cfg.Stability.Seed,
			Steps:    cfg.Stability.Steps,
			CFGScale: cfg.Stability.CFGScale,
			Width:    cfg.Stability.Width,
			Height:   cfg.Stability.Height,
			Samples:  cfg.Stability.Samples,
		},
		Log: log.With("component", "http"),
	}
	if cfg.Stability.APIKey == "" {
		log.Warn("STABILITY_API_KEY not set, image generation will be refused")
	}

	srv.Capture = capture.NewHandler(ctx, cfg.CaptureDuration,
		func(ctx context.Context, id string, clip audio.Clip) (string, error) {
			rec, err := store.Save(clip)
			if err != nil {
				return "", err
			}
			return rec.Name, nil
		},
		log.With("component", "capture"))

	// Ollama LLM (optional -- polishes composed prompts)
	if cfg.OllamaURL != "" {
		client := ollama.NewClient(cfg.OllamaURL, cfg.OllamaModel, log.With("component", "ollama"))
		readyCtx, readyCancel := context.WithTimeout(ctx, 30*time.Second)
		if client.WaitForReady(readyCtx) {
			srv.Refiner = ollama.NewRefiner(client, log.With("component", "refine"))
			log.Info("ollama connected, prompt refinement enabled", "model", cfg.OllamaModel)
		} else {
			log.Warn("ollama not available, using composed prompts")
		}
		readyCancel()
	} else {
		log.Info("ollama not configured (set OLLAMA_URL to enable prompt refinement)")
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{Addr: addr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		store.RunSweeper(gctx, cfg.SweepInterval, cfg.RetentionMaxAge, log.With("component", "sweeper"))
		return nil
	})
	g.Go(func() error {
		log.Info("voiceart live", "addr", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
