package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Spectrumgrid/grade-pilot/internal/config"
	"github.com/Spectrumgrid/grade-pilot/internal/database"
	"github.com/Spectrumgrid/grade-pilot/internal/logger"
	"github.com/Spectrumgrid/grade-pilot/internal/worker"
)

// sweep-sessions deletes grading sessions older than the retention period
// once and exits. Intended for cron when the server runs without a sweep
// interval.
func main() {
	days := flag.Int("days", 0, "retention in days (defaults to SESSION_RETENTION_DAYS)")
	flag.Parse()

	cfg := config.Load()
	log, closeLog, err := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	retention := cfg.SessionRetention
	if *days > 0 {
		retention = time.Duration(*days) * 24 * time.Hour
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	repo, closeStore, err := database.NewArtifactRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer closeStore()

	removed := worker.NewRetentionWorker(repo, retention, 0, log).Sweep(ctx)
	fmt.Printf("Removed %d expired session(s)\n", removed)
}
