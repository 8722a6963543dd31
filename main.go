package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/scandock/scandock/internal/config"
	"github.com/scandock/scandock/internal/ocr"
	"github.com/scandock/scandock/internal/server"
	"github.com/scandock/scandock/internal/storage"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// DefaultMemoryLimit is the default soft memory limit (2GB). Image decoding
// and PDF composition are the main consumers.
const DefaultMemoryLimit = 2 * 1024 * 1024 * 1024

// setMemoryLimit configures the Go runtime's soft memory limit, overridable
// via SCANDOCK_MEMORY_LIMIT (bytes).
func setMemoryLimit() {
	var memLimit int64 = DefaultMemoryLimit
	if memLimitStr := os.Getenv("SCANDOCK_MEMORY_LIMIT"); memLimitStr != "" {
		if parsed, err := strconv.ParseInt(memLimitStr, 10, 64); err == nil && parsed > 0 {
			memLimit = parsed
		}
	}
	debug.SetMemoryLimit(memLimit)
}

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	setMemoryLimit()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetLevel(config.ParseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	app := &cli.App{
		Name:    "scandock",
		Usage:   "Document scan transform service: OCR, PDF composition and exports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				EnvVars: []string{config.PortEnvVar},
			},
			&cli.StringFlag{
				Name:    "upload-dir",
				Usage:   "Directory for staging uploaded files",
				EnvVars: []string{config.UploadDirEnvVar},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(c *cli.Context) error {
					fmt.Printf("scandock version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
		},
		Action: func(c *cli.Context) error {
			return run(ctx, c, logger)
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.WithError(err).Fatal("Server exited with error")
	}
}

func run(ctx context.Context, c *cli.Context, logger *logrus.Logger) error {
	cfg := config.Load()
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("upload-dir") {
		cfg.UploadDir = c.String("upload-dir")
	}

	if err := os.MkdirAll(cfg.UploadDir, 0700); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	store := storage.NewMemory()
	engine := ocr.NewTesseract(cfg.OCRLanguages...)
	srv := server.New(cfg, logger, store, engine)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"port":       cfg.Port,
			"upload_dir": cfg.UploadDir,
			"ocr_engine": engine.Name(),
		}).Info("scandock listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
