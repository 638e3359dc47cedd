package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"ctxmap/internal/config"
	"ctxmap/internal/errors"
	"ctxmap/internal/slogutil"
	"ctxmap/internal/storage"
)

// session carries what every command needs: repo root, validated config
// and a logger.
type session struct {
	repoRoot string
	cfg      *config.Config
	logger   *slog.Logger
	factory  *slogutil.LoggerFactory
}

// newSession loads <repo>/.env, then the configuration, then builds the
// logger from it.
func newSession(repoRoot string, level *slog.Level) (*session, error) {
	if err := godotenv.Load(filepath.Join(repoRoot, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		return nil, errors.NewAnalysisError(errors.InvalidConfig, "failed to load configuration", err,
			errors.GetSuggestedFixes(errors.InvalidConfig))
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewAnalysisError(errors.InvalidConfig, "invalid configuration", err,
			errors.GetSuggestedFixes(errors.InvalidConfig))
	}

	factory := slogutil.NewLoggerFactory(cfg.LoggerSettings(repoRoot), level)
	logger, err := factory.Logger(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &session{
		repoRoot: repoRoot,
		cfg:      cfg,
		logger:   logger,
		factory:  factory,
	}, nil
}

func (s *session) Close() {
	_ = s.factory.Close()
}

// openStore opens the snapshot store configured under storage.
func (s *session) openStore() (*storage.DB, error) {
	return storage.Open(config.Resolve(s.repoRoot, s.cfg.Storage.Path), storage.Options{
		CompressionLevel: s.cfg.Storage.CompressionLevel,
		Logger:           s.logger,
	})
}

// getRepoRoot returns --repo, or the working directory.
func getRepoRoot() (string, error) {
	if repoFlag != "" {
		return filepath.Abs(repoFlag)
	}
	return os.Getwd()
}

// mustSession opens a session for the current flags or exits.
func mustSession() *session {
	repoRoot, err := getRepoRoot()
	if err != nil {
		fail(err)
	}
	s, err := newSession(repoRoot, cliLevel())
	if err != nil {
		fail(err)
	}
	return s
}

// newContext returns a context cancelled on interrupt.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// fail prints err with any suggested fixes and exits.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var aerr *errors.AnalysisError
	if stderrors.As(err, &aerr) {
		fixes := aerr.SuggestedFixes
		if len(fixes) == 0 {
			fixes = errors.GetSuggestedFixes(aerr.Code)
		}
		for _, fix := range fixes {
			switch {
			case fix.Command != "":
				fmt.Fprintf(os.Stderr, "  hint: %s ($ %s)\n", fix.Description, fix.Command)
			case fix.Setting != "":
				fmt.Fprintf(os.Stderr, "  hint: %s (%s)\n", fix.Description, fix.Setting)
			}
		}
	}
	os.Exit(1)
}

// writeOutput formats resp and prints it.
func writeOutput(resp interface{}, format string) {
	output, err := FormatResponse(resp, OutputFormat(format))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}
