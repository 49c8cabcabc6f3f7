// Command ragtutor-ingest indexes PDF and text files into the configured vector store.
//
//	ENV=local ragtutor-ingest data/iesc111.pdf data/iesc112.pdf
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragtutor/internal/app"
	"github.com/kailas-cloud/ragtutor/internal/config"
	logpkg "github.com/kailas-cloud/ragtutor/internal/logger"
	ingestuc "github.com/kailas-cloud/ragtutor/internal/usecase/ingest"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s FILE...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := run(ctx, cfg, logger, flag.Args())
	if err != nil {
		logger.Error("Ingestion failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Printf("%d chunks indexed\n", n)
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, paths []string) (int, error) {
	files, err := filesFromArgs(paths)
	if err != nil {
		return 0, err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return 0, fmt.Errorf("initialise: %w", err)
	}
	defer a.Close()

	svc, err := a.Ingest()
	if err != nil {
		return 0, err
	}

	n, err := svc.IndexFiles(ctx, files)
	if err != nil {
		return 0, fmt.Errorf("index files: %w", err)
	}
	return n, nil
}

// filesFromArgs rejects unsupported extensions before any connection is made.
func filesFromArgs(paths []string) ([]ingestuc.File, error) {
	files := make([]ingestuc.File, 0, len(paths))
	for _, p := range paths {
		if !ingestuc.Supported(p) {
			return nil, fmt.Errorf("%s: only .pdf and .txt files can be indexed", p)
		}
		files = append(files, ingestuc.File{Path: p})
	}
	return files, nil
}
