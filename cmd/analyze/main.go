package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"komisearch/internal/adapters"
	"komisearch/internal/bootstrap"
	"komisearch/internal/report"
	"komisearch/internal/repository"
	"komisearch/internal/usecase/estimate"
	"komisearch/internal/usecase/oracle"
	"komisearch/internal/usecase/search"
	"komisearch/microservices/rpc"
)

const reportTitle = "KataGo komi estimates"

func main() {
	logger := NewLogger()

	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go handleShutdown(cancel, logger)

	err = run(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Errorw("search failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run searches every configured position set. Rows flushed before a failure
// stay in the CSV and the results database; the reports are only written after
// a complete search.
func run(ctx context.Context, cfg *bootstrap.Config, logger *zap.SugaredLogger) error {
	sizes, err := cfg.Sizes()
	if err != nil {
		return err
	}

	o, closeOracle, err := openOracle(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open oracle: %w", err)
	}
	defer closeOracle()

	csvFile, err := os.Create(cfg.OutputCsv)
	if err != nil {
		return fmt.Errorf("failed to create csv output: %w", err)
	}
	defer csvFile.Close()
	csvOut, err := report.NewCSVWriter(csvFile)
	if err != nil {
		return err
	}
	sinks := []search.RowSink{csvOut}

	if cfg.MongoUri != "" {
		mongoAdapter := adapters.NewAdapterMongo(cfg, logger)
		if err := mongoAdapter.Init(ctx); err != nil {
			return err
		}
		defer mongoAdapter.Close(context.Background())
		sinks = append(sinks, search.SaverSink{Saver: repository.NewResultRepository(logger, mongoAdapter.Database)})
	}

	rows, err := search.NewDriver(o, logger, cfg.Workers, sizes, sinks...).Run(ctx)
	if err != nil {
		return fmt.Errorf("search stopped after %d rows: %w", len(rows), err)
	}

	tables := report.BuildTables(rows)
	if err := writeFile(cfg.OutputReport, func(f *os.File) error {
		return report.WriteMarkdown(f, reportTitle, tables)
	}); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if cfg.OutputPdf != "" {
		if err := writeFile(cfg.OutputPdf, func(f *os.File) error {
			return report.WritePDF(f, reportTitle, tables)
		}); err != nil {
			return fmt.Errorf("failed to write pdf report: %w", err)
		}
	}
	logger.Infow("search finished", "rows", len(rows), "csv", cfg.OutputCsv, "report", cfg.OutputReport)
	return nil
}

// openOracle prefers the remote oracle service when ORACLE_ADDR is set.
func openOracle(ctx context.Context, cfg *bootstrap.Config, log *zap.SugaredLogger) (estimate.Oracle, func() error, error) {
	if cfg.OracleAddr == "" {
		o, closer, err := oracle.Open(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return o, closer, nil
	}
	conn, err := grpc.NewClient(cfg.OracleAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	log.Infow("using oracle service", "addr", cfg.OracleAddr)
	return oracle.NewRemote(rpc.NewOracleServiceClient(conn)), conn.Close, nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return errors.Join(write(f), f.Close())
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
