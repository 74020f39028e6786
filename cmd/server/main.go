package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"komisearch/internal/adapters"
	"komisearch/internal/bootstrap"
	"komisearch/internal/delivery/analysis"
	"komisearch/internal/repository"
	"komisearch/internal/usecase/estimate"
	"komisearch/internal/usecase/oracle"
	"komisearch/microservices/rpc"
)

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o, closeOracle := initOracle(ctx, cfg, logger)
	defer closeOracle()

	var results analysis.ResultLister
	if cfg.MongoUri != "" {
		mongoAdapter := adapters.NewAdapterMongo(cfg, logger)
		if err := mongoAdapter.Init(ctx); err != nil {
			logger.Fatalw("failed to init mongodb", "error", err)
		}
		defer mongoAdapter.Close(context.Background())
		results = repository.NewResultRepository(logger, mongoAdapter.Database)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	analysis.NewAnalysisHandler(logger, o, results, cfg.Workers).Routes(r)

	srv := &http.Server{Addr: ":" + cfg.ServerPort, Handler: r}
	go handleShutdown(cancel, srv, logger)

	logger.Infof("Server is running on port %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// initOracle dials the oracle service when ORACLE_ADDR is set and opens a local
// oracle otherwise.
func initOracle(ctx context.Context, cfg *bootstrap.Config, log *zap.SugaredLogger) (estimate.Oracle, func() error) {
	if cfg.OracleAddr != "" {
		conn, err := grpc.NewClient(cfg.OracleAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			log.Fatal("Failed to dial grpc", zap.Error(err))
		}
		return oracle.NewRemote(rpc.NewOracleServiceClient(conn)), conn.Close
	}
	o, closer, err := oracle.Open(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open oracle", "error", err)
	}
	return o, closer
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func handleShutdown(cancelFunc context.CancelFunc, srv *http.Server, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server shutdown", "error", err)
	}
}
