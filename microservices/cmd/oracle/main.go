package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"komisearch/internal/bootstrap"
	"komisearch/internal/usecase/oracle"
	"komisearch/microservices/rpc"
	"komisearch/microservices/usecase"
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

	o, closeOracle, err := oracle.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("failed to open oracle", "error", err)
	}
	defer closeOracle()

	lis, err := net.Listen("tcp", ":"+cfg.OraclePort)
	if err != nil {
		logger.Fatalw("cant listen port", "port", cfg.OraclePort, "error", err)
	}

	server := grpc.NewServer()
	rpc.RegisterOracleServer(server, usecase.NewOracleUseCase(o, logger))

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		logger.Info("Received shutdown signal")
		cancel()
		server.GracefulStop()
	}()

	logger.Infof("starting oracle server at :%s", cfg.OraclePort)
	if err := server.Serve(lis); err != nil {
		logger.Errorw("oracle server stopped", "error", err)
	}
	logger.Infow("katago calls", "calls", o.Calls())
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	return logger.Sugar()
}
