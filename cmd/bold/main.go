package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/bol-extractor/internal/app"
	"github.com/joseph-ayodele/bol-extractor/internal/common"
	"github.com/joseph-ayodele/bol-extractor/internal/export"
	"github.com/joseph-ayodele/bol-extractor/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := app.InitDatabase(ctx, cfg.Database, false, logger)
	if err != nil {
		logger.Error("failed to open job log", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	recognizer, err := app.NewRecognizer(cfg, logger)
	if err != nil {
		logger.Error("failed to configure name recognizer", "error", err)
		os.Exit(2)
	}
	engine := app.NewEngine(cfg, recognizer, logger)
	processor := app.NewProcessor(cfg, engine, db.Jobs, logger)

	errCh := make(chan error, 2)

	var httpServer *http.Server
	if cfg.Server.HTTPAddr != "" {
		handler := server.NewHandler(server.Deps{
			Processor:  processor,
			Exporter:   export.NewService(db.Jobs, logger),
			Jobs:       db.Jobs,
			Recognizer: recognizer,
			Health:     db.Health,
		}, cfg.Server, logger)
		httpServer = &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		grpcServer, healthServer := server.NewGRPCServer(server.NewExtractionServer(processor, cfg.Server.MaxUploadMB, logger), logger)
		// Reflection for grpcurl
		reflection.Register(grpcServer)
		go func() {
			logger.Info("grpc listening", "addr", cfg.Server.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
		defer func() {
			healthServer.Shutdown()
			grpcServer.GracefulStop()
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}
}
