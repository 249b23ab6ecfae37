package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bidindex/pkg/api"
	"bidindex/pkg/common"
	"bidindex/pkg/config"
	"bidindex/pkg/core"
	"bidindex/pkg/logging"
	"bidindex/pkg/network"
	"bidindex/pkg/source"
	"bidindex/pkg/storage"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (default: configs/bidindex.yaml)")
	preload := flag.Bool("preload", true, "load source.csv_path at startup")
	flag.Parse()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logging.Component("server")

	session := core.NewSession(cfg)
	log.Info("session created", "session_id", session.ID(), "backend", string(session.Backend()))

	if *preload && cfg.Source.CSVPath != "" {
		preloadCSV(session, cfg, log)
	}

	var store storage.Backend
	if cfg.Storage.Path != "" {
		b, err := storage.NewSQLiteBackend(cfg.Storage.Path)
		if err != nil {
			log.Error("storage disabled", "error", err)
		} else {
			store = b
			defer b.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	var tcp *network.TCPServer
	if cfg.Server.TCPAddr != "" {
		tcp = network.NewTCPServer(session)
		go func() { errCh <- tcp.Start(cfg.Server.TCPAddr) }()
	}

	var web *api.Server
	if cfg.Server.Addr != "" {
		web = api.NewServer(session, cfg, store)
		go func() {
			if err := web.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if web != nil {
		if err := web.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", "error", err)
		}
	}
	if tcp != nil {
		tcp.Close()
	}
	session.Reset()
}

func preloadCSV(session *core.Session, cfg *config.Config, log *slog.Logger) {
	policy, _ := common.ParsePolicy(cfg.Source.DuplicatePolicy)
	src, err := source.Open(cfg.Source.CSVPath, cfg.Source.CurrencySymbol)
	if err != nil {
		log.Warn("preload skipped", "path", cfg.Source.CSVPath, "error", err)
		return
	}
	defer src.Close()

	res, err := session.Load(context.Background(), src, policy)
	if err != nil {
		log.Error("preload failed", "path", cfg.Source.CSVPath, "error", err)
		return
	}
	log.Info("preloaded bids", "path", cfg.Source.CSVPath, "records", res.Inserted, "elapsed", res.Elapsed)
}
