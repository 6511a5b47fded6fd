package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/stgmed/assistant/internal/bridge"
	"github.com/stgmed/assistant/internal/config"
	"github.com/stgmed/assistant/internal/service"
	"github.com/stgmed/assistant/internal/store"
	transport "github.com/stgmed/assistant/internal/transport/http"
	"github.com/stgmed/assistant/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load("./configs/config.yaml")
	if err != nil {
		log.Fatal("failed to load configuration", err)
	}

	log.Init(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	log.Infof("starting assistant backend on port %d (store driver: %s)", cfg.Server.Port, cfg.Store.Driver)

	// Initialize store
	var db store.Store
	switch cfg.Store.Driver {
	case "sqlite":
		db, err = store.NewSQLiteStore(cfg.Store.DSN)
		if err != nil {
			log.Fatal("failed to initialize store", err)
		}
	default:
		db = store.NewMemoryStore()
	}
	defer db.Close()

	// Initialize process bridge over the computation units
	br := bridge.New(map[string]bridge.Unit{
		bridge.UnitRAG:       {Command: cfg.Bridge.Python, Args: []string{filepath.Join(cfg.Bridge.ScriptsDir, "rag_service.py")}},
		bridge.UnitCaseStudy: {Command: cfg.Bridge.Python, Args: []string{filepath.Join(cfg.Bridge.ScriptsDir, "case_study_service.py")}},
		bridge.UnitDocProc:   {Command: cfg.Bridge.Python, Args: []string{filepath.Join(cfg.Bridge.ScriptsDir, "simple_document_processor.py")}},
	}, cfg.Bridge.Timeout)

	// Initialize service and HTTP server
	svc := service.New(db, br)
	e := transport.NewServer(svc)

	// One-shot document preprocessing in the background; serving never
	// waits on it.
	docCtx, cancelDoc := context.WithCancel(context.Background())
	defer cancelDoc()
	go preprocessDocuments(docCtx, br, cfg)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", err)
	}

	log.Info("server stopped")
}

// preprocessDocuments runs the document processor once if its output is not
// already present. Idempotent across restarts: the unit writes the chunks
// file the rag unit reads.
func preprocessDocuments(ctx context.Context, inv bridge.Invoker, cfg *config.Config) {
	chunksFile := filepath.Join(cfg.Bridge.ScriptsDir, "processed_chunks.json")
	if _, err := os.Stat(chunksFile); err == nil {
		log.Info("document chunks already processed")
		return
	}

	log.Infof("processing source document %s", cfg.Bridge.DocumentPath)
	if _, err := inv.Invoke(ctx, bridge.UnitDocProc, cfg.Bridge.DocumentPath); err != nil {
		// The processor reports progress as plain text rather than JSON;
		// a clean exit is what counts here.
		var bErr *bridge.Error
		if !errors.As(err, &bErr) || bErr.Kind != bridge.KindParseFailure {
			log.Error("document processing failed", err)
			return
		}
	}
	log.Info("document processing completed")
}
