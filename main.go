package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ghg-data/inventory.report/internal/api"
	"github.com/ghg-data/inventory.report/internal/config"
	"github.com/ghg-data/inventory.report/internal/db"
	"github.com/ghg-data/inventory.report/internal/inventory"
	"github.com/ghg-data/inventory.report/internal/schema"
	"github.com/ghg-data/inventory.report/internal/version"
)

var (
	listen      = flag.String("listen", "", "Listen address (overrides config)")
	dbPath      = flag.String("db", "", "Path to the sqlite database (overrides config)")
	formsDir    = flag.String("forms", "", "Path to the form schema directory (overrides config)")
	configPath  = flag.String("config", "", "Path to a JSON settings file")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

// Main
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("inventory.report %s\n", version.String())
		return
	}

	cfg := config.EmptyAppConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	addr := cfg.GetListenAddr()
	if *listen != "" {
		addr = *listen
	}
	dbFile := cfg.GetDatabasePath()
	if *dbPath != "" {
		dbFile = *dbPath
	}
	forms := cfg.GetFormsDir()
	if *formsDir != "" {
		forms = *formsDir
	}

	database, err := db.NewDB(dbFile)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()

	formDir, err := schema.OpenDir(forms)
	if err != nil {
		log.Fatalf("failed to load form schemas: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		srv := api.NewServer(database, inventory.Default(), formDir, nil,
			cfg.GetBaselineYear(), cfg.GetCollationSpanYears())
		server := &http.Server{
			Addr:         addr,
			Handler:      api.LoggingMiddleware(srv.ServeMux()),
			ReadTimeout:  cfg.GetReadTimeout(),
			WriteTimeout: cfg.GetWriteTimeout(),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("listening on %s", addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("graceful shutdown complete")
}
