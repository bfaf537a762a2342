package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/config"
	"github.com/mintcrm/console/internal/devapi"
)

func main() {
	if err := run(); err != nil {
		slog.Error("console exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr   = flag.String("addr", ":8080", "listen address (overrides CONSOLE_ADDR)")
		dbPath = flag.String("db", "console.db", "dev backend sqlite path (overrides CONSOLE_DB)")
		dev    = flag.Bool("devapi", false, "serve the built-in dev backend under /api/")
	)
	flag.Parse()

	cfg := config.Load(*addr, *dbPath, *dev)

	mux := http.NewServeMux()

	if cfg.DevAPI {
		db, err := devapi.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open dev database: %w", err)
		}
		defer db.Close()
		if err := devapi.Seed(db); err != nil {
			return fmt.Errorf("seed dev database: %w", err)
		}
		api := devapi.New(db, cfg.JWTSecret)
		mux.Handle("/api/", http.StripPrefix("/api", api.Handler()))
		if os.Getenv("CONSOLE_API_URL") == "" {
			cfg.APIURL = "/api"
		}
		slog.Info("dev backend enabled", "db", cfg.DBPath)
	}

	mux.Handle("/", &app.Handler{
		Name:        "Mint CRM",
		ShortName:   "Mint",
		Description: "Customer relationship console",
		Env: map[string]string{
			"CONSOLE_API_URL": cfg.APIURL,
		},
		Styles: []string{"/web/console.css"},
	})

	slog.Info("console listening", "addr", cfg.Addr, "api", cfg.APIURL)
	return http.ListenAndServe(cfg.Addr, mux)
}
