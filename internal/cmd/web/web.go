// Package web parses web command flags and composes the web server.
package web

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	entrypoint "github.com/louisbranch/scopeweb/internal/platform/cmd"
	"github.com/louisbranch/scopeweb/internal/platform/otel"
	"github.com/louisbranch/scopeweb/internal/services/web"
	"github.com/louisbranch/scopeweb/internal/services/web/modules"
	webstorage "github.com/louisbranch/scopeweb/internal/services/web/storage"
	"github.com/louisbranch/scopeweb/internal/services/web/storage/sqlite"
)

// Config holds the web command configuration.
type Config struct {
	HTTPAddr      string `env:"SCOPEWEB_HTTP_ADDR"       envDefault:"localhost:8080"`
	DBPath        string `env:"SCOPEWEB_DB_PATH"         envDefault:"data/scopeweb.db"`
	PublicBaseURL string `env:"SCOPEWEB_PUBLIC_BASE_URL"`
	SessionQueue  int    `env:"SCOPEWEB_SESSION_QUEUE"   envDefault:"64"`
	AppTitle      string `env:"SCOPEWEB_APP_TITLE"`
	Telemetry     otel.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "bookmark SQLite path; empty disables bookmarks")
	fs.StringVar(&cfg.PublicBaseURL, "public-base-url", cfg.PublicBaseURL, "public URL prefix for bookmark links")
	fs.IntVar(&cfg.SessionQueue, "session-queue", cfg.SessionQueue, "pending events per live session")
	fs.StringVar(&cfg.AppTitle, "app-title", cfg.AppTitle, "page title; empty uses the localized default")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.SessionQueue <= 0 {
		return Config{}, fmt.Errorf("session queue must be positive, got %d", cfg.SessionQueue)
	}
	return cfg, nil
}

// Run opens storage, builds the default module application and serves it
// until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, cfg.Telemetry, func(ctx context.Context) error {
		app, err := modules.DefaultApp(cfg.AppTitle)
		if err != nil {
			return fmt.Errorf("compose app: %w", err)
		}

		bookmarks, err := openBookmarks(cfg.DBPath)
		if err != nil {
			return err
		}

		server, err := web.NewServer(web.Config{
			HTTPAddr:      cfg.HTTPAddr,
			App:           app,
			Bookmarks:     bookmarks,
			PublicBaseURL: cfg.PublicBaseURL,
			SessionQueue:  cfg.SessionQueue,
			Logger:        log.Default(),
		})
		if err != nil {
			if bookmarks != nil {
				_ = bookmarks.Close()
			}
			return fmt.Errorf("init web server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve web: %w", err)
		}
		return nil
	})
}

// openBookmarks returns nil when path is empty, which disables bookmarks.
func openBookmarks(path string) (webstorage.BookmarkStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		log.Printf("bookmarks disabled: no db path")
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bookmark dir: %w", err)
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bookmark store: %w", err)
	}
	return store, nil
}
