package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/botdash/botdash/internal/api"
	"github.com/botdash/botdash/internal/cache"
	"github.com/botdash/botdash/internal/config"
	"github.com/botdash/botdash/internal/metrics"
	"github.com/botdash/botdash/internal/notify"
	"github.com/botdash/botdash/internal/probe"
	"github.com/botdash/botdash/internal/registry"
	"github.com/botdash/botdash/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file; defaults are used if it does not exist")
	uiDir := flag.String("ui-dir", "", "serve the dashboard UI static files from this directory; leave empty to disable")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("botdash-server starting", "config", *configPath)

	cfg, fromFile, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Server.Level())

	slog.Info("config loaded",
		"from_file", fromFile,
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"log_level", cfg.Server.LogLevel,
		"config_ttl", cfg.Cache.ConfigTTL,
		"notification_ttl", cfg.Cache.NotificationTTL,
		"stream_interval", cfg.Stream.Interval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *configPath, fromFile, *uiDir, level); err != nil {
		slog.Error("botdash-server stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("botdash-server shut down")
}

// loadConfig reads path, falling back to defaults when the file is absent.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		return config.Defaults(), false, nil
	}
	return nil, false, err
}

func run(ctx context.Context, cfg *config.Config, configPath string, watch bool, uiDir string, level *slog.LevelVar) error {
	// One store per record, each with its own TTL. Both live for the
	// lifetime of the process.
	configStore := cache.New[registry.Config](cfg.Cache.ConfigTTL)
	eventStore := cache.New[[]notify.Event](cfg.Cache.NotificationTTL)

	reg := registry.New(configStore)
	notifications := notify.New(eventStore)

	collector := metrics.New(notifications.Len)
	collector.Register("config", configStore)
	collector.Register("notification", eventStore)

	hub := ws.New(reg, notifications, cfg.Stream.Interval)
	apiHandler := api.New(reg, notifications)

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", apiHandler)
	httpMux.Handle("/healthz", apiHandler)
	httpMux.Handle("/metrics", collector)
	httpMux.Handle("/ws/stream", hub)
	if uiDir != "" {
		httpMux.Handle("/", spaHandler(uiDir))
		slog.Info("serving UI static files", "dir", uiDir)
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcLis net.Listener
	if cfg.Server.GRPCPort != 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			return fmt.Errorf("listen on gRPC port %d: %w", cfg.Server.GRPCPort, err)
		}
		grpcLis = lis
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		configStore.Run(gctx)
		return nil
	})
	g.Go(func() error {
		eventStore.Run(gctx)
		return nil
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if grpcLis != nil {
		health := probe.New()
		g.Go(func() error {
			slog.Info("gRPC health listening", "port", cfg.Server.GRPCPort)
			if err := health.Serve(grpcLis); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			health.Shutdown()
			return nil
		})
	}

	if watch {
		g.Go(func() error {
			return config.Watch(gctx, configPath, func(updated *config.Config) {
				level.Set(updated.Server.Level())
				slog.Info("config hot-reloaded", "log_level", updated.Server.LogLevel)
				if updated.Cache != cfg.Cache || updated.Server.HTTPPort != cfg.Server.HTTPPort ||
					updated.Server.GRPCPort != cfg.Server.GRPCPort || updated.Stream != cfg.Stream {
					slog.Warn("config: only server.log_level is applied live; restart to apply other changes")
				}
			})
		})
	}

	<-gctx.Done()
	slog.Info("botdash-server shutting down")
	return g.Wait()
}

// spaHandler serves files from dir and falls back to index.html for unknown
// paths so client-side routing works.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
