package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"thermogrid/internal/config"
	db "thermogrid/internal/db"
	httpapi "thermogrid/internal/httpapi"
	"thermogrid/internal/migrate"
	heatmap "thermogrid/internal/modules/heatmap"
	"thermogrid/internal/modules/heatmap/service"
	heatmapviews "thermogrid/internal/modules/heatmap/views"
	"thermogrid/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"corsOrigins", cfg.CORSOrigins,
		"datasetURL", cfg.DatasetURL,
		"fetchTimeout", cfg.FetchTimeout,
		"cacheDataset", cfg.CacheDataset,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	applied, err := migrate.Run(ctx, dbConn)
	if err != nil {
		return err
	}
	slog.Info("database ready", "migrations_applied", len(applied))

	if err := heatmapviews.LoadTemplates(); err != nil {
		return err
	}

	// A nil *mqtt.Publisher must not end up inside the Announcer interface.
	var announcer service.Announcer
	var publisher *mqtt.Publisher
	if cfg.MQTTEnabled() {
		publisher = mqtt.NewPublisher(cfg, slog.Default())
		announcer = publisher

		// Short timeout so a missing broker does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = publisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	} else {
		slog.Info("mqtt disabled")
	}

	svc := heatmap.NewService(cfg, dbConn, announcer)

	loadCtx, cancelLoad := context.WithCancel(ctx)
	defer cancelLoad()
	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		if err := svc.Load(loadCtx); err != nil {
			slog.Error("dataset load failed", "source", cfg.DatasetURL, "error", err)
		}
	}()

	mux := httpapi.NewMux(dbConn, cfg.StaticDir, func() string { return string(svc.Status()) })
	heatmap.RegisterFeature(mux, svc, httpapi.NewCORS(cfg.CORSOrigins))

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		cancelLoad()
		<-loaded
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http shutting down")
	shutdownErr := srv.Shutdown(shutdownCtx)

	cancelLoad()
	<-loaded

	if publisher != nil {
		slog.Info("mqtt disconnecting")
		publisher.Disconnect()
	}

	if shutdownErr != nil {
		return shutdownErr
	}
	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// Migrate applies pending migrations to the configured database.
func Migrate(ctx context.Context, cfg config.Config) ([]migrate.Migration, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()
	return migrate.Run(ctx, dbConn)
}
