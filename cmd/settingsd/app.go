package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/nerrad567/settingsd/internal/changefeed"
	"github.com/nerrad567/settingsd/internal/history"
	"github.com/nerrad567/settingsd/internal/infrastructure/config"
	"github.com/nerrad567/settingsd/internal/infrastructure/database"
	"github.com/nerrad567/settingsd/internal/infrastructure/influxdb"
	"github.com/nerrad567/settingsd/internal/infrastructure/logging"
	"github.com/nerrad567/settingsd/internal/infrastructure/mqtt"
	"github.com/nerrad567/settingsd/internal/infrastructure/storage"
	"github.com/nerrad567/settingsd/internal/settings"
	"github.com/nerrad567/settingsd/migrations"
)

// env carries what every command needs.
type env struct {
	cfg    *config.Config
	log    *logging.Logger
	args   []string
	stdout io.Writer
	stderr io.Writer
}

// app is an opened settings store with its history database and, when
// enabled, the MQTT and InfluxDB change feeds.
type app struct {
	store     *settings.Store
	db        *database.DB
	history   *history.SQLiteRepository
	mqtt      *mqtt.Client
	influx    *influxdb.Client
	publisher *changefeed.Publisher
	log       *logging.Logger
}

// openApp opens the history database, registers observers and begins the
// store on the configured medium.
//
// The history recorder and metrics observer are registered before the
// store begins so a bootstrap is recorded. The MQTT publisher is attached
// afterwards; the daemon publishes a full snapshot instead.
//
// Parameters:
//   - ctx: Context for connection setup
//   - e: Command environment
//   - feeds: Connect MQTT and InfluxDB when enabled in the configuration
//
// Returns:
//   - *app: Ready application; the caller must Close it
//   - error: If any required component fails to start
func openApp(ctx context.Context, e *env, feeds bool) (_ *app, err error) {
	cfg, log := e.cfg, e.log
	a := &app{log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.db, err = openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	log.Debug("database connected", "path", cfg.Database.Path)

	if err = a.db.Migrate(ctx, migrations.FS); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	a.history = history.NewSQLiteRepository(a.db.DB)

	a.store = settings.NewStore()
	a.store.SetLogger(log.Component("settings"))
	a.store.AddObserver(history.NewRecorder(a.history, log.Component("history")))

	if feeds && cfg.InfluxDB.Enabled {
		if err = a.connectInflux(ctx, cfg); err != nil {
			return nil, err
		}
	}

	if err = beginStore(a.store, cfg.Storage); err != nil {
		return nil, fmt.Errorf("opening settings: %w", err)
	}
	log.Info("settings ready", "medium", cfg.Storage.Medium, "count", a.store.Count())

	if feeds && cfg.MQTT.Enabled {
		if err = a.connectMQTT(cfg); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// openDatabase opens the history database without migrating it.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// beginStore mounts the configured medium and begins the store on it.
// Flash goes through BeginDefault, which never formats an unmountable
// medium.
func beginStore(store *settings.Store, cfg config.StorageConfig) error {
	volume, err := storage.NewVolume(cfg)
	if err != nil {
		return err
	}

	if cfg.Medium == config.MediumFlash {
		return store.BeginDefault(volume)
	}

	fsys, err := volume.Mount()
	if err != nil {
		return fmt.Errorf("%w: %w", settings.ErrStorageUnavailable, err)
	}
	return store.Begin(fsys, cfg.Path)
}

func (a *app) connectInflux(ctx context.Context, cfg *config.Config) error {
	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
	if err != nil {
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	a.influx = client
	a.influx.SetOnError(func(err error) {
		a.log.Error("InfluxDB write error", "error", err)
	})
	a.store.AddObserver(changefeed.NewMetrics(a.influx, cfg.Device.ID))

	a.log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return nil
}

func (a *app) connectMQTT(cfg *config.Config) error {
	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	a.mqtt = client
	a.mqtt.SetLogger(a.log.Component("mqtt"))
	a.mqtt.SetOnConnect(func() {
		a.log.Info("MQTT reconnected")
	})
	a.mqtt.SetOnDisconnect(func(err error) {
		a.log.Warn("MQTT disconnected", "error", err)
	})

	a.publisher = changefeed.NewPublisher(a.mqtt, a.mqtt.Topics().Setting, a.log.Component("changefeed"))
	a.store.AddObserver(a.publisher)

	a.log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
		"topic_prefix", a.mqtt.Topics().Prefix(),
	)
	return nil
}

// publishSnapshot publishes every setting's current value as retained
// state. No-op without MQTT.
func (a *app) publishSnapshot() error {
	if a.publisher == nil {
		return nil
	}
	descriptors, err := a.store.Descriptors()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	a.publisher.PublishSnapshot(descriptors, time.Now())
	return nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func (a *app) healthCheck(ctx context.Context) error {
	if err := a.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if a.mqtt != nil {
		if err := a.mqtt.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if a.influx != nil {
		if err := a.influx.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// Close releases components in reverse start order.
func (a *app) Close() {
	if a.mqtt != nil {
		if err := a.mqtt.Close(); err != nil {
			a.log.Error("error closing MQTT", "error", err)
		}
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.log.Error("error closing InfluxDB", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("error closing database", "error", err)
		}
	}
}
