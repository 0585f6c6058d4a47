// Gray Logic Motion - Animation Orchestration Engine
//
// motiond runs the animation engine against a stage described in YAML,
// records every coordinator outcome in SQLite, accepts navigation commands
// over MQTT and exposes a read-only HTTP/WebSocket introspection API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-motion/migrations"

	"github.com/nerrad567/gray-logic-motion/internal/api"
	"github.com/nerrad567/gray-logic-motion/internal/bridge"
	"github.com/nerrad567/gray-logic-motion/internal/coordinator"
	"github.com/nerrad567/gray-logic-motion/internal/engine"
	"github.com/nerrad567/gray-logic-motion/internal/history"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-motion/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-motion/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-motion/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-motion/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-motion/internal/perf"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	// defaultConfigPath is used when MOTION_CONFIG is unset.
	defaultConfigPath = "configs/config.yaml"

	// historyRetention is how long execution records are kept.
	historyRetention = 30 * 24 * time.Hour
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application lifecycle, separated from main for testability.
// It returns nil on a clean, signal-driven shutdown.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting Gray Logic Motion",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	stage, err := host.LoadStage(cfg.Stage.Path)
	if err != nil {
		return fmt.Errorf("loading stage: %w", err)
	}
	log.Info("stage loaded", "path", cfg.Stage.Path)

	// Database
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	executions := history.NewSQLiteRepository(db.DB)
	if pruned, pruneErr := executions.Prune(ctx, time.Now().Add(-historyRetention)); pruneErr != nil {
		log.Warn("pruning execution history failed", "error", pruneErr)
	} else if pruned > 0 {
		log.Info("pruned execution history", "removed", pruned)
	}

	// Engine
	eng, err := engine.New(engineConfig(cfg), stage, log.With("component", "engine"))
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	out := &sinks{history: executions, log: log}

	// MQTT (optional)
	var mqttClient *mqtt.Client
	var br *bridge.Bridge
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() { log.Info("MQTT connected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		var brErr error
		br, brErr = bridge.New(bridge.Options{
			MQTTClient:      mqttClient,
			Executor:        eng.Coordinator(),
			QoS:             byte(cfg.MQTT.QoS), //nolint:gosec // validated to 0..2
			MirrorMutations: cfg.MQTT.MirrorMutations,
			Logger:          log.With("component", "bridge"),
		})
		if brErr != nil {
			return fmt.Errorf("creating MQTT bridge: %w", brErr)
		}
		if startErr := br.Start(); startErr != nil {
			return fmt.Errorf("starting MQTT bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping MQTT bridge")
			br.Stop()
		}()
		out.bridge = br
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		out.influx = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// API (optional)
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:  cfg.API,
			WS:      cfg.WebSocket,
			Logger:  log.With("component", "api"),
			Engine:  eng,
			History: executions,
			DB:      db,
			Version: version,
		}
		if mqttClient != nil {
			deps.MQTT = mqttClient
		}
		if br != nil {
			deps.Bridge = br
		}
		srv, srvErr := api.New(deps)
		if srvErr != nil {
			return fmt.Errorf("creating API server: %w", srvErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		out.hub = srv.Hub()
	} else {
		log.Info("API disabled")
	}

	out.attach(eng)

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Run the engine until the shutdown signal. Run clears the queue and
	// stops fallback timers before returning.
	engineErr := make(chan error, 1)
	go func() { engineErr <- eng.Run(ctx) }()

	log.Info("initialisation complete, waiting for shutdown signal")

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
		if err := <-engineErr; err != nil {
			log.Error("engine stopped with error", "error", err)
		}
	case err := <-engineErr:
		if err != nil {
			return fmt.Errorf("engine: %w", err)
		}
	}

	log.Info("Gray Logic Motion stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MOTION_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MOTION_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// engineConfig maps file configuration onto the engine's components.
func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		FrameInterval:   cfg.FrameInterval(),
		ReducedMotion:   cfg.Stage.ReducedMotion,
		DefaultVariants: cfg.Effects.DefaultVariants,
		Coordinator: coordinator.Config{
			MaxRetries:    cfg.Coordinator.MaxRetries,
			RetryBackoff:  cfg.GetRetryBackoff(),
			RetryInterval: cfg.GetRetryInterval(),
			SuccessWindow: cfg.Coordinator.SuccessWindow,
			HighlightHold: cfg.GetHighlightHold(),
		},
		Perf: perf.Config{
			FPSFloor:       cfg.Engine.FPSFloor,
			CPUCeiling:     cfg.Engine.CPUCeiling,
			SampleInterval: cfg.GetSampleInterval(),
		},
	}
}

// healthCheck verifies every enabled infrastructure connection.
// mqttClient and influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
