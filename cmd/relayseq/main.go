// Relay Sequencer - multi-channel relay switching daemon
//
// This is the main entry point for the relay sequencer. It drives an
// 8-channel serial relay board through timed switching sequences described
// as recursive waveforms, and exposes run control over HTTP and MQTT.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/relay-sequencer/migrations"

	"github.com/nerrad567/relay-sequencer/internal/api"
	"github.com/nerrad567/relay-sequencer/internal/engine"
	"github.com/nerrad567/relay-sequencer/internal/history"
	"github.com/nerrad567/relay-sequencer/internal/infrastructure/config"
	"github.com/nerrad567/relay-sequencer/internal/infrastructure/database"
	"github.com/nerrad567/relay-sequencer/internal/infrastructure/influxdb"
	"github.com/nerrad567/relay-sequencer/internal/infrastructure/logging"
	"github.com/nerrad567/relay-sequencer/internal/infrastructure/mqtt"
	"github.com/nerrad567/relay-sequencer/internal/preset"
	"github.com/nerrad567/relay-sequencer/internal/relay"
	"github.com/nerrad567/relay-sequencer/internal/schedule"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting relay sequencer",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	historyRepo := history.NewSQLiteRepository(db.DB)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
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
		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
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
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the execution engine over the relay controller
	eng := buildEngine(cfg, log, historyRepo, mqttClient, influxClient)

	// Preset library
	var presetStore *preset.Store
	if cfg.Presets.Dir != "" {
		presetStore = preset.NewStore(cfg.Presets.Dir)
		log.Info("preset library enabled", "dir", cfg.Presets.Dir)
	}

	// Subscribe to MQTT run commands
	if mqttClient != nil {
		if err := subscribeRunCommands(ctx, mqttClient, eng, presetStore, cfg, log); err != nil {
			return fmt.Errorf("subscribing to run commands: %w", err)
		}
		publishStatus(mqttClient, eng, cfg, log)
	}

	// Start HTTP API
	apiDeps := api.Deps{
		Config:  cfg.API,
		Logger:  log.With("component", "api"),
		Engine:  eng,
		History: historyRepo,
		Version: version,
	}
	if presetStore != nil {
		// Assign only when non-nil so the server's nil check sees a nil
		// interface, not a typed nil pointer.
		apiDeps.Presets = presetStore
	}
	apiServer, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Cancel any active run so the board is reset before the process exits.
	if eng.Stop() {
		waitForIdle(eng, 5*time.Second)
	}

	log.Info("relay sequencer stopped")
	return nil
}

// buildEngine wires the engine to the relay controller and attaches the
// telemetry and persistence hooks.
func buildEngine(cfg *config.Config, log *logging.Logger, historyRepo history.Repository, mqttClient *mqtt.Client, influxClient *influxdb.Client) *engine.Engine {
	relayLogger := log.With("component", "relay")
	opener := engine.OpenerFunc(func(_ context.Context) (engine.Sink, error) {
		return relay.Open(relay.Config{
			Port:     cfg.Serial.Port,
			BaudRate: cfg.Serial.BaudRate,
			DryRun:   cfg.Serial.DryRun,
		}, relayLogger)
	})

	eng := engine.New(opener, engine.Config{Unit: cfg.Engine.TimeUnit}, log.With("component", "engine"))

	eng.SetOnEvent(func(runID string, ev schedule.Event) {
		if influxClient != nil {
			influxClient.WriteSwitchEvent(runID, ev.Name, ev.Channel, ev.State)
		}
		if mqttClient != nil {
			payload, err := json.Marshal(map[string]any{
				"run_id":    runID,
				"name":      ev.Name,
				"channel":   ev.Channel,
				"state":     ev.State,
				"timestamp": ev.Timestamp,
			})
			if err == nil {
				//nolint:errcheck // event publishing is best-effort telemetry
				mqttClient.Publish(mqtt.Topics{}.RunEvent(), payload, byte(cfg.MQTT.QoS), false)
			}
		}
	})

	eng.SetOnComplete(func(res engine.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := historyRepo.Record(ctx, res); err != nil {
			log.Error("recording run history", "run_id", res.RunID, "error", err)
		}

		if influxClient != nil {
			influxClient.WriteRunResult(res.RunID, string(res.Outcome),
				res.EventsDispatched, res.EventsTotal,
				res.CompletedAt.Sub(res.StartedAt))
		}

		if mqttClient != nil {
			if payload, err := json.Marshal(res); err == nil {
				//nolint:errcheck // result publishing is best-effort telemetry
				mqttClient.Publish(mqtt.Topics{}.RunResult(), payload, byte(cfg.MQTT.QoS), false)
			}
			publishStatus(mqttClient, eng, cfg, log)
		}
	})

	return eng
}

// runCommand is the payload accepted on the run command topic.
//
// Either Config or Preset selects the run; Action is "start" or "stop".
type runCommand struct {
	Action string          `json:"action"`
	Config json.RawMessage `json:"config,omitempty"`
	Preset string          `json:"preset,omitempty"`
}

// subscribeRunCommands wires the MQTT command topic to the engine.
func subscribeRunCommands(ctx context.Context, mqttClient *mqtt.Client, eng *engine.Engine, presetStore *preset.Store, cfg *config.Config, log *logging.Logger) error {
	topic := mqtt.Topics{}.RunCommand()
	//nolint:gosec // QoS is validated by config (0..2)
	return mqttClient.Subscribe(topic, byte(cfg.MQTT.QoS), func(_ string, payload []byte) error {
		var cmd runCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("parsing run command: %w", err)
		}

		switch cmd.Action {
		case "start":
			runCfg, err := resolveRunConfig(cmd, presetStore)
			if err != nil {
				return err
			}
			runID, err := eng.Start(ctx, *runCfg)
			if err != nil {
				return fmt.Errorf("starting run: %w", err)
			}
			log.Info("run started via MQTT", "run_id", runID)
		case "stop":
			eng.Stop()
		default:
			return fmt.Errorf("unknown run command action %q", cmd.Action)
		}

		publishStatus(mqttClient, eng, cfg, log)
		return nil
	})
}

// resolveRunConfig extracts the run configuration from a start command,
// from either the inline document or the named preset.
func resolveRunConfig(cmd runCommand, presetStore *preset.Store) (*schedule.RunConfig, error) {
	if cmd.Preset != "" {
		if presetStore == nil {
			return nil, fmt.Errorf("preset library is not enabled")
		}
		return presetStore.Load(cmd.Preset)
	}
	if len(cmd.Config) == 0 {
		return nil, fmt.Errorf("start command needs a config or a preset")
	}
	return schedule.Parse(cmd.Config)
}

// publishStatus publishes the current engine snapshot, retained so late
// subscribers see the current state immediately.
func publishStatus(mqttClient *mqtt.Client, eng *engine.Engine, cfg *config.Config, log *logging.Logger) {
	payload, err := json.Marshal(eng.Status())
	if err != nil {
		return
	}
	//nolint:gosec // QoS is validated by config (0..2)
	if err := mqttClient.Publish(mqtt.Topics{}.RunStatus(), payload, byte(cfg.MQTT.QoS), true); err != nil {
		log.Warn("publishing run status", "error", err)
	}
}

// waitForIdle polls the engine until the active run winds down or the
// timeout expires. Used only during shutdown.
func waitForIdle(eng *engine.Engine, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if eng.Status().State == engine.StateIdle {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// getConfigPath returns the configuration file path.
// Uses RELAYSEQ_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RELAYSEQ_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
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
