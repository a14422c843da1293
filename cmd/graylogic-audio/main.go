// Gray Logic Audio - multi-room speaker control service
//
// This is the main entry point for the Gray Logic Audio service. It finds
// the speakers on the local network, then exposes group-wide and
// per-speaker volume and transport control over HTTP, WebSocket and MQTT.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-audio/migrations"

	"github.com/nerrad567/gray-logic-audio/internal/api"
	"github.com/nerrad567/gray-logic-audio/internal/audit"
	"github.com/nerrad567/gray-logic-audio/internal/bridges/sonos"
	"github.com/nerrad567/gray-logic-audio/internal/commandbus"
	"github.com/nerrad567/gray-logic-audio/internal/control"
	"github.com/nerrad567/gray-logic-audio/internal/dashboard"
	"github.com/nerrad567/gray-logic-audio/internal/device"
	"github.com/nerrad567/gray-logic-audio/internal/discovery"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-audio/internal/telemetry"
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

// commandLogQueueSize is the audit recorder's buffer.
const commandLogQueueSize = 256

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Audio",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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

	// Open database (command log)
	db, err := database.Open(ctx, cfg.Database)
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	checks := map[string]api.HealthChecker{"database": db}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log.Component("mqtt"))
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		checks["mqtt"] = mqttClient
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
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
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
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Speaker transport and discovery
	sonosClient := sonos.NewClient(sonos.Config{Port: cfg.Transport.Port})
	sonosClient.SetLogger(log.Component("sonos"))

	discoverer := newDiscoverer(cfg, sonosClient, log)
	topology, err := discoverer.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discovering speakers: %w", err)
	}

	commandTimeout := cfg.Transport.CommandTimeoutDuration()
	registry := device.NewRegistry(topology)
	registry.SetLogger(log.Component("registry"))
	registry.SetReadTimeout(commandTimeout)
	log.Info("speaker registry initialised",
		"devices", registry.Len(),
		"groups", len(registry.Groups()),
		"source", topology.Source,
	)

	resolver := control.NewResolver(registry, sonosClient.Factory())
	resolver.SetHostNormalizer(sonosClient.CanonicalHost)
	ctrl := control.New(registry, resolver, control.NewHistory(), control.Options{
		CommandTimeout: commandTimeout,
		MaxConcurrency: cfg.Transport.MaxConcurrency,
	})
	ctrl.SetLogger(log.Component("control"))
	ctrl.SetDiscoverer(discoverer)

	if cfg.History.SeedOnStart {
		if seedErr := ctrl.SeedHistory(ctx); seedErr != nil {
			log.Warn("some speakers could not be seeded", "error", seedErr)
		}
	}

	// Observers: command log, telemetry, WebSocket hub, MQTT state
	commandLog := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(commandLog, commandLogQueueSize)
	recorder.SetLogger(log.Component("audit"))
	recorderDone := make(chan struct{})
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	go func() {
		defer close(recorderDone)
		recorder.Run(recorderCtx)
	}()
	defer func() {
		stopRecorder()
		<-recorderDone
	}()
	ctrl.AddObserver(recorder)

	if influxClient != nil {
		ctrl.AddObserver(telemetry.NewObserver(influxClient, cfg.Site.ID, registry))
	}

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	go hub.Run(ctx)
	ctrl.AddObserver(hub)

	// MQTT command bridge
	if mqttClient != nil {
		bridge := commandbus.New(mqttClient, ctrl, commandbus.Options{
			QoS:            mqttClient.QoS(),
			CommandTimeout: commandTimeout * 2,
			Version:        version,
			DeviceCount:    registry.Len,
		})
		bridge.SetLogger(log.Component("commandbus"))
		if startErr := bridge.Start(ctx); startErr != nil {
			return fmt.Errorf("starting command bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping command bridge")
			bridge.Stop()
		}()
		ctrl.AddObserver(bridge)
		log.Info("MQTT command bridge started")
	}

	// HTTP API
	var dashboardHandler http.Handler
	if cfg.Dashboard.Enabled {
		dashboardHandler = dashboard.Handler(cfg.Dashboard.Dir)
	}
	apiServer, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Logger:     log.Component("api"),
		Controller: ctrl,
		CommandLog: commandLog,
		Checks:     checks,
		DBStats: func() api.DatabaseMetrics {
			s := db.Stats()
			return api.DatabaseMetrics{
				OpenConnections: s.OpenConnections,
				InUse:           s.InUse,
				Idle:            s.Idle,
				WaitCount:       s.WaitCount,
			}
		},
		Dashboard: dashboardHandler,
		Hub:       hub,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal",
		"api", apiServer.Addr().String(),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// API server, command bridge, command log recorder, InfluxDB, MQTT, database.

	log.Info("Gray Logic Audio stopped")
	return nil
}

// newDiscoverer wires broadcast, fallback probing and the optional nmap
// candidate scan.
func newDiscoverer(cfg *config.Config, client *sonos.Client, log *logging.Logger) *discovery.Discoverer {
	d := discovery.New(client, client, discovery.Options{
		BroadcastTimeout: cfg.Discovery.BroadcastTimeoutDuration(),
		ProbeTimeout:     cfg.Discovery.ProbeTimeoutDuration(),
		FallbackHosts:    cfg.Discovery.FallbackHosts,
	})
	d.SetLogger(log.Component("discovery"))

	if cfg.Discovery.Scan.Enabled {
		scanner := discovery.NewNmapScanner(
			cfg.Discovery.Scan.Targets,
			cfg.Transport.Port,
			cfg.Discovery.Scan.TimeoutDuration(),
		)
		scanner.SetLogger(log.Component("scan"))
		d.SetScanner(scanner)
	}
	return d
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_AUDIO_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_AUDIO_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
