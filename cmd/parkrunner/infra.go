package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/parkrunner-core/internal/bridges/ev3"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/database"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/parkrunner-core/internal/process"
)

// hardware is the broker connection, the optional bridge process and the
// bridge client, torn down in reverse order by close.
type hardware struct {
	mqtt       *mqtt.Client
	supervisor *process.Supervisor
	bridge     *ev3.Client
	log        *logging.Logger
}

// openDatabase opens the SQLite store and applies pending migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Path)
	return db, nil
}

// connectHardware connects to the broker, launches the bridge process when
// it is managed, and starts the bridge client.
//
// Parameters:
//   - ctx: Lifetime of the bridge process supervisor
//   - cfg: Application configuration (mqtt and bridge sections)
//   - log: Logger instance
//
// Returns:
//   - *hardware: Connected hardware; call close when done
//   - error: If the broker, bridge process or subscriptions fail
func connectHardware(ctx context.Context, cfg *config.Config, log *logging.Logger) (*hardware, error) {
	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.Component("mqtt"))
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	hw := &hardware{mqtt: client, log: log}

	// Subscribe before the bridge starts so its retained state is seen.
	hw.bridge = ev3.New(client, cfg.Bridge)
	hw.bridge.SetLogger(log.Component("ev3"))
	if err := hw.bridge.Start(); err != nil {
		hw.close()
		return nil, fmt.Errorf("starting bridge client: %w", err)
	}

	if cfg.Bridge.Managed {
		pcfg := process.ConfigFromBridge(cfg.Bridge)
		pcfg.HealthCheckFunc = hw.bridge.HealthCheck
		pcfg.OnRestart = func(attempt int) {
			log.Warn("bridge process restarting", "attempt", attempt)
		}
		hw.supervisor = process.NewSupervisor(pcfg)
		hw.supervisor.SetLogger(log.Component("process"))
		if err := hw.supervisor.Start(ctx); err != nil {
			hw.close()
			return nil, fmt.Errorf("starting bridge process: %w", err)
		}
		log.Info("bridge process started", "binary", cfg.Bridge.Binary, "pid", hw.supervisor.PID())
	}

	return hw, nil
}

func (hw *hardware) close() {
	if hw.bridge != nil {
		hw.bridge.Close()
	}
	if hw.supervisor != nil {
		hw.log.Info("stopping bridge process")
		if err := hw.supervisor.Stop(); err != nil {
			hw.log.Error("error stopping bridge process", "error", err)
		}
	}
	hw.log.Info("disconnecting from MQTT")
	if err := hw.mqtt.Close(); err != nil {
		hw.log.Error("error closing MQTT", "error", err)
	}
}

// healthChecker is satisfied by the database, MQTT and InfluxDB clients.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// dependency names a connection for health check errors.
type dependency struct {
	name  string
	check healthChecker
}

// healthCheck verifies every connection is alive.
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, deps ...dependency) error {
	for _, d := range deps {
		if err := d.check.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	return nil
}
