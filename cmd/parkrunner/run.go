package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"

	"github.com/spf13/cobra"

	"github.com/nerrad567/parkrunner-core/internal/api"
	"github.com/nerrad567/parkrunner-core/internal/colour"
	"github.com/nerrad567/parkrunner-core/internal/controller"
	"github.com/nerrad567/parkrunner-core/internal/course"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/parkrunner-core/internal/nav"
	"github.com/nerrad567/parkrunner-core/internal/runlog"
	"github.com/nerrad567/parkrunner-core/internal/sensing"
	"github.com/nerrad567/parkrunner-core/internal/steering"
	"github.com/nerrad567/parkrunner-core/internal/telemetry"
)

type runOptions struct {
	mission    string
	goNow      bool
	tune       bool
	followOnly bool
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Plan the mission and drive it",
		Long: `Plan the mission, connect to the hardware bridge, wait for Enter and
drive the course until the robot celebrates or a signal arrives.

With --tune, lines typed during the run adjust the steering gains:
p+ p- i+ i- d+ d- nudge one term, save stores the current gains.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load()
			if err != nil {
				return err
			}
			defer log.Close() //nolint:errcheck // Best effort on exit

			return runMission(cmd.Context(), cfg, log, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.mission, "mission", "m", "", "mission file (default course.mission_file)")
	cmd.Flags().BoolVar(&opts.goNow, "go", false, "start immediately instead of waiting for Enter")
	cmd.Flags().BoolVar(&opts.tune, "tune", false, "read steering gain adjustments from stdin during the run")
	cmd.Flags().BoolVar(&opts.followOnly, "follow-only", false, "follow the line without a mission (bench tuning)")
	return cmd
}

// runMission is the run command, separated from cobra for readability.
// Returning an error makes main exit non-zero; an interrupted run is not
// an error.
//
// Deferred cleanup runs in reverse order: API server, controller (halts
// the drive), telemetry, daemons, run log, hardware, database.
func runMission(ctx context.Context, cfg *config.Config, log *logging.Logger, opts *runOptions, in io.Reader, out io.Writer) error {
	log.Info("starting parkrunner",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Plan before connecting anything: a bad map or mission is fatal.
	crs, planned, err := buildCourse(cfg, opts, log)
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	hw, err := connectHardware(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer hw.close()

	// Run history
	runRepo := runlog.NewSQLiteRepository(db.DB)
	run := runlog.NewRun(cfg.Robot.ID)
	if planned != nil {
		run.MapName = planned.mission.MapName
		run.Base = planned.mission.Base.String()
		run.Lots = planned.mission.Lots
		run.Path = planned.plan.Nodes
		run.Cost = planned.roundedCost()
	}
	history := runlog.NewRecorder(runRepo, run, log.Component("runlog"))
	if err := history.Start(ctx); err != nil {
		return fmt.Errorf("creating run record: %w", err)
	}
	defer history.Close()
	log = log.With("run_id", run.ID)

	// Sensing and steering
	palette, err := loadPalette(ctx, cfg.Colour, sensing.NewSQLiteCalibrationStore(db.DB),
		func(id sensing.SensorID, cal sensing.Calibration) { hw.bridge.Sensor(id).SetCalibration(cal) },
		log)
	if err != nil {
		return err
	}

	monitor := sensing.NewMonitor(
		hw.bridge.Sensor(sensing.Left),
		hw.bridge.Sensor(sensing.Right),
		hw.bridge.Sensor(sensing.Front),
		palette, cfg.Colour,
	)
	monitor.SetLogger(log.Component("monitor"))

	sonar := sensing.NewSonar(hw.bridge, cfg.Sonar)
	sonar.SetLogger(log.Component("sonar"))

	follower := steering.NewFollower(monitor, hw.bridge, cfg.Steering, cfg.Robot.CruiseSpeed)
	follower.SetLogger(log.Component("steering"))
	gainStore := steering.NewSQLiteGainStore(db.DB)
	if err := loadGains(ctx, follower, gainStore, log); err != nil {
		return err
	}
	defer terminateDaemons(log, follower, sonar, monitor)

	// Telemetry
	observers := []controller.Observer{history}

	publisher := telemetry.NewPublisher(hw.mqtt, cfg.Robot.ID, run.ID, byte(cfg.MQTT.QoS))
	publisher.SetLogger(log.Component("telemetry"))
	tracker, _ := crs.(course.Tracker)
	publisher.SetTracker(tracker)
	publisher.Start()
	defer publisher.Close()
	observers = append(observers, publisher)

	deps := []dependency{{"database", db}, {"mqtt", hw.mqtt}}
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
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
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)

		samples := telemetry.NewRecorder(influxClient, cfg.Robot.ID, run.ID)
		follower.SetRecorder(samples)
		sonar.SetRecorder(samples)
		observers = append(observers, samples)
		deps = append(deps, dependency{"influxdb", influxClient})
	} else {
		log.Info("InfluxDB disabled")
	}

	if err := healthCheck(ctx, deps...); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Controller
	ctrl, err := controller.New(controller.Deps{
		Course:   crs,
		Monitor:  monitor,
		Sonar:    sonar,
		Follower: follower,
		Pilot:    hw.bridge,
		Sounder:  hw.bridge,
		Logger:   log.Component("controller"),
	}, cfg.Robot, cfg.Sonar)
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}
	defer func() {
		if closeErr := ctrl.Close(); closeErr != nil {
			log.Error("error closing controller", "error", closeErr)
		}
	}()
	for _, o := range observers {
		ctrl.AddObserver(o)
	}

	// Live gain tuning over MQTT
	tuneTopic := mqtt.Topics{}.SteeringTune()
	if err := hw.mqtt.Subscribe(tuneTopic, byte(cfg.MQTT.QoS), follower.HandleTuneCommand); err != nil {
		return fmt.Errorf("subscribing to %s: %w", tuneTopic, err)
	}
	defer hw.mqtt.Unsubscribe(tuneTopic) //nolint:errcheck // Disconnecting anyway

	if cfg.API.Enabled {
		srv, err := startAPI(ctx, cfg, log, ctrl, planned, follower, gainStore, runRepo, run.ID, tracker)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	con := newConsole(in, out)
	if !opts.goNow {
		if err := con.Prompt(ctx, "Ready. Press Enter to start."); err != nil {
			if ctx.Err() != nil {
				log.Info("shutdown before start")
				return nil
			}
			return fmt.Errorf("waiting for start (use --go without a terminal): %w", err)
		}
	}
	if opts.tune {
		go tuneFromConsole(ctx, con, follower, gainStore, log)
	}

	initial := follower.Gains()
	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("starting controller: %w", err)
	}
	runErr := ctrl.Wait(ctx)

	if g := follower.Gains(); g != initial {
		if err := gainStore.Save(context.WithoutCancel(ctx), g); err != nil {
			log.Error("saving steering gains failed", "error", err)
		} else {
			log.Info("steering gains saved", "p", g.P, "i", g.I, "d", g.D)
		}
	}

	switch {
	case runErr == nil:
		log.Info("mission complete")
		return nil
	case ctx.Err() != nil:
		log.Info("shutdown signal received, stopping run")
		return nil
	default:
		return fmt.Errorf("run failed: %w", runErr)
	}
}

// buildCourse returns the scripted follow-only course, or plans the
// mission and builds the map course over it.
func buildCourse(cfg *config.Config, opts *runOptions, log *logging.Logger) (course.Course, *plannedRoute, error) {
	if opts.followOnly {
		log.Info("follow-only run, no mission")
		return course.FollowOnly(), nil, nil
	}

	missionPath := opts.mission
	if missionPath == "" {
		missionPath = cfg.Course.MissionFile
	}
	planned, err := planMission(cfg.Course, missionPath, log.Component("route"))
	if err != nil {
		return nil, nil, err
	}
	log.Info("route planned",
		"mission", missionPath,
		"order", planned.plan.Order,
		"cost", planned.plan.Cost,
		"nodes", len(planned.plan.Nodes),
	)

	side, err := nav.ParseSide(cfg.Course.StartSide)
	if err != nil {
		return nil, nil, fmt.Errorf("course.start_side: %w", err)
	}
	sm, err := course.NewStateMachine(planned.plan.Nodes, side, planned.graph)
	if err != nil {
		return nil, nil, fmt.Errorf("building course: %w", err)
	}
	sm.SetLogger(log.Component("course"))
	sm.SetParkSpots(cfg.Robot.Park.Spots)
	return sm, planned, nil
}

// loadPalette builds the palette from config, overridden by stored
// calibration when present. Stored sensor references are passed to apply.
func loadPalette(ctx context.Context, cfg config.ColourConfig, store sensing.CalibrationStore,
	apply func(sensing.SensorID, sensing.Calibration), log Logger) (*colour.Palette, error) {
	entries := maps.Clone(cfg.Palette)

	res, err := store.Load(ctx)
	switch {
	case errors.Is(err, sensing.ErrNoCalibration):
		log.Warn("no stored calibration, using configured palette and raw sensor readings")
	case err != nil:
		return nil, fmt.Errorf("loading calibration: %w", err)
	default:
		for id, cal := range res.References {
			apply(id, cal)
		}
		maps.Copy(entries, res.Palette)
		log.Info("calibration loaded", "sensors", len(res.References), "colours", len(res.Palette))
	}

	palette, err := colour.FromRGB(cfg.Tolerance, entries)
	if err != nil {
		return nil, fmt.Errorf("building palette: %w", err)
	}
	return palette, nil
}

// gainSetter is the follower as loadGains uses it.
type gainSetter interface {
	SetGains(g steering.Gains)
}

// loadGains applies stored gains in preference to the configured ones.
func loadGains(ctx context.Context, f gainSetter, store steering.GainStore, log Logger) error {
	g, err := store.Load(ctx)
	switch {
	case errors.Is(err, steering.ErrNoGains):
		log.Info("no stored steering gains, using configured gains")
		return nil
	case err != nil:
		return fmt.Errorf("loading steering gains: %w", err)
	}
	f.SetGains(g)
	log.Info("stored steering gains loaded", "p", g.P, "i", g.I, "d", g.D)
	return nil
}

// terminator is a daemon-backed component.
type terminator interface {
	Terminate() error
}

func terminateDaemons(log Logger, daemons ...terminator) {
	for _, d := range daemons {
		if err := d.Terminate(); err != nil {
			log.Debug("terminate failed", "error", err)
		}
	}
}

func startAPI(ctx context.Context, cfg *config.Config, log *logging.Logger, ctrl *controller.Controller,
	planned *plannedRoute, follower *steering.Follower, gainStore steering.GainStore,
	runs runlog.Repository, runID string, tracker course.Tracker) (*api.Server, error) {
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"), runID)
	hub.SetTracker(tracker)
	ctrl.AddObserver(hub)

	var rt *api.Route
	if planned != nil {
		rt = planned.apiRoute()
	}

	srv, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log.Component("api"),
		Status:      ctrl,
		Route:       rt,
		Gains:       follower,
		GainStore:   gainStore,
		Runs:        runs,
		RunID:       runID,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting API server: %w", err)
	}
	return srv, nil
}
