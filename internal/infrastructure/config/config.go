package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for parkrunner.
// All configuration is loaded from YAML and can be overridden by environment variables.
// A Config is treated as immutable once Load returns; components receive
// their own section by value.
type Config struct {
	Robot     RobotConfig     `yaml:"robot"`
	Course    CourseConfig    `yaml:"course"`
	Colour    ColourConfig    `yaml:"colour"`
	Steering  SteeringConfig  `yaml:"steering"`
	Sonar     SonarConfig     `yaml:"sonar"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RobotConfig contains drive geometry, speeds and manoeuvre constants.
// Distances are metres, angles degrees, speeds metres per second.
type RobotConfig struct {
	ID                 string        `yaml:"id"`
	CruiseSpeed        float64       `yaml:"cruise_speed"`
	ParkingSpeed       float64       `yaml:"parking_speed"`
	RoadWidth          float64       `yaml:"road_width"`
	IntersectionPullup float64       `yaml:"intersection_pullup"`
	StopDelay          time.Duration `yaml:"stop_delay"`
	ParkDelay          time.Duration `yaml:"park_delay"`
	Park               ParkConfig    `yaml:"park"`
	Pullout            PulloutConfig `yaml:"pullout"`

	// EdgePollInterval is how often edge-crossing waits sample the monitor.
	EdgePollInterval time.Duration `yaml:"edge_poll_interval"`
}

// ParkConfig contains the fixed parking manoeuvre.
type ParkConfig struct {
	AvoidBackup     float64 `yaml:"avoid_backup"`
	ManeuverAngle   float64 `yaml:"maneuver_angle"`
	ManeuverDist    float64 `yaml:"maneuver_distance"`
	CenterDistance  float64 `yaml:"center_distance"`
	Angle           float64 `yaml:"angle"`
	BackInDistance  float64 `yaml:"back_in_distance"`
	Spots           int     `yaml:"spots"`
	BeepWhileBackup bool    `yaml:"beep_while_backup"`
}

// PulloutConfig contains the pull-out manoeuvre.
type PulloutConfig struct {
	Creep      float64 `yaml:"creep"`
	Angle      float64 `yaml:"angle"`
	Correction float64 `yaml:"correction"`
}

// CourseConfig selects the map, mission and base nodes.
type CourseConfig struct {
	MapDir      string                `yaml:"map_dir"`
	MissionFile string                `yaml:"mission_file"`
	StartSide   string                `yaml:"start_side"`
	Bases       map[string]BaseConfig `yaml:"bases"`
}

// BaseConfig names the start and end node for one starting base.
type BaseConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// ColourConfig contains the reference palette and the roles colours play.
type ColourConfig struct {
	Tolerance             float64               `yaml:"tolerance"`
	Palette               map[string][3]float64 `yaml:"palette"`
	Road                  string                `yaml:"road"`
	Parking               string                `yaml:"parking"`
	Intersection          string                `yaml:"intersection"`
	BlendCandidates       []string              `yaml:"blend_candidates"`
	IntersectionThreshold float64               `yaml:"intersection_threshold"`
	MinimumBlend          float64               `yaml:"minimum_blend"`
	CalibrationSamples    int                   `yaml:"calibration_samples"`
	Period                time.Duration         `yaml:"period"`
}

// SteeringConfig contains the line follower control law settings.
type SteeringConfig struct {
	P          float64       `yaml:"p"`
	I          float64       `yaml:"i"`
	D          float64       `yaml:"d"`
	TrustK     float64       `yaml:"trust_k"`
	Slowdown   float64       `yaml:"slowdown"`
	TuningStep float64       `yaml:"tuning_step"`
	Period     time.Duration `yaml:"period"`
}

// SonarConfig contains rangefinder settings and the sweep profiles used by actions.
type SonarConfig struct {
	AlertThreshold float64       `yaml:"alert_threshold"`
	GearRatio      float64       `yaml:"gear_ratio"`
	ZeroOffset     float64       `yaml:"zero_offset"`
	Period         time.Duration `yaml:"period"`
	SweepTimeout   time.Duration `yaml:"sweep_timeout"`
	Intersection   SweepConfig   `yaml:"intersection"`
	Parking        SweepConfig   `yaml:"parking"`
	ParkAvoid      SweepConfig   `yaml:"park_avoid"`
	Pullout        SweepConfig   `yaml:"pullout"`
}

// SweepConfig is one angular scan: from Start to End degrees in Increment
// steps, clear when every reading is at least Threshold metres.
type SweepConfig struct {
	Start     float64 `yaml:"start"`
	End       float64 `yaml:"end"`
	Threshold float64 `yaml:"threshold"`
	Increment float64 `yaml:"increment"`
}

// BridgeConfig contains hardware bridge settings.
type BridgeConfig struct {
	// Name is the bridge identifier used in MQTT topics (e.g. "ev3").
	Name           string        `yaml:"name"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Managed indicates whether parkrunner should launch the bridge process.
	// If false, the bridge is expected to be running already.
	Managed             bool          `yaml:"managed"`
	Binary              string        `yaml:"binary"`
	Args                []string      `yaml:"args"`
	RestartDelay        time.Duration `yaml:"restart_delay"`
	MaxRestartDelay     time.Duration `yaml:"max_restart_delay"`
	MaxRestartAttempts  int           `yaml:"max_restart_attempts"`
	StableRunThreshold  time.Duration `yaml:"stable_run_threshold"`
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Output is "stdout", "stderr" or "file" (uses File).
	Output string `yaml:"output"`
	File   string `yaml:"file"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PARKRUNNER_SECTION_KEY
// For example: PARKRUNNER_DATABASE_PATH, PARKRUNNER_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config populated with the values used on the
// competition robot. It is also the base that Load unmarshals onto.
func Default() *Config {
	return &Config{
		Robot: RobotConfig{
			ID:                 "parkrunner-01",
			CruiseSpeed:        0.12,
			ParkingSpeed:       0.06,
			RoadWidth:          0.18,
			IntersectionPullup: 0.065,
			StopDelay:          500 * time.Millisecond,
			ParkDelay:          2 * time.Second,
			EdgePollInterval:   5 * time.Millisecond,
			Park: ParkConfig{
				AvoidBackup:     0.15,
				ManeuverAngle:   30,
				ManeuverDist:    0.08,
				CenterDistance:  0.03,
				Angle:           90,
				BackInDistance:  0.05,
				Spots:           3,
				BeepWhileBackup: true,
			},
			Pullout: PulloutConfig{
				Creep:      0.05,
				Angle:      90,
				Correction: 10,
			},
		},
		Course: CourseConfig{
			MapDir:    "./maps",
			StartSide: "left",
			Bases: map[string]BaseConfig{
				"old": {Start: "L00A", End: "I00"},
				"new": {Start: "L00B", End: "I08"},
			},
		},
		Colour: ColourConfig{
			Tolerance: 0.137254902,
			Palette: map[string][3]float64{
				"black":  {0.05, 0.05, 0.05},
				"white":  {0.95, 0.95, 0.95},
				"yellow": {0.85, 0.75, 0.15},
				"red":    {0.80, 0.12, 0.10},
				"blue":   {0.10, 0.20, 0.70},
				"grey":   {0.30, 0.30, 0.30},
			},
			Road:                  "grey",
			Parking:               "blue",
			Intersection:          "red",
			BlendCandidates:       []string{"black", "white", "yellow", "blue"},
			IntersectionThreshold: 0.4,
			MinimumBlend:          0.6,
			CalibrationSamples:    20,
			Period:                5 * time.Millisecond,
		},
		Steering: SteeringConfig{
			P:          1.2,
			I:          0.8,
			D:          0.05,
			TrustK:     0.5,
			Slowdown:   0.5,
			TuningStep: 0.05,
			Period:     10 * time.Millisecond,
		},
		Sonar: SonarConfig{
			AlertThreshold: 0.25,
			GearRatio:      1,
			Period:         50 * time.Millisecond,
			SweepTimeout:   5 * time.Second,
			Intersection:   SweepConfig{Start: -30, End: 30, Threshold: 0.3, Increment: 10},
			Parking:        SweepConfig{Start: 90, End: 60, Threshold: 0.3, Increment: 10},
			ParkAvoid:      SweepConfig{Start: 90, End: 45, Threshold: 0.3, Increment: 15},
			Pullout:        SweepConfig{Start: -45, End: 45, Threshold: 0.3, Increment: 15},
		},
		Bridge: BridgeConfig{
			Name:                "ev3",
			RequestTimeout:      10 * time.Second,
			RestartDelay:        time.Second,
			MaxRestartDelay:     30 * time.Second,
			MaxRestartAttempts:  10,
			StableRunThreshold:  time.Minute,
			ShutdownGracePeriod: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        "./data/parkrunner.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "parkrunner-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     30,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     500,
			FlushInterval: 1,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PARKRUNNER_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PARKRUNNER_ROBOT_ID"); v != "" {
		cfg.Robot.ID = v
	}
	if v := os.Getenv("PARKRUNNER_COURSE_MISSION_FILE"); v != "" {
		cfg.Course.MissionFile = v
	}
	if v := os.Getenv("PARKRUNNER_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("PARKRUNNER_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PARKRUNNER_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("PARKRUNNER_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PARKRUNNER_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("PARKRUNNER_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("PARKRUNNER_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
// All problems are collected so one run reports everything wrong with a file.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Robot.CruiseSpeed <= 0 {
		errs = append(errs, "robot.cruise_speed must be positive")
	}
	if c.Robot.ParkingSpeed <= 0 {
		errs = append(errs, "robot.parking_speed must be positive")
	}
	if c.Robot.Park.Spots < 1 {
		errs = append(errs, "robot.park.spots must be at least 1")
	}

	switch strings.ToLower(c.Course.StartSide) {
	case "left", "right":
	default:
		errs = append(errs, "course.start_side must be left or right")
	}
	for name, base := range c.Course.Bases {
		if base.Start == "" || base.End == "" {
			errs = append(errs, fmt.Sprintf("course.bases.%s needs start and end", name))
		}
	}

	errs = append(errs, c.Colour.validate()...)

	if c.Steering.TrustK <= 0 {
		errs = append(errs, "steering.trust_k must be positive")
	}
	if c.Steering.Slowdown < 0 || c.Steering.Slowdown > 1 {
		errs = append(errs, "steering.slowdown must be between 0 and 1")
	}

	if c.Sonar.AlertThreshold <= 0 {
		errs = append(errs, "sonar.alert_threshold must be positive")
	}
	for name, sw := range map[string]SweepConfig{
		"intersection": c.Sonar.Intersection,
		"parking":      c.Sonar.Parking,
		"park_avoid":   c.Sonar.ParkAvoid,
		"pullout":      c.Sonar.Pullout,
	} {
		if sw.Increment <= 0 {
			errs = append(errs, fmt.Sprintf("sonar.%s.increment must be positive", name))
		}
	}

	if c.Bridge.Name == "" {
		errs = append(errs, "bridge.name is required")
	}
	if c.Bridge.Managed && c.Bridge.Binary == "" {
		errs = append(errs, "bridge.binary is required when bridge.managed is true")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Logging.Output == "file" && c.Logging.File == "" {
		errs = append(errs, "logging.file is required when logging.output is file")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (c ColourConfig) validate() []string {
	var errs []string
	if c.Tolerance <= 0 {
		errs = append(errs, "colour.tolerance must be positive")
	}
	for name, rgb := range c.Palette {
		for _, v := range rgb {
			if v < 0 || v > 1 {
				errs = append(errs, fmt.Sprintf("colour.palette.%s channels must be within [0,1]", name))
				break
			}
		}
	}
	roles := map[string]string{
		"road":         c.Road,
		"parking":      c.Parking,
		"intersection": c.Intersection,
	}
	for role, name := range roles {
		if name == "" {
			errs = append(errs, fmt.Sprintf("colour.%s is required", role))
			continue
		}
		if _, ok := c.Palette[name]; !ok {
			errs = append(errs, fmt.Sprintf("colour.%s %q is not in colour.palette", role, name))
		}
	}
	for _, name := range c.BlendCandidates {
		if _, ok := c.Palette[name]; !ok {
			errs = append(errs, fmt.Sprintf("colour.blend_candidates entry %q is not in colour.palette", name))
		}
	}
	if c.MinimumBlend < 0 || c.MinimumBlend > 1 {
		errs = append(errs, "colour.minimum_blend must be between 0 and 1")
	}
	return errs
}

// Base returns the start/end pair for a base selector ("old", "new").
func (c CourseConfig) Base(name string) (BaseConfig, bool) {
	b, ok := c.Bases[strings.ToLower(name)]
	return b, ok
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
