// Package config handles loading and validating parkrunner configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields and cross-references (palette roles)
//   - Default values for the competition robot
//
// The loaded Config is read-only. Each component is constructed with its
// own section (RobotConfig, SteeringConfig, SonarConfig, ...) passed by
// value, so nothing can mutate tuning constants behind another component.
//
// Units:
//   - Distances in metres, angles in degrees, speeds in metres per second
//   - time.Duration fields accept Go duration strings ("500ms", "2s")
//   - Integer timeouts in the api and mqtt sections are seconds
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Robot.ID)
package config
