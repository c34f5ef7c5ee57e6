package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/logging"
)

// defaultConfigPath is used when neither --config nor PARKRUNNER_CONFIG is set.
const defaultConfigPath = "configs/config.yaml"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "parkrunner",
		Short: "Navigation core of the parking robot",
		Long: `parkrunner plans a tour of the required parking lots over a course
map and drives the robot through it: line following, intersections,
parking and pulling out, with sonar collision avoidance.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"configuration file (default $PARKRUNNER_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(
		newRunCmd(flags),
		newPlanCmd(flags),
		newCalibrateCmd(flags),
		newVersionCmd(),
	)
	return root
}

// resolveConfigPath picks the flag, then PARKRUNNER_CONFIG, then the default.
func (f *globalFlags) resolveConfigPath() string {
	if f.configPath != "" {
		return f.configPath
	}
	if path := os.Getenv("PARKRUNNER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// load reads the configuration and builds the configured logger.
//
// Returns:
//   - *config.Config: Validated configuration
//   - *logging.Logger: Logger built from the logging section
//   - error: If the file is missing or invalid, or the log file cannot be opened
func (f *globalFlags) load() (*config.Config, *logging.Logger, error) {
	path := f.resolveConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.Logging, version)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	log.Info("configuration loaded", "path", path, "robot_id", cfg.Robot.ID)
	return cfg, log, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "parkrunner %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
