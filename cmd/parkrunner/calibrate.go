package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nerrad567/parkrunner-core/internal/sensing"
)

func newCalibrateCmd(flags *globalFlags) *cobra.Command {
	var samples int

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Record colour sensor references and the palette",
		Long: `Walk through black, white and every palette colour. Place all three
colour sensors on the requested colour and press Enter. The averaged
references and palette are stored and used by later runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := flags.load()
			if err != nil {
				return err
			}
			defer log.Close() //nolint:errcheck // Best effort on exit

			if samples <= 0 {
				samples = cfg.Colour.CalibrationSamples
			}

			db, err := openDatabase(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // Closed on exit

			hw, err := connectHardware(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer hw.close()

			colours := make([]string, 0, len(cfg.Colour.Palette))
			for name := range cfg.Colour.Palette {
				colours = append(colours, name)
			}
			slices.Sort(colours)

			con := newConsole(cmd.InOrStdin(), cmd.OutOrStdout())
			cal := sensing.NewCalibrator(
				hw.bridge.Sensor(sensing.Left),
				hw.bridge.Sensor(sensing.Right),
				hw.bridge.Sensor(sensing.Front),
				con, samples,
			)
			cal.SetLogger(log.Component("calibration"))

			res, err := cal.Run(ctx, colours)
			if err != nil {
				return fmt.Errorf("calibration: %w", err)
			}
			if err := sensing.NewSQLiteCalibrationStore(db.DB).Save(ctx, res); err != nil {
				return fmt.Errorf("saving calibration: %w", err)
			}
			log.Info("calibration saved", "colours", len(res.Palette))
			printCalibration(cmd.OutOrStdout(), res, colours)
			return nil
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 0, "readings averaged per step (default colour.calibration_samples)")
	return cmd
}

func printCalibration(w io.Writer, res sensing.CalibrationResult, colours []string) {
	for _, id := range sensing.AllSensors {
		ref := res.References[id]
		fmt.Fprintf(w, "%-6s black %.3f  white %.3f\n", id, ref.Black, ref.White)
	}
	for _, name := range colours {
		rgb := res.Palette[name]
		fmt.Fprintf(w, "%-8s %.3f %.3f %.3f\n", name, rgb[0], rgb[1], rgb[2])
	}
}
