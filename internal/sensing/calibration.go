package sensing

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/colour"
)

// Calibration holds one sensor's black and white references in raw units.
type Calibration struct {
	Black [3]float64 `json:"black"`
	White [3]float64 `json:"white"`
}

// Apply maps a raw reading onto [0, 1] per channel. A channel whose white
// reference does not exceed its black reference reads 0.
func (c Calibration) Apply(raw [3]float64) colour.Colour {
	var out [3]float64
	for i := range raw {
		span := c.White[i] - c.Black[i]
		if span <= 0 {
			continue
		}
		out[i] = (raw[i] - c.Black[i]) / span
	}
	return colour.Clamped(out[0], out[1], out[2])
}

// Prompter asks the operator to place the robot and waits for confirmation.
type Prompter interface {
	Prompt(ctx context.Context, message string) error
}

// CalibrationResult is the outcome of a calibration routine.
type CalibrationResult struct {
	References map[SensorID]Calibration
	Palette    map[string][3]float64
}

// Calibrator walks the operator through black, white and each named
// palette colour, averaging raw samples from every sensor.
type Calibrator struct {
	sensors  [numSensors]RawSensor
	prompter Prompter
	samples  int
	interval time.Duration
	logger   Logger
}

// NewCalibrator creates a calibrator over the three raw sensors.
// samples below 1 is treated as 1.
func NewCalibrator(left, right, front RawSensor, prompter Prompter, samples int) *Calibrator {
	if samples < 1 {
		samples = 1
	}
	return &Calibrator{
		sensors:  [numSensors]RawSensor{left, right, front},
		prompter: prompter,
		samples:  samples,
		interval: 10 * time.Millisecond,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger.
func (c *Calibrator) SetLogger(l Logger) {
	if l != nil {
		c.logger = l
	}
}

// Run performs the full routine. The new references are applied to the
// sensors before the palette colours are sampled, so palette entries are
// in calibrated units.
//
// Parameters:
//   - ctx: Cancels the routine between prompts and samples
//   - colours: Palette names to sample, in prompt order
//
// Returns:
//   - CalibrationResult: References per sensor and the measured palette
//   - error: Prompt, sensor or context failure
func (c *Calibrator) Run(ctx context.Context, colours []string) (CalibrationResult, error) {
	res := CalibrationResult{
		References: make(map[SensorID]Calibration, numSensors),
		Palette:    make(map[string][3]float64, len(colours)),
	}

	if err := c.prompter.Prompt(ctx, "Place all sensors on BLACK and press Enter"); err != nil {
		return res, err
	}
	black, err := c.sampleRaw(ctx)
	if err != nil {
		return res, fmt.Errorf("sampling black: %w", err)
	}

	if err := c.prompter.Prompt(ctx, "Place all sensors on WHITE and press Enter"); err != nil {
		return res, err
	}
	white, err := c.sampleRaw(ctx)
	if err != nil {
		return res, fmt.Errorf("sampling white: %w", err)
	}

	for _, id := range AllSensors {
		cal := Calibration{Black: black[id], White: white[id]}
		res.References[id] = cal
		c.sensors[id].SetCalibration(cal)
		c.logger.Info("sensor calibrated", "sensor", id.String(), "black", cal.Black, "white", cal.White)
	}

	for _, name := range colours {
		if err := c.prompter.Prompt(ctx, fmt.Sprintf("Place all sensors on %s and press Enter", name)); err != nil {
			return res, err
		}
		raw, err := c.sampleRaw(ctx)
		if err != nil {
			return res, fmt.Errorf("sampling %s: %w", name, err)
		}

		var sum [3]float64
		for _, id := range AllSensors {
			rgb := res.References[id].Apply(raw[id]).RGB()
			for ch := range sum {
				sum[ch] += rgb[ch]
			}
		}
		for ch := range sum {
			sum[ch] /= numSensors
		}
		res.Palette[name] = sum
		c.logger.Info("palette colour sampled", "colour", name, "rgb", sum)
	}

	return res, nil
}

// sampleRaw averages c.samples raw readings per sensor.
func (c *Calibrator) sampleRaw(ctx context.Context) ([numSensors][3]float64, error) {
	var sums [numSensors][3]float64
	for n := 0; n < c.samples; n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				return sums, ctx.Err()
			case <-time.After(c.interval):
			}
		}
		for _, id := range AllSensors {
			raw, err := c.sensors[id].Raw()
			if err != nil {
				return sums, fmt.Errorf("reading %s sensor: %w", id, err)
			}
			for ch := range raw {
				sums[id][ch] += raw[ch]
			}
		}
	}
	for id := range sums {
		for ch := range sums[id] {
			sums[id][ch] /= float64(c.samples)
		}
	}
	return sums, nil
}
