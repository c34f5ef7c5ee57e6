package steering

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TuneCommand is the payload of the steering tune topic. Either Term and
// Steps nudge one term, or Gains replaces all three. Glue, when present,
// selects the glue override and may be sent on its own.
type TuneCommand struct {
	Term  string `json:"term,omitempty"`
	Steps int    `json:"steps,omitempty"`
	Gains *Gains `json:"gains,omitempty"`
	Glue  string `json:"glue,omitempty"`
}

// HandleTuneCommand applies a JSON TuneCommand. Its signature matches an
// MQTT message handler so it can be subscribed directly.
func (f *Follower) HandleTuneCommand(_ string, payload []byte) error {
	var cmd TuneCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	if cmd.Glue != "" {
		g, err := ParseGlue(cmd.Glue)
		if err != nil {
			return err
		}
		f.SetGlue(g)
		if cmd.Gains == nil && cmd.Term == "" && cmd.Steps == 0 {
			return nil
		}
	}

	if cmd.Gains != nil {
		f.SetGains(*cmd.Gains)
		return nil
	}
	if cmd.Term == "" || cmd.Steps == 0 {
		return fmt.Errorf("%w: need term and non-zero steps, or gains", ErrInvalidCommand)
	}
	_, err := f.Tune(cmd.Term, cmd.Steps)
	return err
}

// ConsoleInput is one parsed operator line.
type ConsoleInput struct {
	Term  string
	Steps int
	Save  bool
}

// ParseConsoleInput parses operator tuning lines: "p+", "i-", "d++" (one
// step per sign) or "save".
func ParseConsoleInput(line string) (ConsoleInput, error) {
	line = strings.ToLower(strings.TrimSpace(line))
	if line == "save" {
		return ConsoleInput{Save: true}, nil
	}
	if len(line) < 2 {
		return ConsoleInput{}, fmt.Errorf("%w: %q", ErrInvalidCommand, line)
	}

	term := line[:1]
	if term != "p" && term != "i" && term != "d" {
		return ConsoleInput{}, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
	}

	steps := 0
	for _, r := range line[1:] {
		switch r {
		case '+':
			steps++
		case '-':
			steps--
		default:
			return ConsoleInput{}, fmt.Errorf("%w: %q", ErrInvalidCommand, line)
		}
	}
	return ConsoleInput{Term: term, Steps: steps}, nil
}
