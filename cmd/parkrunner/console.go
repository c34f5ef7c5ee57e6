package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nerrad567/parkrunner-core/internal/sensing"
	"github.com/nerrad567/parkrunner-core/internal/steering"
)

var _ sensing.Prompter = (*console)(nil)

// errConsoleClosed is returned when the operator input ends.
var errConsoleClosed = errors.New("console input closed")

// console reads operator lines on one goroutine so that prompts, the start
// signal and tuning commands share a single reader.
type console struct {
	out   io.Writer
	lines chan string
}

func newConsole(in io.Reader, out io.Writer) *console {
	c := &console{out: out, lines: make(chan string, 16)}
	go func() {
		defer close(c.lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			c.lines <- sc.Text()
		}
	}()
	return c
}

// Prompt prints message and waits for the operator to press Enter.
func (c *console) Prompt(ctx context.Context, message string) error {
	fmt.Fprintln(c.out, message)
	_, err := c.next(ctx)
	return err
}

func (c *console) next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", errConsoleClosed
		}
		return line, nil
	}
}

// gainTuner is the follower as the tuning console drives it.
type gainTuner interface {
	Gains() steering.Gains
	Tune(term string, steps int) (steering.Gains, error)
}

// tuneFromConsole applies operator tuning lines until ctx ends or input
// closes. "save" persists the current gains.
func tuneFromConsole(ctx context.Context, c *console, tuner gainTuner, store steering.GainStore, logger Logger) {
	for {
		line, err := c.next(ctx)
		if err != nil {
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		in, err := steering.ParseConsoleInput(line)
		if err != nil {
			fmt.Fprintf(c.out, "%v (use p+, p-, i+, i-, d+, d- or save)\n", err)
			continue
		}

		if in.Save {
			g := tuner.Gains()
			if err := store.Save(ctx, g); err != nil {
				logger.Error("saving steering gains failed", "error", err)
				fmt.Fprintf(c.out, "save failed: %v\n", err)
				continue
			}
			logger.Info("steering gains saved", "p", g.P, "i", g.I, "d", g.D)
			fmt.Fprintf(c.out, "saved p=%.3f i=%.3f d=%.3f\n", g.P, g.I, g.D)
			continue
		}

		g, err := tuner.Tune(in.Term, in.Steps)
		if err != nil {
			fmt.Fprintf(c.out, "%v\n", err)
			continue
		}
		fmt.Fprintf(c.out, "p=%.3f i=%.3f d=%.3f\n", g.P, g.I, g.D)
	}
}

// Logger is the logging interface used by the command helpers.
// Satisfied by *logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
