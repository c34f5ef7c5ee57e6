package route

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadMap reads a map file from disk.
func LoadMap(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening map: %w", err)
	}
	defer f.Close()

	g, err := ParseMap(f)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	return g, nil
}

// ParseMap reads arcs in SRC-DEST:weight;entry[-exit] form, one per line.
// Blank lines and lines starting with '#' are skipped.
func ParseMap(r io.Reader) (*Graph, error) {
	g := NewGraph()
	sc := bufio.NewScanner(r)
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		arc, err := parseArc(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d %q: %v", ErrMalformedLine, lineNo, line, err)
		}
		if err := g.AddArc(arc); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading map: %w", err)
	}
	return g, nil
}

func parseArc(line string) (Arc, error) {
	ends, rest, ok := strings.Cut(line, ":")
	if !ok {
		return Arc{}, fmt.Errorf("missing ':'")
	}
	from, to, ok := strings.Cut(ends, "-")
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if !ok || from == "" || to == "" || strings.Contains(to, "-") {
		return Arc{}, fmt.Errorf("expected SRC-DEST before ':'")
	}

	weightStr, headings, ok := strings.Cut(rest, ";")
	if !ok {
		return Arc{}, fmt.Errorf("missing ';'")
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
	if err != nil {
		return Arc{}, fmt.Errorf("weight: %v", err)
	}
	if weight < 0 {
		return Arc{}, fmt.Errorf("negative weight %g", weight)
	}

	entryStr, exitStr, twoHeadings := strings.Cut(headings, "-")
	entry, err := strconv.Atoi(strings.TrimSpace(entryStr))
	if err != nil {
		return Arc{}, fmt.Errorf("entry heading: %v", err)
	}
	exit := entry
	if twoHeadings {
		if exit, err = strconv.Atoi(strings.TrimSpace(exitStr)); err != nil {
			return Arc{}, fmt.Errorf("exit heading: %v", err)
		}
	}

	return Arc{From: from, To: to, Weight: weight, Entry: entry, Exit: exit}, nil
}
