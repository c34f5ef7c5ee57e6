package route

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Base selects the starting base of a run.
type Base int

// Bases as numbered in mission files.
const (
	BaseOld Base = 1
	BaseNew Base = 2
)

func (b Base) String() string {
	switch b {
	case BaseOld:
		return "old"
	case BaseNew:
		return "new"
	default:
		return fmt.Sprintf("base(%d)", int(b))
	}
}

// Mission is what a run must do: which map, which base, which lots.
type Mission struct {
	MapName string
	Base    Base
	Lots    []int
}

// Stops returns the lot node names of the mission's lots.
func (m Mission) Stops() []string {
	out := make([]string, len(m.Lots))
	for i, n := range m.Lots {
		out[i] = LotNode(n)
	}
	return out
}

// LoadMission reads a mission file from disk.
func LoadMission(path string) (Mission, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mission{}, fmt.Errorf("opening mission: %w", err)
	}
	defer f.Close()

	m, err := ParseMission(f)
	if err != nil {
		return Mission{}, fmt.Errorf("mission %s: %w", path, err)
	}
	return m, nil
}

// ParseMission reads the map name, the base selector (1 old, 2 new) and
// then one lot number per line. Blank and '#' lines are skipped.
func ParseMission(r io.Reader) (Mission, error) {
	var (
		m      Mission
		field  int
		lineNo int
		seen   = make(map[int]bool)
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch field {
		case 0:
			m.MapName = line
		case 1:
			n, err := strconv.Atoi(line)
			if err != nil || (Base(n) != BaseOld && Base(n) != BaseNew) {
				return Mission{}, fmt.Errorf("%w: line %d: base must be 1 or 2, got %q", ErrMalformedLine, lineNo, line)
			}
			m.Base = Base(n)
		default:
			n, err := strconv.Atoi(line)
			if err != nil || n < 0 || n > 99 {
				return Mission{}, fmt.Errorf("%w: line %d: lot number %q", ErrMalformedLine, lineNo, line)
			}
			if seen[n] {
				return Mission{}, fmt.Errorf("%w: line %d: lot %d", ErrDuplicateStop, lineNo, n)
			}
			seen[n] = true
			m.Lots = append(m.Lots, n)
		}
		field++
	}
	if err := sc.Err(); err != nil {
		return Mission{}, fmt.Errorf("reading mission: %w", err)
	}
	if field < 2 {
		return Mission{}, fmt.Errorf("%w: mission needs a map name and a base", ErrMalformedLine)
	}
	return m, nil
}

// LotNode returns the node name of lot n: "L0nA" below 10, "LnnA" otherwise.
func LotNode(n int) string {
	return fmt.Sprintf("L%02dA", n)
}

// IsLot reports whether a node is a parking lot rather than an intersection.
func IsLot(node string) bool {
	return strings.Contains(node, "L")
}
