package route

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseMap(t *testing.T) {
	input := `# test course
L00A-I01:2.5;90
I01-L01A:3;0-270

I01-I02:4;180-90
`
	g, err := ParseMap(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseMap() error = %v", err)
	}

	a, err := g.Arc("L00A", "I01")
	if err != nil {
		t.Fatalf("Arc() error = %v", err)
	}
	if a.Weight != 2.5 || a.Entry != 90 || a.Exit != 90 {
		t.Errorf("single heading arc = %+v", a)
	}

	b, err := g.Arc("I01", "L01A")
	if err != nil {
		t.Fatalf("Arc() error = %v", err)
	}
	if b.Entry != 0 || b.Exit != 270 {
		t.Errorf("two heading arc = %+v", b)
	}

	if got := len(g.Nodes()); got != 4 {
		t.Errorf("node count = %d, want 4", got)
	}
}

func TestParseMap_Windows(t *testing.T) {
	g, err := ParseMap(strings.NewReader("A-B:1;0\r\nB-C:1;90\r\n"))
	if err != nil {
		t.Fatalf("ParseMap() error = %v", err)
	}
	if !g.HasNode("C") {
		t.Error("node C missing")
	}
}

func TestParseMap_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"no colon", "A-B;1;0", ErrMalformedLine},
		{"no dash", "AB:1;0", ErrMalformedLine},
		{"no semicolon", "A-B:1", ErrMalformedLine},
		{"bad weight", "A-B:x;0", ErrMalformedLine},
		{"negative weight", "A-B:-1;0", ErrMalformedLine},
		{"bad heading", "A-B:1;north", ErrMalformedLine},
		{"bad exit heading", "A-B:1;0-east", ErrMalformedLine},
		{"duplicate arc", "A-B:1;0\nA-B:2;0", ErrDuplicateArc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMap(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseMap() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseMap_ReportsLineNumber(t *testing.T) {
	_, err := ParseMap(strings.NewReader("A-B:1;0\n\nB-C:oops;0\n"))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error = %v, want mention of line 3", err)
	}
}

func TestLoadMap_Missing(t *testing.T) {
	if _, err := LoadMap(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("LoadMap() expected error for missing file")
	}
}

func TestLoadMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.txt")
	if err := os.WriteFile(path, []byte("A-B:1;0\n"), 0600); err != nil {
		t.Fatal(err)
	}
	g, err := LoadMap(path)
	if err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if !g.HasNode("B") {
		t.Error("node B missing")
	}
}
