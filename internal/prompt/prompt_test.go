package prompt

import (
	"bytes"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   string
		want  string
	}{
		{name: "value entered", input: "hello\n", def: "fallback", want: "hello"},
		{name: "empty keeps default", input: "\n", def: "fallback", want: "fallback"},
		{name: "eof keeps default", input: "", def: "fallback", want: "fallback"},
		{name: "whitespace trimmed", input: "  spaced  \n", def: "", want: "spaced"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(strings.NewReader(tt.input), &bytes.Buffer{})
			if got := p.String("label", tt.def); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   int
		want  int
	}{
		{name: "number entered", input: "7\n", def: 3, want: 7},
		{name: "empty keeps default", input: "\n", def: 3, want: 3},
		{name: "garbage keeps default", input: "seven\n", def: 3, want: 3},
		{name: "negative accepted", input: "-2\n", def: 3, want: -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(strings.NewReader(tt.input), &bytes.Buffer{})
			if got := p.Int("label", tt.def); got != tt.want {
				t.Errorf("Int() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestYesNo(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{name: "yes", input: "y\n", def: false, want: true},
		{name: "yes long", input: "YES\n", def: false, want: true},
		{name: "no", input: "n\n", def: true, want: false},
		{name: "empty keeps default true", input: "\n", def: true, want: true},
		{name: "empty keeps default false", input: "\n", def: false, want: false},
		{name: "garbage keeps default", input: "maybe\n", def: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(strings.NewReader(tt.input), &bytes.Buffer{})
			if got := p.YesNo("label", tt.def); got != tt.want {
				t.Errorf("YesNo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChoose(t *testing.T) {
	options := []string{"first", "second", "third"}

	tests := []struct {
		name  string
		input string
		def   int
		want  int
	}{
		{name: "picks option", input: "2\n", def: 0, want: 1},
		{name: "empty keeps default", input: "\n", def: 2, want: 2},
		{name: "zero out of range", input: "0\n", def: 1, want: 1},
		{name: "too large out of range", input: "9\n", def: 0, want: 0},
		{name: "garbage keeps default", input: "x\n", def: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := New(strings.NewReader(tt.input), &out)
			if got := p.Choose("Pick one", options, tt.def); got != tt.want {
				t.Errorf("Choose() = %d, want %d", got, tt.want)
			}
			for _, opt := range options {
				if !strings.Contains(out.String(), opt) {
					t.Errorf("option %q was not shown", opt)
				}
			}
		})
	}
}
