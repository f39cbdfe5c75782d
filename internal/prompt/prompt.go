// Package prompt implements the line-oriented questions the configure flow
// and the site manager ask on the terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Prompter asks questions and reads answers line by line. Reader and writer
// are injectable so tests can drive a whole flow from a string.
type Prompter struct {
	r *bufio.Reader
	w io.Writer
}

// New creates a Prompter. Nil arguments fall back to stdin and stdout.
func New(r io.Reader, w io.Writer) *Prompter {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &Prompter{r: bufio.NewReader(r), w: w}
}

func (p *Prompter) read() string {
	line, err := p.r.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

// String asks for a free-form value. Empty input keeps the default.
func (p *Prompter) String(label, def string) string {
	if def != "" {
		fmt.Fprintf(p.w, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.w, "%s: ", label)
	}
	if in := p.read(); in != "" {
		return in
	}
	return def
}

// Int asks for an integer. Empty or unparseable input keeps the default.
func (p *Prompter) Int(label string, def int) int {
	fmt.Fprintf(p.w, "%s [%d]: ", label, def)
	in := p.read()
	if in == "" {
		return def
	}
	n, err := strconv.Atoi(in)
	if err != nil {
		fmt.Fprintf(p.w, "not a number, keeping %d\n", def)
		return def
	}
	return n
}

// YesNo asks a y/n question. Empty or unrecognized input keeps the default.
func (p *Prompter) YesNo(label string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.w, "%s (%s): ", label, hint)
	switch strings.ToLower(p.read()) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}

// Choose presents numbered options and returns the chosen index. Empty or
// out-of-range input keeps the default.
func (p *Prompter) Choose(label string, options []string, def int) int {
	fmt.Fprintf(p.w, "%s:\n", label)
	for i, opt := range options {
		marker := " "
		if i == def {
			marker = "*"
		}
		fmt.Fprintf(p.w, " %s %d. %s\n", marker, i+1, opt)
	}
	fmt.Fprintf(p.w, "Choice [%d]: ", def+1)

	in := p.read()
	if in == "" {
		return def
	}
	n, err := strconv.Atoi(in)
	if err != nil || n < 1 || n > len(options) {
		fmt.Fprintf(p.w, "invalid choice, keeping %d\n", def+1)
		return def
	}
	return n - 1
}
