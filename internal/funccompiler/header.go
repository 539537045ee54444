// Package funccompiler implements the function compiler and editor
// driver of spec §4.10 (C10): header parsing, frame-index assignment,
// label scanning, and last-to-first line compilation into a single
// function object installed under the function's name.
package funccompiler

import (
	"strings"

	aplerrors "github.com/sigfpe8/toy-apl/internal/errors"
)

// Header is the parsed line-0 grammar:
// `∇ {ret←} {A} fun {B} {; L1; L2; …}` (spec §4.10).
type Header struct {
	Name     string
	RetName  string // empty if the function has no explicit result
	LeftArg  string // empty for monadic/niladic functions
	RightArg string // empty for niladic functions
	Locals   []string

	// Frame is the full name→slot map, assigned per §4.10 step 1:
	// [locals…, args reversed, return], i.e. locals first in
	// declaration order, then the right argument, then the left
	// argument, then the return name last.
	Frame map[string]int
}

// Arity reports whether the header declares a left argument (dyadic),
// only a right argument (monadic), or neither (niladic).
func (h *Header) Arity() string {
	switch {
	case h.LeftArg != "":
		return "dyadic"
	case h.RightArg != "":
		return "monadic"
	default:
		return "niladic"
	}
}

// ParseHeader parses the `∇ ...` line. It works on raw text rather than
// lexer tokens because the grammar's shape (which bare names are
// return/left/right vs. the function name) can't be told apart from
// generic name tokens without this positional parse.
func ParseHeader(line string) (*Header, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "∇") {
		return nil, aplerrors.Lex(aplerrors.BadFunctionHeader, "function header must start with ∇")
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "∇"))

	var locals []string
	if semi := strings.IndexByte(line, ';'); semi >= 0 {
		rest := line[semi+1:]
		line = strings.TrimSpace(line[:semi])
		for _, l := range strings.Split(rest, ";") {
			l = strings.TrimSpace(l)
			if l == "" {
				return nil, aplerrors.Lex(aplerrors.BadFunctionHeader, "empty local name in header")
			}
			locals = append(locals, l)
		}
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, aplerrors.Lex(aplerrors.BadFunctionHeader, "empty function header")
	}

	h := &Header{Locals: locals}

	// Optional `ret←` is either its own field ("Z←") or glued to the
	// next field ("Z←FOO"); split it off first.
	if idx := strings.IndexRune(fields[0], '←'); idx >= 0 {
		h.RetName = fields[0][:idx]
		if h.RetName == "" {
			return nil, aplerrors.Lex(aplerrors.BadFunctionHeader, "missing return name before ←")
		}
		rem := fields[0][idx+len("←"):]
		if rem != "" {
			fields[0] = rem
		} else {
			fields = fields[1:]
		}
	}

	switch len(fields) {
	case 1:
		h.Name = fields[0]
	case 2:
		h.Name, h.RightArg = fields[0], fields[1]
	case 3:
		h.LeftArg, h.Name, h.RightArg = fields[0], fields[1], fields[2]
	default:
		return nil, aplerrors.Lex(aplerrors.BadFunctionHeader, "malformed function header %q", line)
	}
	if h.Name == "" {
		return nil, aplerrors.Lex(aplerrors.BadFunctionHeader, "function header is missing a name")
	}

	h.Frame = assignFrame(h)
	return h, nil
}

// assignFrame implements the reverse frame-index rule of spec §4.10
// step 1: locals in declaration order, then args reversed (right
// before left), then the return name last.
func assignFrame(h *Header) map[string]int {
	frame := make(map[string]int)
	slot := 0
	for _, l := range h.Locals {
		frame[l] = slot
		slot++
	}
	if h.RightArg != "" {
		frame[h.RightArg] = slot
		slot++
	}
	if h.LeftArg != "" {
		frame[h.LeftArg] = slot
		slot++
	}
	if h.RetName != "" {
		frame[h.RetName] = slot
		slot++
	}
	return frame
}

// FrameSize is the number of frame slots the evaluator must reserve for
// a call (spec §4.11).
func (h *Header) FrameSize() int { return len(h.Frame) }
