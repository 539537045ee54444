package funccompiler

import (
	"strings"
	"unicode"

	"github.com/sigfpe8/toy-apl/internal/bytecode"
	aplerrors "github.com/sigfpe8/toy-apl/internal/errors"
	"github.com/sigfpe8/toy-apl/internal/lexer"
)

// scanLabels finds every `name:` prefix among the body lines (spec
// §4.10 step 2), one-based line numbers matching the editor's `[n]`
// display.
func scanLabels(lines []string) map[string]int {
	labels := make(map[string]int)
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		name := line[:colon]
		if !isLabelName(name) {
			continue
		}
		labels[name] = i + 1
	}
	return labels
}

// stripLabel removes a line's own `name:` prefix (already recorded by
// scanLabels) before it is handed to the lexer, which has no notion of
// labels — only of the local/label names a resolver maps onto VARINX/
// NUM forms.
func stripLabel(line string) string {
	trimmed := strings.TrimSpace(line)
	colon := strings.IndexByte(trimmed, ':')
	if colon <= 0 {
		return line
	}
	if !isLabelName(trimmed[:colon]) {
		return line
	}
	return trimmed[colon+1:]
}

func isLabelName(s string) bool {
	for i, c := range s {
		if i == 0 && !(unicode.IsLetter(c) || c == '∆' || c == '_') {
			return false
		}
		if i > 0 && !(unicode.IsLetter(c) || unicode.IsDigit(c) || c == '∆' || c == '_') {
			return false
		}
	}
	return s != ""
}

// resolver implements lexer.NameResolver against a function's frame map
// and label table.
type resolver struct {
	frame  map[string]int
	labels map[string]int
}

func (r *resolver) Resolve(name string) (int, bool) {
	slot, ok := r.frame[name]
	return slot, ok
}

func (r *resolver) ResolveLabel(name string) (int, bool) {
	line, ok := r.labels[name]
	return line, ok
}

// Object is a compiled function, ready to be serialized into a heap
// block and installed under its name (spec §4.10 step 5).
type Object struct {
	Header      *Header
	HeaderLine  string   // the raw `∇ ...` line, kept verbatim for )save (spec §6.2/§6.3)
	Source      []string // body lines, 1-based by index+1 to match labels
	Code        []byte
	Lits        []float64
	LineOffsets []int // byte offset of body line i (0-based) within Code
}

// Text reconstructs the function's ∇-delimited source form for `)save`
// (spec §6.2 "emit listed functions as text") and `)load`'s round trip
// (spec §6.3): header line, body lines, closing ∇.
func (o *Object) Text() string {
	var b strings.Builder
	b.WriteString(o.HeaderLine)
	b.WriteByte('\n')
	for _, line := range o.Source {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("∇")
	return b.String()
}

// Compile builds the function object from a header line and body lines
// (spec §4.10 steps 1–4). Lines are compiled from last to first so that
// Buffer.Prepend's natural behaviour leaves Code in source order across
// lines, while each line's own tokens land in reverse (right-to-left)
// order within it — see internal/lexer's doc comments for why a single
// Prepend-per-unit walk produces both properties at once.
func Compile(headerLine string, bodyLines []string) (*Object, error) {
	h, err := ParseHeader(headerLine)
	if err != nil {
		return nil, err
	}
	if len(bodyLines) > 999 {
		return nil, aplerrors.Edit(aplerrors.FunctionTooBig, "function has too many lines")
	}

	labels := scanLabels(bodyLines)
	res := &resolver{frame: h.Frame, labels: labels}

	// OpEnd is prepended first so that, once every line has in turn been
	// prepended in front of it, it ends up last in forward (source)
	// reading order — the actual end of the compiled stream.
	buf := bytecode.NewBuffer(0)
	buf.PrependOp(bytecode.OpEnd)

	lineLens := make([]int, len(bodyLines))
	for i := len(bodyLines) - 1; i >= 0; i-- {
		before := buf.Len()
		if err := lexer.CompileFunctionLine(stripLabel(bodyLines[i]), i+1, buf, res); err != nil {
			return nil, err
		}
		lineLens[i] = buf.Len() - before
	}

	// Rebase: line i's bytecode starts at the sum of all earlier lines'
	// lengths (spec §4.10 step 4); the OpEnd byte trails at the very end.
	offsets := make([]int, len(bodyLines))
	acc := 0
	for i := 0; i < len(bodyLines); i++ {
		offsets[i] = acc
		acc += lineLens[i]
	}

	return &Object{
		Header:      h,
		HeaderLine:  strings.TrimSpace(headerLine),
		Source:      append([]string(nil), bodyLines...),
		Code:        buf.Code,
		Lits:        buf.Lits,
		LineOffsets: offsets,
	}, nil
}
