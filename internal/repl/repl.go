// Package repl implements the interactive loop and `)`-command grammar
// of spec §6.1/§6.2, and the text file loader of §6.3. It is the thin
// shell around internal/vm, internal/funccompiler and internal/wsstore
// that the teacher's own internal/repl/repl.go played for its
// scanner→parser→VM pipeline — same read/dispatch/print shape, wired
// to this arena-based evaluator instead.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"

	"github.com/sigfpe8/toy-apl/internal/arrayfn"
	aplerrors "github.com/sigfpe8/toy-apl/internal/errors"
	"github.com/sigfpe8/toy-apl/internal/format"
	"github.com/sigfpe8/toy-apl/internal/funccompiler"
	"github.com/sigfpe8/toy-apl/internal/memory"
	"github.com/sigfpe8/toy-apl/internal/vm"
	"github.com/sigfpe8/toy-apl/internal/workspace"
	"github.com/sigfpe8/toy-apl/internal/wsstore"
)

// REPL drives one workspace through stdin-style input, whether that's
// an interactive terminal or a piped/file source (spec §6.1: "each
// argument is loaded as an APL source file, then the process exits").
type REPL struct {
	ws          *workspace.Workspace
	out         io.Writer
	errOut      io.Writer
	interactive bool

	// set while collecting a ∇-delimited function definition (spec
	// §6.3: "subsequent lines are the body until a trailing ∇ line
	// closes it").
	defHeader string
	defBody   []string
	inDef     bool

	// set while re-opening an existing function for line editing via the
	// `∇ fun[…]` bracket grammar (spec §6.2's "editor sub-grammar in
	// source form", grounded on editor.c's EditFun — see SPEC_FULL §C).
	// editName/editHeaderLine/editLines mirror the function's stored
	// Object while it's worked on; editPending records what the next
	// plain input line should do, the way editor.c's CHECK_LINE() state
	// machine waits for a line after `[⎕N]`/`[<N]`/`[>N]`.
	editName       string
	editHeaderLine string
	editLines      []string
	editPending    editOp
	editDirty      bool
}

type editOpKind int

const (
	editNone editOpKind = iota
	editReplace
	editInsertBefore
	editInsertAfter
)

type editOp struct {
	kind editOpKind
	n    int // 1-based line number, editor.c's nCurLin
}

// New builds a REPL over ws, printing to out/errOut. interactive gates
// the prompt/banner the way `)off`'s exit-code contract and §6.1's
// "no argument" rule expect a human at the keyboard to see them.
func New(ws *workspace.Workspace, out, errOut io.Writer, interactive bool) *REPL {
	return &REPL{ws: ws, out: out, errOut: errOut, interactive: interactive}
}

// IsInteractiveStdin reports whether fd looks like a human terminal,
// the mattn/go-isatty check SPEC_FULL §B wires in for prompt gating.
func IsInteractiveStdin(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run reads lines from in until EOF or `)off`, returning the process
// exit code (spec §6.1: 0 on `)off` or end-of-input).
func (r *REPL) Run(in io.Reader) int {
	if r.interactive {
		fmt.Fprintln(r.out, "toy-apl — type )? for help, )off to quit")
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		if r.interactive {
			fmt.Fprint(r.out, "      ")
		}
		if !scanner.Scan() {
			break
		}
		if code, done := r.handleLine(scanner.Text(), true); done {
			return code
		}
	}
	return 0
}

// LoadFile implements §6.3's source-load grammar over a plain text
// file: one statement per line, `)`-prefixed lines ignored, ∇-delimited
// function definitions, blank lines ignored, results not printed.
func (r *REPL) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return r.loadSource(string(data))
}

func (r *REPL) loadSource(src string) error {
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ")") {
			continue
		}
		if _, done := r.handleLine(line, false); done {
			break
		}
	}
	return nil
}

// handleLine processes one line of input, whether interactive or from
// a loaded file. print controls whether a computed result is echoed
// (suppressed during file load, spec §6.3).
func (r *REPL) handleLine(line string, print bool) (exitCode int, done bool) {
	trimmed := strings.TrimSpace(line)

	if r.inDef {
		r.continueFunctionDef(trimmed)
		return 0, false
	}

	if r.editName != "" {
		r.continueFunctionEdit(trimmed)
		return 0, false
	}

	if trimmed == "" {
		return 0, false
	}

	if strings.HasPrefix(trimmed, "∇") {
		r.startFunctionDef(trimmed)
		return 0, false
	}

	if strings.HasPrefix(trimmed, ")") {
		code, off := r.command(trimmed)
		if off {
			return code, true
		}
		return 0, false
	}

	mark := aplerrors.Mark{OpStackTop: r.ws.Arena.OpMark(), TempBase: r.ws.Arena.TempMark()}
	if err := r.ws.Recovery.Push(mark); err != nil {
		fmt.Fprintln(r.errOut, err)
		return 0, false
	}
	v, ok, err := vm.EvalLine(r.ws, line)
	r.ws.Recovery.Pop()
	r.ws.Arena.OpReset(mark.OpStackTop)
	r.ws.Arena.TempReset(mark.TempBase)
	if err != nil {
		fmt.Fprintln(r.errOut, err)
		return 0, false
	}
	if ok && print {
		r.printValue(v)
	}
	return 0, false
}

func (r *REPL) printValue(v arrayfn.Value) {
	for _, line := range format.Monadic(v, r.ws.PP()) {
		fmt.Fprintln(r.out, line)
	}
}

func (r *REPL) startFunctionDef(headerLine string) {
	body := strings.TrimSpace(strings.TrimPrefix(headerLine, "∇"))
	if body == "" {
		fmt.Fprintln(r.errOut, "∇ with no header starts nothing")
		return
	}

	if name, spec, ok := splitEditBracket(body); ok {
		r.startFunctionEdit(name, spec)
		return
	}

	r.inDef = true
	r.defHeader = headerLine
	r.defBody = nil
}

// splitEditBracket recognizes the `fun[…]` editor-entry form (as opposed
// to a normal `∇ {ret←} {A} fun {B} {; locals}` header, which never
// contains a bracket) — grounded on editor.c's bracket-command grammar.
func splitEditBracket(body string) (name, spec string, ok bool) {
	if !strings.HasSuffix(body, "]") {
		return "", "", false
	}
	open := strings.IndexByte(body, '[')
	if open < 0 {
		return "", "", false
	}
	name = strings.TrimSpace(body[:open])
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", "", false
	}
	return name, body[open+1 : len(body)-1], true
}

// startFunctionEdit reopens an existing function for line editing,
// applying the bracket directive in spec immediately (display/replace/
// insert/delete), then leaves the REPL in an edit session awaiting
// further directives or a closing bare `∇` (editor.c's EditFun loop).
func (r *REPL) startFunctionEdit(name, spec string) {
	obj, err := vm.LoadFunction(r.ws, name)
	if err != nil {
		fmt.Fprintf(r.errOut, "%s: function not defined\n", name)
		return
	}
	r.editName = name
	r.editHeaderLine = obj.HeaderLine
	r.editLines = append([]string(nil), obj.Source...)
	r.editPending = editOp{}
	r.editDirty = false
	r.applyEditSpec(spec)
}

// continueFunctionEdit handles every line read while an edit session is
// open: either a pending line-replace/insert is fulfilled, a new `[…]`
// directive is applied, or a bare `∇` closes and recompiles the
// function (editor.c: CompileFun/SaveFun fire only when pfun->fDirty).
func (r *REPL) continueFunctionEdit(line string) {
	if line == "∇" {
		r.closeFunctionEdit()
		return
	}

	if r.editPending.kind != editNone {
		r.fulfillEditPending(line)
		return
	}

	if name, spec, ok := splitEditBracket(line); ok && name == r.editName {
		r.applyEditSpec(spec)
		return
	}
	if spec, ok := strings.CutPrefix(line, "["); ok {
		if spec, ok2 := strings.CutSuffix(spec, "]"); ok2 {
			r.applyEditSpec(spec)
			return
		}
	}
	fmt.Fprintln(r.errOut, "expected a [.] edit directive or ∇ to close")
}

func (r *REPL) closeFunctionEdit() {
	name, headerLine, lines, dirty := r.editName, r.editHeaderLine, r.editLines, r.editDirty
	r.editName, r.editHeaderLine, r.editLines, r.editPending, r.editDirty = "", "", nil, editOp{}, false
	if !dirty {
		return
	}
	obj, err := funccompiler.Compile(headerLine, lines)
	if err != nil {
		fmt.Fprintln(r.errOut, err)
		return
	}
	if err := vm.StoreFunction(r.ws, obj); err != nil {
		fmt.Fprintln(r.errOut, err)
		return
	}
	if r.interactive {
		fmt.Fprintf(r.out, "%s redefined\n", name)
	}
}

// applyEditSpec parses and executes one bracket directive's body against
// the editor.c bracket grammar: `⎕` (display all), `N⎕` (display line
// N), `⎕N` (replace line N), `<N`/`>N` (insert before/after line N),
// `∆N` (delete line N), or bare `N` (position after line N, the append
// form). CHECK_LINE()'s bounds (1..len+1 for insert/position, 1..len
// otherwise) are enforced the same way editor.c's EdtError reports an
// out-of-range line rather than silently clamping it.
func (r *REPL) applyEditSpec(spec string) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "⎕":
		r.printNumberedLines(r.editLines)
		return
	case strings.HasSuffix(spec, "⎕"):
		n, err := strconv.Atoi(strings.TrimSuffix(spec, "⎕"))
		if err != nil || n < 1 || n > len(r.editLines) {
			fmt.Fprintln(r.errOut, "line number out of range")
			return
		}
		r.printNumberedLines(r.editLines[n-1 : n])
		return
	case strings.HasPrefix(spec, "⎕"):
		n, err := strconv.Atoi(strings.TrimPrefix(spec, "⎕"))
		if err != nil || n < 1 || n > len(r.editLines) {
			fmt.Fprintln(r.errOut, "line number out of range")
			return
		}
		r.editPending = editOp{kind: editReplace, n: n}
		return
	case strings.HasPrefix(spec, "∆"):
		n, err := strconv.Atoi(strings.TrimPrefix(spec, "∆"))
		if err != nil || n < 1 || n > len(r.editLines) {
			fmt.Fprintln(r.errOut, "line number out of range")
			return
		}
		r.editLines = append(r.editLines[:n-1], r.editLines[n:]...)
		r.editDirty = true
		return
	case strings.HasPrefix(spec, "<"):
		n, err := strconv.Atoi(strings.TrimPrefix(spec, "<"))
		if err != nil || n < 1 || n > len(r.editLines)+1 {
			fmt.Fprintln(r.errOut, "line number out of range")
			return
		}
		r.editPending = editOp{kind: editInsertBefore, n: n}
		return
	case strings.HasPrefix(spec, ">"):
		n, err := strconv.Atoi(strings.TrimPrefix(spec, ">"))
		if err != nil || n < 1 || n > len(r.editLines)+1 {
			fmt.Fprintln(r.errOut, "line number out of range")
			return
		}
		r.editPending = editOp{kind: editInsertAfter, n: n}
		return
	default:
		n, err := strconv.Atoi(spec)
		if err != nil || n < 1 || n > len(r.editLines)+1 {
			fmt.Fprintln(r.errOut, "line number out of range")
			return
		}
		r.editPending = editOp{kind: editInsertAfter, n: n}
		return
	}
}

func (r *REPL) fulfillEditPending(line string) {
	op := r.editPending
	r.editPending = editOp{}
	switch op.kind {
	case editReplace:
		r.editLines[op.n-1] = line
	case editInsertBefore:
		r.editLines = insertLine(r.editLines, op.n-1, line)
	case editInsertAfter:
		r.editLines = insertLine(r.editLines, op.n, line)
	}
	r.editDirty = true
}

func insertLine(lines []string, at int, line string) []string {
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, line)
	out = append(out, lines[at:]...)
	return out
}

func (r *REPL) printNumberedLines(lines []string) {
	for i, l := range lines {
		fmt.Fprintf(r.out, "[%d] %s\n", i+1, l)
	}
}

func (r *REPL) continueFunctionDef(line string) {
	if line == "∇" {
		obj, err := funccompiler.Compile(r.defHeader, r.defBody)
		r.inDef = false
		r.defHeader, r.defBody = "", nil
		if err != nil {
			fmt.Fprintln(r.errOut, err)
			return
		}
		if err := vm.StoreFunction(r.ws, obj); err != nil {
			fmt.Fprintln(r.errOut, err)
			return
		}
		if r.interactive {
			fmt.Fprintf(r.out, "%s defined\n", obj.Header.Name)
		}
		return
	}
	r.defBody = append(r.defBody, line)
}

// command dispatches a `)`-prefixed system command (spec §6.2), using
// prefix matching so `)cl`, `)clea` etc. all resolve to `)clear`.
func (r *REPL) command(line string) (exitCode int, off bool) {
	fields := strings.Fields(line)
	name := strings.ToLower(strings.TrimPrefix(fields[0], ")"))
	args := fields[1:]

	match := func(full string) bool { return name != "" && strings.HasPrefix(full, name) }

	switch {
	case match("clear"):
		return r.cmdClear(), false
	case match("digits"):
		return r.cmdDigits(args), false
	case match("erase"):
		return r.cmdErase(args), false
	case match("fns"):
		return r.cmdFns(), false
	case match("heap"):
		return r.cmdHeap(), false
	case match("load"):
		return r.cmdLoad(args), false
	case match("mem"):
		return r.cmdMem(args), false
	case match("off"):
		return 0, true
	case match("origin"):
		return r.cmdOrigin(args), false
	case match("save"):
		return r.cmdSave(args), false
	case match("vars"):
		return r.cmdVars(), false
	case match("wsid"):
		return r.cmdWsid(args), false
	case name == "?":
		return r.cmdHelp(), false
	default:
		fmt.Fprintf(r.errOut, "unknown command: %s\n", fields[0])
		return 1, false
	}
}

func (r *REPL) cmdClear() int {
	if err := r.ws.Clear(); err != nil {
		fmt.Fprintln(r.errOut, err)
		return 1
	}
	fmt.Fprintln(r.out, "clear ws")
	return 0
}

func (r *REPL) cmdDigits(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(r.out, r.ws.PP())
		return 0
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(r.errOut, err)
		return 1
	}
	if err := r.ws.SetPP(n); err != nil {
		fmt.Fprintln(r.errOut, err)
		return 1
	}
	return 0
}

func (r *REPL) cmdErase(args []string) int {
	r.ws.Erase(args)
	return 0
}

func (r *REPL) cmdFns() int {
	names := r.ws.Fns()
	sort.Strings(names)
	for _, n := range names {
		obj, err := vm.LoadFunction(r.ws, n)
		if err != nil {
			fmt.Fprintf(r.out, "%-20s ?\n", n)
			continue
		}
		fmt.Fprintf(r.out, "%-20s %s\n", n, obj.Header.Arity())
	}
	return 0
}

func (r *REPL) cmdVars() int {
	names := r.ws.Vars()
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(r.out, n)
	}
	return 0
}

func (r *REPL) cmdOrigin(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(r.out, r.ws.Origin())
		return 0
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(r.errOut, err)
		return 1
	}
	if err := r.ws.SetOrigin(n); err != nil {
		fmt.Fprintln(r.errOut, err)
		return 1
	}
	return 0
}

func (r *REPL) cmdWsid(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(r.out, r.ws.Wsid())
		return 0
	}
	if err := r.ws.SetWsid(args[0]); err != nil {
		fmt.Fprintln(r.errOut, err)
		return 1
	}
	return 0
}

// cmdHeap prints free-list statistics (spec §6.2), sharing the
// kr/pretty tabular style `⎕dbg` tracing uses in internal/vm so the
// two diagnostic surfaces read the same way.
func (r *REPL) cmdHeap() int {
	st := r.ws.Arena.HeapStats()
	avg := uint32(0)
	if st.Blocks > 0 {
		avg = st.TotalLen / uint32(st.Blocks)
	}
	fmt.Fprintf(r.out, "free blocks: %d\n", st.Blocks)
	fmt.Fprintf(r.out, "min/max/avg: %s / %s / %s\n",
		humanize.IBytes(uint64(st.Min)), humanize.IBytes(uint64(st.Max)), humanize.IBytes(uint64(avg)))
	fmt.Fprintf(r.out, "in use:      %s\n", humanize.IBytes(uint64(st.InUseBytes)))
	if r.ws.Dbg() {
		fmt.Fprintf(r.out, "%# v\n", pretty.Formatter(st))
	}
	return 0
}

// cmdMem prints region usage for `)mem [k|m]` (spec §6.2), scaling
// with go-humanize the way an interactive tool reports memory rather
// than raw byte counts.
func (r *REPL) cmdMem(args []string) int {
	h := &r.ws.Arena.Header
	unit := ""
	if len(args) > 0 {
		unit = strings.ToLower(args[0])
	}
	scale := func(n uint32) string {
		switch unit {
		case "k":
			return fmt.Sprintf("%.1fK", float64(n)/1024)
		case "m":
			return fmt.Sprintf("%.2fM", float64(n)/(1024*1024))
		default:
			return humanize.IBytes(uint64(n))
		}
	}
	fmt.Fprintf(r.out, "names:  %s\n", scale(h.NameEnd-h.NameBase))
	fmt.Fprintf(r.out, "heap:   %s\n", scale(h.HeapTop-h.HeapBase))
	fmt.Fprintf(r.out, "stack:  %s\n", scale(h.OpStackBase-h.OpStackTop))
	fmt.Fprintf(r.out, "descs:  %s\n", scale(h.DescTop-h.DescBase))
	fmt.Fprintf(r.out, "temp:   %s\n", scale(h.TempTop-h.TempBase))
	fmt.Fprintf(r.out, "total:  %s\n", scale(uint32(len(r.ws.Arena.Buf))))
	return 0
}

func (r *REPL) cmdHelp() int {
	fmt.Fprintln(r.out, `)clear                reinitialize the workspace
)digits [n]           read or set print precision
)erase name ...       undefine names
)fns                  list defined functions
)heap                 free-list statistics
)load file[@N]        source a file (or driver:dsn[@N])
)mem [k|m]            memory region usage
)off                  terminate
)origin [0|1]         read or set index origin
)save name ... file   save functions as text (or driver:dsn)
)vars                 list defined variables
)wsid [name]          read or set the workspace id
)?                    this help
∇ fun ... ∇           define a new function
∇ fun[⎕]              display fun with line numbers
∇ fun[N⎕]             display line N
∇ fun[⎕N]             replace line N (next line typed)
∇ fun[<N] / [>N]      insert a line before/after line N
∇ fun[∆N]             delete line N`)
	return 0
}

// cmdSave implements `)save name … file` (spec §6.2): emit the named
// functions' source text to file. A `driver:` prefixed target routes
// through internal/wsstore instead of a plain write, additionally
// persisting a binary image snapshot (SPEC_FULL §B/§C).
func (r *REPL) cmdSave(args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(r.errOut, "usage: )save name ... file")
		return 1
	}
	names, target := args[:len(args)-1], args[len(args)-1]

	var b strings.Builder
	for _, n := range names {
		obj, err := vm.LoadFunction(r.ws, n)
		if err != nil {
			fmt.Fprintln(r.errOut, err)
			return 1
		}
		b.WriteString(obj.Text())
		b.WriteByte('\n')
	}
	source := b.String()

	if driver, dsn, ok := wsstore.ParseTarget(target); ok {
		store, err := wsstore.Open(driver, dsn)
		if err != nil {
			fmt.Fprintln(r.errOut, err)
			return 1
		}
		defer store.Close()
		if err := store.Save(r.ws.Wsid(), source, r.ws.Arena.Image(), saveTimestamp()); err != nil {
			fmt.Fprintln(r.errOut, err)
			return 1
		}
		return 0
	}

	if err := os.WriteFile(target, []byte(source), 0644); err != nil {
		fmt.Fprintln(r.errOut, err)
		return 1
	}
	return 0
}

// saveTimestamp is a seam over time.Now so a future test can stub it.
var saveTimestamp = time.Now

// cmdLoad implements `)load file` (spec §6.2/§6.3). A `driver:` target
// (optionally `@N`) restores from internal/wsstore: the binary image is
// tried first (a full-state restore §6.4 describes, not otherwise
// reachable from the REPL), falling back to replaying the saved
// source text if the image can't be decoded (format/version mismatch).
func (r *REPL) cmdLoad(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(r.errOut, "usage: )load file")
		return 1
	}
	target := args[0]

	rawTarget, n := splitAtSuffix(target)
	if driver, dsn, ok := wsstore.ParseTarget(rawTarget); ok {
		store, err := wsstore.Open(driver, dsn)
		if err != nil {
			fmt.Fprintln(r.errOut, err)
			return 1
		}
		defer store.Close()
		entry, err := store.Load(r.ws.Wsid(), n)
		if err != nil {
			fmt.Fprintln(r.errOut, err)
			return 1
		}
		if a, err := memory.LoadImage(entry.Image, r.ws.Size); err == nil {
			r.ws.Arena = a
			return 0
		}
		if err := r.loadSource(entry.Source); err != nil {
			fmt.Fprintln(r.errOut, err)
			return 1
		}
		return 0
	}

	if err := r.LoadFile(target); err != nil {
		fmt.Fprintln(r.errOut, err)
		return 1
	}
	return 0
}

// splitAtSuffix pulls a trailing `@N` history selector off a )load
// target, returning n=0 ("latest") when none is present.
func splitAtSuffix(target string) (path string, n int) {
	at := strings.LastIndexByte(target, '@')
	if at < 0 {
		return target, 0
	}
	v, err := strconv.Atoi(target[at+1:])
	if err != nil {
		return target, 0
	}
	return target[:at], v
}
