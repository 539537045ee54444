// Package errors implements spec §7's three-class error model: every
// failure the core reports carries a Class (Lexical / Evaluation /
// Editor), a stable Code drawn from spec.md's tag list, and a message.
// It also implements the recovery-point stack of §7/§9 that the REPL,
// file loader, function-call path and ⍎ use to unwind.
package errors

import "fmt"

// Class groups error codes per spec §7.
type Class string

const (
	Lexical    Class = "lexical"
	Evaluation Class = "evaluation"
	Editor     Class = "editor"
)

// Code is one of the tags enumerated in spec.md §7.
type Code string

const (
	// Lexical
	BadToken               Code = "bad-token"
	BadNumber              Code = "bad-number"
	BadString              Code = "bad-string"
	CodeFull               Code = "code-full"
	TooManyLiterals        Code = "too-many-literals"
	BadName                Code = "bad-name"
	BadFunctionHeader      Code = "bad-function-header"
	BadDelCommand          Code = "bad-del-command"
	BadLabel               Code = "bad-label"
	NameConflict           Code = "name-conflict"
	FunctionNotDefined     Code = "function-not-defined"
	FunctionAlreadyDefined Code = "function-already-defined"
	StringTooLong          Code = "string-too-long"
	BadSystemName          Code = "bad-system-name"

	// Evaluation
	NotAtom            Code = "not-atom"
	BadFunction        Code = "bad-function"
	UnmatchedParen     Code = "unmatched-paren"
	Domain             Code = "domain"
	NotConformable     Code = "not-conformable"
	StackOverflow      Code = "stack-overflow"
	ArrayOverflow      Code = "array-overflow"
	DivideByZero       Code = "divide-by-zero"
	NameTableFull      Code = "name-table-full"
	UndefinedVariable  Code = "undefined-variable"
	DescriptorPoolFull Code = "descriptor-pool-full"
	HeapFull           Code = "heap-full"
	UnmatchedBrackets  Code = "unmatched-brackets"
	InvalidIndex       Code = "invalid-index"
	NoReturnValue      Code = "no-return-value"
	SyntaxError        Code = "syntax-error"
	Rank               Code = "rank"
	Length             Code = "length"
	NotImplemented     Code = "not-implemented"
	InvalidAxis        Code = "invalid-axis"
	ReadOnlySystemVar  Code = "read-only-system-variable"
	NoValue            Code = "no-value"

	// Editor
	FunctionTooBig Code = "function-too-big"
	BadLineNumber  Code = "bad-line-number"
	BadEditCommand Code = "bad-edit-command"
)

// InterpError is the one error type every fallible core operation
// returns instead of using panic/longjmp-style control flow (spec §9).
type InterpError struct {
	Class   Class
	Code    Code
	Message string
	Line    int
	Column  int
}

func (e *InterpError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (%s) at line %d: %s", e.Code, e.Class, e.Line, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Code, e.Class, e.Message)
}

func New(class Class, code Code, format string, args ...interface{}) *InterpError {
	return &InterpError{Class: class, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Lex(code Code, format string, args ...interface{}) *InterpError {
	return New(Lexical, code, format, args...)
}

func Eval(code Code, format string, args ...interface{}) *InterpError {
	return New(Evaluation, code, format, args...)
}

func Edit(code Code, format string, args ...interface{}) *InterpError {
	return New(Editor, code, format, args...)
}

// WithLine attaches a source location, used by the lexer and editor paths.
func (e *InterpError) WithLine(line, col int) *InterpError {
	e.Line, e.Column = line, col
	return e
}
