package lexer

import (
	"strconv"
	"strings"
	"unicode"

	aplerrors "github.com/sigfpe8/toy-apl/internal/errors"
	"github.com/sigfpe8/toy-apl/internal/token"
)

const maxStringLen = 255
const maxNameLen = 64

// Tokenize scans one source line into raw tokens (spec §4.9). Numbers
// are grouped into KArr whenever two or more appear back to back
// separated only by blanks, matching APL's vector-literal notation
// (`1 2 3`).
func Tokenize(line string, lineNo int) ([]Tok, error) {
	r := []rune(line)
	i := 0
	var toks []Tok

	for i < len(r) {
		c := r[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '⍝':
			i = len(r) // line comment: rest of line ignored
		case c == '⋄':
			toks = append(toks, Tok{Kind: KDiamond, Line: lineNo, Col: i})
			i++
		case c == '(':
			toks = append(toks, Tok{Kind: KLParen, Line: lineNo, Col: i})
			i++
		case c == ')':
			toks = append(toks, Tok{Kind: KRParen, Line: lineNo, Col: i})
			i++
		case c == '[':
			toks = append(toks, Tok{Kind: KLBracket, Line: lineNo, Col: i})
			i++
		case c == ']':
			toks = append(toks, Tok{Kind: KRBracket, Line: lineNo, Col: i})
			i++
		case c == ';':
			toks = append(toks, Tok{Kind: KAxisSep, Line: lineNo, Col: i})
			i++
		case c == '→':
			toks = append(toks, Tok{Kind: KBranchArrow, Line: lineNo, Col: i})
			i++
		case c == '\'':
			tk, n, err := scanString(r[i:], lineNo, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tk)
			i += n
		case c == '⎕':
			tk, n, err := scanSysName(r[i:], lineNo, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tk)
			i += n
		case isNumStart(r, i):
			tk, n, err := scanNumberGroup(r[i:], lineNo, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tk)
			i += n
		case isNameStart(c):
			tk, n, err := scanName(r[i:], lineNo, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tk)
			i += n
		default:
			if e, ok := token.Lookup(c); ok {
				toks = append(toks, Tok{Kind: KGlyph, Op: e.Op, Line: lineNo, Col: i})
				i++
				continue
			}
			return nil, aplerrors.Lex(aplerrors.BadToken, "unrecognized token %q", string(c)).WithLine(lineNo, i)
		}
	}
	return toks, nil
}

func isNameStart(c rune) bool {
	return unicode.IsLetter(c) || c == '∆' || c == '_'
}

func isNameCont(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '∆' || c == '_'
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

// isNumStart reports whether position i begins a numeric literal:
// a digit, a high-minus followed by a digit or dot, or a bare dot
// followed by a digit.
func isNumStart(r []rune, i int) bool {
	c := r[i]
	if isDigit(c) {
		return true
	}
	if c == '¯' && i+1 < len(r) && (isDigit(r[i+1]) || r[i+1] == '.') {
		return true
	}
	if c == '.' && i+1 < len(r) && isDigit(r[i+1]) {
		return true
	}
	return false
}

// scanOneNumber scans a single numeric literal starting at r[0] and
// returns its value and length in runes.
func scanOneNumber(r []rune, lineNo, col int) (float64, int, error) {
	i := 0
	var b strings.Builder
	if i < len(r) && r[i] == '¯' {
		b.WriteByte('-')
		i++
	}
	start := i
	for i < len(r) && isDigit(r[i]) {
		b.WriteRune(r[i])
		i++
	}
	hasInt := i > start
	hasFrac := false
	if i < len(r) && r[i] == '.' {
		b.WriteByte('.')
		i++
		fstart := i
		for i < len(r) && isDigit(r[i]) {
			b.WriteRune(r[i])
			i++
		}
		hasFrac = i > fstart
	}
	if !hasInt && !hasFrac {
		return 0, 0, aplerrors.Lex(aplerrors.BadNumber, "malformed number").WithLine(lineNo, col)
	}
	if i < len(r) && (r[i] == 'E' || r[i] == 'e') {
		b.WriteByte('E')
		i++
		if i < len(r) && r[i] == '¯' {
			b.WriteByte('-')
			i++
		} else if i < len(r) && r[i] == '+' {
			i++
		}
		estart := i
		for i < len(r) && isDigit(r[i]) {
			b.WriteRune(r[i])
			i++
		}
		if i == estart {
			return 0, 0, aplerrors.Lex(aplerrors.BadNumber, "malformed exponent").WithLine(lineNo, col)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, 0, aplerrors.Lex(aplerrors.BadNumber, "malformed number %q", b.String()).WithLine(lineNo, col)
	}
	return v, i, nil
}

// scanNumberGroup scans one or more blank-separated numbers into a
// single token: KNum if there is exactly one, KArr otherwise.
func scanNumberGroup(r []rune, lineNo, col int) (Tok, int, error) {
	var nums []float64
	i := 0
	for {
		v, n, err := scanOneNumber(r[i:], lineNo, col+i)
		if err != nil {
			return Tok{}, 0, err
		}
		nums = append(nums, v)
		i += n
		// allow one or more blanks to separate the next number in the group
		j := i
		for j < len(r) && r[j] == ' ' {
			j++
		}
		if j > i && j < len(r) && isNumStart(r, j) {
			i = j
			continue
		}
		break
	}
	if len(nums) == 1 {
		return Tok{Kind: KNum, Num: nums[0], Line: lineNo, Col: col}, i, nil
	}
	return Tok{Kind: KArr, Nums: nums, Line: lineNo, Col: col}, i, nil
}

// scanString scans a single-quoted string literal, `''` being an
// embedded quote, and classifies length-1 results as a character
// literal rather than a string (spec §4.9's CHR/STR distinction).
func scanString(r []rune, lineNo, col int) (Tok, int, error) {
	i := 1 // skip opening quote
	var b []rune
	for {
		if i >= len(r) {
			return Tok{}, 0, aplerrors.Lex(aplerrors.BadString, "unterminated string").WithLine(lineNo, col)
		}
		if r[i] == '\'' {
			if i+1 < len(r) && r[i+1] == '\'' {
				b = append(b, '\'')
				i += 2
				continue
			}
			i++
			break
		}
		b = append(b, r[i])
		i++
	}
	if len(string(b)) > maxStringLen {
		return Tok{}, 0, aplerrors.Lex(aplerrors.StringTooLong, "string exceeds %d bytes", maxStringLen).WithLine(lineNo, col)
	}
	if len(b) == 1 {
		return Tok{Kind: KChr, Chr: b[0], Line: lineNo, Col: col}, i, nil
	}
	return Tok{Kind: KStr, Str: string(b), Line: lineNo, Col: col}, i, nil
}

// scanName scans an identifier: letter/∆/_ then alphanumerics/∆/_.
func scanName(r []rune, lineNo, col int) (Tok, int, error) {
	i := 0
	for i < len(r) && isNameCont(r[i]) {
		i++
	}
	if i > maxNameLen {
		return Tok{}, 0, aplerrors.Lex(aplerrors.BadName, "name exceeds %d characters", maxNameLen).WithLine(lineNo, col)
	}
	return Tok{Kind: KName, Str: string(r[:i]), Line: lineNo, Col: col}, i, nil
}

// scanSysName scans `⎕` followed by a system name and resolves it
// immediately against the case-insensitive system-name table (spec
// §4.8).
func scanSysName(r []rune, lineNo, col int) (Tok, int, error) {
	i := 1
	start := i
	for i < len(r) && isNameCont(r[i]) {
		i++
	}
	name := string(r[start:i])
	if name == "" {
		return Tok{}, 0, aplerrors.Lex(aplerrors.BadSystemName, "empty system name").WithLine(lineNo, col)
	}
	if _, ok := token.LookupSysName(name); !ok {
		return Tok{}, 0, aplerrors.Lex(aplerrors.BadSystemName, "unknown system name ⎕%s", name).WithLine(lineNo, col)
	}
	return Tok{Kind: KSysName, Str: name, Line: lineNo, Col: col}, i, nil
}
