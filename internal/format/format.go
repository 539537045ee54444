// Package format implements the numeric formatter of spec §4.13 (C13):
// turning a workspace value into the character matrix the REPL prints,
// honouring ⎕pp (print precision) and the dyadic `⍕` column-width/
// decimal-places left operand.
package format

import (
	"math"
	"strconv"
	"strings"

	"github.com/sigfpe8/toy-apl/internal/arrayfn"
)

// Number renders a single float64 using APL's high-minus convention and
// trims to pp significant digits, switching to exponential notation
// when the magnitude would otherwise overflow pp digits (spec §4.13.1).
func Number(x float64, pp int) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	neg := x < 0 || (x == 0 && math.Signbit(x))
	ax := math.Abs(x)

	var s string
	if ax != 0 && (ax < 1e-5 || ax >= math.Pow(10, float64(pp))) {
		s = strconv.FormatFloat(ax, 'E', pp-1, 64)
		s = trimExponential(s)
	} else {
		s = strconv.FormatFloat(ax, 'f', -1, 64)
		s = roundSignificant(s, pp)
	}
	if neg {
		s = "¯" + s
	}
	return s
}

// trimExponential rewrites Go's "1.234560E+02" into APL style
// "1.23456E2", stripping trailing zeros in the mantissa and the '+'
// sign (negative exponents get the high-minus too).
func trimExponential(s string) string {
	parts := strings.SplitN(s, "E", 2)
	mant := strings.TrimRight(parts[0], "0")
	mant = strings.TrimRight(mant, ".")
	exp := parts[1]
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimPrefix(exp, "+")
	exp = strings.TrimPrefix(exp, "-")
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	if neg {
		exp = "¯" + exp
	}
	return mant + "E" + exp
}

// roundSignificant trims a plain decimal string to pp significant
// digits and removes a trailing decimal point/zeros.
func roundSignificant(s string, pp int) string {
	digits := 0
	seenNonZero := false
	var b strings.Builder
	dotSeen := false
	for _, c := range s {
		if c == '.' {
			b.WriteRune(c)
			dotSeen = true
			continue
		}
		if digits >= pp && (seenNonZero || dotSeen) {
			break
		}
		if c != '0' {
			seenNonZero = true
		}
		if seenNonZero || !dotSeen {
			digits++
		}
		b.WriteRune(c)
	}
	out := b.String()
	if strings.Contains(out, ".") {
		out = strings.TrimRight(out, "0")
		out = strings.TrimRight(out, ".")
	}
	if out == "" {
		out = "0"
	}
	return out
}

// Monadic implements `⍕` with no left operand: render v as its default
// character matrix, one column per cell of the last axis, columns
// separated by one blank, right-justified to the widest cell (spec
// §4.13.2's "default column-pass algorithm").
func Monadic(v arrayfn.Value, pp int) []string {
	cells := cellsOf(v, pp)
	return layoutColumns(cells, v.Shape)
}

// Dyadic implements `L⍕A`: L is 1, 2, or 2×ncols and supplies field
// width (and decimal places) per column (spec §4.13.2).
func Dyadic(l []float64, v arrayfn.Value) []string {
	cells := make([]string, v.NElem())
	ncols := 1
	if v.Rank() >= 1 {
		ncols = v.Shape[len(v.Shape)-1]
	}
	width := func(col int) (int, int) {
		switch {
		case len(l) == 1:
			return int(l[0]), -1
		case len(l) == 2:
			return int(l[0]), int(l[1])
		default:
			return int(l[2*col]), int(l[2*col+1])
		}
	}
	for i := range cells {
		col := i % ncols
		w, dec := width(col)
		var s string
		if v.Kind == arrayfn.KindChar {
			s = string(v.Chars[i])
		} else if dec >= 0 {
			s = strconv.FormatFloat(v.Nums[i], 'f', dec, 64)
			if v.Nums[i] < 0 {
				s = "¯" + strings.TrimPrefix(s, "-")
			}
		} else {
			s = Number(v.Nums[i], 10)
		}
		if len([]rune(s)) > w {
			s = strings.Repeat("*", w)
		} else {
			s = strings.Repeat(" ", w-len([]rune(s))) + s
		}
		cells[i] = s
	}
	return layoutColumns(cells, v.Shape)
}

func cellsOf(v arrayfn.Value, pp int) []string {
	n := v.NElem()
	cells := make([]string, n)
	for i := 0; i < n; i++ {
		if v.Kind == arrayfn.KindChar {
			cells[i] = string(v.Chars[i])
		} else {
			cells[i] = Number(v.Nums[i], pp)
		}
	}
	return cells
}

// layoutColumns right-justifies cells to a common width per logical row
// of the last axis and joins rows for rank>=2 shapes with a newline
// between outer-axis slices (spec §4.13.2: "rows of a matrix are
// printed one per line").
func layoutColumns(cells []string, shape []int) []string {
	if len(shape) == 0 {
		return cells
	}
	ncols := shape[len(shape)-1]
	if ncols == 0 {
		return []string{""}
	}
	width := 0
	for _, c := range cells {
		if n := len([]rune(c)); n > width {
			width = n
		}
	}
	nrows := len(cells) / ncols
	out := make([]string, nrows)
	for r := 0; r < nrows; r++ {
		parts := make([]string, ncols)
		for c := 0; c < ncols; c++ {
			cell := cells[r*ncols+c]
			pad := width - len([]rune(cell))
			parts[c] = strings.Repeat(" ", pad) + cell
		}
		out[r] = strings.Join(parts, " ")
	}
	return out
}
