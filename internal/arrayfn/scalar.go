package arrayfn

import "math"

// scalarDyadic applies f pointwise over a and b under APL scalar
// extension (spec §4.12.1): equal shapes pair up elements; either
// operand being a scalar broadcasts against every element of the
// other; anything else is *not-conformable*.
func scalarDyadic(a, b Value, f func(x, y float64) (float64, error)) (Value, error) {
	switch {
	case a.IsScalar() && b.IsScalar():
		r, err := f(a.scalarElemNum(), b.scalarElemNum())
		if err != nil {
			return Value{}, err
		}
		return Scalar(r), nil
	case a.IsScalar():
		out := make([]float64, b.NElem())
		for i := range out {
			r, err := f(a.scalarElemNum(), b.Nums[i])
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return Value{Kind: KindNumber, Shape: b.Shape, Nums: out}, nil
	case b.IsScalar():
		out := make([]float64, a.NElem())
		for i := range out {
			r, err := f(a.Nums[i], b.scalarElemNum())
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return Value{Kind: KindNumber, Shape: a.Shape, Nums: out}, nil
	default:
		if !sameShape(a.Shape, b.Shape) {
			return Value{}, errNotConformable(a.Shape, b.Shape)
		}
		out := make([]float64, a.NElem())
		for i := range out {
			r, err := f(a.Nums[i], b.Nums[i])
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return Value{Kind: KindNumber, Shape: a.Shape, Nums: out}, nil
	}
}

func scalarMonadic(a Value, f func(x float64) (float64, error)) (Value, error) {
	if a.IsScalar() {
		r, err := f(a.scalarElemNum())
		if err != nil {
			return Value{}, err
		}
		return Scalar(r), nil
	}
	out := make([]float64, a.NElem())
	for i := range out {
		r, err := f(a.Nums[i])
		if err != nil {
			return Value{}, err
		}
		out[i] = r
	}
	return Value{Kind: KindNumber, Shape: a.Shape, Nums: out}, nil
}

func boolOf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func within(ct, x, y float64) bool {
	if x == y {
		return true
	}
	scale := math.Max(math.Abs(x), math.Abs(y))
	return math.Abs(x-y) <= ct*scale
}

// Add / Subtract / Multiply / Divide implement `+ - × ÷` (spec §4.12.3).
func Add(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) { return x + y, nil })
}

func Negate(a Value) (Value, error) {
	return scalarMonadic(a, func(x float64) (float64, error) { return -x, nil })
}

func Subtract(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) { return x - y, nil })
}

func Multiply(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) { return x * y, nil })
}

func Signum(a Value) (Value, error) {
	return scalarMonadic(a, func(x float64) (float64, error) {
		switch {
		case x > 0:
			return 1, nil
		case x < 0:
			return -1, nil
		default:
			return 0, nil
		}
	})
}

func Divide(ct float64, a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) {
		if within(ct, y, 0) {
			if within(ct, x, 0) {
				return 1, nil // 0÷0 = 1 per classic APL convention
			}
			return 0, errDomain("divide by zero")
		}
		return x / y, nil
	})
}

func Reciprocal(ct float64, a Value) (Value, error) {
	return scalarMonadic(a, func(x float64) (float64, error) {
		if within(ct, x, 0) {
			return 0, errDomain("divide by zero")
		}
		return 1 / x, nil
	})
}

// Ceiling / Floor implement `⌈ ⌊` (spec §4.12.3), each also dyadic
// max/min.
func Ceiling(a Value) (Value, error) { return scalarMonadic(a, func(x float64) (float64, error) { return math.Ceil(x), nil }) }
func Floor(a Value) (Value, error)   { return scalarMonadic(a, func(x float64) (float64, error) { return math.Floor(x), nil }) }
func Max(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) { return math.Max(x, y), nil })
}
func Min(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) { return math.Min(x, y), nil })
}

func Power(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) { return math.Pow(x, y), nil })
}
func Exp(a Value) (Value, error) { return scalarMonadic(a, func(x float64) (float64, error) { return math.Exp(x), nil }) }

func Log(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) {
		if x <= 0 || y <= 0 {
			return 0, errDomain("log of non-positive number")
		}
		return math.Log(y) / math.Log(x), nil
	})
}
func Ln(a Value) (Value, error) {
	return scalarMonadic(a, func(x float64) (float64, error) {
		if x <= 0 {
			return 0, errDomain("log of non-positive number")
		}
		return math.Log(x), nil
	})
}

func Residue(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) {
		if x == 0 {
			return y, nil
		}
		r := math.Mod(y, x)
		if r != 0 && (r < 0) != (x < 0) {
			r += x
		}
		return r, nil
	})
}

func Factorial(a Value) (Value, error) {
	return scalarMonadic(a, func(x float64) (float64, error) {
		if x < 0 || x != math.Trunc(x) {
			return math.Gamma(x + 1), nil
		}
		r := 1.0
		for i := 2.0; i <= x; i++ {
			r *= i
		}
		return r, nil
	})
}

func BinomialCoefficient(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(n, k float64) (float64, error) {
		fn, _ := Factorial(Scalar(n))
		fk, _ := Factorial(Scalar(k))
		fnk, _ := Factorial(Scalar(n - k))
		return fn.Nums[0] / (fk.Nums[0] * fnk.Nums[0]), nil
	})
}

// Circle implements the dyadic circular-function family `○` (spec
// §4.12.3): the left argument selects the function by the classic APL
// case table.
func Circle(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(fn, x float64) (float64, error) {
		switch int(fn) {
		case 0:
			return math.Sqrt(1 - x*x), nil
		case 1:
			return math.Sin(x), nil
		case 2:
			return math.Cos(x), nil
		case 3:
			return math.Tan(x), nil
		case -1:
			return math.Asin(x), nil
		case -2:
			return math.Acos(x), nil
		case -3:
			return math.Atan(x), nil
		case 5:
			return math.Sinh(x), nil
		case 6:
			return math.Cosh(x), nil
		case 7:
			return math.Tanh(x), nil
		case -5:
			return math.Asinh(x), nil
		case -6:
			return math.Acosh(x), nil
		case -7:
			return math.Atanh(x), nil
		default:
			return 0, errDomain("unsupported circular function code")
		}
	})
}
func PiTimes(a Value) (Value, error) { return scalarMonadic(a, func(x float64) (float64, error) { return math.Pi * x, nil }) }

// Boolean / relational family: `∧ ∨ ⍲ ⍱ < = > ≤ ≠ ≥ ~` (spec §4.12.3).
func And(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) { return boolOf(x != 0 && y != 0), nil })
}
func Or(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) { return boolOf(x != 0 || y != 0), nil })
}
func Nand(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) { return boolOf(!(x != 0 && y != 0)), nil })
}
func Nor(a, b Value) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) { return boolOf(!(x != 0 || y != 0)), nil })
}
func Not(a Value) (Value, error) {
	return scalarMonadic(a, func(x float64) (float64, error) {
		if x != 0 && x != 1 {
			return 0, errDomain("~ requires boolean operand")
		}
		return boolOf(x == 0), nil
	})
}

func relational(ct float64, a, b Value, cmp func(x, y float64, eq bool) bool) (Value, error) {
	return scalarDyadic(a, b, func(x, y float64) (float64, error) {
		return boolOf(cmp(x, y, within(ct, x, y))), nil
	})
}

func Less(ct float64, a, b Value) (Value, error) {
	return relational(ct, a, b, func(x, y float64, eq bool) bool { return !eq && x < y })
}
func LessEqual(ct float64, a, b Value) (Value, error) {
	return relational(ct, a, b, func(x, y float64, eq bool) bool { return eq || x < y })
}
func Equal(ct float64, a, b Value) (Value, error) {
	return relational(ct, a, b, func(x, y float64, eq bool) bool { return eq })
}
func NotEqual(ct float64, a, b Value) (Value, error) {
	return relational(ct, a, b, func(x, y float64, eq bool) bool { return !eq })
}
func GreaterEqual(ct float64, a, b Value) (Value, error) {
	return relational(ct, a, b, func(x, y float64, eq bool) bool { return eq || x > y })
}
func Greater(ct float64, a, b Value) (Value, error) {
	return relational(ct, a, b, func(x, y float64, eq bool) bool { return !eq && x > y })
}
