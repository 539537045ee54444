package arrayfn

import "math/rand"

// DyadicFn is the shape every primitive dyadic scalar function has once
// bound to its comparison tolerance/origin context, used as the
// building block the `/` `\` reduce/scan operators and inner/outer
// product compose over (spec §4.12.1's "primitive functions are the
// operands of operators").
type DyadicFn func(a, b Value) (Value, error)

// Reduce implements `f/v` along the last axis of a vector (spec
// §4.12.6): v[0] f (v[1] f (... f v[n-1])), i.e. right-to-left. An
// empty operand is a domain error; no identity element is supplied.
func Reduce(f DyadicFn, v Value) (Value, error) {
	if v.Rank() > 1 {
		return Value{}, errRank("reduce over rank>1 requires an [axis]")
	}
	n := v.NElem()
	if n == 0 {
		return Value{}, errDomain("reduction of empty vector requires an identity element")
	}
	acc := elemAt(v, n-1)
	for i := n - 2; i >= 0; i-- {
		r, err := f(elemAt(v, i), acc)
		if err != nil {
			return Value{}, err
		}
		acc = r
	}
	return acc, nil
}

// Scan implements `f\v`: all prefix reductions, same length as v;
// element i is the right-to-left reduction of v[0..i].
func Scan(f DyadicFn, v Value) (Value, error) {
	if v.Rank() > 1 {
		return Value{}, errRank("scan over rank>1 requires an [axis]")
	}
	n := v.NElem()
	out := make([]float64, n)
	if n == 0 {
		return Vector(out), nil
	}
	for i := 0; i < n; i++ {
		acc := elemAt(v, i)
		for j := i - 1; j >= 0; j-- {
			r, err := f(elemAt(v, j), acc)
			if err != nil {
				return Value{}, err
			}
			acc = r
		}
		out[i] = acc.scalarElemNum()
	}
	return Vector(out), nil
}

func elemAt(v Value, i int) Value {
	if v.Kind == KindChar {
		return CharScalar(v.Chars[i])
	}
	return Scalar(v.Nums[i])
}

// InnerProduct implements `a f.g b` for vectors (spec §4.12.9): the
// matrix-style generalization is left to rank<=2 operands, reduced
// with f over the pairwise g of corresponding rows/columns.
func InnerProduct(f, g DyadicFn, a, b Value) (Value, error) {
	if a.Rank() <= 1 && b.Rank() <= 1 {
		if a.NElem() != b.NElem() {
			return Value{}, errLength(".  inner product length mismatch")
		}
		terms := make([]float64, a.NElem())
		for i := range terms {
			r, err := g(elemAt(a, i), elemAt(b, i))
			if err != nil {
				return Value{}, err
			}
			terms[i] = r.scalarElemNum()
		}
		return Reduce(f, Vector(terms))
	}
	if a.Rank() != 2 || b.Rank() != 2 || a.Shape[1] != b.Shape[0] {
		return Value{}, errNotConformable(a.Shape, b.Shape)
	}
	rows, mid, cols := a.Shape[0], a.Shape[1], b.Shape[1]
	out := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			terms := make([]float64, mid)
			for k := 0; k < mid; k++ {
				gv, err := g(Scalar(a.Nums[r*mid+k]), Scalar(b.Nums[k*cols+c]))
				if err != nil {
					return Value{}, err
				}
				terms[k] = gv.scalarElemNum()
			}
			red, err := Reduce(f, Vector(terms))
			if err != nil {
				return Value{}, err
			}
			out[r*cols+c] = red.scalarElemNum()
		}
	}
	return Value{Kind: KindNumber, Shape: []int{rows, cols}, Nums: out}, nil
}

// OuterProduct implements `a ∘.f b`: every pairing of an element of a
// with an element of b, shaped Shape(a)‖Shape(b) (spec §4.12.9).
func OuterProduct(f DyadicFn, a, b Value) (Value, error) {
	na, nb := a.NElem(), b.NElem()
	out := make([]float64, na*nb)
	for i := 0; i < na; i++ {
		for j := 0; j < nb; j++ {
			r, err := f(elemAt(a, i), elemAt(b, j))
			if err != nil {
				return Value{}, err
			}
			out[i*nb+j] = r.scalarElemNum()
		}
	}
	shape := append(append([]int(nil), a.Shape...), b.Shape...)
	if len(shape) == 0 {
		shape = []int{}
	}
	return Value{Kind: KindNumber, Shape: shape, Nums: out}, nil
}

// Deal implements dyadic `?` (spec §4.12.10): n distinct random
// integers drawn from origin..origin+domain-1, the APL "random deal".
func Deal(origin, n, domain int) (Value, error) {
	if n < 0 || n > domain {
		return Value{}, errDomain("? left argument must not exceed right argument")
	}
	pool := make([]int, domain)
	for i := range pool {
		pool[i] = origin + i
	}
	rand.Shuffle(domain, func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(pool[i])
	}
	return Vector(out), nil
}

// Roll implements monadic `?`: one random integer in origin..origin+n-1.
func Roll(origin, n int) (Value, error) {
	if n <= 0 {
		return Value{}, errDomain("? right argument must be positive")
	}
	return Scalar(float64(origin + rand.Intn(n))), nil
}
