package arrayfn

import "testing"

func TestAddScalarExtension(t *testing.T) {
	v, err := Add(Scalar(1), Vector([]float64{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if v.Nums[i] != w {
			t.Fatalf("got %v want %v", v.Nums, want)
		}
	}
}

func TestDivideByZero(t *testing.T) {
	if _, err := Divide(1e-13, Scalar(1), Scalar(0)); err == nil {
		t.Fatal("expected domain error")
	}
	v, err := Divide(1e-13, Scalar(0), Scalar(0))
	if err != nil || v.Nums[0] != 1 {
		t.Fatalf("0÷0 should be 1, got %v err %v", v, err)
	}
}

func TestIotaVector(t *testing.T) {
	v, err := Iota(1, Scalar(3))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3}
	for i, w := range want {
		if v.Nums[i] != w {
			t.Fatalf("got %v want %v", v.Nums, want)
		}
	}
}

func TestReshapeCycles(t *testing.T) {
	v, err := Reshape(Vector([]float64{2, 3}), Vector([]float64{1, 2}))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 1, 2, 1, 2}
	for i, w := range want {
		if v.Nums[i] != w {
			t.Fatalf("got %v want %v", v.Nums, want)
		}
	}
}

func TestTakeOverAndUnderflow(t *testing.T) {
	v, err := Take(Scalar(5), Vector([]float64{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Nums) != 5 || v.Nums[4] != 0 {
		t.Fatalf("got %v", v.Nums)
	}
	v2, err := Take(Scalar(-2), Vector([]float64{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2, 3}
	for i, w := range want {
		if v2.Nums[i] != w {
			t.Fatalf("got %v want %v", v2.Nums, want)
		}
	}
}

func TestRotate(t *testing.T) {
	v, err := Rotate(Scalar(2), Vector([]float64{1, 2, 3, 4, 5}))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{3, 4, 5, 1, 2}
	for i, w := range want {
		if v.Nums[i] != w {
			t.Fatalf("got %v want %v", v.Nums, want)
		}
	}
}

func TestCompressExpand(t *testing.T) {
	mask := Vector([]float64{1, 0, 1, 1})
	v := Vector([]float64{10, 20, 30, 40})
	c, err := Compress(mask, v)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{10, 30, 40}
	for i, w := range want {
		if c.Nums[i] != w {
			t.Fatalf("got %v want %v", c.Nums, want)
		}
	}
	e, err := Expand(mask, c)
	if err != nil {
		t.Fatal(err)
	}
	wantE := []float64{10, 0, 30, 40}
	for i, w := range wantE {
		if e.Nums[i] != w {
			t.Fatalf("got %v want %v", e.Nums, wantE)
		}
	}
}

func TestGradeUp(t *testing.T) {
	v, err := GradeUp(1, Vector([]float64{30, 10, 20}))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2, 3, 1}
	for i, w := range want {
		if v.Nums[i] != w {
			t.Fatalf("got %v want %v", v.Nums, want)
		}
	}
}

func TestIndexOfAndMembership(t *testing.T) {
	a := Vector([]float64{10, 20, 30})
	r, err := IndexOf(1, a, Vector([]float64{20, 99}))
	if err != nil {
		t.Fatal(err)
	}
	if r.Nums[0] != 2 || r.Nums[1] != 4 {
		t.Fatalf("got %v", r.Nums)
	}
	m, err := Membership(Vector([]float64{20, 99}), a)
	if err != nil {
		t.Fatal(err)
	}
	if m.Nums[0] != 1 || m.Nums[1] != 0 {
		t.Fatalf("got %v", m.Nums)
	}
}

func TestDecodeEncode(t *testing.T) {
	d, err := Decode(Vector([]float64{24, 60, 60}), Vector([]float64{1, 30, 0}))
	if err != nil {
		t.Fatal(err)
	}
	if d.Nums[0] != 5400 {
		t.Fatalf("got %v", d.Nums)
	}
	e, err := Encode(Vector([]float64{24, 60, 60}), Scalar(5400))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 30, 0}
	for i, w := range want {
		if e.Nums[i] != w {
			t.Fatalf("got %v want %v", e.Nums, want)
		}
	}
}

func TestReduceAndScan(t *testing.T) {
	v := Vector([]float64{1, 2, 3, 4})
	r, err := Reduce(Add, v)
	if err != nil {
		t.Fatal(err)
	}
	if r.Nums[0] != 10 {
		t.Fatalf("got %v", r.Nums)
	}
	s, err := Scan(Add, v)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 3, 6, 10}
	for i, w := range want {
		if s.Nums[i] != w {
			t.Fatalf("got %v want %v", s.Nums, want)
		}
	}
}

func TestTransposeMatrix(t *testing.T) {
	m := Value{Kind: KindNumber, Shape: []int{2, 3}, Nums: []float64{1, 2, 3, 4, 5, 6}}
	tr, err := Transpose(m)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Shape[0] != 3 || tr.Shape[1] != 2 {
		t.Fatalf("got shape %v", tr.Shape)
	}
	want := []float64{1, 4, 2, 5, 3, 6}
	for i, w := range want {
		if tr.Nums[i] != w {
			t.Fatalf("got %v want %v", tr.Nums, want)
		}
	}
}

func TestMatrixDivideIdentity(t *testing.T) {
	id := Value{Kind: KindNumber, Shape: []int{2, 2}, Nums: []float64{1, 0, 0, 1}}
	rhs := Vector([]float64{3, 5})
	x, err := MatrixDivide(rhs, id)
	if err != nil {
		t.Fatal(err)
	}
	if x.Nums[0] != 3 || x.Nums[1] != 5 {
		t.Fatalf("got %v", x.Nums)
	}
}
