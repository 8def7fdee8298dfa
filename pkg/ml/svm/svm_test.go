package svm

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// blobs returns n points per centre, jittered uniformly by ±spread.
func blobs(centres [][2]float64, n int, spread float64, seed uint64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := mat.NewDense(len(centres)*n, 2, nil)
	y := make([]int, 0, len(centres)*n)
	row := 0
	for label, c := range centres {
		for range n {
			x.Set(row, 0, c[0]+(rng.Float64()*2-1)*spread)
			x.Set(row, 1, c[1]+(rng.Float64()*2-1)*spread)
			y = append(y, label)
			row++
		}
	}
	return x, y
}

func TestSeparableThreeClasses(t *testing.T) {
	centres := [][2]float64{{0, 0}, {100, 0}, {0, 100}}
	x, y := blobs(centres, 20, 5, 1)

	s := New()
	if err := s.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	if got := s.Classes(); len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Fatalf("Classes = %v", got)
	}
	if s.NumSupport() == 0 {
		t.Fatal("no support vectors")
	}

	train, err := s.Predict(x)
	if err != nil {
		t.Fatal(err)
	}
	for i := range y {
		if train[i] != y[i] {
			t.Errorf("row %d: predicted %d, want %d", i, train[i], y[i])
		}
	}

	q := mat.NewDense(3, 2, []float64{1, -1, 98, 2, -2, 101})
	got, err := s.Predict(q)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int{0, 1, 2} {
		if got[i] != want {
			t.Errorf("query %d: predicted %d, want %d", i, got[i], want)
		}
	}
}

func TestNonContiguousLabels(t *testing.T) {
	x, y := blobs([][2]float64{{0, 0}, {50, 50}}, 10, 3, 2)
	for i := range y {
		y[i] = []int{4, 1}[y[i]]
	}
	s := New(WithGamma(1e-3))
	if err := s.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	l, err := s.PredictRow([]float64{49, 51})
	if err != nil {
		t.Fatal(err)
	}
	if l != 1 {
		t.Fatalf("PredictRow = %d, want 1", l)
	}
	l, _ = s.PredictRow([]float64{1, 0})
	if l != 4 {
		t.Fatalf("PredictRow = %d, want 4", l)
	}
}

func TestDualConstraints(t *testing.T) {
	x, y := blobs([][2]float64{{0, 0}, {3, 3}}, 15, 2.5, 3)
	const c = 0.5
	s := New(WithC(c), WithGamma(0.5))
	if err := s.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	if len(s.pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(s.pairs))
	}
	sum := 0.0
	for _, v := range s.pairs[0].coef {
		if math.Abs(v) > c+1e-12 {
			t.Errorf("|coef| = %g exceeds C", math.Abs(v))
		}
		sum += v
	}
	if math.Abs(sum) > 1e-9 {
		t.Errorf("sum(alpha*y) = %g, want 0", sum)
	}
}

func TestDecisionSign(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{-2, -1, 1, 2})
	s := New(WithGamma(0.5))
	if err := s.Fit(x, []int{0, 0, 1, 1}); err != nil {
		t.Fatal(err)
	}
	dec, err := s.Decision([]float64{-1.5})
	if err != nil {
		t.Fatal(err)
	}
	if len(dec) != 1 || dec[0] <= 0 {
		t.Fatalf("Decision(-1.5) = %v, want positive", dec)
	}
	dec, _ = s.Decision([]float64{1.5})
	if dec[0] >= 0 {
		t.Fatalf("Decision(1.5) = %v, want negative", dec)
	}
}

func TestSmallCacheMatchesLarge(t *testing.T) {
	x, y := blobs([][2]float64{{0, 0}, {4, 0}, {0, 4}}, 12, 2, 4)
	big := New(WithGamma(0.3))
	small := New(WithGamma(0.3))
	small.cacheSize = 1 // two rows
	if err := big.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	if err := small.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	a, _ := big.Predict(x)
	b, _ := small.Predict(x)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d: %d with large cache, %d with small", i, a[i], b[i])
		}
	}
}

func TestErrors(t *testing.T) {
	s := New()
	if _, err := s.Predict(mat.NewDense(1, 2, nil)); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("err = %v, want ErrNotFitted", err)
	}
	if err := s.Fit(mat.NewDense(2, 2, nil), []int{0}); !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
	if err := s.Fit(mat.NewDense(2, 2, nil), []int{3, 3}); !errors.Is(err, ErrOneClass) {
		t.Fatalf("err = %v, want ErrOneClass", err)
	}
	x, y := blobs([][2]float64{{0, 0}, {10, 10}}, 3, 1, 5)
	if err := s.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PredictRow([]float64{1}); !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
}
