package dataset

import (
	"errors"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSplitIndicesDisjointAndComplete(t *testing.T) {
	train, test, err := SplitIndices(100, SplitOptions{TrainSize: Count(80)})
	if err != nil {
		t.Fatal(err)
	}
	if len(train) != 80 || len(test) != 20 {
		t.Fatalf("sizes = %d/%d, want 80/20", len(train), len(test))
	}
	all := append(slices.Clone(train), test...)
	slices.Sort(all)
	for i, v := range all {
		if v != i {
			t.Fatalf("index %d missing or duplicated", i)
		}
	}
}

func TestSplitIndicesDeterministic(t *testing.T) {
	opts := SplitOptions{TrainSize: Count(80), Seed: 0}
	a, _, _ := SplitIndices(100, opts)
	b, _, _ := SplitIndices(100, opts)
	if !slices.Equal(a, b) {
		t.Fatal("same seed gave different splits")
	}
	c, _, _ := SplitIndices(100, SplitOptions{TrainSize: Count(80), Seed: 7})
	if slices.Equal(a, c) {
		t.Fatal("different seeds gave the same split")
	}
}

func TestSplitSizes(t *testing.T) {
	tests := []struct {
		name        string
		n           int
		opts        SplitOptions
		train, test int
	}{
		{"default quarter", 10, SplitOptions{}, 7, 3},
		{"test count", 100, SplitOptions{TestSize: Count(30)}, 70, 30},
		{"train count", 100, SplitOptions{TrainSize: Count(80)}, 80, 20},
		{"test fraction", 9, SplitOptions{TestSize: Fraction(0.5)}, 4, 5},
		{"train fraction", 9, SplitOptions{TrainSize: Fraction(0.5)}, 4, 5},
		{"both", 10, SplitOptions{TrainSize: Count(5), TestSize: Count(2)}, 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test, err := SplitIndices(tt.n, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(train) != tt.train || len(test) != tt.test {
				t.Errorf("sizes = %d/%d, want %d/%d", len(train), len(test), tt.train, tt.test)
			}
		})
	}
}

func TestSplitSizeErrors(t *testing.T) {
	tests := []struct {
		name string
		n    int
		opts SplitOptions
	}{
		{"train takes all", 100, SplitOptions{TrainSize: Count(100)}},
		{"train exceeds", 100, SplitOptions{TrainSize: Count(120)}},
		{"test exceeds", 20, SplitOptions{TestSize: Count(30)}},
		{"whole fraction", 100, SplitOptions{TestSize: Fraction(1)}},
		{"sum exceeds", 100, SplitOptions{TrainSize: Count(60), TestSize: Count(60)}},
		{"empty", 0, SplitOptions{}},
		{"negative train count", 100, SplitOptions{TrainSize: Count(-5)}},
		{"negative test count", 100, SplitOptions{TestSize: Count(-3)}},
		{"negative test fraction", 100, SplitOptions{TestSize: Fraction(-0.2)}},
		{"negative train with test", 100, SplitOptions{TrainSize: Fraction(-0.5), TestSize: Count(10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := SplitIndices(tt.n, tt.opts); !errors.Is(err, ErrSplitSize) {
				t.Errorf("err = %v, want ErrSplitSize", err)
			}
		})
	}
}

func TestSplitGeneric(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	train, test, err := Split(items, SplitOptions{TestSize: Count(1), Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(train) != 3 || len(test) != 1 {
		t.Fatalf("sizes = %d/%d", len(train), len(test))
	}
	if slices.Contains(train, test[0]) {
		t.Fatalf("%q in both partitions", test[0])
	}
}

func TestRows(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	got := Rows(m, []int{2, 0})
	want := mat.NewDense(2, 2, []float64{5, 6, 1, 2})
	if !mat.Equal(got, want) {
		t.Fatalf("Rows = %v, want %v", mat.Formatted(got), mat.Formatted(want))
	}
}

func TestStack(t *testing.T) {
	a := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	b := mat.NewDense(1, 3, []float64{7, 8, 9})
	x, y, err := Stack([]*mat.Dense{a, b}, []int{4, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := mat.NewDense(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	if !mat.Equal(x, want) {
		t.Fatalf("x = %v", mat.Formatted(x))
	}
	if !slices.Equal(y, []int{4, 4, 1}) {
		t.Fatalf("y = %v, want [4 4 1]", y)
	}
}

func TestStackShapeMismatch(t *testing.T) {
	a := mat.NewDense(2, 3, nil)
	b := mat.NewDense(2, 4, nil)
	if _, _, err := Stack([]*mat.Dense{a, b}, []int{0, 1}, 3); !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
	if _, _, err := Stack([]*mat.Dense{a}, []int{0, 1}, 3); !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
}

func TestCheck(t *testing.T) {
	x := mat.NewDense(2, 3, nil)
	if err := Check(x, []int{0, 1}, 3); err != nil {
		t.Fatal(err)
	}
	if err := Check(x, []int{0}, 3); !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v", err)
	}
	if err := Check(x, []int{0, 1}, 4); !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v", err)
	}
}
