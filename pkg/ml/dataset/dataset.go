// Package dataset splits labelled samples into train and test partitions
// and stacks per-sample feature matrices into one training table.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrSplitSize is returned when a split would leave a side empty or
	// ask for more samples than exist.
	ErrSplitSize = errors.New("dataset: invalid split size")

	// ErrShape is returned when matrices or label slices disagree in size.
	ErrShape = errors.New("dataset: shape mismatch")
)

// DefaultTestFraction is the test share used when no size is given.
const DefaultTestFraction = 0.25

// Size is one side of a split: an absolute count when Count > 0, otherwise
// a fraction of the dataset. The zero Size means unspecified.
type Size struct {
	Count    int     `json:"count,omitempty" yaml:"count,omitempty"`
	Fraction float64 `json:"fraction,omitempty" yaml:"fraction,omitempty"`
}

// Count returns an absolute Size.
func Count(n int) Size { return Size{Count: n} }

// Fraction returns a relative Size.
func Fraction(f float64) Size { return Size{Fraction: f} }

func (s Size) isSet() bool { return s.Count > 0 || s.Fraction > 0 }

func (s Size) negative() bool { return s.Count < 0 || s.Fraction < 0 }

// SplitOptions configures a shuffled split.
type SplitOptions struct {
	TrainSize Size
	TestSize  Size
	Seed      uint64
}

// sizes resolves the train and test counts for n samples. A fractional
// test size rounds up and a fractional train size rounds down; an
// unspecified side takes the rest.
func (o SplitOptions) sizes(n int) (train, test int, err error) {
	if o.TrainSize.negative() || o.TestSize.negative() {
		return 0, 0, fmt.Errorf("%w: negative size (train %+v, test %+v)", ErrSplitSize, o.TrainSize, o.TestSize)
	}
	testSize := o.TestSize
	if !testSize.isSet() && !o.TrainSize.isSet() {
		testSize = Fraction(DefaultTestFraction)
	}

	test = -1
	switch {
	case testSize.Count > 0:
		test = testSize.Count
	case testSize.Fraction > 0:
		if testSize.Fraction >= 1 {
			return 0, 0, fmt.Errorf("%w: test fraction %g", ErrSplitSize, testSize.Fraction)
		}
		test = int(math.Ceil(testSize.Fraction * float64(n)))
	}

	train = -1
	switch {
	case o.TrainSize.Count > 0:
		train = o.TrainSize.Count
	case o.TrainSize.Fraction > 0:
		if o.TrainSize.Fraction >= 1 {
			return 0, 0, fmt.Errorf("%w: train fraction %g", ErrSplitSize, o.TrainSize.Fraction)
		}
		train = int(math.Floor(o.TrainSize.Fraction * float64(n)))
	}

	switch {
	case train < 0:
		train = n - test
	case test < 0:
		test = n - train
	}
	if train <= 0 || test <= 0 || train+test > n {
		return 0, 0, fmt.Errorf("%w: train=%d test=%d of %d samples", ErrSplitSize, train, test, n)
	}
	return train, test, nil
}

// SplitIndices shuffles 0..n-1 with a seeded generator and returns disjoint
// train and test index sets. The same seed always gives the same split.
func SplitIndices(n int, opts SplitOptions) (train, test []int, err error) {
	nTrain, nTest, err := opts.sizes(n)
	if err != nil {
		return nil, nil, err
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	perm := rng.Perm(n)
	return perm[nTest : nTest+nTrain], perm[:nTest], nil
}

// Split partitions items with SplitIndices.
func Split[T any](items []T, opts SplitOptions) (train, test []T, err error) {
	trainIdx, testIdx, err := SplitIndices(len(items), opts)
	if err != nil {
		return nil, nil, err
	}
	return Pick(items, trainIdx), Pick(items, testIdx), nil
}

// Pick returns items at the given indices, in index order.
func Pick[T any](items []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = items[j]
	}
	return out
}

// Rows copies the given rows of m into a new matrix.
func Rows(m *mat.Dense, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, j := range idx {
		out.SetRow(i, m.RawRowView(j))
	}
	return out
}

// Stack concatenates blocks vertically and repeats labels[i] once per row
// of blocks[i]. Every block must have exactly cols columns.
func Stack(blocks []*mat.Dense, labels []int, cols int) (*mat.Dense, []int, error) {
	if len(blocks) != len(labels) {
		return nil, nil, fmt.Errorf("%w: %d blocks, %d labels", ErrShape, len(blocks), len(labels))
	}
	if len(blocks) == 0 {
		return nil, nil, fmt.Errorf("%w: no blocks", ErrShape)
	}

	rows := 0
	for i, b := range blocks {
		r, c := b.Dims()
		if c != cols {
			return nil, nil, fmt.Errorf("%w: block %d has %d columns, want %d", ErrShape, i, c, cols)
		}
		rows += r
	}

	x := mat.NewDense(rows, cols, nil)
	y := make([]int, 0, rows)
	at := 0
	for i, b := range blocks {
		r, _ := b.Dims()
		x.Slice(at, at+r, 0, cols).(*mat.Dense).Copy(b)
		for range r {
			y = append(y, labels[i])
		}
		at += r
	}
	return x, y, nil
}

// Check verifies that x has one row per label and cols columns.
func Check(x *mat.Dense, y []int, cols int) error {
	r, c := x.Dims()
	if r != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrShape, r, len(y))
	}
	if cols > 0 && c != cols {
		return fmt.Errorf("%w: %d columns, want %d", ErrShape, c, cols)
	}
	return nil
}
