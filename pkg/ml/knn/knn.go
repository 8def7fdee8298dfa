// Package knn implements a brute-force K-nearest-neighbours classifier.
package knn

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mediaid/mediaid/pkg/ml"
	"github.com/mediaid/mediaid/pkg/ml/eval"
)

// DefaultK is the neighbour count used when K is zero.
const DefaultK = 5

var (
	// ErrNotFitted is returned by Predict before Fit.
	ErrNotFitted = errors.New("knn: classifier not fitted")

	// ErrShape is returned when feature widths or label counts disagree.
	ErrShape = errors.New("knn: shape mismatch")
)

// Classifier predicts the majority label among the K training rows closest
// to a query in Euclidean distance. Equal distances keep training order;
// tied votes go to the lowest label.
type Classifier struct {
	K int

	x *mat.Dense
	y []int
}

var _ ml.Classifier = (*Classifier)(nil)

// New returns a classifier with k neighbours.
func New(k int) *Classifier {
	return &Classifier{K: k}
}

func (c *Classifier) k() int {
	if c.K <= 0 {
		return DefaultK
	}
	return c.K
}

// Fit stores the training rows. The matrix is copied.
func (c *Classifier) Fit(x *mat.Dense, y []int) error {
	r, _ := x.Dims()
	if r != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrShape, r, len(y))
	}
	if r == 0 {
		return fmt.Errorf("%w: no training rows", ErrShape)
	}
	c.x = mat.DenseCopyOf(x)
	c.y = slices.Clone(y)
	return nil
}

type neighbour struct {
	dist float64
	idx  int
}

// Predict returns one label per row of x.
func (c *Classifier) Predict(x *mat.Dense) ([]int, error) {
	if c.x == nil {
		return nil, ErrNotFitted
	}
	r, cols := x.Dims()
	n, want := c.x.Dims()
	if cols != want {
		return nil, fmt.Errorf("%w: %d columns, fitted on %d", ErrShape, cols, want)
	}

	k := min(c.k(), n)
	nb := make([]neighbour, n)
	votes := make([]int, k)
	out := make([]int, r)
	for i := range r {
		q := x.RawRowView(i)
		for j := range n {
			nb[j] = neighbour{dist: floats.Distance(q, c.x.RawRowView(j), 2), idx: j}
		}
		slices.SortFunc(nb, func(a, b neighbour) int {
			if d := cmp.Compare(a.dist, b.dist); d != 0 {
				return d
			}
			return cmp.Compare(a.idx, b.idx)
		})
		for j := range k {
			votes[j] = c.y[nb[j].idx]
		}
		label, err := eval.Majority(votes)
		if err != nil {
			return nil, err
		}
		out[i] = label
	}
	return out, nil
}
