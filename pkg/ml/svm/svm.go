// Package svm implements a multi-class support-vector classifier with an
// RBF kernel.
//
// # Algorithm
//
// Fit trains one binary C-SVC per pair of classes (one-vs-one). Each binary
// problem is solved with sequential minimal optimisation: at every step the
// solver picks the pair of multipliers that most violates the KKT
// conditions, solves the two-variable problem in closed form, clips it to
// the box [0, C] and updates the gradient. Kernel rows are computed lazily
// and kept in an LRU cache bounded by WithCacheSize.
//
// Predict evaluates every pairwise decision function and each one votes for
// a class. The class with most votes wins; tied votes go to the lowest
// class label.
package svm

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mediaid/mediaid/pkg/ml"
)

var (
	// ErrNotFitted is returned by Predict before Fit.
	ErrNotFitted = errors.New("svm: classifier not fitted")

	// ErrShape is returned when feature widths or label counts disagree.
	ErrShape = errors.New("svm: shape mismatch")

	// ErrOneClass is returned when the training labels hold fewer than two
	// classes.
	ErrOneClass = errors.New("svm: need at least two classes")
)

// SVC is a one-vs-one RBF support-vector classifier.
type SVC struct {
	c         float64
	gamma     float64
	tol       float64
	maxIter   int
	cacheSize int // bytes

	classes []int
	sv      *mat.Dense // padded to one row when there are no support vectors
	nsv     int
	svK     *rbf
	pairs   []pairModel
}

// pairModel is the decision function for classes[a] (positive) against
// classes[b].
type pairModel struct {
	a, b int
	sv   []int     // rows of SVC.sv
	coef []float64 // alpha*y per support vector
	rho  float64
}

var _ ml.Classifier = (*SVC)(nil)

// Option configures an SVC.
type Option func(*SVC)

// WithC sets the box constraint (default 1).
func WithC(c float64) Option {
	return func(s *SVC) {
		if c > 0 {
			s.c = c
		}
	}
}

// WithGamma sets the RBF kernel coefficient (default 1e-4).
func WithGamma(g float64) Option {
	return func(s *SVC) {
		if g > 0 {
			s.gamma = g
		}
	}
}

// WithTolerance sets the stopping tolerance on the KKT gap (default 1e-3).
func WithTolerance(tol float64) Option {
	return func(s *SVC) {
		if tol > 0 {
			s.tol = tol
		}
	}
}

// WithMaxIter bounds the optimisation steps per binary problem. Zero keeps
// the default of max(10_000_000, 100*n).
func WithMaxIter(n int) Option {
	return func(s *SVC) {
		if n > 0 {
			s.maxIter = n
		}
	}
}

// WithCacheSize sets the kernel cache size in megabytes (default 200).
func WithCacheSize(mb int) Option {
	return func(s *SVC) {
		if mb > 0 {
			s.cacheSize = mb << 20
		}
	}
}

// New creates an SVC with the given options.
func New(opts ...Option) *SVC {
	s := &SVC{
		c:         1,
		gamma:     1e-4,
		tol:       1e-3,
		cacheSize: 200 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classes returns the sorted class labels seen by Fit.
func (s *SVC) Classes() []int { return slices.Clone(s.classes) }

// NumSupport returns the number of distinct support vectors.
func (s *SVC) NumSupport() int {
	return s.nsv
}

// Fit trains one binary machine per class pair.
func (s *SVC) Fit(x *mat.Dense, y []int) error {
	n, cols := x.Dims()
	if n != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrShape, n, len(y))
	}

	groups := make(map[int][]int)
	for i, l := range y {
		groups[l] = append(groups[l], i)
	}
	classes := make([]int, 0, len(groups))
	for l := range groups {
		classes = append(classes, l)
	}
	slices.Sort(classes)
	if len(classes) < 2 {
		return fmt.Errorf("%w: got %d", ErrOneClass, len(classes))
	}

	k := newRBF(x, s.gamma)
	isSV := make([]bool, n)
	type raw struct {
		a, b int
		idx  []int
		coef []float64
		rho  float64
	}
	var raws []raw

	for a := range classes {
		for b := a + 1; b < len(classes); b++ {
			pos, neg := groups[classes[a]], groups[classes[b]]
			idx := append(slices.Clone(pos), neg...)
			ys := make([]float64, len(idx))
			for i := range ys {
				if i < len(pos) {
					ys[i] = 1
				} else {
					ys[i] = -1
				}
			}

			q, err := newQMatrix(k, idx, ys, s.cacheSize)
			if err != nil {
				return fmt.Errorf("svm: kernel cache: %w", err)
			}
			maxIter := s.maxIter
			if maxIter == 0 {
				maxIter = max(10_000_000, 100*len(idx))
			}
			sol := newSolver(q, ys, s.c, s.tol, maxIter).solve()
			if sol.iter >= maxIter {
				slog.Warn("svm: reached max iterations", "classes", []int{classes[a], classes[b]}, "iter", sol.iter)
			}

			r := raw{a: a, b: b, rho: sol.rho}
			for i, al := range sol.alpha {
				if al > 0 {
					isSV[idx[i]] = true
					r.idx = append(r.idx, idx[i])
					r.coef = append(r.coef, al*ys[i])
				}
			}
			slog.Debug("svm: trained pair",
				"positive", classes[a], "negative", classes[b],
				"samples", len(idx), "support", len(r.idx),
				"iter", sol.iter, "rho", sol.rho)
			raws = append(raws, r)
		}
	}

	// Pack the union of support vectors so prediction evaluates each
	// kernel value once per query.
	pos := make([]int, n)
	var svRows []int
	for i, ok := range isSV {
		if ok {
			pos[i] = len(svRows)
			svRows = append(svRows, i)
		}
	}
	sv := mat.NewDense(max(len(svRows), 1), cols, nil)
	for i, r := range svRows {
		sv.SetRow(i, x.RawRowView(r))
	}

	pairs := make([]pairModel, len(raws))
	for i, r := range raws {
		p := pairModel{a: r.a, b: r.b, coef: r.coef, rho: r.rho, sv: make([]int, len(r.idx))}
		for j, g := range r.idx {
			p.sv[j] = pos[g]
		}
		pairs[i] = p
	}

	s.classes = classes
	s.sv = sv
	s.nsv = len(svRows)
	s.svK = newRBF(sv, s.gamma)
	s.pairs = pairs
	return nil
}

// Decision returns the pairwise decision values for one feature row, in
// (0,1), (0,2), ..., (1,2), ... class order. Positive favours the first
// class of the pair.
func (s *SVC) Decision(row []float64) ([]float64, error) {
	if s.classes == nil {
		return nil, ErrNotFitted
	}
	if _, cols := s.sv.Dims(); len(row) != cols {
		return nil, fmt.Errorf("%w: %d columns, fitted on %d", ErrShape, len(row), cols)
	}

	qsq := floats.Dot(row, row)
	kv := make([]float64, s.nsv)
	for j := range kv {
		kv[j] = s.svK.with(row, qsq, j)
	}

	out := make([]float64, len(s.pairs))
	for i, p := range s.pairs {
		sum := 0.0
		for j, v := range p.sv {
			sum += p.coef[j] * kv[v]
		}
		out[i] = sum - p.rho
	}
	return out, nil
}

// PredictRow classifies a single feature row.
func (s *SVC) PredictRow(row []float64) (int, error) {
	dec, err := s.Decision(row)
	if err != nil {
		return 0, err
	}
	votes := make([]int, len(s.classes))
	for i, p := range s.pairs {
		if dec[i] > 0 {
			votes[p.a]++
		} else {
			votes[p.b]++
		}
	}
	best := 0
	for c := 1; c < len(votes); c++ {
		if votes[c] > votes[best] {
			best = c
		}
	}
	return s.classes[best], nil
}

// Predict returns one label per row of x.
func (s *SVC) Predict(x *mat.Dense) ([]int, error) {
	if s.classes == nil {
		return nil, ErrNotFitted
	}
	r, _ := x.Dims()
	out := make([]int, r)
	for i := range r {
		l, err := s.PredictRow(x.RawRowView(i))
		if err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}
