package svm

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// rbf evaluates exp(-gamma*|a-b|^2) over the rows of a fixed matrix.
type rbf struct {
	gamma float64
	x     *mat.Dense
	sq    []float64 // squared row norms
}

func newRBF(x *mat.Dense, gamma float64) *rbf {
	r, _ := x.Dims()
	sq := make([]float64, r)
	for i := range r {
		row := x.RawRowView(i)
		sq[i] = floats.Dot(row, row)
	}
	return &rbf{gamma: gamma, x: x, sq: sq}
}

func (k *rbf) at(i, j int) float64 {
	d := k.sq[i] + k.sq[j] - 2*floats.Dot(k.x.RawRowView(i), k.x.RawRowView(j))
	return math.Exp(-k.gamma * d)
}

// with evaluates the kernel between row j and an external vector q whose
// squared norm is qsq.
func (k *rbf) with(q []float64, qsq float64, j int) float64 {
	d := qsq + k.sq[j] - 2*floats.Dot(q, k.x.RawRowView(j))
	return math.Exp(-k.gamma * d)
}

// qMatrix serves rows of Q[i][j] = y[i]*y[j]*K(idx[i], idx[j]) for one
// binary subproblem, keeping recently used rows in an LRU cache.
type qMatrix struct {
	k     *rbf
	idx   []int
	y     []float64
	cache *lru.Cache[int, []float64]
}

func newQMatrix(k *rbf, idx []int, y []float64, cacheBytes int) (*qMatrix, error) {
	rows := cacheBytes / (8 * max(len(idx), 1))
	cache, err := lru.New[int, []float64](max(rows, 2))
	if err != nil {
		return nil, err
	}
	return &qMatrix{k: k, idx: idx, y: y, cache: cache}, nil
}

func (q *qMatrix) row(i int) []float64 {
	if r, ok := q.cache.Get(i); ok {
		return r
	}
	r := make([]float64, len(q.idx))
	gi := q.idx[i]
	for j, gj := range q.idx {
		r[j] = q.y[i] * q.y[j] * q.k.at(gi, gj)
	}
	q.cache.Add(i, r)
	return r
}

func (q *qMatrix) diag(i int) float64 {
	gi := q.idx[i]
	return q.k.at(gi, gi)
}
