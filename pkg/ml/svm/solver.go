package svm

import "math"

const tau = 1e-12

// solver runs sequential minimal optimisation on the C-SVC dual
//
//	min 0.5 aᵀQa - eᵀa  s.t.  yᵀa = 0, 0 ≤ a ≤ C
//
// choosing working pairs by maximal violation with second-order gain.
type solver struct {
	q       *qMatrix
	y       []float64
	c       float64
	eps     float64
	maxIter int

	alpha []float64
	grad  []float64
	qd    []float64
}

type solution struct {
	alpha []float64
	rho   float64
	iter  int
}

func newSolver(q *qMatrix, y []float64, c, eps float64, maxIter int) *solver {
	l := len(y)
	s := &solver{
		q:       q,
		y:       y,
		c:       c,
		eps:     eps,
		maxIter: maxIter,
		alpha:   make([]float64, l),
		grad:    make([]float64, l),
		qd:      make([]float64, l),
	}
	for i := range l {
		// alpha starts at zero so the gradient is the linear term -1.
		s.grad[i] = -1
		s.qd[i] = q.diag(i)
	}
	return s
}

func (s *solver) upper(i int) bool { return s.alpha[i] >= s.c }
func (s *solver) lower(i int) bool { return s.alpha[i] <= 0 }

func (s *solver) solve() solution {
	iter := 0
	for iter < s.maxIter {
		i, j, ok := s.selectPair()
		if !ok {
			break
		}
		iter++
		s.update(i, j)
	}
	return solution{alpha: s.alpha, rho: s.rho(), iter: iter}
}

// selectPair returns the most violating index i and the j that maximises
// the second-order decrease of the objective with i. ok is false once the
// KKT gap falls below eps.
func (s *solver) selectPair() (int, int, bool) {
	gmax, gmax2 := math.Inf(-1), math.Inf(-1)
	i := -1
	for t := range s.y {
		if s.y[t] > 0 {
			if !s.upper(t) && -s.grad[t] >= gmax {
				gmax, i = -s.grad[t], t
			}
		} else {
			if !s.lower(t) && s.grad[t] >= gmax {
				gmax, i = s.grad[t], t
			}
		}
	}
	if i < 0 {
		return 0, 0, false
	}

	qi := s.q.row(i)
	j := -1
	best := math.Inf(1)
	for t := range s.y {
		var diff, quad float64
		if s.y[t] > 0 {
			if s.lower(t) {
				continue
			}
			gmax2 = max(gmax2, s.grad[t])
			diff = gmax + s.grad[t]
			quad = s.qd[i] + s.qd[t] - 2*s.y[i]*qi[t]
		} else {
			if s.upper(t) {
				continue
			}
			gmax2 = max(gmax2, -s.grad[t])
			diff = gmax - s.grad[t]
			quad = s.qd[i] + s.qd[t] + 2*s.y[i]*qi[t]
		}
		if diff <= 0 {
			continue
		}
		if quad <= 0 {
			quad = tau
		}
		if obj := -diff * diff / quad; obj <= best {
			best, j = obj, t
		}
	}
	if gmax+gmax2 < s.eps || j < 0 {
		return 0, 0, false
	}
	return i, j, true
}

// update solves the two-variable subproblem for (i, j) analytically, clips
// to the box, then refreshes the gradient.
func (s *solver) update(i, j int) {
	qi, qj := s.q.row(i), s.q.row(j)
	ai, aj := s.alpha[i], s.alpha[j]
	c := s.c

	if s.y[i] != s.y[j] {
		quad := s.qd[i] + s.qd[j] + 2*qi[j]
		if quad <= 0 {
			quad = tau
		}
		delta := (-s.grad[i] - s.grad[j]) / quad
		diff := ai - aj
		s.alpha[i] += delta
		s.alpha[j] += delta
		if diff > 0 {
			if s.alpha[j] < 0 {
				s.alpha[j], s.alpha[i] = 0, diff
			}
		} else if s.alpha[i] < 0 {
			s.alpha[i], s.alpha[j] = 0, -diff
		}
		if diff > 0 {
			if s.alpha[i] > c {
				s.alpha[i], s.alpha[j] = c, c-diff
			}
		} else if s.alpha[j] > c {
			s.alpha[j], s.alpha[i] = c, c+diff
		}
	} else {
		quad := s.qd[i] + s.qd[j] - 2*qi[j]
		if quad <= 0 {
			quad = tau
		}
		delta := (s.grad[i] - s.grad[j]) / quad
		sum := ai + aj
		s.alpha[i] -= delta
		s.alpha[j] += delta
		if sum > c {
			if s.alpha[i] > c {
				s.alpha[i], s.alpha[j] = c, sum-c
			}
		} else if s.alpha[j] < 0 {
			s.alpha[j], s.alpha[i] = 0, sum
		}
		if sum > c {
			if s.alpha[j] > c {
				s.alpha[j], s.alpha[i] = c, sum-c
			}
		} else if s.alpha[i] < 0 {
			s.alpha[i], s.alpha[j] = 0, sum
		}
	}

	di, dj := s.alpha[i]-ai, s.alpha[j]-aj
	for t := range s.grad {
		s.grad[t] += qi[t]*di + qj[t]*dj
	}
}

// rho is the bias: the mean of y*grad over free variables, or the
// midpoint of the feasible interval when every variable is at a bound.
func (s *solver) rho() float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	free, sum := 0, 0.0
	for i := range s.y {
		yg := s.y[i] * s.grad[i]
		switch {
		case s.upper(i):
			if s.y[i] < 0 {
				ub = min(ub, yg)
			} else {
				lb = max(lb, yg)
			}
		case s.lower(i):
			if s.y[i] > 0 {
				ub = min(ub, yg)
			} else {
				lb = max(lb, yg)
			}
		default:
			free++
			sum += yg
		}
	}
	if free > 0 {
		return sum / float64(free)
	}
	return (ub + lb) / 2
}
