// Package eval scores predictions and combines per-frame votes.
package eval

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when there is nothing to score or vote on.
var ErrEmpty = errors.New("eval: empty input")

// Matches counts positions where pred and actual agree.
func Matches(pred, actual []int) (int, error) {
	if len(pred) != len(actual) {
		return 0, fmt.Errorf("eval: %d predictions for %d labels", len(pred), len(actual))
	}
	n := 0
	for i := range pred {
		if pred[i] == actual[i] {
			n++
		}
	}
	return n, nil
}

// Accuracy returns the fraction of matching positions, in [0, 1].
func Accuracy(pred, actual []int) (float64, error) {
	if len(actual) == 0 {
		return 0, ErrEmpty
	}
	n, err := Matches(pred, actual)
	if err != nil {
		return 0, err
	}
	return float64(n) / float64(len(actual)), nil
}

// Percent returns ok/total*100. The division happens before scaling in
// floating point, so 29 of 30 is 96.67, not 0.
func Percent(ok, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total) * 100
}

// Majority returns the most frequent label. Ties go to the lowest label.
func Majority(labels []int) (int, error) {
	if len(labels) == 0 {
		return 0, ErrEmpty
	}
	counts := make(map[int]int)
	best, bestCount := 0, 0
	for _, l := range labels {
		counts[l]++
	}
	for l, c := range counts {
		if c > bestCount || (c == bestCount && l < best) {
			best, bestCount = l, c
		}
	}
	return best, nil
}
