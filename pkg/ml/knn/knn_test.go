package knn

import (
	"errors"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestPredictClusters(t *testing.T) {
	x := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		10, 10,
		10, 11,
		11, 10,
	})
	y := []int{0, 0, 0, 1, 1, 1}

	c := New(3)
	if err := c.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	got, err := c.Predict(mat.NewDense(2, 2, []float64{0.5, 0.5, 9, 9}))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{0, 1}) {
		t.Fatalf("Predict = %v, want [0 1]", got)
	}
}

func TestPredictTieGoesToLowestLabel(t *testing.T) {
	// Two neighbours, one per label, both at distance 1.
	x := mat.NewDense(2, 1, []float64{1, -1})
	c := New(2)
	if err := c.Fit(x, []int{7, 3}); err != nil {
		t.Fatal(err)
	}
	got, err := c.Predict(mat.NewDense(1, 1, []float64{0}))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 3 {
		t.Fatalf("Predict = %d, want 3", got[0])
	}
}

func TestKLargerThanTrainingSet(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{0, 1, 2})
	c := &Classifier{}
	if err := c.Fit(x, []int{1, 1, 0}); err != nil {
		t.Fatal(err)
	}
	got, err := c.Predict(mat.NewDense(1, 1, []float64{2}))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1 {
		t.Fatalf("Predict = %d, want 1", got[0])
	}
}

func TestFitCopiesInput(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{0, 10})
	y := []int{0, 1}
	c := New(1)
	if err := c.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	x.Set(0, 0, 100)
	y[0] = 5
	got, _ := c.Predict(mat.NewDense(1, 1, []float64{1}))
	if got[0] != 0 {
		t.Fatalf("Predict = %d, want 0", got[0])
	}
}

func TestErrors(t *testing.T) {
	c := New(1)
	if _, err := c.Predict(mat.NewDense(1, 1, nil)); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("err = %v, want ErrNotFitted", err)
	}
	if err := c.Fit(mat.NewDense(2, 1, nil), []int{0}); !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
	if err := c.Fit(mat.NewDense(2, 1, nil), []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Predict(mat.NewDense(1, 3, nil)); !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
}
