// Package ml defines the classifier contract shared by the K-NN and SVM
// implementations.
//
// Features are rows of a gonum matrix; labels are small non-negative
// integers, one per row.
package ml

import "gonum.org/v1/gonum/mat"

// Classifier is a supervised model fit on labelled feature rows.
type Classifier interface {
	// Fit trains the model. x has one sample per row, y one label per row.
	Fit(x *mat.Dense, y []int) error

	// Predict returns one label per row of x.
	Predict(x *mat.Dense) ([]int, error)
}
