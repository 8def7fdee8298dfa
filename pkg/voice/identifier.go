package voice

import (
	"context"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/mediaid/mediaid/pkg/ml/dataset"
	"github.com/mediaid/mediaid/pkg/ml/eval"
	"github.com/mediaid/mediaid/pkg/ml/svm"
)

// Identifier labels whole clips with a frame-level SVM.
type Identifier struct {
	svc      *svm.SVC
	dim      int
	speakers *Speakers
}

// Train fits an Identifier on the frames of samples. Every frame of a clip
// becomes one training row carrying the clip's label.
func Train(ctx context.Context, samples []Sample, speakers *Speakers, opts ...svm.Option) (*Identifier, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("voice: no training clips")
	}
	blocks := make([]*mat.Dense, len(samples))
	labels := make([]int, len(samples))
	for i, s := range samples {
		blocks[i] = s.Features
		labels[i] = s.Label
	}
	_, dim := samples[0].Features.Dims()
	x, y, err := dataset.Stack(blocks, labels, dim)
	if err != nil {
		return nil, fmt.Errorf("voice: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, _ := x.Dims()
	slog.Info("voice: training", "clips", len(samples), "frames", rows, "dim", dim)
	svc := svm.New(opts...)
	if err := svc.Fit(x, y); err != nil {
		return nil, fmt.Errorf("voice: train: %w", err)
	}
	slog.Debug("voice: trained", "support", svc.NumSupport(), "classes", svc.Classes())
	return &Identifier{svc: svc, dim: dim, speakers: speakers}, nil
}

// Identify predicts every frame and returns the most voted label. Tied
// votes go to the lowest label.
func (id *Identifier) Identify(features *mat.Dense) (int, error) {
	if _, c := features.Dims(); c != id.dim {
		return 0, fmt.Errorf("%w: %d coefficients, trained on %d", dataset.ErrShape, c, id.dim)
	}
	votes, err := id.svc.Predict(features)
	if err != nil {
		return 0, err
	}
	return eval.Majority(votes)
}

// IdentifyName is Identify followed by a registry lookup.
func (id *Identifier) IdentifyName(features *mat.Dense) (string, error) {
	label, err := id.Identify(features)
	if err != nil {
		return "", err
	}
	return id.speakers.Name(label)
}
