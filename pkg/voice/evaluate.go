package voice

import (
	"context"
	"log/slog"

	"github.com/mediaid/mediaid/pkg/ml/dataset"
	"github.com/mediaid/mediaid/pkg/ml/eval"
	"github.com/mediaid/mediaid/pkg/ml/svm"
)

// DefaultTestSize is the number of held-out clips Evaluate uses when no
// test size is given.
const DefaultTestSize = 30

// EvalOptions configures Evaluate.
type EvalOptions struct {
	Split dataset.SplitOptions
	SVM   []svm.Option
}

// Result is the outcome for one held-out clip.
type Result struct {
	File      string `json:"file" yaml:"file"`
	Predicted int    `json:"predicted" yaml:"predicted"`
	Expected  int    `json:"expected" yaml:"expected"`
	OK        bool   `json:"ok" yaml:"ok"`
}

// Report summarises an evaluation.
type Report struct {
	Train   int      `json:"train" yaml:"train"`
	Results []Result `json:"results" yaml:"results"`
	OK      int      `json:"ok" yaml:"ok"`
	Total   int      `json:"total" yaml:"total"`
	Percent float64  `json:"percent" yaml:"percent"`
}

// Evaluate splits samples into train and test clips, trains on the former
// and identifies each of the latter.
func Evaluate(ctx context.Context, samples []Sample, speakers *Speakers, opts EvalOptions) (*Report, error) {
	split := opts.Split
	if split.TestSize == (dataset.Size{}) && split.TrainSize == (dataset.Size{}) {
		split.TestSize = dataset.Count(DefaultTestSize)
	}
	train, test, err := dataset.Split(samples, split)
	if err != nil {
		return nil, err
	}

	id, err := Train(ctx, train, speakers, opts.SVM...)
	if err != nil {
		return nil, err
	}

	r := &Report{Train: len(train), Total: len(test)}
	for _, s := range test {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, err := id.Identify(s.Features)
		if err != nil {
			return nil, err
		}
		res := Result{File: s.Name, Predicted: got, Expected: s.Label, OK: got == s.Label}
		if res.OK {
			r.OK++
		}
		slog.Debug("voice: evaluated", "file", s.Name, "predicted", got, "expected", s.Label)
		r.Results = append(r.Results, res)
	}
	r.Percent = eval.Percent(r.OK, r.Total)
	return r, nil
}
