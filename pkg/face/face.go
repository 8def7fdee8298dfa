// Package face classifies face images by their grayscale intensity
// histograms.
//
// Each image becomes a 256-bin histogram. For every labelled name the
// histograms are split into train and test rows with a seeded shuffle, a
// K-nearest-neighbours classifier is fit on the train rows and scored on the
// test rows.
package face

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mediaid/mediaid/pkg/ml/dataset"
	"github.com/mediaid/mediaid/pkg/ml/eval"
	"github.com/mediaid/mediaid/pkg/ml/knn"
)

// Config describes one face classification run.
type Config struct {
	ImageDir  string   `json:"image_dir" yaml:"image_dir"`
	Labels    string   `json:"labels" yaml:"labels"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Count     int      `json:"count" yaml:"count"`
	Names     []string `json:"names" yaml:"names"`
	TrainSize int      `json:"train_size" yaml:"train_size"`
	K         int      `json:"k" yaml:"k"`
	Seed      uint64   `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the settings of the reference dataset: 100 images
// under anime_img/, three names, 80 training rows, 5 neighbours.
func DefaultConfig() Config {
	return Config{
		ImageDir:  "anime_img",
		Labels:    "classified.csv",
		Pattern:   "%d.jpg",
		Count:     100,
		Names:     []string{"Norman", "Emma", "Ray"},
		TrainSize: 80,
		K:         knn.DefaultK,
	}
}

// NameResult is the outcome for one label column.
type NameResult struct {
	Name      string  `json:"name" yaml:"name"`
	Predicted []int   `json:"predicted" yaml:"predicted"`
	Actual    []int   `json:"actual" yaml:"actual"`
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
}

// RunOptions carries optional hooks for Run.
type RunOptions struct {
	Progress func(done, total int)
}

// Run loads the images and labels named by cfg and classifies each name.
func Run(ctx context.Context, cfg Config, opts RunOptions) ([]NameResult, error) {
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("face: image count must be positive, got %d", cfg.Count)
	}
	if cfg.TrainSize <= 0 {
		return nil, fmt.Errorf("%w: train size %d", dataset.ErrSplitSize, cfg.TrainSize)
	}
	labels, err := ReadLabels(cfg.Labels)
	if err != nil {
		return nil, err
	}
	if labels.Len() < cfg.Count {
		return nil, fmt.Errorf("%w: %d rows for %d images", ErrLabelsShort, labels.Len(), cfg.Count)
	}
	// Resolve every column before the slow image load.
	columns := make([][]int, len(cfg.Names))
	for i, name := range cfg.Names {
		col, err := labels.Column(name)
		if err != nil {
			return nil, err
		}
		columns[i] = col[:cfg.Count]
	}

	x, err := LoadHistograms(ctx, cfg.ImageDir, cfg.Count, LoadOptions{
		Pattern:  cfg.Pattern,
		Progress: opts.Progress,
	})
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := dataset.SplitIndices(cfg.Count, dataset.SplitOptions{
		TrainSize: dataset.Count(cfg.TrainSize),
		Seed:      cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	trainX, testX := dataset.Rows(x, trainIdx), dataset.Rows(x, testIdx)

	results := make([]NameResult, 0, len(cfg.Names))
	for i, name := range cfg.Names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		trainY := dataset.Pick(columns[i], trainIdx)
		testY := dataset.Pick(columns[i], testIdx)

		clf := knn.New(cfg.K)
		if err := clf.Fit(trainX, trainY); err != nil {
			return nil, fmt.Errorf("face: %s: %w", name, err)
		}
		pred, err := clf.Predict(testX)
		if err != nil {
			return nil, fmt.Errorf("face: %s: %w", name, err)
		}
		acc, err := eval.Accuracy(pred, testY)
		if err != nil {
			return nil, fmt.Errorf("face: %s: %w", name, err)
		}
		slog.Info("face: classified", "name", name, "test", len(testY), "accuracy", acc)
		results = append(results, NameResult{
			Name:      name,
			Predicted: pred,
			Actual:    testY,
			Accuracy:  acc,
		})
	}
	return results, nil
}
