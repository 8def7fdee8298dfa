package voice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// Sample is one labelled clip.
type Sample struct {
	Name     string     // file name within the directory
	Path     string     // full path
	Label    int        // speaker id
	Features *mat.Dense // T×C frames
}

// LoadOptions carries optional hooks for LoadDir.
type LoadOptions struct {
	// Progress, if set, is called after each clip.
	Progress func(done, total int)
}

// LoadDir loads every regular file of dir in name order. Each file name
// must carry a registered speaker prefix; the first bad name or unreadable
// clip aborts the load.
func LoadDir(ctx context.Context, dir string, speakers *Speakers, ex Extractor, opts LoadOptions) ([]Sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("voice: read dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("voice: no clips in %s", dir)
	}

	samples := make([]Sample, 0, len(files))
	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label, err := speakers.ParseSpeaker(name)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name)
		x, err := LoadFeatures(ex, path)
		if err != nil {
			return nil, err
		}
		frames, _ := x.Dims()
		slog.Debug("voice: read", "file", name, "label", label, "frames", frames)
		samples = append(samples, Sample{Name: name, Path: path, Label: label, Features: x})
		if opts.Progress != nil {
			opts.Progress(i+1, len(files))
		}
	}
	return samples, nil
}
