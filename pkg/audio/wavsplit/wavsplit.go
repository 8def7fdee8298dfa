// Package wavsplit cuts a WAV clip into consecutive fixed-length pieces.
//
// The cut size is a whole number of seconds. A clip of D seconds cut every
// T seconds yields floor(D/T) pieces of channels*rate*T interleaved samples
// each; the trailing remainder is dropped. Slicing is lossless: the pieces
// concatenated are exactly a prefix of the source buffer.
package wavsplit

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mediaid/mediaid/pkg/audio/wavfile"
)

// ErrInvalidCutTime is returned for a cut time that is not a positive number
// of seconds.
var ErrInvalidCutTime = errors.New("wavsplit: cut time must be a positive number of seconds")

// Plan is the cut arithmetic for one source clip.
type Plan struct {
	wavfile.Info `yaml:",inline"`

	// TotalTime is the clip length in seconds.
	TotalTime float64 `json:"total_time" yaml:"total_time"`
	// WholeSeconds is TotalTime rounded down.
	WholeSeconds int `json:"whole_seconds" yaml:"whole_seconds"`
	// CutTime is the piece length in seconds.
	CutTime int `json:"cut_time" yaml:"cut_time"`
	// SamplesPerCut is channels*rate*CutTime.
	SamplesPerCut int `json:"samples_per_cut" yaml:"samples_per_cut"`
	// NumCuts is floor(TotalTime / CutTime).
	NumCuts int `json:"num_cuts" yaml:"num_cuts"`
}

// NewPlan computes the cut plan for a clip with the given layout.
func NewPlan(info wavfile.Info, cutSeconds int) (Plan, error) {
	if cutSeconds <= 0 {
		return Plan{}, fmt.Errorf("%w: %d", ErrInvalidCutTime, cutSeconds)
	}
	if info.SampleRate <= 0 || info.Channels <= 0 {
		return Plan{}, fmt.Errorf("wavsplit: invalid clip layout %+v", info)
	}
	whole := info.Frames / info.SampleRate
	return Plan{
		Info:          info,
		TotalTime:     info.Seconds(),
		WholeSeconds:  whole,
		CutTime:       cutSeconds,
		SamplesPerCut: info.Channels * info.SampleRate * cutSeconds,
		NumCuts:       whole / cutSeconds,
	}, nil
}

// ParseCutTime parses a cut time typed by the user.
func ParseCutTime(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCutTime, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCutTime, n)
	}
	return n, nil
}

// Split slices clip into plan.NumCuts pieces. Each piece keeps the source
// channel count, bit depth and frame rate.
func Split(clip *wavfile.Clip, cutSeconds int) ([]*wavfile.Clip, Plan, error) {
	plan, err := NewPlan(clip.Info, cutSeconds)
	if err != nil {
		return nil, Plan{}, err
	}

	pieces := make([]*wavfile.Clip, 0, plan.NumCuts)
	for i := 0; i < plan.NumCuts; i++ {
		start := i * plan.SamplesPerCut
		end := start + plan.SamplesPerCut
		piece, err := wavfile.NewClip(clip.Info.Channels, clip.Info.SampleRate, clip.Info.BitDepth, clip.Samples[start:end])
		if err != nil {
			return nil, Plan{}, err
		}
		pieces = append(pieces, piece)
	}
	return pieces, plan, nil
}

// OutputName returns the file name of a piece: {speaker}_{index}.wav.
func OutputName(speaker string, index int) string {
	return speaker + "_" + strconv.Itoa(index) + ".wav"
}

// Result describes a completed split.
type Result struct {
	Source string   `json:"source" yaml:"source"`
	Plan   Plan     `json:"plan" yaml:"plan"`
	Files  []string `json:"files" yaml:"files"`
}

// SplitFile cuts the WAV file at src into outDir, naming pieces
// {speaker}_{startIndex+i}.wav. outDir is created if it does not exist and
// existing pieces are overwritten.
func SplitFile(src, outDir, speaker string, startIndex, cutSeconds int) (*Result, error) {
	if cutSeconds <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCutTime, cutSeconds)
	}
	clip, err := wavfile.Read(src)
	if err != nil {
		return nil, err
	}

	pieces, plan, err := Split(clip, cutSeconds)
	if err != nil {
		return nil, err
	}
	slog.Debug("wavsplit: plan",
		"source", src,
		"channels", plan.Channels,
		"sample_width", plan.SampleWidth(),
		"frame_rate", plan.SampleRate,
		"frames", plan.Frames,
		"total_time", plan.TotalTime,
		"samples_per_cut", plan.SamplesPerCut,
		"num_cuts", plan.NumCuts,
	)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	res := &Result{Source: src, Plan: plan}
	for i, piece := range pieces {
		path := filepath.Join(outDir, OutputName(speaker, startIndex+i))
		if err := wavfile.Write(path, piece); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, path)
	}
	return res, nil
}
