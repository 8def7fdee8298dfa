package voice

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mediaid/mediaid/pkg/audio/fbank"
	"github.com/mediaid/mediaid/pkg/audio/pcm"
	"github.com/mediaid/mediaid/pkg/audio/resampler"
	"github.com/mediaid/mediaid/pkg/audio/wavfile"
)

// ErrEmptyClip is returned for clips with no samples.
var ErrEmptyClip = errors.New("voice: empty clip")

// Extractor turns a decoded clip into a T×C feature matrix, one row per
// analysis frame.
//
// # Audio Requirements
//
// Any channel count, sample rate and bit depth the WAV decoder accepts.
// Implementations downmix and resample as needed.
type Extractor interface {
	// Features computes the frame matrix of clip.
	Features(clip *wavfile.Clip) (*mat.Dense, error)

	// Dim returns the number of columns of every matrix Features returns.
	Dim() int
}

// FeatureOption configures an MFCC or LogMel extractor.
type FeatureOption func(*frontEnd)

// WithCMVN normalises every coefficient to zero mean and unit variance
// across the frames of each clip.
func WithCMVN(on bool) FeatureOption {
	return func(f *frontEnd) {
		f.cmvn = on
	}
}

// frontEnd downmixes and resamples clips for an fbank.Extractor.
type frontEnd struct {
	fb   *fbank.Extractor
	cmvn bool
}

func newFrontEnd(cfg fbank.Config, opts []FeatureOption) (frontEnd, error) {
	if err := cfg.Validate(); err != nil {
		return frontEnd{}, err
	}
	f := frontEnd{fb: fbank.New(cfg)}
	for _, opt := range opts {
		opt(&f)
	}
	return f, nil
}

// SampleRate returns the analysis rate.
func (f *frontEnd) SampleRate() int {
	return f.fb.Config().SampleRate
}

// samples returns the clip as mono float samples at the analysis rate.
func (f *frontEnd) samples(clip *wavfile.Clip) ([]float32, error) {
	if len(clip.Samples) == 0 {
		return nil, ErrEmptyClip
	}
	mono := clip.Mono()

	rate := f.SampleRate()
	if clip.Info.SampleRate != rate {
		out, err := resampler.Convert(pcm.Bytes(mono),
			resampler.Format{SampleRate: clip.Info.SampleRate},
			resampler.Format{SampleRate: rate})
		if err != nil {
			return nil, fmt.Errorf("voice: resample %d→%d Hz: %w", clip.Info.SampleRate, rate, err)
		}
		mono = pcm.Samples(out)
		if len(mono) == 0 {
			return nil, ErrEmptyClip
		}
	}
	return fbank.Normalize(mono), nil
}

func (f *frontEnd) dense(frames [][]float32) (*mat.Dense, error) {
	if f.cmvn {
		fbank.CMVN(frames)
	}
	x, err := fbank.Dense(frames)
	if err != nil {
		return nil, fmt.Errorf("voice: %w", err)
	}
	return x, nil
}

// MFCC extracts mel-frequency cepstral coefficients. Clips are averaged to
// mono and resampled to the configured rate before analysis.
type MFCC struct {
	frontEnd
}

var _ Extractor = (*MFCC)(nil)

// NewMFCC creates an extractor for cfg, usually fbank.MFCCConfig().
func NewMFCC(cfg fbank.Config, opts ...FeatureOption) (*MFCC, error) {
	f, err := newFrontEnd(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &MFCC{frontEnd: f}, nil
}

// Dim returns the number of cepstral coefficients.
func (m *MFCC) Dim() int {
	return m.fb.Config().NumCeps
}

// Features returns the clip's MFCC frames.
func (m *MFCC) Features(clip *wavfile.Clip) (*mat.Dense, error) {
	x, err := m.samples(clip)
	if err != nil {
		return nil, err
	}
	return m.dense(m.fb.MFCC(x))
}

// LogMel extracts log mel filterbank energies, one column per mel band.
// With fbank.DefaultConfig() this is the 16 kHz, 80-band front end of
// embedding speaker models.
type LogMel struct {
	frontEnd
}

var _ Extractor = (*LogMel)(nil)

// NewLogMel creates an extractor for cfg, usually fbank.DefaultConfig().
func NewLogMel(cfg fbank.Config, opts ...FeatureOption) (*LogMel, error) {
	f, err := newFrontEnd(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &LogMel{frontEnd: f}, nil
}

// Dim returns the number of mel bands.
func (l *LogMel) Dim() int {
	return l.fb.Config().NumMels
}

// Features returns the clip's log mel frames.
func (l *LogMel) Features(clip *wavfile.Clip) (*mat.Dense, error) {
	x, err := l.samples(clip)
	if err != nil {
		return nil, err
	}
	frames := l.fb.Extract(x)
	if len(frames) == 0 {
		return nil, ErrEmptyClip
	}
	return l.dense(frames)
}

// FeatureKind names an Extractor for configuration files.
type FeatureKind string

const (
	// FeatureMFCC selects NewMFCC(fbank.MFCCConfig()).
	FeatureMFCC FeatureKind = "mfcc"
	// FeatureLogMel selects NewLogMel(fbank.DefaultConfig()).
	FeatureLogMel FeatureKind = "logmel"
)

// NewExtractor returns the extractor named by kind with its default
// parameters. An empty kind selects MFCC.
func NewExtractor(kind FeatureKind, opts ...FeatureOption) (Extractor, error) {
	switch kind {
	case FeatureMFCC, "":
		return NewMFCC(fbank.MFCCConfig(), opts...)
	case FeatureLogMel:
		return NewLogMel(fbank.DefaultConfig(), opts...)
	}
	return nil, fmt.Errorf("voice: unknown feature kind %q", kind)
}

// LoadFeatures reads the WAV file at path and extracts its features.
func LoadFeatures(ex Extractor, path string) (*mat.Dense, error) {
	clip, err := wavfile.Read(path)
	if err != nil {
		return nil, err
	}
	x, err := ex.Features(clip)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return x, nil
}
