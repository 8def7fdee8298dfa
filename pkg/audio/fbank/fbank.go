// Package fbank computes log mel filterbank and MFCC features from PCM audio.
//
// Two parameter sets are provided:
//
// DefaultConfig matches the Kaldi/3D-Speaker filterbank front-end
// (16 kHz, 25 ms Hamming window, 10 ms hop, 80 HTK mels).
//
// MFCCConfig holds the common MFCC defaults used for the voice
// identifier: 22050 Hz, 2048-point periodic Hann window, hop 512, centered
// frames, 128 Slaney mels, power in dB with an 80 dB floor, 20 orthonormal
// DCT-II coefficients. A clip of n samples gives 1 + n/512 frames.
package fbank

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// ErrConfig is returned by Validate for an unusable configuration.
var ErrConfig = errors.New("fbank: invalid config")

// Window selects the analysis window.
type Window int

const (
	// Hamming is the symmetric Hamming window.
	Hamming Window = iota
	// Hann is the periodic Hann window.
	Hann
)

// MelScale selects the Hz to mel mapping and filter normalisation.
type MelScale int

const (
	// MelHTK is 2595*log10(1+f/700) with unit-peak filters on FFT bins.
	MelHTK MelScale = iota
	// MelSlaney is the Auditory Toolbox scale with area-normalised filters.
	MelSlaney
)

// Config controls mel filterbank extraction parameters.
type Config struct {
	SampleRate  int      // audio sample rate in Hz
	WindowSize  int      // window length in samples
	HopSize     int      // hop length in samples
	FFTSize     int      // FFT size, a power of two >= WindowSize
	NumMels     int      // number of mel bins
	LowFreq     float64  // lowest mel frequency
	HighFreq    float64  // highest mel frequency, <= SampleRate/2
	PreEmphasis float64  // pre-emphasis coefficient, 0 disables
	Window      Window   // analysis window
	Center      bool     // pad FFTSize/2 zeros on both ends so frame t is centered on t*HopSize
	MelScale    MelScale // mel mapping
	NumCeps     int      // MFCC coefficients kept
	TopDB       float64  // MFCC dB floor below the peak, 0 disables
}

// DefaultConfig returns the 16 kHz log-mel front end.
func DefaultConfig() Config {
	return Config{
		SampleRate:  16000,
		WindowSize:  400,
		HopSize:     160,
		FFTSize:     512,
		NumMels:     80,
		LowFreq:     20,
		HighFreq:    7600,
		PreEmphasis: 0.97,
		Window:      Hamming,
		MelScale:    MelHTK,
		NumCeps:     13,
	}
}

// MFCCConfig returns the parameters used by the voice identifier.
func MFCCConfig() Config {
	return Config{
		SampleRate: 22050,
		WindowSize: 2048,
		HopSize:    512,
		FFTSize:    2048,
		NumMels:    128,
		LowFreq:    0,
		HighFreq:   11025,
		Window:     Hann,
		Center:     true,
		MelScale:   MelSlaney,
		NumCeps:    20,
		TopDB:      80,
	}
}

// Validate reports whether the config can be used.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrConfig, c.SampleRate)
	case c.FFTSize <= 0 || c.FFTSize&(c.FFTSize-1) != 0:
		return fmt.Errorf("%w: fft size %d is not a power of two", ErrConfig, c.FFTSize)
	case c.WindowSize <= 0 || c.WindowSize > c.FFTSize:
		return fmt.Errorf("%w: window size %d (fft %d)", ErrConfig, c.WindowSize, c.FFTSize)
	case c.HopSize <= 0:
		return fmt.Errorf("%w: hop size %d", ErrConfig, c.HopSize)
	case c.NumMels <= 0:
		return fmt.Errorf("%w: %d mels", ErrConfig, c.NumMels)
	case c.LowFreq < 0 || c.HighFreq <= c.LowFreq || c.HighFreq > float64(c.SampleRate)/2:
		return fmt.Errorf("%w: frequency range [%g, %g] at %d Hz", ErrConfig, c.LowFreq, c.HighFreq, c.SampleRate)
	case c.NumCeps <= 0 || c.NumCeps > c.NumMels:
		return fmt.Errorf("%w: %d cepstra for %d mels", ErrConfig, c.NumCeps, c.NumMels)
	}
	return nil
}

// Extractor computes mel filterbank features from PCM samples.
// An Extractor is not safe for concurrent use.
type Extractor struct {
	cfg     Config
	fft     *fourier.FFT
	window  []float64
	melBank [][]float64
	dct     [][]float64 // NumCeps x NumMels
}

// New creates a new fbank Extractor with the given config. The config
// should be checked with Validate first.
func New(cfg Config) *Extractor {
	e := &Extractor{cfg: cfg, fft: fourier.NewFFT(cfg.FFTSize)}
	switch cfg.Window {
	case Hann:
		e.window = hannWindow(cfg.WindowSize)
	default:
		e.window = hammingWindow(cfg.WindowSize)
	}
	switch cfg.MelScale {
	case MelSlaney:
		e.melBank = slaneyFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq)
	default:
		e.melBank = melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq)
	}
	e.dct = dctMatrix(cfg.NumCeps, cfg.NumMels)
	return e
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// NumFrames returns the number of frames produced for n samples.
func (e *Extractor) NumFrames(n int) int {
	if e.cfg.Center {
		return 1 + n/e.cfg.HopSize
	}
	if n < e.cfg.WindowSize {
		return 0
	}
	return (n-e.cfg.WindowSize)/e.cfg.HopSize + 1
}

// melPower returns the mel-filtered power spectrum, [T][NumMels].
func (e *Extractor) melPower(pcm []float32) [][]float64 {
	cfg := e.cfg
	numFrames := e.NumFrames(len(pcm))
	if numFrames == 0 {
		return nil
	}

	offset := 0
	if cfg.Center {
		offset = cfg.FFTSize / 2
	}
	// sample returns the (zero padded) input at padded index i.
	sample := func(i int) float64 {
		i -= offset
		if i < 0 || i >= len(pcm) {
			return 0
		}
		return float64(pcm[i])
	}
	// In centered mode the window sits in the middle of the FFT frame.
	winOff := 0
	if cfg.Center {
		winOff = (cfg.FFTSize - cfg.WindowSize) / 2
	}

	nfft := cfg.FFTSize
	halfFFT := nfft/2 + 1
	frame := make([]float64, nfft)
	coeffs := make([]complex128, halfFFT)
	power := make([]float64, halfFFT)

	out := make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		start := t*cfg.HopSize + winOff

		for i := 0; i < cfg.WindowSize; i++ {
			s := sample(start + i)
			if cfg.PreEmphasis != 0 && i > 0 {
				s -= cfg.PreEmphasis * sample(start+i-1)
			}
			frame[i] = s * e.window[i]
		}
		for i := cfg.WindowSize; i < nfft; i++ {
			frame[i] = 0
		}
		coeffs = e.fft.Coefficients(coeffs, frame)
		for i, c := range coeffs {
			power[i] = real(c)*real(c) + imag(c)*imag(c)
		}

		mel := make([]float64, cfg.NumMels)
		for m := 0; m < cfg.NumMels; m++ {
			sum := 0.0
			for k, w := range e.melBank[m] {
				if w != 0 {
					sum += w * power[k]
				}
			}
			mel[m] = sum
		}
		out[t] = mel
	}
	return out
}

// Extract computes log mel filterbank features from PCM float32 samples.
// Input: pcm is normalized float32 audio samples (range [-1, 1]).
// Output: [T][NumMels] float32 matrix, T = NumFrames(len(pcm)).
func (e *Extractor) Extract(pcm []float32) [][]float32 {
	power := e.melPower(pcm)
	if power == nil {
		return nil
	}
	features := make([][]float32, len(power))
	for t, row := range power {
		mel := make([]float32, len(row))
		for m, v := range row {
			// Log with floor to avoid -inf
			if v < 1e-10 {
				v = 1e-10
			}
			mel[m] = float32(math.Log(v))
		}
		features[t] = mel
	}
	return features
}

// MFCC computes [T][NumCeps] cepstral coefficients: mel power in dB,
// clamped to TopDB below the clip peak, then orthonormal DCT-II.
func (e *Extractor) MFCC(pcm []float32) [][]float32 {
	power := e.melPower(pcm)
	if power == nil {
		return nil
	}

	peak := math.Inf(-1)
	for _, row := range power {
		for m, v := range row {
			db := 10 * math.Log10(math.Max(v, 1e-10))
			row[m] = db
			peak = math.Max(peak, db)
		}
	}
	if e.cfg.TopDB > 0 {
		floor := peak - e.cfg.TopDB
		for _, row := range power {
			for m, v := range row {
				if v < floor {
					row[m] = floor
				}
			}
		}
	}

	ceps := make([][]float32, len(power))
	for t, row := range power {
		c := make([]float32, e.cfg.NumCeps)
		for k, basis := range e.dct {
			sum := 0.0
			for m, v := range row {
				sum += basis[m] * v
			}
			c[k] = float32(sum)
		}
		ceps[t] = c
	}
	return ceps
}

// Normalize scales int16 samples to [-1, 1).
func Normalize(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// CMVN applies Cepstral Mean and Variance Normalization in-place.
// For each dimension, subtracts the mean and divides by the standard
// deviation across all frames.
func CMVN(features [][]float32) {
	if len(features) == 0 {
		return
	}
	dims := len(features[0])
	T := float64(len(features))

	for m := 0; m < dims; m++ {
		sum := float64(0)
		for _, f := range features {
			sum += float64(f[m])
		}
		mean := sum / T

		varSum := float64(0)
		for _, f := range features {
			d := float64(f[m]) - mean
			varSum += d * d
		}
		std := math.Sqrt(varSum / T)
		if std < 1e-10 {
			std = 1e-10
		}

		for _, f := range features {
			f[m] = float32((float64(f[m]) - mean) / std)
		}
	}
}

// Dense copies [T][D] features into a T x D matrix. It returns an error if
// rows differ in width or there are no frames.
func Dense(features [][]float32) (*mat.Dense, error) {
	if len(features) == 0 {
		return nil, errors.New("fbank: no frames")
	}
	cols := len(features[0])
	data := make([]float64, len(features)*cols)
	for t, row := range features {
		if len(row) != cols {
			return nil, fmt.Errorf("fbank: frame %d has %d values, want %d", t, len(row), cols)
		}
		for j, v := range row {
			data[t*cols+j] = float64(v)
		}
	}
	return mat.NewDense(len(features), cols, data), nil
}
