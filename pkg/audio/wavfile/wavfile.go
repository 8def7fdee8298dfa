// Package wavfile reads and writes PCM WAV files as interleaved integer
// sample buffers.
//
// Decoding and encoding are done by github.com/go-audio/wav. A Clip keeps
// the source channel count, bit depth and frame rate next to the samples so
// callers can slice and re-encode without losing any of them.
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag.
const wavFormatPCM = 1

var (
	// ErrInvalid is returned when the input is not a readable WAV file.
	ErrInvalid = errors.New("wavfile: invalid wav file")

	// ErrShape is returned when a sample buffer does not hold whole frames.
	ErrShape = errors.New("wavfile: sample count is not a multiple of channels")
)

// Info describes the layout of a WAV stream.
type Info struct {
	Channels   int `json:"channels" yaml:"channels"`
	SampleRate int `json:"sample_rate" yaml:"sample_rate"`
	BitDepth   int `json:"bit_depth" yaml:"bit_depth"`
	Frames     int `json:"frames" yaml:"frames"`
}

// SampleWidth returns the size of one sample in bytes.
func (i Info) SampleWidth() int {
	return i.BitDepth / 8
}

// Seconds returns the clip length in seconds.
func (i Info) Seconds() float64 {
	if i.SampleRate == 0 {
		return 0
	}
	return float64(i.Frames) / float64(i.SampleRate)
}

// Duration returns the clip length.
func (i Info) Duration() time.Duration {
	if i.SampleRate == 0 {
		return 0
	}
	return time.Duration(i.Frames) * time.Second / time.Duration(i.SampleRate)
}

// Clip is a decoded WAV file.
type Clip struct {
	Info Info
	// Samples holds interleaved samples at Info.BitDepth resolution.
	Samples []int
}

// NewClip builds a clip from interleaved samples, deriving the frame count.
func NewClip(channels, sampleRate, bitDepth int, samples []int) (*Clip, error) {
	if channels <= 0 || len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples, %d channels", ErrShape, len(samples), channels)
	}
	return &Clip{
		Info: Info{
			Channels:   channels,
			SampleRate: sampleRate,
			BitDepth:   bitDepth,
			Frames:     len(samples) / channels,
		},
		Samples: samples,
	}, nil
}

// Read decodes the WAV file at path.
func Read(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode reads a whole WAV stream.
func Decode(r io.ReadSeeker) (*Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrInvalid
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	channels := int(d.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	return NewClip(channels, int(d.SampleRate), int(d.BitDepth), buf.Data)
}

// Write encodes c to path, replacing any existing file.
func Write(path string, c *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, c); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// Encode writes c as a PCM WAV stream.
func Encode(w io.WriteSeeker, c *Clip) error {
	if c.Info.Channels <= 0 || len(c.Samples)%c.Info.Channels != 0 {
		return ErrShape
	}
	e := wav.NewEncoder(w, c.Info.SampleRate, c.Info.BitDepth, c.Info.Channels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: c.Info.Channels,
			SampleRate:  c.Info.SampleRate,
		},
		Data:           c.Samples,
		SourceBitDepth: c.Info.BitDepth,
	}
	if err := e.Write(buf); err != nil {
		return err
	}
	return e.Close()
}

// Int16 returns the samples rescaled to 16-bit.
func (c *Clip) Int16() []int16 {
	out := make([]int16, len(c.Samples))
	shift := c.Info.BitDepth - 16
	for i, s := range c.Samples {
		switch {
		case c.Info.BitDepth == 8:
			// 8-bit WAV is unsigned.
			out[i] = int16((s - 128) << 8)
		case shift > 0:
			out[i] = int16(s >> shift)
		case shift < 0:
			out[i] = int16(s << -shift)
		default:
			out[i] = int16(s)
		}
	}
	return out
}

// Mono returns 16-bit samples averaged across channels.
func (c *Clip) Mono() []int16 {
	s16 := c.Int16()
	ch := c.Info.Channels
	if ch == 1 {
		return s16
	}
	out := make([]int16, len(s16)/ch)
	for f := range out {
		sum := 0
		for k := 0; k < ch; k++ {
			sum += int(s16[f*ch+k])
		}
		out[f] = int16(sum / ch)
	}
	return out
}
