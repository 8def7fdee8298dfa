package resampler

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resampler is an io.ReadCloser producing converted audio. It must be closed
// to release the underlying resampler.
type Resampler interface {
	io.ReadCloser
	CloseWithError(error) error
}

// Converter wraps an io.Reader and converts audio from srcFmt to dstFmt.
type Converter struct {
	srcFmt Format
	src    io.Reader

	dstFmt  Format
	readBuf []byte

	mu        sync.Mutex
	closeErr  error
	resampler resampling.Resampler
	leftover  []byte
}

// New creates a Resampler reading srcFmt audio from src and producing dstFmt
// audio. When the sample rates match only channel conversion is applied.
func New(src io.Reader, srcFmt, dstFmt Format) (Resampler, error) {
	if srcFmt.SampleRate <= 0 || dstFmt.SampleRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid sample rate %d -> %d", srcFmt.SampleRate, dstFmt.SampleRate)
	}

	c := &Converter{
		srcFmt: srcFmt,
		src:    newSampleReader(src, srcFmt.frameBytes()),
		dstFmt: dstFmt,
	}

	if srcFmt.SampleRate != dstFmt.SampleRate {
		rs, err := resampling.New(&resampling.Config{
			InputRate:  float64(srcFmt.SampleRate),
			OutputRate: float64(dstFmt.SampleRate),
			Channels:   dstFmt.channels(),
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create resampler: %w", err)
		}
		c.resampler = rs
	}
	return c, nil
}

// Convert runs a whole buffer through a Resampler and returns the converted
// bytes.
func Convert(data []byte, srcFmt, dstFmt Format) ([]byte, error) {
	r, err := New(bytes.NewReader(data), srcFmt, dstFmt)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}
	return out, nil
}

// Read copies converted audio into p. It returns a multiple of the
// destination frame size. This method is not safe for concurrent use.
func (c *Converter) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	fb := c.dstFmt.frameBytes()
	if len(p) < fb {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/fb*fb]

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.leftover) > 0 {
		n := copy(p, c.leftover)
		c.leftover = c.leftover[n:]
		return n, nil
	}

	if c.closeErr != nil {
		return 0, c.closeErr
	}

	if c.resampler == nil {
		return c.readChannels(p)
	}
	return c.readResampled(p)
}

// readChannels reads without rate conversion.
func (c *Converter) readChannels(p []byte) (int, error) {
	n, err := c.readSource(len(p))
	if n == 0 {
		return 0, err
	}
	copy(p, c.readBuf[:n])
	return n, err
}

func (c *Converter) readResampled(p []byte) (int, error) {
	ratio := float64(c.srcFmt.SampleRate) / float64(c.dstFmt.SampleRate)
	want := int(float64(len(p))*ratio) + c.dstFmt.frameBytes()*4
	want -= want % c.dstFmt.frameBytes()

	n, readErr := c.readSource(want)
	if n == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, io.EOF
	}

	input := make([]float64, n/2)
	for i := range input {
		s := int16(c.readBuf[i*2]) | int16(c.readBuf[i*2+1])<<8
		input[i] = float64(s) / 32768.0
	}

	output, err := c.resampler.Process(input)
	if err != nil {
		return 0, fmt.Errorf("resample error: %w", err)
	}
	if len(output) == 0 {
		return 0, readErr
	}

	out := make([]byte, len(output)*2)
	for i, s := range output {
		var v int16
		switch {
		case s >= 1.0:
			v = 32767
		case s <= -1.0:
			v = -32768
		default:
			v = int16(s * 32767.0)
		}
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	out = out[:len(out)/c.dstFmt.frameBytes()*c.dstFmt.frameBytes()]

	written := copy(p, out)
	if len(out) > written {
		c.leftover = append(c.leftover, out[written:]...)
	}
	return written, readErr
}

// readSource reads up to dstLen bytes of destination-channel audio into
// readBuf, converting channels on the way.
func (c *Converter) readSource(dstLen int) (int, error) {
	srcLen := dstLen
	switch {
	case c.srcFmt.Stereo && !c.dstFmt.Stereo:
		srcLen = dstLen * 2
	case !c.srcFmt.Stereo && c.dstFmt.Stereo:
		srcLen = dstLen / 2
	}
	if cap(c.readBuf) < dstLen*2 {
		c.readBuf = make([]byte, dstLen*2)
	}
	buf := c.readBuf[:cap(c.readBuf)]

	n, err := c.src.Read(buf[:srcLen])
	if n == 0 {
		return 0, err
	}
	c.readBuf = buf
	switch {
	case c.srcFmt.Stereo && !c.dstFmt.Stereo:
		return stereoToMono(buf[:n]), err
	case !c.srcFmt.Stereo && c.dstFmt.Stereo:
		return monoToStereo(buf[:n*2]), err
	}
	return n, err
}

// Close releases resources. Subsequent reads return io.ErrClosedPipe.
func (c *Converter) Close() error {
	return c.CloseWithError(fmt.Errorf("resampler: %w", io.ErrClosedPipe))
}

// CloseWithError releases resources. Subsequent reads return err.
func (c *Converter) CloseWithError(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeErr == nil {
		c.closeErr = err
	}
	c.resampler = nil
	return nil
}

// stereoToMono averages L and R in place and returns the mono byte count.
func stereoToMono(b []byte) int {
	frames := len(b) / 4
	for i := range frames {
		j := i * 4
		k := i * 2
		l := int16(b[j]) | int16(b[j+1])<<8
		r := int16(b[j+2]) | int16(b[j+3])<<8
		m := int16((int32(l) + int32(r)) / 2)
		b[k] = byte(m)
		b[k+1] = byte(m >> 8)
	}
	return frames * 2
}

// monoToStereo duplicates each sample in place. b holds mono data in its
// first half.
func monoToStereo(b []byte) int {
	samples := len(b) / 4
	for i := samples - 1; i >= 0; i-- {
		s0, s1 := b[i*2], b[i*2+1]
		j := i * 4
		b[j], b[j+1] = s0, s1
		b[j+2], b[j+3] = s0, s1
	}
	return samples * 4
}
